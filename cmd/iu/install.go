package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/download"
	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/metrics"
	"github.com/conn-castle/install-unity/internal/packages"
	"github.com/conn-castle/install-unity/internal/platform"
	"github.com/conn-castle/install-unity/internal/queue"
	"github.com/conn-castle/install-unity/internal/scheduler"
	"github.com/conn-castle/install-unity/internal/terminal"
)

// newDownloaderFunc builds the downloader attached to each queue item.
var newDownloaderFunc = func(a *app) func() queue.Downloader {
	client := download.NewClient(a.cfg.RequestTimeout.Duration)
	return func() queue.Downloader { return download.New(client, a.logger) }
}

type installFlags struct {
	packages      []string
	downloadOnly  bool
	installOnly   bool
	keep          bool
	yes           bool
	allPackages   bool
	unityDefaults bool
	skipChecks    bool
	dir           string
	platform      string
}

// newInstallCmd returns the install command, or the download command when
// downloadOnly is set.
func newInstallCmd(root *rootFlags, downloadOnly bool) *cobra.Command {
	flags := &installFlags{downloadOnly: downloadOnly}
	cmd := &cobra.Command{
		Use:   messages.InstallUse,
		Short: messages.InstallShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runInstall(ctx, a, args[0], flags)
		},
	}
	if downloadOnly {
		cmd.Use = messages.DownloadUse
		cmd.Short = messages.DownloadShort
		cmd.Flags().StringVar(&flags.platform, "platform", "", messages.InstallFlagPlatform)
	} else {
		cmd.Flags().BoolVar(&flags.downloadOnly, "download", false, messages.InstallFlagDownloadOnly)
		cmd.Flags().BoolVar(&flags.installOnly, "install", false, messages.InstallFlagInstallOnly)
		cmd.Flags().BoolVar(&flags.keep, "keep", false, messages.InstallFlagKeep)
		cmd.Flags().BoolVar(&flags.skipChecks, "skip-checks", false, messages.InstallFlagSkipChecks)
	}
	cmd.Flags().StringArrayVarP(&flags.packages, "package", "p", nil, messages.InstallFlagPackages)
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, messages.InstallFlagYes)
	cmd.Flags().BoolVar(&flags.allPackages, "all-packages", false, messages.InstallFlagAllPackages)
	cmd.Flags().BoolVar(&flags.unityDefaults, "unity-defaults", false, messages.InstallFlagUnityDefaults)
	cmd.Flags().StringVar(&flags.dir, "dir", "", messages.InstallFlagDir)
	return cmd
}

func (f *installFlags) steps() (scheduler.Steps, error) {
	switch {
	case f.downloadOnly && f.installOnly:
		return 0, errors.New(messages.InstallStepsConflict)
	case f.downloadOnly:
		return scheduler.StepDownload, nil
	case f.installOnly:
		return scheduler.StepInstall, nil
	}
	if f.platform != "" {
		return 0, errors.New(messages.InstallPlatformForInstall)
	}
	return scheduler.StepAll, nil
}

func runInstall(ctx context.Context, a *app, pattern string, flags *installFlags) error {
	steps, err := flags.steps()
	if err != nil {
		return err
	}
	rec, err := a.lookup(ctx, pattern)
	if err != nil {
		return err
	}

	installer, err := a.installer()
	if err != nil && (steps.Has(scheduler.StepInstall) || flags.platform == "") {
		return err
	}
	plat := catalog.Platform(flags.platform)
	if plat == "" {
		plat = installer.Platform()
	}

	selection, err := selectPackages(a.stderr, rec, plat, flags, a.cfg.DefaultPackages)
	if err != nil {
		return err
	}

	dir, retain := downloadDir(a, installer, flags)
	q, err := queue.CreateQueue(rec, plat, filepath.Join(dir, rec.Version.String()), selection, a.cfg.RetryCount)
	if err != nil {
		return err
	}
	printSelection(a.stdout, q)

	title := fmt.Sprintf(messages.InstallConfirmFmt, rec.Version)
	if !steps.Has(scheduler.StepInstall) {
		title = fmt.Sprintf(messages.InstallConfirmDownloadFmt, rec.Version)
	}
	if err := confirm(ctx, a.stderr, title, flags.yes); err != nil {
		return err
	}

	opts := a.cfg.SchedulerOptions()
	opts.RetainDownloads = retain
	recorder := metrics.New()
	progress := newProgressPrinter(a.stdout, terminal.IsTerminalWriter(a.stdout))
	sched := scheduler.New(installer, newDownloaderFunc(a), a.logger, opts,
		scheduler.WithObserver(progress.observe),
		scheduler.WithMetrics(recorder),
	)
	inst, err := sched.Process(ctx, steps, q, flags.skipChecks)
	progress.finish(q)
	a.pushMetrics(ctx, recorder)

	if err != nil {
		if inst != nil && errors.Is(err, scheduler.ErrCleanupFailure) {
			_, _ = color.New(color.FgYellow).Fprintf(a.stderr, messages.InstallCleanupWarningFmt, err)
			_, _ = fmt.Fprintf(a.stdout, messages.InstallDoneFmt, rec.Version, inst.Path)
			return nil
		}
		return err
	}
	if inst != nil {
		_, _ = fmt.Fprintf(a.stdout, messages.InstallDoneFmt, rec.Version, inst.Path)
		return nil
	}
	_, _ = fmt.Fprintf(a.stdout, messages.InstallDownloadedFmt, rec.Version, q.Dir)
	return nil
}

// selectPackages resolves the package flags, falling back to the default
// selection when none are given. Unknown names are reported on warn and skipped
// as long as something else was selected.
func selectPackages(warn io.Writer, rec catalog.VersionRecord, plat catalog.Platform, flags *installFlags, saved []string) ([]packages.Resolved, error) {
	pkgs := rec.PackagesFor(plat)
	if len(pkgs) == 0 {
		return nil, fmt.Errorf(messages.PackagesNoneFmt, rec.Version, plat)
	}
	patterns := flags.packages
	if len(patterns) == 0 || flags.allPackages {
		defaults := packages.GetDefaultPackages(pkgs, packages.DefaultOptions{
			All:         flags.allPackages,
			Saved:       saved,
			IgnoreSaved: flags.unityDefaults,
		})
		patterns = append(defaults, patterns...)
	}
	resolved, notFound, err := packages.ResolvePackages(patterns, pkgs)
	if err != nil {
		return nil, err
	}
	if len(notFound) > 0 {
		if len(resolved) == 0 {
			return nil, fmt.Errorf(messages.InstallUnknownPackagesFmt, rec.Version, strings.Join(notFound, ", "))
		}
		_, _ = fmt.Fprintln(warn, color.YellowString(messages.InstallSkippingUnknownFmt, rec.Version, strings.Join(notFound, ", ")))
	}
	return resolved, nil
}

// downloadDir picks the download directory and whether it outlives a
// successful install.
func downloadDir(a *app, installer platform.Installer, flags *installFlags) (string, bool) {
	switch {
	case flags.dir != "":
		return flags.dir, true
	case a.cfg.DownloadPath != "":
		return a.cfg.DownloadPath, true
	case installer != nil:
		return installer.DownloadDirectory(), flags.keep
	}
	return filepath.Join(os.TempDir(), "install-unity"), true
}

func printSelection(out io.Writer, q *queue.Queue) {
	_, _ = fmt.Fprintf(out, messages.InstallSelectionHeaderFmt, q.Version.Version)
	var total int64
	for _, it := range q.Items {
		note := ""
		if it.AddedAutomatically {
			note = messages.InstallAddedDependency
		}
		total += it.Package.Size
		_, _ = fmt.Fprintf(out, messages.InstallSelectionLineFmt,
			marker(it.Package.Primary), it.Package.Name, humanize.IBytes(uint64(max(it.Package.Size, 0))), note)
	}
	_, _ = fmt.Fprintf(out, messages.InstallTotalFmt, humanize.IBytes(uint64(max(total, 0))))
}

func marker(on bool) string {
	if on {
		return "*"
	}
	return "-"
}

func (a *app) pushMetrics(ctx context.Context, r *metrics.Recorder) {
	if a.cfg.Metrics.Pushgateway == "" {
		return
	}
	if err := r.Push(context.WithoutCancel(ctx), a.cfg.Metrics.Pushgateway, a.cfg.Metrics.Job); err != nil {
		_, _ = color.New(color.FgYellow).Fprintf(a.stderr, messages.MetricsPushWarningFmt, err)
	}
}
