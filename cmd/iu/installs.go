package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/install-unity/internal/config"
	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/platform"
	"github.com/conn-castle/install-unity/internal/version"
)

func newInstallsCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.InstallsUse,
		Short: messages.InstallsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}
			inst, err := a.installer()
			if err != nil {
				return err
			}
			found, err := inst.FindInstallations(cmd.Context())
			if err != nil {
				return err
			}
			if len(found) == 0 {
				_, _ = fmt.Fprintf(a.stdout, messages.InstallsNoneFmt, inst.InstallRoot())
				return nil
			}
			for _, f := range found {
				_, _ = fmt.Fprintf(a.stdout, "%s\t%s\t%s\n",
					color.GreenString(f.Version.String()), f.Path, strings.Join(f.Packages, ", "))
			}
			return nil
		},
	}
}

func newUninstallCmd(root *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   messages.UninstallUse,
		Short: messages.UninstallShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}
			inst, err := a.installer()
			if err != nil {
				return err
			}
			target, err := findInstalled(cmd.Context(), inst, args[0])
			if err != nil {
				return err
			}
			title := fmt.Sprintf(messages.UninstallConfirmFmt, target.Version, target.Path)
			if err := confirm(cmd.Context(), a.stderr, title, yes); err != nil {
				return err
			}
			if err := inst.PromptForPassword(cmd.Context()); err != nil {
				return err
			}
			if err := inst.Uninstall(cmd.Context(), target); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.stdout, messages.UninstalledFmt, target.Version, target.Path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, messages.InstallFlagYes)
	return cmd
}

func newMoveCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.MoveUse,
		Short: messages.MoveShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}
			inst, err := a.installer()
			if err != nil {
				return err
			}
			target, err := findInstalled(cmd.Context(), inst, args[0])
			if err != nil {
				return err
			}
			dest, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			if !filepath.IsAbs(dest) {
				dest = filepath.Join(inst.InstallRoot(), dest)
			}
			if err := inst.PromptForPassword(cmd.Context()); err != nil {
				return err
			}
			if err := inst.Move(cmd.Context(), target, dest); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.stdout, messages.MovedFmt, target.Version, target.Path, dest)
			return nil
		},
	}
}

func newRunCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.RunUse,
		Short: messages.RunShort,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}
			inst, err := a.installer()
			if err != nil {
				return err
			}
			target, err := findInstalled(cmd.Context(), inst, args[0])
			if err != nil {
				return err
			}
			return inst.Run(cmd.Context(), target, args[1:])
		},
	}
}

// findInstalled returns the newest installation matching pattern.
func findInstalled(ctx context.Context, inst platform.Installer, pattern string) (platform.Installation, error) {
	p, err := version.Parse(pattern)
	if err != nil {
		return platform.Installation{}, err
	}
	found, err := inst.FindInstallations(ctx)
	if err != nil {
		return platform.Installation{}, err
	}
	var best *platform.Installation
	for i := range found {
		if !found[i].Version.Matches(p) {
			continue
		}
		if best == nil || version.Compare(found[i].Version, best.Version) > 0 {
			best = &found[i]
		}
	}
	if best == nil {
		return platform.Installation{}, fmt.Errorf(messages.NotInstalledFmt, pattern)
	}
	return *best, nil
}
