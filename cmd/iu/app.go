package main

import (
	"context"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/config"
	"github.com/conn-castle/install-unity/internal/download"
	"github.com/conn-castle/install-unity/internal/platform"
)

// Seams replaced in tests.
var (
	hostOS          = runtime.GOOS
	getenv          = os.Getenv
	defaultPaths    = config.DefaultPaths
	refreshCatalog  = catalog.Refresh
	newInstaller    = platform.New
	isInteractive   = terminalInteractive
	confirmFunc     = confirmPrompt
	passwordFunc    = passwordPrompt
	installerSystem platform.System
	installerRunner platform.Runner
)

// app is the state shared by a single command invocation.
type app struct {
	flags      *rootFlags
	paths      config.Paths
	configPath string
	cfg        *config.Config
	noNetwork  bool
	logger     *log.Logger
	stdout     io.Writer
	stderr     io.Writer
}

// loadApp reads the config and builds the logger for cmd.
func loadApp(cmd *cobra.Command, flags *rootFlags) (*app, error) {
	paths, err := defaultPaths()
	if err != nil {
		return nil, err
	}
	configPath := paths.ConfigPath
	if flags.configPath != "" {
		configPath, err = config.ExpandPath(flags.configPath)
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	noNetwork, err := cfg.ApplyEnv(getenv)
	if err != nil {
		return nil, err
	}
	a := &app{
		flags:      flags,
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		noNetwork:  noNetwork,
		stdout:     cmd.OutOrStdout(),
		stderr:     cmd.ErrOrStderr(),
	}
	a.logger = newLogger(a.stderr, cfg.LogLevel, flags.verbose)
	return a, nil
}

func newLogger(w io.Writer, level string, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: false})
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// catalog returns the version catalog, refreshing the cache when needed.
func (a *app) catalog(ctx context.Context) (*catalog.Static, error) {
	return refreshCatalog(ctx, catalog.FetchOptions{
		URL:       a.cfg.CatalogURL,
		CachePath: a.cfg.CatalogCachePath(a.paths),
		Lifetime:  a.cfg.CatalogLifetime.Duration,
		Force:     a.flags.update,
		NoNetwork: a.noNetwork,
		Client:    download.NewClient(a.cfg.RequestTimeout.Duration),
		Logger:    a.logger,
	})
}

// installer returns the platform installer for the host.
func (a *app) installer() (platform.Installer, error) {
	return newInstaller(hostOS, platform.Options{
		Root:   a.cfg.InstallRoot,
		System: installerSystem,
		Runner: installerRunner,
		Logger: a.logger,
		Prompt: func(ctx context.Context) (string, error) {
			return passwordFunc(ctx, a.stderr)
		},
	})
}

// lookup resolves a version pattern against the catalog.
func (a *app) lookup(ctx context.Context, pattern string) (catalog.VersionRecord, error) {
	c, err := a.catalog(ctx)
	if err != nil {
		return catalog.VersionRecord{}, err
	}
	return c.Lookup(pattern)
}
