// Package platform performs the operating system specific parts of installing:
// running native installers or extracting archives into a staging location,
// promoting or discarding it, and managing existing installations.
package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/queue"
	"github.com/conn-castle/install-unity/internal/version"
)

// ErrUnsupported is returned by New for operating systems without an installer.
var ErrUnsupported = errors.New("unsupported platform")

// Installation is an installed editor found on disk or produced by an install.
type Installation struct {
	Path     string
	Version  version.Version
	Packages []string
}

// Installer carries out installs on one operating system.
//
// An install is staged: PrepareInstall sets up a working location, Install adds
// packages to it, and CompleteInstall either promotes it to its final path or
// discards it entirely.
type Installer interface {
	Platform() catalog.Platform
	FindInstallations(ctx context.Context) ([]Installation, error)
	PrepareInstall(ctx context.Context, q *queue.Queue, pathTemplate string) error
	Install(ctx context.Context, q *queue.Queue, item *queue.Item) error
	// CompleteInstall promotes the staged install, or discards it when aborted.
	// It returns nil when aborted or when nothing was prepared. When promotion
	// fails, the staged install is discarded and anything moved out of its way is
	// put back before the error is returned; a later call then does nothing.
	CompleteInstall(ctx context.Context, aborted bool) (*Installation, error)
	Uninstall(ctx context.Context, inst Installation) error
	Run(ctx context.Context, inst Installation, args []string) error
	Move(ctx context.Context, inst Installation, newPath string) error
	// PromptForPassword makes sure privileged commands can run.
	PromptForPassword(ctx context.Context) error
	// DownloadDirectory is the default, non-durable download location.
	DownloadDirectory() string
	// InstallRoot is the directory installations are created in.
	InstallRoot() string
	// LeavesStrayFiles reports whether the native installer may leave unexpected
	// files next to the packages it installs.
	LeavesStrayFiles() bool
}

// PasswordPrompt asks the user for the administrator password.
type PasswordPrompt func(ctx context.Context) (string, error)

// Options configures an Installer.
type Options struct {
	// Root is the install root; defaults depend on the operating system.
	Root   string
	System System
	Runner Runner
	Logger *log.Logger
	Prompt PasswordPrompt
	// NewID names staging locations; it defaults to a short random id.
	NewID func() string
}

// DefaultRoot returns the install root used when none is configured.
func DefaultRoot(goos string) string {
	switch goos {
	case "darwin":
		return "/Applications"
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "Unity")
		}
		return filepath.Join(home, "Unity")
	}
}

// New returns the installer for goos.
func New(goos string, opts Options) (Installer, error) {
	if opts.Root == "" {
		opts.Root = DefaultRoot(goos)
	}
	if opts.System == nil {
		opts.System = RealSystem{}
	}
	if opts.Runner == nil {
		opts.Runner = &ExecRunner{AsRoot: opts.System.Geteuid() == 0}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString()[:8] }
	}
	b := base{opts: opts}
	switch goos {
	case "linux":
		return &linuxInstaller{base: b}, nil
	case "darwin":
		return &darwinInstaller{base: b}, nil
	}
	return nil, fmt.Errorf(messages.PlatformUnsupportedFmt, ErrUnsupported, goos)
}

// base holds what both installers share: options, the active staging
// operation, and installation discovery.
type base struct {
	opts Options
	op   *operation
}

// operation is one staged install from PrepareInstall to CompleteInstall.
type operation struct {
	version  version.Version
	final    string
	staging  string
	existing *Installation
	packages []string
	// movedAside is where an unrelated occupant of the staging path was moved.
	movedAside string

	mu sync.Mutex
}

func (b *base) InstallRoot() string {
	return b.opts.Root
}

func (b *base) DownloadDirectory() string {
	return filepath.Join(os.TempDir(), "install-unity")
}

func (b *base) installPath(tmpl string, v version.Version) string {
	p := v.Expand(tmpl)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(b.opts.Root, p)
}

// begin validates the target path and records a new operation. Installing a
// queue without its primary package requires the same version at the target.
func (b *base) begin(q *queue.Queue, tmpl string, staging func(final string) string) (*operation, error) {
	if b.op != nil {
		return nil, errors.New(messages.PlatformAlreadyPrepared)
	}
	v := q.Version.Version
	final := b.installPath(tmpl, v)
	existing, err := b.installationAt(final)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if version.Compare(existing.Version, v) != 0 {
			return nil, fmt.Errorf(messages.PlatformVersionMismatchFmt, final, existing.Version, v)
		}
		if q.Primary() != nil {
			return nil, fmt.Errorf(messages.PlatformAlreadyInstalledFmt, v, final)
		}
	}
	op := &operation{version: v, final: final, staging: staging(final), existing: existing}
	if existing != nil {
		op.packages = append(op.packages, existing.Packages...)
	}
	b.op = op
	return op, nil
}

// installationAt reads the installation at path. It returns nil when nothing is
// there and an error when the path is occupied by something else.
func (b *base) installationAt(path string) (*Installation, error) {
	if _, err := b.opts.System.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	inst, ok, err := readMarker(b.opts.System, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf(messages.PlatformPathOccupiedFmt, path)
	}
	return &inst, nil
}

func (b *base) FindInstallations(_ context.Context) ([]Installation, error) {
	return findInstallations(b.opts.System, b.opts.Root)
}

func (b *base) Move(_ context.Context, inst Installation, newPath string) error {
	if _, err := b.opts.System.Stat(newPath); err == nil {
		return fmt.Errorf(messages.PlatformMoveTargetExistsFmt, newPath)
	}
	return b.opts.System.Rename(inst.Path, newPath)
}

// finish ends the active operation and returns it.
func (b *base) finish() *operation {
	op := b.op
	b.op = nil
	return op
}

func (op *operation) record(path string) *Installation {
	op.mu.Lock()
	defer op.mu.Unlock()
	return &Installation{Path: path, Version: op.version, Packages: append([]string(nil), op.packages...)}
}

func (op *operation) added(name string) {
	op.mu.Lock()
	defer op.mu.Unlock()
	for _, p := range op.packages {
		if p == name {
			return
		}
	}
	op.packages = append(op.packages, name)
}
