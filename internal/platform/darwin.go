package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/queue"
)

// darwinStagingName is where the macOS editor installer always installs to,
// relative to the install root.
const darwinStagingName = "Unity"

// darwinInstaller runs the native package installer, which only installs into
// <root>/Unity. That path doubles as the staging location; whatever occupied it
// before is moved aside and restored afterwards.
type darwinInstaller struct {
	base
	// installer(8) must not run concurrently.
	installMu sync.Mutex
}

func (d *darwinInstaller) Platform() catalog.Platform {
	return catalog.PlatformMac
}

func (d *darwinInstaller) LeavesStrayFiles() bool {
	return false
}

func (d *darwinInstaller) PromptForPassword(ctx context.Context) error {
	return promptForPassword(ctx, d.opts)
}

func (d *darwinInstaller) sudo(ctx context.Context, name string, args ...string) error {
	return d.opts.Runner.Run(ctx, Command{Name: name, Args: args, Sudo: true})
}

func (d *darwinInstaller) PrepareInstall(ctx context.Context, q *queue.Queue, pathTemplate string) error {
	staging := filepath.Join(d.opts.Root, darwinStagingName)
	op, err := d.begin(q, pathTemplate, func(string) string { return staging })
	if err != nil {
		return err
	}
	if _, err := d.opts.System.Stat(staging); err == nil {
		aside := stagingPath(staging, d.opts.NewID())
		if err := d.opts.System.Rename(staging, aside); err != nil {
			d.op = nil
			return fmt.Errorf(messages.PlatformMoveAsideFmt, staging, err)
		}
		op.movedAside = aside
		d.opts.Logger.Debug("moved existing installation aside", "from", staging, "to", aside)
	}
	if op.existing != nil {
		if err := d.sudo(ctx, "cp", "-cpR", op.final, staging); err != nil {
			_, _ = d.CompleteInstall(context.WithoutCancel(ctx), true)
			return fmt.Errorf(messages.PlatformCreateStagingFmt, staging, err)
		}
	}
	return nil
}

func (d *darwinInstaller) Install(ctx context.Context, _ *queue.Queue, item *queue.Item) error {
	op := d.op
	if op == nil {
		return errors.New(messages.PlatformNotPrepared)
	}
	var cmd Command
	switch kindOf(item.FilePath) {
	case kindPkg:
		cmd = Command{Name: "installer", Args: []string{"-pkg", item.FilePath, "-target", "/"}, Sudo: true}
	default:
		dest := destinationIn(op.staging, item.Package)
		c, ok := extractCommand(item.FilePath, dest, true)
		if !ok {
			return fmt.Errorf(messages.PlatformUnsupportedPackageFmt, item.Package.Name, filepath.Ext(item.FilePath), catalog.PlatformMac)
		}
		if err := d.sudo(ctx, "mkdir", "-p", dest); err != nil {
			return err
		}
		cmd = c
	}

	d.installMu.Lock()
	defer d.installMu.Unlock()
	d.opts.Logger.Infof(messages.PlatformInstallingFmt, item.Package.Name)
	if err := d.opts.Runner.Run(ctx, cmd); err != nil {
		return err
	}
	op.added(item.Package.Name)
	return nil
}

func (d *darwinInstaller) CompleteInstall(ctx context.Context, aborted bool) (*Installation, error) {
	op := d.finish()
	if op == nil {
		return nil, nil
	}
	if aborted {
		return nil, d.discard(ctx, op)
	}

	inst := op.record(op.final)
	if err := d.writeMarker(ctx, op.staging, *inst); err != nil {
		return nil, d.failPromotion(ctx, op, err)
	}
	var old string
	if op.existing != nil {
		old = stagingPath(op.final, d.opts.NewID())
		if err := d.sudo(ctx, "mv", op.final, old); err != nil {
			return nil, d.failPromotion(ctx, op, fmt.Errorf(messages.PlatformMoveAsideFmt, op.final, err))
		}
	}
	if err := d.sudo(ctx, "mv", op.staging, op.final); err != nil {
		cause := fmt.Errorf(messages.PlatformPromoteFmt, op.staging, op.final, err)
		if old != "" {
			if err := d.sudo(ctx, "mv", old, op.final); err != nil {
				cause = fmt.Errorf(messages.PlatformPromoteUndoFmt, cause, fmt.Errorf(messages.PlatformRestoreFmt, op.final, old, err))
			}
		}
		return nil, d.failPromotion(ctx, op, cause)
	}
	if old != "" {
		if err := d.sudo(ctx, "rm", "-rf", old); err != nil {
			d.opts.Logger.Warn("could not remove previous installation copy", "path", old, "err", err)
		}
	}
	if err := d.restore(op); err != nil {
		return inst, err
	}
	return inst, nil
}

// discard removes the staged install and puts back whatever it displaced.
func (d *darwinInstaller) discard(ctx context.Context, op *operation) error {
	var errs []error
	if err := d.sudo(ctx, "rm", "-rf", op.staging); err != nil {
		errs = append(errs, fmt.Errorf(messages.PlatformDiscardStagingFmt, op.staging, err))
	}
	if err := d.restore(op); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// failPromotion discards the staged install after cause stopped its promotion.
func (d *darwinInstaller) failPromotion(ctx context.Context, op *operation, cause error) error {
	if err := d.discard(context.WithoutCancel(ctx), op); err != nil {
		return fmt.Errorf(messages.PlatformPromoteUndoFmt, cause, err)
	}
	return cause
}

// writeMarker writes the marker through a temp file since the staged
// installation is owned by root.
func (d *darwinInstaller) writeMarker(ctx context.Context, dir string, inst Installation) error {
	tmpDir, err := os.MkdirTemp("", "install-unity-marker-")
	if err != nil {
		return fmt.Errorf(messages.PlatformWriteMarkerFmt, dir, err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	tmp := inst
	tmp.Path = tmpDir
	if err := writeMarker(d.opts.System, tmp); err != nil {
		return err
	}
	if err := d.sudo(ctx, "cp", filepath.Join(tmpDir, MarkerFile), filepath.Join(dir, MarkerFile)); err != nil {
		return fmt.Errorf(messages.PlatformWriteMarkerFmt, filepath.Join(dir, MarkerFile), err)
	}
	return nil
}

func (d *darwinInstaller) restore(op *operation) error {
	if op.movedAside == "" {
		return nil
	}
	if err := d.opts.System.Rename(op.movedAside, op.staging); err != nil {
		return fmt.Errorf(messages.PlatformRestoreFmt, op.staging, op.movedAside, err)
	}
	return nil
}

func (d *darwinInstaller) Uninstall(ctx context.Context, inst Installation) error {
	return d.sudo(ctx, "rm", "-rf", inst.Path)
}

func (d *darwinInstaller) Move(ctx context.Context, inst Installation, newPath string) error {
	if _, err := d.opts.System.Stat(newPath); err == nil {
		return fmt.Errorf(messages.PlatformMoveTargetExistsFmt, newPath)
	}
	return d.sudo(ctx, "mv", inst.Path, newPath)
}

func (d *darwinInstaller) Run(ctx context.Context, inst Installation, args []string) error {
	all := append([]string{"-n", filepath.Join(inst.Path, "Unity.app"), "--args"}, args...)
	return d.opts.Runner.Run(ctx, Command{Name: "open", Args: all})
}
