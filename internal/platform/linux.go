package platform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/queue"
)

// linuxInstaller extracts archives into a sibling staging directory of the final
// install path, owned by the current user.
type linuxInstaller struct {
	base
}

func (l *linuxInstaller) Platform() catalog.Platform {
	return catalog.PlatformLinux
}

func (l *linuxInstaller) LeavesStrayFiles() bool {
	return false
}

func (l *linuxInstaller) PromptForPassword(context.Context) error {
	return nil
}

func (l *linuxInstaller) PrepareInstall(_ context.Context, q *queue.Queue, pathTemplate string) error {
	id := l.opts.NewID()
	op, err := l.begin(q, pathTemplate, func(final string) string { return stagingPath(final, id) })
	if err != nil {
		return err
	}
	if err := l.opts.System.MkdirAll(op.staging, 0o755); err != nil {
		l.op = nil
		return fmt.Errorf(messages.PlatformCreateStagingFmt, op.staging, err)
	}
	l.opts.Logger.Debug("staging install", "path", op.staging, "final", op.final)
	return nil
}

func (l *linuxInstaller) Install(ctx context.Context, _ *queue.Queue, item *queue.Item) error {
	op := l.op
	if op == nil {
		return errors.New(messages.PlatformNotPrepared)
	}
	dest := destinationIn(op.staging, item.Package)
	cmd, ok := extractCommand(item.FilePath, dest, false)
	if !ok {
		return fmt.Errorf(messages.PlatformUnsupportedPackageFmt, item.Package.Name, filepath.Ext(item.FilePath), catalog.PlatformLinux)
	}
	if err := l.opts.System.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf(messages.PlatformCreateStagingFmt, dest, err)
	}
	l.opts.Logger.Infof(messages.PlatformInstallingFmt, item.Package.Name)
	if err := l.opts.Runner.Run(ctx, cmd); err != nil {
		return err
	}
	op.added(item.Package.Name)
	return nil
}

func (l *linuxInstaller) CompleteInstall(_ context.Context, aborted bool) (*Installation, error) {
	op := l.finish()
	if op == nil {
		return nil, nil
	}
	sys := l.opts.System
	if aborted {
		if err := sys.RemoveAll(op.staging); err != nil {
			return nil, fmt.Errorf(messages.PlatformDiscardStagingFmt, op.staging, err)
		}
		return nil, nil
	}

	if op.existing == nil {
		if err := writeMarker(sys, *op.record(op.staging)); err != nil {
			return nil, l.failPromotion(op, nil, err)
		}
		if err := sys.Rename(op.staging, op.final); err != nil {
			return nil, l.failPromotion(op, nil, fmt.Errorf(messages.PlatformPromoteFmt, op.staging, op.final, err))
		}
		return op.record(op.final), nil
	}

	j := &mergeJournal{sys: sys, backup: op.staging + replacedSuffix}
	if err := j.merge(op.staging, op.final); err != nil {
		return nil, l.failPromotion(op, j, err)
	}
	inst := op.record(op.final)
	if err := writeMarker(sys, *inst); err != nil {
		return nil, l.failPromotion(op, j, err)
	}
	for _, dir := range []string{op.staging, j.backup} {
		if err := sys.RemoveAll(dir); err != nil {
			l.opts.Logger.Warn("could not remove staging dir", "path", dir, "err", err)
		}
	}
	return inst, nil
}

// failPromotion returns the installation to its state before CompleteInstall
// and removes the staging dir. Replaced files are kept if they could not be
// moved back.
func (l *linuxInstaller) failPromotion(op *operation, j *mergeJournal, cause error) error {
	sys := l.opts.System
	var errs []error
	if j != nil {
		if err := j.undo(); err != nil {
			errs = append(errs, err)
		} else if err := sys.RemoveAll(j.backup); err != nil {
			errs = append(errs, err)
		}
	}
	if err := sys.RemoveAll(op.staging); err != nil {
		errs = append(errs, fmt.Errorf(messages.PlatformDiscardStagingFmt, op.staging, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf(messages.PlatformPromoteUndoFmt, cause, errors.Join(errs...))
	}
	return cause
}

func (l *linuxInstaller) Uninstall(_ context.Context, inst Installation) error {
	return l.opts.System.RemoveAll(inst.Path)
}

func (l *linuxInstaller) Run(ctx context.Context, inst Installation, args []string) error {
	return l.opts.Runner.Run(ctx, Command{Name: filepath.Join(inst.Path, "Editor", "Unity"), Args: args})
}
