package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/queue"
)

// run advances the queue until every item is Complete, a failure is fatal, or
// ctx is cancelled. Only this goroutine changes item state; downloads and
// installs run in their own goroutines and are polled without blocking.
func (s *Scheduler) run(ctx context.Context, op *Operation) error {
	q := op.Queue
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf(messages.SchedulerCancelledFmt, ErrCancelled, err)
		}
		if err := s.poll(ctx, op); err != nil {
			return err
		}
		s.observe(q)
		if q.Done() {
			return nil
		}
		s.startWork(ctx, op)
		s.observe(q)

		timer.Reset(s.opts.PollInterval)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
}

func (s *Scheduler) observe(q *queue.Queue) {
	s.metrics.ObserveStates(q)
	if s.observer != nil {
		s.observer(q)
	}
}

// poll collects the results of finished downloads and installs.
func (s *Scheduler) poll(ctx context.Context, op *Operation) error {
	now := s.now()
	for _, it := range op.Queue.Items {
		switch it.State() {
		case queue.Hashing, queue.Downloading:
			if !it.Task.Finished() {
				if it.State() == queue.Hashing && it.Download.Phase() == queue.PhaseTransferring {
					it.SetState(queue.Downloading)
				}
				continue
			}
			err := it.Task.Err()
			it.Task = nil
			if err != nil {
				if ctx.Err() != nil {
					return fmt.Errorf(messages.SchedulerCancelledFmt, ErrCancelled, ctx.Err())
				}
				if op.Steps.Has(StepDownload) && it.RetriesLeft > 0 {
					it.RetriesLeft--
					it.RetryAfter = now.Add(s.opts.RetryDelay)
					it.Download.Reset()
					it.SetState(queue.WaitingForDownload)
					s.metrics.DownloadRetried()
					op.logger.Warn("download failed, retrying", "package", it.Package.Name, "retries_left", it.RetriesLeft, "err", err)
					continue
				}
				return fmt.Errorf(messages.SchedulerDownloadFailedFmt, ErrDownloadFailure, it.Package.Name, err)
			}
			if op.Steps.Has(StepInstall) {
				it.SetState(queue.WaitingForInstall)
			} else {
				it.SetState(queue.Complete)
			}
			op.logger.Debug("download complete", "package", it.Package.Name)

		case queue.Installing:
			if !it.Task.Finished() {
				continue
			}
			err := it.Task.Err()
			it.Task = nil
			s.metrics.InstallFinished(err == nil)
			if err != nil {
				if ctx.Err() != nil {
					return fmt.Errorf(messages.SchedulerCancelledFmt, ErrCancelled, ctx.Err())
				}
				return fmt.Errorf(messages.SchedulerInstallFailedFmt, ErrInstallFailure, it.Package.Name, err)
			}
			it.SetState(queue.Complete)
			op.logger.Info("package installed", "package", it.Package.Name)
		}
	}
	return nil
}

// startWork fills free download and install slots in list order.
func (s *Scheduler) startWork(ctx context.Context, op *Operation) {
	q := op.Queue
	now := s.now()

	downloads := q.DownloadSlotsInUse()
	for _, it := range q.Items {
		if downloads >= s.opts.MaxConcurrentDownloads {
			break
		}
		if it.State() != queue.WaitingForDownload || now.Before(it.RetryAfter) {
			continue
		}
		if op.Steps.Has(StepDownload) {
			it.Task = it.Download.Start(ctx)
		} else {
			it.Task = it.Download.AssertExistingFileHash(ctx)
		}
		it.SetState(queue.Hashing)
		s.metrics.DownloadStarted()
		downloads++
	}

	if !op.Steps.Has(StepInstall) {
		return
	}
	installs := q.InstallSlotsInUse()
	primary := q.Primary()
	for _, it := range q.Items {
		if installs >= s.opts.MaxConcurrentInstalls {
			break
		}
		if it.State() != queue.WaitingForInstall {
			continue
		}
		if primary != nil && it != primary && primary.State() != queue.Complete {
			continue
		}
		it.Task = queue.Go(ctx, func(ctx context.Context) error {
			return s.installer.Install(ctx, q, it)
		})
		it.SetState(queue.Installing)
		op.logger.Debug("installing", "package", it.Package.Name)
		installs++
	}
}
