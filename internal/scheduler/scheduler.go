// Package scheduler drives a queue through download, verification and
// installation under concurrency caps, with download retries and all-or-nothing
// install semantics.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/metrics"
	"github.com/conn-castle/install-unity/internal/platform"
	"github.com/conn-castle/install-unity/internal/queue"
	"github.com/conn-castle/install-unity/internal/version"
)

var (
	// ErrDownloadFailure is a download that failed with no retries left.
	ErrDownloadFailure = errors.New("download failed")
	// ErrInstallFailure is a failed install. Installs are never retried.
	ErrInstallFailure = errors.New("install failed")
	// ErrCleanupFailure is a failure to discard staged install state or downloads.
	ErrCleanupFailure = errors.New("cleanup failed")
	// ErrCancelled is returned when the context was cancelled during processing.
	ErrCancelled = errors.New("cancelled")
)

// Steps selects the work a Process call performs.
type Steps uint8

const (
	// StepDownload transfers package files.
	StepDownload Steps = 1 << iota
	// StepInstall installs package files. Without StepDownload, files must already
	// be present and are only verified.
	StepInstall
	// StepAll downloads and installs.
	StepAll = StepDownload | StepInstall
)

// Has reports whether s includes x.
func (s Steps) Has(x Steps) bool {
	return s&x == x
}

// Defaults.
const (
	DefaultMaxConcurrentDownloads = 2
	DefaultMaxConcurrentInstalls  = 1
	DefaultRetryDelay             = 10 * time.Second
	DefaultPollInterval           = 100 * time.Millisecond
	DefaultInstallPathTemplate    = "Unity {version}"
)

// Options tunes the scheduler.
type Options struct {
	MaxConcurrentDownloads int
	MaxConcurrentInstalls  int
	// RetryDelay is the wait before a failed download is started again.
	RetryDelay   time.Duration
	PollInterval time.Duration
	// InstallPathTemplate is passed to the installer; see version.Version.Expand.
	InstallPathTemplate string
	// RetainDownloads keeps the download dir after a successful install.
	RetainDownloads bool
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrentDownloads <= 0 {
		o.MaxConcurrentDownloads = DefaultMaxConcurrentDownloads
	}
	if o.MaxConcurrentInstalls <= 0 {
		o.MaxConcurrentInstalls = DefaultMaxConcurrentInstalls
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.InstallPathTemplate == "" {
		o.InstallPathTemplate = DefaultInstallPathTemplate
	}
	return o
}

// Observer is called on the scheduling goroutine after every round of state
// changes. It must not modify the queue.
type Observer func(q *queue.Queue)

// Scheduler processes queues one at a time.
type Scheduler struct {
	installer     platform.Installer
	newDownloader func() queue.Downloader
	logger        *log.Logger
	opts          Options
	metrics       *metrics.Recorder
	observer      Observer
	now           func() time.Time

	mu     sync.Mutex
	active *Operation
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithObserver registers fn to watch state changes.
func WithObserver(fn Observer) Option {
	return func(s *Scheduler) { s.observer = fn }
}

// WithMetrics records run statistics in r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Scheduler) { s.metrics = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New returns a Scheduler installing through installer and downloading with
// downloaders made by newDownloader.
func New(installer platform.Installer, newDownloader func() queue.Downloader, logger *log.Logger, opts Options, options ...Option) *Scheduler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Scheduler{
		installer:     installer,
		newDownloader: newDownloader,
		logger:        logger,
		opts:          opts.withDefaults(),
		now:           time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Operation is the state of one Process call.
type Operation struct {
	ID      string
	Steps   Steps
	Queue   *queue.Queue
	Started time.Time

	// installBegun is set once PrepareInstall was called, after which an abort
	// must discard staged install state.
	installBegun bool
	logger       *log.Logger
}

// Active returns the operation in progress, or nil.
func (s *Scheduler) Active() *Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Scheduler) begin(op *Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return fmt.Errorf(messages.SchedulerBusy, queue.ErrStateViolation)
	}
	s.active = op
	return nil
}

func (s *Scheduler) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
}

// Process runs steps for every item of q and returns the resulting installation,
// or nil when nothing was installed. skipChecks allows installing a queue without
// its primary package even if the version is not installed yet.
//
// A failure of any item aborts the whole queue. If installing had begun, the
// staged install is discarded before the error is returned.
func (s *Scheduler) Process(ctx context.Context, steps Steps, q *queue.Queue, skipChecks bool) (*platform.Installation, error) {
	if steps&StepAll == 0 {
		return nil, fmt.Errorf(messages.SchedulerNoSteps, queue.ErrInvalidArgument)
	}
	if err := q.Claim(); err != nil {
		return nil, err
	}
	defer q.Release()

	op := &Operation{ID: uuid.NewString(), Steps: steps, Queue: q, Started: s.now()}
	op.logger = s.logger.With("op", op.ID[:8])
	if err := s.begin(op); err != nil {
		return nil, err
	}
	defer s.end()

	inst, err := s.process(ctx, op, skipChecks)
	s.metrics.RunFinished(resultLabel(err), s.now().Sub(op.Started))
	return inst, err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrCancelled):
		return metrics.ResultCancelled
	default:
		return metrics.ResultFailure
	}
}

func (s *Scheduler) process(ctx context.Context, op *Operation, skipChecks bool) (*platform.Installation, error) {
	q := op.Queue
	installing := op.Steps.Has(StepInstall)

	if installing && q.Primary() == nil && !skipChecks {
		if err := s.requireInstalled(ctx, q.Version.Version); err != nil {
			return nil, err
		}
	}
	if installing {
		if err := s.installer.PromptForPassword(ctx); err != nil {
			return nil, err
		}
	}

	for _, it := range q.Items {
		it.Download = s.newDownloader()
		it.Download.Prepare(it.URL, it.FilePath, it.Package.Size, it.Package.Checksum)
	}

	if installing {
		op.installBegun = true
		if err := s.installer.PrepareInstall(ctx, q, s.opts.InstallPathTemplate); err != nil {
			return nil, s.abort(ctx, op, fmt.Errorf(messages.SchedulerPrepareFailedFmt, ErrInstallFailure, err))
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	err := s.run(loopCtx, op)
	cancel()
	if err != nil {
		waitForTasks(q)
		return nil, s.abort(ctx, op, err)
	}

	var inst *platform.Installation
	if installing {
		inst, err = s.installer.CompleteInstall(ctx, false)
		if err != nil {
			return nil, s.abort(ctx, op, fmt.Errorf(messages.SchedulerPromoteFailedFmt, ErrInstallFailure, err))
		}
		op.logger.Info("installed", "version", q.Version.Version, "path", inst.Path)
	}
	if op.Steps == StepAll && !s.opts.RetainDownloads {
		if err := s.cleanup(op); err != nil {
			return inst, err
		}
	}
	return inst, nil
}

func (s *Scheduler) requireInstalled(ctx context.Context, v version.Version) error {
	found, err := s.installer.FindInstallations(ctx)
	if err != nil {
		return err
	}
	for _, inst := range found {
		if version.Compare(inst.Version, v) == 0 {
			return nil
		}
	}
	return fmt.Errorf(messages.SchedulerPrimaryMissingFmt, queue.ErrStateViolation, v)
}

// abort discards staged install state if any and returns cause, extended with
// the rollback error when discarding failed.
func (s *Scheduler) abort(ctx context.Context, op *Operation, cause error) error {
	op.logger.Error("aborting queue", "err", cause)
	if !op.installBegun {
		return cause
	}
	if _, err := s.installer.CompleteInstall(context.WithoutCancel(ctx), true); err != nil {
		op.logger.Error("rollback failed", "err", err)
		return fmt.Errorf(messages.SchedulerRollbackFailedFmt, cause, fmt.Errorf(messages.SchedulerRollbackErrFmt, ErrCleanupFailure, err))
	}
	return cause
}

func waitForTasks(q *queue.Queue) {
	for _, it := range q.Items {
		if it.Task != nil {
			<-it.Task.Done()
		}
	}
}
