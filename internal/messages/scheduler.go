package messages

// Scheduler messages.
const (
	SchedulerNoSteps              = "%w: nothing to do, neither download nor install requested"
	SchedulerBusy                 = "%w: another queue is being processed"
	SchedulerPrimaryMissingFmt    = "%w: installing additional packages requires %s to be installed already"
	SchedulerDownloadFailedFmt    = "%w: %s: %w"
	SchedulerInstallFailedFmt     = "%w: %s: %w"
	SchedulerPrepareFailedFmt     = "%w: prepare install: %w"
	SchedulerPromoteFailedFmt     = "%w: finish install: %w"
	SchedulerCancelledFmt         = "%w: %w"
	SchedulerRollbackFailedFmt    = "%w (rollback failed: %w)"
	SchedulerRollbackErrFmt       = "%w: discard staged install: %w"
	SchedulerUnexpectedFilesFmt   = "%w: download dir %s contains unexpected files: %s"
	SchedulerRemoveDownloadsFmt   = "%w: remove download dir %s: %w"
	SchedulerReadDownloadsFmt     = "%w: inspect download dir %s: %w"
	SchedulerStrayFilesWarningFmt = "download dir %s contains unexpected files (%s), leaving it in place"
)
