package queue

import "context"

// Phase tells verification apart from active transfer.
type Phase int32

const (
	// PhaseIdle means nothing has started yet.
	PhaseIdle Phase = iota
	// PhaseVerifying means an existing file is being hashed.
	PhaseVerifying
	// PhaseTransferring means bytes are being received.
	PhaseTransferring
	// PhaseDone means the last operation returned.
	PhaseDone
)

// Progress is a snapshot of a download's live counters.
type Progress struct {
	BytesProcessed int64
	BytesTotal     int64
	BytesPerSecond float64
}

// Downloader transfers and verifies the file of one queue item. Progress and Phase
// may be read from any goroutine while an operation runs.
type Downloader interface {
	// Prepare sets the source, destination, expected size and checksum.
	Prepare(url, path string, size int64, checksum string)
	// Start downloads (or resumes) the file and verifies it.
	Start(ctx context.Context) *Task
	// AssertExistingFileHash verifies the file already on disk without any network access.
	AssertExistingFileHash(ctx context.Context) *Task
	// Reset clears the result of the previous operation so it can be started again.
	Reset()
	Progress() Progress
	Phase() Phase
}
