package queue

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/conn-castle/install-unity/internal/catalog"
)

// Item is one package's download and install work within a Queue.
//
// Only the scheduler processing the queue writes to an Item. State and the
// downloader's counters may be read concurrently by a status display.
type Item struct {
	Package catalog.Package
	// AddedAutomatically is true when dependency expansion selected the package.
	AddedAutomatically bool
	// URL is the absolute download URL.
	URL string
	// FilePath is where the package file is downloaded to.
	FilePath string
	// RetriesLeft is the remaining download retry budget.
	RetriesLeft int
	// RetryAfter is the earliest time the next download attempt may start.
	RetryAfter time.Time

	// Download is attached by the scheduler before processing starts.
	Download Downloader
	// Task is the in-flight download or install operation, if any.
	Task *Task

	state atomic.Int32
}

// State returns the current lifecycle state.
func (i *Item) State() State {
	return State(i.state.Load())
}

// SetState moves the item to s.
func (i *Item) SetState(s State) {
	i.state.Store(int32(s))
}

// Status describes the item for display.
func (i *Item) Status() string {
	s := i.State()
	if i.Download == nil || !s.HoldsDownloadSlot() {
		return s.String()
	}
	p := i.Download.Progress()
	total := p.BytesTotal
	if total <= 0 {
		total = i.Package.Size
	}
	pct := 0.0
	if total > 0 {
		pct = float64(p.BytesProcessed) / float64(total) * 100
	}
	if s == Hashing {
		return fmt.Sprintf("%s %3.0f%%", s, pct)
	}
	return fmt.Sprintf("%s %3.0f%% %s/%s %s/s", s, pct,
		humanize.IBytes(uint64(max(p.BytesProcessed, 0))),
		humanize.IBytes(uint64(max(total, 0))),
		humanize.IBytes(uint64(max(p.BytesPerSecond, 0))))
}
