package scheduler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conn-castle/install-unity/internal/messages"
)

// incidentalFiles are created by the OS or by download locking and may be
// deleted along with the packages.
var incidentalFiles = map[string]bool{
	".DS_Store":   true,
	"Thumbs.db":   true,
	"desktop.ini": true,
}

func incidental(name string) bool {
	return incidentalFiles[name] || strings.HasSuffix(name, ".lock")
}

// cleanup deletes the download dir after a successful run, but only when it holds
// nothing besides the queue's package files.
func (s *Scheduler) cleanup(op *Operation) error {
	q := op.Queue
	expected := make(map[string]bool, len(q.Items))
	for _, it := range q.Items {
		expected[filepath.Base(it.FilePath)] = true
	}
	entries, err := os.ReadDir(q.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf(messages.SchedulerReadDownloadsFmt, ErrCleanupFailure, q.Dir, err)
	}
	var extra []string
	for _, e := range entries {
		if expected[e.Name()] || incidental(e.Name()) {
			continue
		}
		extra = append(extra, e.Name())
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		list := strings.Join(extra, ", ")
		if s.installer.LeavesStrayFiles() {
			op.logger.Warnf(messages.SchedulerStrayFilesWarningFmt, q.Dir, list)
			return nil
		}
		return fmt.Errorf(messages.SchedulerUnexpectedFilesFmt, ErrCleanupFailure, q.Dir, list)
	}
	if err := os.RemoveAll(q.Dir); err != nil {
		return fmt.Errorf(messages.SchedulerRemoveDownloadsFmt, ErrCleanupFailure, q.Dir, err)
	}
	op.logger.Debug("removed downloads", "dir", q.Dir)
	return nil
}
