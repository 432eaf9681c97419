// Package download transfers package files with resume support and verifies them
// against their expected size and checksum.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/queue"
)

// DefaultTimeout bounds connecting and waiting for response headers. Transfers
// themselves are not time limited.
const DefaultTimeout = 60 * time.Second

// NewClient returns an HTTP client suited for large transfers.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	transport.TLSHandshakeTimeout = timeout
	return &http.Client{Transport: transport}
}

// File downloads one file. It implements queue.Downloader.
type File struct {
	client *http.Client
	logger *log.Logger
	now    func() time.Time

	url      string
	path     string
	size     int64
	checksum string

	processed atomic.Int64
	total     atomic.Int64
	rate      atomic.Uint64
	phase     atomic.Int32
}

var _ queue.Downloader = (*File)(nil)

// New returns a File using client. A nil client uses NewClient(DefaultTimeout).
func New(client *http.Client, logger *log.Logger) *File {
	if client == nil {
		client = NewClient(DefaultTimeout)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &File{client: client, logger: logger, now: time.Now}
}

// Prepare sets what Start and AssertExistingFileHash operate on.
func (f *File) Prepare(url, path string, size int64, checksum string) {
	f.url = url
	f.path = path
	f.size = size
	f.checksum = checksum
	f.Reset()
}

// Reset clears progress so the file can be started again.
func (f *File) Reset() {
	f.processed.Store(0)
	f.total.Store(f.size)
	f.rate.Store(0)
	f.phase.Store(int32(queue.PhaseIdle))
}

// Progress returns the live transfer counters.
func (f *File) Progress() queue.Progress {
	return queue.Progress{
		BytesProcessed: f.processed.Load(),
		BytesTotal:     f.total.Load(),
		BytesPerSecond: math.Float64frombits(f.rate.Load()),
	}
}

// Phase returns what the current operation is doing.
func (f *File) Phase() queue.Phase {
	return queue.Phase(f.phase.Load())
}

// Start downloads the file, reusing or resuming an existing one when possible.
func (f *File) Start(ctx context.Context) *queue.Task {
	return queue.Go(ctx, func(ctx context.Context) error {
		defer f.phase.Store(int32(queue.PhaseDone))
		return f.download(ctx)
	})
}

// AssertExistingFileHash verifies the file on disk without network access. A
// package without a checksum passes with a warning.
func (f *File) AssertExistingFileHash(ctx context.Context) *queue.Task {
	return queue.Go(ctx, func(ctx context.Context) error {
		defer f.phase.Store(int32(queue.PhaseDone))
		return f.verifyExisting(ctx)
	})
}

func (f *File) verifyExisting(ctx context.Context) error {
	if f.path == "" {
		return errors.New(messages.DownloadNotPrepared)
	}
	f.phase.Store(int32(queue.PhaseVerifying))
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf(messages.DownloadMissingFileFmt, f.path)
	}
	if err != nil {
		return fmt.Errorf(messages.DownloadStatFmt, f.path, err)
	}
	if f.size > 0 && info.Size() != f.size {
		return fmt.Errorf(messages.DownloadSizeMismatchFmt, f.path, f.size, info.Size())
	}
	sum, err := parseChecksum(f.checksum)
	if err != nil {
		return err
	}
	f.total.Store(info.Size())
	if sum.empty() {
		f.logger.Warn(messages.DownloadNoChecksumWarning, "file", f.path)
		f.processed.Store(info.Size())
		return nil
	}
	return verifyFile(ctx, f.path, sum, f.processed.Store)
}

func (f *File) download(ctx context.Context) error {
	if f.url == "" || f.path == "" {
		return errors.New(messages.DownloadNotPrepared)
	}
	sum, err := parseChecksum(f.checksum)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf(messages.DownloadCreateDirFmt, filepath.Dir(f.path), err)
	}
	return withFileLock(ctx, f.path+".lock", func() error {
		f.phase.Store(int32(queue.PhaseVerifying))
		offset, done, err := f.inspectExisting(ctx, sum)
		if err != nil || done {
			return err
		}
		if err := f.transfer(ctx, offset); err != nil {
			return err
		}
		return f.verifyDownloaded(ctx, sum)
	})
}

// inspectExisting decides what to do with a file left by an earlier run. It
// returns the offset to resume from, or done when the file is already complete.
func (f *File) inspectExisting(ctx context.Context, sum checksum) (int64, bool, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf(messages.DownloadStatFmt, f.path, err)
	}
	have := info.Size()

	switch {
	case f.size > 0 && have > f.size:
		f.logger.Warnf(messages.DownloadExistingTooLargeFmt, f.path, have, f.size)
		return 0, false, f.removeStale()
	case f.size > 0 && have < f.size:
		if have > 0 {
			f.logger.Infof(messages.DownloadResumingFmt, filepath.Base(f.path), have)
		}
		return have, false, nil
	case f.size <= 0 && sum.empty():
		return 0, false, f.removeStale()
	}

	f.total.Store(have)
	if sum.empty() {
		f.processed.Store(have)
		return 0, true, nil
	}
	if err := verifyFile(ctx, f.path, sum, f.processed.Store); err != nil {
		if ctx.Err() != nil {
			return 0, false, ctx.Err()
		}
		f.logger.Warnf(messages.DownloadExistingCorruptFmt, f.path)
		f.processed.Store(0)
		return 0, false, f.removeStale()
	}
	return 0, true, nil
}

func (f *File) removeStale() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf(messages.DownloadRemoveFmt, f.path, err)
	}
	return nil
}

func (f *File) transfer(ctx context.Context, offset int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return fmt.Errorf(messages.DownloadCreateRequestFmt, f.url, err)
	}
	req.Header.Set("User-Agent", "install-unity")
	if offset > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return fmt.Errorf(messages.DownloadTimeoutFmt, f.url)
		}
		return fmt.Errorf(messages.DownloadRequestFmt, f.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	flags := os.O_CREATE | os.O_WRONLY
	switch resp.StatusCode {
	case http.StatusPartialContent:
		flags |= os.O_APPEND
	case http.StatusOK:
		if offset > 0 {
			f.logger.Warnf(messages.DownloadServerIgnoredRangeFmt, f.url)
		}
		offset = 0
		flags |= os.O_TRUNC
	case http.StatusRequestedRangeNotSatisfiable:
		_ = f.removeStale()
		return fmt.Errorf(messages.DownloadRangeNotSatisfiedFmt, f.url, offset)
	default:
		return fmt.Errorf(messages.DownloadUnexpectedStatusFmt, f.url, resp.Status)
	}

	if f.size <= 0 && resp.ContentLength > 0 {
		f.total.Store(offset + resp.ContentLength)
	}

	out, err := os.OpenFile(f.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf(messages.DownloadOpenFileFmt, f.path, err)
	}
	f.processed.Store(offset)
	f.phase.Store(int32(queue.PhaseTransferring))

	started := f.now()
	w := &rateWriter{f: f, base: offset, started: started}
	_, copyErr := io.Copy(io.MultiWriter(out, w), resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf(messages.DownloadRequestFmt, f.url, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf(messages.DownloadWriteFmt, f.path, closeErr)
	}
	return nil
}

func (f *File) verifyDownloaded(ctx context.Context, sum checksum) error {
	info, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf(messages.DownloadStatFmt, f.path, err)
	}
	if f.size > 0 && info.Size() != f.size {
		_ = f.removeStale()
		return fmt.Errorf(messages.DownloadSizeMismatchFmt, f.url, f.size, info.Size())
	}
	if sum.empty() {
		return nil
	}
	f.phase.Store(int32(queue.PhaseVerifying))
	if err := verifyFile(ctx, f.path, sum, nil); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = f.removeStale()
		return err
	}
	return nil
}

// rateWriter updates the File's counters as bytes arrive.
type rateWriter struct {
	f       *File
	base    int64
	n       int64
	started time.Time
}

func (w *rateWriter) Write(b []byte) (int, error) {
	w.n += int64(len(b))
	w.f.processed.Store(w.base + w.n)
	if elapsed := w.f.now().Sub(w.started).Seconds(); elapsed > 0 {
		w.f.rate.Store(math.Float64bits(float64(w.n) / elapsed))
	}
	return len(b), nil
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
