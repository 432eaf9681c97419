package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/conn-castle/install-unity/internal/fsutil"
	"github.com/conn-castle/install-unity/internal/messages"
)

// DefaultLifetime is how long a cached catalog is reused before refreshing.
const DefaultLifetime = 24 * time.Hour

const (
	fetchRetryCount = 1
	maxCatalogBytes = int64(32 * 1024 * 1024)
)

var retryDelay = 250 * time.Millisecond

// FetchOptions controls how Refresh obtains the catalog file.
type FetchOptions struct {
	URL       string
	CachePath string
	Lifetime  time.Duration
	// Force refreshes even if the cache is still fresh.
	Force bool
	// NoNetwork forbids refreshing; the cache must exist.
	NoNetwork bool
	Client    *http.Client
	Logger    *log.Logger
	Now       func() time.Time
}

// Refresh makes sure CachePath holds a usable catalog and returns the loaded catalog.
// A failed refresh falls back to a stale cache when one exists.
func Refresh(ctx context.Context, opts FetchOptions) (*Static, error) {
	if opts.CachePath == "" {
		return nil, fmt.Errorf(messages.CatalogCachePathRequired)
	}
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultLifetime
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	info, statErr := os.Stat(opts.CachePath)
	cached := statErr == nil
	fresh := cached && opts.Now().Sub(info.ModTime()) < opts.Lifetime

	switch {
	case fresh && !opts.Force:
		return Load(opts.CachePath)
	case opts.NoNetwork || opts.URL == "":
		if !cached {
			return nil, fmt.Errorf(messages.CatalogNotCachedFmt, opts.CachePath)
		}
		return Load(opts.CachePath)
	}

	opts.Logger.Info("refreshing catalog", "url", opts.URL)
	data, err := fetch(ctx, opts)
	if err != nil {
		if cached {
			opts.Logger.Warn("catalog refresh failed, using cached copy", "err", err, "path", opts.CachePath)
			return Load(opts.CachePath)
		}
		return nil, err
	}
	c, err := Parse(data, opts.URL)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(opts.CachePath), 0o755); err != nil {
		return nil, fmt.Errorf(messages.CatalogWriteCacheFmt, opts.CachePath, err)
	}
	if err := fsutil.WriteFileAtomic(opts.CachePath, data, 0o644); err != nil {
		return nil, fmt.Errorf(messages.CatalogWriteCacheFmt, opts.CachePath, err)
	}
	opts.Logger.Info("catalog updated", "versions", len(c.Versions()))
	return c, nil
}

func fetch(ctx context.Context, opts FetchOptions) ([]byte, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	for attempt := 0; attempt <= fetchRetryCount; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
		if err != nil {
			return nil, fmt.Errorf(messages.CatalogCreateRequestFmt, err)
		}
		req.Header.Set("User-Agent", "install-unity")

		resp, err := client.Do(req)
		if err != nil {
			if shouldRetryFetch(err, 0, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf(messages.CatalogFetchFmt, opts.URL, err)
		}
		if resp.StatusCode != http.StatusOK {
			status := resp.StatusCode
			statusText := resp.Status
			_ = resp.Body.Close()
			if shouldRetryFetch(nil, status, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf(messages.CatalogFetchStatusFmt, opts.URL, statusText)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes+1))
		_ = resp.Body.Close()
		if err != nil {
			if shouldRetryFetch(err, 0, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf(messages.CatalogFetchFmt, opts.URL, err)
		}
		if int64(len(data)) > maxCatalogBytes {
			return nil, fmt.Errorf(messages.CatalogTooLargeFmt, opts.URL, maxCatalogBytes)
		}
		return data, nil
	}
	return nil, fmt.Errorf(messages.CatalogFetchFmt, opts.URL, errors.New("retry budget exhausted"))
}

func shouldRetryFetch(err error, statusCode int, attempt int) bool {
	if attempt >= fetchRetryCount {
		return false
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		var netErr net.Error
		return errors.As(err, &netErr)
	}
	return statusCode >= 500 && statusCode <= 599
}
