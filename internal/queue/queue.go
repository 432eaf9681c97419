// Package queue models the unit of install work: a concrete version and the ordered
// items, one per selected package, that the scheduler drives to completion.
package queue

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/packages"
)

var (
	// ErrInvalidArgument reports unusable queue input such as an incomplete version.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStateViolation reports an operation attempted in the wrong state, such as
	// processing a queue that is already being processed.
	ErrStateViolation = errors.New("state violation")
)

// Queue is the work of one install invocation.
type Queue struct {
	Version  catalog.VersionRecord
	Platform catalog.Platform
	// Dir is the directory package files are downloaded to.
	Dir   string
	Items []*Item

	active atomic.Bool
}

// Primary returns the item of the primary package, or nil.
func (q *Queue) Primary() *Item {
	for _, it := range q.Items {
		if it.Package.Primary {
			return it
		}
	}
	return nil
}

// Count returns the number of items in any of states.
func (q *Queue) Count(states ...State) int {
	n := 0
	for _, it := range q.Items {
		s := it.State()
		for _, want := range states {
			if s == want {
				n++
				break
			}
		}
	}
	return n
}

// DownloadSlotsInUse returns the number of items counting against the download cap.
func (q *Queue) DownloadSlotsInUse() int {
	n := 0
	for _, it := range q.Items {
		if it.State().HoldsDownloadSlot() {
			n++
		}
	}
	return n
}

// InstallSlotsInUse returns the number of items counting against the install cap.
func (q *Queue) InstallSlotsInUse() int {
	n := 0
	for _, it := range q.Items {
		if it.State().HoldsInstallSlot() {
			n++
		}
	}
	return n
}

// Done reports whether every item is Complete.
func (q *Queue) Done() bool {
	return q.Count(Complete) == len(q.Items)
}

// Claim marks the queue as being processed. It fails with ErrStateViolation when
// the queue is already claimed.
func (q *Queue) Claim() error {
	if !q.active.CompareAndSwap(false, true) {
		return fmt.Errorf(messages.QueueAlreadyActive, ErrStateViolation)
	}
	return nil
}

// Release ends a Claim.
func (q *Queue) Release() {
	q.active.Store(false)
}

// CreateQueue builds the queue for installing resolved on platform into items
// downloaded to dir. Every item starts in WaitingForDownload with retries left.
func CreateQueue(v catalog.VersionRecord, platform catalog.Platform, dir string, resolved []packages.Resolved, retries int) (*Queue, error) {
	if !v.Version.IsConcrete() {
		return nil, fmt.Errorf(messages.QueueVersionNotConcreteFmt, ErrInvalidArgument, v.Version)
	}
	if len(v.PackagesFor(platform)) == 0 {
		return nil, fmt.Errorf(messages.QueueNoPackagesFmt, ErrInvalidArgument, v.Version, platform)
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf(messages.QueueNothingSelected, ErrInvalidArgument)
	}
	if dir == "" {
		return nil, fmt.Errorf(messages.QueueDirRequired, ErrInvalidArgument)
	}
	if retries < 0 {
		return nil, fmt.Errorf(messages.QueueNegativeRetries, ErrInvalidArgument)
	}

	q := &Queue{Version: v, Platform: platform, Dir: dir}
	for _, r := range resolved {
		abs, err := resolveURL(v.BaseURL(platform), r.Package, platform)
		if err != nil {
			return nil, err
		}
		it := &Item{
			Package:            r.Package,
			AddedAutomatically: r.AddedAutomatically,
			URL:                abs,
			FilePath:           filepath.Join(dir, FileName(r.Name, abs)),
			RetriesLeft:        retries,
		}
		it.SetState(WaitingForDownload)
		q.Items = append(q.Items, it)
	}
	return q, nil
}

func resolveURL(base string, pkg catalog.Package, platform catalog.Platform) (string, error) {
	ref, err := url.Parse(pkg.URL)
	if err != nil || pkg.URL == "" {
		return "", fmt.Errorf(messages.QueueInvalidURLFmt, ErrInvalidArgument, pkg.Name, pkg.URL, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if base == "" {
		return "", fmt.Errorf(messages.QueueMissingBaseURLFmt, ErrInvalidArgument, pkg.Name, platform)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf(messages.QueueInvalidURLFmt, ErrInvalidArgument, pkg.Name, base, err)
	}
	return b.ResolveReference(ref).String(), nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

var compoundExts = []string{".tar.xz", ".tar.gz", ".tar.bz2"}

// FileName derives the download file name of a package from its name and URL.
// The name is stable across runs so an interrupted download can be resumed.
func FileName(name, rawURL string) string {
	base := unsafeName.ReplaceAllString(name, "_")
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	lower := strings.ToLower(path.Base(p))
	for _, ext := range compoundExts {
		if strings.HasSuffix(lower, ext) {
			return base + ext
		}
	}
	return base + strings.ToLower(path.Ext(lower))
}
