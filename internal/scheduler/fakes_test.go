package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/packages"
	"github.com/conn-castle/install-unity/internal/platform"
	"github.com/conn-castle/install-unity/internal/queue"
	"github.com/conn-castle/install-unity/internal/version"
)

var errReset = errors.New("connection reset by peer")

// fakeNet plays the network for all downloaders of a test.
type fakeNet struct {
	mu       sync.Mutex
	delay    time.Duration
	failures map[string]int
	attempts map[string][]time.Time
	verifies map[string]int
	resets   atomic.Int32
}

func newFakeNet(delay time.Duration) *fakeNet {
	return &fakeNet{
		delay:    delay,
		failures: map[string]int{},
		attempts: map[string][]time.Time{},
		verifies: map[string]int{},
	}
}

func (n *fakeNet) newDownloader() queue.Downloader {
	return &fakeDownloader{net: n}
}

func (n *fakeNet) attemptCount(name string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.attempts[name])
}

func (n *fakeNet) attemptTimes(name string) []time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]time.Time(nil), n.attempts[name]...)
}

// take consumes one scripted failure for name.
func (n *fakeNet) take(name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failures[name] > 0 {
		n.failures[name]--
		return errReset
	}
	return nil
}

type fakeDownloader struct {
	net   *fakeNet
	name  string
	phase atomic.Int32
}

func (d *fakeDownloader) Prepare(_, path string, _ int64, _ string) {
	d.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (d *fakeDownloader) Start(ctx context.Context) *queue.Task {
	d.net.mu.Lock()
	d.net.attempts[d.name] = append(d.net.attempts[d.name], time.Now())
	d.net.mu.Unlock()
	return queue.Go(ctx, func(ctx context.Context) error {
		d.phase.Store(int32(queue.PhaseVerifying))
		if err := sleep(ctx, d.net.delay/2); err != nil {
			return err
		}
		d.phase.Store(int32(queue.PhaseTransferring))
		if err := sleep(ctx, d.net.delay/2); err != nil {
			return err
		}
		d.phase.Store(int32(queue.PhaseDone))
		return d.net.take(d.name)
	})
}

func (d *fakeDownloader) AssertExistingFileHash(ctx context.Context) *queue.Task {
	d.net.mu.Lock()
	d.net.verifies[d.name]++
	d.net.mu.Unlock()
	return queue.Go(ctx, func(ctx context.Context) error {
		d.phase.Store(int32(queue.PhaseVerifying))
		if err := sleep(ctx, d.net.delay); err != nil {
			return err
		}
		return d.net.take(d.name)
	})
}

func (d *fakeDownloader) Reset() {
	d.net.resets.Add(1)
	d.phase.Store(int32(queue.PhaseIdle))
}

func (d *fakeDownloader) Progress() queue.Progress { return queue.Progress{} }

func (d *fakeDownloader) Phase() queue.Phase { return queue.Phase(d.phase.Load()) }

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// fakeInstaller records install order and stages into a real directory so
// rollback can be checked on disk.
type fakeInstaller struct {
	mu            sync.Mutex
	events        []string
	delay         time.Duration
	failInstall   map[string]error
	installations []platform.Installation
	stray         bool
	promptErr     error
	rollbackErr   error
	promoteErr    error
	staging       string

	q         *queue.Queue
	prepared  int
	completed int
	aborted   int
	prompts   int
}

func newFakeInstaller(t *testing.T) *fakeInstaller {
	return &fakeInstaller{
		staging:     filepath.Join(t.TempDir(), "staging"),
		failInstall: map[string]error{},
	}
}

func (f *fakeInstaller) record(e string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeInstaller) eventList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeInstaller) Platform() catalog.Platform { return catalog.PlatformLinux }

func (f *fakeInstaller) FindInstallations(context.Context) ([]platform.Installation, error) {
	return f.installations, nil
}

func (f *fakeInstaller) PrepareInstall(_ context.Context, q *queue.Queue, _ string) error {
	f.mu.Lock()
	f.prepared++
	f.q = q
	f.mu.Unlock()
	return os.MkdirAll(f.staging, 0o755)
}

func (f *fakeInstaller) Install(ctx context.Context, _ *queue.Queue, item *queue.Item) error {
	name := item.Package.Name
	f.record("start:" + name)
	if err := sleep(ctx, f.delay); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(f.staging, name), []byte(name), 0o644); err != nil {
		return err
	}
	f.record("end:" + name)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failInstall[name]
}

func (f *fakeInstaller) CompleteInstall(_ context.Context, aborted bool) (*platform.Installation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if aborted {
		f.aborted++
		if f.rollbackErr != nil {
			return nil, f.rollbackErr
		}
		return nil, os.RemoveAll(f.staging)
	}
	f.completed++
	if f.promoteErr != nil {
		if err := os.RemoveAll(f.staging); err != nil {
			return nil, err
		}
		return nil, f.promoteErr
	}
	var names []string
	for _, it := range f.q.Items {
		names = append(names, it.Package.Name)
	}
	return &platform.Installation{Path: f.staging, Version: f.q.Version.Version, Packages: names}, nil
}

func (f *fakeInstaller) Uninstall(context.Context, platform.Installation) error { return nil }

func (f *fakeInstaller) Run(context.Context, platform.Installation, []string) error { return nil }

func (f *fakeInstaller) Move(context.Context, platform.Installation, string) error { return nil }

func (f *fakeInstaller) PromptForPassword(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts++
	return f.promptErr
}

func (f *fakeInstaller) DownloadDirectory() string { return os.TempDir() }

func (f *fakeInstaller) InstallRoot() string { return filepath.Dir(f.staging) }

func (f *fakeInstaller) LeavesStrayFiles() bool { return f.stray }

var _ platform.Installer = (*fakeInstaller)(nil)

// scenarioRecord is the version used by the scenario tests: a primary editor,
// documentation, and an add-on synced to the editor.
func scenarioRecord() catalog.VersionRecord {
	return catalog.VersionRecord{
		Version: version.MustParse("2019.4.1f1"),
		Platforms: map[catalog.Platform]catalog.Packages{
			catalog.PlatformLinux: {
				BaseURL: "https://download.example.com/",
				Packages: []catalog.Package{
					{Name: "Primary", URL: "Primary.pkg", Size: 100, Primary: true},
					{Name: "Docs", URL: "Docs.pkg", Size: 10},
					{Name: "Addon", URL: "Addon.pkg", Size: 50, Sync: "Primary"},
				},
			},
		},
	}
}

func newQueue(t *testing.T, rec catalog.VersionRecord, retries int, patterns ...string) *queue.Queue {
	t.Helper()
	resolved, notFound, err := packages.ResolvePackages(patterns, rec.PackagesFor(catalog.PlatformLinux))
	require.NoError(t, err)
	require.Empty(t, notFound)
	q, err := queue.CreateQueue(rec, catalog.PlatformLinux, t.TempDir(), resolved, retries)
	require.NoError(t, err)
	return q
}

func manyRecord(n int) catalog.VersionRecord {
	rec := catalog.VersionRecord{
		Version:   version.MustParse("2020.1.0f1"),
		Platforms: map[catalog.Platform]catalog.Packages{},
	}
	pkgs := []catalog.Package{{Name: "Primary", URL: "Primary.pkg", Primary: true}}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Module%d", i)
		pkgs = append(pkgs, catalog.Package{Name: name, URL: name + ".pkg"})
	}
	rec.Platforms[catalog.PlatformLinux] = catalog.Packages{BaseURL: "https://download.example.com/", Packages: pkgs}
	return rec
}

// invariantChecker verifies slot caps and the primary-first rule on every
// observation.
type invariantChecker struct {
	maxDownloads, maxInstalls int
	violations                []string
	peakDownloads             int
	peakInstalls              int
	observations              int
}

func (c *invariantChecker) observe(q *queue.Queue) {
	c.observations++
	dl := q.Count(queue.Hashing, queue.Downloading)
	in := q.Count(queue.Installing)
	c.peakDownloads = max(c.peakDownloads, dl)
	c.peakInstalls = max(c.peakInstalls, in)
	if dl > c.maxDownloads {
		c.violations = append(c.violations, fmt.Sprintf("%d downloads active", dl))
	}
	if in > c.maxInstalls {
		c.violations = append(c.violations, fmt.Sprintf("%d installs active", in))
	}
	if p := q.Primary(); p != nil && p.State() != queue.Complete {
		for _, it := range q.Items {
			if it != p && it.State() == queue.Installing {
				c.violations = append(c.violations, it.Package.Name+" installing before primary completed")
			}
		}
	}
}

func indexOf(events []string, e string) int {
	for i, v := range events {
		if v == e {
			return i
		}
	}
	return -1
}

func itemNamed(q *queue.Queue, name string) *queue.Item {
	for _, it := range q.Items {
		if it.Package.Name == name {
			return it
		}
	}
	return nil
}
