package platform

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/queue"
	"github.com/conn-castle/install-unity/internal/version"
)

// fakeRunner records commands and performs their filesystem effects directly.
type fakeRunner struct {
	mu       sync.Mutex
	cmds     []Command
	password string
	// pkgTarget is where a simulated installer(8) run writes its payload.
	pkgTarget string
	fail      func(Command) error
}

func (f *fakeRunner) SetPassword(p string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.password = p
}

func (f *fakeRunner) HasPassword() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.password != ""
}

func (f *fakeRunner) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cmds))
	for i, c := range f.cmds {
		out[i] = c.Name
	}
	return out
}

func (f *fakeRunner) Run(_ context.Context, c Command) error {
	f.mu.Lock()
	f.cmds = append(f.cmds, c)
	fail := f.fail
	f.mu.Unlock()
	if fail != nil {
		if err := fail(c); err != nil {
			return err
		}
	}
	a := c.Args
	switch c.Name {
	case "tar":
		return touch(filepath.Join(a[3], filepath.Base(a[1])+".extracted"))
	case "unzip":
		return touch(filepath.Join(a[4], filepath.Base(a[2])+".extracted"))
	case "installer":
		return touch(filepath.Join(f.pkgTarget, filepath.Base(a[1])+".installed"))
	case "mv":
		return os.Rename(a[0], a[1])
	case "rm":
		return os.RemoveAll(a[1])
	case "mkdir":
		return os.MkdirAll(a[1], 0o755)
	case "cp":
		if a[0] == "-cpR" {
			return os.CopyFS(a[2], os.DirFS(a[1]))
		}
		data, err := os.ReadFile(a[0])
		if err != nil {
			return err
		}
		return os.WriteFile(a[1], data, 0o644)
	}
	return nil
}

func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("x"), 0o644)
}

type euidSystem struct {
	RealSystem
	euid int
}

func (s euidSystem) Geteuid() int { return s.euid }

func testQueue(t *testing.T, platform catalog.Platform, withPrimary bool, files ...string) *queue.Queue {
	t.Helper()
	q := &queue.Queue{
		Version: catalog.VersionRecord{Version: version.MustParse("2019.4.1f1")},
		Platform: platform,
		Dir:      t.TempDir(),
	}
	if withPrimary {
		q.Items = append(q.Items, &queue.Item{
			Package:  catalog.Package{Name: "Unity", Primary: true},
			FilePath: filepath.Join(q.Dir, files[0]),
		})
		files = files[1:]
	}
	for _, f := range files {
		q.Items = append(q.Items, &queue.Item{
			Package: catalog.Package{
				Name:        f,
				Destination: "{UNITY_PATH}/Editor/Data/PlaybackEngines",
			},
			FilePath: filepath.Join(q.Dir, f),
		})
	}
	return q
}

func fixedID(id string) func() string {
	return func() string { return id }
}
