package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/conn-castle/install-unity/internal/config"
	"github.com/conn-castle/install-unity/internal/platform"
	"github.com/conn-castle/install-unity/internal/testutil"
)

// fakeRunner stands in for tar and the editor binary. Extracting an archive
// drops a marker file named after it into the destination.
type fakeRunner struct {
	mu    sync.Mutex
	calls []platform.Command
}

func (r *fakeRunner) Run(_ context.Context, cmd platform.Command) error {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()
	if cmd.Name != "tar" {
		return nil
	}
	archive, dest := cmd.Args[1], cmd.Args[3]
	return os.WriteFile(filepath.Join(dest, filepath.Base(archive)+".extracted"), nil, 0o644)
}

func (r *fakeRunner) SetPassword(string) {}

func (r *fakeRunner) HasPassword() bool { return true }

func (r *fakeRunner) commands() []platform.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]platform.Command(nil), r.calls...)
}

// testEnv is an isolated install-unity setup: config, cached catalog, package
// server and install root.
type testEnv struct {
	t       *testing.T
	paths   config.Paths
	root    string
	tmp     string
	runner  *fakeRunner
	server  *httptest.Server
	mu      sync.Mutex
	pushes  []string
	env     map[string]string
	answers []bool
}

var fixedModTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

var packageFiles = map[string]string{
	"Unity.tar.xz":         strings.Repeat("editor", 200),
	"Documentation.tar.xz": strings.Repeat("docs", 50),
	"Android.tar.xz":       strings.Repeat("android", 80),
}

func checksum(data string) string {
	sum := sha256.Sum256([]byte(data))
	return "sha256:" + hex.EncodeToString(sum[:])
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base := t.TempDir()
	e := &testEnv{
		t: t,
		paths: config.Paths{
			ConfigPath:  filepath.Join(base, "config", "config.toml"),
			CatalogPath: filepath.Join(base, "cache", "catalog.toml"),
		},
		root:   filepath.Join(base, "root"),
		tmp:    filepath.Join(base, "tmp"),
		runner: &fakeRunner{},
		env:    map[string]string{config.EnvNoNetwork: "1"},
	}
	if err := os.MkdirAll(e.tmp, 0o755); err != nil {
		t.Fatalf("mkdir tmp: %v", err)
	}
	t.Setenv("TMPDIR", e.tmp)

	e.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/metrics/job/") {
			e.mu.Lock()
			e.pushes = append(e.pushes, r.URL.Path)
			e.mu.Unlock()
			w.WriteHeader(http.StatusOK)
			return
		}
		data, ok := packageFiles[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, r.URL.Path, fixedModTime, strings.NewReader(data))
	}))
	t.Cleanup(e.server.Close)

	testutil.WriteFile(t, e.paths.ConfigPath, fmt.Sprintf(`
install_root = %q
poll_interval = "5ms"
retry_delay = "0s"

[metrics]
pushgateway = %q
job = "test"
`, e.root, e.server.URL))
	testutil.WriteFile(t, e.paths.CatalogPath, e.catalog())

	e.install()
	return e
}

func (e *testEnv) catalog() string {
	pkg := func(name, extra string) string {
		file := name + ".tar.xz"
		data := packageFiles[file]
		return fmt.Sprintf(`
[[versions.platforms.linux.packages]]
name = %q
url = %q
size = %d
checksum = %q
%s`, name, file, len(data), checksum(data), extra)
	}
	return fmt.Sprintf(`
[[versions]]
version = "2020.1.0f1"

[versions.platforms.linux]
base_url = "%s/"
%s%s%s
[[versions]]
version = "2020.2.0b1"

[versions.platforms.linux]
base_url = "%s/"
%s
[[versions]]
version = "2019.4.9f1"

[versions.platforms.mac]
base_url = "%s/"

[[versions.platforms.mac.packages]]
name = "Unity"
url = "Unity.pkg"
size = 10
`,
		e.server.URL,
		pkg("Unity", "install = true\ntitle = \"Unity Editor\"\n"),
		pkg("Documentation", "destination = \"{UNITY_PATH}/Editor/Data/Documentation\"\n"),
		pkg("Android", "sync = \"Unity\"\ndestination = \"{UNITY_PATH}/Editor/Data/PlaybackEngines/AndroidPlayer\"\n"),
		e.server.URL,
		pkg("Unity", "install = true\n"),
		e.server.URL,
	)
}

// install replaces the package seams for the duration of the test.
func (e *testEnv) install() {
	origHost, origGetenv, origPaths := hostOS, getenv, defaultPaths
	origRunner, origInteractive, origConfirm := installerRunner, isInteractive, confirmFunc
	e.t.Cleanup(func() {
		hostOS, getenv, defaultPaths = origHost, origGetenv, origPaths
		installerRunner, isInteractive, confirmFunc = origRunner, origInteractive, origConfirm
	})
	hostOS = "linux"
	getenv = func(k string) string { return e.env[k] }
	defaultPaths = func() (config.Paths, error) { return e.paths, nil }
	installerRunner = e.runner
	isInteractive = func() bool { return len(e.answers) > 0 }
	confirmFunc = func(context.Context, string) (bool, error) {
		answer := e.answers[0]
		e.answers = e.answers[1:]
		return answer, nil
	}
}

func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	var out bytes.Buffer
	err := execute(append([]string{"iu"}, args...), &out, &out)
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("iu %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (e *testEnv) pushCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pushes)
}
