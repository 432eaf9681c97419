package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseOverridesDefaults(t *testing.T) {
	data := `
install_path = "/opt/unity/{version}"
max_concurrent_downloads = 4
retry_delay = "3s"
default_packages = ["Unity", "Documentation"]
log_level = "debug"

[metrics]
pushgateway = "http://localhost:9091"
`
	cfg, err := Parse([]byte(data), "config.toml")
	require.NoError(t, err)

	assert.Equal(t, "/opt/unity/{version}", cfg.InstallPath)
	assert.Equal(t, 4, cfg.MaxConcurrentDownloads)
	assert.Equal(t, 1, cfg.MaxConcurrentInstalls)
	assert.Equal(t, 3*time.Second, cfg.RetryDelay.Duration)
	assert.Equal(t, []string{"Unity", "Documentation"}, cfg.DefaultPackages)
	assert.Equal(t, "http://localhost:9091", cfg.Metrics.Pushgateway)
	assert.Equal(t, "install-unity", cfg.Metrics.Job)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("install_pth = \"x\"\n"), "config.toml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigValidation))
	assert.Contains(t, err.Error(), "install_pth")
}

func TestParseSyntaxErrorIsNotValidation(t *testing.T) {
	_, err := Parse([]byte("install_path = \n"), "config.toml")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConfigValidation))
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"zero downloads", "max_concurrent_downloads = 0", "max_concurrent_downloads"},
		{"negative installs", "max_concurrent_installs = -1", "max_concurrent_installs"},
		{"negative retries", "retry_count = -2", "retry_count"},
		{"negative delay", `retry_delay = "-1s"`, "retry_delay"},
		{"zero poll", `poll_interval = "0s"`, "poll_interval"},
		{"log level", `log_level = "loud"`, "log_level"},
		{"catalog url", `catalog_url = "ftp://example.com/c.toml"`, "catalog_url"},
		{"empty install path", `install_path = " "`, "install_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data+"\n"), "config.toml")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfigValidation))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseInvalidDuration(t *testing.T) {
	_, err := Parse([]byte(`retry_delay = "soon"`+"\n"), "config.toml")
	require.Error(t, err)
}

func TestParseExpandsHome(t *testing.T) {
	home, err := ExpandPath("~")
	require.NoError(t, err)
	cfg, err := Parse([]byte(`download_path = "~/unity-downloads"`+"\n"), "config.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "unity-downloads"), cfg.DownloadPath)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.DownloadPath = "/var/cache/unity"
	cfg.DefaultPackages = []string{"Unity"}
	cfg.RetryDelay = Duration{90 * time.Second}

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.MaxConcurrentInstalls = 0
	err := Save(path, cfg)
	require.ErrorIs(t, err, ErrConfigValidation)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadUnreadable(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestSchedulerOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.SchedulerOptions()
	assert.Equal(t, 2, opts.MaxConcurrentDownloads)
	assert.Equal(t, 1, opts.MaxConcurrentInstalls)
	assert.False(t, opts.RetainDownloads)

	cfg.DownloadPath = "/tmp/keep"
	assert.True(t, cfg.SchedulerOptions().RetainDownloads)
}

func TestCatalogCachePath(t *testing.T) {
	cfg := Default()
	p := Paths{CatalogPath: "/cache/catalog.toml"}
	assert.Equal(t, "/cache/catalog.toml", cfg.CatalogCachePath(p))
	cfg.CatalogPath = "/custom.toml"
	assert.Equal(t, "/custom.toml", cfg.CatalogCachePath(p))
}
