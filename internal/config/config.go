// Package config loads the user configuration of install-unity from a TOML file,
// applies environment overrides, and saves changes made from the command line.
package config

import (
	"time"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/scheduler"
)

// Duration is a time.Duration written as a Go duration string ("10s", "24h").
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config is the full user configuration.
type Config struct {
	// DownloadPath keeps package files between runs when set. Empty downloads to a
	// temporary directory that is removed after a successful install.
	DownloadPath string `toml:"download_path,omitempty"`
	// InstallPath is the install location template, relative to the install root
	// unless absolute.
	InstallPath string `toml:"install_path"`
	// InstallRoot overrides the platform's default install root.
	InstallRoot     string   `toml:"install_root,omitempty"`
	CatalogURL      string   `toml:"catalog_url,omitempty"`
	CatalogPath     string   `toml:"catalog_path,omitempty"`
	CatalogLifetime Duration `toml:"catalog_lifetime"`

	MaxConcurrentDownloads int      `toml:"max_concurrent_downloads"`
	MaxConcurrentInstalls  int      `toml:"max_concurrent_installs"`
	RetryCount             int      `toml:"retry_count"`
	RetryDelay             Duration `toml:"retry_delay"`
	PollInterval           Duration `toml:"poll_interval"`
	RequestTimeout         Duration `toml:"request_timeout"`

	// DefaultPackages replaces the catalog's default selection when not empty.
	DefaultPackages []string `toml:"default_packages,omitempty"`
	LogLevel        string   `toml:"log_level"`

	Metrics Metrics `toml:"metrics"`
}

// Metrics configures pushing run metrics.
type Metrics struct {
	Pushgateway string `toml:"pushgateway,omitempty"`
	Job         string `toml:"job,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		InstallPath:            scheduler.DefaultInstallPathTemplate,
		CatalogLifetime:        Duration{catalog.DefaultLifetime},
		MaxConcurrentDownloads: scheduler.DefaultMaxConcurrentDownloads,
		MaxConcurrentInstalls:  scheduler.DefaultMaxConcurrentInstalls,
		RetryCount:             3,
		RetryDelay:             Duration{scheduler.DefaultRetryDelay},
		PollInterval:           Duration{scheduler.DefaultPollInterval},
		RequestTimeout:         Duration{60 * time.Second},
		LogLevel:               "info",
		Metrics:                Metrics{Job: "install-unity"},
	}
}

// SchedulerOptions maps the config onto scheduler options.
func (c *Config) SchedulerOptions() scheduler.Options {
	return scheduler.Options{
		MaxConcurrentDownloads: c.MaxConcurrentDownloads,
		MaxConcurrentInstalls:  c.MaxConcurrentInstalls,
		RetryDelay:             c.RetryDelay.Duration,
		PollInterval:           c.PollInterval.Duration,
		InstallPathTemplate:    c.InstallPath,
		RetainDownloads:        c.DownloadPath != "",
	}
}
