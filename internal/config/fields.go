package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/conn-castle/install-unity/internal/messages"
)

// FieldType classifies the kind of value a config field accepts.
type FieldType string

const (
	// FieldPath accepts a filesystem path; a leading ~ is expanded.
	FieldPath FieldType = "path"
	// FieldURL accepts an http or https URL.
	FieldURL FieldType = "url"
	// FieldEnum accepts one of a fixed set of options.
	FieldEnum FieldType = "enum"
	// FieldFreetext accepts arbitrary string input.
	FieldFreetext FieldType = "freetext"
	// FieldPositiveInt accepts a positive integer.
	FieldPositiveInt FieldType = "positive_int"
	// FieldNonNegativeInt accepts zero or a positive integer.
	FieldNonNegativeInt FieldType = "non_negative_int"
	// FieldDuration accepts a Go duration string.
	FieldDuration FieldType = "duration"
	// FieldList accepts a comma-separated list.
	FieldList FieldType = "list"
)

// FieldDef describes a single config key.
type FieldDef struct {
	Key         string
	Type        FieldType
	Description string
	Options     []string

	get func(*Config) string
	set func(*Config, string) error
}

func stringField(key string, typ FieldType, desc string, p func(*Config) *string) FieldDef {
	return FieldDef{
		Key: key, Type: typ, Description: desc,
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

func intField(key string, typ FieldType, desc string, p func(*Config) *int) FieldDef {
	return FieldDef{
		Key: key, Type: typ, Description: desc,
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*p(c) = n
			return nil
		},
	}
}

func durationField(key, desc string, p func(*Config) *Duration) FieldDef {
	return FieldDef{
		Key: key, Type: FieldDuration, Description: desc,
		get: func(c *Config) string { return p(c).String() },
		set: func(c *Config, v string) error { return p(c).UnmarshalText([]byte(v)) },
	}
}

// logLevels are the levels accepted by log_level.
var logLevels = []string{"debug", "info", "warn", "error"}

// fields is the ordered registry of all config keys.
var fields = []FieldDef{
	stringField("download_path", FieldPath, "keep downloaded packages in this directory",
		func(c *Config) *string { return &c.DownloadPath }),
	stringField("install_path", FieldFreetext, "install location template, {version} and {hash} are replaced",
		func(c *Config) *string { return &c.InstallPath }),
	stringField("install_root", FieldPath, "directory relative install paths are resolved against",
		func(c *Config) *string { return &c.InstallRoot }),
	stringField("catalog_url", FieldURL, "where the version catalog is downloaded from",
		func(c *Config) *string { return &c.CatalogURL }),
	stringField("catalog_path", FieldPath, "local cache of the version catalog",
		func(c *Config) *string { return &c.CatalogPath }),
	durationField("catalog_lifetime", "how long the cached catalog is considered fresh",
		func(c *Config) *Duration { return &c.CatalogLifetime }),
	intField("max_concurrent_downloads", FieldPositiveInt, "downloads running at the same time",
		func(c *Config) *int { return &c.MaxConcurrentDownloads }),
	intField("max_concurrent_installs", FieldPositiveInt, "installs running at the same time",
		func(c *Config) *int { return &c.MaxConcurrentInstalls }),
	intField("retry_count", FieldNonNegativeInt, "download retries per package",
		func(c *Config) *int { return &c.RetryCount }),
	durationField("retry_delay", "wait before retrying a failed download",
		func(c *Config) *Duration { return &c.RetryDelay }),
	durationField("poll_interval", "how often queue progress is checked",
		func(c *Config) *Duration { return &c.PollInterval }),
	durationField("request_timeout", "timeout waiting for a server response",
		func(c *Config) *Duration { return &c.RequestTimeout }),
	{
		Key: "default_packages", Type: FieldList, Description: "packages selected when none are given",
		get: func(c *Config) string { return strings.Join(c.DefaultPackages, ",") },
		set: func(c *Config, v string) error {
			c.DefaultPackages = splitList(v)
			return nil
		},
	},
	func() FieldDef {
		f := stringField("log_level", FieldEnum, "minimum level of log output",
			func(c *Config) *string { return &c.LogLevel })
		f.Options = logLevels
		return f
	}(),
	stringField("metrics.pushgateway", FieldURL, "Prometheus Pushgateway receiving run metrics",
		func(c *Config) *string { return &c.Metrics.Pushgateway }),
	stringField("metrics.job", FieldFreetext, "job label used when pushing metrics",
		func(c *Config) *string { return &c.Metrics.Job }),
}

// fieldIndex provides O(1) lookup by key.
var fieldIndex = buildFieldIndex()

func buildFieldIndex() map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.Key] = i
	}
	return idx
}

// LookupField returns the field definition for the given config key.
// Returns false when the key is not in the catalog.
func LookupField(key string) (FieldDef, bool) {
	i, ok := fieldIndex[key]
	if !ok {
		return FieldDef{}, false
	}
	return copyFieldDef(fields[i]), true
}

// Fields returns a copy of all registered field definitions in catalog order.
func Fields() []FieldDef {
	out := make([]FieldDef, len(fields))
	for i, f := range fields {
		out[i] = copyFieldDef(f)
	}
	return out
}

// copyFieldDef returns a copy of a FieldDef so callers cannot mutate the registry.
func copyFieldDef(f FieldDef) FieldDef {
	f.Options = slices.Clone(f.Options)
	return f
}

// Get returns the current value of key formatted as text.
func (c *Config) Get(key string) (string, error) {
	f, ok := LookupField(key)
	if !ok {
		return "", fmt.Errorf(messages.ConfigUnknownKeyFmt, key)
	}
	return f.get(c), nil
}

// Set parses value for key and stores it. Path values have a leading ~ expanded.
// The config is not validated; call Validate before saving.
func (c *Config) Set(key, value string) error {
	f, ok := LookupField(key)
	if !ok {
		return fmt.Errorf(messages.ConfigUnknownKeyFmt, key)
	}
	value = strings.TrimSpace(value)
	if f.Type == FieldPath && value != "" {
		expanded, err := ExpandPath(value)
		if err != nil {
			return err
		}
		value = expanded
	}
	if err := f.set(c, value); err != nil {
		return fmt.Errorf(messages.ConfigInvalidValueFmt, value, key, err)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// String implements fmt.Stringer for durations shown by Get.
func (d Duration) String() string {
	if d.Duration == 0 {
		return "0s"
	}
	return d.Duration.Round(time.Millisecond).String()
}
