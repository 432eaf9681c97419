package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/conn-castle/install-unity/internal/messages"
)

// Validate ensures the config is complete and consistent.
func (c *Config) Validate(path string) error {
	if strings.TrimSpace(c.InstallPath) == "" {
		return fmt.Errorf(messages.ConfigInstallPathFmt, path)
	}
	for _, f := range fields {
		value := f.get(c)
		switch f.Type {
		case FieldPositiveInt:
			if value == "0" || strings.HasPrefix(value, "-") {
				return fmt.Errorf(messages.ConfigPositiveFmt, path, f.Key)
			}
		case FieldNonNegativeInt:
			if strings.HasPrefix(value, "-") {
				return fmt.Errorf(messages.ConfigNotNegativeFmt, path, f.Key)
			}
		case FieldDuration:
			if strings.HasPrefix(value, "-") {
				return fmt.Errorf(messages.ConfigNotNegativeFmt, path, f.Key)
			}
		case FieldEnum:
			if !slices.Contains(f.Options, value) {
				return fmt.Errorf(messages.ConfigEnumFmt, path, f.Key, strings.Join(f.Options, ", "))
			}
		case FieldURL:
			if value != "" && !isHTTPURL(value) {
				return fmt.Errorf(messages.ConfigURLFmt, path, f.Key, value)
			}
		}
	}
	if c.PollInterval.Duration == 0 {
		return fmt.Errorf(messages.ConfigPositiveFmt, path, "poll_interval")
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
