package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/install-unity/internal/fsutil"
	"github.com/conn-castle/install-unity/internal/messages"
)

// ErrConfigValidation wraps config validation failures (as opposed to TOML
// syntax or filesystem errors).
var ErrConfigValidation = errors.New("config validation failed")

// Load reads the config at path over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigReadFmt, path, err)
	}
	return Parse(data, path)
}

// Parse decodes TOML data over the defaults and validates the result. Unknown
// keys are rejected. source is used in error messages.
func Parse(data []byte, source string) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf(messages.ConfigInvalidConfigFmt, source, err)
	}
	if err := decodeStrict(data); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			keys := make([]string, 0, len(strict.Errors))
			for _, e := range strict.Errors {
				keys = append(keys, strings.Join(e.Key(), "."))
			}
			err = fmt.Errorf(messages.ConfigUnrecognizedKeysFmt, source, keys)
		}
		return nil, fmt.Errorf("%w: %w "+messages.ConfigValidationGuidance, ErrConfigValidation, err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(source); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	return cfg, nil
}

func decodeStrict(data []byte) error {
	var cfg Config
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(&cfg)
}

// Save validates cfg and writes it to path.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(path); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf(messages.ConfigEncodeFmt, err)
	}
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return fmt.Errorf(messages.ConfigWriteFmt, path, err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.ConfigWriteFmt, path, err)
	}
	return nil
}
