package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/install-unity/internal/messages"
)

const appDir = "install-unity"

// Paths holds resolved locations of the config file and the catalog cache.
type Paths struct {
	ConfigPath  string
	CatalogPath string
}

// DefaultPaths returns the per-user config and cache locations.
func DefaultPaths() (Paths, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf(messages.ConfigUserDirFmt, err)
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return Paths{}, fmt.Errorf(messages.ConfigCacheDirFmt, err)
	}
	return Paths{
		ConfigPath:  filepath.Join(configDir, appDir, "config.toml"),
		CatalogPath: filepath.Join(cacheDir, appDir, "catalog.toml"),
	}, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf(messages.ConfigExpandPathFmt, path, err)
	}
	return expanded, nil
}

// CatalogCachePath returns the catalog cache path, preferring catalog_path when set.
func (c *Config) CatalogCachePath(p Paths) string {
	if c.CatalogPath != "" {
		return c.CatalogPath
	}
	return p.CatalogPath
}

func dirOf(path string) string {
	return filepath.Dir(path)
}

func (c *Config) expandPaths() error {
	for _, f := range fields {
		if f.Type != FieldPath {
			continue
		}
		if v := f.get(c); v != "" {
			if err := c.Set(f.Key, v); err != nil {
				return err
			}
		}
	}
	return nil
}
