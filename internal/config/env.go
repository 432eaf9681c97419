package config

import (
	"fmt"
	"strconv"

	"github.com/conn-castle/install-unity/internal/messages"
)

// Environment variables that override config values.
const (
	EnvDownloadPath = "IU_DOWNLOAD_PATH"
	EnvInstallPath  = "IU_INSTALL_PATH"
	EnvCatalogURL   = "IU_CATALOG_URL"
	EnvNoNetwork    = "IU_NO_NETWORK"
)

// ApplyEnv overrides config values from the environment and reports whether
// network access was disabled.
func (c *Config) ApplyEnv(getenv func(string) string) (noNetwork bool, err error) {
	overrides := []struct{ env, key string }{
		{EnvDownloadPath, "download_path"},
		{EnvInstallPath, "install_path"},
		{EnvCatalogURL, "catalog_url"},
	}
	for _, o := range overrides {
		if v := getenv(o.env); v != "" {
			if err := c.Set(o.key, v); err != nil {
				return false, err
			}
		}
	}
	if v := getenv(EnvNoNetwork); v != "" {
		noNetwork, err = strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf(messages.ConfigEnvInvalidFmt, EnvNoNetwork, v, err)
		}
	}
	return noNetwork, nil
}
