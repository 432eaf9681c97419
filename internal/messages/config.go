package messages

// Config messages for loading, validating and saving the user config.
const (
	// ConfigReadFmt formats unreadable config file errors.
	ConfigReadFmt             = "read config %s: %w"
	ConfigInvalidConfigFmt    = "invalid config %s: %w"
	ConfigUnrecognizedKeysFmt = "%s: unrecognized keys: %v"
	ConfigValidationGuidance  = "(see `iu config list` for the supported keys)"
	ConfigWriteFmt            = "write config %s: %w"
	ConfigEncodeFmt           = "encode config: %w"
	ConfigUserDirFmt          = "locate user config dir: %w"
	ConfigCacheDirFmt         = "locate user cache dir: %w"
	ConfigExpandPathFmt       = "expand path %q: %w"

	ConfigPositiveFmt     = "%s: %s must be greater than zero"
	ConfigNotNegativeFmt  = "%s: %s must not be negative"
	ConfigEnumFmt         = "%s: %s must be one of %s"
	ConfigInstallPathFmt  = "%s: install_path must not be empty"
	ConfigURLFmt          = "%s: %s is not a valid http(s) URL: %q"
	ConfigUnknownKeyFmt   = "unknown config key %q"
	ConfigInvalidValueFmt = "invalid value %q for %s: %w"
	ConfigEnvInvalidFmt   = "invalid %s=%q: %w"
)
