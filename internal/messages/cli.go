package messages

// CLI messages for user-facing commands and prompts.
const (
	// RootUse is the CLI command name.
	RootUse   = "iu"
	RootShort = "Install Unity editor versions and packages"
	RootLong  = "iu downloads and installs Unity editor versions and their packages.\n\nVersions may be given as patterns: 2019 selects the newest 2019 final release, 2019.4b the newest 2019.4 beta or better."

	RootFlagConfig  = "Path to the config file"
	RootFlagVerbose = "Log debug output"
	RootFlagUpdate  = "Refresh the version catalog even if the cache is fresh"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	InstallUse    = "install VERSION"
	InstallShort  = "Download and install a Unity version"
	DownloadUse   = "download VERSION"
	DownloadShort = "Download the packages of a Unity version without installing"

	InstallFlagPackages      = "Package to select (repeatable, ~ for fuzzy match, = to skip dependencies)"
	InstallFlagDownloadOnly  = "Only download the packages"
	InstallFlagInstallOnly   = "Only install previously downloaded packages"
	InstallFlagKeep          = "Keep downloaded packages after installing"
	InstallFlagYes           = "Do not ask for confirmation"
	InstallFlagAllPackages   = "Select all visible packages"
	InstallFlagUnityDefaults = "Ignore the saved default packages"
	InstallFlagSkipChecks    = "Install add-on packages even if the version is not installed"
	InstallFlagDir           = "Directory packages are downloaded to"
	InstallFlagPlatform      = "Platform to download packages for"

	InstallStepsConflict      = "--download and --install cannot be combined"
	InstallUnknownPackagesFmt = "unknown packages for %s: %s"
	InstallSkippingUnknownFmt = "Skipping unknown packages for %s: %s"
	InstallSelectionHeaderFmt = "Selected packages for Unity %s:\n"
	InstallSelectionLineFmt   = "  %s %s (%s)%s\n"
	InstallAddedDependency    = " [dependency]"
	InstallTotalFmt           = "Download size: %s\n"
	InstallConfirmFmt         = "Install Unity %s?"
	InstallConfirmDownloadFmt = "Download Unity %s?"
	InstallCancelled          = "Cancelled."
	InstallNeedsConfirmation  = "refusing to continue without confirmation; pass --yes in non-interactive sessions"
	InstallDoneFmt            = "Installed Unity %s to %s\n"
	InstallDownloadedFmt      = "Downloaded Unity %s to %s\n"
	InstallCleanupWarningFmt  = "Warning: %v\n"
	InstallPlatformForInstall = "--platform can only be used with --download"
	InstallProgressLineFmt    = "%-24s %s\n"
	PasswordPromptTitle       = "Administrator password"
	PasswordPromptDescription = "Installing Unity requires administrator rights."

	PackagesUse        = "packages VERSION"
	PackagesShort      = "List the packages of a Unity version"
	PackagesNoneFmt    = "Unity %s has no packages for %s"
	PackagesHeaderFmt  = "Packages of Unity %s (%s), * marks defaults:\n"
	PackagesFlagHidden = "Include hidden packages"

	VersionsUse       = "versions"
	VersionsShort     = "List known Unity versions"
	VersionsFlagKind  = "Lowest release kind to list (f, p, b or a)"
	VersionsFlagMatch = "Only list versions matching this pattern"
	VersionsNone      = "No matching versions."

	InstallsUse     = "installs"
	InstallsShort   = "List installed Unity versions"
	InstallsNoneFmt = "No installations found in %s\n"

	UninstallUse        = "uninstall VERSION"
	UninstallShort      = "Remove an installed Unity version"
	UninstallConfirmFmt = "Remove Unity %s at %s?"
	UninstalledFmt      = "Removed Unity %s from %s\n"
	NotInstalledFmt     = "Unity %s is not installed"

	MoveUse   = "move VERSION PATH"
	MoveShort = "Move an installed Unity version, relative paths are inside the install root"
	MovedFmt  = "Moved Unity %s from %s to %s\n"

	RunUse   = "run VERSION [-- ARGS...]"
	RunShort = "Launch an installed Unity version"

	DefaultsUse       = "defaults"
	DefaultsShort     = "Show or save the default package selection"
	DefaultsFlagClear = "Clear the saved default packages"
	DefaultsSavedFmt  = "Saved default packages: %s\n"
	DefaultsCleared   = "Cleared the saved default packages."
	DefaultsShowFmt   = "Default packages: %s\n"
	DefaultsNone      = "No saved default packages; the catalog defaults are used."

	ConfigUse         = "config"
	ConfigShort       = "Inspect and edit the configuration"
	ConfigListUse     = "list"
	ConfigListShort   = "List config keys and their values"
	ConfigGetUse      = "get KEY"
	ConfigGetShort    = "Print one config value"
	ConfigSetUse      = "set KEY VALUE"
	ConfigSetShort    = "Change one config value"
	ConfigPathFmt     = "# %s\n"
	ConfigListLineFmt = "%s = %s\n"

	MetricsPushWarningFmt = "Warning: push metrics: %v\n"
	InterruptedExit       = "interrupted"
)
