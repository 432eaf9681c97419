package messages

// Platform installer messages.
const (
	PlatformUnsupportedFmt         = "%w: no installer for operating system %q"
	PlatformNotPrepared            = "install was not prepared"
	PlatformAlreadyPrepared        = "an install is already in progress"
	PlatformPathOccupiedFmt        = "install path %s exists but was not created by install-unity"
	PlatformVersionMismatchFmt     = "install path %s holds version %s, not %s"
	PlatformAlreadyInstalledFmt    = "version %s is already installed at %s; uninstall it or install only additional packages"
	PlatformUnsupportedPackageFmt  = "cannot install package %s: unsupported file type %s on %s"
	PlatformCreateStagingFmt       = "create staging dir %s: %w"
	PlatformDiscardStagingFmt      = "discard staging dir %s: %w"
	PlatformPromoteFmt             = "move %s into place at %s: %w"
	PlatformMoveAsideFmt           = "move existing %s aside: %w"
	PlatformRestoreFmt             = "restore %s from %s: %w"
	PlatformPromoteUndoFmt         = "%w (undoing the install failed: %w)"
	PlatformUndoMergeFmt           = "move %s back to %s: %w"
	PlatformWriteMarkerFmt         = "write installation marker %s: %w"
	PlatformReadMarkerFmt          = "read installation marker %s: %w"
	PlatformReadRootFmt            = "list installations in %s: %w"
	PlatformCommandFailedFmt       = "%s failed: %w"
	PlatformCommandFailedOutputFmt = "%s failed: %w: %s"
	PlatformPasswordUnavailable    = "administrator password is required but no prompt is available"
	PlatformPasswordInvalid        = "administrator password was not accepted"
	PlatformMoveTargetExistsFmt    = "cannot move installation to %s: path exists"
	PlatformInstallingFmt          = "installing %s"
)
