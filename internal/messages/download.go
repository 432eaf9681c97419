package messages

// Download messages.
const (
	DownloadNotPrepared           = "download was not prepared"
	DownloadCreateDirFmt          = "create download dir %s: %w"
	DownloadOpenLockFmt           = "open download lock %s: %w"
	DownloadLockFmt               = "lock download %s: %w"
	DownloadLockTimeoutFmt        = "timed out after %s waiting for another process downloading the same file"
	DownloadStatFmt               = "inspect %s: %w"
	DownloadRemoveFmt             = "remove stale download %s: %w"
	DownloadOpenFileFmt           = "open %s: %w"
	DownloadCreateRequestFmt      = "create download request for %s: %w"
	DownloadRequestFmt            = "download %s: %w"
	DownloadTimeoutFmt            = "download %s timed out"
	DownloadUnexpectedStatusFmt   = "download %s: unexpected status %s"
	DownloadRangeNotSatisfiedFmt  = "download %s: server rejected resume at byte %d"
	DownloadWriteFmt              = "write %s: %w"
	DownloadSizeMismatchFmt       = "download %s: expected %d bytes, got %d"
	DownloadChecksumMismatchFmt   = "checksum mismatch for %s: expected %s, got %s"
	DownloadHashFileFmt           = "hash %s: %w"
	DownloadMissingFileFmt        = "package file %s is missing; download it first"
	DownloadInvalidChecksumFmt    = "invalid checksum %q: expected md5 or sha256 hex digest"
	DownloadUnsupportedHashFmt    = "unsupported checksum algorithm %q"
	DownloadNoChecksumWarning     = "package has no checksum, skipping verification"
	DownloadExistingTooLargeFmt   = "existing file %s is larger than expected (%d > %d bytes), starting over"
	DownloadExistingCorruptFmt    = "existing file %s failed verification, starting over"
	DownloadResumingFmt           = "resuming %s at byte %d"
	DownloadServerIgnoredRangeFmt = "server ignored range request for %s, downloading from the start"
)
