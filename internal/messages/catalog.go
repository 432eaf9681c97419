package messages

// Catalog messages.
const (
	// CatalogNoMatchFmt wraps ErrNotFound for a version pattern without matches.
	CatalogNoMatchFmt           = "%w: no known version matches %q"
	CatalogReadFmt              = "read catalog %s: %w"
	CatalogInvalidFmt           = "invalid catalog %s: %w"
	CatalogInvalidVersionFmt    = "invalid catalog %s: %w"
	CatalogIncompleteVersionFmt = "invalid catalog %s: version %q must name a single release (e.g. 2019.4.1f1)"
	CatalogInvalidBaseURLFmt    = "invalid catalog %s: version %s platform %s base_url: %w"
	CatalogCachePathRequired    = "catalog cache path is required"
	CatalogNotCachedFmt         = "catalog is not cached (expected at %s) and refreshing is disabled; set catalog_url or unset IU_NO_NETWORK"
	CatalogWriteCacheFmt        = "write catalog cache %s: %w"
	CatalogCreateRequestFmt     = "create catalog request: %w"
	CatalogFetchFmt             = "fetch catalog %s: %w"
	CatalogFetchStatusFmt       = "fetch catalog %s: unexpected status %s"
	CatalogTooLargeFmt          = "fetch catalog %s: response larger than %d bytes"
)
