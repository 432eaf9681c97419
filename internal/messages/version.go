package messages

// Version parsing messages.
const (
	// VersionRequired indicates an empty version string.
	VersionRequired       = "version is required"
	VersionInvalidFmt     = "version %q does not match the format 0.0.0x0 (optionally followed by a 12 digit hash in parentheses)"
	VersionUnknownKindFmt = "unknown release kind %q (expected f, p, b or a)"
)
