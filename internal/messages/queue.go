package messages

// Queue construction messages.
const (
	QueueVersionNotConcreteFmt = "%w: version %s does not identify a single release"
	QueueNoPackagesFmt         = "%w: version %s has no packages for platform %s"
	QueueNothingSelected       = "%w: no packages selected"
	QueueDirRequired           = "%w: download directory is required"
	QueueInvalidURLFmt         = "%w: package %s has an invalid url %q: %v"
	QueueMissingBaseURLFmt     = "%w: package %s has a relative url but platform %s has no base_url"
	QueueAlreadyActive         = "%w: queue is already being processed"
	QueueNegativeRetries       = "%w: retry budget must not be negative"
)
