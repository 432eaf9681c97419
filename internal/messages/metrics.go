package messages

// Metrics messages.
const (
	MetricsPushFmt = "push metrics to %s: %w"
)
