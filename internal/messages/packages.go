package messages

// Package resolution messages.
const (
	// PackagesAmbiguousFmt wraps ErrAmbiguousMatch with the pattern and two of its matches.
	PackagesAmbiguousFmt = "%s: %q matches both %q and %q"
)
