package platform

import "errors"

// Sentinel errors for the failure classes the engine distinguishes.
// Backends wrap these with %w so callers can match with errors.Is.
var (
	// ErrPermissionDenied: the introspection API is not authorized. The
	// current pass aborts; the next scheduled trigger retries.
	ErrPermissionDenied = errors.New("accessibility permission denied")

	// ErrAttributeUnavailable: the platform returned "no value" or
	// "unsupported" for a node attribute. Expected during traversal,
	// never logged.
	ErrAttributeUnavailable = errors.New("attribute unavailable")

	// ErrMutationFailed: a position/size set was rejected. The affected
	// window is skipped; the pass continues.
	ErrMutationFailed = errors.New("mutation failed")
)
