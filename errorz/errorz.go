package errorz

import "errors"

// Error classes surfaced by the forum core. Callers distinguish them with
// errors.Is; wrapped messages carry the detail.
var (
	// ErrUnauthenticated means no identity is available. Redirect to sign-in.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrValidation means an empty or invalid field. Re-prompt and resubmit.
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyLiked is a soft business condition, not a system failure.
	ErrAlreadyLiked = errors.New("already liked")
	// ErrNotFound means the target document does not exist (stale id).
	ErrNotFound = errors.New("not found")
	// ErrTransport means a subscription or write failed on connectivity or
	// permissions. Retrying is the caller's decision; local state is intact.
	ErrTransport = errors.New("transport failed")
	// ErrUnknown wraps unexpected remote errors.
	ErrUnknown = errors.New("unknown error")
)
