package sessions

import "errors"

var (
	// ErrSessionNotFound is returned when a session id is unknown or
	// already discarded.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned when session creation exceeds the
	// process-wide rate limit.
	ErrTooManySessions = errors.New("too many sessions")
)
