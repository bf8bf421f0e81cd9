package provider

import "errors"

// ErrUnavailable marks any upstream provider failure (timeout, auth,
// malformed response). It is never surfaced to callers; the control
// plane recovers by falling back to the simulated variant.
var ErrUnavailable = errors.New("provider unavailable")
