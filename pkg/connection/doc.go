// Package connection provides the caller-side retry policy for reaching
// devices.
//
// Session renewal after expiry lives in the interaction layer and happens
// at most once per call. This package covers the other case: a device that
// is momentarily unreachable while a client is being connected.
//
// # Backoff
//
// Delays grow exponentially from 500ms and are capped at 8s:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
//
// # Retry
//
// Retry repeats an operation only while it fails with a network error.
// Authentication, protocol and validation failures are returned at once,
// since repeating them cannot succeed.
package connection
