// Package errs defines the error taxonomy shared by every layer of the client.
//
// All public operations return either a typed success value or an *Error whose
// Kind tells the caller how to react:
//
//   - KindNetwork: unreachable device or timeout; the caller may retry.
//   - KindAuth: the device rejected the credentials; never retried.
//   - KindSessionExpired, KindNotSupported, KindInvalidParameters, KindDeviceBusy,
//     KindUnknown: protocol-level failures reported by the device.
//   - KindInvalidWindow: a telemetry query violated its boundary or span rules.
//   - KindNotFound: a child device could not be resolved.
//
// Use errors.Is with the sentinel values to test for a kind:
//
//	if errors.Is(err, errs.ErrSessionExpired) { ... }
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind uint8

const (
	// KindUnknown is a protocol error without a more specific category.
	KindUnknown Kind = iota
	KindNetwork
	KindAuth
	KindSessionExpired
	KindNotSupported
	KindInvalidParameters
	KindDeviceBusy
	KindInvalidWindow
	KindNotFound
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindSessionExpired:
		return "session expired"
	case KindNotSupported:
		return "not supported"
	case KindInvalidParameters:
		return "invalid parameters"
	case KindDeviceBusy:
		return "device busy"
	case KindInvalidWindow:
		return "invalid window"
	case KindNotFound:
		return "not found"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsProtocol reports whether the kind belongs to the protocol error family.
func (k Kind) IsProtocol() bool {
	switch k {
	case KindUnknown, KindSessionExpired, KindNotSupported, KindInvalidParameters, KindDeviceBusy:
		return true
	default:
		return false
	}
}

// Error is the single error type surfaced by the client.
type Error struct {
	Kind Kind

	// Op names the operation that failed (a protocol method or a local step).
	Op string

	// Code is the device error code, or 0 when the error is local.
	Code int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Code == 0 && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnknown           = &Error{Kind: KindUnknown}
	ErrNetwork           = &Error{Kind: KindNetwork}
	ErrAuth              = &Error{Kind: KindAuth}
	ErrSessionExpired    = &Error{Kind: KindSessionExpired}
	ErrNotSupported      = &Error{Kind: KindNotSupported}
	ErrInvalidParameters = &Error{Kind: KindInvalidParameters}
	ErrDeviceBusy        = &Error{Kind: KindDeviceBusy}
	ErrInvalidWindow     = &Error{Kind: KindInvalidWindow}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

// New creates an error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates an error of the given kind with a formatted cause.
func Newf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err. Errors that are not *Error report
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the caller may retry the failed operation as-is.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindNetwork || e.Kind == KindDeviceBusy
}
