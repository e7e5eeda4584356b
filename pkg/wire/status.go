package wire

import (
	"strconv"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
)

// Status is the error_code carried by every device response.
type Status int

const (
	// StatusSuccess indicates the request completed.
	StatusSuccess Status = 0

	// StatusTransportNotSupported is returned by a device that does not speak
	// the passthrough transport.
	StatusTransportNotSupported Status = 1003

	// StatusSessionTimeout indicates the session is no longer valid.
	StatusSessionTimeout Status = 9999

	// StatusUnknownMethod indicates the method is not implemented by the device.
	StatusUnknownMethod Status = -1002

	// StatusJSONDecodeFailed indicates the request payload was not valid JSON.
	StatusJSONDecodeFailed Status = -1003

	// StatusJSONEncodeFailed indicates the device could not encode its answer.
	StatusJSONEncodeFailed Status = -1004

	// StatusInvalidParams indicates a parameter was missing or out of range.
	StatusInvalidParams Status = -1008

	// StatusInvalidPublicKey indicates the handshake key was rejected.
	StatusInvalidPublicKey Status = -1010

	// StatusSessionParamError indicates the session token was not accepted.
	StatusSessionParamError Status = -1101

	// StatusDeviceError indicates the device could not act right now.
	StatusDeviceError Status = -1301

	// StatusDeviceNextEvent indicates the device is processing a previous event.
	StatusDeviceNextEvent Status = -1302

	// StatusLoginFailed indicates the credentials were rejected.
	StatusLoginFailed Status = -1501
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusTransportNotSupported:
		return "TRANSPORT_NOT_SUPPORTED"
	case StatusSessionTimeout:
		return "SESSION_TIMEOUT"
	case StatusUnknownMethod:
		return "UNKNOWN_METHOD"
	case StatusJSONDecodeFailed:
		return "JSON_DECODE_FAILED"
	case StatusJSONEncodeFailed:
		return "JSON_ENCODE_FAILED"
	case StatusInvalidParams:
		return "INVALID_PARAMS"
	case StatusInvalidPublicKey:
		return "INVALID_PUBLIC_KEY"
	case StatusSessionParamError:
		return "SESSION_PARAM_ERROR"
	case StatusDeviceError:
		return "DEVICE_ERROR"
	case StatusDeviceNextEvent:
		return "DEVICE_NEXT_EVENT"
	case StatusLoginFailed:
		return "LOGIN_FAILED"
	default:
		return "STATUS_" + strconv.Itoa(int(s))
	}
}

// Kind maps the status onto the error taxonomy.
func (s Status) Kind() errs.Kind {
	switch s {
	case StatusSessionTimeout, StatusSessionParamError:
		return errs.KindSessionExpired
	case StatusUnknownMethod, StatusTransportNotSupported:
		return errs.KindNotSupported
	case StatusJSONDecodeFailed, StatusJSONEncodeFailed, StatusInvalidParams, StatusInvalidPublicKey:
		return errs.KindInvalidParameters
	case StatusDeviceError, StatusDeviceNextEvent:
		return errs.KindDeviceBusy
	case StatusLoginFailed:
		return errs.KindAuth
	default:
		return errs.KindUnknown
	}
}

// Err returns nil for StatusSuccess and a typed error otherwise.
func (s Status) Err(op string) error {
	if s == StatusSuccess {
		return nil
	}
	return &errs.Error{Kind: s.Kind(), Op: op, Code: int(s)}
}
