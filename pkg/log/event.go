package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the device session (UUID). It changes on every
	// successful handshake.
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Address is the device host.
	Address string `cbor:"6,keyasint,omitempty"`

	// Variant is the session scheme ("KLAP" or "PASSTHROUGH").
	Variant string `cbor:"7,keyasint,omitempty"`

	// DeviceID is the target child device id for hub-routed commands.
	DeviceID string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Envelope layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Session state
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates a reply from the device.
	DirectionIn Direction = 0
	// DirectionOut indicates a request to the device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the HTTP layer (sealed bytes).
	LayerTransport Layer = 0
	// LayerEnvelope is the decoded JSON command layer.
	LayerEnvelope Layer = 1
	// LayerSession is the handshake and session lifecycle layer.
	LayerSession Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerEnvelope:
		return "ENVELOPE"
	case LayerSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a command or its reply.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures the sealed HTTP body.
type FrameEvent struct {
	// Size is the body size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw body (may be truncated for large bodies).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`

	// HTTPStatus is the reply status code (replies only).
	HTTPStatus int `cbor:"4,keyasint,omitempty"`
}

// NewFrameEvent captures data, keeping at most max bytes. A max of zero keeps
// only the size.
func NewFrameEvent(data []byte, max int) *FrameEvent {
	f := &FrameEvent{Size: len(data)}
	switch {
	case max <= 0:
		f.Truncated = len(data) > 0
	case len(data) > max:
		f.Data = append([]byte(nil), data[:max]...)
		f.Truncated = true
	default:
		f.Data = append([]byte(nil), data...)
	}
	return f
}

// MessageEvent captures a decoded command or reply at the envelope layer.
type MessageEvent struct {
	// Type distinguishes request from response.
	Type MessageType `cbor:"1,keyasint"`

	// Seq is the sequence number the envelope was sealed with.
	Seq int32 `cbor:"2,keyasint"`

	// Method is the logical method name.
	Method string `cbor:"3,keyasint,omitempty"`

	// Status is the device error_code (responses only).
	Status *int `cbor:"6,keyasint,omitempty"`

	// Decoded payload: params for requests, result for responses.
	Payload any `cbor:"8,keyasint,omitempty"`

	// Elapsed is the round-trip time (responses only).
	// Stored as nanoseconds.
	Elapsed *time.Duration `cbor:"9,keyasint,omitempty"`
}

// MessageType distinguishes request from response.
type MessageType uint8

const (
	// MessageTypeRequest indicates a request message.
	MessageTypeRequest MessageType = 0
	// MessageTypeResponse indicates a response message.
	MessageTypeResponse MessageType = 1
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures session lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntitySession indicates a session state change.
	StateEntitySession StateEntity = 1
	// StateEntityHandshake indicates handshake progress.
	StateEntityHandshake StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySession:
		return "SESSION"
	case StateEntityHandshake:
		return "HANDSHAKE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the device error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}

// OrNoop returns l, or NoopLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}
