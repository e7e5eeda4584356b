package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
)

// ErrEmptyResult is returned when a successful response carries no result.
var ErrEmptyResult = errors.New("wire: empty result")

// Request is one logical command.
type Request struct {
	Method Method `json:"method"`

	// Params is the JSON-encoded parameter object ("null" for none).
	Params json.RawMessage `json:"params"`

	// RequestTimeMillis is the client wall clock at send time, in milliseconds.
	RequestTimeMillis int64 `json:"requestTimeMilis,omitempty"`

	// TerminalUUID identifies the client to the device.
	TerminalUUID string `json:"terminalUUID,omitempty"`
}

// NewRequest encodes params and builds a request for method.
func NewRequest(method Method, params any) (*Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, errs.New(errs.KindInvalidParameters, string(method), err)
	}
	return &Request{Method: method, Params: raw}, nil
}

func marshalParams(params any) (json.RawMessage, error) {
	if raw, ok := params.(json.RawMessage); ok {
		if len(raw) == 0 {
			return json.RawMessage("null"), nil
		}
		return compact(raw)
	}
	b, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return b, nil
}

func compact(raw []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeParams unmarshals the request parameters into v.
func (r *Request) DecodeParams(v any) error {
	if len(r.Params) == 0 || bytes.Equal(r.Params, []byte("null")) {
		return nil
	}
	return json.Unmarshal(r.Params, v)
}

// Response is one device answer.
type Response struct {
	ErrorCode Status          `json:"error_code"`
	Result    json.RawMessage `json:"result,omitempty"`

	// Msg is an optional human readable message some firmwares add on errors.
	Msg string `json:"msg,omitempty"`
}

// Err returns the typed error for a non-success response, or nil.
func (r *Response) Err(op string) error {
	err := r.ErrorCode.Err(op)
	if err != nil && r.Msg != "" {
		var e *errs.Error
		if errors.As(err, &e) {
			e.Err = errors.New(r.Msg)
		}
	}
	return err
}

// DecodeResult unmarshals the result into v. A nil v discards the result.
func (r *Response) DecodeResult(v any) error {
	if v == nil {
		return nil
	}
	if len(r.Result) == 0 || bytes.Equal(r.Result, []byte("null")) {
		return ErrEmptyResult
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("wire: decode result: %w", err)
	}
	return nil
}

// NewResponse builds a success response carrying result.
func NewResponse(result any) (*Response, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("wire: encode result: %w", err)
	}
	return &Response{ErrorCode: StatusSuccess, Result: b}, nil
}
