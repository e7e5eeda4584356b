package wire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
)

// Variant identifies the session scheme a device speaks.
type Variant uint8

const (
	// VariantUnknown means the scheme has not been detected yet.
	VariantUnknown Variant = iota
	// VariantKLAP is the shared-secret scheme.
	VariantKLAP
	// VariantPassthrough is the legacy public-key scheme.
	VariantPassthrough
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantKLAP:
		return "KLAP"
	case VariantPassthrough:
		return "PASSTHROUGH"
	default:
		return "UNKNOWN"
	}
}

// ParseVariant maps the encrypt_type advertised in discovery replies.
func ParseVariant(encryptType string) Variant {
	switch encryptType {
	case "KLAP", "klap":
		return VariantKLAP
	case "AES", "aes", "PASSTHROUGH":
		return VariantPassthrough
	default:
		return VariantUnknown
	}
}

// Sealer encrypts and decrypts envelope payloads for one session.
type Sealer interface {
	Variant() Variant
	Seal(seq int32, plaintext []byte) ([]byte, error)
	Open(seq int32, ciphertext []byte) ([]byte, error)
}

// Envelope is one sealed command ready for the transport. It is built per
// call and discarded with the reply.
type Envelope struct {
	// Method is the logical method, before any child wrapping.
	Method Method

	Variant Variant

	// Seq is the sequence number the payload was sealed with.
	Seq int32

	// ChildID is set when the command is routed to a child device.
	ChildID string

	// Body is the HTTP body.
	Body []byte
}

type securePassthroughParams struct {
	Request string `json:"request"`
}

type securePassthroughResult struct {
	Response string `json:"response"`
}

// Encode serializes req, nests it for route and seals it with s.
func Encode(s Sealer, seq int32, req *Request, route Routing) (*Envelope, error) {
	op := string(req.Method)
	out := req
	if route.IsChild() {
		var err error
		if out, err = WrapChild(req, route.ChildID); err != nil {
			return nil, err
		}
	}

	plain, err := json.Marshal(out)
	if err != nil {
		return nil, errs.New(errs.KindInvalidParameters, op, err)
	}
	body, err := seal(s, seq, plain)
	if err != nil {
		return nil, errs.New(errs.KindUnknown, op, err)
	}

	return &Envelope{
		Method:  req.Method,
		Variant: s.Variant(),
		Seq:     seq,
		ChildID: route.ChildID,
		Body:    body,
	}, nil
}

// Decode opens a reply to env and checks every status code on the way in.
// For child-routed envelopes the child's own response is returned.
func Decode(s Sealer, env *Envelope, body []byte) (*Response, error) {
	op := string(env.Method)

	plain, err := open(s, env.Seq, body, op)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(plain, &resp); err != nil {
		return nil, errs.New(errs.KindUnknown, op, fmt.Errorf("decode reply: %w", err))
	}
	if err := resp.Err(op); err != nil {
		return nil, err
	}
	if env.ChildID == "" {
		return &resp, nil
	}

	inner, err := UnwrapChildResponse(&resp, op)
	if err != nil {
		return nil, err
	}
	if err := inner.Err(op); err != nil {
		return nil, err
	}
	return inner, nil
}

// DecodeRequest is the inverse of Encode: it opens env and returns the logical
// command with its routing.
func DecodeRequest(s Sealer, env *Envelope) (*Request, Routing, error) {
	sealed := env.Body
	if s.Variant() == VariantPassthrough {
		var outer Request
		if err := json.Unmarshal(env.Body, &outer); err != nil {
			return nil, Routing{}, fmt.Errorf("wire: decode passthrough request: %w", err)
		}
		if outer.Method != MethodSecurePassthrough {
			return nil, Routing{}, fmt.Errorf("wire: unexpected outer method %q", outer.Method)
		}
		var p securePassthroughParams
		if err := outer.DecodeParams(&p); err != nil {
			return nil, Routing{}, fmt.Errorf("wire: decode passthrough params: %w", err)
		}
		var err error
		if sealed, err = base64.StdEncoding.DecodeString(p.Request); err != nil {
			return nil, Routing{}, fmt.Errorf("wire: decode passthrough payload: %w", err)
		}
	}

	plain, err := s.Open(env.Seq, sealed)
	if err != nil {
		return nil, Routing{}, fmt.Errorf("wire: open request: %w", err)
	}
	var req Request
	if err := json.Unmarshal(plain, &req); err != nil {
		return nil, Routing{}, fmt.Errorf("wire: decode request: %w", err)
	}
	return UnwrapChild(&req)
}

// EncodeResponse seals resp as a device would answer a request for method.
func EncodeResponse(s Sealer, seq int32, method Method, resp *Response, route Routing) ([]byte, error) {
	out := resp
	if route.IsChild() {
		var err error
		if out, err = WrapChildResponse(method, resp); err != nil {
			return nil, err
		}
	}
	plain, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("wire: encode response: %w", err)
	}
	sealed, err := s.Seal(seq, plain)
	if err != nil {
		return nil, err
	}
	if s.Variant() != VariantPassthrough {
		return sealed, nil
	}
	wrapped, err := NewResponse(securePassthroughResult{Response: base64.StdEncoding.EncodeToString(sealed)})
	if err != nil {
		return nil, err
	}
	return json.Marshal(wrapped)
}

func seal(s Sealer, seq int32, plain []byte) ([]byte, error) {
	sealed, err := s.Seal(seq, plain)
	if err != nil {
		return nil, err
	}
	if s.Variant() != VariantPassthrough {
		return sealed, nil
	}
	outer, err := NewRequest(MethodSecurePassthrough, securePassthroughParams{
		Request: base64.StdEncoding.EncodeToString(sealed),
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(outer)
}

func open(s Sealer, seq int32, body []byte, op string) ([]byte, error) {
	sealed := body
	if s.Variant() == VariantPassthrough {
		var outer Response
		if err := json.Unmarshal(body, &outer); err != nil {
			return nil, errs.New(errs.KindUnknown, op, fmt.Errorf("decode passthrough reply: %w", err))
		}
		if err := outer.Err(op); err != nil {
			return nil, err
		}
		var res securePassthroughResult
		if err := outer.DecodeResult(&res); err != nil {
			return nil, errs.New(errs.KindUnknown, op, err)
		}
		var err error
		if sealed, err = base64.StdEncoding.DecodeString(res.Response); err != nil {
			return nil, errs.New(errs.KindUnknown, op, fmt.Errorf("decode passthrough payload: %w", err))
		}
	}
	plain, err := s.Open(seq, sealed)
	if err != nil {
		return nil, errs.New(errs.KindUnknown, op, fmt.Errorf("open reply: %w", err))
	}
	return plain, nil
}
