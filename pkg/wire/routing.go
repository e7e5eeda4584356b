package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
)

// Routing errors.
var (
	ErrNestedRouting = errors.New("wire: child requests cannot be nested")
	ErrNoChildReply  = errors.New("wire: control_child reply carries no responses")
)

// Routing addresses a command. The zero value targets the device itself.
type Routing struct {
	// ChildID is the device_id of the hub child or strip outlet.
	ChildID string
}

// ToChild routes a command through the parent to childID.
func ToChild(childID string) Routing {
	return Routing{ChildID: childID}
}

// IsChild reports whether the command goes to a child device.
func (r Routing) IsChild() bool {
	return r.ChildID != ""
}

type controlChildParams struct {
	DeviceID    string   `json:"device_id"`
	RequestData *Request `json:"requestData"`
}

type multipleRequestParams struct {
	Requests []*Request `json:"requests"`
}

type childResponse struct {
	Method    Method          `json:"method,omitempty"`
	ErrorCode Status          `json:"error_code"`
	Result    json.RawMessage `json:"result,omitempty"`
}

type controlChildResult struct {
	ResponseData struct {
		ErrorCode Status `json:"error_code"`
		Result    struct {
			Responses []childResponse `json:"responses"`
		} `json:"result"`
	} `json:"responseData"`
}

// WrapChild nests req inside a control_child/multipleRequest pair addressed to
// childID.
func WrapChild(req *Request, childID string) (*Request, error) {
	if req.Method == MethodControlChild || req.Method == MethodMultipleRequest {
		return nil, errs.New(errs.KindInvalidParameters, string(req.Method), ErrNestedRouting)
	}
	multi, err := NewRequest(MethodMultipleRequest, multipleRequestParams{Requests: []*Request{req}})
	if err != nil {
		return nil, err
	}
	outer, err := NewRequest(MethodControlChild, controlChildParams{DeviceID: childID, RequestData: multi})
	if err != nil {
		return nil, err
	}
	outer.RequestTimeMillis = req.RequestTimeMillis
	outer.TerminalUUID = req.TerminalUUID
	return outer, nil
}

// UnwrapChild extracts the inner command from a control_child request.
// Requests that are not routed are returned unchanged with an empty Routing.
func UnwrapChild(req *Request) (*Request, Routing, error) {
	if req.Method != MethodControlChild {
		return req, Routing{}, nil
	}
	var params controlChildParams
	if err := req.DecodeParams(&params); err != nil {
		return nil, Routing{}, fmt.Errorf("wire: decode control_child: %w", err)
	}
	if params.RequestData == nil || params.RequestData.Method != MethodMultipleRequest {
		return nil, Routing{}, errors.New("wire: control_child without multipleRequest")
	}
	var multi multipleRequestParams
	if err := params.RequestData.DecodeParams(&multi); err != nil {
		return nil, Routing{}, fmt.Errorf("wire: decode multipleRequest: %w", err)
	}
	if len(multi.Requests) != 1 {
		return nil, Routing{}, fmt.Errorf("wire: multipleRequest carries %d requests, want 1", len(multi.Requests))
	}
	inner := multi.Requests[0]
	if inner.Method == MethodControlChild || inner.Method == MethodMultipleRequest {
		return nil, Routing{}, ErrNestedRouting
	}
	return inner, ToChild(params.DeviceID), nil
}

// WrapChildResponse nests a child's answer the way a parent device reports it.
func WrapChildResponse(method Method, inner *Response) (*Response, error) {
	var out controlChildResult
	out.ResponseData.Result.Responses = []childResponse{{
		Method:    method,
		ErrorCode: inner.ErrorCode,
		Result:    inner.Result,
	}}
	return NewResponse(out)
}

// UnwrapChildResponse extracts the child's own answer from a control_child
// response. The returned response still has to be checked with Err.
func UnwrapChildResponse(outer *Response, op string) (*Response, error) {
	var res controlChildResult
	if err := outer.DecodeResult(&res); err != nil {
		return nil, errs.New(errs.KindUnknown, op, err)
	}
	if err := res.ResponseData.ErrorCode.Err(op); err != nil {
		return nil, err
	}
	if len(res.ResponseData.Result.Responses) == 0 {
		return nil, errs.New(errs.KindUnknown, op, ErrNoChildReply)
	}
	r := res.ResponseData.Result.Responses[0]
	return &Response{ErrorCode: r.ErrorCode, Result: r.Result}, nil
}
