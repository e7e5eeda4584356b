package interaction

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/log"
	"github.com/tapo-protocol/tapo-go/pkg/session"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// ErrClientClosed is returned by calls on a closed Client.
var ErrClientClosed = errors.New("interaction: client is closed")

// DefaultFrameCapture is how many bytes of each sealed body are captured.
const DefaultFrameCapture = 256

// ClientConfig configures a Client.
type ClientConfig struct {
	// Sessions owns the device session. Required.
	Sessions *session.Manager

	// Logger is used for operational logging. Nil disables it.
	Logger *slog.Logger

	// ProtocolLogger receives request and reply events. Nil disables capture.
	ProtocolLogger log.Logger

	// FrameCapture limits captured body bytes (default: 256, negative: none).
	FrameCapture int
}

// Client sends commands to one device.
type Client struct {
	config   ClientConfig
	sessions *session.Manager
	logger   *slog.Logger
	plog     log.Logger

	// mu allows one in-flight request per device.
	mu     sync.Mutex
	closed bool
}

// NewClient creates a new interaction client.
func NewClient(config ClientConfig) *Client {
	if config.FrameCapture == 0 {
		config.FrameCapture = DefaultFrameCapture
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		config:   config,
		sessions: config.Sessions,
		logger:   logger.With("address", config.Sessions.Address()),
		plog:     log.OrNoop(config.ProtocolLogger),
	}
}

// Sessions returns the session manager.
func (c *Client) Sessions() *session.Manager {
	return c.sessions
}

// Close drops the session. Further calls fail with ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.sessions.Reset()
	return nil
}

// Refresh performs a new handshake and replaces the live session. It waits
// for an in-flight request to finish.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	_, err := c.sessions.Establish(ctx)
	return err
}

// Call sends method with params along route and returns the raw result.
func (c *Client) Call(ctx context.Context, method wire.Method, params any, route wire.Routing) (json.RawMessage, error) {
	req, err := wire.NewRequest(method, params)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClientClosed
	}

	resp, err := c.attempt(ctx, req, route)
	if errs.KindOf(err) == errs.KindSessionExpired {
		c.logger.Debug("session expired, renewing", "method", method)
		resp, err = c.attempt(ctx, req, route)
	}
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// CallInto is Call followed by decoding the result into out. A nil out
// discards the result.
func (c *Client) CallInto(ctx context.Context, method wire.Method, params any, route wire.Routing, out any) error {
	raw, err := c.Call(ctx, method, params, route)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	resp := wire.Response{Result: raw}
	if err := resp.DecodeResult(out); err != nil {
		return errs.New(errs.KindUnknown, string(method), err)
	}
	return nil
}

// attempt runs one encode, post and decode cycle. It must be called with mu
// held.
func (c *Client) attempt(ctx context.Context, req *wire.Request, route wire.Routing) (*wire.Response, error) {
	op := string(req.Method)

	s, err := c.sessions.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}

	req.RequestTimeMillis = c.sessions.Now().UnixMilli()
	req.TerminalUUID = c.sessions.TerminalUUID()

	seq := s.NextSeq()
	env, err := wire.Encode(s, seq, req, route)
	if err != nil {
		return nil, err
	}
	c.captureRequest(s, env, req)

	start := time.Now()
	hresp, err := c.sessions.Poster().Post(ctx, s.Request(env))
	if err != nil {
		c.captureError(s, env, err)
		return nil, err
	}
	c.captureFrame(s, env, log.DirectionIn, hresp.Body, hresp.StatusCode)

	if err := s.CheckReply(op, hresp); err != nil {
		c.fail(s, env, err)
		return nil, err
	}

	reply, err := wire.Decode(s, env, hresp.Body)
	if err != nil {
		// A device status code proves the reply was readable.
		var e *errs.Error
		if errors.As(err, &e) && e.Code != 0 {
			s.Commit(seq)
			c.captureResponse(s, env, e.Code, nil, time.Since(start))
		}
		c.fail(s, env, err)
		return nil, err
	}
	s.Commit(seq)
	c.captureResponse(s, env, int(reply.ErrorCode), reply.Result, time.Since(start))
	return reply, nil
}

func (c *Client) fail(s *session.Session, env *wire.Envelope, err error) {
	if errs.KindOf(err) == errs.KindSessionExpired {
		s.MarkExpired()
	}
	c.captureError(s, env, err)
}

func (c *Client) base(s *session.Session, env *wire.Envelope, dir log.Direction, layer log.Layer, cat log.Category) log.Event {
	return log.Event{
		Timestamp: time.Now(),
		SessionID: s.ID,
		Direction: dir,
		Layer:     layer,
		Category:  cat,
		Address:   s.Address,
		Variant:   s.Variant().String(),
		DeviceID:  env.ChildID,
	}
}

func (c *Client) captureRequest(s *session.Session, env *wire.Envelope, req *wire.Request) {
	ev := c.base(s, env, log.DirectionOut, log.LayerEnvelope, log.CategoryMessage)
	ev.Message = &log.MessageEvent{
		Type:    log.MessageTypeRequest,
		Seq:     env.Seq,
		Method:  string(req.Method),
		Payload: decodePayload(req.Params),
	}
	c.plog.Log(ev)
	c.captureFrame(s, env, log.DirectionOut, env.Body, 0)
}

func (c *Client) captureFrame(s *session.Session, env *wire.Envelope, dir log.Direction, body []byte, status int) {
	ev := c.base(s, env, dir, log.LayerTransport, log.CategoryMessage)
	ev.Frame = log.NewFrameEvent(body, c.config.FrameCapture)
	ev.Frame.HTTPStatus = status
	c.plog.Log(ev)
}

func (c *Client) captureResponse(s *session.Session, env *wire.Envelope, status int, result json.RawMessage, elapsed time.Duration) {
	ev := c.base(s, env, log.DirectionIn, log.LayerEnvelope, log.CategoryMessage)
	ev.Message = &log.MessageEvent{
		Type:    log.MessageTypeResponse,
		Seq:     env.Seq,
		Method:  string(env.Method),
		Status:  &status,
		Payload: decodePayload(result),
		Elapsed: &elapsed,
	}
	c.plog.Log(ev)
}

func (c *Client) captureError(s *session.Session, env *wire.Envelope, err error) {
	ev := c.base(s, env, log.DirectionIn, log.LayerEnvelope, log.CategoryError)
	ev.Error = &log.ErrorEventData{
		Layer:   log.LayerEnvelope,
		Message: err.Error(),
		Context: string(env.Method),
	}
	var e *errs.Error
	if errors.As(err, &e) && e.Code != 0 {
		code := e.Code
		ev.Error.Code = &code
	}
	c.plog.Log(ev)
}

func decodePayload(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
