package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/log"
	"github.com/tapo-protocol/tapo-go/pkg/transport"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// DefaultSessionLifetime applies when the device does not send a TIMEOUT
// cookie.
const DefaultSessionLifetime = 24 * time.Hour

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Address is the device host.
	Address string

	Credentials Credentials

	// Poster carries handshake and command requests.
	Poster transport.Poster

	// Variant skips detection when set, for example from a discovery reply.
	Variant wire.Variant

	// SessionLifetime bounds a session when the device sends no TIMEOUT
	// cookie (default: 24h).
	SessionLifetime time.Duration

	// TerminalUUID identifies this client in login requests.
	TerminalUUID string

	// Logger is used for operational logging. Nil disables it.
	Logger *slog.Logger

	// ProtocolLogger receives handshake state events. Nil disables capture.
	ProtocolLogger log.Logger

	// Clock returns the current time (default: time.Now).
	Clock func() time.Time
}

// Manager owns the session of one device handle.
type Manager struct {
	config ManagerConfig
	logger *slog.Logger
	plog   log.Logger

	// hsMu serializes handshakes; current is read without it.
	hsMu    sync.Mutex
	current atomic.Pointer[Session]
	variant atomic.Uint32
}

// NewManager creates a Manager. No network traffic happens until Establish.
func NewManager(config ManagerConfig) *Manager {
	if config.SessionLifetime == 0 {
		config.SessionLifetime = DefaultSessionLifetime
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.TerminalUUID == "" {
		config.TerminalUUID = uuid.NewString()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Manager{
		config: config,
		logger: logger.With("address", config.Address),
		plog:   log.OrNoop(config.ProtocolLogger),
	}
	m.variant.Store(uint32(config.Variant))
	return m
}

// Address returns the device address.
func (m *Manager) Address() string {
	return m.config.Address
}

// Poster returns the transport the manager's sessions use.
func (m *Manager) Poster() transport.Poster {
	return m.config.Poster
}

// TerminalUUID returns the client identifier sent with requests.
func (m *Manager) TerminalUUID() string {
	return m.config.TerminalUUID
}

// Now returns the manager's clock reading.
func (m *Manager) Now() time.Time {
	return m.config.Clock()
}

// Variant returns the detected or configured scheme.
func (m *Manager) Variant() wire.Variant {
	return wire.Variant(m.variant.Load())
}

// Current returns the live session, or nil before the first handshake.
func (m *Manager) Current() *Session {
	return m.current.Load()
}

// Reset drops the live session. The next EnsureFresh performs a handshake.
func (m *Manager) Reset() {
	if old := m.current.Swap(nil); old != nil {
		m.emitState(old, log.StateEntitySession, "established", "closed", "reset")
	}
}

// EnsureFresh returns the live session, renewing it first when it is missing,
// expired or marked expired.
func (m *Manager) EnsureFresh(ctx context.Context) (*Session, error) {
	if s := m.current.Load(); s != nil && !s.Expired(m.config.Clock()) {
		return s, nil
	}

	m.hsMu.Lock()
	defer m.hsMu.Unlock()

	// Another caller may have renewed while we waited.
	if s := m.current.Load(); s != nil && !s.Expired(m.config.Clock()) {
		return s, nil
	}
	return m.establishLocked(ctx)
}

// Establish performs a full handshake and replaces the live session on
// success. On failure the previous session, if any, stays in place.
func (m *Manager) Establish(ctx context.Context) (*Session, error) {
	m.hsMu.Lock()
	defer m.hsMu.Unlock()
	return m.establishLocked(ctx)
}

func (m *Manager) establishLocked(ctx context.Context) (*Session, error) {
	variant := m.Variant()
	s, err := m.handshake(ctx, variant)

	// Detection: KLAP first, one fallback to passthrough.
	if variant == wire.VariantUnknown && errs.KindOf(err) == errs.KindNotSupported {
		m.logger.Debug("klap not supported, falling back to passthrough", "error", err)
		s, err = m.handshake(ctx, wire.VariantPassthrough)
	}
	if err != nil {
		return nil, err
	}

	m.variant.Store(uint32(s.Variant()))
	old := m.current.Swap(s)
	if old != nil {
		m.emitState(s, log.StateEntitySession, "expired", "established", "renewed")
	} else {
		m.emitState(s, log.StateEntitySession, "", "established", "")
	}
	m.logger.Debug("session established", "variant", s.Variant(), "session_id", s.ID, "expires", s.ExpiresAt)
	return s, nil
}

func (m *Manager) handshake(ctx context.Context, variant wire.Variant) (*Session, error) {
	if variant == wire.VariantUnknown {
		variant = wire.VariantKLAP
	}
	m.emit(log.Event{
		Layer:    log.LayerSession,
		Category: log.CategoryState,
		Variant:  variant.String(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityHandshake,
			NewState: "started",
		},
	})

	var (
		s   *Session
		err error
	)
	switch variant {
	case wire.VariantPassthrough:
		s, err = m.handshakePassthrough(ctx)
	default:
		s, err = m.handshakeKLAP(ctx)
	}
	if err != nil {
		m.logger.Debug("handshake failed", "variant", variant, "error", err)
		m.emit(log.Event{
			Layer:    log.LayerSession,
			Category: log.CategoryError,
			Variant:  variant.String(),
			Error: &log.ErrorEventData{
				Layer:   log.LayerSession,
				Message: err.Error(),
				Context: "handshake",
			},
		})
		return nil, err
	}

	m.emitState(s, log.StateEntityHandshake, "started", "complete", "")
	return s, nil
}

func (m *Manager) post(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	return m.config.Poster.Post(ctx, req)
}

func (m *Manager) newID() string {
	return uuid.NewString()
}

func (m *Manager) emitState(s *Session, entity log.StateEntity, from, to, reason string) {
	m.emit(log.Event{
		SessionID: s.ID,
		Layer:     log.LayerSession,
		Category:  log.CategoryState,
		Variant:   s.Variant().String(),
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}

func (m *Manager) emit(ev log.Event) {
	ev.Timestamp = time.Now()
	ev.Address = m.config.Address
	m.plog.Log(ev)
}
