package session

import (
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/cipher"
	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/transport"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// Cookie names set by devices.
const (
	CookieSessionID = "TP_SESSIONID"
	CookieTimeout   = "TIMEOUT"
)

// Endpoint paths.
const (
	PathApp        = "/app"
	PathHandshake1 = "/app/handshake1"
	PathHandshake2 = "/app/handshake2"
	PathRequest    = "/app/request"
)

// Session is the live key material for one device. It implements wire.Sealer.
//
// The sequence counter only moves forward through Commit, which callers invoke
// once a reply has been decoded. A request that fails before that point leaves
// the counter untouched so the next attempt reuses the same number.
type Session struct {
	// ID uniquely identifies this session in protocol captures.
	ID string

	Address   string
	CreatedAt time.Time
	ExpiresAt time.Time

	scheme wire.Variant
	klap   *cipher.KlapCipher
	pass   *cipher.PassthroughCipher
	cookie *http.Cookie
	token  string

	mu      sync.Mutex
	seq     int32
	expired bool
}

var _ wire.Sealer = (*Session)(nil)

// Variant implements wire.Sealer.
func (s *Session) Variant() wire.Variant {
	return s.scheme
}

// NextSeq returns the sequence number the next request must be sealed with.
func (s *Session) NextSeq() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq + 1
}

// Commit records that seq was consumed. Stale or out-of-order values are
// ignored so the counter never moves backwards.
func (s *Session) Commit(seq int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.seq+1 {
		s.seq = seq
	}
}

// MarkExpired flags the session so the next EnsureFresh renews it.
func (s *Session) MarkExpired() {
	s.mu.Lock()
	s.expired = true
	s.mu.Unlock()
}

// Expired reports whether the session was marked expired or outlived its
// lifetime at now.
func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Token returns the passthrough login token, empty for KLAP.
func (s *Session) Token() string {
	return s.token
}

// Seal implements wire.Sealer.
func (s *Session) Seal(seq int32, plaintext []byte) ([]byte, error) {
	if s.klap != nil {
		return s.klap.Encrypt(seq, plaintext)
	}
	return s.pass.Encrypt(plaintext)
}

// Open implements wire.Sealer.
func (s *Session) Open(seq int32, ciphertext []byte) ([]byte, error) {
	if s.klap != nil {
		return s.klap.Decrypt(seq, ciphertext)
	}
	return s.pass.Decrypt(ciphertext)
}

// Request builds the transport request that carries env.
func (s *Session) Request(env *wire.Envelope) *transport.Request {
	req := &transport.Request{
		Address: s.Address,
		Body:    env.Body,
	}
	if s.cookie != nil {
		req.Cookies = []*http.Cookie{{Name: s.cookie.Name, Value: s.cookie.Value}}
	}
	if s.scheme == wire.VariantKLAP {
		req.Path = PathRequest
		req.Query = url.Values{"seq": {strconv.FormatInt(int64(env.Seq), 10)}}
		return req
	}
	req.Path = PathApp
	req.ContentType = "application/json"
	if s.token != "" {
		req.Query = url.Values{"token": {s.token}}
	}
	return req
}

// CheckReply classifies a non-2xx HTTP reply. KLAP devices answer an unknown
// or timed-out session with 401 or 403.
func (s *Session) CheckReply(op string, resp *transport.Response) error {
	if resp.OK() {
		return nil
	}
	if s.scheme == wire.VariantKLAP &&
		(resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return errs.Newf(errs.KindSessionExpired, op, "http status %d", resp.StatusCode)
	}
	return errs.Newf(errs.KindUnknown, op, "http status %d", resp.StatusCode)
}

func newSession(id, address string, variant wire.Variant, now time.Time, lifetime time.Duration, resp *transport.Response) *Session {
	s := &Session{
		ID:        id,
		Address:   address,
		scheme:    variant,
		CreatedAt: now,
		cookie:    resp.Cookie(CookieSessionID),
	}
	if ck := resp.Cookie(CookieTimeout); ck != nil {
		if secs, err := strconv.Atoi(ck.Value); err == nil && secs > 0 {
			lifetime = time.Duration(secs) * time.Second
		}
	}
	if lifetime > 0 {
		s.ExpiresAt = now.Add(lifetime)
	}
	return s
}
