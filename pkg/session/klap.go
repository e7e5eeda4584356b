package session

import (
	"bytes"
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/tapo-protocol/tapo-go/pkg/cipher"
	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/transport"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

const handshake1ReplySize = cipher.SeedSize + cipher.SignatureSize

func (m *Manager) handshakeKLAP(ctx context.Context) (*Session, error) {
	const op = "klap handshake"

	local, err := cipher.LocalSeed()
	if err != nil {
		return nil, errs.New(errs.KindUnknown, op, err)
	}

	resp, err := m.post(ctx, &transport.Request{
		Address: m.config.Address,
		Path:    PathHandshake1,
		Body:    local,
	})
	if err != nil {
		return nil, err
	}
	if err := klapSupported(op, resp); err != nil {
		return nil, err
	}
	if len(resp.Body) != handshake1ReplySize {
		return nil, errs.Newf(errs.KindUnknown, op, "handshake1 reply is %d bytes, want %d", len(resp.Body), handshake1ReplySize)
	}

	remote := resp.Body[:cipher.SeedSize]
	serverHash := resp.Body[cipher.SeedSize:]
	auth := m.config.Credentials.authHash()
	if subtle.ConstantTimeCompare(serverHash, cipher.ServerProof(local, remote, auth)) != 1 {
		return nil, errs.Newf(errs.KindAuth, op, "device proof does not match credentials")
	}

	now := m.config.Clock()
	s := newSession(m.newID(), m.config.Address, wire.VariantKLAP, now, m.config.SessionLifetime, resp)
	if s.cookie == nil {
		return nil, errs.Newf(errs.KindUnknown, op, "handshake1 reply without %s cookie", CookieSessionID)
	}

	resp2, err := m.post(ctx, &transport.Request{
		Address: m.config.Address,
		Path:    PathHandshake2,
		Body:    cipher.ClientProof(local, remote, auth),
		Cookies: []*http.Cookie{{Name: s.cookie.Name, Value: s.cookie.Value}},
	})
	if err != nil {
		return nil, err
	}
	if !resp2.OK() {
		return nil, errs.Newf(errs.KindAuth, op, "handshake2 rejected with http status %d", resp2.StatusCode)
	}

	s.klap = cipher.NewKlapCipher(local, remote, auth)
	s.seq = s.klap.InitialSeq()
	return s, nil
}

// klapSupported decides whether a handshake1 reply means the device does not
// speak KLAP at all. Such devices either reject the path or answer with a
// JSON error envelope.
func klapSupported(op string, resp *transport.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return errs.Newf(errs.KindNotSupported, op, "handshake1 http status %d", resp.StatusCode)
	}
	if !resp.OK() {
		return errs.Newf(errs.KindUnknown, op, "handshake1 http status %d", resp.StatusCode)
	}
	if bytes.HasPrefix(bytes.TrimSpace(resp.Body), []byte("{")) {
		return errs.Newf(errs.KindNotSupported, op, "handshake1 answered with a JSON envelope")
	}
	return nil
}
