package session

import (
	"context"
	"encoding/json"

	"github.com/tapo-protocol/tapo-go/pkg/cipher"
	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/transport"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

type handshakeParams struct {
	Key string `json:"key"`
}

type handshakeResult struct {
	Key string `json:"key"`
}

type loginResult struct {
	Token string `json:"token"`
}

func (m *Manager) handshakePassthrough(ctx context.Context) (*Session, error) {
	const op = "passthrough handshake"

	kp, err := cipher.GenerateKeyPair()
	if err != nil {
		return nil, errs.New(errs.KindUnknown, op, err)
	}
	pem, err := kp.PublicKeyPEM()
	if err != nil {
		return nil, errs.New(errs.KindUnknown, op, err)
	}

	hreq, err := wire.NewRequest(wire.MethodHandshake, handshakeParams{Key: pem})
	if err != nil {
		return nil, err
	}
	hreq.RequestTimeMillis = m.config.Clock().UnixMilli()
	body, err := json.Marshal(hreq)
	if err != nil {
		return nil, errs.New(errs.KindInvalidParameters, op, err)
	}

	resp, err := m.post(ctx, &transport.Request{
		Address:     m.config.Address,
		Path:        PathApp,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errs.Newf(errs.KindUnknown, op, "http status %d", resp.StatusCode)
	}

	var hresp wire.Response
	if err := json.Unmarshal(resp.Body, &hresp); err != nil {
		return nil, errs.Newf(errs.KindUnknown, op, "decode handshake reply: %w", err)
	}
	if err := hresp.Err(op); err != nil {
		return nil, err
	}
	var res handshakeResult
	if err := hresp.DecodeResult(&res); err != nil {
		return nil, errs.New(errs.KindUnknown, op, err)
	}
	pc, err := kp.DecryptSessionKey(res.Key)
	if err != nil {
		return nil, errs.New(errs.KindUnknown, op, err)
	}

	s := newSession(m.newID(), m.config.Address, wire.VariantPassthrough, m.config.Clock(), m.config.SessionLifetime, resp)
	s.pass = pc

	token, err := m.login(ctx, s)
	if err != nil {
		return nil, err
	}
	s.token = token
	return s, nil
}

// login runs login_device through the new, still private session.
func (m *Manager) login(ctx context.Context, s *Session) (string, error) {
	op := string(wire.MethodLoginDevice)

	req, err := wire.NewRequest(wire.MethodLoginDevice, m.config.Credentials.loginParams())
	if err != nil {
		return "", err
	}
	req.RequestTimeMillis = m.config.Clock().UnixMilli()
	req.TerminalUUID = m.config.TerminalUUID

	seq := s.NextSeq()
	env, err := wire.Encode(s, seq, req, wire.Routing{})
	if err != nil {
		return "", err
	}
	resp, err := m.post(ctx, s.Request(env))
	if err != nil {
		return "", err
	}
	if err := s.CheckReply(op, resp); err != nil {
		return "", err
	}
	reply, err := wire.Decode(s, env, resp.Body)
	if err != nil {
		return "", err
	}
	s.Commit(seq)

	var res loginResult
	if err := reply.DecodeResult(&res); err != nil {
		return "", errs.New(errs.KindUnknown, op, err)
	}
	if res.Token == "" {
		return "", errs.Newf(errs.KindUnknown, op, "login reply without token")
	}
	return res.Token, nil
}
