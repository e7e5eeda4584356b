package session_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tapo-protocol/tapo-go/internal/devicetest"
	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/session"
	"github.com/tapo-protocol/tapo-go/pkg/transport"
	"github.com/tapo-protocol/tapo-go/pkg/transport/mocks"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

var creds = session.Credentials{Username: "user@example.com", Password: "secret"}

func newManager(dev *devicetest.Device, c session.Credentials, variant wire.Variant) *session.Manager {
	return session.NewManager(session.ManagerConfig{
		Address:     dev.Address(),
		Credentials: c,
		Poster:      transport.NewClient(transport.ClientConfig{Timeout: 5 * time.Second}),
		Variant:     variant,
	})
}

func TestEstablishKLAP(t *testing.T) {
	dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password, KLAP: true})
	m := newManager(dev, creds, wire.VariantUnknown)

	s, err := m.Establish(context.Background())
	require.NoError(t, err)

	assert.Equal(t, wire.VariantKLAP, s.Variant())
	assert.Equal(t, wire.VariantKLAP, m.Variant())
	assert.Same(t, s, m.Current())
	assert.NotEmpty(t, s.ID)
	assert.Empty(t, s.Token())
	assert.Equal(t, 1, dev.Handshakes())
}

func TestEstablishFallsBackToPassthrough(t *testing.T) {
	dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password, Passthrough: true})
	m := newManager(dev, creds, wire.VariantUnknown)

	s, err := m.Establish(context.Background())
	require.NoError(t, err)

	assert.Equal(t, wire.VariantPassthrough, s.Variant())
	assert.Equal(t, wire.VariantPassthrough, m.Variant())
	assert.NotEmpty(t, s.Token())
	assert.Equal(t, 1, dev.Handshakes())
}

func TestEstablishHonoursVariantHint(t *testing.T) {
	dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password})
	m := newManager(dev, creds, wire.VariantPassthrough)

	s, err := m.Establish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wire.VariantPassthrough, s.Variant())
}

func TestEstablishWrongCredentials(t *testing.T) {
	bad := session.Credentials{Username: creds.Username, Password: "wrong"}

	t.Run("klap", func(t *testing.T) {
		dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password, KLAP: true})
		_, err := newManager(dev, bad, wire.VariantUnknown).Establish(context.Background())
		assert.ErrorIs(t, err, errs.ErrAuth)
		assert.False(t, errs.IsRetryable(err))
	})

	t.Run("passthrough", func(t *testing.T) {
		dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password, Passthrough: true})
		_, err := newManager(dev, bad, wire.VariantUnknown).Establish(context.Background())
		assert.ErrorIs(t, err, errs.ErrAuth)
	})
}

func TestEstablishNetworkErrorDoesNotFallBack(t *testing.T) {
	poster := mocks.NewMockPoster(t)
	poster.EXPECT().Post(mock.Anything, mock.Anything).
		Return(nil, errs.New(errs.KindNetwork, "post /app/handshake1", fmt.Errorf("connection refused"))).
		Once()

	m := session.NewManager(session.ManagerConfig{Address: "10.0.0.9", Credentials: creds, Poster: poster})
	_, err := m.Establish(context.Background())

	assert.ErrorIs(t, err, errs.ErrNetwork)
	assert.Nil(t, m.Current())
	assert.Equal(t, wire.VariantUnknown, m.Variant())
}

func TestEstablishMalformedHandshake1(t *testing.T) {
	poster := mocks.NewMockPoster(t)
	poster.EXPECT().Post(mock.Anything, mock.MatchedBy(func(r *transport.Request) bool {
		return r.Path == session.PathHandshake1
	})).Return(&transport.Response{StatusCode: http.StatusOK, Body: []byte("short")}, nil).Once()

	m := session.NewManager(session.ManagerConfig{Address: "10.0.0.9", Credentials: creds, Poster: poster})
	_, err := m.Establish(context.Background())

	require.Error(t, err)
	assert.Equal(t, errs.KindUnknown, errs.KindOf(err))
}

func TestFailedRenewalKeepsPreviousSession(t *testing.T) {
	dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password, KLAP: true})
	poster := mocks.NewMockPoster(t)
	client := transport.NewClient(transport.ClientConfig{})

	calls := 0
	poster.EXPECT().Post(mock.Anything, mock.Anything).RunAndReturn(
		func(ctx context.Context, r *transport.Request) (*transport.Response, error) {
			calls++
			if calls > 2 {
				return nil, errs.New(errs.KindNetwork, "post", fmt.Errorf("unreachable"))
			}
			return client.Post(ctx, r)
		})

	m := session.NewManager(session.ManagerConfig{Address: dev.Address(), Credentials: creds, Poster: poster})
	first, err := m.Establish(context.Background())
	require.NoError(t, err)

	_, err = m.Establish(context.Background())
	require.ErrorIs(t, err, errs.ErrNetwork)
	assert.Same(t, first, m.Current())
}

func TestEnsureFresh(t *testing.T) {
	dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password, KLAP: true})
	m := newManager(dev, creds, wire.VariantUnknown)
	ctx := context.Background()

	s1, err := m.EnsureFresh(ctx)
	require.NoError(t, err)

	s2, err := m.EnsureFresh(ctx)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, dev.Handshakes())

	s1.MarkExpired()
	s3, err := m.EnsureFresh(ctx)
	require.NoError(t, err)
	assert.NotSame(t, s1, s3)
	assert.NotEqual(t, s1.ID, s3.ID)
	assert.Equal(t, 2, dev.Handshakes())

	m.Reset()
	assert.Nil(t, m.Current())
	_, err = m.EnsureFresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, dev.Handshakes())
}

func TestTimeoutCookieSetsExpiry(t *testing.T) {
	dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password, KLAP: true, TimeoutCookie: 60})

	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	m := session.NewManager(session.ManagerConfig{
		Address:     dev.Address(),
		Credentials: creds,
		Poster:      transport.NewClient(transport.ClientConfig{}),
		Clock:       func() time.Time { return now },
	})

	s, err := m.Establish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(60*time.Second), s.ExpiresAt)
	assert.False(t, s.Expired(now.Add(59*time.Second)))
	assert.True(t, s.Expired(now.Add(60*time.Second)))
}

func TestSessionSequence(t *testing.T) {
	dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password, KLAP: true})
	s, err := newManager(dev, creds, wire.VariantUnknown).Establish(context.Background())
	require.NoError(t, err)

	next := s.NextSeq()
	assert.Equal(t, next, s.NextSeq(), "NextSeq must not advance")

	s.Commit(next)
	assert.Equal(t, next+1, s.NextSeq())

	// Stale commits are ignored.
	s.Commit(next)
	s.Commit(next - 5)
	assert.Equal(t, next+1, s.NextSeq())
}

func TestSessionRequest(t *testing.T) {
	dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password})

	klap, err := newManager(dev, creds, wire.VariantKLAP).Establish(context.Background())
	require.NoError(t, err)
	req := klap.Request(&wire.Envelope{Seq: 17, Body: []byte{1}})
	assert.Equal(t, session.PathRequest, req.Path)
	assert.Equal(t, "17", req.Query.Get("seq"))
	require.Len(t, req.Cookies, 1)
	assert.Equal(t, session.CookieSessionID, req.Cookies[0].Name)

	pass, err := newManager(dev, creds, wire.VariantPassthrough).Establish(context.Background())
	require.NoError(t, err)
	req = pass.Request(&wire.Envelope{Body: []byte("{}")})
	assert.Equal(t, session.PathApp, req.Path)
	assert.Equal(t, pass.Token(), req.Query.Get("token"))
	assert.Equal(t, "application/json", req.ContentType)
}

func TestCheckReply(t *testing.T) {
	dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password})
	klap, err := newManager(dev, creds, wire.VariantKLAP).Establish(context.Background())
	require.NoError(t, err)

	assert.NoError(t, klap.CheckReply("op", &transport.Response{StatusCode: 200}))
	assert.ErrorIs(t, klap.CheckReply("op", &transport.Response{StatusCode: 403}), errs.ErrSessionExpired)
	assert.ErrorIs(t, klap.CheckReply("op", &transport.Response{StatusCode: 401}), errs.ErrSessionExpired)
	assert.ErrorIs(t, klap.CheckReply("op", &transport.Response{StatusCode: 500}), errs.ErrUnknown)
}

func TestCredentialsRedacted(t *testing.T) {
	out := fmt.Sprintf("%v %+v %#v %s", creds, creds, creds, creds)
	assert.NotContains(t, out, creds.Password)
	assert.Contains(t, out, creds.Username)
}
