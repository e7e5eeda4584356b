package tapo_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tapo-protocol/tapo-go/internal/devicetest"
	"github.com/tapo-protocol/tapo-go/pkg/connection"
	"github.com/tapo-protocol/tapo-go/pkg/device"
	"github.com/tapo-protocol/tapo-go/pkg/discovery"
	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/interaction"
	"github.com/tapo-protocol/tapo-go/pkg/session"
	"github.com/tapo-protocol/tapo-go/pkg/tapo"
	"github.com/tapo-protocol/tapo-go/pkg/transport"
	"github.com/tapo-protocol/tapo-go/pkg/transport/mocks"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

const (
	username = "user@example.com"
	password = "secret"
)

func newDevice(t *testing.T, cfg devicetest.Config) *devicetest.Device {
	cfg.Username, cfg.Password = username, password
	return devicetest.New(t, cfg)
}

func newClient(t *testing.T, cfg tapo.Config) *tapo.Client {
	t.Helper()
	if cfg.Username == "" {
		cfg.Username, cfg.Password = username, password
	}
	c, err := tapo.NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := tapo.NewClient(tapo.Config{Username: username})
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)
}

func TestTypedHandle(t *testing.T) {
	dev := newDevice(t, devicetest.Config{})
	dev.Result(wire.MethodSetDeviceInfo, nil)
	ctx := context.Background()

	plug, err := newClient(t, tapo.Config{}).Plug(ctx, dev.Address())
	require.NoError(t, err)
	defer plug.Close()

	require.NoError(t, plug.On(ctx))
	info, err := plug.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fake", info.DeviceID)

	calls := dev.CallsTo(wire.MethodSetDeviceInfo)
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"device_on":true}`, string(calls[0].Params))
	assert.Equal(t, 1, dev.Handshakes())
}

func TestConnectByCategory(t *testing.T) {
	dev := newDevice(t, devicetest.Config{Passthrough: true})
	ctx := context.Background()

	d, err := newClient(t, tapo.Config{}).Connect(ctx, dev.Address(), device.CategoryHub, wire.VariantPassthrough)
	require.NoError(t, err)
	defer d.Close()

	hub, ok := d.(*device.Hub)
	require.True(t, ok)
	assert.Equal(t, device.CategoryHub, hub.Category())
	conn, ok := hub.Conn().(*interaction.Client)
	require.True(t, ok)
	assert.Equal(t, wire.VariantPassthrough, conn.Sessions().Variant())
}

func TestConnectWrongPasswordIsNotRetried(t *testing.T) {
	dev := newDevice(t, devicetest.Config{KLAP: true})
	c := newClient(t, tapo.Config{Username: username, Password: "wrong", ConnectAttempts: 5})

	_, err := c.Generic(context.Background(), dev.Address())
	assert.ErrorIs(t, err, errs.ErrAuth)
	assert.LessOrEqual(t, dev.Handshakes(), 1)
}

func TestConnectRetriesUnreachableDevice(t *testing.T) {
	poster := mocks.NewMockPoster(t)
	poster.EXPECT().Post(mock.Anything, mock.Anything).
		Return(nil, errs.New(errs.KindNetwork, "post /app/handshake1", fmt.Errorf("connection refused"))).
		Times(3)

	c := newClient(t, tapo.Config{
		Poster:          poster,
		ConnectAttempts: 3,
		Backoff:         connection.BackoffConfig{Initial: time.Millisecond, Max: time.Millisecond},
	})
	_, err := c.PlugEnergyMonitoring(context.Background(), "10.0.0.9")
	assert.ErrorIs(t, err, errs.ErrNetwork)
}

func TestConnectDefaultsToSingleAttempt(t *testing.T) {
	poster := mocks.NewMockPoster(t)
	handshake1 := mock.MatchedBy(func(r *transport.Request) bool { return r.Path == session.PathHandshake1 })
	poster.EXPECT().Post(mock.Anything, handshake1).
		Return(nil, errs.New(errs.KindNetwork, "post /app/handshake1", fmt.Errorf("no route to host"))).
		Once()

	c := newClient(t, tapo.Config{Poster: poster})
	_, err := c.Plug(context.Background(), "10.0.0.9")
	assert.ErrorIs(t, err, errs.ErrNetwork)
}

// respond answers every probe on a loopback socket with reply.
func respond(t *testing.T, reply []byte) int {
	t.Helper()
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	go func() {
		buf := make([]byte, 2048)
		for {
			_, from, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			_, _ = pc.WriteTo(reply, from)
		}
	}()
	return pc.LocalAddr().(*net.UDPAddr).Port
}

func TestDiscoverConnectsThroughClient(t *testing.T) {
	dev := newDevice(t, devicetest.Config{KLAP: true})
	_, port, err := net.SplitHostPort(dev.Address())
	require.NoError(t, err)
	httpPort, err := strconv.Atoi(port)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]any{
		"error_code": 0,
		"result": map[string]any{
			"device_id":        "fake",
			"device_model":     "P110(EU)",
			"ip":               "127.0.0.1",
			"mgt_encrypt_schm": map[string]any{"encrypt_type": "KLAP", "http_port": httpPort},
		},
	})
	require.NoError(t, err)
	probePort := respond(t, discovery.Encode(body, 1))

	c := newClient(t, tapo.Config{Scanner: discovery.ScannerConfig{Port: probePort}})
	ctx := context.Background()
	stream, err := c.Discover(ctx, "127.0.0.1", 5*time.Second)
	require.NoError(t, err)
	defer stream.Close()

	var found []*discovery.Result
	for r, err := range stream.All() {
		require.NoError(t, err)
		found = append(found, r)
	}
	require.Len(t, found, 1)
	assert.Equal(t, device.CategoryPlugEnergyMonitoring, found[0].Category)
	assert.Zero(t, dev.Handshakes())

	d, err := found[0].Connect(ctx)
	require.NoError(t, err)
	defer d.Close()
	_, ok := d.(*device.PlugEnergyMonitoring)
	assert.True(t, ok)
	assert.Equal(t, 1, dev.Handshakes())
}
