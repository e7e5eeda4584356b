package device_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapo-protocol/tapo-go/internal/devicetest"
	"github.com/tapo-protocol/tapo-go/pkg/device"
	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/interaction"
	"github.com/tapo-protocol/tapo-go/pkg/session"
	"github.com/tapo-protocol/tapo-go/pkg/transport"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

var creds = session.Credentials{Username: "user@example.com", Password: "secret"}

func connect(t *testing.T) (*devicetest.Device, *interaction.Client) {
	t.Helper()
	dev := devicetest.New(t, devicetest.Config{Username: creds.Username, Password: creds.Password})
	mgr := session.NewManager(session.ManagerConfig{
		Address:     dev.Address(),
		Credentials: creds,
		Poster:      transport.NewClient(transport.ClientConfig{}),
	})
	c := interaction.NewClient(interaction.ClientConfig{Sessions: mgr})
	t.Cleanup(func() { _ = c.Close() })
	return dev, c
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// lastParams decodes the params of the last call to method.
func lastParams(t *testing.T, dev *devicetest.Device, method wire.Method) map[string]any {
	t.Helper()
	calls := dev.CallsTo(method)
	require.NotEmpty(t, calls, "no call to %s", method)
	var out map[string]any
	require.NoError(t, json.Unmarshal(calls[len(calls)-1].Params, &out))
	return out
}

func TestCategoryForModel(t *testing.T) {
	tests := map[string]device.Category{
		"L510":        device.CategoryLight,
		"L530 Series": device.CategoryColorLight,
		"L535B":       device.CategoryColorLight,
		"L900":        device.CategoryRgbLightStrip,
		"L930(EU)":    device.CategoryRgbicLightStrip,
		"P100":        device.CategoryPlug,
		"P110(EU)":    device.CategoryPlugEnergyMonitoring,
		"P110M":       device.CategoryPlugEnergyMonitoring,
		"P300":        device.CategoryPowerStrip,
		"P304M(UK)":   device.CategoryPowerStripEnergyMonitoring,
		"H100":        device.CategoryHub,
		"C200":        device.CategoryGeneric,
		"":            device.CategoryGeneric,
	}
	for model, want := range tests {
		assert.Equal(t, want, device.CategoryForModel(model), model)
	}
}

func TestParseCategoryRoundTrips(t *testing.T) {
	for c := device.CategoryGeneric; c <= device.CategoryHub; c++ {
		got, err := device.ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := device.ParseCategory("toaster")
	assert.Error(t, err)
}

func TestNewReturnsTypedHandle(t *testing.T) {
	_, c := connect(t)

	assert.IsType(t, &device.Generic{}, device.New(c, device.CategoryGeneric))
	assert.IsType(t, &device.RgbicLightStrip{}, device.New(c, device.CategoryRgbicLightStrip))
	assert.IsType(t, &device.PlugEnergyMonitoring{}, device.New(c, device.CategoryPlugEnergyMonitoring))
	assert.IsType(t, &device.PowerStripEnergyMonitoring{}, device.New(c, device.CategoryPowerStripEnergyMonitoring))

	hub := device.New(c, device.CategoryHub)
	assert.IsType(t, &device.Hub{}, hub)
	assert.Equal(t, device.CategoryHub, hub.Category())
}

func TestInfoDecodesBase64Fields(t *testing.T) {
	dev, c := connect(t)
	dev.Result(wire.MethodGetDeviceInfo, map[string]any{
		"device_id":  "8022",
		"model":      "L530",
		"nickname":   b64("Living Room"),
		"ssid":       b64("home-net"),
		"device_on":  true,
		"brightness": 70,
		"hue":        120,
	})

	info, err := device.NewColorLight(c).Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Living Room", info.Nickname.String())
	assert.Equal(t, "home-net", string(info.SSID))
	assert.True(t, info.IsOn())
	require.NotNil(t, info.Brightness)
	assert.Equal(t, uint8(70), *info.Brightness)
	assert.Equal(t, device.CategoryColorLight, info.Category())
	assert.Nil(t, info.ColorTemp)
}

func TestGenericCommands(t *testing.T) {
	dev, c := connect(t)
	dev.Result(wire.MethodSetDeviceInfo, nil)
	dev.Result(wire.MethodDeviceReboot, nil)
	dev.Result(wire.MethodDeviceReset, nil)
	dev.Result(wire.MethodGetDeviceUsage, map[string]any{"time_usage": map[string]any{"today": 3}})
	ctx := context.Background()

	g := device.NewGeneric(c)
	require.NoError(t, g.On(ctx))
	assert.Equal(t, map[string]any{"device_on": true}, lastParams(t, dev, wire.MethodSetDeviceInfo))
	require.NoError(t, g.Off(ctx))
	assert.Equal(t, map[string]any{"device_on": false}, lastParams(t, dev, wire.MethodSetDeviceInfo))

	require.NoError(t, g.Reboot(ctx, 5))
	assert.Equal(t, map[string]any{"delay": float64(5)}, lastParams(t, dev, wire.MethodDeviceReboot))
	require.NoError(t, g.Reset(ctx))

	u, err := g.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.TimeUsage.Today)

	raw, err := g.InfoJSON(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"device_id"`)

	dev.Result(wire.MethodComponentNego, map[string]any{"component_list": []any{map[string]any{"id": "device", "ver_code": 2}}})
	raw, err = g.ComponentsJSON(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"component_list":[{"id":"device","ver_code":2}]}`, string(raw))
}

func TestRefreshSession(t *testing.T) {
	dev, c := connect(t)
	ctx := context.Background()
	plug := device.NewPlug(c)

	_, err := plug.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, dev.Handshakes())

	require.NoError(t, plug.RefreshSession(ctx))
	assert.Equal(t, 2, dev.Handshakes())

	_, err = plug.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dev.Handshakes())
}

// staticConn answers every call with an empty object.
type staticConn struct{}

func (staticConn) Call(context.Context, wire.Method, any, wire.Routing) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (staticConn) Close() error { return nil }

func TestRefreshSessionNeedsRenewableConn(t *testing.T) {
	err := device.NewGeneric(staticConn{}).RefreshSession(context.Background())
	assert.ErrorIs(t, err, errs.ErrNotSupported)
}

func TestUnsupportedMethodIsTyped(t *testing.T) {
	_, c := connect(t)
	_, err := device.NewPlugEnergyMonitoring(c).CurrentPower(context.Background())
	assert.ErrorIs(t, err, errs.ErrNotSupported)
}
