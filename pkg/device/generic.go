package device

import (
	"context"
	"encoding/json"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/telemetry"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// Conn carries commands to one device. *interaction.Client implements it.
type Conn interface {
	Call(ctx context.Context, method wire.Method, params any, route wire.Routing) (json.RawMessage, error)
	Close() error
}

// refresher is implemented by connections that can renew their session on
// demand.
type refresher interface {
	Refresh(ctx context.Context) error
}

// Device is implemented by every handle.
type Device interface {
	Category() Category
	Info(ctx context.Context) (*Info, error)
	Close() error
}

// New returns the handle type for category.
func New(conn Conn, category Category) Device {
	switch category {
	case CategoryLight:
		return NewLight(conn)
	case CategoryColorLight:
		return NewColorLight(conn)
	case CategoryRgbLightStrip:
		return NewRgbLightStrip(conn)
	case CategoryRgbicLightStrip:
		return NewRgbicLightStrip(conn)
	case CategoryPlug:
		return NewPlug(conn)
	case CategoryPlugEnergyMonitoring:
		return NewPlugEnergyMonitoring(conn)
	case CategoryPowerStrip:
		return NewPowerStrip(conn)
	case CategoryPowerStripEnergyMonitoring:
		return NewPowerStripEnergyMonitoring(conn)
	case CategoryHub:
		return NewHub(conn)
	default:
		return NewGeneric(conn)
	}
}

// Generic is a handle for the commands every device supports.
type Generic struct {
	conn     Conn
	category Category
}

// NewGeneric returns a handle that makes no assumption about the model.
func NewGeneric(conn Conn) *Generic {
	return &Generic{conn: conn, category: CategoryGeneric}
}

func newGeneric(conn Conn, category Category) *Generic {
	return &Generic{conn: conn, category: category}
}

// Category returns the category the handle was built for.
func (g *Generic) Category() Category {
	return g.category
}

// Conn returns the underlying connection.
func (g *Generic) Conn() Conn {
	return g.conn
}

// Close releases the session.
func (g *Generic) Close() error {
	return g.conn.Close()
}

// RefreshSession performs a new handshake and replaces the live session.
func (g *Generic) RefreshSession(ctx context.Context) error {
	r, ok := g.conn.(refresher)
	if !ok {
		return errs.Newf(errs.KindNotSupported, "refresh session", "%T cannot renew its session", g.conn)
	}
	return r.Refresh(ctx)
}

// On turns the device on.
func (g *Generic) On(ctx context.Context) error {
	return g.Set().On().Commit(ctx)
}

// Off turns the device off.
func (g *Generic) Off(ctx context.Context) error {
	return g.Set().Off().Commit(ctx)
}

// Set starts a batch of property changes.
func (g *Generic) Set() *InfoSet {
	return newInfoSet(g.conn, wire.Routing{})
}

// Info fetches the device info.
func (g *Generic) Info(ctx context.Context) (*Info, error) {
	var info Info
	if err := g.callInto(ctx, wire.MethodGetDeviceInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// InfoJSON fetches the device info without decoding it.
func (g *Generic) InfoJSON(ctx context.Context) (json.RawMessage, error) {
	return g.conn.Call(ctx, wire.MethodGetDeviceInfo, nil, wire.Routing{})
}

// ComponentsJSON fetches the component list the device negotiates with
// its app, without decoding it.
func (g *Generic) ComponentsJSON(ctx context.Context) (json.RawMessage, error) {
	return g.conn.Call(ctx, wire.MethodComponentNego, nil, wire.Routing{})
}

// Usage fetches the runtime counters.
func (g *Generic) Usage(ctx context.Context) (*telemetry.Usage, error) {
	return telemetry.DeviceUsage(ctx, g.conn, wire.Routing{})
}

// Reset restores factory settings. The device drops off the network.
func (g *Generic) Reset(ctx context.Context) error {
	_, err := g.conn.Call(ctx, wire.MethodDeviceReset, nil, wire.Routing{})
	return err
}

type rebootParams struct {
	Delay uint16 `json:"delay"`
}

// Reboot restarts the device after delaySeconds.
func (g *Generic) Reboot(ctx context.Context, delaySeconds uint16) error {
	_, err := g.conn.Call(ctx, wire.MethodDeviceReboot, rebootParams{Delay: delaySeconds}, wire.Routing{})
	return err
}

func (g *Generic) callInto(ctx context.Context, method wire.Method, params any, out any) error {
	return callInto(ctx, g.conn, method, params, wire.Routing{}, out)
}

func callInto(ctx context.Context, conn Conn, method wire.Method, params any, route wire.Routing, out any) error {
	raw, err := conn.Call(ctx, method, params, route)
	if err != nil {
		return err
	}
	resp := wire.Response{Result: raw}
	if err := resp.DecodeResult(out); err != nil {
		return errs.New(errs.KindUnknown, string(method), err)
	}
	return nil
}
