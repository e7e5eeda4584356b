package device

import (
	"context"
	"encoding/json"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/telemetry"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// ChildHandle issues commands to one hub child through the hub.
type ChildHandle struct {
	conn  Conn
	route wire.Routing
	child Child
}

func newChildHandle(conn Conn, c Child) *ChildHandle {
	return &ChildHandle{conn: conn, route: wire.ToChild(c.Base().DeviceID), child: c}
}

// ID returns the child's device id.
func (h *ChildHandle) ID() string {
	return h.route.ChildID
}

// Route returns the routing used for the child's commands.
func (h *ChildHandle) Route() wire.Routing {
	return h.route
}

// Listed returns the child as it appeared in the listing that resolved it.
func (h *ChildHandle) Listed() Child {
	return h.child
}

// Info fetches the child's current state.
func (h *ChildHandle) Info(ctx context.Context) (Child, error) {
	raw, err := h.InfoJSON(ctx)
	if err != nil {
		return nil, err
	}
	c := DecodeChild(raw)
	if u, ok := c.(*UnsupportedChild); ok && u.Err != nil {
		return nil, errs.New(errs.KindUnknown, string(wire.MethodGetDeviceInfo), u.Err)
	}
	return c, nil
}

// InfoJSON fetches the child's state without decoding it.
func (h *ChildHandle) InfoJSON(ctx context.Context) (json.RawMessage, error) {
	return h.conn.Call(ctx, wire.MethodGetDeviceInfo, nil, h.route)
}

// TriggerLogs fetches one page of the child's event log.
func (h *ChildHandle) TriggerLogs(ctx context.Context, q telemetry.TriggerLogQuery) (*telemetry.TriggerLogPage, error) {
	return telemetry.TriggerLogs(ctx, h.conn, h.route, q)
}

// TriggerLogPager walks the child's event log from newest to oldest.
func (h *ChildHandle) TriggerLogPager(q telemetry.TriggerLogQuery) *telemetry.Pager {
	return telemetry.NewPager(h.conn, h.route, q)
}

// TemperatureHumidityRecords fetches the last 24 hours of a T310 or T315.
func (h *ChildHandle) TemperatureHumidityRecords(ctx context.Context) (*telemetry.TemperatureHumidityRecords, error) {
	if s, ok := h.child.(*SensorChild); !ok || s.Kind != SensorTemperatureHumidity {
		return nil, errs.Newf(errs.KindNotSupported, string(wire.MethodGetTempHumidity),
			"%s does not record temperature", h.child.Base().Model)
	}
	return telemetry.TemperatureHumidity(ctx, h.conn, h.route)
}

// Set starts a batch of property changes for the child, such as a valve's
// target temperature.
func (h *ChildHandle) Set() *InfoSet {
	return newInfoSet(h.conn, h.route)
}

// On turns a switchable child on.
func (h *ChildHandle) On(ctx context.Context) error {
	return h.Set().On().Commit(ctx)
}

// Off turns a switchable child off.
func (h *ChildHandle) Off(ctx context.Context) error {
	return h.Set().Off().Commit(ctx)
}
