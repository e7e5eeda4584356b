package device

import (
	"context"
	"encoding/json"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// StripPlugInfo is one socket of a power strip.
type StripPlugInfo struct {
	DeviceID          string       `json:"device_id"`
	OriginalDeviceID  string       `json:"original_device_id"`
	Model             string       `json:"model"`
	Category          string       `json:"category"`
	Nickname          Base64String `json:"nickname"`
	Position          int          `json:"position"`
	SlotNumber        int          `json:"slot_number"`
	DeviceOn          bool         `json:"device_on"`
	OnTime            uint64       `json:"on_time"`
	AutoOffStatus     string       `json:"auto_off_status"`
	AutoOffRemainTime uint64       `json:"auto_off_remain_time"`
	OverheatStatus    string       `json:"overheat_status,omitempty"`
}

func stripPlugKey(p StripPlugInfo) childKey {
	return childKey{id: p.DeviceID, nickname: string(p.Nickname), position: p.Position}
}

// PowerStrip is a strip with individually switched sockets (P300, P306).
type PowerStrip struct {
	*Generic
}

// NewPowerStrip returns a PowerStrip handle.
func NewPowerStrip(conn Conn) *PowerStrip {
	return &PowerStrip{Generic: newGeneric(conn, CategoryPowerStrip)}
}

// ListPlugs fetches every socket.
func (s *PowerStrip) ListPlugs(ctx context.Context) ([]StripPlugInfo, error) {
	entries, err := listChildEntries(ctx, s.conn)
	if err != nil {
		return nil, err
	}
	plugs := make([]StripPlugInfo, 0, len(entries))
	for _, raw := range entries {
		var p StripPlugInfo
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, errs.New(errs.KindUnknown, string(wire.MethodGetChildDeviceList), err)
		}
		plugs = append(plugs, p)
	}
	return plugs, nil
}

// Plug lists the sockets and returns a handle for the one ref selects.
func (s *PowerStrip) Plug(ctx context.Context, ref ChildRef) (*StripPlug, error) {
	plugs, err := s.ListPlugs(ctx)
	if err != nil {
		return nil, err
	}
	p, err := resolve(plugs, ref, stripPlugKey)
	if err != nil {
		return nil, err
	}
	return &StripPlug{conn: s.conn, route: wire.ToChild(p.DeviceID), listed: p}, nil
}

// ChildComponentListJSON fetches the components of every socket without
// decoding them.
func (s *PowerStrip) ChildComponentListJSON(ctx context.Context) (json.RawMessage, error) {
	return childComponentList(ctx, s.conn)
}

// StripPlug is one socket, reached through the strip.
type StripPlug struct {
	conn   Conn
	route  wire.Routing
	listed StripPlugInfo
}

// ID returns the socket's device id.
func (p *StripPlug) ID() string {
	return p.route.ChildID
}

// Listed returns the socket as it appeared in the listing that resolved it.
func (p *StripPlug) Listed() StripPlugInfo {
	return p.listed
}

// On switches the socket on.
func (p *StripPlug) On(ctx context.Context) error {
	return newInfoSet(p.conn, p.route).On().Commit(ctx)
}

// Off switches the socket off.
func (p *StripPlug) Off(ctx context.Context) error {
	return newInfoSet(p.conn, p.route).Off().Commit(ctx)
}

// Info fetches the socket's current state.
func (p *StripPlug) Info(ctx context.Context) (*StripPlugInfo, error) {
	var info StripPlugInfo
	if err := callInto(ctx, p.conn, wire.MethodGetDeviceInfo, nil, p.route, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// InfoJSON fetches the socket's state without decoding it.
func (p *StripPlug) InfoJSON(ctx context.Context) (json.RawMessage, error) {
	return p.conn.Call(ctx, wire.MethodGetDeviceInfo, nil, p.route)
}

// PowerStripEnergyMonitoring is a strip with metered sockets (P304M, P316M).
type PowerStripEnergyMonitoring struct {
	*PowerStrip
}

// NewPowerStripEnergyMonitoring returns a PowerStripEnergyMonitoring handle.
func NewPowerStripEnergyMonitoring(conn Conn) *PowerStripEnergyMonitoring {
	return &PowerStripEnergyMonitoring{
		PowerStrip: &PowerStrip{Generic: newGeneric(conn, CategoryPowerStripEnergyMonitoring)},
	}
}

// Plug lists the sockets and returns a metered handle for the one ref
// selects.
func (s *PowerStripEnergyMonitoring) Plug(ctx context.Context, ref ChildRef) (*EnergyStripPlug, error) {
	p, err := s.PowerStrip.Plug(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &EnergyStripPlug{StripPlug: p, energyMeter: energyMeter{conn: p.conn, route: p.route}}, nil
}

// EnergyStripPlug is a metered socket.
type EnergyStripPlug struct {
	*StripPlug
	energyMeter
}
