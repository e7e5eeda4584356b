package device

import (
	"context"

	"github.com/tapo-protocol/tapo-go/pkg/telemetry"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// Plug is a smart plug without metering (P100, P105).
type Plug struct {
	*Generic
}

// NewPlug returns a Plug handle.
func NewPlug(conn Conn) *Plug {
	return &Plug{Generic: newGeneric(conn, CategoryPlug)}
}

// energyMeter issues the telemetry queries of a metering plug or socket.
type energyMeter struct {
	conn  Conn
	route wire.Routing
}

// EnergyUsage fetches today's and this month's totals.
func (m energyMeter) EnergyUsage(ctx context.Context) (*telemetry.EnergyUsage, error) {
	return telemetry.EnergyUsageOf(ctx, m.conn, m.route)
}

// CurrentPower fetches the instantaneous draw in watts.
func (m energyMeter) CurrentPower(ctx context.Context) (*telemetry.CurrentPower, error) {
	return telemetry.CurrentPowerOf(ctx, m.conn, m.route)
}

// EnergyData fetches energy per interval for the query window.
func (m energyMeter) EnergyData(ctx context.Context, q *telemetry.EnergyQuery) (*telemetry.TimeSeries, error) {
	return telemetry.EnergyData(ctx, m.conn, m.route, q)
}

// PowerData fetches power samples. The series covers q's effective window,
// which may end before the requested end.
func (m energyMeter) PowerData(ctx context.Context, q *telemetry.PowerQuery) (*telemetry.TimeSeries, error) {
	return telemetry.PowerData(ctx, m.conn, m.route, q)
}

// PlugEnergyMonitoring is a metering plug (P110, P110M, P115).
type PlugEnergyMonitoring struct {
	*Plug
	energyMeter
}

// NewPlugEnergyMonitoring returns a PlugEnergyMonitoring handle.
func NewPlugEnergyMonitoring(conn Conn) *PlugEnergyMonitoring {
	return &PlugEnergyMonitoring{
		Plug:        &Plug{Generic: newGeneric(conn, CategoryPlugEnergyMonitoring)},
		energyMeter: energyMeter{conn: conn},
	}
}
