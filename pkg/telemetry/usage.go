package telemetry

import (
	"context"

	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// UsageByPeriod holds a counter for today and the past 7 and 30 days.
type UsageByPeriod struct {
	Today  uint64 `json:"today"`
	Past7  uint64 `json:"past7"`
	Past30 uint64 `json:"past30"`
}

// Usage is the get_device_usage result. Time is in minutes, power in Wh.
// PowerUsage and SavedPower are only reported by energy monitoring devices.
type Usage struct {
	TimeUsage  UsageByPeriod  `json:"time_usage"`
	PowerUsage *UsageByPeriod `json:"power_usage,omitempty"`
	SavedPower *UsageByPeriod `json:"saved_power,omitempty"`
}

// EnergyUsage is the get_energy_usage result.
type EnergyUsage struct {
	LocalTime    DeviceTime `json:"local_time"`
	CurrentPower uint64     `json:"current_power"`
	TodayRuntime uint64     `json:"today_runtime"`
	TodayEnergy  uint64     `json:"today_energy"`
	MonthRuntime uint64     `json:"month_runtime"`
	MonthEnergy  uint64     `json:"month_energy"`
}

// CurrentPower is the get_current_power result, in watts.
type CurrentPower struct {
	CurrentPower uint64 `json:"current_power"`
}

// DeviceUsage fetches the usage counters.
func DeviceUsage(ctx context.Context, c Caller, route wire.Routing) (*Usage, error) {
	var u Usage
	if err := call(ctx, c, wire.MethodGetDeviceUsage, route, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// EnergyUsageOf fetches the energy usage summary.
func EnergyUsageOf(ctx context.Context, c Caller, route wire.Routing) (*EnergyUsage, error) {
	var u EnergyUsage
	if err := call(ctx, c, wire.MethodGetEnergyUsage, route, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CurrentPowerOf fetches the instantaneous power draw.
func CurrentPowerOf(ctx context.Context, c Caller, route wire.Routing) (*CurrentPower, error) {
	var p CurrentPower
	if err := call(ctx, c, wire.MethodGetCurrentPower, route, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func call(ctx context.Context, c Caller, method wire.Method, route wire.Routing, out any) error {
	raw, err := c.Call(ctx, method, nil, route)
	if err != nil {
		return err
	}
	return decodeResult(string(method), raw, out)
}
