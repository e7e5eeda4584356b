package telemetry_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/telemetry"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

func TestDecodeTemperatureHumidity(t *testing.T) {
	raw := json.RawMessage(`{
		"local_time": 1685371944,
		"past24h_humidity_exception": [0, 0, 0, 0, 0, 0],
		"past24h_humidity": [49, 50, 50, 55, 53, 52],
		"past24h_temp_exception": [0, 0, 0, 0, 0, 0],
		"past24h_temp": [196, 195, 194, 162, 164, 165],
		"temp_unit": "celsius"
	}`)

	recs, err := telemetry.DecodeTemperatureHumidity(raw)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 5, 29, 14, 52, 24, 0, time.UTC), recs.LocalTime)
	assert.Equal(t, telemetry.Celsius, recs.Unit)
	require.Len(t, recs.Records, 6)

	assert.Equal(t, telemetry.TemperatureHumidityRecord{
		At:          time.Date(2023, 5, 29, 13, 30, 0, 0, time.UTC),
		Temperature: 19.6,
		Humidity:    49,
	}, recs.Records[0])
	assert.Equal(t, time.Date(2023, 5, 29, 14, 45, 0, 0, time.UTC), recs.Records[5].At)
	assert.InDelta(t, 16.5, recs.Records[5].Temperature, 1e-9)
	assert.Equal(t, 52, recs.Records[5].Humidity)
}

func TestDecodeTemperatureHumiditySkipsGaps(t *testing.T) {
	raw := json.RawMessage(`{
		"local_time": 1685371944,
		"past24h_humidity_exception": [0, 0, 0],
		"past24h_humidity": [49, -1000, 50],
		"past24h_temp_exception": [0, -1000, 0],
		"past24h_temp": [196, -1000, 194],
		"temp_unit": "fahrenheit"
	}`)

	recs, err := telemetry.DecodeTemperatureHumidity(raw)
	require.NoError(t, err)
	require.Len(t, recs.Records, 2)

	// The gap keeps its slot, so the oldest bucket is still 30 minutes back.
	assert.Equal(t, time.Date(2023, 5, 29, 14, 15, 0, 0, time.UTC), recs.Records[0].At)
	assert.Equal(t, time.Date(2023, 5, 29, 14, 45, 0, 0, time.UTC), recs.Records[1].At)
	assert.Equal(t, telemetry.Fahrenheit, recs.Unit)
}

func TestDecodeTemperatureHumidityLengthMismatch(t *testing.T) {
	raw := json.RawMessage(`{"local_time":1,"past24h_humidity_exception":[0],"past24h_humidity":[1,2],
		"past24h_temp_exception":[0],"past24h_temp":[1],"temp_unit":"celsius"}`)
	_, err := telemetry.DecodeTemperatureHumidity(raw)
	assert.Equal(t, errs.KindUnknown, errs.KindOf(err))
}

func TestUsageQueries(t *testing.T) {
	fc := &fakeCaller{fn: func(method wire.Method, _ json.RawMessage) (any, error) {
		switch method {
		case wire.MethodGetDeviceUsage:
			return map[string]any{
				"time_usage":  map[string]any{"today": 10, "past7": 70, "past30": 300},
				"power_usage": map[string]any{"today": 5, "past7": 35, "past30": 150},
			}, nil
		case wire.MethodGetEnergyUsage:
			return map[string]any{"local_time": "2024-04-03 10:15:00", "current_power": 12000, "today_energy": 400, "month_energy": 9000}, nil
		default:
			return map[string]any{"current_power": 42}, nil
		}
	}}
	ctx := context.Background()

	u, err := telemetry.DeviceUsage(ctx, fc, wire.Routing{})
	require.NoError(t, err)
	assert.Equal(t, uint64(70), u.TimeUsage.Past7)
	require.NotNil(t, u.PowerUsage)
	assert.Equal(t, uint64(150), u.PowerUsage.Past30)
	assert.Nil(t, u.SavedPower)

	e, err := telemetry.EnergyUsageOf(ctx, fc, wire.Routing{})
	require.NoError(t, err)
	assert.Equal(t, uint64(400), e.TodayEnergy)
	assert.Equal(t, 15, e.LocalTime.Minute())

	p, err := telemetry.CurrentPowerOf(ctx, fc, wire.Routing{})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), p.CurrentPower)
}
