package telemetry_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/telemetry"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

func at(h, m, s int) time.Time {
	return time.Date(2024, 4, 3, h, m, s, 0, time.UTC)
}

func TestPowerQueryRounding(t *testing.T) {
	tests := []struct {
		interval telemetry.PowerInterval
		in       time.Time
		want     time.Time
	}{
		{telemetry.PowerEvery5Minutes, at(14, 3, 45), at(14, 5, 0)},
		{telemetry.PowerEvery5Minutes, at(14, 57, 30), at(15, 0, 0)},
		{telemetry.PowerEvery5Minutes, at(14, 5, 0), at(14, 5, 0)},
		{telemetry.PowerEvery5Minutes, at(14, 5, 1), at(14, 10, 0)},
		{telemetry.PowerEvery5Minutes, at(23, 58, 59), time.Date(2024, 4, 4, 0, 0, 0, 0, time.UTC)},
		{telemetry.PowerHourly, at(14, 0, 30), at(15, 0, 0)},
		{telemetry.PowerHourly, at(14, 0, 0), at(14, 0, 0)},
		{telemetry.PowerHourly, at(14, 59, 59), at(15, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.interval, tt.in.Format(time.TimeOnly)), func(t *testing.T) {
			q, err := telemetry.NewPowerQuery(tt.interval, tt.in, tt.in.Add(3*time.Hour))
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(q.Start), "got %s", q.Start)
		})
	}
}

func TestPowerQueryRoundsOnUTCBoundaries(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+30*60)

	// 10:15 IST is 04:45 UTC.
	in := time.Date(2024, 4, 3, 10, 15, 0, 0, ist)

	q, err := telemetry.NewPowerQuery(telemetry.PowerHourly, in, in.Add(3*time.Hour))
	require.NoError(t, err)
	assert.True(t, at(5, 0, 0).Equal(q.Start), "got %s", q.Start.UTC())
	assert.Equal(t, ist, q.Start.Location())
	assert.Equal(t, 30, q.Start.Minute())
	assert.Zero(t, q.Params().StartTimestamp%3600)

	q, err = telemetry.NewPowerQuery(telemetry.PowerEvery5Minutes, in, in.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, in.Equal(q.Start), "got %s", q.Start.UTC())
}

func TestPowerQueryClamp(t *testing.T) {
	start := at(0, 0, 0)

	q, err := telemetry.NewPowerQuery(telemetry.PowerEvery5Minutes, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, q.Clamped())
	assert.True(t, start.Add(144*5*time.Minute).Equal(q.End))
	assert.True(t, start.Add(24*time.Hour).Equal(q.Requested))
	assert.Equal(t, 144, q.Entries())
	assert.Equal(t, q.End.Unix(), q.Params().EndTimestamp)

	q, err = telemetry.NewPowerQuery(telemetry.PowerHourly, start, start.Add(4*time.Hour))
	require.NoError(t, err)
	assert.False(t, q.Clamped())
	assert.Equal(t, 4, q.Entries())
}

func TestPowerQueryNeverExceedsCap(t *testing.T) {
	start := at(6, 0, 0)
	for _, interval := range []telemetry.PowerInterval{telemetry.PowerEvery5Minutes, telemetry.PowerHourly} {
		step := interval.Step()
		for _, n := range []int{1, 2, 143, 144, 145, 200, 1000} {
			q, err := telemetry.NewPowerQuery(interval, start, start.Add(time.Duration(n)*step))
			require.NoError(t, err)
			assert.LessOrEqual(t, q.Entries(), telemetry.MaxPowerEntries)
			if n > telemetry.MaxPowerEntries {
				assert.True(t, start.Add(telemetry.MaxPowerEntries*step).Equal(q.End), "%s n=%d", interval, n)
			} else {
				assert.Equal(t, n, q.Entries())
			}
		}
	}
}

func TestPowerQueryEmptyWindow(t *testing.T) {
	// Both round up to 14:05.
	_, err := telemetry.NewPowerQuery(telemetry.PowerEvery5Minutes, at(14, 1, 0), at(14, 4, 0))
	assert.ErrorIs(t, err, errs.ErrInvalidWindow)

	_, err = telemetry.NewPowerQuery(telemetry.PowerHourly, at(15, 0, 0), at(14, 0, 0))
	assert.ErrorIs(t, err, errs.ErrInvalidWindow)

	_, err = telemetry.NewPowerQuery(telemetry.PowerInterval(30), at(14, 0, 0), at(15, 0, 0))
	assert.ErrorIs(t, err, errs.ErrInvalidWindow)
}

func TestDecodePowerMarksMissing(t *testing.T) {
	q, err := telemetry.NewPowerQuery(telemetry.PowerHourly, at(10, 0, 0), at(14, 0, 0))
	require.NoError(t, err)

	raw := json.RawMessage(fmt.Sprintf(`{"data":[10,null,-1,20],"start_timestamp":%d,"end_timestamp":%d,"interval":60}`,
		q.Start.Unix(), q.End.Unix()))
	ts, err := telemetry.DecodePower(q, raw)
	require.NoError(t, err)

	require.Len(t, ts.Entries, 4)
	assert.Equal(t, uint64(10), ts.Entries[0].Value)
	assert.True(t, ts.Entries[1].Missing)
	assert.True(t, ts.Entries[2].Missing)
	assert.Equal(t, uint64(20), ts.Entries[3].Value)
	assert.True(t, at(13, 0, 0).Equal(ts.Entries[3].Start))
	assert.Equal(t, 2, ts.Missing())
	assert.Equal(t, uint64(30), ts.Total())
}

func TestDecodePowerRejectsNegative(t *testing.T) {
	q, err := telemetry.NewPowerQuery(telemetry.PowerHourly, at(10, 0, 0), at(12, 0, 0))
	require.NoError(t, err)

	_, err = telemetry.DecodePower(q, json.RawMessage(`{"data":[-5],"interval":60}`))
	assert.Equal(t, errs.KindUnknown, errs.KindOf(err))
}

func TestPowerDataReportsEffectiveWindow(t *testing.T) {
	start := at(0, 0, 0)
	q, err := telemetry.NewPowerQuery(telemetry.PowerEvery5Minutes, start, start.Add(48*time.Hour))
	require.NoError(t, err)

	// A device that ignores the window and returns too many samples.
	fc := &fakeCaller{fn: func(_ wire.Method, params json.RawMessage) (any, error) {
		var p telemetry.PowerParams
		require.NoError(t, json.Unmarshal(params, &p))
		data := make([]int, 300)
		return map[string]any{"data": data, "start_timestamp": p.StartTimestamp, "end_timestamp": p.EndTimestamp, "interval": 5}, nil
	}}

	ts, err := telemetry.PowerData(context.Background(), fc, wire.ToChild("plug-2"), q)
	require.NoError(t, err)

	assert.Len(t, ts.Entries, telemetry.MaxPowerEntries)
	assert.True(t, start.Add(12*time.Hour).Equal(ts.End))
	assert.True(t, ts.Entries[len(ts.Entries)-1].Start.Before(ts.End))

	require.Len(t, fc.calls, 1)
	assert.Equal(t, wire.MethodGetPowerData, fc.calls[0].method)
	assert.Equal(t, "plug-2", fc.calls[0].route.ChildID)
	assert.JSONEq(t, fmt.Sprintf(`{"start_timestamp":%d,"end_timestamp":%d,"interval":5}`,
		start.Unix(), start.Add(12*time.Hour).Unix()), string(fc.calls[0].params))
}
