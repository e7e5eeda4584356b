package device_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapo-protocol/tapo-go/internal/devicetest"
	"github.com/tapo-protocol/tapo-go/pkg/device"
	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/telemetry"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// serveChildren answers get_child_device_list with entries, pageSize at a
// time.
func serveChildren(dev *devicetest.Device, pageSize int, entries ...any) {
	dev.Handle(wire.MethodGetChildDeviceList, func(_ string, params json.RawMessage) (any, wire.Status) {
		var p struct {
			StartIndex int `json:"start_index"`
		}
		_ = json.Unmarshal(params, &p)
		end := min(p.StartIndex+pageSize, len(entries))
		page := []any{}
		if p.StartIndex < len(entries) {
			page = entries[p.StartIndex:end]
		}
		return map[string]any{"child_device_list": page, "start_index": p.StartIndex, "sum": len(entries)}, wire.StatusSuccess
	})
}

func child(id, model, nickname string, extra map[string]any) map[string]any {
	m := map[string]any{"device_id": id, "model": model, "nickname": b64(nickname), "status": "online"}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func TestListChildrenDegradesPerEntry(t *testing.T) {
	dev, c := connect(t)
	serveChildren(dev, 2,
		child("c1", "T310", "Bedroom", map[string]any{"current_temp": 21.5, "current_humidity": 48, "temp_unit": "celsius"}),
		child("c2", "T110", "Front Door", map[string]any{"open": true}),
		child("c3", "X999", "Mystery", nil),
		map[string]any{"device_id": "c4", "model": "T100", "detected": "not-a-bool"},
		child("c5", "KE100", "Radiator", map[string]any{"target_temp": 21, "temp_offset": -2}),
		child("c6", "S200B", "Button", nil),
	)

	hub := device.NewHub(c)
	children, err := hub.ListChildren(context.Background())
	require.NoError(t, err)
	require.Len(t, children, 6)

	// Three pages of two.
	assert.Len(t, dev.CallsTo(wire.MethodGetChildDeviceList), 3)

	th, ok := children[0].(*device.SensorChild)
	require.True(t, ok)
	assert.Equal(t, device.SensorTemperatureHumidity, th.Kind)
	assert.InDelta(t, 21.5, th.CurrentTemperature, 1e-9)
	assert.Equal(t, telemetry.Celsius, th.TemperatureUnit)
	assert.Equal(t, "Bedroom", th.Nickname.String())

	contact := children[1].(*device.SensorChild)
	assert.Equal(t, device.SensorContact, contact.Kind)
	assert.True(t, contact.Open)

	unknown, ok := children[2].(*device.UnsupportedChild)
	require.True(t, ok)
	assert.NoError(t, unknown.Err)
	assert.Equal(t, "X999", unknown.Model)

	broken, ok := children[3].(*device.UnsupportedChild)
	require.True(t, ok)
	assert.Error(t, broken.Err)
	assert.Equal(t, "c4", broken.DeviceID)

	trv := children[4].(*device.ClimateChild)
	assert.InDelta(t, 21.0, trv.TargetTemperature, 1e-9)
	assert.Equal(t, int8(-2), trv.TemperatureOffset)

	assert.IsType(t, &device.SwitchChild{}, children[5])

	known := hub.KnownChildren()
	require.Len(t, known, 6)
	assert.Equal(t, device.KnownChild{DeviceID: "c5", Nickname: "Radiator", Model: "KE100"}, known[4])
}

type countingVisitor struct {
	sensors, switches, climate, unsupported int
}

func (v *countingVisitor) VisitSensor(*device.SensorChild)           { v.sensors++ }
func (v *countingVisitor) VisitSwitch(*device.SwitchChild)           { v.switches++ }
func (v *countingVisitor) VisitClimate(*device.ClimateChild)         { v.climate++ }
func (v *countingVisitor) VisitUnsupported(*device.UnsupportedChild) { v.unsupported++ }

func TestChildVisitor(t *testing.T) {
	children := []device.Child{
		device.DecodeChild(json.RawMessage(`{"device_id":"a","model":"T100(EU)"}`)),
		device.DecodeChild(json.RawMessage(`{"device_id":"b","model":"S200D"}`)),
		device.DecodeChild(json.RawMessage(`{"device_id":"c","model":"KE100"}`)),
		device.DecodeChild(json.RawMessage(`not json`)),
	}
	v := &countingVisitor{}
	for _, c := range children {
		c.Accept(v)
	}
	assert.Equal(t, countingVisitor{sensors: 1, switches: 1, climate: 1, unsupported: 1}, *v)
}

func TestChildByNickname(t *testing.T) {
	dev, c := connect(t)
	hub := device.NewHub(c)
	ctx := context.Background()

	t.Run("one match", func(t *testing.T) {
		serveChildren(dev, 10,
			child("c1", "T110", "Hallway", nil),
			child("c2", "T310", "Kitchen Sensor", nil),
		)
		h, err := hub.Child(ctx, device.ByNickname("Kitchen Sensor"))
		require.NoError(t, err)
		assert.Equal(t, "c2", h.ID())
	})

	t.Run("no match", func(t *testing.T) {
		serveChildren(dev, 10, child("c1", "T110", "Hallway", nil))
		_, err := hub.Child(ctx, device.ByNickname("Kitchen Sensor"))
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("duplicate nickname picks last listed", func(t *testing.T) {
		serveChildren(dev, 1,
			child("old", "T310", "Kitchen Sensor", nil),
			child("c1", "T110", "Hallway", nil),
			child("new", "T315", "Kitchen Sensor", nil),
		)
		for range 3 {
			h, err := hub.Child(ctx, device.ByNickname("Kitchen Sensor"))
			require.NoError(t, err)
			assert.Equal(t, "new", h.ID())
		}
	})

	t.Run("by id", func(t *testing.T) {
		serveChildren(dev, 10, child("c1", "T110", "Hallway", nil))
		h, err := hub.Child(ctx, device.ByID("c1"))
		require.NoError(t, err)
		assert.IsType(t, &device.SensorChild{}, h.Listed())
	})
}

func TestChildResolutionRelists(t *testing.T) {
	dev, c := connect(t)
	hub := device.NewHub(c)
	ctx := context.Background()

	serveChildren(dev, 10, child("c1", "T110", "Door", nil))
	_, err := hub.Child(ctx, device.ByNickname("Door"))
	require.NoError(t, err)

	// The child was re-paired under a new id; the stale registry must not
	// be used.
	serveChildren(dev, 10, child("c9", "T110", "Door", nil))
	h, err := hub.Child(ctx, device.ByNickname("Door"))
	require.NoError(t, err)
	assert.Equal(t, "c9", h.ID())
	assert.Len(t, dev.CallsTo(wire.MethodGetChildDeviceList), 2)
}

func TestChildCommandsRouteThroughHub(t *testing.T) {
	dev, c := connect(t)
	serveChildren(dev, 10,
		child("trv", "KE100", "Radiator", nil),
		child("th", "T315", "Study", nil),
	)
	dev.Result(wire.MethodSetDeviceInfo, nil)
	dev.Handle(wire.MethodGetTriggerLogs, func(childID string, _ json.RawMessage) (any, wire.Status) {
		return map[string]any{"start_id": 0, "sum": 1, "logs": []any{
			map[string]any{"id": 1, "timestamp": 1700000000, "event": "open"},
		}}, wire.StatusSuccess
	})
	dev.Result(wire.MethodGetTempHumidity, map[string]any{
		"local_time": 1685371944, "temp_unit": "celsius",
		"past24h_temp": []int{200}, "past24h_temp_exception": []int{0},
		"past24h_humidity": []int{40}, "past24h_humidity_exception": []int{0},
	})

	hub := device.NewHub(c)
	ctx := context.Background()

	trv, err := hub.Child(ctx, device.ByNickname("Radiator"))
	require.NoError(t, err)
	require.NoError(t, trv.Set().TargetTemperature(22.5).FrostProtection(false).Commit(ctx))

	calls := dev.CallsTo(wire.MethodSetDeviceInfo)
	require.Len(t, calls, 1)
	assert.Equal(t, "trv", calls[0].ChildID)
	assert.JSONEq(t, `{"target_temp":22.5,"frost_protection_on":false}`, string(calls[0].Params))

	_, err = trv.TemperatureHumidityRecords(ctx)
	assert.ErrorIs(t, err, errs.ErrNotSupported)

	th, err := hub.Child(ctx, device.ByID("th"))
	require.NoError(t, err)
	recs, err := th.TemperatureHumidityRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs.Records, 1)
	assert.InDelta(t, 20.0, recs.Records[0].Temperature, 1e-9)

	page, err := th.TriggerLogs(ctx, telemetry.TriggerLogQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 1)
	logCalls := dev.CallsTo(wire.MethodGetTriggerLogs)
	require.Len(t, logCalls, 1)
	assert.Equal(t, "th", logCalls[0].ChildID)
}

func TestAlarm(t *testing.T) {
	dev, c := connect(t)
	dev.Result(wire.MethodPlayAlarm, nil)
	dev.Result(wire.MethodStopAlarm, nil)
	dev.Result(wire.MethodGetSupportAlarmList, map[string]any{"alarm_type_list": []string{"Doorbell Ring 1", "Alarm 1"}})
	hub := device.NewHub(c)
	ctx := context.Background()

	tests := []struct {
		alarm device.Alarm
		want  string
	}{
		{device.Alarm{}, `{}`},
		{device.Alarm{Type: "Alarm 1", Volume: device.AlarmVolumeHigh}, `{"alarm_type":"Alarm 1","alarm_volume":"high"}`},
		{device.Alarm{Duration: device.AlarmOnce}, `{"alarm_duration":0}`},
		{device.Alarm{Duration: device.AlarmFor(30 * time.Second)}, `{"alarm_duration":30}`},
	}
	for _, tt := range tests {
		require.NoError(t, hub.PlayAlarm(ctx, tt.alarm))
		calls := dev.CallsTo(wire.MethodPlayAlarm)
		assert.JSONEq(t, tt.want, string(calls[len(calls)-1].Params))
	}

	err := hub.PlayAlarm(ctx, device.Alarm{Duration: device.AlarmFor(500 * time.Millisecond)})
	assert.ErrorIs(t, err, errs.ErrInvalidParameters)

	require.NoError(t, hub.StopAlarm(ctx))
	types, err := hub.SupportedAlarmTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Doorbell Ring 1", "Alarm 1"}, types)
}

func TestHubChildComponentList(t *testing.T) {
	dev, c := connect(t)
	dev.Result(wire.MethodGetChildComponents, map[string]any{
		"start_index": 0,
		"sum":         1,
		"child_component_list": []any{
			map[string]any{"device_id": "c1", "component_list": []any{map[string]any{"id": "battery_detect", "ver_code": 1}}},
		},
	})

	raw, err := device.NewHub(c).ChildComponentListJSON(context.Background())
	require.NoError(t, err)

	var res struct {
		ChildComponentList []struct {
			DeviceID string `json:"device_id"`
		} `json:"child_component_list"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	require.Len(t, res.ChildComponentList, 1)
	assert.Equal(t, "c1", res.ChildComponentList[0].DeviceID)

	calls := dev.CallsTo(wire.MethodGetChildComponents)
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].ChildID)
}
