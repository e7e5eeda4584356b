package device

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// Hub is an H100 hub. Its children are reached through the hub's session.
type Hub struct {
	*Generic

	mu    sync.Mutex
	known []KnownChild
}

// KnownChild is a child seen in the last listing.
type KnownChild struct {
	DeviceID string
	Nickname string
	Model    string
}

// NewHub returns a Hub handle.
func NewHub(conn Conn) *Hub {
	return &Hub{Generic: newGeneric(conn, CategoryHub)}
}

// ListChildren fetches every paired child. An entry that is not understood
// becomes an *UnsupportedChild; it does not fail the listing.
func (h *Hub) ListChildren(ctx context.Context) ([]Child, error) {
	entries, err := listChildEntries(ctx, h.conn)
	if err != nil {
		return nil, err
	}
	children := make([]Child, len(entries))
	known := make([]KnownChild, len(entries))
	for i, raw := range entries {
		children[i] = DecodeChild(raw)
		b := children[i].Base()
		known[i] = KnownChild{DeviceID: b.DeviceID, Nickname: string(b.Nickname), Model: b.Model}
	}

	h.mu.Lock()
	h.known = known
	h.mu.Unlock()
	return children, nil
}

// KnownChildren returns the children of the last ListChildren or Child
// call. The list may be stale; Child never relies on it.
func (h *Hub) KnownChildren() []KnownChild {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.known)
}

// Child lists the children and returns a handle for the one ref selects.
// When several children share a nickname the last listed wins. No match is
// a NotFound error.
func (h *Hub) Child(ctx context.Context, ref ChildRef) (*ChildHandle, error) {
	children, err := h.ListChildren(ctx)
	if err != nil {
		return nil, err
	}
	c, err := resolve(children, ref, childKeyOf)
	if err != nil {
		return nil, err
	}
	return newChildHandle(h.conn, c), nil
}

// ChildComponentListJSON fetches the components of every child without
// decoding them.
func (h *Hub) ChildComponentListJSON(ctx context.Context) (json.RawMessage, error) {
	return childComponentList(ctx, h.conn)
}

// AlarmVolume is the volume of the hub siren.
type AlarmVolume string

const (
	AlarmVolumeDefault AlarmVolume = ""
	AlarmVolumeMute    AlarmVolume = "mute"
	AlarmVolumeLow     AlarmVolume = "low"
	AlarmVolumeNormal  AlarmVolume = "normal"
	AlarmVolumeHigh    AlarmVolume = "high"
)

// AlarmDuration says how long the siren plays.
type AlarmDuration struct {
	once    bool
	seconds uint32
	timed   bool
}

var (
	// AlarmContinuous plays until StopAlarm.
	AlarmContinuous = AlarmDuration{}

	// AlarmOnce plays the tone once.
	AlarmOnce = AlarmDuration{once: true}
)

// AlarmFor plays for d, rounded down to whole seconds.
func AlarmFor(d time.Duration) AlarmDuration {
	return AlarmDuration{timed: true, seconds: uint32(d / time.Second)}
}

// Alarm configures PlayAlarm. The zero value plays the default tone at the
// default volume until stopped.
type Alarm struct {
	// Type is a tone from SupportedAlarmTypes, such as "Alarm 1".
	Type     string
	Volume   AlarmVolume
	Duration AlarmDuration
}

type alarmParams struct {
	AlarmType     string      `json:"alarm_type,omitempty"`
	AlarmVolume   AlarmVolume `json:"alarm_volume,omitempty"`
	AlarmDuration *uint32     `json:"alarm_duration,omitempty"`
}

func (a Alarm) params() (alarmParams, error) {
	p := alarmParams{AlarmType: a.Type, AlarmVolume: a.Volume}
	switch {
	case a.Duration.once:
		p.AlarmDuration = ptr[uint32](0)
	case a.Duration.timed:
		if a.Duration.seconds == 0 {
			return p, invalidParamsOp(string(wire.MethodPlayAlarm), "alarm duration must be at least one second")
		}
		p.AlarmDuration = ptr(a.Duration.seconds)
	}
	return p, nil
}

// PlayAlarm sounds the hub siren.
func (h *Hub) PlayAlarm(ctx context.Context, a Alarm) error {
	p, err := a.params()
	if err != nil {
		return err
	}
	_, err = h.conn.Call(ctx, wire.MethodPlayAlarm, p, wire.Routing{})
	return err
}

// StopAlarm silences the hub siren.
func (h *Hub) StopAlarm(ctx context.Context) error {
	_, err := h.conn.Call(ctx, wire.MethodStopAlarm, nil, wire.Routing{})
	return err
}

type alarmTypeList struct {
	AlarmTypeList []string `json:"alarm_type_list"`
}

// SupportedAlarmTypes lists the tones the hub can play.
func (h *Hub) SupportedAlarmTypes(ctx context.Context) ([]string, error) {
	var res alarmTypeList
	if err := h.callInto(ctx, wire.MethodGetSupportAlarmList, nil, &res); err != nil {
		return nil, err
	}
	return res.AlarmTypeList, nil
}
