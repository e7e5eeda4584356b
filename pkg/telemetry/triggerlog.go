package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// DefaultTriggerLogPageSize is used when a query leaves PageSize at zero.
const DefaultTriggerLogPageSize = 10

// TriggerEvent names what a hub child reported.
type TriggerEvent string

// Events reported by sensors and switches.
const (
	EventMotion      TriggerEvent = "motion"
	EventOpen        TriggerEvent = "open"
	EventClose       TriggerEvent = "close"
	EventKeepOpen    TriggerEvent = "keepOpen"
	EventWaterLeak   TriggerEvent = "waterLeak"
	EventWaterDry    TriggerEvent = "waterDry"
	EventRotation    TriggerEvent = "rotation"
	EventSingleClick TriggerEvent = "singleClick"
	EventDoubleClick TriggerEvent = "doubleClick"
	EventLowBattery  TriggerEvent = "lowBattery"
)

// TriggerLogQuery selects one page of trigger logs. A zero StartID starts at
// the newest entry.
type TriggerLogQuery struct {
	PageSize uint64 `json:"page_size"`
	StartID  uint64 `json:"start_id"`
}

// TriggerLogEntry is one logged event.
type TriggerLogEntry struct {
	ID        uint64
	Timestamp time.Time
	Event     TriggerEvent

	// Params holds event specific data, e.g. {"rotate_deg": 30} for rotation.
	Params json.RawMessage
}

type triggerLogEntryJSON struct {
	ID        uint64          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Event     TriggerEvent    `json:"event"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *TriggerLogEntry) UnmarshalJSON(b []byte) error {
	var v triggerLogEntryJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*e = TriggerLogEntry{
		ID:        v.ID,
		Timestamp: time.Unix(v.Timestamp, 0),
		Event:     v.Event,
		Params:    v.Params,
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e TriggerLogEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(triggerLogEntryJSON{
		ID:        e.ID,
		Timestamp: e.Timestamp.Unix(),
		Event:     e.Event,
		Params:    e.Params,
	})
}

// RotationDegrees returns the rotate_deg parameter of a rotation event.
func (e TriggerLogEntry) RotationDegrees() (int, bool) {
	if e.Event != EventRotation || len(e.Params) == 0 {
		return 0, false
	}
	var p struct {
		RotateDeg int `json:"rotate_deg"`
	}
	if err := json.Unmarshal(e.Params, &p); err != nil {
		return 0, false
	}
	return p.RotateDeg, true
}

// TriggerLogPage is one page of trigger logs, newest first.
type TriggerLogPage struct {
	PageSize uint64
	StartID  uint64

	// Total is the device's own count. It is informational and is not used to
	// detect the end of the logs.
	Total uint64

	Entries []TriggerLogEntry
}

// Empty reports whether the page carries no entries.
func (p *TriggerLogPage) Empty() bool {
	return len(p.Entries) == 0
}

// Oldest returns the id of the last (oldest) entry.
func (p *TriggerLogPage) Oldest() (uint64, bool) {
	if p.Empty() {
		return 0, false
	}
	return p.Entries[len(p.Entries)-1].ID, true
}

type triggerLogResult struct {
	StartID uint64            `json:"start_id"`
	Sum     uint64            `json:"sum"`
	Logs    []TriggerLogEntry `json:"logs"`
}

// DecodeTriggerLogs decodes a get_trigger_logs result.
func DecodeTriggerLogs(q TriggerLogQuery, raw json.RawMessage) (*TriggerLogPage, error) {
	var res triggerLogResult
	if err := decodeResult(string(wire.MethodGetTriggerLogs), raw, &res); err != nil {
		return nil, err
	}
	return &TriggerLogPage{
		PageSize: q.PageSize,
		StartID:  q.StartID,
		Total:    res.Sum,
		Entries:  res.Logs,
	}, nil
}

// TriggerLogs fetches one page.
func TriggerLogs(ctx context.Context, c Caller, route wire.Routing, q TriggerLogQuery) (*TriggerLogPage, error) {
	if q.PageSize == 0 {
		q.PageSize = DefaultTriggerLogPageSize
	}
	raw, err := c.Call(ctx, wire.MethodGetTriggerLogs, q, route)
	if err != nil {
		return nil, err
	}
	return DecodeTriggerLogs(q, raw)
}

// Pager walks trigger logs from newest to oldest. Each page after the first
// starts at the oldest id of the previous page; entries the device repeats
// are dropped. A page that only repeats entries is followed by one request
// starting below the oldest id delivered. Next reports io.EOF once the
// device returns an empty page or that request brings nothing new.
//
// A Pager is not safe for concurrent use.
type Pager struct {
	caller Caller
	route  wire.Routing
	query  TriggerLogQuery

	// floor is the oldest id delivered so far.
	floor   uint64
	started bool
	done    bool
}

// NewPager creates a pager starting at q.
func NewPager(c Caller, route wire.Routing, q TriggerLogQuery) *Pager {
	if q.PageSize == 0 {
		q.PageSize = DefaultTriggerLogPageSize
	}
	return &Pager{caller: c, route: route, query: q}
}

// Next fetches the next page.
func (p *Pager) Next(ctx context.Context) (*TriggerLogPage, error) {
	for !p.done {
		page, err := TriggerLogs(ctx, p.caller, p.route, p.query)
		if err != nil {
			return nil, err
		}
		if page.Empty() {
			break
		}

		if p.started {
			fresh := page.Entries[:0]
			for _, e := range page.Entries {
				if e.ID < p.floor {
					fresh = append(fresh, e)
				}
			}
			page.Entries = fresh
		}

		oldest, ok := page.Oldest()
		if !ok {
			// A start id of 0 asks for the newest entries, so nothing below
			// id 1 can be requested.
			if p.floor <= 1 || p.query.StartID < p.floor {
				break
			}
			p.query.StartID = p.floor - 1
			continue
		}
		p.started = true
		p.floor = oldest
		p.query.StartID = oldest
		return page, nil
	}
	p.done = true
	return nil, io.EOF
}

// All collects every remaining entry.
func (p *Pager) All(ctx context.Context) ([]TriggerLogEntry, error) {
	var out []TriggerLogEntry
	for {
		page, err := p.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, page.Entries...)
	}
}
