package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// PowerInterval is the sampling interval of a power query, in minutes.
type PowerInterval int

const (
	PowerEvery5Minutes PowerInterval = 5
	PowerHourly        PowerInterval = 60
)

// MaxPowerEntries is the most samples a device returns for one power query.
const MaxPowerEntries = 144

// String returns the interval name.
func (i PowerInterval) String() string {
	switch i {
	case PowerEvery5Minutes:
		return "5m"
	case PowerHourly:
		return "hourly"
	default:
		return fmt.Sprintf("power-interval(%d)", int(i))
	}
}

// ParsePowerInterval parses "5m" or "hourly".
func ParsePowerInterval(s string) (PowerInterval, error) {
	switch s {
	case "5m", "5min":
		return PowerEvery5Minutes, nil
	case "hourly", "1h":
		return PowerHourly, nil
	}
	return 0, fmt.Errorf("telemetry: unknown power interval %q", s)
}

// Step returns the interval length.
func (i PowerInterval) Step() time.Duration {
	return time.Duration(i) * time.Minute
}

// ceil rounds t up to the next interval boundary in UTC. Devices index
// power samples from UTC boundaries, so a zone with a non-whole-hour offset
// still lands on them. The result keeps t's location. A time already on a
// boundary is returned unchanged.
func (i PowerInterval) ceil(t time.Time) time.Time {
	floor := t.Truncate(i.Step())
	if floor.Equal(t) {
		return floor
	}
	return floor.Add(i.Step())
}

// PowerQuery is a validated power window [Start, End).
type PowerQuery struct {
	Interval PowerInterval

	Start time.Time

	// End is the effective end: the rounded requested end, shrunk to
	// Start + MaxPowerEntries*step when the request was longer.
	End time.Time

	// Requested is the rounded end as asked for.
	Requested time.Time
}

// NewPowerQuery rounds start and end up to the interval boundary and clamps
// the window to MaxPowerEntries samples. A window that is empty after
// rounding fails with errs.KindInvalidWindow.
func NewPowerQuery(interval PowerInterval, start, end time.Time) (*PowerQuery, error) {
	const op = "power query"

	if interval != PowerEvery5Minutes && interval != PowerHourly {
		return nil, invalidWindow(op, "unsupported interval %d", int(interval))
	}

	q := &PowerQuery{
		Interval:  interval,
		Start:     interval.ceil(start),
		Requested: interval.ceil(end),
	}
	if !q.Requested.After(q.Start) {
		return nil, invalidWindow(op, "end %s is not after start %s",
			q.Requested.Format(time.DateTime), q.Start.Format(time.DateTime))
	}

	q.End = q.Requested
	if limit := q.Start.Add(MaxPowerEntries * interval.Step()); q.End.After(limit) {
		q.End = limit
	}
	return q, nil
}

// Clamped reports whether the window was shrunk.
func (q *PowerQuery) Clamped() bool {
	return !q.End.Equal(q.Requested)
}

// Entries returns the number of samples the window covers.
func (q *PowerQuery) Entries() int {
	return int(q.End.Sub(q.Start) / q.Interval.Step())
}

// PowerParams is the get_power_data parameter object.
type PowerParams struct {
	StartTimestamp int64 `json:"start_timestamp"`
	EndTimestamp   int64 `json:"end_timestamp"`
	Interval       int   `json:"interval"`
}

// Params encodes the effective window.
func (q *PowerQuery) Params() PowerParams {
	return PowerParams{
		StartTimestamp: q.Start.Unix(),
		EndTimestamp:   q.End.Unix(),
		Interval:       int(q.Interval),
	}
}

type powerResult struct {
	Data           []*int64 `json:"data"`
	StartTimestamp int64    `json:"start_timestamp"`
	EndTimestamp   int64    `json:"end_timestamp"`
	Interval       int      `json:"interval"`
}

// DecodePower decodes a get_power_data result for q. The series spans the
// effective window and holds at most MaxPowerEntries entries. Null and -1
// samples are marked missing.
func DecodePower(q *PowerQuery, raw json.RawMessage) (*TimeSeries, error) {
	const op = string(wire.MethodGetPowerData)

	var res powerResult
	if err := decodeResult(op, raw, &res); err != nil {
		return nil, err
	}
	if res.Interval != 0 && res.Interval != int(q.Interval) {
		return nil, errs.Newf(errs.KindUnknown, op, "reply interval %d does not match query interval %d", res.Interval, int(q.Interval))
	}

	at := q.Start
	if res.StartTimestamp != 0 {
		at = time.Unix(res.StartTimestamp, 0).In(q.Start.Location())
	}

	ts := &TimeSeries{
		Interval: int(q.Interval),
		Start:    q.Start,
		End:      q.End,
		Entries:  make([]Entry, 0, min(len(res.Data), MaxPowerEntries)),
	}
	for _, v := range res.Data {
		if !at.Before(q.End) || len(ts.Entries) == MaxPowerEntries {
			break
		}
		if !at.Before(q.Start) {
			e := Entry{Start: at}
			switch {
			case v == nil || *v == -1:
				e.Missing = true
			case *v < 0:
				return nil, errs.Newf(errs.KindUnknown, op, "negative power sample %d", *v)
			default:
				e.Value = uint64(*v)
			}
			ts.Entries = append(ts.Entries, e)
		}
		at = at.Add(q.Interval.Step())
	}
	return ts, nil
}

// PowerData fetches and decodes the power window q.
func PowerData(ctx context.Context, c Caller, route wire.Routing, q *PowerQuery) (*TimeSeries, error) {
	raw, err := c.Call(ctx, wire.MethodGetPowerData, q.Params(), route)
	if err != nil {
		return nil, err
	}
	return DecodePower(q, raw)
}
