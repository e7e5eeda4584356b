package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// EnergyInterval is the aggregation interval of an energy query, in minutes.
type EnergyInterval int

const (
	EnergyHourly  EnergyInterval = 60
	EnergyDaily   EnergyInterval = 1440
	EnergyMonthly EnergyInterval = 43200
)

// MaxHourlyEnergyDays is the longest multi-day hourly energy window.
const MaxHourlyEnergyDays = 8

// String returns the interval name.
func (i EnergyInterval) String() string {
	switch i {
	case EnergyHourly:
		return "hourly"
	case EnergyDaily:
		return "daily"
	case EnergyMonthly:
		return "monthly"
	default:
		return fmt.Sprintf("energy-interval(%d)", int(i))
	}
}

// ParseEnergyInterval parses "hourly", "daily" or "monthly".
func ParseEnergyInterval(s string) (EnergyInterval, error) {
	switch s {
	case "hourly":
		return EnergyHourly, nil
	case "daily":
		return EnergyDaily, nil
	case "monthly":
		return EnergyMonthly, nil
	}
	return 0, fmt.Errorf("telemetry: unknown energy interval %q", s)
}

// next advances t by one entry of the interval.
func (i EnergyInterval) next(t time.Time) time.Time {
	switch i {
	case EnergyHourly:
		return t.Add(time.Hour)
	case EnergyDaily:
		return t.AddDate(0, 0, 1)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// EnergyQuery is a validated energy window.
type EnergyQuery struct {
	Interval EnergyInterval

	// Start and End bound the window. End is exclusive and derived from
	// Start and Interval.
	Start time.Time
	End   time.Time
}

// NewEnergyQuery validates start against the interval's boundary and derives
// the end of the window: one day, quarter or year after start.
func NewEnergyQuery(interval EnergyInterval, start time.Time) (*EnergyQuery, error) {
	const op = "energy query"

	if !isMidnight(start) {
		return nil, invalidWindow(op, "%s start %s is not midnight", interval, start.Format(time.DateTime))
	}

	var end time.Time
	switch interval {
	case EnergyHourly:
		end = start.AddDate(0, 0, 1)
	case EnergyDaily:
		if start.Day() != 1 || (start.Month()-1)%3 != 0 {
			return nil, invalidWindow(op, "daily start %s is not the first day of a quarter", start.Format(time.DateOnly))
		}
		end = start.AddDate(0, 3, 0)
	case EnergyMonthly:
		if start.Day() != 1 || start.Month() != time.January {
			return nil, invalidWindow(op, "monthly start %s is not the first day of a year", start.Format(time.DateOnly))
		}
		end = start.AddDate(1, 0, 0)
	default:
		return nil, invalidWindow(op, "unsupported interval %d", int(interval))
	}
	return &EnergyQuery{Interval: interval, Start: start, End: end}, nil
}

// NewHourlyEnergyRange builds an hourly query covering the days from startDay
// through endDay inclusive. The range may not exceed MaxHourlyEnergyDays.
func NewHourlyEnergyRange(startDay, endDay time.Time) (*EnergyQuery, error) {
	const op = "energy query"

	if !isMidnight(startDay) || !isMidnight(endDay) {
		return nil, invalidWindow(op, "hourly range days must start at midnight")
	}
	if endDay.Before(startDay) {
		return nil, invalidWindow(op, "hourly range ends before it starts")
	}
	end := endDay.AddDate(0, 0, 1)
	if startDay.AddDate(0, 0, MaxHourlyEnergyDays).Before(end) {
		return nil, invalidWindow(op, "hourly range exceeds %d days", MaxHourlyEnergyDays)
	}
	return &EnergyQuery{Interval: EnergyHourly, Start: startDay, End: end}, nil
}

// EnergyParams is the get_energy_data parameter object.
type EnergyParams struct {
	StartTimestamp int64 `json:"start_timestamp"`
	EndTimestamp   int64 `json:"end_timestamp"`
	Interval       int   `json:"interval"`
}

// Params encodes the query. Hourly windows end at 23:59:59 of their last day;
// daily and monthly windows carry the start in both timestamps.
func (q *EnergyQuery) Params() EnergyParams {
	p := EnergyParams{
		StartTimestamp: q.Start.Unix(),
		EndTimestamp:   q.Start.Unix(),
		Interval:       int(q.Interval),
	}
	if q.Interval == EnergyHourly {
		p.EndTimestamp = q.End.Add(-time.Second).Unix()
	}
	return p
}

type energyResult struct {
	LocalTime      DeviceTime `json:"local_time"`
	Data           []uint64   `json:"data"`
	StartTimestamp int64      `json:"start_timestamp"`
	Interval       int        `json:"interval"`
}

// DecodeEnergy decodes a get_energy_data result for q. Entries are stepped by
// hour, day or calendar month in the start's location and trimmed to the
// query window.
func DecodeEnergy(q *EnergyQuery, raw json.RawMessage) (*TimeSeries, error) {
	const op = string(wire.MethodGetEnergyData)

	var res energyResult
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
		Interval:  int(q.Interval),
		Start:     q.Start,
		End:       q.End,
		LocalTime: res.LocalTime.Time,
		Entries:   make([]Entry, 0, len(res.Data)),
	}
	for _, v := range res.Data {
		if !at.Before(q.End) {
			break
		}
		if !at.Before(q.Start) {
			ts.Entries = append(ts.Entries, Entry{Start: at, Value: v})
		}
		at = q.Interval.next(at)
	}
	return ts, nil
}

// EnergyData fetches and decodes the energy window q.
func EnergyData(ctx context.Context, c Caller, route wire.Routing, q *EnergyQuery) (*TimeSeries, error) {
	raw, err := c.Call(ctx, wire.MethodGetEnergyData, q.Params(), route)
	if err != nil {
		return nil, err
	}
	return DecodeEnergy(q, raw)
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
