package telemetry

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// Caller sends one command and returns its raw result.
// *interaction.Client implements it.
type Caller interface {
	Call(ctx context.Context, method wire.Method, params any, route wire.Routing) (json.RawMessage, error)
}

// Entry is one sample of a TimeSeries.
type Entry struct {
	// Start is the beginning of the sample's interval.
	Start time.Time

	// Value is the energy (Wh) or power (W) reported for the interval.
	Value uint64

	// Missing is set when the device had no reading for the interval.
	Missing bool
}

// TimeSeries is a decoded energy or power window.
type TimeSeries struct {
	// Interval is the sample length in minutes as the device reports it.
	Interval int

	// Start and End bound the window actually fetched. End is exclusive.
	Start time.Time
	End   time.Time

	// LocalTime is the device clock at the time of the reply (energy only).
	LocalTime time.Time

	Entries []Entry
}

// Total sums all present entries.
func (s *TimeSeries) Total() uint64 {
	var sum uint64
	for _, e := range s.Entries {
		if !e.Missing {
			sum += e.Value
		}
	}
	return sum
}

// Missing counts the entries without a reading.
func (s *TimeSeries) Missing() int {
	n := 0
	for _, e := range s.Entries {
		if e.Missing {
			n++
		}
	}
	return n
}

// deviceTimeLayout is the layout of local_time fields.
const deviceTimeLayout = time.DateTime

// DeviceTime is a device-local wall clock reading ("2024-04-01 13:45:00").
// It is interpreted in time.Local.
type DeviceTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *DeviceTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	v, err := time.ParseInLocation(deviceTimeLayout, s, time.Local)
	if err != nil {
		return err
	}
	t.Time = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t DeviceTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(deviceTimeLayout))
}

func invalidWindow(op, format string, args ...any) error {
	return errs.Newf(errs.KindInvalidWindow, op, format, args...)
}

func decodeResult(op string, raw json.RawMessage, v any) error {
	resp := wire.Response{Result: raw}
	if err := resp.DecodeResult(v); err != nil {
		return errs.New(errs.KindUnknown, op, err)
	}
	return nil
}
