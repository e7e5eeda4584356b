package telemetry

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// TemperatureUnit is the unit a sensor reports in.
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
)

// ClimateBucket is the spacing of temperature/humidity records.
const ClimateBucket = 15 * time.Minute

// noReading marks a bucket the sensor did not fill.
const noReading = -1000

// TemperatureHumidityRecord is one 15 minute bucket.
type TemperatureHumidityRecord struct {
	At                   time.Time
	Temperature          float64
	TemperatureException float64
	Humidity             int
	HumidityException    int
}

// TemperatureHumidityRecords is the past 24 hours of a climate sensor, oldest
// first.
type TemperatureHumidityRecords struct {
	// LocalTime is the sensor clock at the time of the reply.
	LocalTime time.Time
	Unit      TemperatureUnit
	Records   []TemperatureHumidityRecord
}

type climateResult struct {
	LocalTime                int64           `json:"local_time"`
	Past24hTemp              []int           `json:"past24h_temp"`
	Past24hTempException     []int           `json:"past24h_temp_exception"`
	Past24hHumidity          []int           `json:"past24h_humidity"`
	Past24hHumidityException []int           `json:"past24h_humidity_exception"`
	TempUnit                 TemperatureUnit `json:"temp_unit"`
}

// DecodeTemperatureHumidity decodes a get_temp_humidity_records result. The
// newest bucket starts at the quarter hour before local_time; earlier buckets
// step back by ClimateBucket. Buckets carrying the -1000 sentinel are skipped.
// Temperatures are reported in tenths of a degree.
func DecodeTemperatureHumidity(raw json.RawMessage) (*TemperatureHumidityRecords, error) {
	const op = string(wire.MethodGetTempHumidity)

	var res climateResult
	if err := decodeResult(op, raw, &res); err != nil {
		return nil, err
	}
	n := len(res.Past24hTemp)
	if len(res.Past24hTempException) != n || len(res.Past24hHumidity) != n || len(res.Past24hHumidityException) != n {
		return nil, errs.Newf(errs.KindUnknown, op, "record arrays differ in length")
	}

	local := time.Unix(res.LocalTime, 0).UTC()
	at := local.Truncate(ClimateBucket)

	out := &TemperatureHumidityRecords{
		LocalTime: local,
		Unit:      res.TempUnit,
		Records:   make([]TemperatureHumidityRecord, 0, n),
	}
	for i := n - 1; i >= 0; i-- {
		t, te := res.Past24hTemp[i], res.Past24hTempException[i]
		h, he := res.Past24hHumidity[i], res.Past24hHumidityException[i]
		if t != noReading && te != noReading && h != noReading && he != noReading {
			out.Records = append(out.Records, TemperatureHumidityRecord{
				At:                   at,
				Temperature:          float64(t) / 10,
				TemperatureException: float64(te) / 10,
				Humidity:             h,
				HumidityException:    he,
			})
		}
		at = at.Add(-ClimateBucket)
	}

	// Collected newest first.
	slices.Reverse(out.Records)
	return out, nil
}

// TemperatureHumidity fetches the climate history of a hub child.
func TemperatureHumidity(ctx context.Context, c Caller, route wire.Routing) (*TemperatureHumidityRecords, error) {
	raw, err := c.Call(ctx, wire.MethodGetTempHumidity, nil, route)
	if err != nil {
		return nil, err
	}
	return DecodeTemperatureHumidity(raw)
}
