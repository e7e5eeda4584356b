package export

import (
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/tapo-protocol/tapo-go/pkg/telemetry"
)

// Defaults.
const (
	DefaultBatchSize     = 100
	DefaultFlushInterval = 10 * time.Second
)

// ErrIncompleteConfig is returned when the URL, org or bucket is missing.
var ErrIncompleteConfig = errors.New("export: url, org and bucket are required")

// Config configures a Writer.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string

	// BatchSize is the number of points sent per request (default: 100).
	BatchSize uint

	// FlushInterval bounds how long points wait in the batch (default: 10s).
	FlushInterval time.Duration

	// Logger receives asynchronous write failures. Nil disables it.
	Logger *slog.Logger
}

// Writer sends telemetry points to one bucket.
type Writer struct {
	client influxdb2.Client
	api    api.WriteAPI
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewWriter creates a Writer. No connection is made until points are
// flushed.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, ErrIncompleteConfig
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(cfg.BatchSize).
			SetFlushInterval(uint(cfg.FlushInterval.Milliseconds())))

	w := &Writer{
		client: client,
		api:    client.WriteAPI(cfg.Org, cfg.Bucket),
		logger: logger.With("bucket", cfg.Bucket),
	}
	go w.drainErrors(w.api.Errors())
	return w, nil
}

func (w *Writer) drainErrors(ch <-chan error) {
	for err := range ch {
		w.logger.Warn("influxdb write failed", "error", err)
	}
}

// WriteSeries writes one point per sample of ts under measurement, usually
// "energy" or "power". Samples the device had no reading for are skipped.
func (w *Writer) WriteSeries(deviceID, measurement string, ts *telemetry.TimeSeries) {
	if ts == nil {
		return
	}
	tags := map[string]string{
		"device_id": deviceID,
		"interval":  strconv.Itoa(ts.Interval),
	}
	for _, e := range ts.Entries {
		if e.Missing {
			continue
		}
		w.write(write.NewPoint(measurement, tags, map[string]any{"value": int64(e.Value)}, e.Start))
	}
}

// WriteCurrentPower writes a power reading taken at at.
func (w *Writer) WriteCurrentPower(deviceID string, cp *telemetry.CurrentPower, at time.Time) {
	if cp == nil {
		return
	}
	w.write(write.NewPoint("current_power",
		map[string]string{"device_id": deviceID},
		map[string]any{"watts": int64(cp.CurrentPower)},
		at))
}

// WriteClimate writes the temperature and humidity records of a sensor.
func (w *Writer) WriteClimate(deviceID string, recs *telemetry.TemperatureHumidityRecords) {
	if recs == nil {
		return
	}
	tags := map[string]string{
		"device_id": deviceID,
		"unit":      string(recs.Unit),
	}
	for _, r := range recs.Records {
		w.write(write.NewPoint("climate", tags, map[string]any{
			"temperature":           r.Temperature,
			"temperature_exception": r.TemperatureException,
			"humidity":              int64(r.Humidity),
			"humidity_exception":    int64(r.HumidityException),
		}, r.At))
	}
}

func (w *Writer) write(p *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.api.WritePoint(p)
}

// Flush sends all pending points.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.api.Flush()
	}
}

// Close flushes pending points and releases the client.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.api.Flush()
	w.mu.Unlock()

	w.client.Close()
	return nil
}
