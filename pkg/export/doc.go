// Package export writes telemetry to InfluxDB.
//
// Writes are non-blocking and batched by the InfluxDB client; failures are
// reported through the configured logger. Close flushes pending points.
//
// Measurements:
//
//	energy, power     one point per sample, tagged device_id and interval
//	current_power     one point per reading, field watts
//	climate           one point per record, fields temperature and humidity
package export
