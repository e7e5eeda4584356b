// Package telemetry validates, encodes and decodes the time-windowed queries
// devices answer: energy by interval, power by interval, trigger logs, usage
// counters and the temperature/humidity history of climate sensors.
//
// # Energy windows
//
// An energy query is described by its interval and its start. The start must
// sit on the interval's natural boundary, evaluated in the start's location:
//
//   - EnergyHourly: midnight. The window covers one day.
//   - EnergyDaily: the first day of a quarter. The window covers the quarter.
//   - EnergyMonthly: the first day of a year. The window covers the year.
//
// The end of the window is derived, never supplied. A start that is not on its
// boundary fails with errs.KindInvalidWindow.
//
// # Power windows
//
// A power query covers [start, end). Both ends are rounded up to the interval
// boundary. Devices return at most MaxPowerEntries samples, so a longer window
// is shrunk to start + MaxPowerEntries*step instead of failing. The effective
// window is reported on the query and on the decoded series; callers must use
// those bounds rather than their input.
//
// # Trigger logs
//
// Logs are read newest first in pages. A Pager walks them forward and reports
// io.EOF only after the device returns a page with no new entries; the sum
// the device reports is informational only.
package telemetry
