package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/device"
	"github.com/tapo-protocol/tapo-go/pkg/discovery"
	"github.com/tapo-protocol/tapo-go/pkg/telemetry"
)

// command is one subcommand, usable from the command line and the shell.
type command struct {
	name    string
	args    string
	summary string
	run     func(ctx context.Context, a *app, args []string, w io.Writer) error
}

var commands = []command{
	{"discover", "[target]", "Scan for devices (default: broadcast)", runDiscover},
	{"info", "<addr>", "Show device information", runInfo},
	{"on", "<addr>", "Turn a device on", runSwitch(true)},
	{"off", "<addr>", "Turn a device off", runSwitch(false)},
	{"energy", "<addr>", "Show energy data of a plug", runEnergy},
	{"power", "<addr>", "Show power data of a plug", runPower},
	{"children", "<addr>", "List the children of a hub", runChildren},
}

func lookup(name string) (*command, bool) {
	for i := range commands {
		if commands[i].name == name {
			return &commands[i], true
		}
	}
	return nil, false
}

func printCommands(w io.Writer) {
	for _, c := range commands {
		fmt.Fprintf(w, "  %-24s %s\n", c.name+" "+c.args, c.summary)
	}
	fmt.Fprintf(w, "  %-24s %s\n", "shell", "Start an interactive shell")
}

func newFlagSet(name, args string, w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() {
		fmt.Fprintf(w, "Usage: tapo %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// address returns the single positional argument.
func address(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		fs.Usage()
		return "", fmt.Errorf("%s: expected one device address", fs.Name())
	}
	return fs.Arg(0), nil
}

func runDiscover(ctx context.Context, a *app, args []string, w io.Writer) error {
	fs := newFlagSet("discover", "[target]", w)
	timeout := fs.Duration("timeout", a.cfg.Discovery.Timeout, "Scan duration")
	if err := fs.Parse(args); err != nil {
		return err
	}
	target := a.cfg.Discovery.Target
	if fs.NArg() > 0 {
		target = fs.Arg(0)
	}

	var (
		st  *discovery.Stream
		err error
	)
	if a.client != nil {
		st, err = a.client.Discover(ctx, target, *timeout)
	} else {
		// Scanning needs no credentials.
		st, err = discovery.NewScanner(discovery.ScannerConfig{Timeout: *timeout, Logger: a.logger}).Scan(ctx, target)
	}
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Fprintf(w, "%-21s %-12s %-30s %-6s %s\n", "ADDRESS", "MODEL", "CATEGORY", "SCHEME", "DEVICE ID")
	found, failed := 0, 0
	for {
		it, ok := st.Next(ctx)
		if !ok {
			break
		}
		if it.Err != nil {
			failed++
			a.logger.Warn("unreadable discovery reply", "error", it.Err)
			continue
		}
		found++
		s := it.Result.Summary
		fmt.Fprintf(w, "%-21s %-12s %-30s %-6s %s\n",
			s.Address(), s.DeviceModel, it.Result.Category, s.Encryption.EncryptType, s.DeviceID)
	}
	fmt.Fprintf(w, "\n%d device(s) found", found)
	if failed > 0 {
		fmt.Fprintf(w, ", %d unreadable reply(ies)", failed)
	}
	fmt.Fprintln(w)
	return nil
}

func runInfo(ctx context.Context, a *app, args []string, w io.Writer) error {
	fs := newFlagSet("info", "<addr>", w)
	raw := fs.Bool("raw", false, "Print the full device reply as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := address(fs)
	if err != nil {
		return err
	}
	c, err := a.devices()
	if err != nil {
		return err
	}

	g, err := c.Generic(ctx, addr)
	if err != nil {
		return err
	}
	defer g.Close()

	if *raw {
		msg, err := g.InfoJSON(ctx)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, msg, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err = buf.WriteTo(w)
		return err
	}

	info, err := g.Info(ctx)
	if err != nil {
		return err
	}
	state := "n/a"
	if info.DeviceOn != nil {
		state = "off"
		if *info.DeviceOn {
			state = "on"
		}
	}
	fmt.Fprintf(w, "Device ID:  %s\n", info.DeviceID)
	fmt.Fprintf(w, "Nickname:   %s\n", info.Nickname)
	fmt.Fprintf(w, "Model:      %s (%s)\n", info.Model, info.Category())
	fmt.Fprintf(w, "Firmware:   %s\n", info.FwVer)
	fmt.Fprintf(w, "IP / MAC:   %s / %s\n", info.IP, info.MAC)
	fmt.Fprintf(w, "Signal:     %d dBm (level %d)\n", info.RSSI, info.SignalLevel)
	fmt.Fprintf(w, "State:      %s\n", state)
	return nil
}

func runSwitch(on bool) func(context.Context, *app, []string, io.Writer) error {
	name := "off"
	if on {
		name = "on"
	}
	return func(ctx context.Context, a *app, args []string, w io.Writer) error {
		fs := newFlagSet(name, "<addr>", w)
		if err := fs.Parse(args); err != nil {
			return err
		}
		addr, err := address(fs)
		if err != nil {
			return err
		}
		c, err := a.devices()
		if err != nil {
			return err
		}

		g, err := c.Generic(ctx, addr)
		if err != nil {
			return err
		}
		defer g.Close()

		if on {
			err = g.On(ctx)
		} else {
			err = g.Off(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %s\n", addr, name)
		return nil
	}
}

// defaultEnergyStart returns the first valid start at or before t.
func defaultEnergyStart(interval telemetry.EnergyInterval, t time.Time) time.Time {
	y, m, d := t.Date()
	switch interval {
	case telemetry.EnergyDaily:
		return time.Date(y, m-(m-1)%3, 1, 0, 0, 0, 0, t.Location())
	case telemetry.EnergyMonthly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
}

func parseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func energyLayout(interval telemetry.EnergyInterval) string {
	switch interval {
	case telemetry.EnergyHourly:
		return "2006-01-02 15:04"
	case telemetry.EnergyMonthly:
		return "2006-01"
	default:
		return time.DateOnly
	}
}

func runEnergy(ctx context.Context, a *app, args []string, w io.Writer) error {
	fs := newFlagSet("energy", "<addr>", w)
	intervalName := fs.String("interval", "daily", "Interval: hourly, daily or monthly")
	startDay := fs.String("start", "", "First day of the window, YYYY-MM-DD (default: current day, quarter or year)")
	endDay := fs.String("end", "", "Last day of an hourly range, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := address(fs)
	if err != nil {
		return err
	}

	interval, err := telemetry.ParseEnergyInterval(*intervalName)
	if err != nil {
		return err
	}
	start := defaultEnergyStart(interval, time.Now())
	if *startDay != "" {
		if start, err = parseDay(*startDay); err != nil {
			return err
		}
	}

	var q *telemetry.EnergyQuery
	if *endDay != "" {
		if interval != telemetry.EnergyHourly {
			return fmt.Errorf("energy: -end requires -interval hourly")
		}
		end, err := parseDay(*endDay)
		if err != nil {
			return err
		}
		q, err = telemetry.NewHourlyEnergyRange(start, end)
		if err != nil {
			return err
		}
	} else if q, err = telemetry.NewEnergyQuery(interval, start); err != nil {
		return err
	}

	c, err := a.devices()
	if err != nil {
		return err
	}
	plug, err := c.PlugEnergyMonitoring(ctx, addr)
	if err != nil {
		return err
	}
	defer plug.Close()

	ts, err := plug.EnergyData(ctx, q)
	if err != nil {
		return err
	}
	printSeries(w, ts, energyLayout(interval), "Wh")
	fmt.Fprintf(w, "Total: %d Wh\n", ts.Total())

	if a.exporter != nil {
		info, err := plug.Info(ctx)
		if err != nil {
			return err
		}
		a.exporter.WriteSeries(info.DeviceID, "energy", ts)
	}
	return nil
}

func runPower(ctx context.Context, a *app, args []string, w io.Writer) error {
	fs := newFlagSet("power", "<addr>", w)
	intervalName := fs.String("interval", "5m", "Interval: 5m or hourly")
	window := fs.Duration("window", time.Hour, "How far back to fetch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := address(fs)
	if err != nil {
		return err
	}

	interval, err := telemetry.ParsePowerInterval(*intervalName)
	if err != nil {
		return err
	}
	end := time.Now()
	q, err := telemetry.NewPowerQuery(interval, end.Add(-*window), end)
	if err != nil {
		return err
	}

	c, err := a.devices()
	if err != nil {
		return err
	}
	plug, err := c.PlugEnergyMonitoring(ctx, addr)
	if err != nil {
		return err
	}
	defer plug.Close()

	current, err := plug.CurrentPower(ctx)
	if err != nil {
		return err
	}
	ts, err := plug.PowerData(ctx, q)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Current power: %d W\n", current.CurrentPower)
	if q.Clamped() {
		fmt.Fprintf(w, "Window shortened to %d samples, ending %s\n", telemetry.MaxPowerEntries, q.End.Format(time.DateTime))
	}
	printSeries(w, ts, "2006-01-02 15:04", "W")

	if a.exporter != nil {
		info, err := plug.Info(ctx)
		if err != nil {
			return err
		}
		a.exporter.WriteCurrentPower(info.DeviceID, current, end)
		a.exporter.WriteSeries(info.DeviceID, "power", ts)
	}
	return nil
}

func printSeries(w io.Writer, ts *telemetry.TimeSeries, layout, unit string) {
	for _, e := range ts.Entries {
		if e.Missing {
			fmt.Fprintf(w, "%-16s %8s\n", e.Start.Format(layout), "-")
			continue
		}
		fmt.Fprintf(w, "%-16s %8d %s\n", e.Start.Format(layout), e.Value, unit)
	}
	if n := ts.Missing(); n > 0 {
		fmt.Fprintf(w, "%d of %d samples missing\n", n, len(ts.Entries))
	}
}

func runChildren(ctx context.Context, a *app, args []string, w io.Writer) error {
	fs := newFlagSet("children", "<addr>", w)
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := address(fs)
	if err != nil {
		return err
	}
	c, err := a.devices()
	if err != nil {
		return err
	}

	hub, err := c.Hub(ctx, addr)
	if err != nil {
		return err
	}
	defer hub.Close()

	children, err := hub.ListChildren(ctx)
	if err != nil {
		return err
	}

	p := &childPrinter{w: w}
	fmt.Fprintf(w, "%-24s %-8s %-20s %-8s %s\n", "DEVICE ID", "MODEL", "NICKNAME", "STATUS", "STATE")
	for _, ch := range children {
		ch.Accept(p)
	}
	fmt.Fprintf(w, "\n%d child(ren)\n", len(children))

	if a.exporter == nil {
		return nil
	}
	for _, id := range p.climate {
		h, err := hub.Child(ctx, device.ByID(id))
		if err != nil {
			a.logger.Warn("resolving sensor failed", "device_id", id, "error", err)
			continue
		}
		recs, err := h.TemperatureHumidityRecords(ctx)
		if err != nil {
			a.logger.Warn("reading sensor records failed", "device_id", id, "error", err)
			continue
		}
		a.exporter.WriteClimate(id, recs)
	}
	return nil
}

// childPrinter prints one line per child and remembers the
// temperature/humidity sensors.
type childPrinter struct {
	w       io.Writer
	climate []string
}

func (p *childPrinter) line(c *device.ChildInfo, state string) {
	fmt.Fprintf(p.w, "%-24s %-8s %-20s %-8s %s\n", c.DeviceID, c.Model, c.Nickname, c.Status, state)
}

func (p *childPrinter) VisitSensor(c *device.SensorChild) {
	var state string
	switch c.Kind {
	case device.SensorMotion:
		state = "clear"
		if c.Detected {
			state = "motion detected"
		}
	case device.SensorContact:
		state = "closed"
		if c.Open {
			state = "open"
		}
	case device.SensorWaterLeak:
		state = c.WaterLeakStatus
		if c.InAlarm {
			state += " (alarm)"
		}
	case device.SensorTemperatureHumidity:
		state = fmt.Sprintf("%.1f %s, %d%%", c.CurrentTemperature, c.TemperatureUnit, c.CurrentHumidity)
		p.climate = append(p.climate, c.DeviceID)
	}
	p.line(&c.ChildInfo, state)
}

func (p *childPrinter) VisitSwitch(c *device.SwitchChild) {
	p.line(&c.ChildInfo, "")
}

func (p *childPrinter) VisitClimate(c *device.ClimateChild) {
	p.line(&c.ChildInfo, fmt.Sprintf("%.1f -> %.1f %s", c.CurrentTemperature, c.TargetTemperature, c.TemperatureUnit))
}

func (p *childPrinter) VisitUnsupported(c *device.UnsupportedChild) {
	state := "unsupported"
	if c.Err != nil {
		state = "unreadable: " + c.Err.Error()
	}
	p.line(&c.ChildInfo, state)
}
