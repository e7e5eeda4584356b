package device

import (
	"context"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// InfoParams are the set_device_info parameters an InfoSet produces.
type InfoParams struct {
	DeviceOn   *bool   `json:"device_on,omitempty"`
	Brightness *uint8  `json:"brightness,omitempty"`
	Hue        *uint16 `json:"hue,omitempty"`
	Saturation *uint16 `json:"saturation,omitempty"`
	ColorTemp  *uint16 `json:"color_temp,omitempty"`

	// Thermostatic radiator valves.
	TargetTemp        *float64 `json:"target_temp,omitempty"`
	FrostProtectionOn *bool    `json:"frost_protection_on,omitempty"`
	ChildProtection   *bool    `json:"child_protection,omitempty"`
	TempOffset        *int8    `json:"temp_offset,omitempty"`
	MinControlTemp    *uint8   `json:"min_control_temp,omitempty"`
	MaxControlTemp    *uint8   `json:"max_control_temp,omitempty"`

	// named is set when the colour came from a Color preset, whose values
	// are sent as-is.
	named bool
}

func (p *InfoParams) empty() bool {
	return p.DeviceOn == nil && p.Brightness == nil && p.Hue == nil && p.Saturation == nil &&
		p.ColorTemp == nil && p.TargetTemp == nil && p.FrostProtectionOn == nil &&
		p.ChildProtection == nil && p.TempOffset == nil && p.MinControlTemp == nil && p.MaxControlTemp == nil
}

// InfoSet accumulates property changes and commits them in one request.
// Mutations apply in call order, so a later call overrides an earlier one.
type InfoSet struct {
	conn      Conn
	route     wire.Routing
	mutations []func(*InfoParams)
}

func newInfoSet(conn Conn, route wire.Routing) *InfoSet {
	return &InfoSet{conn: conn, route: route}
}

func (s *InfoSet) add(m func(*InfoParams)) *InfoSet {
	s.mutations = append(s.mutations, m)
	return s
}

// On turns the device on.
func (s *InfoSet) On() *InfoSet {
	return s.add(func(p *InfoParams) { p.DeviceOn = ptr(true) })
}

// Off turns the device off.
func (s *InfoSet) Off() *InfoSet {
	return s.add(func(p *InfoParams) { p.DeviceOn = ptr(false) })
}

// Brightness sets the brightness, 1 to 100.
func (s *InfoSet) Brightness(b uint8) *InfoSet {
	return s.add(func(p *InfoParams) { p.Brightness = ptr(b) })
}

// HueSaturation sets a colour. It clears the colour temperature.
func (s *InfoSet) HueSaturation(hue, saturation uint16) *InfoSet {
	return s.add(func(p *InfoParams) {
		p.Hue, p.Saturation, p.ColorTemp = ptr(hue), ptr(saturation), ptr(uint16(0))
		p.named = false
	})
}

// ColorTemperature sets a white in kelvin, 2500 to 6500.
func (s *InfoSet) ColorTemperature(kelvin uint16) *InfoSet {
	return s.add(func(p *InfoParams) {
		p.Hue, p.Saturation, p.ColorTemp = ptr(uint16(0)), ptr(uint16(100)), ptr(kelvin)
		p.named = false
	})
}

// Color sets a named colour.
func (s *InfoSet) Color(c Color) *InfoSet {
	hue, sat, temp := c.HSV()
	return s.add(func(p *InfoParams) {
		p.Hue, p.Saturation, p.ColorTemp = ptr(hue), ptr(sat), ptr(temp)
		p.named = true
	})
}

// TargetTemperature sets the temperature a valve regulates to.
func (s *InfoSet) TargetTemperature(t float64) *InfoSet {
	return s.add(func(p *InfoParams) { p.TargetTemp = ptr(t) })
}

// FrostProtection toggles frost protection.
func (s *InfoSet) FrostProtection(on bool) *InfoSet {
	return s.add(func(p *InfoParams) { p.FrostProtectionOn = ptr(on) })
}

// ChildProtection toggles the button lock.
func (s *InfoSet) ChildProtection(on bool) *InfoSet {
	return s.add(func(p *InfoParams) { p.ChildProtection = ptr(on) })
}

// TemperatureOffset corrects the valve's sensor, -10 to 10 degrees.
func (s *InfoSet) TemperatureOffset(offset int8) *InfoSet {
	return s.add(func(p *InfoParams) { p.TempOffset = ptr(offset) })
}

// MinControlTemperature sets the lowest target temperature.
func (s *InfoSet) MinControlTemperature(t uint8) *InfoSet {
	return s.add(func(p *InfoParams) { p.MinControlTemp = ptr(t) })
}

// MaxControlTemperature sets the highest target temperature.
func (s *InfoSet) MaxControlTemperature(t uint8) *InfoSet {
	return s.add(func(p *InfoParams) { p.MaxControlTemp = ptr(t) })
}

// Params applies the mutations and validates the result.
func (s *InfoSet) Params() (*InfoParams, error) {
	p := &InfoParams{}
	for _, m := range s.mutations {
		m(p)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate reports whether Commit would send the request.
func (s *InfoSet) Validate() error {
	_, err := s.Params()
	return err
}

// Commit sends all mutations as one set_device_info request.
func (s *InfoSet) Commit(ctx context.Context) error {
	p, err := s.Params()
	if err != nil {
		return err
	}
	_, err = s.conn.Call(ctx, wire.MethodSetDeviceInfo, p, s.route)
	return err
}

func (p *InfoParams) validate() error {
	if p.empty() {
		return invalidParams("requires at least one property")
	}
	if p.Brightness != nil && (*p.Brightness < 1 || *p.Brightness > 100) {
		return invalidParams("brightness must be between 1 and 100, got %d", *p.Brightness)
	}
	if !p.named {
		white := p.ColorTemp != nil &&
			(*p.ColorTemp != 0 || (p.Hue != nil && *p.Hue == 0 && p.Saturation != nil && *p.Saturation == 100))
		if white && (*p.ColorTemp < 2500 || *p.ColorTemp > 6500) {
			return invalidParams("color temperature must be between 2500 and 6500, got %d", *p.ColorTemp)
		}
		if !white && p.Hue != nil && (*p.Hue < 1 || *p.Hue > 360) {
			return invalidParams("hue must be between 1 and 360, got %d", *p.Hue)
		}
		if !white && p.Saturation != nil && (*p.Saturation < 1 || *p.Saturation > 100) {
			return invalidParams("saturation must be between 1 and 100, got %d", *p.Saturation)
		}
	}
	if p.TempOffset != nil && (*p.TempOffset < -10 || *p.TempOffset > 10) {
		return invalidParams("temperature offset must be between -10 and 10, got %d", *p.TempOffset)
	}
	if p.MinControlTemp != nil && p.MaxControlTemp != nil && *p.MinControlTemp > *p.MaxControlTemp {
		return invalidParams("min control temperature %d exceeds max %d", *p.MinControlTemp, *p.MaxControlTemp)
	}
	return nil
}

func invalidParams(format string, args ...any) error {
	return invalidParamsOp(string(wire.MethodSetDeviceInfo), format, args...)
}

// invalidParamsOp reports a local validation failure. Code stays 0 because
// the device never saw the request.
func invalidParamsOp(op, format string, args ...any) error {
	return errs.Newf(errs.KindInvalidParameters, op, format, args...)
}

func ptr[T any](v T) *T {
	return &v
}
