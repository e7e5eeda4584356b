package device

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EffectType is how a lighting effect animates its colours.
type EffectType string

const (
	EffectSequence EffectType = "sequence"
	EffectRandom   EffectType = "random"
	EffectPulse    EffectType = "pulse"
	EffectStatic   EffectType = "static"
)

// HSB is a hue, saturation and brightness triple.
type HSB [3]uint16

// LightingEffect is an animated program for light strips. Optional fields
// are pointers so that zero values are still sent.
type LightingEffect struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       EffectType `json:"type"`
	Custom     bool       `json:"custom"`
	Enable     bool       `json:"enable"`
	Brightness uint8      `json:"brightness"`

	DisplayColors []HSB `json:"display_colors"`

	Backgrounds       []HSB    `json:"backgrounds,omitempty"`
	BrightnessRange   []uint16 `json:"brightness_range,omitempty"`
	Direction         *uint8   `json:"direction,omitempty"`
	Duration          *uint64  `json:"duration,omitempty"`
	ExpansionStrategy *uint8   `json:"expansion_strategy,omitempty"`
	FadeOff           *uint16  `json:"fadeoff,omitempty"`
	HueRange          []uint16 `json:"hue_range,omitempty"`
	InitStates        []HSB    `json:"init_states,omitempty"`
	RandomSeed        *uint64  `json:"random_seed,omitempty"`
	RepeatTimes       *uint8   `json:"repeat_times,omitempty"`
	RunTime           *uint64  `json:"run_time,omitempty"`
	SaturationRange   []uint16 `json:"saturation_range,omitempty"`
	SegmentLength     *uint8   `json:"segment_length,omitempty"`
	Segments          []uint16 `json:"segments,omitempty"`
	Sequence          []HSB    `json:"sequence,omitempty"`
	Spread            *uint8   `json:"spread,omitempty"`
	Transition        *uint32  `json:"transition,omitempty"`
	TransitionRange   []uint32 `json:"transition_range,omitempty"`
	TransSequence     []uint16 `json:"trans_sequence,omitempty"`
}

// NewLightingEffect starts a custom effect with a fresh id.
func NewLightingEffect(name string, typ EffectType, brightness uint8, colors ...HSB) *LightingEffect {
	return &LightingEffect{
		ID:            newEffectID(),
		Name:          name,
		Type:          typ,
		Custom:        true,
		Enable:        true,
		Brightness:    brightness,
		DisplayColors: colors,
	}
}

func newEffectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Validate checks the fields the device rejects silently.
func (e *LightingEffect) Validate() error {
	const op = "set_lighting_effect"
	if e.ID == "" || e.Name == "" {
		return invalidParamsOp(op, "effect requires an id and a name")
	}
	if e.Brightness < 1 || e.Brightness > 100 {
		return invalidParamsOp(op, "brightness must be between 1 and 100, got %d", e.Brightness)
	}
	if len(e.DisplayColors) == 0 {
		return invalidParamsOp(op, "effect requires at least one display color")
	}
	for _, c := range append(append([]HSB{}, e.DisplayColors...), e.Sequence...) {
		if c[0] > 360 || c[1] > 100 || c[2] > 100 {
			return invalidParamsOp(op, "color %v out of range", c)
		}
	}
	if e.Type == EffectSequence && len(e.Sequence) == 0 && e.Custom {
		return invalidParamsOp(op, "sequence effect requires a sequence")
	}
	return nil
}

// flag is a bool the device encodes as 0 or 1.
type flag bool

func (f flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *flag) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "1", "true":
		*f = true
	case "0", "false", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag %s", b)
	}
	return nil
}

// MarshalJSON encodes custom and enable as 0 or 1.
func (e LightingEffect) MarshalJSON() ([]byte, error) {
	type alias LightingEffect
	return json.Marshal(struct {
		alias
		Custom flag `json:"custom"`
		Enable flag `json:"enable"`
	}{alias(e), flag(e.Custom), flag(e.Enable)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *LightingEffect) UnmarshalJSON(b []byte) error {
	type alias LightingEffect
	v := struct {
		*alias
		Custom flag `json:"custom"`
		Enable flag `json:"enable"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	e.Custom, e.Enable = bool(v.Custom), bool(v.Enable)
	return nil
}

// SegmentEffectType is the animation of an RGBIC segment effect.
type SegmentEffectType string

const (
	SegmentCirculating SegmentEffectType = "circulating"
	SegmentBreathe     SegmentEffectType = "breathe"
	SegmentChasing     SegmentEffectType = "chasing"
	SegmentFlicker     SegmentEffectType = "flicker"
	SegmentBloom       SegmentEffectType = "bloom"
	SegmentStacking    SegmentEffectType = "stacking"
	SegmentNone        SegmentEffectType = "none"
)

// HSBT is hue, saturation, brightness and colour temperature of a segment.
type HSBT [4]uint16

// SegmentEffect paints individual segments of an RGBIC strip.
type SegmentEffect struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Type          SegmentEffectType `json:"type"`
	Custom        bool              `json:"custom"`
	Enable        bool              `json:"enable"`
	Brightness    uint8             `json:"brightness"`
	DisplayColors []HSBT            `json:"display_colors"`
	Segments      []uint16          `json:"segments,omitempty"`
	States        []HSBT            `json:"states,omitempty"`
}

// NewSegmentEffect starts a custom segment effect with a fresh id.
func NewSegmentEffect(name string, typ SegmentEffectType, brightness uint8, segments []uint16, states []HSBT) *SegmentEffect {
	return &SegmentEffect{
		ID:            newEffectID(),
		Name:          name,
		Type:          typ,
		Custom:        true,
		Enable:        true,
		Brightness:    brightness,
		DisplayColors: states,
		Segments:      segments,
		States:        states,
	}
}

// Validate checks the effect before it is sent.
func (e *SegmentEffect) Validate() error {
	const op = "segment_effect"
	if e.Brightness < 1 || e.Brightness > 100 {
		return invalidParamsOp(op, "brightness must be between 1 and 100, got %d", e.Brightness)
	}
	if e.Custom && (len(e.Segments) == 0 || len(e.States) == 0) {
		return invalidParamsOp(op, "custom segment effect requires segments and states")
	}
	return nil
}

// MarshalJSON encodes the flags as 0 or 1 and tags custom effects with the
// strip device type.
func (e SegmentEffect) MarshalJSON() ([]byte, error) {
	type alias SegmentEffect
	var deviceType string
	if e.Custom {
		deviceType = "strip"
	}
	return json.Marshal(struct {
		alias
		Custom     flag   `json:"custom"`
		Enable     flag   `json:"enable"`
		DeviceType string `json:"deviceType,omitempty"`
	}{alias(e), flag(e.Custom), flag(e.Enable), deviceType})
}
