package device

import (
	"fmt"
	"strings"
)

// Preset is a built-in lighting effect of the Tapo app.
type Preset uint8

const (
	PresetAurora Preset = iota
	PresetBubblingCauldron
	PresetCandyCane
	PresetChristmas
	PresetFlicker
	PresetOcean
	PresetRainbow
	PresetSunset
	PresetValentines
)

var presetNames = [...]string{
	PresetAurora:           "Aurora",
	PresetBubblingCauldron: "BubblingCauldron",
	PresetCandyCane:        "CandyCane",
	PresetChristmas:        "Christmas",
	PresetFlicker:          "Flicker",
	PresetOcean:            "Ocean",
	PresetRainbow:          "Rainbow",
	PresetSunset:           "Sunset",
	PresetValentines:       "Valentines",
}

// String returns the preset name.
func (p Preset) String() string {
	if int(p) < len(presetNames) {
		return presetNames[p]
	}
	return fmt.Sprintf("preset(%d)", uint8(p))
}

// Presets lists every preset.
func Presets() []Preset {
	out := make([]Preset, len(presetNames))
	for i := range presetNames {
		out[i] = Preset(i)
	}
	return out
}

// ParsePreset finds a preset by name, ignoring case and spaces.
func ParsePreset(name string) (Preset, error) {
	for i, n := range presetNames {
		if strings.EqualFold(n, strings.ReplaceAll(name, " ", "")) {
			return Preset(i), nil
		}
	}
	return 0, fmt.Errorf("unknown lighting effect preset %q", name)
}

// Effect returns a fresh copy of the preset's effect at full brightness.
func (p Preset) Effect() *LightingEffect {
	e := preset(p)
	e.Name = p.String()
	e.Enable = true
	e.Brightness = 100
	return e
}

func preset(p Preset) *LightingEffect {
	switch p {
	case PresetAurora:
		colors := []HSB{{120, 100, 100}, {240, 100, 100}, {260, 100, 100}, {280, 100, 100}}
		return &LightingEffect{
			ID:                "TapoStrip_1MClvV18i15Jq3bvJVf0eP",
			Type:              EffectSequence,
			DisplayColors:     colors,
			Direction:         ptr[uint8](4),
			Duration:          ptr[uint64](0),
			ExpansionStrategy: ptr[uint8](1),
			RepeatTimes:       ptr[uint8](0),
			Segments:          []uint16{0},
			Sequence:          colors,
			Spread:            ptr[uint8](7),
			Transition:        ptr[uint32](1500),
		}
	case PresetBubblingCauldron:
		return &LightingEffect{
			ID:                "TapoStrip_6DlumDwO2NdfHppy50vJtu",
			Type:              EffectRandom,
			DisplayColors:     []HSB{{100, 100, 100}, {270, 100, 100}},
			Backgrounds:       []HSB{{270, 40, 50}},
			BrightnessRange:   []uint16{50, 100},
			InitStates:        []HSB{{270, 100, 100}},
			Duration:          ptr[uint64](0),
			ExpansionStrategy: ptr[uint8](1),
			FadeOff:           ptr[uint16](1000),
			HueRange:          []uint16{100, 270},
			RandomSeed:        ptr[uint64](24),
			SaturationRange:   []uint16{80, 100},
			Segments:          []uint16{0},
			Transition:        ptr[uint32](200),
		}
	case PresetCandyCane:
		return &LightingEffect{
			ID:                "TapoStrip_6Dy0Nc45vlhFPEzG021Pe9",
			Type:              EffectSequence,
			DisplayColors:     []HSB{{0, 0, 100}, {360, 81, 100}},
			Direction:         ptr[uint8](1),
			Duration:          ptr[uint64](700),
			ExpansionStrategy: ptr[uint8](1),
			RepeatTimes:       ptr[uint8](0),
			Segments:          []uint16{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
			Sequence: []HSB{
				{0, 0, 100}, {0, 0, 100}, {360, 81, 100}, {0, 0, 100},
				{0, 0, 100}, {360, 81, 100}, {360, 81, 100}, {0, 0, 100},
				{0, 0, 100}, {360, 81, 100}, {360, 81, 100}, {360, 81, 100},
				{360, 81, 100}, {0, 0, 100}, {0, 0, 100}, {360, 81, 100},
			},
			Spread:     ptr[uint8](1),
			Transition: ptr[uint32](500),
		}
	case PresetChristmas:
		return &LightingEffect{
			ID:                "TapoStrip_5zkiG6avJ1IbhjiZbRlWvh",
			Type:              EffectRandom,
			DisplayColors:     []HSB{{136, 98, 100}, {350, 97, 100}},
			Backgrounds:       []HSB{{136, 98, 75}, {136, 0, 0}, {350, 0, 100}, {350, 97, 94}},
			BrightnessRange:   []uint16{50, 100},
			InitStates:        []HSB{{136, 0, 100}},
			Duration:          ptr[uint64](5000),
			ExpansionStrategy: ptr[uint8](1),
			FadeOff:           ptr[uint16](2000),
			HueRange:          []uint16{136, 146},
			RandomSeed:        ptr[uint64](100),
			SaturationRange:   []uint16{90, 100},
			Segments:          []uint16{0},
			Transition:        ptr[uint32](0),
		}
	case PresetFlicker:
		return &LightingEffect{
			ID:                "TapoStrip_4HVKmMc6vEzjm36jXaGwMs",
			Type:              EffectRandom,
			DisplayColors:     []HSB{{30, 81, 100}, {40, 100, 100}},
			BrightnessRange:   []uint16{50, 100},
			InitStates:        []HSB{{30, 81, 80}},
			Duration:          ptr[uint64](0),
			ExpansionStrategy: ptr[uint8](1),
			HueRange:          []uint16{30, 40},
			SaturationRange:   []uint16{100, 100},
			Segments:          []uint16{1},
			Transition:        ptr[uint32](0),
			TransitionRange:   []uint32{375, 500},
		}
	case PresetOcean:
		return &LightingEffect{
			ID:                "TapoStrip_0fOleCdwSgR0nfjkReeYfw",
			Type:              EffectSequence,
			DisplayColors:     []HSB{{198, 84, 100}},
			Direction:         ptr[uint8](3),
			Duration:          ptr[uint64](0),
			ExpansionStrategy: ptr[uint8](1),
			RepeatTimes:       ptr[uint8](0),
			Segments:          []uint16{0},
			Sequence:          []HSB{{198, 84, 30}, {198, 70, 30}, {198, 10, 30}},
			Spread:            ptr[uint8](16),
			Transition:        ptr[uint32](2000),
		}
	case PresetRainbow:
		colors := []HSB{{0, 100, 100}, {100, 100, 100}, {200, 100, 100}, {300, 100, 100}}
		return &LightingEffect{
			ID:                "TapoStrip_7CC5y4lsL8pETYvmz7UOpQ",
			Type:              EffectSequence,
			DisplayColors:     colors,
			Direction:         ptr[uint8](1),
			Duration:          ptr[uint64](0),
			ExpansionStrategy: ptr[uint8](1),
			RepeatTimes:       ptr[uint8](0),
			Segments:          []uint16{0},
			Sequence:          colors,
			Spread:            ptr[uint8](12),
			Transition:        ptr[uint32](1500),
		}
	case PresetSunset:
		return &LightingEffect{
			ID:                "TapoStrip_5NiN0Y8GAUD78p4neKk9EL",
			Type:              EffectPulse,
			DisplayColors:     []HSB{{0, 100, 100}, {30, 95, 100}, {30, 0, 100}},
			Direction:         ptr[uint8](1),
			Duration:          ptr[uint64](600),
			ExpansionStrategy: ptr[uint8](2),
			RepeatTimes:       ptr[uint8](1),
			RunTime:           ptr[uint64](0),
			Segments:          []uint16{0},
			Sequence: []HSB{
				{30, 0, 100}, {30, 20, 100}, {30, 50, 99}, {30, 60, 98},
				{30, 70, 97}, {30, 75, 95}, {30, 80, 93}, {30, 90, 90},
				{30, 95, 85}, {30, 100, 80}, {20, 100, 70}, {20, 100, 60},
				{15, 100, 50}, {10, 100, 40}, {0, 100, 30}, {0, 100, 0},
			},
			Spread:     ptr[uint8](1),
			Transition: ptr[uint32](60000),
		}
	default:
		return &LightingEffect{
			ID:                "TapoStrip_2q1Vio9sSjHmaC7JS9d30l",
			Type:              EffectRandom,
			DisplayColors:     []HSB{{340, 20, 100}, {20, 50, 100}, {0, 100, 100}, {340, 40, 100}},
			Backgrounds:       []HSB{{340, 20, 50}, {20, 50, 50}, {0, 100, 50}},
			BrightnessRange:   []uint16{90, 100},
			InitStates:        []HSB{{340, 30, 100}},
			Duration:          ptr[uint64](600),
			ExpansionStrategy: ptr[uint8](1),
			FadeOff:           ptr[uint16](3000),
			HueRange:          []uint16{340, 340},
			RandomSeed:        ptr[uint64](100),
			SaturationRange:   []uint16{30, 40},
			Segments:          []uint16{0},
			Transition:        ptr[uint32](2000),
		}
	}
}
