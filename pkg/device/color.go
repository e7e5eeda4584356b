package device

import (
	"fmt"
	"strings"
)

// Color is a named colour preset. Whites are colour temperatures; the rest
// are hue and saturation pairs.
type Color uint8

const (
	CoolWhite Color = iota
	Daylight
	Ivory
	WarmWhite
	Incandescent
	Candlelight
	Snow
	GhostWhite
	AliceBlue
	LightGoldenrod
	LemonChiffon
	AntiqueWhite
	Gold
	Peru
	Chocolate
	SandyBrown
	Coral
	Pumpkin
	Tomato
	Vermilion
	OrangeRed
	Pink
	Crimson
	DarkRed
	HotPink
	Smitten
	MediumPurple
	BlueViolet
	Indigo
	LightSkyBlue
	CornflowerBlue
	Ultramarine
	DeepSkyBlue
	Azure
	NavyBlue
	LightTurquoise
	Aquamarine
	Turquoise
	LightGreen
	Lime
	ForestGreen
)

type colorSpec struct {
	name       string
	hue        uint16
	saturation uint16
	colorTemp  uint16
}

var colorSpecs = [...]colorSpec{
	CoolWhite:      {"CoolWhite", 0, 100, 4000},
	Daylight:       {"Daylight", 0, 100, 5000},
	Ivory:          {"Ivory", 0, 100, 6000},
	WarmWhite:      {"WarmWhite", 0, 100, 3000},
	Incandescent:   {"Incandescent", 0, 100, 2700},
	Candlelight:    {"Candlelight", 0, 100, 2500},
	Snow:           {"Snow", 0, 100, 6500},
	GhostWhite:     {"GhostWhite", 0, 100, 6500},
	AliceBlue:      {"AliceBlue", 208, 5, 0},
	LightGoldenrod: {"LightGoldenrod", 54, 28, 0},
	LemonChiffon:   {"LemonChiffon", 54, 19, 0},
	AntiqueWhite:   {"AntiqueWhite", 0, 100, 5500},
	Gold:           {"Gold", 50, 100, 0},
	Peru:           {"Peru", 29, 69, 0},
	Chocolate:      {"Chocolate", 30, 100, 0},
	SandyBrown:     {"SandyBrown", 27, 60, 0},
	Coral:          {"Coral", 16, 68, 0},
	Pumpkin:        {"Pumpkin", 24, 90, 0},
	Tomato:         {"Tomato", 9, 72, 0},
	Vermilion:      {"Vermilion", 4, 77, 0},
	OrangeRed:      {"OrangeRed", 16, 100, 0},
	Pink:           {"Pink", 349, 24, 0},
	Crimson:        {"Crimson", 348, 90, 0},
	DarkRed:        {"DarkRed", 0, 100, 0},
	HotPink:        {"HotPink", 330, 58, 0},
	Smitten:        {"Smitten", 329, 67, 0},
	MediumPurple:   {"MediumPurple", 259, 48, 0},
	BlueViolet:     {"BlueViolet", 271, 80, 0},
	Indigo:         {"Indigo", 274, 100, 0},
	LightSkyBlue:   {"LightSkyBlue", 202, 46, 0},
	CornflowerBlue: {"CornflowerBlue", 218, 57, 0},
	Ultramarine:    {"Ultramarine", 254, 100, 0},
	DeepSkyBlue:    {"DeepSkyBlue", 195, 100, 0},
	Azure:          {"Azure", 210, 100, 0},
	NavyBlue:       {"NavyBlue", 240, 100, 0},
	LightTurquoise: {"LightTurquoise", 180, 26, 0},
	Aquamarine:     {"Aquamarine", 159, 50, 0},
	Turquoise:      {"Turquoise", 174, 71, 0},
	LightGreen:     {"LightGreen", 120, 39, 0},
	Lime:           {"Lime", 75, 100, 0},
	ForestGreen:    {"ForestGreen", 120, 75, 0},
}

// String returns the colour name.
func (c Color) String() string {
	if int(c) < len(colorSpecs) {
		return colorSpecs[c].name
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// HSV returns the hue, saturation and colour temperature sent for c. A
// colour temperature of 0 means hue and saturation apply.
func (c Color) HSV() (hue, saturation, colorTemp uint16) {
	s := colorSpecs[c]
	return s.hue, s.saturation, s.colorTemp
}

// Colors lists every named colour.
func Colors() []Color {
	out := make([]Color, len(colorSpecs))
	for i := range colorSpecs {
		out[i] = Color(i)
	}
	return out
}

// ParseColor finds a colour by name, ignoring case, spaces and dashes.
func ParseColor(name string) (Color, error) {
	norm := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(name))
	for i, s := range colorSpecs {
		if strings.ToLower(s.name) == norm {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("unknown color %q", name)
}
