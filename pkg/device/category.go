package device

import (
	"fmt"
	"strings"
)

// Category selects the handle type for a device.
type Category uint8

const (
	CategoryGeneric Category = iota
	CategoryLight
	CategoryColorLight
	CategoryRgbLightStrip
	CategoryRgbicLightStrip
	CategoryPlug
	CategoryPlugEnergyMonitoring
	CategoryPowerStrip
	CategoryPowerStripEnergyMonitoring
	CategoryHub
)

var categoryNames = [...]string{
	CategoryGeneric:                    "generic",
	CategoryLight:                      "light",
	CategoryColorLight:                 "color-light",
	CategoryRgbLightStrip:              "rgb-light-strip",
	CategoryRgbicLightStrip:            "rgbic-light-strip",
	CategoryPlug:                       "plug",
	CategoryPlugEnergyMonitoring:       "plug-energy-monitoring",
	CategoryPowerStrip:                 "power-strip",
	CategoryPowerStripEnergyMonitoring: "power-strip-energy-monitoring",
	CategoryHub:                        "hub",
}

// String returns the category name.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// ParseCategory parses a name returned by String.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return CategoryGeneric, fmt.Errorf("unknown device category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

var modelCategories = map[string]Category{
	"L510":        CategoryLight,
	"L520":        CategoryLight,
	"L610":        CategoryLight,
	"L530":        CategoryColorLight,
	"L530 Series": CategoryColorLight,
	"L535":        CategoryColorLight,
	"L535B":       CategoryColorLight,
	"L630":        CategoryColorLight,
	"L900":        CategoryRgbLightStrip,
	"L920":        CategoryRgbicLightStrip,
	"L930":        CategoryRgbicLightStrip,
	"P100":        CategoryPlug,
	"P105":        CategoryPlug,
	"P110":        CategoryPlugEnergyMonitoring,
	"P110M":       CategoryPlugEnergyMonitoring,
	"P115":        CategoryPlugEnergyMonitoring,
	"P300":        CategoryPowerStrip,
	"P306":        CategoryPowerStrip,
	"P304M":       CategoryPowerStripEnergyMonitoring,
	"P316M":       CategoryPowerStripEnergyMonitoring,
	"H100":        CategoryHub,
}

// BaseModel strips the region suffix from a model string ("P110(EU)" is
// "P110").
func BaseModel(model string) string {
	if i := strings.IndexByte(model, '('); i >= 0 {
		model = model[:i]
	}
	return strings.TrimSpace(model)
}

// CategoryForModel returns the category of a device model. Unknown models
// are CategoryGeneric.
func CategoryForModel(model string) Category {
	if c, ok := modelCategories[BaseModel(model)]; ok {
		return c
	}
	return CategoryGeneric
}
