package device

import (
	"encoding/json"
	"fmt"

	"github.com/tapo-protocol/tapo-go/pkg/telemetry"
)

// ChildInfo holds the fields every hub child reports.
type ChildInfo struct {
	DeviceID                string       `json:"device_id"`
	ParentDeviceID          string       `json:"parent_device_id"`
	Model                   string       `json:"model"`
	Type                    string       `json:"type"`
	Category                string       `json:"category"`
	Nickname                Base64String `json:"nickname"`
	Avatar                  string       `json:"avatar"`
	Status                  string       `json:"status"`
	AtLowBattery            bool         `json:"at_low_battery"`
	BindCount               uint32       `json:"bind_count"`
	FwVer                   string       `json:"fw_ver"`
	HwID                    string       `json:"hw_id"`
	HwVer                   string       `json:"hw_ver"`
	OemID                   string       `json:"oem_id"`
	MAC                     string       `json:"mac"`
	Region                  string       `json:"region"`
	Specs                   string       `json:"specs"`
	RSSI                    int16        `json:"rssi"`
	SignalLevel             uint8        `json:"signal_level"`
	JammingRSSI             int16        `json:"jamming_rssi"`
	JammingSignalLevel      uint8        `json:"jamming_signal_level"`
	LastOnboardingTimestamp uint64       `json:"lastOnboardingTimestamp"`
	ReportInterval          uint32       `json:"report_interval"`
	StatusFollowEdge        bool         `json:"status_follow_edge"`
}

// Online reports whether the hub can reach the child.
func (c *ChildInfo) Online() bool {
	return c.Status == "online"
}

// Child is one entry of a hub's child list. The set of implementations is
// closed; use Accept with a ChildVisitor to handle every variant.
type Child interface {
	Base() *ChildInfo
	Accept(v ChildVisitor)
	child()
}

// ChildVisitor handles each Child variant.
type ChildVisitor interface {
	VisitSensor(*SensorChild)
	VisitSwitch(*SwitchChild)
	VisitClimate(*ClimateChild)
	VisitUnsupported(*UnsupportedChild)
}

// SensorKind distinguishes the sensors a hub pairs with.
type SensorKind uint8

const (
	SensorMotion SensorKind = iota + 1
	SensorContact
	SensorWaterLeak
	SensorTemperatureHumidity
)

// String returns the kind name.
func (k SensorKind) String() string {
	switch k {
	case SensorMotion:
		return "motion"
	case SensorContact:
		return "contact"
	case SensorWaterLeak:
		return "water-leak"
	case SensorTemperatureHumidity:
		return "temperature-humidity"
	default:
		return fmt.Sprintf("sensor(%d)", uint8(k))
	}
}

// SensorChild is a T100, T110, T300, T310 or T315. Only the fields of its
// Kind are meaningful.
type SensorChild struct {
	ChildInfo
	Kind SensorKind `json:"-"`

	// T100.
	Detected bool `json:"detected"`

	// T110.
	Open bool `json:"open"`

	// T300.
	InAlarm         bool   `json:"in_alarm"`
	WaterLeakStatus string `json:"water_leak_status"`

	// T310, T315.
	CurrentTemperature          float64                   `json:"current_temp"`
	CurrentTemperatureException float64                   `json:"current_temp_exception"`
	CurrentHumidity             int                       `json:"current_humidity"`
	CurrentHumidityException    int                       `json:"current_humidity_exception"`
	TemperatureUnit             telemetry.TemperatureUnit `json:"temp_unit"`
}

// SwitchChild is an S200B button or S200D dimmer switch.
type SwitchChild struct {
	ChildInfo
}

// ClimateChild is a KE100 thermostatic radiator valve.
type ClimateChild struct {
	ChildInfo
	ChildProtection    bool                      `json:"child_protection"`
	FrostProtectionOn  bool                      `json:"frost_protection_on"`
	Location           string                    `json:"location"`
	CurrentTemperature float64                   `json:"current_temp"`
	TargetTemperature  float64                   `json:"target_temp"`
	TemperatureOffset  int8                      `json:"temp_offset"`
	MinControlTemp     uint8                     `json:"min_control_temp"`
	MaxControlTemp     uint8                     `json:"max_control_temp"`
	TemperatureUnit    telemetry.TemperatureUnit `json:"temp_unit"`
	TRVStates          []string                  `json:"trv_states,omitempty"`
	BatteryPercentage  uint8                     `json:"battery_percentage,omitempty"`
}

// UnsupportedChild is an entry of an unknown model, or one that could not be
// decoded. Raw keeps the entry as listed.
type UnsupportedChild struct {
	ChildInfo
	Raw json.RawMessage

	// Err is the decoding failure, if any.
	Err error
}

func (c *SensorChild) Base() *ChildInfo      { return &c.ChildInfo }
func (c *SwitchChild) Base() *ChildInfo      { return &c.ChildInfo }
func (c *ClimateChild) Base() *ChildInfo     { return &c.ChildInfo }
func (c *UnsupportedChild) Base() *ChildInfo { return &c.ChildInfo }

func (c *SensorChild) Accept(v ChildVisitor)      { v.VisitSensor(c) }
func (c *SwitchChild) Accept(v ChildVisitor)      { v.VisitSwitch(c) }
func (c *ClimateChild) Accept(v ChildVisitor)     { v.VisitClimate(c) }
func (c *UnsupportedChild) Accept(v ChildVisitor) { v.VisitUnsupported(c) }

func (*SensorChild) child()      {}
func (*SwitchChild) child()      {}
func (*ClimateChild) child()     {}
func (*UnsupportedChild) child() {}

var sensorModels = map[string]SensorKind{
	"T100": SensorMotion,
	"T110": SensorContact,
	"T300": SensorWaterLeak,
	"T310": SensorTemperatureHumidity,
	"T315": SensorTemperatureHumidity,
}

// DecodeChild decodes one child list entry. It never fails: entries that do
// not decode become an *UnsupportedChild carrying the error.
func DecodeChild(raw json.RawMessage) Child {
	var head ChildInfo
	if err := json.Unmarshal(raw, &head); err != nil {
		return &UnsupportedChild{Raw: raw, Err: err}
	}

	model := BaseModel(head.Model)
	var c Child
	switch {
	case sensorModels[model] != 0:
		c = &SensorChild{Kind: sensorModels[model]}
	case model == "S200B" || model == "S200D":
		c = &SwitchChild{}
	case model == "KE100":
		c = &ClimateChild{}
	default:
		return &UnsupportedChild{ChildInfo: head, Raw: raw}
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return &UnsupportedChild{ChildInfo: head, Raw: raw, Err: err}
	}
	return c
}

func childKeyOf(c Child) childKey {
	b := c.Base()
	return childKey{id: b.DeviceID, nickname: string(b.Nickname)}
}
