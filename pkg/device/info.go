package device

import (
	"encoding/base64"
	"encoding/json"
)

// Base64String is a string the device sends base64 encoded, such as a
// nickname or SSID. Values that are not valid base64 are kept as sent.
type Base64String string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Base64String) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if dec, err := base64.StdEncoding.DecodeString(raw); err == nil {
		*s = Base64String(dec)
		return nil
	}
	*s = Base64String(raw)
	return nil
}

// Encode returns the base64 form sent to the device.
func (s Base64String) Encode() string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// String returns the decoded value.
func (s Base64String) String() string {
	return string(s)
}

// Info is the get_device_info result. Fields that only some categories
// report are pointers or left zero.
type Info struct {
	DeviceID           string       `json:"device_id"`
	Type               string       `json:"type"`
	Model              string       `json:"model"`
	HwID               string       `json:"hw_id"`
	HwVer              string       `json:"hw_ver"`
	FwID               string       `json:"fw_id"`
	FwVer              string       `json:"fw_ver"`
	OemID              string       `json:"oem_id"`
	MAC                string       `json:"mac"`
	IP                 string       `json:"ip"`
	SSID               Base64String `json:"ssid"`
	SignalLevel        uint8        `json:"signal_level"`
	RSSI               int16        `json:"rssi"`
	Specs              string       `json:"specs"`
	Lang               string       `json:"lang"`
	DeviceOn           *bool        `json:"device_on,omitempty"`
	OnTime             *uint64      `json:"on_time,omitempty"`
	Overheated         bool         `json:"overheated"`
	Nickname           Base64String `json:"nickname"`
	Avatar             string       `json:"avatar"`
	HasSetLocationInfo bool         `json:"has_set_location_info"`
	Region             string       `json:"region,omitempty"`
	Latitude           *int64       `json:"latitude,omitempty"`
	Longitude          *int64       `json:"longitude,omitempty"`
	TimeDiff           *int64       `json:"time_diff,omitempty"`

	// Lights.
	Brightness               *uint8  `json:"brightness,omitempty"`
	ColorTemp                *uint16 `json:"color_temp,omitempty"`
	Hue                      *uint16 `json:"hue,omitempty"`
	Saturation               *uint16 `json:"saturation,omitempty"`
	DynamicLightEffectEnable bool    `json:"dynamic_light_effect_enable,omitempty"`
	DynamicLightEffectID     string  `json:"dynamic_light_effect_id,omitempty"`

	// Plugs.
	OverheatStatus    string `json:"overheat_status,omitempty"`
	PowerProtection   string `json:"power_protection_status,omitempty"`
	AutoOffStatus     string `json:"auto_off_status,omitempty"`
	AutoOffRemainTime uint64 `json:"auto_off_remain_time,omitempty"`

	// Hubs.
	InAlarm       bool   `json:"in_alarm,omitempty"`
	InAlarmSource string `json:"in_alarm_source,omitempty"`
}

// IsOn reports whether the device reports itself powered on.
func (i *Info) IsOn() bool {
	return i.DeviceOn != nil && *i.DeviceOn
}

// Category returns the category for the reported model.
func (i *Info) Category() Category {
	return CategoryForModel(i.Model)
}
