package wire

// Method is a protocol method name.
type Method string

// Handshake and transport methods.
const (
	MethodComponentNego     Method = "component_nego"
	MethodHandshake         Method = "handshake"
	MethodLoginDevice       Method = "login_device"
	MethodSecurePassthrough Method = "securePassthrough"
	MethodControlChild      Method = "control_child"
	MethodMultipleRequest   Method = "multipleRequest"
)

// Device methods.
const (
	MethodGetDeviceInfo       Method = "get_device_info"
	MethodSetDeviceInfo       Method = "set_device_info"
	MethodGetDeviceUsage      Method = "get_device_usage"
	MethodDeviceReset         Method = "device_reset"
	MethodDeviceReboot        Method = "device_reboot"
	MethodSetLightingEffect   Method = "set_lighting_effect"
	MethodGetEnergyUsage      Method = "get_energy_usage"
	MethodGetEnergyData       Method = "get_energy_data"
	MethodGetPowerData        Method = "get_power_data"
	MethodGetCurrentPower     Method = "get_current_power"
	MethodGetChildDeviceList  Method = "get_child_device_list"
	MethodGetChildComponents  Method = "get_child_device_component_list"
	MethodGetTriggerLogs      Method = "get_trigger_logs"
	MethodGetTempHumidity     Method = "get_temp_humidity_records"
	MethodPlayAlarm           Method = "play_alarm"
	MethodStopAlarm           Method = "stop_alarm"
	MethodGetSupportAlarmList Method = "get_support_alarm_type_list"
)

// String returns the method name.
func (m Method) String() string {
	return string(m)
}
