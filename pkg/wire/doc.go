// Package wire defines the device envelope format.
//
// Every command is a JSON object
//
//	{"method": "...", "params": {...}, "requestTimeMilis": ..., "terminalUUID": "..."}
//
// and every answer is
//
//	{"error_code": 0, "result": {...}}
//
// The JSON is sealed with the session cipher before it goes on the wire:
//
//   - KLAP sessions send the sealed bytes as the HTTP body.
//   - Passthrough sessions base64 the sealed bytes and wrap them in a
//     securePassthrough request whose result carries the sealed answer.
//
// # Child Routing
//
// Commands for a device behind a hub (or a power strip outlet) are nested:
//
//	control_child{device_id, requestData: multipleRequest{requests: [inner]}}
//
// The answer mirrors the nesting, and the inner answer has its own error code.
// Only one level of nesting exists.
package wire
