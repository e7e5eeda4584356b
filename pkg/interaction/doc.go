// Package interaction issues commands to a device through its live session.
//
// A Client belongs to one device handle. Calls on the same Client are
// serialized because the session's sequence counter advances per reply; calls
// on different Clients run in parallel. Hub children route through the hub's
// Client and therefore share its serialization.
//
// # Session expiry
//
// When a call fails because the session expired (an error_code of 9999 or
// -1101, or HTTP 401/403 on a KLAP request) the Client renews the session once
// and repeats the call once. A second expiry is returned to the caller. Every
// other failure, including network timeouts, is returned without retry.
//
// # Usage
//
//	c := interaction.NewClient(interaction.ClientConfig{Sessions: mgr})
//	raw, err := c.Call(ctx, wire.MethodGetDeviceInfo, nil, wire.Routing{})
//
//	var info DeviceInfo
//	err = c.CallInto(ctx, wire.MethodGetDeviceInfo, nil, wire.ToChild(id), &info)
package interaction
