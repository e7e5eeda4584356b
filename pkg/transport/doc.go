// Package transport carries sealed envelopes to a device over HTTP.
//
// Devices expose a small set of endpoints on port 80:
//
//	POST /app                    passthrough handshake and securePassthrough requests
//	POST /app/handshake1         KLAP seed exchange
//	POST /app/handshake2         KLAP client proof
//	POST /app/request?seq=N      KLAP requests
//
// The transport knows nothing about encryption. It posts a body, applies a
// bounded timeout, and hands back the status code, body and cookies. Network
// failures (dial errors, timeouts, cancellation) are reported as errs.KindNetwork
// and are never retried here; retry policy belongs to the caller.
package transport
