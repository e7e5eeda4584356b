// Package session negotiates and owns the encrypted session with one device.
//
// Two handshake schemes exist. KLAP derives keys from two exchanged seeds and
// a hash of the credentials. The older passthrough scheme sends an RSA public
// key, receives an AES key wrapped with it, and then logs in to obtain a
// token. A Manager tries KLAP first and falls back to passthrough once when
// the device reports the scheme as unsupported; the outcome is remembered for
// the lifetime of the handle.
//
// A Session value is never modified by a renewal. The Manager builds a new
// Session and swaps it in only after the whole handshake succeeded, so a
// failed renewal leaves the previous session visible to callers.
package session
