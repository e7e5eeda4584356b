// Package discovery finds devices on the local network.
//
// A scan sends a small UDP probe to port 20002 of a broadcast or unicast
// address every few seconds. The probe is a 16-byte header followed by a JSON
// payload carrying a throwaway RSA public key:
//
//	byte 0      version (2)
//	byte 1      message type
//	bytes 2-3   op code
//	bytes 4-5   payload length
//	byte 6      flags
//	byte 7      reserved
//	bytes 8-11  serial
//	bytes 12-15 CRC32 of the packet, computed with a fixed seed in this field
//
// Devices answer with the same header and a JSON summary: model, address and
// the session scheme they expect. Each answer becomes one item of a Stream.
// Items are produced lazily while the scan runs and each one either carries a
// Result or the error for that reply alone, so one malformed answer never
// ends the scan. Readable replies are deduplicated by source address; a source
// whose reply could not be read is still reported when it answers again.
//
// A Result connects lazily: no session is established until Result.Connect
// is called, and the announced scheme skips detection at that point.
package discovery
