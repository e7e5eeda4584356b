// Package cipher implements the cryptographic primitives used by the device
// protocol.
//
// Two session schemes exist:
//
//   - KLAP: both sides derive an AES-128-CBC key, an IV prefix and a signing
//     key from a shared secret (the credential hash) and two exchanged seeds.
//     Every request carries a sequence number that is mixed into the IV and
//     the signature.
//   - Passthrough: the client sends an RSA public key, the device answers with
//     an AES-128-CBC key and IV encrypted to it.
//
// All functions here are pure with respect to the sequence number: the caller
// chooses which sequence to use and decides when it advances.
package cipher
