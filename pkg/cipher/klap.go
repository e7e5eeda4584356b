package cipher

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // mandated by the device protocol
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// SeedSize is the length of the seeds exchanged during the KLAP handshake.
const SeedSize = 16

// SignatureSize is the length of the signature prefixed to every KLAP payload.
const SignatureSize = sha256.Size

// AuthHash returns the credential hash shared by client and device:
// sha256(sha1(username) || sha1(password)).
func AuthHash(username, password string) []byte {
	u := sha1.Sum([]byte(username)) //nolint:gosec
	p := sha1.Sum([]byte(password)) //nolint:gosec
	return sum256(u[:], p[:])
}

// LocalSeed returns a fresh random client seed.
func LocalSeed() ([]byte, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("cipher: generate seed: %w", err)
	}
	return seed, nil
}

// ServerProof is the hash the device returns in handshake1 to prove it knows
// the credentials.
func ServerProof(localSeed, remoteSeed, authHash []byte) []byte {
	return sum256(localSeed, remoteSeed, authHash)
}

// ClientProof is the hash the client sends in handshake2.
func ClientProof(localSeed, remoteSeed, authHash []byte) []byte {
	return sum256(remoteSeed, localSeed, authHash)
}

// KlapCipher holds the key material derived for one KLAP session.
type KlapCipher struct {
	key  []byte
	iv   []byte
	sig  []byte
	seq0 int32
}

// NewKlapCipher derives the session keys from both seeds and the credential
// hash.
func NewKlapCipher(localSeed, remoteSeed, authHash []byte) *KlapCipher {
	h := make([]byte, 0, len(localSeed)+len(remoteSeed)+len(authHash))
	h = append(h, localSeed...)
	h = append(h, remoteSeed...)
	h = append(h, authHash...)

	ivHash := sum256([]byte("iv"), h)
	return &KlapCipher{
		key:  sum256([]byte("lsk"), h)[:16],
		iv:   ivHash[:12],
		sig:  sum256([]byte("ldk"), h)[:28],
		seq0: int32(binary.BigEndian.Uint32(ivHash[len(ivHash)-4:])), //nolint:gosec // wraps like the device
	}
}

// InitialSeq returns the sequence number agreed at handshake time. The first
// request uses InitialSeq()+1.
func (c *KlapCipher) InitialSeq() int32 {
	return c.seq0
}

// Encrypt seals plaintext for the given sequence number. The output is the
// 32-byte signature followed by the ciphertext.
func (c *KlapCipher) Encrypt(seq int32, plaintext []byte) ([]byte, error) {
	ct, err := cbcEncrypt(c.key, c.ivFor(seq), plaintext)
	if err != nil {
		return nil, err
	}
	sig := sum256(c.sig, beSeq(seq), ct)
	return append(sig, ct...), nil
}

// Decrypt opens a payload produced for the given sequence number. The
// signature prefix is skipped, not verified.
func (c *KlapCipher) Decrypt(seq int32, payload []byte) ([]byte, error) {
	if len(payload) <= SignatureSize {
		return nil, ErrShortCiphertext
	}
	return cbcDecrypt(c.key, c.ivFor(seq), payload[SignatureSize:])
}

// Sign returns the signature a payload for seq must carry.
func (c *KlapCipher) Sign(seq int32, ciphertext []byte) []byte {
	return sum256(c.sig, beSeq(seq), ciphertext)
}

func (c *KlapCipher) ivFor(seq int32) []byte {
	iv := make([]byte, 0, 16)
	iv = append(iv, c.iv...)
	return append(iv, beSeq(seq)...)
}

func beSeq(seq int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(seq)) //nolint:gosec
	return b
}

func sum256(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
