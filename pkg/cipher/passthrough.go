package cipher

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // mandated by the device protocol
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
)

// KeyBits is the RSA modulus size the devices accept.
const KeyBits = 1024

// sessionKeySize is key (16) plus IV (16).
const sessionKeySize = 32

// ErrInvalidPEM is returned when a PEM block cannot be parsed as an RSA public key.
var ErrInvalidPEM = errors.New("cipher: invalid RSA public key PEM")

// KeyPair is the client's RSA key pair for the passthrough handshake and the
// discovery probe.
type KeyPair struct {
	priv *rsa.PrivateKey
}

// GenerateKeyPair creates a new RSA key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, fmt.Errorf("cipher: generate RSA key: %w", err)
	}
	return &KeyPair{priv: priv}, nil
}

// PublicKeyPEM encodes the public key as a PKIX "PUBLIC KEY" PEM block, the
// form the handshake request expects.
func (k *KeyPair) PublicKeyPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&k.priv.PublicKey)
	if err != nil {
		return "", fmt.Errorf("cipher: marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// PublicKeyPKCS1PEM encodes the public key as a PKCS#1 "RSA PUBLIC KEY" PEM
// block, the form the discovery probe expects.
func (k *KeyPair) PublicKeyPKCS1PEM() string {
	der := x509.MarshalPKCS1PublicKey(&k.priv.PublicKey)
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: der}))
}

// DecryptSessionKey decrypts the base64 key blob returned by the device and
// builds the session cipher from it.
func (k *KeyPair) DecryptSessionKey(b64 string) (*PassthroughCipher, error) {
	blob, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("cipher: decode session key: %w", err)
	}
	buf, err := rsa.DecryptPKCS1v15(nil, k.priv, blob) //nolint:staticcheck // mandated by the device protocol
	if err != nil {
		return nil, fmt.Errorf("cipher: decrypt session key: %w", err)
	}
	if len(buf) != sessionKeySize {
		return nil, fmt.Errorf("cipher: session key is %d bytes, want %d", len(buf), sessionKeySize)
	}
	return NewPassthroughCipher(buf[:16], buf[16:])
}

// ParsePublicKeyPEM parses a PKIX or PKCS#1 RSA public key.
func ParsePublicKeyPEM(s string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(s))
	if block == nil {
		return nil, ErrInvalidPEM
	}
	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPEM, err)
		}
		pub, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, ErrInvalidPEM
		}
		return pub, nil
	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPEM, err)
		}
		return pub, nil
	default:
		return nil, ErrInvalidPEM
	}
}

// EncryptSessionKey is the device side of the passthrough key exchange: it
// encrypts key and iv to the client's public key and base64-encodes the result.
func EncryptSessionKey(pub *rsa.PublicKey, key, iv []byte) (string, error) {
	blob := make([]byte, 0, sessionKeySize)
	blob = append(blob, key...)
	blob = append(blob, iv...)
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, pub, blob) //nolint:staticcheck
	if err != nil {
		return "", fmt.Errorf("cipher: encrypt session key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// UsernameDigest is the hex sha1 of the username sent in login_device.
func UsernameDigest(username string) string {
	sum := sha1.Sum([]byte(username)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// PassthroughCipher is the AES-128-CBC cipher of a passthrough session.
// The IV is fixed for the lifetime of the session.
type PassthroughCipher struct {
	key []byte
	iv  []byte
}

// NewPassthroughCipher builds a cipher from a 16-byte key and IV.
func NewPassthroughCipher(key, iv []byte) (*PassthroughCipher, error) {
	if len(key) != 16 || len(iv) != 16 {
		return nil, ErrInvalidKeyLength
	}
	return &PassthroughCipher{key: key, iv: iv}, nil
}

// Encrypt seals plaintext.
func (c *PassthroughCipher) Encrypt(plaintext []byte) ([]byte, error) {
	return cbcEncrypt(c.key, c.iv, plaintext)
}

// Decrypt opens ciphertext.
func (c *PassthroughCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	return cbcDecrypt(c.key, c.iv, ciphertext)
}
