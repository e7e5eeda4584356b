package discovery

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/binary"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"hash/crc32"
	"net"
	"strconv"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// Packet layout.
const (
	HeaderSize = 16

	packetVersion = 2
	msgTypeProbe  = 0
	opCodeProbe   = 1
	probeFlags    = 17

	// crcSeed fills the checksum field while the checksum is computed.
	crcSeed uint32 = 0x5A6B7C8D

	// probeKeyBits is the size of the throwaway key sent in probes.
	probeKeyBits = 1024
)

var (
	// ErrShortPacket is returned for packets smaller than the header.
	ErrShortPacket = errors.New("discovery: packet shorter than header")

	// ErrBadVersion is returned for packets of an unknown version.
	ErrBadVersion = errors.New("discovery: unsupported packet version")

	// ErrBadLength is returned when the header size disagrees with the body.
	ErrBadLength = errors.New("discovery: payload length mismatch")
)

// Encode frames payload behind a discovery header. The checksum covers the
// whole packet with the seed in the checksum field.
func Encode(payload []byte, serial uint32) []byte {
	b := make([]byte, HeaderSize+len(payload))
	b[0] = packetVersion
	b[1] = msgTypeProbe
	binary.BigEndian.PutUint16(b[2:4], opCodeProbe)
	binary.BigEndian.PutUint16(b[4:6], uint16(len(payload)))
	b[6] = probeFlags
	b[7] = 0
	binary.BigEndian.PutUint32(b[8:12], serial)
	binary.BigEndian.PutUint32(b[12:16], crcSeed)
	copy(b[HeaderSize:], payload)

	binary.BigEndian.PutUint32(b[12:16], crc32.ChecksumIEEE(b))
	return b
}

type probeParams struct {
	RSAKey string `json:"rsa_key"`
}

type probePayload struct {
	Params probeParams `json:"params"`
}

// BuildProbe builds a probe carrying publicKeyPEM, a PKCS#1 public key.
func BuildProbe(publicKeyPEM string, serial uint32) ([]byte, error) {
	payload, err := json.Marshal(probePayload{Params: probeParams{RSAKey: publicKeyPEM}})
	if err != nil {
		return nil, err
	}
	return Encode(payload, serial), nil
}

// NewProbe builds a probe with a fresh key and a random serial.
func NewProbe() ([]byte, error) {
	key, err := rsa.GenerateKey(rand.Reader, probeKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate probe key: %w", err)
	}
	block := &pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey)}

	var serial [4]byte
	if _, err := rand.Read(serial[:]); err != nil {
		return nil, err
	}
	return BuildProbe(string(pem.EncodeToMemory(block)), binary.BigEndian.Uint32(serial[:]))
}

// EncryptionScheme is the mgt_encrypt_schm block of a reply.
type EncryptionScheme struct {
	IsSupportHTTPS bool   `json:"is_support_https"`
	EncryptType    string `json:"encrypt_type"`
	HTTPPort       int    `json:"http_port"`
	LV             int    `json:"lv,omitempty"`
}

// Summary is what a device announces about itself.
type Summary struct {
	DeviceID          string           `json:"device_id"`
	Owner             string           `json:"owner"`
	DeviceType        string           `json:"device_type"`
	DeviceModel       string           `json:"device_model"`
	IP                string           `json:"ip"`
	MAC               string           `json:"mac"`
	IsSupportIOTCloud bool             `json:"is_support_iot_cloud"`
	FactoryDefault    bool             `json:"factory_default"`
	Encryption        EncryptionScheme `json:"mgt_encrypt_schm"`
}

// Variant returns the session scheme the device announced, or
// wire.VariantUnknown.
func (s *Summary) Variant() wire.Variant {
	switch s.Encryption.EncryptType {
	case "KLAP":
		return wire.VariantKLAP
	case "AES":
		return wire.VariantPassthrough
	default:
		return wire.VariantUnknown
	}
}

// Address returns the host to connect to, with the port when it is not 80.
func (s *Summary) Address() string {
	if p := s.Encryption.HTTPPort; p != 0 && p != 80 {
		return net.JoinHostPort(s.IP, strconv.Itoa(p))
	}
	return s.IP
}

type reply struct {
	ErrorCode wire.Status `json:"error_code"`
	Result    *Summary    `json:"result"`
}

// ParseReply decodes a device's answer to a probe.
func ParseReply(b []byte) (*Summary, error) {
	const op = "discovery reply"
	if len(b) < HeaderSize {
		return nil, errs.New(errs.KindUnknown, op, ErrShortPacket)
	}
	if b[0] != packetVersion {
		return nil, errs.New(errs.KindUnknown, op, ErrBadVersion)
	}
	body := b[HeaderSize:]
	if n := int(binary.BigEndian.Uint16(b[4:6])); n != len(body) {
		return nil, errs.New(errs.KindUnknown, op, fmt.Errorf("%w: header %d, body %d", ErrBadLength, n, len(body)))
	}

	var r reply
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, errs.New(errs.KindUnknown, op, err)
	}
	if err := r.ErrorCode.Err(op); err != nil {
		return nil, err
	}
	if r.Result == nil || r.Result.DeviceModel == "" || r.Result.IP == "" {
		return nil, errs.Newf(errs.KindUnknown, op, "reply lacks device model or address")
	}
	return r.Result, nil
}
