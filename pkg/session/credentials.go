package session

import (
	"encoding/base64"

	"github.com/tapo-protocol/tapo-go/pkg/cipher"
)

// Credentials are the account identifier and secret used during handshake.
type Credentials struct {
	Username string
	Password string
}

// String redacts the password.
func (c Credentials) String() string {
	return "Credentials{Username: " + c.Username + ", Password: [redacted]}"
}

// GoString redacts the password in %#v output.
func (c Credentials) GoString() string {
	return c.String()
}

func (c Credentials) authHash() []byte {
	return cipher.AuthHash(c.Username, c.Password)
}

type loginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) loginParams() loginParams {
	return loginParams{
		Username: base64.StdEncoding.EncodeToString([]byte(cipher.UsernameDigest(c.Username))),
		Password: base64.StdEncoding.EncodeToString([]byte(c.Password)),
	}
}
