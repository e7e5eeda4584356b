package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	err := &Error{Kind: KindSessionExpired, Op: "get_device_info", Code: 9999}

	assert.True(t, errors.Is(err, ErrSessionExpired))
	assert.False(t, errors.Is(err, ErrAuth))

	wrapped := fmt.Errorf("call failed: %w", err)
	assert.True(t, errors.Is(wrapped, ErrSessionExpired))
	assert.Equal(t, KindSessionExpired, KindOf(wrapped))
}

func TestErrorUnwrapsCause(t *testing.T) {
	err := New(KindNetwork, "handshake1", io.ErrUnexpectedEOF)

	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindAuth}, "auth"},
		{&Error{Kind: KindNotFound, Op: "child"}, "child: not found"},
		{&Error{Kind: KindUnknown, Op: "set_device_info", Code: -40000}, "set_device_info: unknown (code -40000)"},
		{Newf(KindInvalidWindow, "energy_data", "start %s is not a quarter start", "2024-02-01"),
			"energy_data: invalid window: start 2024-02-01 is not a quarter start"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestKindClassification(t *testing.T) {
	protocol := []Kind{KindUnknown, KindSessionExpired, KindNotSupported, KindInvalidParameters, KindDeviceBusy}
	for _, k := range protocol {
		assert.True(t, k.IsProtocol(), k.String())
	}
	for _, k := range []Kind{KindNetwork, KindAuth, KindInvalidWindow, KindNotFound} {
		assert.False(t, k.IsProtocol(), k.String())
	}

	assert.Equal(t, KindUnknown, KindOf(io.EOF))
	assert.True(t, IsRetryable(New(KindNetwork, "post", nil)))
	assert.True(t, IsRetryable(New(KindDeviceBusy, "post", nil)))
	assert.False(t, IsRetryable(New(KindAuth, "login_device", nil)))
	assert.False(t, IsRetryable(io.EOF))
}
