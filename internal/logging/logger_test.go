package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapo-protocol/tapo-go/internal/config"
	"github.com/tapo-protocol/tapo-go/pkg/log"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "address", "10.0.0.2")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "10.0.0.2", rec["address"])
}

func TestProtocolLogger(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		l, closeFn, err := ProtocolLogger(config.LoggingConfig{Level: "info"}, nil)
		require.NoError(t, err)
		assert.IsType(t, log.NoopLogger{}, l)
		assert.NoError(t, closeFn())
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "capture.cbor")
		l, closeFn, err := ProtocolLogger(config.LoggingConfig{Level: "info", ProtocolLog: path}, nil)
		require.NoError(t, err)
		assert.IsType(t, &log.FileLogger{}, l)
		require.NoError(t, closeFn())
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("FileAndDebug", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "capture.cbor")
		l, closeFn, err := ProtocolLogger(config.LoggingConfig{Level: "debug", ProtocolLog: path}, slog.New(slog.DiscardHandler))
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &log.MultiLogger{}, l)
	})
}
