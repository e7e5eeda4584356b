// Package logging builds the loggers of the command-line tools.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tapo-protocol/tapo-go/internal/config"
	"github.com/tapo-protocol/tapo-go/pkg/log"
)

// New creates an operational logger. A nil w selects the configured output.
func New(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
		if strings.EqualFold(cfg.Output, "stdout") {
			w = os.Stdout
		}
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name to slog.Level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ProtocolLogger opens the capture file named in cfg. With no file it
// returns a no-op logger. Debug level additionally mirrors events to
// logger. The returned close function is never nil.
func ProtocolLogger(cfg config.LoggingConfig, logger *slog.Logger) (log.Logger, func() error, error) {
	var loggers []log.Logger
	closeFn := func() error { return nil }

	if cfg.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fl)
		closeFn = fl.Close
	}
	if logger != nil && ParseLevel(cfg.Level) == slog.LevelDebug {
		loggers = append(loggers, log.NewSlogAdapter(logger))
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return log.NewMultiLogger(loggers...), closeFn, nil
	}
}
