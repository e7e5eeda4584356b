// Package log provides structured protocol capture for device sessions.
//
// It is separate from operational logging (slog). Capture records every
// handshake step and every command a handle sends, as a machine-readable
// trace for debugging firmware quirks.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For later analysis: write to a capture file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/tapo/capture.tlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at three layers:
//   - Transport: sealed HTTP bodies (FrameEvent)
//   - Envelope: decoded commands and replies (MessageEvent)
//   - Session: handshake and renewal progress (StateChangeEvent)
//
// Errors at any layer use ErrorEventData. Credentials and key material are
// never captured.
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys.
// The tapo-log tool views and summarizes them.
package log
