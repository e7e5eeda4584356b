package log

// Logger receives the protocol events of device sessions: handshakes,
// requests, replies and session state changes. A nil Logger is replaced by
// NoopLogger through OrNoop.
type Logger interface {
	// Log is called on the requesting goroutine while the device is held.
	// It must be safe for concurrent use and must not block.
	Log(event Event)
}

// NoopLogger drops every event.
type NoopLogger struct{}

// Log implements Logger.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
