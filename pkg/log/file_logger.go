package log

import (
	"errors"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// CaptureFileMode is the mode of a new capture file. Captures hold decrypted
// device payloads, so only the owner may read them.
const CaptureFileMode os.FileMode = 0o600

// FileLogger appends events to a capture file. It is safe for concurrent
// use; the interaction client logs from the goroutine of each call.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	encoder *cbor.Encoder
	closed  bool
	err     error
}

// NewFileLogger opens path for appending, creating it with CaptureFileMode.
// Appending lets several runs share one capture that tapo-log reads back in
// order.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, CaptureFileMode)
	if err != nil {
		return nil, err
	}
	return &FileLogger{file: f, encoder: NewEncoder(f)}, nil
}

// Log appends event. A failed write never reaches the caller's request; the
// first one is kept for Err.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if err := l.encoder.Encode(event); err != nil && l.err == nil {
		l.err = err
	}
}

// Err returns the first write error, if any.
func (l *FileLogger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close flushes the capture to disk and closes it. Later Log calls are
// dropped. Closing twice is a no-op.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return errors.Join(l.file.Sync(), l.file.Close())
}

var _ Logger = (*FileLogger)(nil)
