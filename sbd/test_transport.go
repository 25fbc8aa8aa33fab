package sbd

import (
	"io"
	"sync"
)

// TestTransport is a test helper that simulates a blocking transport using
// channels. Loop's reader goroutine continuously reads from the transport,
// and reads must block until data is available, the way a real serial port
// would, rather than busy-spinning on empty reads.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	written  [][]byte
	closed   bool
}

// NewTestTransport creates a new test transport.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 32),
	}
}

// Write records the bytes written so tests can assert on wire traffic.
func (t *TestTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]byte, len(p))
	copy(cp, p)
	t.written = append(t.written, cp)
	return len(p), nil
}

// Read blocks until data is queued via SendData, or Close is called.
func (t *TestTransport) Read(p []byte) (int, error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

// Close unblocks any pending Read with io.EOF.
func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues bytes to be returned by the next Read, simulating
// incoming data from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Written returns a copy of every byte slice passed to Write, in order.
func (t *TestTransport) Written() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.written))
	copy(out, t.written)
	return out
}
