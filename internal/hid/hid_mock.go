package hid

import (
	"io"
	"sync"
)

// MockHID is an in-memory Device. Emit queues an input report and Reports returns the
// output reports written so far.
type MockHID struct {
	mu      sync.Mutex
	written [][]byte

	reports   chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func NewMockHID() *MockHID {
	return &MockHID{
		reports: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (m *MockHID) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *MockHID) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, append([]byte(nil), p...))
	return len(p), nil
}

func (m *MockHID) Read(p []byte) (int, error) {
	select {
	case r := <-m.reports:
		return copy(p, r), nil
	case <-m.closed:
		return 0, io.EOF
	}
}

// Emit queues an input report (without report ID).
func (m *MockHID) Emit(data []byte) {
	m.reports <- append([]byte(nil), data...)
}

// Reports returns every output report written.
func (m *MockHID) Reports() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.written...)
}
