package transport

import (
	"sync"
)

// Mock is an in-memory Transport driven by the test: it records writes and lets the
// caller inject chunks, acks and state changes.
type Mock struct {
	mu      sync.Mutex
	written [][]byte
	acked   uint64
	failN   int

	events    chan Event
	writes    chan []byte
	closeOnce sync.Once
}

func NewMock() *Mock {
	return &Mock{
		events: make(chan Event, 256),
		writes: make(chan []byte, 256),
	}
}

func (m *Mock) Events() <-chan Event { return m.events }

// Write records frame. The next FailWrites(n) calls are rejected at initiation.
func (m *Mock) Write(frame []byte) error {
	m.mu.Lock()
	if m.failN > 0 {
		m.failN--
		m.mu.Unlock()
		return ErrBusy
	}
	cp := append([]byte(nil), frame...)
	m.written = append(m.written, cp)
	m.mu.Unlock()

	m.writes <- cp
	return nil
}

func (m *Mock) Close() error {
	m.closeOnce.Do(func() { close(m.events) })
	return nil
}

// FailWrites makes the next n writes fail to initiate.
func (m *Mock) FailWrites(n int) {
	m.mu.Lock()
	m.failN = n
	m.mu.Unlock()
}

// Writes delivers each successfully initiated frame.
func (m *Mock) Writes() <-chan []byte { return m.writes }

// Written returns every frame written so far.
func (m *Mock) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.written...)
}

func (m *Mock) SetState(s State) { m.events <- StateEvent(s, nil) }

func (m *Mock) Receive(chunk []byte) { m.events <- DataEvent(append([]byte(nil), chunk...)) }

// Ack acknowledges the oldest unacknowledged write, even one made before a reconnect.
func (m *Mock) Ack(err error) {
	m.mu.Lock()
	m.acked++
	seq := m.acked
	m.mu.Unlock()
	m.events <- AckEvent(seq, err)
}
