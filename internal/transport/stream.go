package transport

import (
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// StreamOptions tune a Stream.
type StreamOptions struct {
	// ReadSize is the read buffer size, the largest chunk a single read can deliver.
	ReadSize int
	// EventBuffer is the capacity of the events channel.
	EventBuffer int
}

func (o StreamOptions) withDefaults() StreamOptions {
	if o.ReadSize <= 0 {
		o.ReadSize = 244
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 64
	}
	return o
}

// Stream adapts a blocking io.ReadWriteCloser (serial port, USB pipe, HID bridge) to the
// Transport contract. A reader goroutine turns reads into EventData and a writer goroutine
// performs one write at a time and reports it with EventWriteAck.
type Stream struct {
	name   string
	rw     io.ReadWriteCloser
	events chan Event
	writes chan pendingWrite

	mu  sync.Mutex
	seq uint64

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

// NewStream starts the reader and writer and reports the link as connected.
func NewStream(name string, rw io.ReadWriteCloser, opts StreamOptions) *Stream {
	opts = opts.withDefaults()
	s := &Stream{
		name:   name,
		rw:     rw,
		events: make(chan Event, opts.EventBuffer),
		writes: make(chan pendingWrite, 1),
		done:   make(chan struct{}),
	}
	s.events <- StateEvent(StateConnected, nil)

	s.wg.Add(2)
	go s.readLoop(opts.ReadSize)
	go s.writeLoop()
	go func() {
		s.wg.Wait()
		select {
		case s.events <- StateEvent(StateDisconnected, nil):
		default:
		}
		close(s.events)
	}()
	return s
}

func (s *Stream) Events() <-chan Event { return s.events }

type pendingWrite struct {
	seq   uint64
	frame []byte
}

func (s *Stream) Write(frame []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case s.writes <- pendingWrite{seq: s.seq + 1, frame: frame}:
		s.seq++
		return nil
	default:
		return ErrBusy
	}
}

func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.rw.Close()
	})
	return s.closeErr
}

func (s *Stream) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Stream) readLoop(size int) {
	defer s.wg.Done()
	buf := make([]byte, size)
	for {
		n, err := s.rw.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !s.emit(DataEvent(chunk)) {
				return
			}
		}
		if err == nil {
			continue
		}
		select {
		case <-s.done:
			return
		default:
		}
		if errors.Is(err, io.EOF) {
			log.Info().Str("transport", s.name).Msg("link closed by peer")
			s.emit(StateEvent(StateDisconnected, err))
		} else {
			log.Warn().Err(err).Str("transport", s.name).Msg("read failed")
			s.emit(StateEvent(StateFailed, err))
		}
		_ = s.Close()
		return
	}
}

func (s *Stream) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case w := <-s.writes:
			n, err := s.rw.Write(w.frame)
			if err == nil && n != len(w.frame) {
				err = io.ErrShortWrite
			}
			if err != nil {
				log.Warn().Err(err).Str("transport", s.name).Int("len", len(w.frame)).Msg("write failed")
			}
			if !s.emit(AckEvent(w.seq, err)) {
				return
			}
		}
	}
}
