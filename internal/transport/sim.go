package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/seagrayinc/bfble/internal/frame"
	"github.com/seagrayinc/bfble/pkg/bafang"
)

// SimOptions configure a Sim.
type SimOptions struct {
	// MTU is the largest chunk delivered per EventData. Replies are split to exercise
	// reassembly the way radio notifications would.
	MTU int
	// Latency delays each reply.
	Latency time.Duration
	// Checksum seals reply frames.
	Checksum frame.ChecksumPolicy
}

// Sim is a Transport that behaves like a controller and meter pair. Reads are answered
// from an in-memory copy of each record's payload and writes are applied to it and
// echoed back as single-field update frames.
type Sim struct {
	opts SimOptions

	mu       sync.Mutex
	payloads map[bafang.RecordType][]byte

	events    chan Event
	requests  chan pendingWrite
	seq       uint64
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewSim(opts SimOptions) *Sim {
	if opts.MTU <= 0 {
		opts.MTU = 20
	}
	s := &Sim{
		opts:     opts,
		payloads: make(map[bafang.RecordType][]byte),
		events:   make(chan Event, 256),
		requests: make(chan pendingWrite, 1),
		done:     make(chan struct{}),
	}
	for _, rec := range []bafang.Record{bafang.SampleController(), bafang.SampleMeter(), bafang.SamplePersonalized()} {
		payload, err := bafang.Encode(rec)
		if err != nil {
			panic(fmt.Sprintf("sim: encode %s: %v", rec.RecordType(), err))
		}
		s.payloads[rec.RecordType()] = payload
	}
	for t, size := range bafang.DefaultSizes() {
		if _, ok := s.payloads[t]; !ok {
			p := make([]byte, size)
			for i := range p {
				p[i] = byte(i)
			}
			s.payloads[t] = p
		}
	}

	s.events <- StateEvent(StateConnected, nil)
	s.wg.Add(1)
	go s.loop()
	return s
}

func (s *Sim) Events() <-chan Event { return s.events }

func (s *Sim) Write(f []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case s.requests <- pendingWrite{seq: s.seq + 1, frame: append([]byte(nil), f...)}:
		s.seq++
		return nil
	default:
		return ErrBusy
	}
}

func (s *Sim) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		go func() {
			s.wg.Wait()
			select {
			case s.events <- StateEvent(StateDisconnected, nil):
			default:
			}
			close(s.events)
		}()
	})
	return nil
}

// Payload returns a copy of the simulated payload for t.
func (s *Sim) Payload(t bafang.RecordType) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.payloads[t]...)
}

func (s *Sim) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case w := <-s.requests:
			reply, err := s.handle(w.frame)
			if !s.emit(AckEvent(w.seq, err)) {
				return
			}
			if err != nil || reply == nil {
				continue
			}
			if s.opts.Latency > 0 {
				select {
				case <-time.After(s.opts.Latency):
				case <-s.done:
					return
				}
			}
			for len(reply) > 0 {
				n := min(s.opts.MTU, len(reply))
				if !s.emit(DataEvent(reply[:n])) {
					return
				}
				reply = reply[n:]
			}
		}
	}
}

func (s *Sim) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Sim) handle(f []byte) ([]byte, error) {
	req, err := frame.ParseRequest(f)
	if err != nil {
		log.Warn().Err(err).Str("frame", frame.Hex(f)).Msg("sim: rejecting request")
		return nil, err
	}
	t := bafang.RecordType(req.Cmd)

	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.payloads[t]
	if !ok {
		log.Debug().Stringer("type", t).Msg("sim: no such record")
		return nil, nil
	}

	if req.Write {
		if req.Start+len(req.Payload) > len(payload) {
			return nil, fmt.Errorf("sim: write past end of %s", t)
		}
		copy(payload[req.Start:], req.Payload)
		if req.Start == 0 {
			return nil, nil
		}
		return frame.BuildResponse(req.Cmd, byte(req.Start), req.Payload, s.opts.Checksum)
	}

	if req.Start >= len(payload) {
		return nil, nil
	}
	end := min(req.Start+req.Length, len(payload))
	return frame.BuildResponse(req.Cmd, byte(req.Start), payload[req.Start:end], s.opts.Checksum)
}
