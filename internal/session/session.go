// Package session runs the protocol engine for one transport link. A single event loop
// owns the reassembly buffer, the record cache used for single field updates and the send
// queue, so inbound chunks, write acks and state changes are handled strictly in order.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seagrayinc/bfble/internal/frame"
	"github.com/seagrayinc/bfble/internal/metrics"
	"github.com/seagrayinc/bfble/internal/transport"
	"github.com/seagrayinc/bfble/pkg/bafang"
)

var ErrTransportUnavailable = errors.New("session: transport not connected")

type Options struct {
	// Sizes sizes full reads and sanity-checks full frames. Defaults to bafang.DefaultSizes.
	Sizes bafang.SizeTable
	// Checksum selects how inbound frames are verified.
	Checksum frame.ChecksumPolicy
	Logger   *zerolog.Logger
	// CommandBuffer is the capacity of the caller to loop channel.
	CommandBuffer int
}

type command struct {
	frame    []byte
	epoch    uint64
	teardown bool
}

type Session struct {
	transport transport.Transport
	sizes     bafang.SizeTable
	policy    frame.ChecksumPolicy
	log       zerolog.Logger

	cmds  chan command
	state atomic.Int32
	// epoch counts teardowns; frames accepted in an earlier epoch are never sent
	epoch atomic.Uint64

	// owned by the event loop
	reasm frame.Reassembler
	cache map[bafang.RecordType]bafang.Record
	queue *Queue

	feedsMu sync.Mutex
	records map[bafang.RecordType]*feed[bafang.Record]
	states  feed[transport.State]
}

func New(t transport.Transport, opts Options) *Session {
	if opts.Sizes == nil {
		opts.Sizes = bafang.DefaultSizes()
	}
	if opts.CommandBuffer <= 0 {
		opts.CommandBuffer = 64
	}
	logger := log.With().Str("component", "session").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	s := &Session{
		transport: t,
		sizes:     opts.Sizes,
		policy:    opts.Checksum,
		log:       logger,
		cmds:      make(chan command, opts.CommandBuffer),
		cache:     make(map[bafang.RecordType]bafang.Record),
		records:   make(map[bafang.RecordType]*feed[bafang.Record]),
	}
	s.queue = NewQueue(t.Write, logger)
	s.state.Store(int32(transport.StateDisconnected))
	s.states.publish(transport.StateDisconnected)
	return s
}

// Run processes transport events and caller commands until ctx ends or the transport
// closes its event channel.
func (s *Session) Run(ctx context.Context) error {
	events := s.transport.Events()
	for {
		select {
		case <-ctx.Done():
			s.teardown("context done")
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				s.teardown("transport closed")
				s.setState(transport.StateDisconnected)
				return nil
			}
			s.handleEvent(ev)

		case cmd := <-s.cmds:
			s.handleCommand(cmd)
		}
	}
}

func (s *Session) handleEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventData:
		for _, f := range s.reasm.Feed(ev.Data) {
			s.handleFrame(f)
		}
		if n := s.reasm.Discarded(); n > 0 {
			s.log.Debug().Int("bytes", n).Msg("discarded bytes while resyncing")
			metrics.RecordResync(n)
		}

	case transport.EventWriteAck:
		if s.queue.Ack(ev.Seq, ev.OK) && !ev.OK {
			s.log.Warn().Err(ev.Err).Uint64("seq", ev.Seq).Msg("write not acknowledged")
		}

	case transport.EventState:
		if ev.State == transport.StateConnected {
			s.log.Info().Stringer("from", s.State()).Msg("transport connected")
			s.setState(ev.State)
			return
		}
		s.log.Info().Err(ev.Err).Stringer("state", ev.State).Msg("transport not connected")
		s.teardown(ev.State.String())
		s.setState(ev.State)
	}
}

func (s *Session) handleCommand(cmd command) {
	if cmd.teardown {
		s.teardown("disconnect requested")
		s.setState(transport.StateDisconnected)
		if err := s.transport.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing transport")
		}
		return
	}
	if cmd.epoch != s.epoch.Load() {
		s.log.Warn().Str("frame", frame.Hex(cmd.frame)).Msg("dropping frame accepted before the link dropped")
		return
	}
	if s.State() != transport.StateConnected {
		s.log.Warn().Str("frame", frame.Hex(cmd.frame)).Msg("dropping frame queued while disconnected")
		return
	}
	s.queue.Push(cmd.frame)
}

// teardown drops every piece of per-connection state.
func (s *Session) teardown(reason string) {
	s.epoch.Add(1)
	dropped := s.queue.Clear()
	s.reasm.Reset()
	clear(s.cache)

	s.feedsMu.Lock()
	for _, f := range s.records {
		f.reset()
	}
	s.feedsMu.Unlock()

	metrics.RecordQueueClear()
	s.log.Info().Str("reason", reason).Int("dropped_frames", dropped).Msg("send queue cleared")
}

func (s *Session) handleFrame(raw []byte) {
	resp, err := frame.ParseResponse(raw, s.policy)
	if err != nil {
		result := metrics.ResultMalformed
		if errors.Is(err, frame.ErrChecksumMismatch) {
			result = metrics.ResultChecksum
		}
		metrics.RecordFrame("unknown", result)
		s.log.Warn().Err(err).Str("frame", frame.Hex(raw)).Msg("discarding frame")
		return
	}

	t := bafang.RecordType(resp.Type)
	if resp.Full() {
		s.applyFull(t, resp.Payload)
	} else {
		s.applyPartial(t, resp.Payload, int(resp.StartPos))
	}
}

func (s *Session) applyFull(t bafang.RecordType, payload []byte) {
	if want, ok := s.sizes[t]; ok && want != len(payload) {
		s.log.Warn().Stringer("type", t).Int("size", len(payload)).Int("expected", want).Msg("full record size differs from table")
	}

	rec, err := bafang.Decode(t, payload)
	if err != nil {
		result := metrics.ResultDecode
		if errors.Is(err, bafang.ErrUnknownRecordType) {
			result = metrics.ResultUnknown
		}
		metrics.RecordFrame(t.String(), result)
		s.log.Warn().Err(err).Stringer("type", t).Msg("full record not decoded")
		return
	}
	if raw, ok := rec.(*bafang.RawInfo); ok {
		s.log.Debug().Stringer("type", t).Str("payload", frame.Hex(raw.Payload)).Msg("raw record")
	}

	metrics.RecordFrame(t.String(), metrics.ResultOK)
	s.cache[t] = rec
	s.recordFeed(t).publish(rec)
}

func (s *Session) applyPartial(t bafang.RecordType, payload []byte, offset int) {
	cur, ok := s.cache[t]
	if !ok {
		metrics.RecordPartial(t.String(), metrics.ResultDropped)
		s.log.Debug().Stringer("type", t).Int("offset", offset).Msg("no record to update, dropping field")
		return
	}

	// published records are shared with subscribers, so update a private copy
	next := cur.Clone()
	if err := bafang.ApplyPartial(next, payload, offset); err != nil {
		metrics.RecordPartial(t.String(), metrics.ResultRejected)
		s.log.Warn().Err(err).Stringer("type", t).Int("offset", offset).Msg("field update rejected")
		return
	}

	metrics.RecordPartial(t.String(), metrics.ResultOK)
	s.cache[t] = next
	s.recordFeed(t).publish(next)
}

func (s *Session) recordFeed(t bafang.RecordType) *feed[bafang.Record] {
	s.feedsMu.Lock()
	defer s.feedsMu.Unlock()
	f, ok := s.records[t]
	if !ok {
		f = &feed[bafang.Record]{}
		s.records[t] = f
	}
	return f
}

func (s *Session) setState(st transport.State) {
	if transport.State(s.state.Swap(int32(st))) == st {
		return
	}
	metrics.RecordState(st.String())
	s.states.publish(st)
}

// State is the last connection state reported by the transport.
func (s *Session) State() transport.State {
	return transport.State(s.state.Load())
}

// SubscribeState streams connection state changes, starting with the current state.
func (s *Session) SubscribeState() (<-chan transport.State, func()) {
	return s.states.subscribe()
}

// Latest returns the most recent snapshot of t. Snapshots must not be modified.
func (s *Session) Latest(t bafang.RecordType) (bafang.Record, bool) {
	return s.recordFeed(t).get()
}

// Subscribe streams snapshots of t, starting with the latest one if present.
func (s *Session) Subscribe(t bafang.RecordType) (<-chan bafang.Record, func()) {
	return s.recordFeed(t).subscribe()
}

// Sizes is the record size table in use.
func (s *Session) Sizes() bafang.SizeTable { return s.sizes }
