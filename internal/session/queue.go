package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/seagrayinc/bfble/internal/frame"
	"github.com/seagrayinc/bfble/internal/metrics"
)

// Queue is a FIFO of encoded frames with at most one frame in flight. A frame is in flight
// from a successful send until its Ack; a send that fails to initiate frees the slot at once.
//
// Successful sends are numbered from 1 in the order the transport accepted them, matching
// the Seq of transport acks. An ack for any other number, such as one for a frame dropped
// by Clear, leaves the in-flight frame alone.
type Queue struct {
	send func([]byte) error
	log  zerolog.Logger

	mu       sync.Mutex
	items    [][]byte
	busy     bool
	sent     uint64
	inflight uint64
}

func NewQueue(send func([]byte) error, log zerolog.Logger) *Queue {
	return &Queue{send: send, log: log}
}

// Push appends f and transmits it if nothing is in flight.
func (q *Queue) Push(f []byte) {
	q.mu.Lock()
	q.items = append(q.items, f)
	metrics.SetQueueDepth(len(q.items))
	q.mu.Unlock()
	q.pump()
}

// Ack completes send number seq, whatever its outcome, and moves to the next frame. It
// reports false and does nothing when seq is not the frame in flight.
func (q *Queue) Ack(seq uint64, ok bool) bool {
	q.mu.Lock()
	if !q.busy || seq != q.inflight {
		inflight := q.inflight
		if !q.busy {
			inflight = 0
		}
		q.mu.Unlock()
		q.log.Debug().Uint64("seq", seq).Uint64("in_flight", inflight).Msg("ignoring stale write ack")
		return false
	}
	q.busy = false
	q.mu.Unlock()
	if ok {
		metrics.RecordWrite(metrics.ResultOK)
	} else {
		metrics.RecordWrite(metrics.ResultFailed)
	}
	q.pump()
	return true
}

// Clear drops every pending frame and the in-flight marker. It returns the number dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	q.busy = false
	metrics.SetQueueDepth(0)
	return n
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busy
}

func (q *Queue) pump() {
	for {
		q.mu.Lock()
		if q.busy || len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		f := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		q.busy = true
		metrics.SetQueueDepth(len(q.items))
		q.mu.Unlock()

		err := q.send(f)
		if err == nil {
			q.mu.Lock()
			q.sent++
			q.inflight = q.sent
			seq := q.inflight
			q.mu.Unlock()
			q.log.Debug().Uint64("seq", seq).Str("frame", frame.Hex(f)).Msg("frame sent")
			return
		}

		q.log.Warn().Err(err).Str("frame", frame.Hex(f)).Msg("send not initiated, skipping frame")
		metrics.RecordWrite(metrics.ResultRejected)
		q.mu.Lock()
		q.busy = false
		q.mu.Unlock()
	}
}
