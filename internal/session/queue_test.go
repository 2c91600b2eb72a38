package session

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type sender struct {
	sent [][]byte
	fail map[byte]bool
}

func (s *sender) send(f []byte) error {
	if s.fail[f[0]] {
		return errors.New("not initiated")
	}
	s.sent = append(s.sent, f)
	return nil
}

func TestQueue(t *testing.T) {
	tests := []struct {
		name  string
		fail  []byte
		steps func(q *Queue)
		sent  []byte
		left  int
		busy  bool
	}{
		{
			name: "first frame goes out immediately",
			steps: func(q *Queue) {
				q.Push([]byte{1})
			},
			sent: []byte{1},
			busy: true,
		},
		{
			name: "later frames wait for ack",
			steps: func(q *Queue) {
				q.Push([]byte{1})
				q.Push([]byte{2})
				q.Push([]byte{3})
			},
			sent: []byte{1},
			left: 2,
			busy: true,
		},
		{
			name: "ack releases the next frame in order",
			steps: func(q *Queue) {
				q.Push([]byte{1})
				q.Push([]byte{2})
				q.Push([]byte{3})
				q.Ack(1, true)
			},
			sent: []byte{1, 2},
			left: 1,
			busy: true,
		},
		{
			name: "failed ack still advances",
			steps: func(q *Queue) {
				q.Push([]byte{1})
				q.Push([]byte{2})
				q.Ack(1, false)
			},
			sent: []byte{1, 2},
			busy: true,
		},
		{
			name: "initiation failure skips to the next frame",
			fail: []byte{2},
			steps: func(q *Queue) {
				q.Push([]byte{1})
				q.Push([]byte{2})
				q.Push([]byte{3})
				q.Ack(1, true)
			},
			sent: []byte{1, 3},
			busy: true,
		},
		{
			name: "all initiations failing leaves the queue idle",
			fail: []byte{1, 2},
			steps: func(q *Queue) {
				q.Push([]byte{1})
				q.Push([]byte{2})
			},
		},
		{
			name: "clear drops pending and in flight",
			steps: func(q *Queue) {
				q.Push([]byte{1})
				q.Push([]byte{2})
				q.Clear()
				q.Push([]byte{3})
			},
			sent: []byte{1, 3},
			busy: true,
		},
		{
			name: "ack with nothing queued",
			steps: func(q *Queue) {
				q.Ack(1, true)
			},
		},
		{
			name: "ack for a cleared frame keeps the new frame in flight",
			steps: func(q *Queue) {
				q.Push([]byte{1})
				q.Clear()
				q.Push([]byte{2})
				q.Ack(1, true)
				q.Push([]byte{3})
			},
			sent: []byte{1, 2},
			left: 1,
			busy: true,
		},
		{
			name: "ack after clear with nothing sent",
			steps: func(q *Queue) {
				q.Push([]byte{1})
				q.Clear()
				q.Ack(1, true)
				q.Push([]byte{2})
				q.Push([]byte{3})
			},
			sent: []byte{1, 2},
			left: 1,
			busy: true,
		},
		{
			name: "numbering counts only initiated sends",
			fail: []byte{2},
			steps: func(q *Queue) {
				q.Push([]byte{1})
				q.Push([]byte{2})
				q.Push([]byte{3})
				q.Push([]byte{4})
				q.Ack(1, true)
				q.Ack(2, true)
			},
			sent: []byte{1, 3, 4},
			busy: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &sender{fail: map[byte]bool{}}
			for _, b := range tt.fail {
				s.fail[b] = true
			}
			q := NewQueue(s.send, zerolog.Nop())
			tt.steps(q)

			var sent []byte
			for _, f := range s.sent {
				sent = append(sent, f[0])
			}
			if string(sent) != string(tt.sent) {
				t.Errorf("sent %v, want %v", sent, tt.sent)
			}
			if q.Len() != tt.left {
				t.Errorf("Len() = %d, want %d", q.Len(), tt.left)
			}
			if q.Busy() != tt.busy {
				t.Errorf("Busy() = %v, want %v", q.Busy(), tt.busy)
			}
		})
	}
}

func TestQueueClearCount(t *testing.T) {
	q := NewQueue(func([]byte) error { return nil }, zerolog.Nop())
	q.Push([]byte{1})
	q.Push([]byte{2})
	q.Push([]byte{3})
	if n := q.Clear(); n != 2 {
		t.Fatalf("Clear() = %d, want 2", n)
	}
	if q.Busy() || q.Len() != 0 {
		t.Fatal("queue not reset")
	}
}

func TestQueueStaleAck(t *testing.T) {
	s := &sender{fail: map[byte]bool{}}
	q := NewQueue(s.send, zerolog.Nop())

	q.Push([]byte{1})
	q.Clear()
	q.Push([]byte{2})
	if q.Ack(1, true) {
		t.Fatal("ack for the cleared frame was accepted")
	}
	q.Push([]byte{3})
	if len(s.sent) != 2 {
		t.Fatalf("sent %d frames while frame 2 was in flight", len(s.sent))
	}
	if !q.Ack(2, true) {
		t.Fatal("ack for the in-flight frame was rejected")
	}
	if len(s.sent) != 3 || s.sent[2][0] != 3 {
		t.Fatalf("frame 3 not sent after ack, sent %v", s.sent)
	}
}
