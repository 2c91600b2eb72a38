package sink

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/seagrayinc/bfble/pkg/bafang"
)

type message struct {
	key     string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs chan message
	err  error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{msgs: make(chan message, 16)}
}

func (p *fakePublisher) Publish(_ context.Context, key string, payload []byte) error {
	p.mu.Lock()
	err := p.err
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.msgs <- message{key, payload}
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeSource map[bafang.RecordType]chan bafang.Record

func (s fakeSource) Subscribe(t bafang.RecordType) (<-chan bafang.Record, func()) {
	return s[t], func() {}
}

type meterEnvelope struct {
	Type   string           `json:"type"`
	ID     uint8            `json:"id"`
	At     int64            `json:"at"`
	Record bafang.MeterInfo `json:"record"`
}

func fixedClock(s *Sink) {
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
}

func TestEncode(t *testing.T) {
	tests := []struct {
		encoding  string
		unmarshal func([]byte, any) error
	}{
		{"json", json.Unmarshal},
		{"cbor", cbor.Unmarshal},
	}
	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			s, err := New(newFakePublisher(), tt.encoding, zerolog.Nop())
			if err != nil {
				t.Fatal(err)
			}
			fixedClock(s)

			b, err := s.Encode(bafang.SampleMeter())
			if err != nil {
				t.Fatal(err)
			}
			var got meterEnvelope
			if err := tt.unmarshal(b, &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Type != "meter" || got.ID != 0xA5 || got.At != 1700000000000 {
				t.Fatalf("unexpected envelope: %+v", got)
			}
			if !reflect.DeepEqual(&got.Record, bafang.SampleMeter()) {
				t.Fatalf("record = %+v", got.Record)
			}
		})
	}
}

func TestNewRejectsEncoding(t *testing.T) {
	if _, err := New(newFakePublisher(), "xml", zerolog.Nop()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunPublishesSnapshots(t *testing.T) {
	pub := newFakePublisher()
	s, err := New(pub, "json", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	src := fakeSource{
		bafang.Meter:      make(chan bafang.Record, 1),
		bafang.Controller: make(chan bafang.Record, 1),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, src, []bafang.RecordType{bafang.Meter, bafang.Controller})
		close(done)
	}()

	src[bafang.Controller] <- bafang.SampleController()
	select {
	case m := <-pub.msgs:
		if m.key != "controller" {
			t.Fatalf("key = %q", m.key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("nothing published")
	}

	// a failing publisher is logged and skipped
	pub.mu.Lock()
	pub.err = errors.New("redis down")
	pub.mu.Unlock()
	src[bafang.Meter] <- bafang.SampleMeter()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
