// Package sink forwards record snapshots from a session to a message bus.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/seagrayinc/bfble/internal/metrics"
	"github.com/seagrayinc/bfble/pkg/bafang"
)

// Publisher delivers an encoded snapshot. key names the record type.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

// Source is the subset of a session the sink reads from.
type Source interface {
	Subscribe(t bafang.RecordType) (<-chan bafang.Record, func())
}

// Envelope is the published message.
type Envelope struct {
	Type   string        `json:"type"`
	ID     uint8         `json:"id"`
	At     int64         `json:"at"`
	Record bafang.Record `json:"record"`
}

type Sink struct {
	pub     Publisher
	marshal func(any) ([]byte, error)
	log     zerolog.Logger
	now     func() time.Time
}

// New builds a sink that encodes with "json" or "cbor".
func New(pub Publisher, encoding string, log zerolog.Logger) (*Sink, error) {
	s := &Sink{pub: pub, log: log, now: time.Now}
	switch encoding {
	case "", "json":
		s.marshal = json.Marshal
	case "cbor":
		s.marshal = cbor.Marshal
	default:
		return nil, fmt.Errorf("sink: unknown encoding %q", encoding)
	}
	return s, nil
}

func (s *Sink) Encode(rec bafang.Record) ([]byte, error) {
	t := rec.RecordType()
	b, err := s.marshal(Envelope{
		Type:   t.String(),
		ID:     uint8(t),
		At:     s.now().UnixMilli(),
		Record: rec,
	})
	if err != nil {
		return nil, fmt.Errorf("sink: encode %s: %w", t, err)
	}
	return b, nil
}

// Run publishes every snapshot of types until ctx ends.
func (s *Sink) Run(ctx context.Context, src Source, types []bafang.RecordType) {
	var wg sync.WaitGroup
	for _, t := range types {
		ch, cancel := src.Subscribe(t)
		wg.Add(1)
		go func(t bafang.RecordType) {
			defer wg.Done()
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case rec := <-ch:
					s.publish(ctx, rec)
				}
			}
		}(t)
	}
	wg.Wait()
}

func (s *Sink) publish(ctx context.Context, rec bafang.Record) {
	t := rec.RecordType()
	b, err := s.Encode(rec)
	if err == nil {
		err = s.pub.Publish(ctx, t.String(), b)
	}
	metrics.RecordSinkPublish(t.String(), err == nil)
	if err != nil {
		s.log.Warn().Err(err).Stringer("type", t).Msg("sink publish failed")
		return
	}
	s.log.Debug().Stringer("type", t).Int("bytes", len(b)).Msg("snapshot published")
}
