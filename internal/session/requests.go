package session

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/seagrayinc/bfble/internal/frame"
	"github.com/seagrayinc/bfble/internal/transport"
	"github.com/seagrayinc/bfble/pkg/bafang"
)

// RequestFullRecord asks the device for the whole of t, sized from the record table.
func (s *Session) RequestFullRecord(ctx context.Context, t bafang.RecordType) error {
	n, ok := s.sizes.ReadLength(t)
	if !ok {
		return fmt.Errorf("%w %s: not in size table", bafang.ErrUnknownRecordType, t)
	}
	f, err := frame.ReadRequest(byte(t), 0, n)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, f)
}

// RequestDataSegment asks for length bytes of t starting at start.
func (s *Session) RequestDataSegment(ctx context.Context, t bafang.RecordType, start, length int) error {
	f, err := frame.ReadRequest(byte(t), start, length)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, f)
}

func (s *Session) WriteSingleByte(ctx context.Context, t bafang.RecordType, offset int, v byte) error {
	return s.WriteBlock(ctx, t, offset, []byte{v})
}

// WriteU16 writes v little-endian at offset.
func (s *Session) WriteU16(ctx context.Context, t bafang.RecordType, offset int, v uint16) error {
	return s.WriteBlock(ctx, t, offset, binary.LittleEndian.AppendUint16(nil, v))
}

func (s *Session) WriteBlock(ctx context.Context, t bafang.RecordType, offset int, b []byte) error {
	f, err := frame.WriteRequest(byte(t), offset, b)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, f)
}

// Apply sends a prepared field write.
func (s *Session) Apply(ctx context.Context, w bafang.Write) error {
	return s.WriteBlock(ctx, w.Type, w.Offset, w.Payload)
}

// Disconnect tears down engine state and closes the transport.
func (s *Session) Disconnect(ctx context.Context) error {
	select {
	case s.cmds <- command{teardown: true}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) enqueue(ctx context.Context, f []byte) error {
	// read the epoch first: a teardown after this point makes the frame stale
	epoch := s.epoch.Load()
	if s.State() != transport.StateConnected {
		return ErrTransportUnavailable
	}
	select {
	case s.cmds <- command{frame: f, epoch: epoch}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
