// Package transport defines the byte-stream link the protocol session runs over, plus
// implementations for serial and USB bridges, an in-memory mock and a device simulator.
//
// A transport reports everything through Events: received chunks, write acknowledgements
// and connection state changes. Write only initiates a send; its outcome arrives later as
// an EventWriteAck.
package transport

import (
	"errors"
	"fmt"
)

var (
	ErrClosed = errors.New("transport: closed")
	ErrBusy   = errors.New("transport: write already in flight")
)

// State is the connection state of a transport.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type EventKind int

const (
	EventData EventKind = iota
	EventWriteAck
	EventState
)

// Event is one notification from a transport.
type Event struct {
	Kind  EventKind
	Data  []byte // EventData
	OK    bool   // EventWriteAck
	Seq   uint64 // EventWriteAck: the accepted write being acknowledged, counting from 1
	State State  // EventState
	Err   error  // cause of a failed ack or state change, if known
}

func DataEvent(b []byte) Event { return Event{Kind: EventData, Data: b} }

func AckEvent(seq uint64, err error) Event {
	return Event{Kind: EventWriteAck, OK: err == nil, Seq: seq, Err: err}
}

func StateEvent(s State, err error) Event { return Event{Kind: EventState, State: s, Err: err} }

// Transport is a point-to-point byte link.
type Transport interface {
	// Write starts sending frame. A nil error means the send was initiated; the n-th
	// initiated send of the transport's lifetime is acknowledged with Seq n.
	Write(frame []byte) error
	// Events is closed once the transport has shut down.
	Events() <-chan Event
	Close() error
}
