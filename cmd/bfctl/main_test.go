package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seagrayinc/bfble/internal/session"
	"github.com/seagrayinc/bfble/internal/transport"
)

func TestRunSessionOutlivesDisconnect(t *testing.T) {
	m := transport.NewMock()
	s := session.New(m, session.Options{})
	states, cancelStates := s.SubscribeState()
	defer cancelStates()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runSession(ctx, s) }()

	waitFor := func(want transport.State) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case st := <-states:
				if st == want {
					return
				}
			case <-deadline:
				t.Fatalf("state never became %s", want)
			}
		}
	}

	m.SetState(transport.StateConnected)
	waitFor(transport.StateConnected)
	if err := s.Disconnect(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(transport.StateDisconnected)

	select {
	case err := <-done:
		t.Fatalf("runSession returned %v after disconnect", err)
	case <-time.After(100 * time.Millisecond):
	}
	if s.State() != transport.StateDisconnected {
		t.Fatalf("state = %s", s.State())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("runSession = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runSession did not return after cancel")
	}
}
