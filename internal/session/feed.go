package session

import "sync"

// feed holds the latest value of a stream and fans it out to subscribers. Each subscriber
// has a one slot buffer: a slow reader sees the newest value, not every value.
type feed[T any] struct {
	mu     sync.Mutex
	latest T
	has    bool
	subs   map[int]chan T
	nextID int
}

func (f *feed[T]) publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest, f.has = v, true
	for _, ch := range f.subs {
		offer(ch, v)
	}
}

func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

func (f *feed[T]) get() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.has
}

func (f *feed[T]) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero T
	f.latest, f.has = zero, false
}

// subscribe returns a channel primed with the latest value, if any, and a cancel func.
func (f *feed[T]) subscribe() (<-chan T, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]chan T)
	}
	id := f.nextID
	f.nextID++
	ch := make(chan T, 1)
	if f.has {
		ch <- f.latest
	}
	f.subs[id] = ch
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}
