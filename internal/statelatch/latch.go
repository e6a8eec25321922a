package statelatch

import "sync/atomic"

// Latch publishes a Server's current State to any number of observers
// without blocking the publisher or the readers. It plays the role the
// original implementation gives a Tokio watch channel, built instead
// from an atomic pointer plus a close-and-replace channel so Watch can
// block until the next change without polling.
type Latch struct {
	value atomic.Pointer[State]
	gen   atomic.Pointer[chan struct{}]
}

// NewLatch creates a Latch holding the given initial state.
func NewLatch(initial State) *Latch {
	l := &Latch{}
	l.value.Store(&initial)
	ch := make(chan struct{})
	l.gen.Store(&ch)
	return l
}

// Get returns the most recently published state.
func (l *Latch) Get() State {
	return *l.value.Load()
}

// Set publishes a new state and wakes any goroutine blocked in Watch.
func (l *Latch) Set(s State) {
	l.value.Store(&s)
	next := make(chan struct{})
	old := l.gen.Swap(&next)
	close(*old)
}

// Watch returns the current state and a channel that closes the next
// time Set is called, so a caller can loop: read, act, wait, repeat.
func (l *Latch) Watch() (State, <-chan struct{}) {
	return l.Get(), *l.gen.Load()
}
