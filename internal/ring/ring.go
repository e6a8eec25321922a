// Package ring provides a thread-safe cyclic buffer used to hand out
// successive values without locking.
package ring

import "sync/atomic"

// Ring cycles through a fixed set of values, handing out the next one on
// every call to Next. It never blocks and never allocates after
// construction.
type Ring[T any] struct {
	values []T
	next   atomic.Uint64
}

// New builds a Ring over values. It panics if values is empty: a Ring
// with nothing to cycle through is a programming error, not a runtime
// condition callers should handle.
func New[T any](values []T) *Ring[T] {
	if len(values) == 0 {
		panic("ring: New called with no values")
	}
	return &Ring[T]{values: values}
}

// Next returns the next value in the cycle. Safe for concurrent use.
func (r *Ring[T]) Next() T {
	return r.values[r.nextIndex()]
}

func (r *Ring[T]) nextIndex() uint64 {
	n := uint64(len(r.values))
	if n == 1 {
		return 0
	}
	// Add returns the post-increment value; subtract 1 to recover the
	// fetch-and-add semantics (index assigned, then counter advanced).
	return (r.next.Add(1) - 1) % n
}

// Len reports how many values the ring cycles through.
func (r *Ring[T]) Len() int {
	return len(r.values)
}
