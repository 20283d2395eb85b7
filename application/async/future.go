// Package async provides the single-result promise the repositories hand
// back. Every repository method returns immediately with a Future; the
// remote work completes it from whatever goroutine the transport runs on.
package async

import (
	"context"
	"sync"
)

// Future resolves exactly once. It intentionally carries no error channel:
// the repositories resolve with fallback data instead of rejecting, so the
// only failure a waiter can see is its own context ending.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
}

// New creates an unresolved Future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed creates a Future that is already resolved with v.
func Completed[T any](v T) *Future[T] {
	f := New[T]()
	f.Complete(v)
	return f
}

// Complete resolves the future. Later calls are no-ops; the first value
// wins. Returns whether this call was the resolving one.
func (f *Future[T]) Complete(v T) bool {
	resolved := false
	f.once.Do(func() {
		f.value = v
		close(f.done)
		resolved = true
	})
	return resolved
}

// Await blocks until the future resolves or ctx ends. The error is only
// ever the context's.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done exposes the completion signal for select-based callers.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Value returns the resolved value without blocking. The second return
// reports whether the future has resolved.
func (f *Future[T]) Value() (T, bool) {
	select {
	case <-f.done:
		return f.value, true
	default:
		var zero T
		return zero, false
	}
}
