// Package future provides a single-assignment result handle.
//
// A Future is completed at most once, by exactly one of Resolve, Fail or
// Cancel. Waiters observe the outcome through Done, Wait or Result.
// Cancellation is reported as ErrCancelled, which callers can tell apart
// from an error carried by Fail.
package future

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is returned by Wait when the future was cancelled.
var ErrCancelled = errors.New("future cancelled")

// Outcome describes how a future completed.
type Outcome uint8

const (
	// OutcomePending means the future has not completed yet.
	OutcomePending Outcome = iota

	// OutcomeResolved means a value was delivered.
	OutcomeResolved

	// OutcomeFailed means an error was delivered.
	OutcomeFailed

	// OutcomeCancelled means the future was abandoned without a result.
	OutcomeCancelled
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "PENDING"
	case OutcomeResolved:
		return "RESOLVED"
	case OutcomeFailed:
		return "FAILED"
	case OutcomeCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Future is a result handle for a value of type T delivered later.
type Future[T any] struct {
	mu      sync.Mutex
	done    chan struct{}
	outcome Outcome
	value   T
	err     error
}

// New creates a pending future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Cancelled returns a future that is already cancelled.
func Cancelled[T any]() *Future[T] {
	f := New[T]()
	f.Cancel()
	return f
}

// Resolve completes the future with a value.
// Returns false if the future had already completed.
func (f *Future[T]) Resolve(v T) bool {
	return f.complete(OutcomeResolved, v, nil)
}

// Fail completes the future with an error.
// Returns false if the future had already completed.
func (f *Future[T]) Fail(err error) bool {
	var zero T
	return f.complete(OutcomeFailed, zero, err)
}

// Cancel completes the future without a result.
// Returns false if the future had already completed.
func (f *Future[T]) Cancel() bool {
	var zero T
	return f.complete(OutcomeCancelled, zero, ErrCancelled)
}

func (f *Future[T]) complete(outcome Outcome, v T, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.outcome != OutcomePending {
		return false
	}
	f.outcome = outcome
	f.value = v
	f.err = err
	close(f.done)
	return true
}

// Done returns a channel that is closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Outcome returns the current outcome without blocking.
func (f *Future[T]) Outcome() Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

// Result returns the value and error without blocking.
// While pending it returns the zero value and a nil error.
func (f *Future[T]) Result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Wait blocks until the future completes or ctx is done.
// A cancelled future yields ErrCancelled; a context expiry yields ctx.Err()
// and leaves the future pending.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
