// Package pending tracks outstanding requests by correlation key.
//
// The hub protocol carries no request-scoped correlation ID, so requests
// are keyed by what they ask for (a zone, or "the zone list"). A second
// request for a key that is still outstanding joins the existing entry
// instead of creating a new one.
package pending

import (
	"sync"

	"github.com/zonehub/zonehub-go/pkg/future"
)

// Table maps correlation keys to outstanding futures.
// It is safe for concurrent use.
type Table[K comparable, T any] struct {
	mu      sync.Mutex
	entries map[K]*future.Future[T]
}

// NewTable creates an empty table.
func NewTable[K comparable, T any]() *Table[K, T] {
	return &Table[K, T]{entries: make(map[K]*future.Future[T])}
}

// GetOrCreate returns the outstanding future for key, creating and
// registering one if none exists. created reports which happened.
func (t *Table[K, T]) GetOrCreate(key K) (f *future.Future[T], created bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if f, ok := t.entries[key]; ok {
		return f, false
	}
	f = future.New[T]()
	t.entries[key] = f
	return f, true
}

// Get returns the outstanding future for key, if any.
func (t *Table[K, T]) Get(key K) (*future.Future[T], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.entries[key]
	return f, ok
}

// Resolve completes and removes the entry for key.
// Returns false if there was no entry.
func (t *Table[K, T]) Resolve(key K, v T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.entries[key]
	if !ok {
		return false
	}
	delete(t.entries, key)
	f.Resolve(v)
	return true
}

// Fail completes the entry for key with an error and removes it.
// Returns false if there was no entry.
func (t *Table[K, T]) Fail(key K, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.entries[key]
	if !ok {
		return false
	}
	delete(t.entries, key)
	f.Fail(err)
	return true
}

// CancelAll cancels and removes every entry. Returns how many were cancelled.
func (t *Table[K, T]) CancelAll() int {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[K]*future.Future[T])
	t.mu.Unlock()

	for _, f := range entries {
		f.Cancel()
	}
	return len(entries)
}

// Len returns the number of outstanding entries.
func (t *Table[K, T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Keys returns a snapshot of the outstanding keys in no particular order.
func (t *Table[K, T]) Keys() []K {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]K, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	return keys
}
