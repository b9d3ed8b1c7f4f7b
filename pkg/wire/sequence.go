package wire

import (
	"math"
	"sync/atomic"
)

// Sequence hands out diagnostic request IDs: 1, 2, ... math.MaxInt32, 1, ...
// The zero value is ready to use.
type Sequence struct {
	last atomic.Int32
}

// Next returns the next ID.
func (s *Sequence) Next() int64 {
	for {
		cur := s.last.Load()
		next := cur + 1
		if cur == math.MaxInt32 || next < 1 {
			next = 1
		}
		if s.last.CompareAndSwap(cur, next) {
			return int64(next)
		}
	}
}
