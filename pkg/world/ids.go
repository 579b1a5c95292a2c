package world

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Record id allocation
//
// Ids are a millisecond timestamp scaled by 1000 plus a random perturbation, which keeps
// them roughly chronological and unlikely to clash with ids minted elsewhere. Uniqueness
// does not rely on the randomness: the allocator never issues an id that is not strictly
// greater than the last one it issued or observed.

// IDSource hands out record ids.
type IDSource interface {
	NextID() ID
}

// IDAllocator is a monotonic IDSource. Safe for concurrent use.
type IDAllocator struct {
	mu   sync.Mutex
	last ID
	now  func() time.Time
}

// NewIDAllocator returns an allocator using the wall clock.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{now: time.Now}
}

// NewIDAllocatorWithClock returns an allocator driven by the given clock (tests).
func NewIDAllocatorWithClock(now func() time.Time) *IDAllocator {
	return &IDAllocator{now: now}
}

// NextID returns an id strictly greater than every id previously issued or observed.
func (a *IDAllocator) NextID() ID {
	a.mu.Lock()
	defer a.mu.Unlock()

	candidate := ID(a.now().UnixMilli()*1000 + rand.Int64N(1000))
	if candidate <= a.last {
		candidate = a.last + 1
	}
	a.last = candidate
	return candidate
}

// Observe records an existing id so it is never issued again.
func (a *IDAllocator) Observe(id ID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id > a.last {
		a.last = id
	}
}

// Last returns the highest id issued or observed so far.
func (a *IDAllocator) Last() ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}
