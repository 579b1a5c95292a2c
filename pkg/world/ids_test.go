package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIDAllocatorIsStrictlyIncreasing(t *testing.T) {
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	alloc := NewIDAllocatorWithClock(func() time.Time { return frozen })

	seen := make(map[ID]bool)
	prev := ID(0)
	for i := 0; i < 5000; i++ {
		id := alloc.NextID()
		assert.Greater(t, id, prev)
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
		prev = id
	}
}

func TestIDAllocatorObserve(t *testing.T) {
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	alloc := NewIDAllocatorWithClock(func() time.Time { return frozen })

	future := ID(frozen.Add(time.Hour).UnixMilli() * 1000)
	alloc.Observe(future)
	assert.Equal(t, future, alloc.Last())
	assert.Equal(t, future+1, alloc.NextID())

	// Observing a lower id does not move the watermark back
	alloc.Observe(5)
	assert.Equal(t, future+1, alloc.Last())
}

func TestIDAllocatorTracksClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	alloc := NewIDAllocatorWithClock(func() time.Time { return now })

	id := alloc.NextID()
	base := ID(now.UnixMilli() * 1000)
	assert.GreaterOrEqual(t, id, base)
	assert.Less(t, id, base+1000)
}
