package dashboard

import (
	"sync"
)

// Ring is a thread-safe fixed-capacity buffer. When full, Push overwrites
// the oldest item.
type Ring[T any] struct {
	mu       sync.Mutex
	buf      []T
	head     int // oldest item
	count    int
	capacity int

	// Stats
	totalPushed int64
	overwritten int64
}

// NewRing creates a ring holding at most capacity items.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
	}
}

// Push appends an item, dropping the oldest one if the ring is full.
func (r *Ring[T]) Push(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tail := (r.head + r.count) % r.capacity
	r.buf[tail] = item
	r.totalPushed++

	if r.count == r.capacity {
		r.head = (r.head + 1) % r.capacity
		r.overwritten++
		return
	}
	r.count++
}

// Items returns the buffered items, oldest first.
func (r *Ring[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}

	result := make([]T, r.count)
	if r.head+r.count <= r.capacity {
		// Contiguous: [head...head+count)
		copy(result, r.buf[r.head:r.head+r.count])
	} else {
		// Wrapped: [head...end) + [0...rest)
		n := copy(result, r.buf[r.head:])
		copy(result[n:], r.buf[:r.count-n])
	}
	return result
}

// Last returns the newest item.
func (r *Ring[T]) Last() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		var zero T
		return zero, false
	}
	return r.buf[(r.head+r.count-1)%r.capacity], true
}

// Stats returns ring statistics.
func (r *Ring[T]) Stats() RingStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RingStats{
		Count:       r.count,
		Capacity:    r.capacity,
		TotalPushed: r.totalPushed,
		Overwritten: r.overwritten,
	}
}

// RingStats contains ring statistics.
type RingStats struct {
	Count       int   `json:"count"`
	Capacity    int   `json:"capacity"`
	TotalPushed int64 `json:"total_pushed"`
	Overwritten int64 `json:"overwritten"`
}
