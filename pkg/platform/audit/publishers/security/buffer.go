package security

import (
	"sync"

	audit "guardian/pkg/platform/audit"
)

const defaultBufferSize = 10_000

// RingBuffer holds security events awaiting the flush loop. Hints fallbacks
// and lockdown transitions can burst during an incident; when the buffer is
// full the oldest event is overwritten and counted as dropped.
type RingBuffer struct {
	mu      sync.Mutex
	slots   []audit.SecurityEvent
	start   int // index of the oldest event
	size    int
	dropped int64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &RingBuffer{slots: make([]audit.SecurityEvent, capacity)}
}

// Enqueue stores event and reports whether an older event was overwritten.
func (b *RingBuffer) Enqueue(event audit.SecurityEvent) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.slots)
	if b.size < n {
		b.slots[(b.start+b.size)%n] = event
		b.size++
		return false
	}
	b.slots[b.start] = event
	b.start = (b.start + 1) % n
	b.dropped++
	return true
}

// DequeueBatch removes and returns up to limit events in arrival order, or nil
// when the buffer is empty.
func (b *RingBuffer) DequeueBatch(limit int) []audit.SecurityEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	take := min(limit, b.size)
	if take <= 0 {
		return nil
	}
	n := len(b.slots)
	out := make([]audit.SecurityEvent, 0, take)
	for range take {
		out = append(out, b.slots[b.start])
		b.slots[b.start] = audit.SecurityEvent{}
		b.start = (b.start + 1) % n
	}
	b.size -= take
	return out
}

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
