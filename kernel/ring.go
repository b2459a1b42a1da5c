package kernel

import (
	"sync"
)

type (
	// Event is one entry of the kernel-produced event ring.
	Event struct {
		// Slot is the event slot id the event was delivered on. Slot 0
		// is the reserved sentinel.
		Slot uint8

		// Flags carries the Evt* bits.
		Flags uint8

		// Cycles is the cpu consumption reported with the event.
		Cycles uint32
	}

	// EventRing is the bounded ring of kernel-produced events consumed
	// by the scheduler. The kernel side pushes, the scheduler side pops;
	// both may race, so the cursors are guarded.
	EventRing struct {
		mu   sync.Mutex
		s    []Event
		r, w uint
	}
)

// NewEventRing initializes an EventRing with the given capacity, which
// must be a power of 2.
func NewEventRing(size int) *EventRing {
	if size <= 0 || size&(size-1) != 0 {
		panic(`kernel: ring: size must be a power of 2`)
	}
	return &EventRing{s: make([]Event, size)}
}

func (x *EventRing) mask(val uint) uint {
	return val & (uint(len(x.s)) - 1)
}

// Len returns the number of buffered events.
func (x *EventRing) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return int(x.w - x.r)
}

// Cap returns the ring capacity.
func (x *EventRing) Cap() int {
	return len(x.s)
}

// Push appends an event, returning false if the ring is full (the event
// is dropped, as the kernel drops notifications it cannot buffer).
func (x *EventRing) Push(e Event) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if int(x.w-x.r) == len(x.s) {
		return false
	}
	x.s[x.mask(x.w)] = e
	x.w++
	return true
}

// Pop removes and returns the oldest buffered event.
func (x *EventRing) Pop() (e Event, ok bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.r == x.w {
		return Event{}, false
	}
	e = x.s[x.mask(x.r)]
	x.r++
	return e, true
}
