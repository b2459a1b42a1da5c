package kernel

import (
	"sync/atomic"
)

// DefaultRingSize is the event ring capacity used when Notifications is
// constructed without an explicit size.
const DefaultRingSize = 256

// Notifications aggregates the kernel-shared regions of one scheduler:
// the synchronization atom, the next-thread hint, the event ring, and the
// per-slot event urgency table.
type Notifications struct {
	Lock    SyncAtom
	Next    NextThread
	Events  *EventRing
	urgency []atomic.Uint32
}

// NewNotifications initializes the shared regions for numEvents event
// slots. The ring capacity must be a power of 2; 0 selects
// DefaultRingSize.
func NewNotifications(numEvents, ringSize int) *Notifications {
	if numEvents <= 0 {
		panic(`kernel: notifications: numEvents must be positive`)
	}
	if ringSize == 0 {
		ringSize = DefaultRingSize
	}
	return &Notifications{
		Events:  NewEventRing(ringSize),
		urgency: make([]atomic.Uint32, numEvents),
	}
}

// NumEvents returns the number of event slots, including the reserved
// slot 0.
func (x *Notifications) NumEvents() int {
	return len(x.urgency)
}

// SetUrgency publishes the scheduling urgency for an event slot, so
// events delivered via that slot carry it.
func (x *Notifications) SetUrgency(slot int, urgency uint16) {
	x.urgency[slot].Store(uint32(urgency))
}

// Urgency returns the published urgency for an event slot.
func (x *Notifications) Urgency(slot int) uint16 {
	return uint16(x.urgency[slot].Load())
}
