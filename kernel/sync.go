package kernel

import (
	"sync/atomic"
)

const (
	holderMask  = 0x0000ffff
	waiterShift = 16
)

type (
	// SyncAtom is the scheduler synchronization word shared with the
	// kernel: the holder thread id in the low 16 bits, and at most one
	// waiter thread id in the high 16 bits. It stands in for the two
	// kernel atomic helpers the scheduler lock is specified against.
	SyncAtom struct {
		word atomic.Uint32
	}

	// NextThread is the region the kernel reads during an impending
	// switch: the next thread id, the switch flags, and the scheduling
	// urgency. The triple is packed into one word so the kernel never
	// observes a partial write.
	NextThread struct {
		word atomic.Uint64
	}
)

// TryTake attempts to install curr as the lock holder. On success ok is
// true. Otherwise curr is recorded as the waiter and the current holder
// is returned.
func (x *SyncAtom) TryTake(curr Thdid) (holder Thdid, ok bool) {
	for {
		old := x.word.Load()
		if old&holderMask == 0 {
			if x.word.CompareAndSwap(old, (old&^holderMask)|uint32(curr)) {
				return 0, true
			}
			continue
		}
		if x.word.CompareAndSwap(old, uint32(curr)<<waiterShift|old&holderMask) {
			return Thdid(old & holderMask), false
		}
	}
}

// Release clears the word, returning the waiter recorded at the time of
// release (zero if none). The caller is responsible for unblocking the
// waiter.
func (x *SyncAtom) Release() (waiter Thdid) {
	return Thdid(x.word.Swap(0) >> waiterShift)
}

// Holder returns the current holder thread id, zero if the lock is free.
func (x *SyncAtom) Holder() Thdid {
	return Thdid(x.word.Load() & holderMask)
}

// Waiter returns the recorded waiter thread id, zero if none.
func (x *SyncAtom) Waiter() Thdid {
	return Thdid(x.word.Load() >> waiterShift)
}

// Commit publishes the next-thread record. It must be called before the
// scheduler lock is released, so any thread that acquires the lock in
// between sees a consistent record.
func (x *NextThread) Commit(id Thdid, flags SwitchFlags, urgency uint32) {
	x.word.Store(uint64(id) | uint64(flags)<<16 | uint64(urgency)<<32)
}

// Load returns the last committed next-thread record.
func (x *NextThread) Load() (id Thdid, flags SwitchFlags, urgency uint32) {
	v := x.word.Load()
	return Thdid(v), SwitchFlags(v >> 16), uint32(v >> 32)
}
