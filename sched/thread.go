package sched

import (
	"github.com/wzhmmq/cos-user/kernel"
)

// Flag is the thread descriptor state bitset.
type Flag uint16

const (
	// FlagBlocked marks a thread waiting for an event or explicit wake.
	FlagBlocked Flag = 1 << iota

	// FlagReady marks a runnable thread.
	FlagReady

	// FlagFree marks an unallocated descriptor. A free descriptor
	// carries no other state.
	FlagFree

	// FlagGrp marks a thread that is a group of threads.
	FlagGrp

	// FlagMember marks a thread that belongs to a group. Mutually
	// exclusive with FlagGrp.
	FlagMember

	// FlagUpcallActive marks an upcall thread with a pending activation.
	FlagUpcallActive

	// FlagUpcallReady marks an upcall thread awaiting activation.
	FlagUpcallReady

	// FlagSuspended marks a thread removed from consideration by the
	// policy without being blocked.
	FlagSuspended

	// FlagDependency marks a thread whose progress depends on another
	// thread, via a contended component or an explicit handoff target.
	FlagDependency
)

type (
	// Accounting is the per-thread execution accounting consumed by the
	// policy layer: budget C over period T, what has been used and what
	// remains, cycle and progress counters, and opaque policy state.
	Accounting struct {
		C, T         uint64
		CUsed, TLeft uint64
		Cycles       uint64
		Progress     uint64
		Private      any
	}

	// Metric is the pair of scheduling parameters shared with the
	// kernel event path.
	Metric struct {
		Priority uint16
		Urgency  uint16
	}

	// Thread is one descriptor of the fixed pool. Descriptors are
	// created free, claimed by Sched.AllocThd, and recycled by
	// Sched.FreeThd; they are never handed back to the allocator.
	//
	// The exported fields belong to the policy layer and the
	// block/wake protocol. Flags and list membership are manipulated
	// through methods so their invariants hold.
	Thread struct {
		id    kernel.Thdid
		flags Flag
		evt   int

		Accounting Accounting
		Metric     Metric

		// WakeCnt is negative when a wake arrived before the matching
		// block, positive when blocks are pending.
		WakeCnt int

		// BlockingComponent is the component whose invocation caused
		// this thread to block.
		BlockingComponent kernel.Spdid

		// ContendedComponent is the component whose critical section
		// this thread is waiting on, zero if none. Maintained by
		// TakeCritSect / Dependency.
		ContendedComponent kernel.Spdid

		// DependencyThd is the explicit handoff target for wake-chain
		// priority inheritance.
		DependencyThd *Thread

		// BlockTime is the timestamp captured when the thread blocked.
		BlockTime uint64

		// PrioNext and PrioPrev are the priority-queue sibling links.
		// They are owned entirely by the policy layer.
		PrioNext, PrioPrev *Thread

		group      *Thread
		nthds      int
		next, prev *Thread
	}
)

// ID returns the kernel thread id.
func (x *Thread) ID() kernel.Thdid { return x.id }

// Flags returns the current flag set.
func (x *Thread) Flags() Flag { return x.flags }

// SetFlags adds the given flags.
func (x *Thread) SetFlags(f Flag) { x.flags |= f }

// ClearFlags removes the given flags.
func (x *Thread) ClearFlags(f Flag) { x.flags &^= f }

// Event returns the bound event slot id, 0 if none.
func (x *Thread) Event() int { return x.evt }

func (x *Thread) Free() bool      { return x.flags&FlagFree != 0 }
func (x *Thread) Ready() bool     { return x.flags&FlagReady != 0 }
func (x *Thread) Blocked() bool   { return x.flags&FlagBlocked != 0 }
func (x *Thread) Suspended() bool { return x.flags&FlagSuspended != 0 }
func (x *Thread) Dependent() bool { return x.flags&FlagDependency != 0 }

// UpcallEvent reports whether the thread is in either upcall state.
func (x *Thread) UpcallEvent() bool { return x.flags&(FlagUpcallActive|FlagUpcallReady) != 0 }

// InactiveUpcall reports whether the thread is an upcall thread awaiting
// activation.
func (x *Thread) InactiveUpcall() bool { return x.flags&FlagUpcallReady != 0 }

func (x *Thread) init(id kernel.Thdid, flags Flag) {
	*x = Thread{id: id, flags: flags}
	x.next = x
	x.prev = x
}
