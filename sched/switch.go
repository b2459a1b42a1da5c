package sched

import (
	"github.com/wzhmmq/cos-user/kernel"
)

// SwitchRelease commits the next-thread selection and yields the CPU. The
// record is written to the kernel-visible region first, the scheduler
// lock is released second, and the switch is invoked last; the kernel
// reads the record after the release, and any thread that acquires the
// lock in between observes a consistent record.
//
// The caller must hold the scheduler lock, and does not on return.
func (x *Sched) SwitchRelease(next *Thread, flags kernel.SwitchFlags, urgency uint32) error {
	if next == nil || next.Free() {
		panic(`sched: switch to free thread`)
	}
	x.ntf.Next.Commit(next.id, flags, urgency)
	if err := x.LockRelease(); err != nil {
		return err
	}
	return x.sys.SwitchThread(next.id, flags)
}
