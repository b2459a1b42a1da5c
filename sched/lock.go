package sched

import (
	"fmt"

	"github.com/wzhmmq/cos-user/kernel"
)

// LockTake acquires scheduler-wide mutual exclusion. An uncontended
// acquire returns immediately. When contended, the caller yields the CPU
// to the holder with a blocked-on-lock hint, and retries once it runs
// again; there is no timeout. It fails with ErrAborted only if the kernel
// refuses the scheduler-initiated switch, in which case the lock holder
// is unchanged and the caller stays recorded as the lock's waiter.
//
// This method does not assume the scheduler lock; it is how the lock is
// entered.
func (x *Sched) LockTake() error {
	curr := x.sys.CurrentThread()
	for {
		holder, ok := x.ntf.Lock.TryTake(curr)
		if ok {
			return nil
		}
		if err := x.sys.SwitchThread(holder, kernel.SyncBlock); err != nil {
			return fmt.Errorf(`%w: yield to lock holder %d: %v`, ErrAborted, holder, err)
		}
	}
}

// LockRelease drops scheduler-wide mutual exclusion. If another thread
// was recorded waiting on the lock, the CPU is handed to it with an
// unblock hint, so the newly unblocked waiter is scheduled.
func (x *Sched) LockRelease() error {
	waiter := x.ntf.Lock.Release()
	if waiter != 0 {
		return x.sys.SwitchThread(waiter, kernel.SyncUnblock)
	}
	return nil
}
