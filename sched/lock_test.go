package sched

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wzhmmq/cos-user/kernel"
	"github.com/wzhmmq/cos-user/kernel/kerneltest"
)

func TestLock_uncontended(t *testing.T) {
	k := kerneltest.New()
	x := newTestSched(t, k)
	k.SetCurrent(1)

	require.NoError(t, x.LockTake())
	assert.Equal(t, kernel.Thdid(1), x.Notifications().Lock.Holder())
	assert.Empty(t, k.Switches())

	require.NoError(t, x.LockRelease())
	assert.Zero(t, x.Notifications().Lock.Holder())
	assert.Empty(t, k.Switches())
}

func TestLock_contention(t *testing.T) {
	k := kerneltest.New()
	x := newTestSched(t, k)

	// T1 holds the lock
	k.SetCurrent(1)
	require.NoError(t, x.LockTake())

	// T2's take observes holder T1 and yields to it blocked-on-lock;
	// "running" T1 releases, sees waiter T2, and unblocks it.
	k.SetCurrent(2)
	k.SwitchHook = func(target kernel.Thdid, flags kernel.SwitchFlags) error {
		if target == 1 && flags == kernel.SyncBlock {
			k.SwitchHook = nil
			assert.Equal(t, kernel.Thdid(2), x.Notifications().Lock.Waiter())
			return x.LockRelease()
		}
		return nil
	}
	require.NoError(t, x.LockTake())

	// T2 now holds the lock
	assert.Equal(t, kernel.Thdid(2), x.Notifications().Lock.Holder())

	switches := k.Switches()
	require.Len(t, switches, 2)
	assert.Equal(t, kerneltest.Switch{Target: 1, Flags: kernel.SyncBlock}, switches[0])
	assert.Equal(t, kerneltest.Switch{Target: 2, Flags: kernel.SyncUnblock}, switches[1])
}

func TestLock_takeAborted(t *testing.T) {
	k := kerneltest.New()
	x := newTestSched(t, k)

	k.SetCurrent(1)
	require.NoError(t, x.LockTake())

	k.SetCurrent(2)
	k.SwitchHook = func(kernel.Thdid, kernel.SwitchFlags) error {
		return fmt.Errorf(`%w: thread gone`, kernel.ErrRefused)
	}
	err := x.LockTake()
	assert.ErrorIs(t, err, ErrAborted)

	// the holder is unchanged
	assert.Equal(t, kernel.Thdid(1), x.Notifications().Lock.Holder())
}
