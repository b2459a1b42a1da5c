package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wzhmmq/cos-user/kernel"
	"github.com/wzhmmq/cos-user/kernel/kerneltest"
)

func TestSwitchRelease_ordering(t *testing.T) {
	k := kerneltest.New()
	x := newTestSched(t, k)

	k.SetCurrent(1)
	next, err := x.AllocThd(2)
	require.NoError(t, err)

	require.NoError(t, x.LockTake())

	// the kernel observes the committed record at switch time, with the
	// lock already released
	k.SwitchHook = func(target kernel.Thdid, flags kernel.SwitchFlags) error {
		id, f, urgency := x.Notifications().Next.Load()
		assert.Equal(t, kernel.Thdid(2), id)
		assert.Equal(t, kernel.SyncUnblock, f)
		assert.Equal(t, uint32(7), urgency)
		assert.Zero(t, x.Notifications().Lock.Holder())
		assert.Equal(t, kernel.Thdid(2), target)
		assert.Equal(t, kernel.SyncUnblock, flags)
		return nil
	}

	require.NoError(t, x.SwitchRelease(next, kernel.SyncUnblock, 7))

	switches := k.Switches()
	require.Len(t, switches, 1)
	assert.Equal(t, kerneltest.Switch{Target: 2, Flags: kernel.SyncUnblock}, switches[0])
}

func TestSwitchRelease_handsOffToWaiterFirst(t *testing.T) {
	k := kerneltest.New()
	x := newTestSched(t, k)

	k.SetCurrent(1)
	require.NoError(t, x.LockTake())

	// record thread 3 as a waiter on the lock
	_, ok := x.Notifications().Lock.TryTake(3)
	require.False(t, ok)

	next, err := x.AllocThd(2)
	require.NoError(t, err)
	require.NoError(t, x.SwitchRelease(next, 0, 0))

	// the release path unblocks the waiter before the switch proper
	switches := k.Switches()
	require.Len(t, switches, 2)
	assert.Equal(t, kerneltest.Switch{Target: 3, Flags: kernel.SyncUnblock}, switches[0])
	assert.Equal(t, kerneltest.Switch{Target: 2, Flags: 0}, switches[1])
}

func TestSwitchRelease_rejectsFreeThread(t *testing.T) {
	x := newTestSched(t, nil)
	assert.Panics(t, func() { x.SwitchRelease(nil, 0, 0) })

	thd, err := x.AllocThd(1)
	require.NoError(t, err)
	require.NoError(t, x.FreeThd(thd))
	assert.Panics(t, func() { x.SwitchRelease(thd, 0, 0) })
}
