package sched

import (
	"bytes"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wzhmmq/cos-user/kernel"
	"github.com/wzhmmq/cos-user/kernel/kerneltest"
)

func TestSched_allocEvent(t *testing.T) {
	x := newTestSched(t, nil) // 4 slots, slot 0 reserved

	t1, _ := x.AllocThd(1)
	t2, _ := x.AllocThd(2)
	t3, _ := x.AllocThd(3)

	s1, err := x.AllocEvent(t1)
	require.NoError(t, err)
	assert.Equal(t, 1, s1)
	assert.Equal(t, 1, t1.Event())

	s2, err := x.AllocEvent(t2)
	require.NoError(t, err)
	assert.Equal(t, 2, s2)

	s3, err := x.AllocEvent(t3)
	require.NoError(t, err)
	assert.Equal(t, 3, s3)

	// slot 0 is reserved; the table is now exhausted
	_, err = x.AllocEvent(t1)
	assert.ErrorIs(t, err, ErrExhausted)

	assert.Same(t, t2, x.EvtThd(2))
	assert.Panics(t, func() { x.EvtThd(0) })
	assert.Panics(t, func() { x.EvtThd(4) })
}

func TestSched_processEvents(t *testing.T) {
	k := kerneltest.New()
	x := newTestSched(t, k)

	thd, _ := x.AllocThd(1)
	slot, err := x.AllocEvent(thd)
	require.NoError(t, err)

	ring := x.Notifications().Events
	require.True(t, ring.Push(kernel.Event{Slot: uint8(slot), Flags: kernel.EvtActive, Cycles: 100}))

	type visitRec struct {
		thd    *Thread
		flags  uint8
		cycles uint32
	}
	var visits []visitRec
	visit := func(thd *Thread, flags uint8, cycles uint32) {
		visits = append(visits, visitRec{thd, flags, cycles})
	}

	// delivered exactly once per consuming call
	assert.Equal(t, 1, x.ProcessEvents(visit, 10))
	require.Len(t, visits, 1)
	assert.Same(t, thd, visits[0].thd)
	assert.Equal(t, kernel.EvtActive, visits[0].flags)
	assert.Equal(t, uint32(100), visits[0].cycles)

	assert.Equal(t, 0, x.ProcessEvents(visit, 10))
	assert.Len(t, visits, 1)
}

func TestSched_processEvents_dropsSentinelAndUnbound(t *testing.T) {
	var buf bytes.Buffer
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(&buf), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(logiface.LevelTrace),
	).Logger()

	k := kerneltest.New()
	x := New(&Config{
		MaxThreads:    8,
		MaxComponents: 8,
		NumEvents:     4,
		Syscall:       k,
		Logger:        logger,
	})

	ring := x.Notifications().Events
	require.True(t, ring.Push(kernel.Event{Slot: 0, Flags: kernel.EvtWaking}))  // sentinel
	require.True(t, ring.Push(kernel.Event{Slot: 2, Flags: kernel.EvtWaking}))  // unbound
	require.True(t, ring.Push(kernel.Event{Slot: 99, Flags: kernel.EvtWaking})) // out of range

	visited := 0
	assert.Equal(t, 0, x.ProcessEvents(func(*Thread, uint8, uint32) { visited++ }, 10))
	assert.Zero(t, visited)
	assert.Equal(t, 0, ring.Len())
	assert.Contains(t, buf.String(), `dropped event for unbound slot`)
}

func TestSched_processEvents_honorsProcAmnt(t *testing.T) {
	x := newTestSched(t, nil)
	thd, _ := x.AllocThd(1)
	slot, _ := x.AllocEvent(thd)

	ring := x.Notifications().Events
	for i := 0; i < 3; i++ {
		require.True(t, ring.Push(kernel.Event{Slot: uint8(slot)}))
	}

	assert.Equal(t, 2, x.ProcessEvents(func(*Thread, uint8, uint32) {}, 2))
	assert.Equal(t, 1, ring.Len())
}

func TestSched_freeThdUnbindsEventSlot(t *testing.T) {
	x := newTestSched(t, nil)
	thd, _ := x.AllocThd(1)
	slot, err := x.AllocEvent(thd)
	require.NoError(t, err)

	require.NoError(t, x.FreeThd(thd))
	assert.Nil(t, x.EvtThd(slot))

	// the slot is allocatable again
	thd2, _ := x.AllocThd(2)
	slot2, err := x.AllocEvent(thd2)
	require.NoError(t, err)
	assert.Equal(t, slot, slot2)
}

func TestSched_urgency(t *testing.T) {
	x := newTestSched(t, nil)
	thd, _ := x.AllocThd(1)

	// without an event slot, only the metric changes
	x.SetThdUrgency(thd, 10)
	assert.Equal(t, uint16(10), thd.Metric.Urgency)

	slot, err := x.AllocEvent(thd)
	require.NoError(t, err)

	x.SetThdUrgency(thd, 20)
	assert.Equal(t, uint16(20), thd.Metric.Urgency)
	assert.Equal(t, uint16(20), x.Notifications().Urgency(slot))

	x.SetEvtUrgency(slot, 30)
	assert.Equal(t, uint16(30), x.Notifications().Urgency(slot))
	assert.Panics(t, func() { x.SetEvtUrgency(0, 1) })
}
