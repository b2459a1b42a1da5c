package sched

import (
	"fmt"

	"github.com/wzhmmq/cos-user/kernel"
)

// AllocThd reserves a descriptor for the given kernel thread id, marks it
// ready, and installs the id mapping. It fails with ErrExhausted if the
// pool is empty, and ErrInvalidState if the id is out of range or already
// mapped.
func (x *Sched) AllocThd(id kernel.Thdid) (*Thread, error) {
	return x.allocThd(id, FlagReady)
}

// AllocUpcallThd is AllocThd for a thread created to receive asynchronous
// kernel notifications; it is additionally marked upcall-ready.
func (x *Sched) AllocUpcallThd(id kernel.Thdid) (*Thread, error) {
	return x.allocThd(id, FlagReady|FlagUpcallReady)
}

func (x *Sched) allocThd(id kernel.Thdid, flags Flag) (*Thread, error) {
	if int(id) >= len(x.thdMap) {
		return nil, fmt.Errorf(`%w: thread id %d out of range`, ErrInvalidState, id)
	}
	if x.thdMap[id] != nil {
		return nil, fmt.Errorf(`%w: thread id %d already mapped`, ErrInvalidState, id)
	}

	var thd *Thread
	for i := range x.pool {
		if x.pool[i].Free() {
			thd = &x.pool[i]
			break
		}
	}
	if thd == nil {
		x.logger.Warning().
			Uint64(`id`, uint64(id)).
			Log(`sched: thread pool exhausted`)
		return nil, fmt.Errorf(`%w: thread descriptors`, ErrExhausted)
	}

	thd.init(id, flags)
	x.thdMap[id] = thd
	return thd, nil
}

// FreeThd releases a descriptor: the id mapping is removed, any bound
// event slot is unbound, and the slot is preserved for reuse. Freeing a
// free descriptor fails with ErrInvalidState.
func (x *Sched) FreeThd(thd *Thread) error {
	if thd == nil || thd.Free() {
		return fmt.Errorf(`%w: free of unallocated thread`, ErrInvalidState)
	}
	if int(thd.id) < len(x.thdMap) && x.thdMap[thd.id] == thd {
		x.thdMap[thd.id] = nil
	}
	if thd.evt != 0 && x.evtThd[thd.evt] == thd {
		x.evtThd[thd.evt] = nil
	}
	thd.init(0, FlagFree)
	return nil
}

// Mapping resolves a kernel thread id to its descriptor, nil if the id is
// out of range, unmapped, or the descriptor is free.
func (x *Sched) Mapping(id kernel.Thdid) *Thread {
	if int(id) >= len(x.thdMap) {
		return nil
	}
	thd := x.thdMap[id]
	if thd == nil || thd.Free() {
		return nil
	}
	return thd
}

// Current resolves the kernel's current thread id and delegates to
// Mapping.
func (x *Sched) Current() *Thread {
	return x.Mapping(x.sys.CurrentThread())
}
