package sched

import (
	"fmt"
)

// EvtVisitor is invoked for each delivered event, so the policy can
// credit cpu consumption and react to block/wake/activate signals.
type EvtVisitor func(thd *Thread, flags uint8, cycles uint32)

// AllocEvent binds the lowest free event slot to the thread and returns
// it. Slot 0 is reserved and never allocated. It fails with ErrExhausted
// when every slot is bound.
func (x *Sched) AllocEvent(thd *Thread) (int, error) {
	for i := 1; i < len(x.evtThd); i++ {
		if x.evtThd[i] == nil {
			x.evtThd[i] = thd
			thd.evt = i
			return i, nil
		}
	}
	return 0, fmt.Errorf(`%w: event slots`, ErrExhausted)
}

// EvtThd resolves the thread bound to an event slot, nil if the slot is
// unbound. It panics on slot 0 and out-of-range slots.
func (x *Sched) EvtThd(slot int) *Thread {
	if slot <= 0 || slot >= len(x.evtThd) {
		panic(`sched: event slot out of range`)
	}
	return x.evtThd[slot]
}

// ProcessEvents drains up to procAmnt kernel-produced events from the
// shared ring, invoking visit for each one bound to a thread. Events on
// slot 0 (the sentinel) or on unbound slots are dropped. It returns the
// number of events delivered to visit.
func (x *Sched) ProcessEvents(visit EvtVisitor, procAmnt int) int {
	var delivered int
	for i := 0; i < procAmnt; i++ {
		e, ok := x.ntf.Events.Pop()
		if !ok {
			break
		}
		if e.Slot == 0 || int(e.Slot) >= len(x.evtThd) {
			continue
		}
		thd := x.evtThd[e.Slot]
		if thd == nil {
			x.logger.Debug().
				Int(`slot`, int(e.Slot)).
				Log(`sched: dropped event for unbound slot`)
			continue
		}
		visit(thd, e.Flags, e.Cycles)
		delivered++
	}
	return delivered
}

// SetEvtUrgency forwards urgency to the kernel-facing region, so events
// delivered via the slot carry it.
func (x *Sched) SetEvtUrgency(slot int, urgency uint16) {
	if slot <= 0 || slot >= len(x.evtThd) {
		panic(`sched: event slot out of range`)
	}
	x.ntf.SetUrgency(slot, urgency)
}

// SetThdUrgency updates the thread's metric, and the kernel-facing region
// when the thread has an event slot bound.
func (x *Sched) SetThdUrgency(thd *Thread, urgency uint16) {
	if thd.evt != 0 {
		x.SetEvtUrgency(thd.evt, urgency)
	}
	thd.Metric.Urgency = urgency
}
