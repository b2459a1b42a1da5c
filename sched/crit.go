package sched

import (
	"fmt"

	"github.com/wzhmmq/cos-user/kernel"
)

// TakeCritSect attempts to enter the critical section of a component.
// If it is uncontested, curr becomes the holder and nil is returned.
// Otherwise the holder is returned, curr is marked dependent on the
// contended component, and the policy is responsible for boosting the
// holder or yielding to it.
//
// curr must be ready and non-free.
func (x *Sched) TakeCritSect(spdid kernel.Spdid, curr *Thread) *Thread {
	if int(spdid) >= len(x.crit) {
		panic(`sched: component id out of range`)
	}
	if curr == nil || curr.Free() || !curr.Ready() {
		panic(`sched: critical section take by non-ready thread`)
	}
	cs := &x.crit[spdid]
	if cs.holder != nil {
		if cs.holder.Free() || !cs.holder.Ready() {
			panic(`sched: critical section holder not ready`)
		}
		curr.ContendedComponent = spdid
		curr.flags |= FlagDependency
		return cs.holder
	}
	cs.holder = curr
	return nil
}

// ReleaseCritSect leaves the critical section of a component. It fails
// with ErrNotHolder if curr does not hold it. Waking waiters is the
// policy layer's concern.
func (x *Sched) ReleaseCritSect(spdid kernel.Spdid, curr *Thread) error {
	if int(spdid) >= len(x.crit) {
		panic(`sched: component id out of range`)
	}
	if curr == nil || curr.Free() || !curr.Ready() {
		panic(`sched: critical section release by non-ready thread`)
	}
	cs := &x.crit[spdid]
	if cs.holder != curr {
		return fmt.Errorf(`%w: component %d`, ErrNotHolder, spdid)
	}
	cs.holder = nil
	return nil
}

// Dependency resolves the thread curr is effectively blocked upon, nil if
// none. A contended component resolves to that component's current
// holder; an explicit handoff target applies while curr stays blocked.
// Stale dependencies are cleared as they are discovered.
//
// The policy follows the returned thread transitively to implement
// priority inheritance; it must not establish a cycle when promoting
// dependents, as the core does not detect one.
func (x *Sched) Dependency(curr *Thread) *Thread {
	if curr == nil || curr.Free() {
		panic(`sched: dependency of free thread`)
	}
	if !curr.Dependent() {
		return nil
	}

	if spdid := curr.ContendedComponent; spdid != 0 {
		if int(spdid) >= len(x.crit) {
			panic(`sched: component id out of range`)
		}
		cs := &x.crit[spdid]
		if cs.holder == nil {
			curr.flags &^= FlagDependency
			curr.ContendedComponent = 0
			return nil
		}
		return cs.holder
	}

	// A (possibly stale) block/wake dependency.
	if curr.DependencyThd == nil {
		panic(`sched: dependent thread without target`)
	}
	if curr.Blocked() {
		return curr.DependencyThd
	}
	curr.flags &^= FlagDependency
	curr.DependencyThd = nil
	return nil
}
