package sched

import (
	"fmt"
)

// IsGrp reports whether the thread is a group. It panics on a free
// descriptor, and enforces that group and member are mutually exclusive.
func (x *Thread) IsGrp() bool {
	if x.Free() {
		panic(`sched: group predicate on free thread`)
	}
	if x.flags&FlagGrp != 0 {
		if x.flags&FlagMember != 0 {
			panic(`sched: thread is both group and member`)
		}
		return true
	}
	return false
}

// IsMember reports whether the thread belongs to a group.
func (x *Thread) IsMember() bool { return x.flags&FlagMember != 0 }

// Grp returns the group a member thread belongs to, nil for a group or an
// unaffiliated thread.
func (x *Thread) Grp() *Thread {
	if x.IsGrp() {
		return nil
	}
	return x.group
}

// NumThds returns the member count of a group.
func (x *Thread) NumThds() int { return x.nthds }

// Members returns the member threads of a group, nil if it has none. It
// panics if the thread is not a group.
func (x *Thread) Members() []*Thread {
	if !x.IsGrp() {
		panic(`sched: members of non-group thread`)
	}
	var members []*Thread
	for t := x.next; t != x; t = t.next {
		members = append(members, t)
	}
	return members
}

// MakeGrp converts a thread into an empty group. It fails with
// ErrInvalidState if the thread is already a group or a member.
func MakeGrp(thd *Thread) error {
	if thd.Free() || thd.flags&(FlagGrp|FlagMember) != 0 {
		return fmt.Errorf(`%w: cannot convert thread %d into a group`, ErrInvalidState, thd.id)
	}
	thd.flags |= FlagGrp
	thd.nthds = 0
	thd.next = thd
	thd.prev = thd
	return nil
}

// AddGrp adds a thread to a group. The group must be a group; the thread
// must be neither a group nor a member of any group.
func AddGrp(grp, thd *Thread) error {
	if !grp.IsGrp() || thd.IsGrp() || thd.IsMember() {
		return fmt.Errorf(`%w: cannot add thread %d to group %d`, ErrInvalidState, thd.id, grp.id)
	}
	thd.flags |= FlagMember
	thd.group = grp
	thd.next = grp.next
	thd.prev = grp
	grp.next.prev = thd
	grp.next = thd
	grp.nthds++
	return nil
}

// RemGrp removes a member from its group. It fails with ErrInvalidState
// if the thread is not a member of that group.
func RemGrp(grp, thd *Thread) error {
	if !grp.IsGrp() || !thd.IsMember() || thd.group != grp {
		return fmt.Errorf(`%w: thread %d is not a member of group %d`, ErrInvalidState, thd.id, grp.id)
	}
	thd.prev.next = thd.next
	thd.next.prev = thd.prev
	thd.next = thd
	thd.prev = thd
	thd.flags &^= FlagMember
	thd.group = nil
	grp.nthds--
	return nil
}
