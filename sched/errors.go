package sched

import (
	"errors"
)

var (
	// ErrExhausted indicates no free thread descriptor or event slot.
	ErrExhausted = errors.New(`sched: no free slot`)

	// ErrInvalidState indicates a state-predicate violation, e.g.
	// removing a thread from a group it is not a member of, or mapping
	// a thread id that is already mapped.
	ErrInvalidState = errors.New(`sched: invalid state`)

	// ErrNotHolder indicates a critical-section release by a thread
	// that does not hold it.
	ErrNotHolder = errors.New(`sched: not critical section holder`)

	// ErrAborted indicates the kernel refused a scheduler-initiated
	// switch during lock acquisition; the lock was not taken.
	ErrAborted = errors.New(`sched: switch aborted`)
)
