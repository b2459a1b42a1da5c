// Package sched is the support library schedulers link against: it owns
// the thread descriptor pool and id mapping, thread groups, kernel event
// delivery, the scheduler lock, per-component critical sections with
// dependency tracking, and the atomic lock-release-plus-switch primitive.
//
// It is policy-agnostic. Which thread runs next is decided by the policy
// layer on top; this package supplies the data model and the primitives
// the policy consumes, and assumes its operations are serialized by the
// scheduler lock (LockTake / LockRelease).
package sched
