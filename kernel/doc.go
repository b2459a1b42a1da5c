// Package kernel abstracts the narrow syscall surface and the
// kernel-shared memory regions that the scheduler support library and the
// physical-page manager are built against.
//
// The kernel proper is an external collaborator: this package defines the
// Syscall interface it is reached through, the id types shared across
// protection domains, and concrete implementations of the user-visible
// regions the kernel reads and writes (the scheduler synchronization atom,
// the next-thread hint, the event ring, and per-slot event urgency).
package kernel
