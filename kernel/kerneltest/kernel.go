// Package kerneltest provides an in-memory kernel.Syscall implementation
// for exercising the scheduler support library and the page manager
// without a kernel underneath.
package kerneltest

import (
	"fmt"
	"sync"

	"github.com/wzhmmq/cos-user/kernel"
)

type (
	// Switch records one SwitchThread invocation.
	Switch struct {
		Target kernel.Thdid
		Flags  kernel.SwitchFlags
	}

	// Map records one MapCntl invocation.
	Map struct {
		Op    kernel.MapOp
		Spd   kernel.Spdid
		Addr  kernel.Vaddr
		Frame kernel.Frame
	}

	grantKey struct {
		spd  kernel.Spdid
		addr kernel.Vaddr
	}

	// Kernel is a scripted in-memory kernel. Grants are tracked per
	// (component, address) pair, which must be unique, mirroring the
	// overlap check of the real grant path. The zero value is not
	// usable; construct with New.
	Kernel struct {
		mu       sync.Mutex
		current  kernel.Thdid
		switches []Switch
		maps     []Map
		grants   map[grantKey]kernel.Frame

		// SwitchHook, if set, runs on every SwitchThread call (after
		// recording). A non-nil result is returned as the refusal. It
		// is how tests model the other side of a contended handoff.
		SwitchHook func(target kernel.Thdid, flags kernel.SwitchFlags) error

		// MapHook, if set, runs before every MapCntl call takes
		// effect. A non-nil result is returned as the refusal.
		MapHook func(op kernel.MapOp, dstSpd kernel.Spdid, dstAddr kernel.Vaddr, frame kernel.Frame) error
	}
)

// New initializes a Kernel whose current thread is id 1.
func New() *Kernel {
	return &Kernel{
		current: 1,
		grants:  make(map[grantKey]kernel.Frame),
	}
}

// SetCurrent sets the thread id reported by CurrentThread.
func (x *Kernel) SetCurrent(id kernel.Thdid) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.current = id
}

func (x *Kernel) CurrentThread() kernel.Thdid {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.current
}

func (x *Kernel) SwitchThread(target kernel.Thdid, flags kernel.SwitchFlags) error {
	x.mu.Lock()
	x.switches = append(x.switches, Switch{Target: target, Flags: flags})
	hook := x.SwitchHook
	x.mu.Unlock()
	if hook != nil {
		return hook(target, flags)
	}
	return nil
}

func (x *Kernel) MapCntl(op kernel.MapOp, srcSpd, dstSpd kernel.Spdid, dstAddr kernel.Vaddr, frame kernel.Frame) (kernel.Frame, error) {
	x.mu.Lock()
	hook := x.MapHook
	x.mu.Unlock()
	if hook != nil {
		if err := hook(op, dstSpd, dstAddr, frame); err != nil {
			return -1, err
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	key := grantKey{spd: dstSpd, addr: dstAddr}
	switch op {
	case kernel.MapGrant:
		if _, ok := x.grants[key]; ok {
			return -1, fmt.Errorf(`%w: mapping exists at spd %d addr %#x`, kernel.ErrRefused, dstSpd, dstAddr)
		}
		x.grants[key] = frame
		x.maps = append(x.maps, Map{Op: op, Spd: dstSpd, Addr: dstAddr, Frame: frame})
		return frame, nil

	case kernel.MapRevoke:
		f, ok := x.grants[key]
		if !ok {
			return -1, fmt.Errorf(`%w: no mapping at spd %d addr %#x`, kernel.ErrRefused, dstSpd, dstAddr)
		}
		delete(x.grants, key)
		x.maps = append(x.maps, Map{Op: op, Spd: dstSpd, Addr: dstAddr, Frame: f})
		return f, nil

	default:
		return -1, fmt.Errorf(`%w: unknown op %d`, kernel.ErrRefused, op)
	}
}

// Switches returns a copy of the recorded SwitchThread calls.
func (x *Kernel) Switches() []Switch {
	x.mu.Lock()
	defer x.mu.Unlock()
	s := make([]Switch, len(x.switches))
	copy(s, x.switches)
	return s
}

// Maps returns a copy of the recorded, successful MapCntl calls.
func (x *Kernel) Maps() []Map {
	x.mu.Lock()
	defer x.mu.Unlock()
	s := make([]Map, len(x.maps))
	copy(s, x.maps)
	return s
}

// Granted reports the frame granted at (spd, addr), if any.
func (x *Kernel) Granted(spd kernel.Spdid, addr kernel.Vaddr) (kernel.Frame, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	f, ok := x.grants[grantKey{spd: spd, addr: addr}]
	return f, ok
}

// NumGrants returns the number of live grants.
func (x *Kernel) NumGrants() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.grants)
}
