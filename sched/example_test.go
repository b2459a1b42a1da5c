package sched_test

import (
	"fmt"

	"github.com/wzhmmq/cos-user/kernel"
	"github.com/wzhmmq/cos-user/kernel/kerneltest"
	"github.com/wzhmmq/cos-user/sched"
)

func ExampleSched_dependency() {
	k := kerneltest.New()
	s := sched.New(&sched.Config{Syscall: k})

	t1, _ := s.AllocThd(1)
	t2, _ := s.AllocThd(2)

	// t1 enters component 7's critical section uncontested
	if holder := s.TakeCritSect(7, t1); holder != nil {
		panic(`unexpected holder`)
	}

	// t2 contends: it learns who to wait on, and the dependency is
	// recorded for priority inheritance
	holder := s.TakeCritSect(7, t2)
	fmt.Println("t2 waits on thread", holder.ID())
	fmt.Println("dependency resolves to thread", s.Dependency(t2).ID())

	// after the holder leaves, the stale dependency clears itself
	if err := s.ReleaseCritSect(7, t1); err != nil {
		panic(err)
	}
	fmt.Println("dependency after release:", s.Dependency(t2))

	// Output:
	// t2 waits on thread 1
	// dependency resolves to thread 1
	// dependency after release: <nil>
}

func ExampleSched_events() {
	k := kerneltest.New()
	s := sched.New(&sched.Config{Syscall: k})

	thd, _ := s.AllocThd(4)
	slot, err := s.AllocEvent(thd)
	if err != nil {
		panic(err)
	}

	// the kernel reports cpu consumption through the shared ring
	s.Notifications().Events.Push(kernel.Event{Slot: uint8(slot), Flags: kernel.EvtActive, Cycles: 250})

	s.ProcessEvents(func(t *sched.Thread, flags uint8, cycles uint32) {
		t.Accounting.Cycles += uint64(cycles)
	}, 16)

	fmt.Println("thread", thd.ID(), "consumed", thd.Accounting.Cycles, "cycles")

	// Output:
	// thread 4 consumed 250 cycles
}
