package sched

import (
	"github.com/joeycumines/logiface"
	"github.com/wzhmmq/cos-user/kernel"
)

const (
	// DefaultMaxThreads is the thread descriptor pool size, if not
	// configured. Thread ids at or above the pool size are unmappable.
	DefaultMaxThreads = 256

	// DefaultMaxComponents bounds the component id space, and with it
	// the critical-section table.
	DefaultMaxComponents = 64

	// DefaultNumEvents is the number of event slots, including the
	// reserved slot 0.
	DefaultNumEvents = 128
)

type (
	// Config models optional configuration, for New. All sizes default
	// as documented on the corresponding constants, if 0.
	Config struct {
		// MaxThreads is the descriptor pool size.
		MaxThreads int

		// MaxComponents bounds component ids (exclusive).
		MaxComponents int

		// NumEvents is the event slot count, slot 0 included.
		NumEvents int

		// Syscall is the kernel facade. Required.
		Syscall kernel.Syscall

		// Notifications is the kernel-shared region set. One is
		// allocated if nil; provide it explicitly to share regions
		// with a kernel (or test double) that produces events.
		Notifications *kernel.Notifications

		// Logger is optional, and nil-safe disabled if not set.
		Logger *logiface.Logger[logiface.Event]
	}

	critSection struct {
		holder *Thread
	}

	// Sched is the scheduler support core: descriptor pool, id mapping,
	// event channel, critical sections, and the scheduler lock.
	// Instances must be initialized using the New factory.
	//
	// Except where noted, methods assume the caller holds the
	// scheduler lock.
	Sched struct {
		sys    kernel.Syscall
		ntf    *kernel.Notifications
		logger *logiface.Logger[logiface.Event]
		pool   []Thread
		thdMap []*Thread
		crit   []critSection
		evtThd []*Thread
	}
)

// New initializes a Sched. The provided config must not be nil and must
// carry a Syscall; everything else is optional.
func New(cfg *Config) *Sched {
	if cfg == nil || cfg.Syscall == nil {
		panic(`sched: nil syscall facade`)
	}

	maxThreads := DefaultMaxThreads
	maxComponents := DefaultMaxComponents
	numEvents := DefaultNumEvents
	if cfg.MaxThreads != 0 {
		maxThreads = cfg.MaxThreads
	}
	if cfg.MaxComponents != 0 {
		maxComponents = cfg.MaxComponents
	}
	if cfg.NumEvents != 0 {
		numEvents = cfg.NumEvents
	}
	if maxThreads <= 0 || maxComponents <= 0 || numEvents <= 1 {
		panic(`sched: invalid pool size`)
	}

	ntf := cfg.Notifications
	if ntf == nil {
		ntf = kernel.NewNotifications(numEvents, 0)
	} else if ntf.NumEvents() < numEvents {
		panic(`sched: notifications region smaller than NumEvents`)
	}

	x := Sched{
		sys:    cfg.Syscall,
		ntf:    ntf,
		logger: cfg.Logger,
		pool:   make([]Thread, maxThreads),
		thdMap: make([]*Thread, maxThreads),
		crit:   make([]critSection, maxComponents),
		evtThd: make([]*Thread, numEvents),
	}
	for i := range x.pool {
		x.pool[i].init(0, FlagFree)
	}
	return &x
}

// Notifications returns the kernel-shared region set in use.
func (x *Sched) Notifications() *kernel.Notifications { return x.ntf }
