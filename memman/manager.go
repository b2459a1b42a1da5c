package memman

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/wzhmmq/cos-user/kernel"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DefaultMaxMemory is the physical-page table size used when Config does
// not specify one.
const DefaultMaxMemory = 1024

// scanBack is how many cells before the last hit the fallback scan
// starts, exploiting allocation locality.
const scanBack = 150

type (
	// Config models optional configuration, for New.
	Config struct {
		// MaxMemory is the physical-page table size.
		// Defaults to DefaultMaxMemory, if 0.
		MaxMemory int

		// CacheSize is the address cache slot count.
		// Defaults to DefaultCacheSize, if 0.
		CacheSize int

		// Syscall is the kernel facade. Required.
		Syscall kernel.Syscall

		// Logger is optional, and nil-safe disabled if not set.
		Logger *logiface.Logger[logiface.Event]
	}

	// Manager is the physical-page manager. All state is guarded by one
	// coarse mutex; the only suspension points are inside the kernel
	// facade. Instances must be initialized using the New factory.
	Manager struct {
		mu        sync.Mutex
		cells     []cell
		cache     addrCache
		lastFound int
		sys       kernel.Syscall
		logger    *logiface.Logger[logiface.Event]
	}
)

// New initializes a Manager. The provided config must not be nil and must
// carry a Syscall.
func New(cfg *Config) *Manager {
	if cfg == nil || cfg.Syscall == nil {
		panic(`memman: nil syscall facade`)
	}
	maxMemory := DefaultMaxMemory
	cacheSize := DefaultCacheSize
	if cfg.MaxMemory != 0 {
		maxMemory = cfg.MaxMemory
	}
	if cfg.CacheSize != 0 {
		cacheSize = cfg.CacheSize
	}
	if maxMemory <= 0 || cacheSize <= 0 {
		panic(`memman: invalid table size`)
	}
	return &Manager{
		cells:  make([]cell, maxMemory),
		cache:  newAddrCache(cacheSize),
		sys:    cfg.Syscall,
		logger: cfg.Logger,
	}
}

// findUnused returns the index of a cell with no live aliases, -1 if the
// table is full.
func (x *Manager) findUnused() int {
	for i := range x.cells {
		if x.cells[i].naliases == 0 {
			return i
		}
	}
	return -1
}

// findCell resolves (spd, addr) to its cell and alias slot. Cache hits
// are validated against the cell data and bypassed when stale; the
// fallback is a linear scan starting shortly before the previous hit.
func (x *Manager) findCell(spd kernel.Spdid, addr kernel.Vaddr, useCache bool) (ci, alias int, ok bool) {
	if useCache {
		if i := x.cache.lookup(spd, addr); i >= 0 {
			e := &x.cache.s[i]
			m := &x.cells[e.cell].m[e.alias]
			if m.owner == spd && m.addr == addr {
				return e.cell, e.alias, true
			}
			// Stale: the slot was reused since the entry was added.
			x.cache.remove(i)
		}
	}

	start := x.lastFound - scanBack
	if start < 0 {
		start = 0
	}
	for n := 0; n < len(x.cells); n++ {
		i := start + n
		if i >= len(x.cells) {
			i -= len(x.cells)
		}
		for j := 0; j < MaxAliases; j++ {
			if x.cells[i].m[j].owner == spd && x.cells[i].m[j].addr == addr {
				x.lastFound = i
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// GetPage grants a page of memory to a component at a virtual address,
// returning the address. It fails with ErrExhausted when no cell is
// unused, and surfaces kernel refusals (e.g. an overlapping mapping)
// after rolling the cell back.
func (x *Manager) GetPage(spd kernel.Spdid, addr kernel.Vaddr) (kernel.Vaddr, error) {
	if spd == 0 || addr == 0 {
		return 0, fmt.Errorf(`%w: zero component or address`, ErrInvalidState)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	ci := x.findUnused()
	if ci < 0 {
		x.logger.Warning().Log(`memman: no more available pages`)
		return 0, fmt.Errorf(`%w: page cells`, ErrExhausted)
	}

	c := &x.cells[ci]
	c.m[0] = mapping{owner: spd, addr: addr, parent: parentNone}
	c.naliases = 1

	if _, err := x.sys.MapCntl(kernel.MapGrant, 0, spd, addr, kernel.Frame(ci)); err != nil {
		c.m[0] = mapping{parent: parentNone}
		c.naliases = 0
		x.logger.Err().
			Err(err).
			Int(`spd`, int(spd)).
			Uint64(`addr`, uint64(addr)).
			Log(`memman: could not grant page`)
		return 0, fmt.Errorf(`grant page at %#x to spd %d: %w`, addr, spd, err)
	}

	x.cache.add(spd, addr, ci, 0)
	return addr, nil
}

// AliasPage makes an alias to a page in a source component at a source
// address, in a destination component at a destination address, returning
// the destination address. The new mapping is recorded as a child of the
// source mapping. It fails with ErrNotFound when the source mapping does
// not exist, ErrExhausted when the cell has no free alias slot, and
// surfaces kernel refusals with the slot untouched.
func (x *Manager) AliasPage(srcSpd kernel.Spdid, srcAddr kernel.Vaddr, dstSpd kernel.Spdid, dstAddr kernel.Vaddr) (kernel.Vaddr, error) {
	if dstSpd == 0 || dstAddr == 0 {
		return 0, fmt.Errorf(`%w: zero component or address`, ErrInvalidState)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	ci, alias, ok := x.findCell(srcSpd, srcAddr, true)
	if !ok {
		return 0, fmt.Errorf(`%w: spd %d addr %#x`, ErrNotFound, srcSpd, srcAddr)
	}

	c := &x.cells[ci]
	for i := 0; i < MaxAliases; i++ {
		if i == alias || !c.empty(i) {
			continue
		}

		if _, err := x.sys.MapCntl(kernel.MapGrant, srcSpd, dstSpd, dstAddr, kernel.Frame(ci)); err != nil {
			x.logger.Err().
				Err(err).
				Int(`spd`, int(dstSpd)).
				Uint64(`addr`, uint64(dstAddr)).
				Int(`src_spd`, int(srcSpd)).
				Uint64(`src_addr`, uint64(srcAddr)).
				Log(`memman: could not alias page`)
			return 0, fmt.Errorf(`alias page at %#x to spd %d: %w`, dstAddr, dstSpd, err)
		}

		c.m[i] = mapping{owner: dstSpd, addr: dstAddr, parent: alias}
		c.naliases++
		x.cache.add(dstSpd, dstAddr, ci, i)
		return dstAddr, nil
	}

	return 0, fmt.Errorf(`%w: alias slots`, ErrExhausted)
}

// RevokePage tears down every mapping aliased, directly or transitively,
// from the mapping at (spd, addr). The mapping itself is retained. It
// fails with ErrNotFound when the mapping does not exist.
func (x *Manager) RevokePage(spd kernel.Spdid, addr kernel.Vaddr) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.revokeLocked(spd, addr)
}

func (x *Manager) revokeLocked(spd kernel.Spdid, addr kernel.Vaddr) error {
	ci, alias, ok := x.findCell(spd, addr, true)
	if !ok {
		return fmt.Errorf(`%w: spd %d addr %#x`, ErrNotFound, spd, addr)
	}

	c := &x.cells[ci]
	for i := 0; i < MaxAliases; i++ {
		if i == alias || c.m[i].owner == 0 {
			continue
		}
		desc, err := c.isDescendant(alias, i)
		if err != nil {
			return fmt.Errorf(`%w: alias parent chain in cell %d`, err, ci)
		}
		if !desc {
			continue
		}

		frame, err := x.sys.MapCntl(kernel.MapRevoke, 0, c.m[i].owner, c.m[i].addr, 0)
		if err != nil {
			// The kernel no longer has the mapping; the local record
			// is torn down regardless, as the tree stays authoritative
			// for what was handed out.
			x.logger.Warning().
				Err(err).
				Int(`spd`, int(c.m[i].owner)).
				Uint64(`addr`, uint64(c.m[i].addr)).
				Log(`memman: revoke refused by kernel`)
		} else if int(frame) != ci {
			panic(`memman: kernel revoked a different frame`)
		}

		x.cache.invalidate(c.m[i].owner, c.m[i].addr)

		// Mark removed; the owner is kept as a tombstone so descendant
		// walks through this slot still terminate correctly during the
		// sweep.
		c.m[i].addr = 0
		c.naliases--
	}

	// Free all slots marked as removed.
	for i := 0; i < MaxAliases; i++ {
		if c.m[i].addr == 0 && c.m[i].owner != 0 {
			c.m[i].owner = 0
			c.m[i].parent = parentNone
			c.m[i].flags = 0
		}
	}

	return nil
}

// ReleasePage gives up a page mapping: descendants are revoked first,
// then the mapping itself is torn down. Releasing the root grant returns
// the cell to unused. It is idempotent; releasing an address that is not
// mapped is a silent no-op.
func (x *Manager) ReleasePage(spd kernel.Spdid, addr kernel.Vaddr) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.revokeLocked(spd, addr); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	ci, alias, ok := x.findCell(spd, addr, false)
	if !ok {
		return nil
	}
	c := &x.cells[ci]

	frame, err := x.sys.MapCntl(kernel.MapRevoke, 0, c.m[alias].owner, c.m[alias].addr, 0)
	if err != nil {
		x.logger.Warning().
			Err(err).
			Int(`spd`, int(spd)).
			Uint64(`addr`, uint64(addr)).
			Log(`memman: revoke refused by kernel`)
	} else if int(frame) != ci {
		panic(`memman: kernel revoked a different frame`)
	}

	x.cache.invalidate(spd, addr)
	c.m[alias] = mapping{parent: parentNone}
	c.naliases--
	return nil
}

// Stats returns the number of live mappings per component.
func (x *Manager) Stats() map[kernel.Spdid]int {
	x.mu.Lock()
	defer x.mu.Unlock()

	stats := make(map[kernel.Spdid]int)
	for i := range x.cells {
		if x.cells[i].naliases == 0 {
			continue
		}
		for j := 0; j < MaxAliases; j++ {
			if x.cells[i].m[j].owner != 0 {
				stats[x.cells[i].m[j].owner]++
			}
		}
	}
	return stats
}

// LogStats emits the per-component mapping counts through the logger.
func (x *Manager) LogStats() {
	b := x.logger.Info()
	if !b.Enabled() {
		return
	}
	stats := x.Stats()
	spds := maps.Keys(stats)
	slices.Sort(spds)
	obj := logiface.Object[logiface.Event](b)
	for _, spd := range spds {
		obj.Int(fmt.Sprintf(`%d`, spd), stats[spd])
	}
	obj.As(`pages`)
	b.Log(`memman: allocation stats`)
}
