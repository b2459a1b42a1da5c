package memman

import (
	"github.com/wzhmmq/cos-user/kernel"
)

// DefaultCacheSize is the address cache slot count used when Config does
// not specify one.
const DefaultCacheSize = 256

type (
	cacheEntry struct {
		// spd is zero for an invalid entry.
		spd   kernel.Spdid
		addr  kernel.Vaddr
		cell  int
		alias int
	}

	// addrCache maps (component, address) to (cell, alias slot). It is
	// advisory: an add overwrites whatever occupies the head slot
	// without probing, and absence of an entry does not imply the
	// mapping does not exist. Callers validate hits against the cell
	// data; the alias tree stays authoritative.
	addrCache struct {
		s    []cacheEntry
		head int
	}
)

func newAddrCache(size int) addrCache {
	return addrCache{s: make([]cacheEntry, size)}
}

// lookup returns the slot index holding (spd, addr), -1 on a miss.
func (x *addrCache) lookup(spd kernel.Spdid, addr kernel.Vaddr) int {
	for i := range x.s {
		if x.s[i].spd == spd && x.s[i].addr == addr {
			return i
		}
	}
	return -1
}

// add records a mapping at the head slot and advances the head
// circularly, overwriting any stale occupant.
func (x *addrCache) add(spd kernel.Spdid, addr kernel.Vaddr, cell, alias int) {
	if spd == 0 {
		panic(`memman: cache add for component 0`)
	}
	x.s[x.head] = cacheEntry{spd: spd, addr: addr, cell: cell, alias: alias}
	x.head = (x.head + 1) % len(x.s)
}

// remove invalidates the slot and resets the head to it, so subsequent
// inserts reuse the freed slot preferentially.
func (x *addrCache) remove(i int) {
	x.s[i].spd = 0
	x.head = i
}

// invalidate removes the entry for (spd, addr), silently doing nothing if
// it has already been overwritten.
func (x *addrCache) invalidate(spd kernel.Spdid, addr kernel.Vaddr) {
	if i := x.lookup(spd, addr); i >= 0 {
		x.remove(i)
	}
}
