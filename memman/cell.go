package memman

import (
	"github.com/wzhmmq/cos-user/kernel"
)

// MaxAliases is the number of mapping slots per cell, bounding how many
// live aliases of one frame may exist. Slot 0 is the root (the initial
// grant).
const MaxAliases = 32

// parentNone marks the root of a cell's alias tree.
const parentNone = -1

type (
	mapping struct {
		// owner is zero for an empty slot.
		owner kernel.Spdid
		addr  kernel.Vaddr
		// parent is the slot this mapping was aliased from,
		// parentNone for the root.
		parent int
		// flags is reserved for mapping attributes.
		flags uint16
	}

	// cell is the per-frame alias set. A cell is unused while naliases
	// is zero.
	cell struct {
		naliases int
		m        [MaxAliases]mapping
	}
)

func (x *cell) empty(i int) bool {
	return x.m[i].owner == 0 && x.m[i].addr == 0
}

// isDescendant walks parent links from child toward the root, reporting
// whether parent appears strictly above child. The walk is bounded by
// MaxAliases; exceeding the bound means the parent links form a cycle,
// which is reported as ErrInvalidState rather than looping forever.
func (x *cell) isDescendant(parent, child int) (bool, error) {
	if child < 0 || child >= MaxAliases {
		panic(`memman: alias index out of range`)
	}
	for steps := 0; x.m[child].parent != parentNone; steps++ {
		if steps >= MaxAliases {
			return false, ErrInvalidState
		}
		p := x.m[child].parent
		if p < 0 || p >= MaxAliases {
			return false, ErrInvalidState
		}
		if p == parent {
			return true, nil
		}
		child = p
	}
	return false, nil
}
