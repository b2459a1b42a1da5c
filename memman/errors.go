package memman

import (
	"errors"
)

var (
	// ErrExhausted indicates no unused cell, or no free alias slot in
	// the cell.
	ErrExhausted = errors.New(`memman: no free slot`)

	// ErrNotFound indicates the (component, address) mapping does not
	// exist.
	ErrNotFound = errors.New(`memman: mapping not found`)

	// ErrInvalidState indicates a zero component or address argument,
	// or corrupted cell state, e.g. a parent chain that does not
	// terminate.
	ErrInvalidState = errors.New(`memman: invalid state`)
)
