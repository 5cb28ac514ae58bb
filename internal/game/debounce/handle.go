// Package debounce tracks the tick-scoped bookkeeping that stops a single
// physical event from being applied twice, keyed by generation-indexed actor
// handles instead of object addresses.
package debounce

import "fmt"

// Handle identifies one actor instance. A slot index reused after the actor
// is released receives a new generation, so stale handles never match.
// The zero Handle is never issued.
type Handle struct {
	Index      uint32
	Generation uint32
}

// Nil is the zero Handle.
var Nil Handle

// IsNil reports whether h is the zero Handle.
func (h Handle) IsNil() bool {
	return h == Nil
}

// String renders h as "index#generation".
func (h Handle) String() string {
	return fmt.Sprintf("%d#%d", h.Index, h.Generation)
}

// HandleTable issues and retires Handles.
//
// Invariant: generations start at 1, so no issued Handle equals Nil.
// It is not safe for concurrent use.
type HandleTable struct {
	generations []uint32
	live        []bool
	free        []uint32
}

// NewHandleTable returns an empty table.
func NewHandleTable() *HandleTable {
	return &HandleTable{}
}

// Acquire issues a Handle for a newly spawned actor.
//
// Postcondition: Live(result) is true and result differs from every Handle
// previously issued by this table.
func (t *HandleTable) Acquire() Handle {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		t.generations[idx]++
		if t.generations[idx] == 0 {
			t.generations[idx] = 1
		}
		t.live[idx] = true
		return Handle{Index: idx, Generation: t.generations[idx]}
	}
	idx := uint32(len(t.generations))
	t.generations = append(t.generations, 1)
	t.live = append(t.live, true)
	return Handle{Index: idx, Generation: 1}
}

// Release retires h. Releasing a stale or unknown handle is a no-op.
//
// Postcondition: Live(h) is false.
func (t *HandleTable) Release(h Handle) {
	if !t.Live(h) {
		return
	}
	t.live[h.Index] = false
	t.free = append(t.free, h.Index)
}

// Live reports whether h refers to an actor that has not been released.
func (t *HandleTable) Live(h Handle) bool {
	if h.IsNil() || int(h.Index) >= len(t.generations) {
		return false
	}
	return t.live[h.Index] && t.generations[h.Index] == h.Generation
}

// Count returns the number of live handles.
func (t *HandleTable) Count() int {
	return len(t.generations) - len(t.free)
}
