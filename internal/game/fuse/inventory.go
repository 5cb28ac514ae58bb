package fuse

import (
	"math"
	"sort"

	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

// MaxQuantity is the largest quantity a single material can hold.
const MaxQuantity = math.MaxUint16

// Inventory is a sparse mapping from material to quantity.
//
// Invariant: no entry with quantity 0 is ever stored.
// It is not safe for concurrent use.
type Inventory struct {
	counts map[material.ID]uint16
}

// NewInventory returns an empty Inventory.
func NewInventory() *Inventory {
	return &Inventory{counts: make(map[material.ID]uint16)}
}

// Quantity returns the held quantity of id.
func (inv *Inventory) Quantity(id material.ID) int {
	return int(inv.counts[id])
}

// Add increases the quantity of id by n, saturating at MaxQuantity.
//
// Postcondition: returns the new quantity; n <= 0 or id == material.None is a no-op.
func (inv *Inventory) Add(id material.ID, n int) int {
	if n <= 0 || id == material.None {
		return inv.Quantity(id)
	}
	total := int(inv.counts[id]) + n
	if total > MaxQuantity {
		total = MaxQuantity
	}
	inv.counts[id] = uint16(total)
	return total
}

// Take removes n units of id if at least n are held.
//
// Postcondition: returns true and decrements on success; otherwise the
// inventory is unchanged. Entries that reach 0 are deleted.
func (inv *Inventory) Take(id material.ID, n int) bool {
	if n <= 0 {
		return true
	}
	have := int(inv.counts[id])
	if have < n {
		return false
	}
	inv.Set(id, have-n)
	return true
}

// Set stores quantity q for id, clamping into [0, MaxQuantity].
//
// Postcondition: q <= 0 removes the entry.
func (inv *Inventory) Set(id material.ID, q int) {
	switch {
	case q <= 0 || id == material.None:
		delete(inv.counts, id)
	case q > MaxQuantity:
		inv.counts[id] = MaxQuantity
	default:
		inv.counts[id] = uint16(q)
	}
}

// Len returns the number of materials with a non-zero quantity.
func (inv *Inventory) Len() int {
	return len(inv.counts)
}

// Entry is one (material, quantity) pair.
type Entry struct {
	Material material.ID
	Quantity int
}

// Entries returns the non-zero entries sorted by material id.
//
// Postcondition: every returned Quantity is > 0.
func (inv *Inventory) Entries() []Entry {
	out := make([]Entry, 0, len(inv.counts))
	for id, q := range inv.counts {
		out = append(out, Entry{Material: id, Quantity: int(q)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Material < out[j].Material })
	return out
}
