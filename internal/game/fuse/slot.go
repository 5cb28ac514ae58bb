// Package fuse implements the per-item fusion state machine: which material is
// fused to an equipment slot and how much durability it has left.
package fuse

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

// ErrInvalidMaterial is returned by Fuse when the material is unknown or its
// effective durability is not positive.
var ErrInvalidMaterial = errors.New("invalid material")

// Catalog is the subset of the material catalog the state machine needs.
type Catalog interface {
	Definition(id material.ID) (*material.Definition, bool)
	EffectiveBaseDurability(id material.ID) int
}

// Slot is the fusion state of one fusable attachment point.
//
// Invariant (after every method and after Normalize):
//   - 0 <= DurabilityCurrent <= DurabilityMax
//   - MaterialID == material.None iff DurabilityCurrent == 0 and DurabilityMax == 0
//   - DurabilityMax > 0 only if MaterialID resolves in the catalog
//
// Fields are exported for serialization; any raw write must be followed by Normalize.
type Slot struct {
	MaterialID        material.ID
	DurabilityCurrent int
	DurabilityMax     int
}

// DamageResult reports the outcome of Damage.
type DamageResult struct {
	// Drained is the durability actually removed.
	Drained int
	// Broken is true only on the call that moved the slot from Fused to Unfused.
	Broken bool
}

// Fuse attaches id to s at full effective durability, replacing any existing fusion.
//
// Precondition: cat must be non-nil.
// Postcondition: on success s is {id, max, max} with max = cat.EffectiveBaseDurability(id);
// on error s is unchanged and the error wraps ErrInvalidMaterial.
func (s *Slot) Fuse(cat Catalog, id material.ID) error {
	if _, ok := cat.Definition(id); !ok {
		return fmt.Errorf("fuse: material %d: %w", id, ErrInvalidMaterial)
	}
	base := cat.EffectiveBaseDurability(id)
	if base <= 0 {
		return fmt.Errorf("fuse: material %d has effective durability %d: %w", id, base, ErrInvalidMaterial)
	}
	s.Clear()
	s.MaterialID = id
	s.DurabilityMax = base
	s.DurabilityCurrent = base
	return nil
}

// Damage removes amount durability from s. Negative amounts are treated as 0.
//
// Postcondition: DurabilityCurrent = max(0, old - amount); if that reaches 0 the
// slot is Unfused and Broken is true. Damaging an Unfused slot is a no-op.
func (s *Slot) Damage(amount int) DamageResult {
	if amount <= 0 || !s.IsFused() {
		return DamageResult{}
	}
	if amount > s.DurabilityCurrent {
		amount = s.DurabilityCurrent
	}
	s.DurabilityCurrent -= amount
	if s.DurabilityCurrent == 0 {
		s.Clear()
		return DamageResult{Drained: amount, Broken: true}
	}
	return DamageResult{Drained: amount}
}

// Clear forces s to the Unfused state.
func (s *Slot) Clear() {
	*s = Slot{}
}

// Normalize repairs any invariant violation in s. It is idempotent and never fails.
//
// Postcondition: s satisfies the Slot invariants.
func (s *Slot) Normalize(cat Catalog) {
	if s.MaterialID == material.None || s.DurabilityMax <= 0 || s.DurabilityCurrent <= 0 {
		s.Clear()
		return
	}
	if _, ok := cat.Definition(s.MaterialID); !ok {
		s.Clear()
		return
	}
	if s.DurabilityCurrent > s.DurabilityMax {
		s.DurabilityCurrent = s.DurabilityMax
	}
}

// IsFused reports whether a material is attached.
func (s Slot) IsFused() bool {
	return s.MaterialID != material.None && s.DurabilityMax > 0
}

// Material returns the fused material, or material.None.
func (s Slot) Material() material.ID {
	return s.MaterialID
}

// Durability returns the current and maximum durability.
func (s Slot) Durability() (current, max int) {
	return s.DurabilityCurrent, s.DurabilityMax
}
