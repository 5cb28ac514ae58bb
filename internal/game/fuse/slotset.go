package fuse

import "fmt"

// SlotKey identifies one fusable equipment item.
type SlotKey int

const (
	SlotSwordKokiri SlotKey = iota
	SlotSwordMaster
	SlotSwordBiggoron
	SlotBoomerang
	SlotSlingshot
	SlotBow
	SlotHookshot
	SlotShield

	slotCount
)

// SwordSlots lists the sword variants in persisted array order.
var SwordSlots = [...]SlotKey{SlotSwordKokiri, SlotSwordMaster, SlotSwordBiggoron}

// RangedSlots lists the ranged weapons in persisted array order.
var RangedSlots = [...]SlotKey{SlotSlingshot, SlotBow, SlotHookshot}

var slotNames = [slotCount]string{
	SlotSwordKokiri:   "kokiri_sword",
	SlotSwordMaster:   "master_sword",
	SlotSwordBiggoron: "biggoron_sword",
	SlotBoomerang:     "boomerang",
	SlotSlingshot:     "slingshot",
	SlotBow:           "bow",
	SlotHookshot:      "hookshot",
	SlotShield:        "shield",
}

// String returns the stable name of k.
func (k SlotKey) String() string {
	if k.Valid() {
		return slotNames[k]
	}
	return fmt.Sprintf("slot(%d)", int(k))
}

// Valid reports whether k names a slot.
func (k SlotKey) Valid() bool {
	return k >= 0 && k < slotCount
}

// IsSword reports whether k is one of the sword variants.
func (k SlotKey) IsSword() bool {
	return k >= SlotSwordKokiri && k <= SlotSwordBiggoron
}

// ParseSlotKey resolves a slot name produced by SlotKey.String.
func ParseSlotKey(name string) (SlotKey, error) {
	for k, n := range slotNames {
		if n == name {
			return SlotKey(k), nil
		}
	}
	return 0, fmt.Errorf("unknown slot %q", name)
}

// AllSlots returns every slot key in declaration order.
func AllSlots() []SlotKey {
	out := make([]SlotKey, 0, slotCount)
	for k := SlotKey(0); k < slotCount; k++ {
		out = append(out, k)
	}
	return out
}

// SlotSet is the fixed collection of fusable slots. The zero value is all Unfused.
type SlotSet struct {
	slots [slotCount]Slot
}

// NewSlotSet returns an all-Unfused SlotSet.
func NewSlotSet() *SlotSet {
	return &SlotSet{}
}

// Slot returns a pointer to the slot for k so callers can run Slot operations in place.
//
// Precondition: k.Valid().
func (s *SlotSet) Slot(k SlotKey) *Slot {
	return &s.slots[k]
}

// Get returns a copy of the slot for k.
//
// Precondition: k.Valid().
func (s *SlotSet) Get(k SlotKey) Slot {
	return s.slots[k]
}

// Set overwrites the slot for k and normalizes it.
//
// Precondition: k.Valid().
// Postcondition: the stored slot satisfies the Slot invariants.
func (s *SlotSet) Set(cat Catalog, k SlotKey, slot Slot) {
	slot.Normalize(cat)
	s.slots[k] = slot
}

// Each calls fn for every slot in declaration order.
func (s *SlotSet) Each(fn func(SlotKey, Slot)) {
	for k := range s.slots {
		fn(SlotKey(k), s.slots[k])
	}
}

// NormalizeAll runs Normalize on every slot.
func (s *SlotSet) NormalizeAll(cat Catalog) {
	for k := range s.slots {
		s.slots[k].Normalize(cat)
	}
}

// AnySwordFused reports whether at least one sword slot holds a fusion.
func (s *SlotSet) AnySwordFused() bool {
	for _, k := range SwordSlots {
		if s.slots[k].IsFused() {
			return true
		}
	}
	return false
}

// Equal reports whether s and other hold identical slot state.
func (s *SlotSet) Equal(other *SlotSet) bool {
	return s.slots == other.slots
}
