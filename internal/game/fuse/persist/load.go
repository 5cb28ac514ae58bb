package persist

import (
	"github.com/cory-johannsen/fusecraft/internal/game/fuse"
	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

// EquippedSwordFunc reports the sword variant equipped at load time. It is
// consulted only when a legacy save is migrated.
type EquippedSwordFunc func() (fuse.SlotKey, bool)

// SlotsResult is the outcome of LoadSlots.
type SlotsResult struct {
	Slots *fuse.SlotSet
	// Version is the schema version read from the record.
	Version int64
	// MigratedFromLegacy is true when a version-0 scalar fusion was moved into a sword slot.
	MigratedFromLegacy bool
	// LegacyTarget is the sword slot that received the legacy fusion.
	LegacyTarget fuse.SlotKey
	// CompanionLoaded is true when the record carried an explicit companion slot.
	CompanionLoaded bool
	// CompanionBackfilled is true when the companion slot was rebuilt from legacy scalars.
	CompanionBackfilled bool
	// FutureSchema is true when the record was written by a newer schema than VersionCurrent.
	FutureSchema bool
}

// LoadResult is the outcome of Load.
type LoadResult struct {
	SlotsResult
	Inventory *fuse.Inventory
}

// Load reconstructs slots and inventory from rec and performs any legacy
// write-back on rec itself, so persisting rec commits the load transaction.
//
// Precondition: cat and rec must be non-nil.
// Postcondition: every returned slot satisfies the Slot invariants; Load never fails.
func Load(cat fuse.Catalog, rec *Record, equipped EquippedSwordFunc) LoadResult {
	res := LoadSlots(cat, rec.Section(SectionFuse), equipped)
	return LoadResult{
		SlotsResult: res,
		Inventory:   LoadMaterials(cat, rec.Section(SectionMaterials)),
	}
}

// LoadSlots reads the fuse section.
//
// Slot-array records (version >= VersionSlotArray) are read directly. Records in
// [VersionSlotArray, VersionCompanion) with no fused sword may have the companion
// slot backfilled from the legacy scalar fields. Legacy records are migrated into
// the equipped sword slot, and the legacy fields are cleared through rw in the
// same call so a second load cannot migrate them again.
//
// Postcondition: every slot in the result is normalized; malformed data degrades
// to Unfused slots.
func LoadSlots(cat fuse.Catalog, rw ReadWriter, equipped EquippedSwordFunc) SlotsResult {
	res := SlotsResult{Slots: fuse.NewSlotSet(), LegacyTarget: fuse.SlotSwordKokiri}

	version, _ := rw.ReadInt(fieldSchemaVersion)
	if version < VersionLegacy {
		version = VersionLegacy
	}
	res.Version = version
	res.FutureSchema = version > VersionCurrent

	if version < VersionSlotArray {
		migrateLegacy(cat, rw, equipped, &res)
		return res
	}

	rw.ReadArray(fieldSwordSlots, len(fuse.SwordSlots), func(i int, r FieldReader) {
		res.Slots.Set(cat, fuse.SwordSlots[i], readSlot(r))
	})

	if version >= VersionCompanion {
		res.CompanionLoaded = rw.ReadStruct(fieldCompanionSlot, func(r FieldReader) {
			res.Slots.Set(cat, fuse.SlotBoomerang, readSlot(r))
		})
	} else if !res.Slots.AnySwordFused() {
		if slot, ok := legacySlot(cat, rw); ok && slot.IsFused() {
			res.Slots.Set(cat, fuse.SlotBoomerang, slot)
			res.CompanionBackfilled = true
		}
	}

	if version >= VersionRangedShield {
		rw.ReadArray(fieldRangedSlots, len(fuse.RangedSlots), func(i int, r FieldReader) {
			res.Slots.Set(cat, fuse.RangedSlots[i], readSlot(r))
		})
		rw.ReadStruct(fieldShieldSlot, func(r FieldReader) {
			res.Slots.Set(cat, fuse.SlotShield, readSlot(r))
		})
	}
	return res
}

func migrateLegacy(cat fuse.Catalog, rw ReadWriter, equipped EquippedSwordFunc, res *SlotsResult) {
	slot, ok := legacySlot(cat, rw)
	if !ok {
		return
	}

	target := fuse.SlotSwordKokiri
	if equipped != nil {
		if k, ok := equipped(); ok && k.IsSword() {
			target = k
		}
	}
	res.Slots.Set(cat, target, slot)
	res.LegacyTarget = target
	res.MigratedFromLegacy = true

	clearLegacy(rw)
}

// legacySlot builds the slot described by the legacy scalar fields.
//
// Postcondition: ok is false when the legacy material is None or unknown to
// cat. When ok is true the slot is normalized and may be Unfused.
func legacySlot(cat fuse.Catalog, r FieldReader) (fuse.Slot, bool) {
	id := readMaterialID(r, fieldLegacyMaterialID)
	if id == material.None {
		return fuse.Slot{}, false
	}
	if _, known := cat.Definition(id); !known {
		return fuse.Slot{}, false
	}
	base := cat.EffectiveBaseDurability(id)

	target := base
	if present, _ := r.ReadBool(fieldLegacyDurabilityPresent); present {
		if v, ok := r.ReadInt(fieldLegacyDurability); ok {
			target = clampInt32(v)
		}
	}
	target = min(max(target, 0), base)

	slot := fuse.Slot{MaterialID: id, DurabilityCurrent: target, DurabilityMax: base}
	slot.Normalize(cat)
	return slot, true
}

func clearLegacy(w FieldWriter) {
	w.WriteInt(fieldLegacyMaterialID, int64(material.None))
	w.WriteBool(fieldLegacyDurabilityPresent, false)
	w.WriteInt(fieldLegacyDurability, 0)
}

// LoadMaterials reads the materials section.
//
// Postcondition: entries with non-positive quantity or an id unknown to cat
// are dropped; quantities are clamped to fuse.MaxQuantity; a repeated id keeps
// its last quantity.
func LoadMaterials(cat fuse.Catalog, r FieldReader) *fuse.Inventory {
	inv := fuse.NewInventory()
	count, ok := r.ReadInt(fieldCount)
	if !ok || count <= 0 {
		return inv
	}
	limit := maxMaterialEntries
	if count < int64(limit) {
		limit = int(count)
	}
	r.ReadArray(fieldEntries, limit, func(_ int, e FieldReader) {
		id := readMaterialID(e, fieldMaterialID)
		if _, known := cat.Definition(id); !known {
			return
		}
		q, _ := e.ReadInt(fieldQuantity)
		inv.Set(id, clampInt32(q))
	})
	return inv
}
