package persist

import (
	"github.com/cory-johannsen/fusecraft/internal/game/fuse"
)

// Save writes slots and inventory into rec at VersionCurrent.
//
// Precondition: cat, rec, slots and inv must be non-nil.
// Postcondition: LoadSlots on rec reproduces slots after normalization.
func Save(cat fuse.Catalog, rec *Record, slots *fuse.SlotSet, inv *fuse.Inventory) {
	SaveSlots(cat, rec.Section(SectionFuse), slots)
	SaveMaterials(rec.Section(SectionMaterials), inv)
}

// SaveSlots writes the full slot layout of VersionCurrent. Each slot is
// normalized on a copy before it is written; slots itself is not modified.
// The legacy scalar fields are written in their cleared form.
func SaveSlots(cat fuse.Catalog, w FieldWriter, slots *fuse.SlotSet) {
	normalized := func(k fuse.SlotKey) fuse.Slot {
		s := slots.Get(k)
		s.Normalize(cat)
		return s
	}

	w.WriteInt(fieldSchemaVersion, VersionCurrent)
	w.WriteArray(fieldSwordSlots, len(fuse.SwordSlots), func(i int, sw FieldWriter) {
		writeSlot(sw, normalized(fuse.SwordSlots[i]))
	})
	w.WriteStruct(fieldCompanionSlot, func(sw FieldWriter) {
		writeSlot(sw, normalized(fuse.SlotBoomerang))
	})
	w.WriteArray(fieldRangedSlots, len(fuse.RangedSlots), func(i int, sw FieldWriter) {
		writeSlot(sw, normalized(fuse.RangedSlots[i]))
	})
	w.WriteStruct(fieldShieldSlot, func(sw FieldWriter) {
		writeSlot(sw, normalized(fuse.SlotShield))
	})
	clearLegacy(w)
}

// SaveMaterials writes inv as a count followed by (materialId, quantity) pairs.
//
// Postcondition: zero-quantity materials are never written.
func SaveMaterials(w FieldWriter, inv *fuse.Inventory) {
	entries := inv.Entries()
	w.WriteInt(fieldCount, int64(len(entries)))
	w.WriteArray(fieldEntries, len(entries), func(i int, ew FieldWriter) {
		ew.WriteInt(fieldMaterialID, int64(entries[i].Material))
		ew.WriteInt(fieldQuantity, int64(entries[i].Quantity))
	})
}

// LegacyFields holds the raw scalar fields of a version-0 save.
type LegacyFields struct {
	MaterialID        int64
	Durability        int64
	DurabilityPresent bool
	SchemaVersion     int64
}

// WriteLegacy writes l into w using the legacy scalar field names.
func WriteLegacy(w FieldWriter, l LegacyFields) {
	w.WriteInt(fieldSchemaVersion, l.SchemaVersion)
	w.WriteInt(fieldLegacyMaterialID, l.MaterialID)
	w.WriteBool(fieldLegacyDurabilityPresent, l.DurabilityPresent)
	if l.DurabilityPresent {
		w.WriteInt(fieldLegacyDurability, l.Durability)
	}
}

// ReadLegacy returns the raw legacy scalar fields stored in r.
func ReadLegacy(r FieldReader) LegacyFields {
	var l LegacyFields
	l.SchemaVersion, _ = r.ReadInt(fieldSchemaVersion)
	l.MaterialID, _ = r.ReadInt(fieldLegacyMaterialID)
	l.DurabilityPresent, _ = r.ReadBool(fieldLegacyDurabilityPresent)
	l.Durability, _ = r.ReadInt(fieldLegacyDurability)
	return l
}
