package persist

import (
	"math"

	"github.com/cory-johannsen/fusecraft/internal/game/fuse"
	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

// Schema versions. Versions are monotonically non-decreasing across saves.
const (
	// VersionLegacy stores a single scalar material bound to the equipped sword.
	VersionLegacy = 0
	// VersionSlotArray stores one slot per sword variant.
	VersionSlotArray = 1
	// VersionCompanion adds the boomerang slot.
	VersionCompanion = 2
	// VersionRangedShield adds the ranged-weapon slots and the shield slot.
	VersionRangedShield = 3

	// VersionCurrent is written by every save.
	VersionCurrent = VersionRangedShield
)

// Section names within a Record.
const (
	SectionFuse      = "fuse"
	SectionMaterials = "materials"
)

// Field names of the fuse section.
const (
	fieldSchemaVersion           = "schemaVersion"
	fieldSwordSlots              = "swordSlots"
	fieldCompanionSlot           = "companionSlot"
	fieldRangedSlots             = "rangedSlots"
	fieldShieldSlot              = "shieldSlot"
	fieldLegacyMaterialID        = "legacyMaterialId"
	fieldLegacyDurability        = "legacyDurability"
	fieldLegacyDurabilityPresent = "legacyDurabilityPresent"

	fieldMaterialID = "materialId"
	fieldDurCur     = "durCur"
	fieldDurMax     = "durMax"
)

// Field names of the materials section.
const (
	fieldCount    = "count"
	fieldEntries  = "entries"
	fieldQuantity = "quantity"
)

// maxMaterialEntries bounds how many inventory entries a load will visit.
const maxMaterialEntries = 4096

func clampInt16(v int64) (int16, bool) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, false
	}
	return int16(v), true
}

func clampInt32(v int64) int {
	switch {
	case v < math.MinInt32:
		return math.MinInt32
	case v > math.MaxInt32:
		return math.MaxInt32
	}
	return int(v)
}

// readMaterialID decodes a persisted material id. Out-of-range and negative
// values decode as material.None.
func readMaterialID(r FieldReader, key string) material.ID {
	v, ok := r.ReadInt(key)
	if !ok {
		return material.None
	}
	id, ok := clampInt16(v)
	if !ok || id < 0 {
		return material.None
	}
	return material.ID(id)
}

func readSlot(r FieldReader) fuse.Slot {
	cur, _ := r.ReadInt(fieldDurCur)
	max, _ := r.ReadInt(fieldDurMax)
	return fuse.Slot{
		MaterialID:        readMaterialID(r, fieldMaterialID),
		DurabilityCurrent: clampInt32(cur),
		DurabilityMax:     clampInt32(max),
	}
}

func writeSlot(w FieldWriter, s fuse.Slot) {
	w.WriteInt(fieldMaterialID, int64(s.MaterialID))
	w.WriteInt(fieldDurCur, int64(s.DurabilityCurrent))
	w.WriteInt(fieldDurMax, int64(s.DurabilityMax))
}
