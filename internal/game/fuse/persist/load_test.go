package persist_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/fusecraft/internal/game/fuse"
	"github.com/cory-johannsen/fusecraft/internal/game/fuse/persist"
	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

func equippedSword(k fuse.SlotKey) persist.EquippedSwordFunc {
	return func() (fuse.SlotKey, bool) { return k, true }
}

func noSword() (fuse.SlotKey, bool) { return 0, false }

// slotArrayFields builds the fuse section of a slot-array save with the given
// sword slots.
func slotArrayFields(version int64, swords ...fuse.Slot) map[string]int64 {
	f := map[string]int64{
		"fuse.schemaVersion":  version,
		"fuse.swordSlots.len": int64(len(swords)),
	}
	for i, s := range swords {
		f[fmt.Sprintf("fuse.swordSlots.%d.materialId", i)] = int64(s.MaterialID)
		f[fmt.Sprintf("fuse.swordSlots.%d.durCur", i)] = int64(s.DurabilityCurrent)
		f[fmt.Sprintf("fuse.swordSlots.%d.durMax", i)] = int64(s.DurabilityMax)
	}
	return f
}

func TestLoad_EmptyRecordIsUnfused(t *testing.T) {
	cat := material.DefaultCatalog()
	res := persist.Load(cat, persist.NewRecord(), noSword)
	assert.True(t, res.Slots.Equal(fuse.NewSlotSet()))
	assert.Equal(t, 0, res.Inventory.Len())
	assert.False(t, res.MigratedFromLegacy)
	assert.Equal(t, int64(persist.VersionLegacy), res.Version)
}

func TestLoad_RoundTrip(t *testing.T) {
	cat := material.DefaultCatalog()
	slots := fuse.NewSlotSet()
	require.NoError(t, slots.Slot(fuse.SlotSwordKokiri).Fuse(cat, material.Rock))
	require.NoError(t, slots.Slot(fuse.SlotSwordBiggoron).Fuse(cat, material.Ice))
	slots.Slot(fuse.SlotSwordBiggoron).Damage(4)
	require.NoError(t, slots.Slot(fuse.SlotBoomerang).Fuse(cat, material.Bomb))
	require.NoError(t, slots.Slot(fuse.SlotBow).Fuse(cat, material.BombchuHusk))
	require.NoError(t, slots.Slot(fuse.SlotShield).Fuse(cat, material.GoronOre))
	inv := fuse.NewInventory()
	inv.Add(material.Rock, 12)
	inv.Add(material.SparkCrystal, 1)

	rec := persist.NewRecord()
	persist.Save(cat, rec, slots, inv)

	res := persist.Load(cat, rec, equippedSword(fuse.SlotSwordMaster))
	assert.True(t, res.Slots.Equal(slots))
	assert.Equal(t, inv.Entries(), res.Inventory.Entries())
	assert.Equal(t, int64(persist.VersionCurrent), res.Version)
	assert.True(t, res.CompanionLoaded)
	assert.False(t, res.MigratedFromLegacy)
	assert.False(t, res.FutureSchema)
}

func TestLoad_LegacyMigratesIntoEquippedSword(t *testing.T) {
	cat := material.DefaultCatalog()
	rec := persist.NewRecord()
	persist.WriteLegacy(rec.Section(persist.SectionFuse), persist.LegacyFields{
		MaterialID:        int64(material.Ice),
		DurabilityPresent: false,
	})

	res := persist.Load(cat, rec, equippedSword(fuse.SlotSwordBiggoron))

	assert.True(t, res.MigratedFromLegacy)
	assert.Equal(t, fuse.SlotSwordBiggoron, res.LegacyTarget)
	assert.Equal(t, fuse.Slot{MaterialID: material.Ice, DurabilityCurrent: 15, DurabilityMax: 15}, res.Slots.Get(fuse.SlotSwordBiggoron))
	assert.False(t, res.Slots.Get(fuse.SlotSwordKokiri).IsFused())
	assert.False(t, res.Slots.Get(fuse.SlotSwordMaster).IsFused())

	legacy := persist.ReadLegacy(rec.Section(persist.SectionFuse))
	assert.Equal(t, int64(material.None), legacy.MaterialID, "legacy fields must be cleared on migration")
	assert.False(t, legacy.DurabilityPresent)
	assert.True(t, rec.Dirty())
}

func TestLoad_LegacyWithDurabilityClamps(t *testing.T) {
	cat := material.DefaultCatalog()
	cases := []struct {
		dur  int64
		want fuse.Slot
	}{
		{7, fuse.Slot{MaterialID: material.Rock, DurabilityCurrent: 7, DurabilityMax: 20}},
		{500, fuse.Slot{MaterialID: material.Rock, DurabilityCurrent: 20, DurabilityMax: 20}},
		{0, fuse.Slot{}},
		{-9, fuse.Slot{}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.dur), func(t *testing.T) {
			rec := persist.NewRecord()
			persist.WriteLegacy(rec.Section(persist.SectionFuse), persist.LegacyFields{
				MaterialID: int64(material.Rock), Durability: tc.dur, DurabilityPresent: true,
			})
			res := persist.Load(cat, rec, equippedSword(fuse.SlotSwordMaster))
			assert.Equal(t, tc.want, res.Slots.Get(fuse.SlotSwordMaster))
		})
	}
}

func TestLoad_LegacyZeroDurabilityStillClearsLegacyFields(t *testing.T) {
	cat := material.DefaultCatalog()
	rec := persist.NewRecord()
	persist.WriteLegacy(rec.Section(persist.SectionFuse), persist.LegacyFields{
		MaterialID: int64(material.Rock), Durability: 0, DurabilityPresent: true,
	})
	rec.MarkClean()

	res := persist.Load(cat, rec, equippedSword(fuse.SlotSwordMaster))
	assert.True(t, res.MigratedFromLegacy)
	assert.Equal(t, fuse.SlotSwordMaster, res.LegacyTarget)
	assert.False(t, res.Slots.Get(fuse.SlotSwordMaster).IsFused())
	assert.True(t, rec.Dirty(), "cleared legacy fields must be written back")
	assert.Equal(t, persist.LegacyFields{}, persist.ReadLegacy(rec.Section(persist.SectionFuse)))
}

func TestLoad_LegacyDefaultsToKokiriWithoutEquippedSword(t *testing.T) {
	cat := material.DefaultCatalog()
	rec := persist.NewRecord()
	persist.WriteLegacy(rec.Section(persist.SectionFuse), persist.LegacyFields{MaterialID: int64(material.Bomb)})

	res := persist.Load(cat, rec, noSword)
	assert.True(t, res.MigratedFromLegacy)
	assert.Equal(t, fuse.Slot{MaterialID: material.Bomb, DurabilityCurrent: 8, DurabilityMax: 8}, res.Slots.Get(fuse.SlotSwordKokiri))

	rec2 := persist.NewRecord()
	persist.WriteLegacy(rec2.Section(persist.SectionFuse), persist.LegacyFields{MaterialID: int64(material.Bomb)})
	res2 := persist.Load(cat, rec2, equippedSword(fuse.SlotBoomerang))
	assert.Equal(t, fuse.SlotSwordKokiri, res2.LegacyTarget, "non-sword equipment falls back to the base sword")
}

func TestLoad_LegacyNoneAndOutOfRange(t *testing.T) {
	cat := material.DefaultCatalog()
	for _, id := range []int64{0, -1, 70000, 900} {
		rec := persist.NewRecord()
		persist.WriteLegacy(rec.Section(persist.SectionFuse), persist.LegacyFields{MaterialID: id})
		rec.MarkClean()
		res := persist.Load(cat, rec, equippedSword(fuse.SlotSwordMaster))
		assert.False(t, res.MigratedFromLegacy, "id %d", id)
		assert.True(t, res.Slots.Equal(fuse.NewSlotSet()), "id %d", id)
		assert.False(t, rec.Dirty(), "id %d: nothing to write back", id)
	}
}

func TestLoad_LegacyMigrationHappensOnce(t *testing.T) {
	cat := material.DefaultCatalog()
	rec := persist.NewRecord()
	persist.WriteLegacy(rec.Section(persist.SectionFuse), persist.LegacyFields{MaterialID: int64(material.Ice)})

	first := persist.Load(cat, rec, equippedSword(fuse.SlotSwordBiggoron))
	require.True(t, first.MigratedFromLegacy)

	// No save in between; a different sword is equipped now.
	second := persist.Load(cat, rec, equippedSword(fuse.SlotSwordKokiri))
	assert.False(t, second.MigratedFromLegacy)
	assert.True(t, second.Slots.Equal(fuse.NewSlotSet()))
}

func TestLoad_SlotArrayBackfillsCompanionFromLegacy(t *testing.T) {
	cat := material.DefaultCatalog()
	fields := slotArrayFields(persist.VersionSlotArray, fuse.Slot{}, fuse.Slot{}, fuse.Slot{})
	fields["fuse.legacyMaterialId"] = int64(material.Bomb)
	fields["fuse.legacyDurabilityPresent"] = 1
	fields["fuse.legacyDurability"] = 5
	rec := persist.RecordFromFields(fields)

	res := persist.Load(cat, rec, equippedSword(fuse.SlotSwordMaster))
	assert.True(t, res.CompanionBackfilled)
	assert.False(t, res.CompanionLoaded)
	assert.False(t, res.MigratedFromLegacy)
	assert.Equal(t, fuse.Slot{MaterialID: material.Bomb, DurabilityCurrent: 5, DurabilityMax: 8}, res.Slots.Get(fuse.SlotBoomerang))
	assert.False(t, res.Slots.AnySwordFused())
}

func TestLoad_SlotArrayNoBackfillWhenSwordFused(t *testing.T) {
	cat := material.DefaultCatalog()
	fields := slotArrayFields(persist.VersionSlotArray,
		fuse.Slot{MaterialID: material.Rock, DurabilityCurrent: 3, DurabilityMax: 20})
	fields["fuse.legacyMaterialId"] = int64(material.Bomb)
	rec := persist.RecordFromFields(fields)

	res := persist.Load(cat, rec, noSword)
	assert.False(t, res.CompanionBackfilled)
	assert.False(t, res.Slots.Get(fuse.SlotBoomerang).IsFused())
	assert.Equal(t, fuse.Slot{MaterialID: material.Rock, DurabilityCurrent: 3, DurabilityMax: 20}, res.Slots.Get(fuse.SlotSwordKokiri))
}

func TestLoad_SlotArrayWithoutLegacyDataStaysUnfused(t *testing.T) {
	cat := material.DefaultCatalog()
	rec := persist.RecordFromFields(slotArrayFields(persist.VersionSlotArray, fuse.Slot{}, fuse.Slot{}, fuse.Slot{}))
	res := persist.Load(cat, rec, noSword)
	assert.False(t, res.CompanionBackfilled)
	assert.True(t, res.Slots.Equal(fuse.NewSlotSet()))
}

func TestLoad_CompanionVersionIgnoresLegacyScalars(t *testing.T) {
	cat := material.DefaultCatalog()
	fields := slotArrayFields(persist.VersionCompanion, fuse.Slot{}, fuse.Slot{}, fuse.Slot{})
	fields["fuse.legacyMaterialId"] = int64(material.Bomb)
	fields["fuse.companionSlot.materialId"] = int64(material.Ice)
	fields["fuse.companionSlot.durCur"] = 2
	fields["fuse.companionSlot.durMax"] = 15
	res := persist.Load(cat, persist.RecordFromFields(fields), noSword)

	assert.True(t, res.CompanionLoaded)
	assert.False(t, res.CompanionBackfilled)
	assert.Equal(t, fuse.Slot{MaterialID: material.Ice, DurabilityCurrent: 2, DurabilityMax: 15}, res.Slots.Get(fuse.SlotBoomerang))
}

func TestLoad_CompanionVersionDropsRangedFields(t *testing.T) {
	cat := material.DefaultCatalog()
	fields := slotArrayFields(persist.VersionCompanion)
	fields["fuse.shieldSlot.materialId"] = int64(material.Rock)
	fields["fuse.shieldSlot.durCur"] = 20
	fields["fuse.shieldSlot.durMax"] = 20
	res := persist.Load(cat, persist.RecordFromFields(fields), noSword)
	assert.False(t, res.Slots.Get(fuse.SlotShield).IsFused(), "shield slot is not part of the V2 layout")
}

func TestLoad_MalformedSlotsDegrade(t *testing.T) {
	cat := material.DefaultCatalog()
	fields := slotArrayFields(persist.VersionCompanion,
		fuse.Slot{MaterialID: 900, DurabilityCurrent: 5, DurabilityMax: 5},
		fuse.Slot{MaterialID: material.Rock, DurabilityCurrent: 40, DurabilityMax: 20},
		fuse.Slot{MaterialID: material.Ice, DurabilityCurrent: 3, DurabilityMax: -1},
	)
	fields["fuse.swordSlots.len"] = 1 << 40
	fields["fuse.swordSlots.1.durCur"] = 1 << 40
	res := persist.Load(cat, persist.RecordFromFields(fields), noSword)

	assert.False(t, res.Slots.Get(fuse.SlotSwordKokiri).IsFused())
	assert.Equal(t, fuse.Slot{MaterialID: material.Rock, DurabilityCurrent: 20, DurabilityMax: 20}, res.Slots.Get(fuse.SlotSwordMaster))
	assert.False(t, res.Slots.Get(fuse.SlotSwordBiggoron).IsFused())
}

func TestLoad_FutureSchemaReadsCurrentLayout(t *testing.T) {
	cat := material.DefaultCatalog()
	slots := fuse.NewSlotSet()
	require.NoError(t, slots.Slot(fuse.SlotHookshot).Fuse(cat, material.DekuNut))
	rec := persist.NewRecord()
	persist.Save(cat, rec, slots, fuse.NewInventory())
	rec.Section(persist.SectionFuse).WriteInt("schemaVersion", persist.VersionCurrent+4)

	res := persist.Load(cat, rec, noSword)
	assert.True(t, res.FutureSchema)
	assert.True(t, res.Slots.Equal(slots))
}

func TestLoad_MaterialsFiltering(t *testing.T) {
	cat := material.DefaultCatalog()
	rec := persist.RecordFromFields(map[string]int64{
		"materials.count":                3,
		"materials.entries.len":          4,
		"materials.entries.0.materialId": int64(material.Rock),
		"materials.entries.0.quantity":   4,
		"materials.entries.1.materialId": int64(material.Ice),
		"materials.entries.1.quantity":   0,
		"materials.entries.2.materialId": 999,
		"materials.entries.2.quantity":   3,
		"materials.entries.3.materialId": int64(material.Bomb),
		"materials.entries.3.quantity":   2,
	})
	res := persist.Load(cat, rec, noSword)
	assert.Equal(t, []fuse.Entry{{Material: material.Rock, Quantity: 4}}, res.Inventory.Entries(),
		"count bounds the entries read; zero and unknown entries are dropped")
}

func TestLoad_MaterialsClampQuantity(t *testing.T) {
	cat := material.DefaultCatalog()
	rec := persist.RecordFromFields(map[string]int64{
		"materials.count":                1,
		"materials.entries.len":          1,
		"materials.entries.0.materialId": int64(material.Rock),
		"materials.entries.0.quantity":   1 << 20,
	})
	res := persist.Load(cat, rec, noSword)
	assert.Equal(t, fuse.MaxQuantity, res.Inventory.Quantity(material.Rock))
}

func TestSave_WritesOnlyNonZeroMaterials(t *testing.T) {
	cat := material.DefaultCatalog()
	inv := fuse.NewInventory()
	inv.Add(material.Ice, 2)
	inv.Add(material.Rock, 1)
	inv.Take(material.Rock, 1)

	rec := persist.NewRecord()
	persist.Save(cat, rec, fuse.NewSlotSet(), inv)
	f := rec.Fields()
	assert.Equal(t, int64(1), f["materials.count"])
	assert.Equal(t, int64(material.Ice), f["materials.entries.0.materialId"])
	assert.Equal(t, int64(2), f["materials.entries.0.quantity"])
	assert.NotContains(t, f, "materials.entries.1.materialId")
}

func TestSave_ClearsLegacyAndWritesCurrentVersion(t *testing.T) {
	cat := material.DefaultCatalog()
	rec := persist.NewRecord()
	persist.WriteLegacy(rec.Section(persist.SectionFuse), persist.LegacyFields{MaterialID: int64(material.Ice)})
	persist.Save(cat, rec, fuse.NewSlotSet(), fuse.NewInventory())

	legacy := persist.ReadLegacy(rec.Section(persist.SectionFuse))
	assert.Equal(t, int64(persist.VersionCurrent), legacy.SchemaVersion)
	assert.Equal(t, int64(material.None), legacy.MaterialID)
}

func TestProperty_SaveLoadRoundTrip(t *testing.T) {
	cat := material.DefaultCatalog()
	rapid.Check(t, func(rt *rapid.T) {
		slots := fuse.NewSlotSet()
		for _, k := range fuse.AllSlots() {
			id := material.ID(rapid.IntRange(0, 10).Draw(rt, "material"))
			if err := slots.Slot(k).Fuse(cat, id); err != nil {
				continue
			}
			slots.Slot(k).Damage(rapid.IntRange(0, 40).Draw(rt, "damage"))
		}
		inv := fuse.NewInventory()
		for i := rapid.IntRange(0, 6).Draw(rt, "entries"); i > 0; i-- {
			inv.Add(material.ID(rapid.IntRange(1, 10).Draw(rt, "inv_id")), rapid.IntRange(0, 500).Draw(rt, "qty"))
		}

		rec := persist.NewRecord()
		persist.Save(cat, rec, slots, inv)
		res := persist.Load(cat, rec, equippedSword(fuse.SlotSwordMaster))
		if !res.Slots.Equal(slots) {
			rt.Fatalf("slots did not round-trip")
		}
		if fmt.Sprint(res.Inventory.Entries()) != fmt.Sprint(inv.Entries()) {
			rt.Fatalf("inventory did not round-trip: %v vs %v", res.Inventory.Entries(), inv.Entries())
		}
	})
}

func TestProperty_LoadNeverBreaksInvariants(t *testing.T) {
	cat := material.DefaultCatalog()
	keys := []string{
		"fuse.schemaVersion", "fuse.swordSlots.len",
		"fuse.swordSlots.0.materialId", "fuse.swordSlots.0.durCur", "fuse.swordSlots.0.durMax",
		"fuse.swordSlots.2.materialId", "fuse.swordSlots.2.durCur", "fuse.swordSlots.2.durMax",
		"fuse.companionSlot.materialId", "fuse.companionSlot.durCur", "fuse.companionSlot.durMax",
		"fuse.legacyMaterialId", "fuse.legacyDurability", "fuse.legacyDurabilityPresent",
	}
	rapid.Check(t, func(rt *rapid.T) {
		fields := make(map[string]int64)
		for _, k := range keys {
			if rapid.Bool().Draw(rt, "present_"+k) {
				fields[k] = rapid.Int64Range(-3, 40).Draw(rt, k)
			}
		}
		res := persist.Load(cat, persist.RecordFromFields(fields), equippedSword(fuse.SlotSwordBiggoron))
		res.Slots.Each(func(k fuse.SlotKey, s fuse.Slot) {
			normalized := s
			normalized.Normalize(cat)
			if normalized != s {
				rt.Fatalf("slot %s not normalized after load: %+v", k, s)
			}
		})
	})
}
