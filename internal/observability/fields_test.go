package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/fusecraft/internal/game/fuse"
	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

func TestSlots_OmitsUnfused(t *testing.T) {
	cat := material.DefaultCatalog()
	slots := fuse.NewSlotSet()
	require.NoError(t, slots.Slot(fuse.SlotBow).Fuse(cat, material.Bomb))
	slots.Slot(fuse.SlotBow).Damage(3)

	core, logs := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("state", Slots("slots", cat, slots))

	entries := logs.All()
	require.Len(t, entries, 1)
	got, ok := entries[0].ContextMap()["slots"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"bow": map[string]interface{}{"material": "Bomb Flower", "cur": 5, "max": 8},
	}, got)
}

func TestInventory_ListsEntries(t *testing.T) {
	cat := material.DefaultCatalog()
	inv := fuse.NewInventory()
	inv.Add(material.Ice, 4)
	inv.Add(material.Rock, 1)

	core, logs := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("state", Inventory("materials", cat, inv.Entries()))

	got, ok := logs.All()[0].ContextMap()["materials"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"material": "Rock", "quantity": 1},
		map[string]interface{}{"material": "Ice Chunk", "quantity": 4},
	}, got)
}
