package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/fusecraft/internal/game/fuse"
	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

// Namer resolves material display names.
type Namer interface {
	Name(id material.ID) string
}

type slotsObject struct {
	names Namer
	slots *fuse.SlotSet
}

func (o slotsObject) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	var err error
	o.slots.Each(func(k fuse.SlotKey, s fuse.Slot) {
		if !s.IsFused() || err != nil {
			return
		}
		err = enc.AddObject(k.String(), zapcore.ObjectMarshalerFunc(func(e zapcore.ObjectEncoder) error {
			e.AddString("material", o.names.Name(s.MaterialID))
			e.AddInt("cur", s.DurabilityCurrent)
			e.AddInt("max", s.DurabilityMax)
			return nil
		}))
	})
	return err
}

// Slots returns a field listing every fused slot of slots. Unfused slots are omitted.
func Slots(key string, names Namer, slots *fuse.SlotSet) zap.Field {
	return zap.Object(key, slotsObject{names: names, slots: slots})
}

type inventoryArray struct {
	names   Namer
	entries []fuse.Entry
}

func (a inventoryArray) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, en := range a.entries {
		err := enc.AppendObject(zapcore.ObjectMarshalerFunc(func(e zapcore.ObjectEncoder) error {
			e.AddString("material", a.names.Name(en.Material))
			e.AddInt("quantity", en.Quantity)
			return nil
		}))
		if err != nil {
			return err
		}
	}
	return nil
}

// Inventory returns a field listing entries by material name.
func Inventory(key string, names Namer, entries []fuse.Entry) zap.Field {
	return zap.Array(key, inventoryArray{names: names, entries: entries})
}
