package main

import (
	"github.com/cory-johannsen/fusecraft/internal/game/debounce"
	"github.com/cory-johannsen/fusecraft/internal/game/effect"
	"github.com/cory-johannsen/fusecraft/internal/game/fuse"
	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

// headlessHost satisfies effect.Host without a world. Only EquippedSword
// matters when loading a save.
type headlessHost struct {
	sword fuse.SlotKey
}

func (h headlessHost) Tick() uint64 { return 0 }

func (h headlessHost) EquippedSword() (fuse.SlotKey, bool) { return h.sword, true }

func (h headlessHost) IsFrozen(debounce.Handle) bool { return false }

func (h headlessHost) IsAlive(debounce.Handle) bool { return false }

func (h headlessHost) TriggerExplosion(effect.Vec3, effect.ExplosionParams, string) {}

func (h headlessHost) QueueFreezeEffect(debounce.Handle, int, string, material.ID) {}

func (h headlessHost) ApplyKnockback(debounce.Handle, int) {}

func (h headlessHost) ApplyHitboxOverride(fuse.SlotKey, int) {}

func (h headlessHost) RestoreBaselineHitbox(fuse.SlotKey) {}
