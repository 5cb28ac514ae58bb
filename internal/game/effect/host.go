// Package effect decides which modifier effects a fused slot produces for a hit
// or impact and drains durability for it. World mutation is delegated to the
// Host; this package only decides what should happen.
package effect

import (
	"github.com/cory-johannsen/fusecraft/internal/game/debounce"
	"github.com/cory-johannsen/fusecraft/internal/game/fuse"
	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

// Vec3 is a world-space position.
type Vec3 struct {
	X, Y, Z float32
}

// ExplosionParams describes an explosion the host should spawn.
type ExplosionParams struct {
	Level  int
	Radius float32
	Damage int
}

// Queries are the questions the engine asks the host.
type Queries interface {
	// Tick returns the current simulation tick.
	Tick() uint64
	// EquippedSword returns the sword variant currently equipped, if any.
	EquippedSword() (fuse.SlotKey, bool)
	// IsFrozen reports whether victim is already frozen.
	IsFrozen(victim debounce.Handle) bool
	// IsAlive reports whether actor still exists in the world.
	IsAlive(actor debounce.Handle) bool
}

// Commands are the actions the engine asks the host to perform.
type Commands interface {
	TriggerExplosion(pos Vec3, params ExplosionParams, source string)
	QueueFreezeEffect(victim debounce.Handle, level int, source string, mat material.ID)
	ApplyKnockback(victim debounce.Handle, level int)
	// ApplyHitboxOverride switches slot's weapon to hammer-like hitboxes at level.
	ApplyHitboxOverride(slot fuse.SlotKey, level int)
	// RestoreBaselineHitbox reverts slot's weapon hitboxes to their unfused behavior.
	RestoreBaselineHitbox(slot fuse.SlotKey)
}

// Host is the full capability surface the engine depends on.
type Host interface {
	Queries
	Commands
}

// SourceLabel returns the label attached to effects produced by slot.
func SourceLabel(slot fuse.SlotKey) string {
	return "fuse:" + slot.String()
}

// explosionTable maps an Explosion level to its parameters; index 0 is unused.
var explosionTable = [material.MaxLevel + 1]ExplosionParams{
	{},
	{Level: 1, Radius: 80, Damage: 2},
	{Level: 2, Radius: 120, Damage: 4},
	{Level: 3, Radius: 180, Damage: 8},
}

// ExplosionFor returns the explosion parameters of level, clamped to the valid range.
func ExplosionFor(level int) ExplosionParams {
	level = min(max(level, material.MinLevel), material.MaxLevel)
	return explosionTable[level]
}
