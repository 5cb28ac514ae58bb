package effect

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/fusecraft/internal/game/debounce"
	"github.com/cory-johannsen/fusecraft/internal/game/fuse"
	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

// DrainPerEvent is the durability removed by one resolved event.
const DrainPerEvent = 1

// Resolver turns events into effect decisions.
//
// It owns the queued freezes and the hitbox overrides currently applied on the
// host. It is not safe for concurrent use.
type Resolver struct {
	catalog   fuse.Catalog
	registry  *debounce.Registry
	host      Host
	logger    *zap.Logger
	freezes   []PendingFreeze
	overrides map[fuse.SlotKey]int
}

// NewResolver returns a Resolver.
//
// Precondition: catalog, registry, host and logger must be non-nil.
func NewResolver(catalog fuse.Catalog, registry *debounce.Registry, host Host, logger *zap.Logger) *Resolver {
	return &Resolver{
		catalog:   catalog,
		registry:  registry,
		host:      host,
		logger:    logger,
		overrides: make(map[fuse.SlotKey]int),
	}
}

// Resolve decides the effects of ev against the fusion held in slots.
//
// Postcondition: a suppressed outcome leaves slots untouched. Otherwise the
// applicable modifiers are resolved in order, explosions and knockbacks are
// sent to the host, freezes are queued for FlushFreezes, and exactly
// DrainPerEvent durability is drained. A Freeze against a frozen victim
// shatters it and stops resolution of every later modifier.
func (r *Resolver) Resolve(slots *fuse.SlotSet, ev Event) Outcome {
	if !ev.Slot.Valid() {
		return Outcome{Suppressed: SuppressedInvalidSlot}
	}
	if !ev.Kind.Valid() {
		return Outcome{Suppressed: SuppressedInvalidKind}
	}
	slot := slots.Slot(ev.Slot)
	if !slot.IsFused() {
		return Outcome{Suppressed: SuppressedUnfused}
	}
	out := Outcome{Material: slot.MaterialID}

	if ev.Kind == KindSurfaceImpact && r.registry.ProjectileCoolingDown(ev.Projectile) {
		out.Suppressed = SuppressedProjectileCooldown
		return out
	}
	if !r.registry.MarkVictim(ev.Victim) {
		out.Suppressed = SuppressedVictimDebounce
		return out
	}

	def, ok := r.catalog.Definition(slot.MaterialID)
	if !ok {
		// Unreachable for a normalized slot.
		slot.Clear()
		return Outcome{Suppressed: SuppressedUnfused}
	}

	source := SourceLabel(ev.Slot)
	for _, mod := range applicable(ev.Kind, ev.Category) {
		level, granted := def.Level(mod)
		if !granted {
			continue
		}
		switch mod {
		case material.ModifierExplosion:
			if r.registry.ProjectileCoolingDown(ev.Projectile) {
				continue
			}
			r.host.TriggerExplosion(ev.Position, ExplosionFor(level), source)
			r.registry.StartProjectileCooldown(ev.Projectile)
		case material.ModifierFreeze:
			if r.host.IsFrozen(ev.Victim) {
				out.Shattered = true
			} else {
				r.freezes = append(r.freezes, PendingFreeze{
					Victim:   ev.Victim,
					Level:    level,
					Source:   source,
					Material: slot.MaterialID,
				})
			}
		case material.ModifierKnockback:
			r.host.ApplyKnockback(ev.Victim, level)
		}
		out.Effects = append(out.Effects, Effect{Modifier: mod, Level: level})
		if out.Shattered {
			break
		}
	}

	dmg := r.Drain(slots, ev.Slot, DrainPerEvent)
	out.Drained = dmg.Drained
	out.Broken = dmg.Broken

	r.logger.Debug("fuse effect resolved",
		zap.Stringer("slot", ev.Slot),
		zap.Stringer("kind", ev.Kind),
		zap.Stringer("category", ev.Category),
		zap.Int16("material", int16(out.Material)),
		zap.Int("effects", len(out.Effects)),
		zap.Bool("shattered", out.Shattered),
		zap.Bool("broken", out.Broken),
	)
	return out
}

// Drain removes amount durability from slot key and handles a resulting break.
//
// Postcondition: when the fusion breaks, RestoreBaselineHitbox(key) is called
// exactly once and any tracked override for key is dropped.
func (r *Resolver) Drain(slots *fuse.SlotSet, key fuse.SlotKey, amount int) fuse.DamageResult {
	if !key.Valid() {
		return fuse.DamageResult{}
	}
	mat := slots.Get(key).MaterialID
	res := slots.Slot(key).Damage(amount)
	if res.Broken {
		delete(r.overrides, key)
		r.host.RestoreBaselineHitbox(key)
		r.logger.Info("fuse broken",
			zap.Stringer("slot", key),
			zap.Int16("material", int16(mat)),
		)
	}
	return res
}

// Release forces slot key to Unfused outside of a break, reverting any hitbox
// override it had applied.
func (r *Resolver) Release(slots *fuse.SlotSet, key fuse.SlotKey) {
	if !key.Valid() {
		return
	}
	slots.Slot(key).Clear()
	if _, ok := r.overrides[key]; ok {
		delete(r.overrides, key)
		r.host.RestoreBaselineHitbox(key)
	}
}

// SyncHitbox applies the Hammerize hitbox override of the equipped sword and
// reverts overrides that no longer match the equipment.
//
// Postcondition: at most one override is tracked, for the equipped sword, and
// only while it holds a material granting Hammerize.
func (r *Resolver) SyncHitbox(slots *fuse.SlotSet, equipped fuse.SlotKey, ok bool) {
	want := 0
	if ok && equipped.Valid() {
		if def, found := r.catalog.Definition(slots.Get(equipped).MaterialID); found {
			want, _ = def.Level(material.ModifierHammerize)
		}
	}
	for key, level := range r.overrides {
		if key == equipped && level == want {
			continue
		}
		delete(r.overrides, key)
		r.host.RestoreBaselineHitbox(key)
	}
	if want > 0 {
		if _, applied := r.overrides[equipped]; !applied {
			r.overrides[equipped] = want
			r.host.ApplyHitboxOverride(equipped, want)
		}
	}
}

// Override returns the hitbox override level tracked for key, or 0.
func (r *Resolver) Override(key fuse.SlotKey) int {
	return r.overrides[key]
}

// ReleaseHitboxes reverts every tracked override.
func (r *Resolver) ReleaseHitboxes() {
	for key := range r.overrides {
		delete(r.overrides, key)
		r.host.RestoreBaselineHitbox(key)
	}
}

// FlushFreezes hands every queued freeze to the host and empties the queue.
//
// Postcondition: returns the number of freezes flushed.
func (r *Resolver) FlushFreezes() int {
	n := len(r.freezes)
	for _, f := range r.freezes {
		r.host.QueueFreezeEffect(f.Victim, f.Level, f.Source, f.Material)
	}
	r.freezes = r.freezes[:0]
	return n
}

// PendingFreezes returns a copy of the queued freezes.
func (r *Resolver) PendingFreezes() []PendingFreeze {
	out := make([]PendingFreeze, len(r.freezes))
	copy(out, r.freezes)
	return out
}

// DropFreezes discards queued freezes without flushing them.
func (r *Resolver) DropFreezes() {
	r.freezes = r.freezes[:0]
}
