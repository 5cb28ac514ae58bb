package effect

import (
	"fmt"

	"github.com/cory-johannsen/fusecraft/internal/game/debounce"
	"github.com/cory-johannsen/fusecraft/internal/game/fuse"
	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

// Kind is the type of event being resolved.
type Kind int

const (
	KindMeleeHit Kind = iota
	KindProjectileHit
	KindSurfaceImpact
	KindGroundPound
)

var kindNames = map[Kind]string{
	KindMeleeHit:      "melee_hit",
	KindProjectileHit: "projectile_hit",
	KindSurfaceImpact: "surface_impact",
	KindGroundPound:   "ground_pound",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Category classifies the victim of a hit.
type Category int

const (
	CategoryEnemy Category = iota
	CategoryBoss
	CategoryProp
	CategoryBackground
)

var categoryNames = map[Category]string{
	CategoryEnemy:      "enemy",
	CategoryBoss:       "boss",
	CategoryProp:       "prop",
	CategoryBackground: "background",
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Event is one hit or impact produced by a fused item.
type Event struct {
	Kind Kind
	// Slot is the fused item that caused the event.
	Slot fuse.SlotKey
	// Victim is the actor hit; Nil for surface impacts and ground pounds.
	Victim   debounce.Handle
	Category Category
	// Projectile is the projectile in flight, when there is one.
	Projectile debounce.Handle
	Position   Vec3
}

// Effect is one modifier resolved for an event.
type Effect struct {
	Modifier material.ModifierID
	Level    int
}

// SuppressReason explains why an event produced nothing.
type SuppressReason int

const (
	NotSuppressed SuppressReason = iota
	SuppressedUnfused
	SuppressedVictimDebounce
	SuppressedProjectileCooldown
	SuppressedInvalidSlot
	SuppressedInvalidKind
)

var suppressNames = map[SuppressReason]string{
	NotSuppressed:                "none",
	SuppressedUnfused:            "unfused",
	SuppressedVictimDebounce:     "victim_debounce",
	SuppressedProjectileCooldown: "projectile_cooldown",
	SuppressedInvalidSlot:        "invalid_slot",
	SuppressedInvalidKind:        "invalid_kind",
}

func (r SuppressReason) String() string {
	if n, ok := suppressNames[r]; ok {
		return n
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Outcome is the decision produced for one Event.
type Outcome struct {
	Suppressed SuppressReason
	Material   material.ID
	// Effects lists the resolved modifiers in resolution order.
	Effects []Effect
	// Shattered is true when a Freeze hit an already-frozen victim.
	Shattered bool
	// Drained is the durability removed by this event.
	Drained int
	// Broken is true when this event broke the fusion.
	Broken bool
}

// Level returns the level at which mod fired, or 0.
func (o Outcome) Level(mod material.ModifierID) int {
	for _, e := range o.Effects {
		if e.Modifier == mod {
			return e.Level
		}
	}
	return 0
}

// PendingFreeze is a freeze decided during a tick and flushed in the post-phase.
type PendingFreeze struct {
	Victim   debounce.Handle
	Level    int
	Source   string
	Material material.ID
}

// applicable returns the modifiers an event of kind against cat may resolve,
// in resolution order.
func applicable(kind Kind, cat Category) []material.ModifierID {
	var mods []material.ModifierID
	switch kind {
	case KindMeleeHit:
		switch cat {
		case CategoryEnemy, CategoryBoss:
			mods = []material.ModifierID{
				material.ModifierExplosion, material.ModifierFreeze, material.ModifierStun,
				material.ModifierKnockback, material.ModifierMegaStun, material.ModifierHammerize,
			}
		case CategoryProp:
			mods = []material.ModifierID{material.ModifierExplosion, material.ModifierHammerize}
		default:
			mods = []material.ModifierID{material.ModifierExplosion}
		}
	case KindProjectileHit:
		switch cat {
		case CategoryEnemy, CategoryBoss:
			mods = []material.ModifierID{
				material.ModifierExplosion, material.ModifierFreeze, material.ModifierStun,
				material.ModifierKnockback, material.ModifierMegaStun,
			}
		default:
			mods = []material.ModifierID{material.ModifierExplosion}
		}
	case KindSurfaceImpact:
		mods = []material.ModifierID{material.ModifierExplosion}
	case KindGroundPound:
		mods = []material.ModifierID{
			material.ModifierExplosion, material.ModifierHammerize, material.ModifierPoundUp,
		}
	}
	if cat == CategoryBoss {
		out := mods[:0:0]
		for _, m := range mods {
			if m != material.ModifierStun {
				out = append(out, m)
			}
		}
		mods = out
	}
	return mods
}
