// Package engine is the explicit context object of the fusion subsystem. An
// Engine owns every piece of mutable state (slots, inventory, debounce tables,
// queued freezes, hitbox overrides, pending acquisition) so independent
// instances share nothing.
package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fusecraft/internal/game/debounce"
	"github.com/cory-johannsen/fusecraft/internal/game/effect"
	"github.com/cory-johannsen/fusecraft/internal/game/fuse"
	"github.com/cory-johannsen/fusecraft/internal/game/fuse/persist"
	"github.com/cory-johannsen/fusecraft/internal/game/material"
)

// DefaultAcquisitionCheckTicks is how many ticks a tracked object is watched
// before its acquisition is decided.
const DefaultAcquisitionCheckTicks = 20

var (
	// ErrInvalidSlot is returned for a SlotKey outside the slot set.
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrInsufficientMaterial is returned when fusing a material the inventory does not hold.
	ErrInsufficientMaterial = errors.New("insufficient material")
)

// Options tunes an Engine.
type Options struct {
	// ExplosionCooldownTicks is the projectile explosion cooldown; < 1 uses the default.
	ExplosionCooldownTicks int
	// AcquisitionCheckTicks is the acquisition countdown; < 1 uses the default.
	AcquisitionCheckTicks int
	// WritesEnabled gates Save.
	WritesEnabled bool
}

// Acquisition is a thrown or grabbed object being watched for collection.
type Acquisition struct {
	Actor     debounce.Handle
	Material  material.ID
	Quantity  int
	TicksLeft int
}

// Engine drives the fusion state for one player.
//
// It is not safe for concurrent use; exactly one caller drives it per tick.
type Engine struct {
	catalog   *material.Catalog
	host      effect.Host
	logger    *zap.Logger
	opts      Options
	slots     *fuse.SlotSet
	inventory *fuse.Inventory
	registry  *debounce.Registry
	handles   *debounce.HandleTable
	resolver  *effect.Resolver
	pending   *Acquisition
}

// New returns an Engine with all slots Unfused and an empty inventory.
//
// Precondition: catalog, host and logger must be non-nil.
func New(catalog *material.Catalog, host effect.Host, logger *zap.Logger, opts Options) *Engine {
	if opts.AcquisitionCheckTicks < 1 {
		opts.AcquisitionCheckTicks = DefaultAcquisitionCheckTicks
	}
	reg := debounce.NewRegistry(opts.ExplosionCooldownTicks)
	return &Engine{
		catalog:   catalog,
		host:      host,
		logger:    logger,
		opts:      opts,
		slots:     fuse.NewSlotSet(),
		inventory: fuse.NewInventory(),
		registry:  reg,
		handles:   debounce.NewHandleTable(),
		resolver:  effect.NewResolver(catalog, reg, host, logger),
	}
}

// Catalog returns the material catalog the engine resolves against.
func (e *Engine) Catalog() *material.Catalog {
	return e.catalog
}

// Slot returns a copy of the slot at key.
func (e *Engine) Slot(key fuse.SlotKey) fuse.Slot {
	return e.slots.Get(key)
}

// Slots returns a copy of the full slot set.
func (e *Engine) Slots() *fuse.SlotSet {
	out := *e.slots
	return &out
}

// Quantity returns the held quantity of id.
func (e *Engine) Quantity(id material.ID) int {
	return e.inventory.Quantity(id)
}

// Materials returns every held material ordered by id.
func (e *Engine) Materials() []fuse.Entry {
	return e.inventory.Entries()
}

// AddMaterial grants n units of id outside of the award path.
func (e *Engine) AddMaterial(id material.ID, n int) int {
	if _, ok := e.catalog.Definition(id); !ok {
		return 0
	}
	return e.inventory.Add(id, n)
}

// Spawn issues a handle for a new actor.
func (e *Engine) Spawn() debounce.Handle {
	return e.handles.Acquire()
}

// Despawn retires h. Debounce entries keyed by h never match a later actor.
func (e *Engine) Despawn(h debounce.Handle) {
	e.handles.Release(h)
}

// Live reports whether h names an actor that has not been despawned.
func (e *Engine) Live(h debounce.Handle) bool {
	return e.handles.Live(h)
}

// BeginTick runs the pre-phase of a tick: the victim set is cleared, projectile
// cooldowns count down, awards of departed actors are forgotten, the pending
// acquisition is advanced and the equipped sword's hitbox override is synced.
func (e *Engine) BeginTick() {
	e.registry.Advance()
	e.registry.SweepAwards(e.host.IsAlive)
	e.tickAcquisition()
	key, ok := e.host.EquippedSword()
	e.resolver.SyncHitbox(e.slots, key, ok)
}

// EndTick runs the post-phase of a tick, flushing queued freezes to the host.
//
// Postcondition: returns the number of freezes flushed.
func (e *Engine) EndTick() int {
	return e.resolver.FlushFreezes()
}

// Fuse attaches one unit of id from the inventory to slot key.
//
// Postcondition: on success the slot holds id at full effective durability and
// the inventory lost one unit; on error nothing changed.
func (e *Engine) Fuse(key fuse.SlotKey, id material.ID) error {
	if !key.Valid() {
		return fmt.Errorf("engine: Fuse: %w: %d", ErrInvalidSlot, int(key))
	}
	if _, ok := e.catalog.Definition(id); !ok || e.catalog.EffectiveBaseDurability(id) <= 0 {
		return fmt.Errorf("engine: Fuse: %w: %d", fuse.ErrInvalidMaterial, int(id))
	}
	if e.inventory.Quantity(id) < 1 {
		return fmt.Errorf("engine: Fuse: %w: %s", ErrInsufficientMaterial, e.catalog.Name(id))
	}
	if err := e.slots.Slot(key).Fuse(e.catalog, id); err != nil {
		return fmt.Errorf("engine: Fuse: %w", err)
	}
	e.inventory.Take(id, 1)
	s := e.slots.Get(key)
	e.logger.Info("fuse applied",
		zap.Uint64("tick", e.host.Tick()),
		zap.Stringer("slot", key),
		zap.String("material", e.catalog.Name(id)),
		zap.Int("durability", s.DurabilityMax),
	)
	return nil
}

// Unfuse clears slot key and reverts any hitbox override it applied. The
// material is not returned to the inventory.
func (e *Engine) Unfuse(key fuse.SlotKey) error {
	if !key.Valid() {
		return fmt.Errorf("engine: Unfuse: %w: %d", ErrInvalidSlot, int(key))
	}
	if !e.slots.Get(key).IsFused() {
		return nil
	}
	mat := e.slots.Get(key).MaterialID
	e.resolver.Release(e.slots, key)
	e.logger.Info("fuse cleared",
		zap.Uint64("tick", e.host.Tick()),
		zap.Stringer("slot", key),
		zap.String("material", e.catalog.Name(mat)),
	)
	return nil
}

// Damage drains amount durability from slot key outside of hit resolution.
func (e *Engine) Damage(key fuse.SlotKey, amount int) fuse.DamageResult {
	return e.resolver.Drain(e.slots, key, amount)
}

// ResolveHit resolves ev against the current slots.
func (e *Engine) ResolveHit(ev effect.Event) effect.Outcome {
	return e.resolver.Resolve(e.slots, ev)
}

// PendingFreezes returns the freezes queued for the next EndTick.
func (e *Engine) PendingFreezes() []effect.PendingFreeze {
	return e.resolver.PendingFreezes()
}

// AwardHarvest grants qty units of id for actor at most once per actor instance.
//
// Postcondition: returns true when the award was granted by this call.
func (e *Engine) AwardHarvest(actor debounce.Handle, id material.ID, qty int) bool {
	if _, ok := e.catalog.Definition(id); !ok || qty <= 0 {
		return false
	}
	if !e.registry.ClaimAward(actor) {
		return false
	}
	total := e.inventory.Add(id, qty)
	e.logger.Info("award granted",
		zap.Uint64("tick", e.host.Tick()),
		zap.Stringer("actor", actor),
		zap.String("material", e.catalog.Name(id)),
		zap.Int("quantity", qty),
		zap.Int("total", total),
	)
	return true
}

// TrackAcquisition starts watching actor, a thrown or grabbed object worth qty
// units of id. Tracking a new object abandons the previous one.
func (e *Engine) TrackAcquisition(actor debounce.Handle, id material.ID, qty int) {
	if e.pending != nil {
		e.logger.Debug("acquisition abandoned",
			zap.Stringer("actor", e.pending.Actor),
			zap.String("reason", "superseded"),
		)
	}
	e.pending = &Acquisition{
		Actor:     actor,
		Material:  id,
		Quantity:  qty,
		TicksLeft: e.opts.AcquisitionCheckTicks,
	}
}

// PendingAcquisition returns the object currently being watched.
func (e *Engine) PendingAcquisition() (Acquisition, bool) {
	if e.pending == nil {
		return Acquisition{}, false
	}
	return *e.pending, true
}

func (e *Engine) tickAcquisition() {
	if e.pending == nil {
		return
	}
	e.pending.TicksLeft--
	if e.pending.TicksLeft > 0 {
		return
	}
	a := *e.pending
	e.pending = nil
	if e.host.IsAlive(a.Actor) {
		e.logger.Debug("acquisition abandoned",
			zap.Stringer("actor", a.Actor),
			zap.String("reason", "still_alive"),
		)
		return
	}
	awarded := e.AwardHarvest(a.Actor, a.Material, a.Quantity)
	e.logger.Info("acquisition resolved",
		zap.Stringer("actor", a.Actor),
		zap.Bool("awarded", awarded),
	)
}

// NewGame discards all state and starts with Unfused slots and an empty inventory.
func (e *Engine) NewGame() {
	e.resetEphemeral()
	e.slots = fuse.NewSlotSet()
	e.inventory = fuse.NewInventory()
}

func (e *Engine) resetEphemeral() {
	e.resolver.ReleaseHitboxes()
	e.resolver.DropFreezes()
	e.registry.Reset()
	e.pending = nil
}

// Load replaces all state with the contents of rec. Pending legacy write-back
// is applied to rec in place, so the caller persists rec in the same
// transaction it was read in.
//
// Postcondition: ephemeral per-tick state is reset; Load never fails.
func (e *Engine) Load(rec *persist.Record) persist.LoadResult {
	e.resetEphemeral()
	res := persist.Load(e.catalog, rec, e.host.EquippedSword)
	e.slots = res.Slots
	e.inventory = res.Inventory

	fields := []zap.Field{
		zap.Int64("schema_version", res.Version),
		zap.Int("materials", res.Inventory.Len()),
	}
	switch {
	case res.FutureSchema:
		e.logger.Warn("save written by newer schema; reading current layout",
			append(fields, zap.Int("known_version", persist.VersionCurrent))...)
	case res.MigratedFromLegacy:
		e.logger.Info("legacy fuse migrated",
			append(fields, zap.Stringer("slot", res.LegacyTarget))...)
	case res.CompanionBackfilled:
		e.logger.Info("companion slot backfilled from legacy fields", fields...)
	default:
		e.logger.Debug("save loaded", fields...)
	}
	return res
}

// Save writes all state into rec at the current schema version.
//
// Postcondition: returns false without touching rec when persistence writes
// are disabled.
func (e *Engine) Save(rec *persist.Record) bool {
	if !e.opts.WritesEnabled {
		e.logger.Debug("persistence writes disabled; save skipped")
		return false
	}
	persist.Save(e.catalog, rec, e.slots, e.inventory)
	return true
}
