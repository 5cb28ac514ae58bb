package debounce

// DefaultExplosionCooldownTicks is how long a projectile stays unable to
// explode again after it exploded.
const DefaultExplosionCooldownTicks = 12

// Registry holds the three debounce tables.
//
//   - victims: hit-resolution targets seen this tick; cleared every tick.
//   - projectiles: explosion cooldowns counted down once per tick.
//   - awards: actors whose one-shot reward was granted; kept until the actor is gone.
//
// It is not safe for concurrent use.
type Registry struct {
	cooldownTicks int
	victims       map[Handle]struct{}
	projectiles   map[Handle]int
	awards        map[Handle]struct{}
}

// NewRegistry returns an empty Registry.
//
// Precondition: cooldownTicks >= 1; smaller values use DefaultExplosionCooldownTicks.
func NewRegistry(cooldownTicks int) *Registry {
	if cooldownTicks < 1 {
		cooldownTicks = DefaultExplosionCooldownTicks
	}
	return &Registry{
		cooldownTicks: cooldownTicks,
		victims:       make(map[Handle]struct{}),
		projectiles:   make(map[Handle]int),
		awards:        make(map[Handle]struct{}),
	}
}

// Advance starts a new tick: the victim set is cleared and every projectile
// cooldown is decremented, expiring those that reach zero.
//
// Postcondition: returns the projectiles whose cooldown expired.
func (r *Registry) Advance() []Handle {
	clear(r.victims)
	var expired []Handle
	for h, left := range r.projectiles {
		left--
		if left <= 0 {
			delete(r.projectiles, h)
			expired = append(expired, h)
			continue
		}
		r.projectiles[h] = left
	}
	return expired
}

// Reset drops every entry from every table.
func (r *Registry) Reset() {
	clear(r.victims)
	clear(r.projectiles)
	clear(r.awards)
}

// MarkVictim records a hit against victim in the current tick.
//
// Postcondition: returns false if victim was already marked this tick; the
// Nil handle is never debounced.
func (r *Registry) MarkVictim(victim Handle) bool {
	if victim.IsNil() {
		return true
	}
	if _, seen := r.victims[victim]; seen {
		return false
	}
	r.victims[victim] = struct{}{}
	return true
}

// VictimMarked reports whether victim was hit this tick.
func (r *Registry) VictimMarked(victim Handle) bool {
	_, ok := r.victims[victim]
	return ok
}

// ProjectileCoolingDown reports whether projectile exploded within the cooldown window.
func (r *Registry) ProjectileCoolingDown(projectile Handle) bool {
	_, ok := r.projectiles[projectile]
	return ok
}

// StartProjectileCooldown begins (or restarts) the explosion cooldown of projectile.
func (r *Registry) StartProjectileCooldown(projectile Handle) {
	if projectile.IsNil() {
		return
	}
	r.projectiles[projectile] = r.cooldownTicks
}

// ProjectileCooldown returns the ticks left on projectile's cooldown, or 0.
func (r *Registry) ProjectileCooldown(projectile Handle) int {
	return r.projectiles[projectile]
}

// ClaimAward records that actor's one-shot reward is being granted.
//
// Postcondition: returns true exactly once per actor until it is swept.
func (r *Registry) ClaimAward(actor Handle) bool {
	if actor.IsNil() {
		return false
	}
	if _, done := r.awards[actor]; done {
		return false
	}
	r.awards[actor] = struct{}{}
	return true
}

// Awarded reports whether actor's reward has been claimed.
func (r *Registry) Awarded(actor Handle) bool {
	_, ok := r.awards[actor]
	return ok
}

// SweepAwards forgets the awards of actors for which alive returns false.
//
// Postcondition: returns the number of entries removed.
func (r *Registry) SweepAwards(alive func(Handle) bool) int {
	removed := 0
	for h := range r.awards {
		if !alive(h) {
			delete(r.awards, h)
			removed++
		}
	}
	return removed
}

// Sizes returns the entry count of the victim, projectile and award tables.
func (r *Registry) Sizes() (victims, projectiles, awards int) {
	return len(r.victims), len(r.projectiles), len(r.awards)
}
