package material

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModifierID names a gameplay effect granted by a material.
type ModifierID int

const (
	// ModifierExplosion detonates at the point of impact.
	ModifierExplosion ModifierID = iota + 1
	// ModifierFreeze freezes the victim, or shatters an already-frozen one.
	ModifierFreeze
	// ModifierStun briefly stuns ordinary enemies.
	ModifierStun
	// ModifierKnockback pushes the victim away from the attacker.
	ModifierKnockback
	// ModifierMegaStun is a stun that also affects bosses.
	ModifierMegaStun
	// ModifierHammerize gives the weapon hammer-like damage and prop-breaking hitboxes.
	ModifierHammerize
	// ModifierPoundUp launches nearby victims upward on a ground pound.
	ModifierPoundUp
)

// MinLevel and MaxLevel bound every modifier grant.
const (
	MinLevel = 1
	MaxLevel = 3
)

var modifierNames = map[ModifierID]string{
	ModifierExplosion: "explosion",
	ModifierFreeze:    "freeze",
	ModifierStun:      "stun",
	ModifierKnockback: "knockback",
	ModifierMegaStun:  "mega_stun",
	ModifierHammerize: "hammerize",
	ModifierPoundUp:   "pound_up",
}

// AllModifiers returns every known modifier in resolution order.
func AllModifiers() []ModifierID {
	return []ModifierID{
		ModifierExplosion,
		ModifierFreeze,
		ModifierStun,
		ModifierKnockback,
		ModifierMegaStun,
		ModifierHammerize,
		ModifierPoundUp,
	}
}

// String returns the snake_case name of m, or "modifier(N)" for unknown values.
func (m ModifierID) String() string {
	if name, ok := modifierNames[m]; ok {
		return name
	}
	return fmt.Sprintf("modifier(%d)", int(m))
}

// Valid reports whether m is a known modifier.
func (m ModifierID) Valid() bool {
	_, ok := modifierNames[m]
	return ok
}

// ParseModifier resolves a snake_case modifier name.
//
// Postcondition: returns a valid ModifierID or a non-nil error.
func ParseModifier(name string) (ModifierID, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for id, n := range modifierNames {
		if n == needle {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown modifier %q", name)
}

// MarshalYAML encodes m by name.
func (m ModifierID) MarshalYAML() (interface{}, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", m)
	}
	return m.String(), nil
}

// UnmarshalYAML decodes a modifier name.
func (m *ModifierID) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	id, err := ParseModifier(name)
	if err != nil {
		return err
	}
	*m = id
	return nil
}
