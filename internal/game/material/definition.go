// Package material provides the static catalog of fusable materials and the
// modifiers each grants.
package material

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ID identifies a material. None (0) is reserved for "no material".
type ID int16

// None is the sentinel for an empty slot.
const None ID = 0

// Built-in material ids. Persisted saves refer to these values, so they must
// never be renumbered.
const (
	Rock ID = iota + 1
	Ice
	Bomb
	DekuNut
	GoronOre
	SparkCrystal
	BlueFireShard
	BombchuHusk
	DekuStick
	MegatonShard
)

// Grant is one modifier granted by a material at a fixed level.
type Grant struct {
	Modifier ModifierID `yaml:"modifier"`
	Level    int        `yaml:"level"`
}

// Definition is the immutable description of one material.
type Definition struct {
	ID             ID      `yaml:"id"`
	Name           string  `yaml:"name"`
	BaseDurability int     `yaml:"base_durability"`
	Modifiers      []Grant `yaml:"modifiers"`
}

// Level reports the level at which d grants mod.
//
// Postcondition: ok is true iff d grants mod; level is in [MinLevel, MaxLevel] when ok.
func (d *Definition) Level(mod ModifierID) (level int, ok bool) {
	if d == nil {
		return 0, false
	}
	for _, g := range d.Modifiers {
		if g.Modifier == mod {
			return g.Level, true
		}
	}
	return 0, false
}

func (d *Definition) clone() *Definition {
	out := *d
	out.Modifiers = slices.Clone(d.Modifiers)
	return &out
}

// Validate checks that d satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *Definition) Validate() error {
	var errs []error
	if d.ID <= None {
		errs = append(errs, fmt.Errorf("ID must be > 0, got %d", d.ID))
	}
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if d.BaseDurability <= 0 {
		errs = append(errs, fmt.Errorf("BaseDurability must be > 0, got %d", d.BaseDurability))
	}
	seen := make(map[ModifierID]bool, len(d.Modifiers))
	for _, g := range d.Modifiers {
		if !g.Modifier.Valid() {
			errs = append(errs, fmt.Errorf("unknown modifier %d", int(g.Modifier)))
			continue
		}
		if g.Level < MinLevel || g.Level > MaxLevel {
			errs = append(errs, fmt.Errorf("%s level must be %d-%d, got %d", g.Modifier, MinLevel, MaxLevel, g.Level))
		}
		if seen[g.Modifier] {
			errs = append(errs, fmt.Errorf("modifier %s granted more than once", g.Modifier))
		}
		seen[g.Modifier] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("material validation failed: %v", errs)
	}
	return nil
}

// LoadDirectory reads every *.yaml and *.yml file in dir and parses each as a
// list of Definitions.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns all definitions in file-name order, or the first
// parse or validation error.
func LoadDirectory(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading material dir %q: %w", dir, err)
	}
	var defs []*Definition
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var file struct {
			Materials []*Definition `yaml:"materials"`
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		for _, d := range file.Materials {
			if d == nil {
				return nil, fmt.Errorf("invalid material in %q: empty entry", path)
			}
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("invalid material in %q: %w", path, err)
			}
			defs = append(defs, d)
		}
	}
	return defs, nil
}

// DefaultDefinitions returns the built-in material table.
func DefaultDefinitions() []*Definition {
	return []*Definition{
		{ID: Rock, Name: "Rock", BaseDurability: 20, Modifiers: []Grant{
			{ModifierKnockback, 1}, {ModifierHammerize, 1},
		}},
		{ID: Ice, Name: "Ice Chunk", BaseDurability: 15, Modifiers: []Grant{
			{ModifierFreeze, 2},
		}},
		{ID: Bomb, Name: "Bomb Flower", BaseDurability: 8, Modifiers: []Grant{
			{ModifierExplosion, 2},
		}},
		{ID: DekuNut, Name: "Deku Nut", BaseDurability: 12, Modifiers: []Grant{
			{ModifierStun, 1},
		}},
		{ID: GoronOre, Name: "Goron Ore", BaseDurability: 25, Modifiers: []Grant{
			{ModifierHammerize, 2}, {ModifierKnockback, 1},
		}},
		{ID: SparkCrystal, Name: "Spark Crystal", BaseDurability: 10, Modifiers: []Grant{
			{ModifierStun, 2}, {ModifierMegaStun, 1},
		}},
		{ID: BlueFireShard, Name: "Blue Fire Shard", BaseDurability: 10, Modifiers: []Grant{
			{ModifierExplosion, 1}, {ModifierFreeze, 3},
		}},
		{ID: BombchuHusk, Name: "Bombchu Husk", BaseDurability: 6, Modifiers: []Grant{
			{ModifierExplosion, 3}, {ModifierKnockback, 2},
		}},
		{ID: DekuStick, Name: "Deku Stick", BaseDurability: 5},
		{ID: MegatonShard, Name: "Megaton Shard", BaseDurability: 30, Modifiers: []Grant{
			{ModifierHammerize, 3}, {ModifierPoundUp, 2}, {ModifierKnockback, 2},
		}},
	}
}
