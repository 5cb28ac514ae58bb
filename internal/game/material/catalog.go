package material

import "fmt"

// Catalog is an immutable registry of material definitions.
//
// Lookups are a linear scan over an ordered table; the table holds tens of
// entries.
type Catalog struct {
	defs              []*Definition
	durabilityPercent int
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithDurabilityPercent scales every base durability by percent/100 when
// computing EffectiveBaseDurability.
//
// Precondition: percent >= 0.
func WithDurabilityPercent(percent int) Option {
	return func(c *Catalog) {
		c.durabilityPercent = percent
	}
}

// NewCatalog builds a Catalog from defs.
//
// Postcondition: returns a Catalog containing every definition in defs, or an
// error if any definition is invalid or an ID is registered twice.
func NewCatalog(defs []*Definition, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		defs:              make([]*Definition, 0, len(defs)),
		durabilityPercent: 100,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.durabilityPercent < 0 {
		return nil, fmt.Errorf("material: NewCatalog: durability percent must be >= 0, got %d", c.durabilityPercent)
	}
	seen := make(map[ID]bool, len(defs))
	for _, d := range defs {
		if d == nil {
			return nil, fmt.Errorf("material: NewCatalog: nil definition")
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("material: NewCatalog: %q: %w", d.Name, err)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("material: NewCatalog: material ID %d already registered", d.ID)
		}
		seen[d.ID] = true
		c.defs = append(c.defs, d.clone())
	}
	return c, nil
}

// DefaultCatalog returns a Catalog over DefaultDefinitions at 100% durability.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultDefinitions())
	if err != nil {
		panic("material: DefaultCatalog: " + err.Error())
	}
	return c
}

// LoadCatalog builds a Catalog from the YAML files in dir, or from
// DefaultDefinitions when dir is empty.
func LoadCatalog(dir string, opts ...Option) (*Catalog, error) {
	defs := DefaultDefinitions()
	if dir != "" {
		var err error
		if defs, err = LoadDirectory(dir); err != nil {
			return nil, fmt.Errorf("material: LoadCatalog: %w", err)
		}
	}
	return NewCatalog(defs, opts...)
}

// Definition returns a copy of the definition for id.
//
// Postcondition: ok is true iff id is registered; None is never registered.
func (c *Catalog) Definition(id ID) (*Definition, bool) {
	d, ok := c.lookup(id)
	if !ok {
		return nil, false
	}
	return d.clone(), true
}

func (c *Catalog) lookup(id ID) (*Definition, bool) {
	if id == None {
		return nil, false
	}
	for _, d := range c.defs {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// EffectiveBaseDurability returns the durability a fresh fusion of id starts
// with after the catalog's durability scaling.
//
// Postcondition: returns 0 for unknown ids; otherwise returns >= 0.
func (c *Catalog) EffectiveBaseDurability(id ID) int {
	d, ok := c.lookup(id)
	if !ok {
		return 0
	}
	return d.BaseDurability * c.durabilityPercent / 100
}

// All returns copies of the definitions in registration order.
func (c *Catalog) All() []*Definition {
	out := make([]*Definition, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.clone()
	}
	return out
}

// Name returns the display name of id, or "none" for None and unknown ids.
func (c *Catalog) Name(id ID) string {
	if d, ok := c.lookup(id); ok {
		return d.Name
	}
	return "none"
}
