package army

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/hexwar/internal/profile"
)

// Catalog is the ordered set of unit types available to an army.
type Catalog struct {
	types   map[string]*UnitType
	ordered []*UnitType
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{types: make(map[string]*UnitType)}
}

// Add registers t. Names are unique.
func (c *Catalog) Add(t *UnitType) error {
	if _, ok := c.types[t.name]; ok {
		return fmt.Errorf("duplicate unit type %q", t.name)
	}
	c.types[t.name] = t
	c.ordered = append(c.ordered, t)
	return nil
}

// Get returns the named type, or nil.
func (c *Catalog) Get(name string) *UnitType { return c.types[name] }

// Len returns the number of registered types.
func (c *Catalog) Len() int { return len(c.ordered) }

// Types returns the types in registration order.
func (c *Catalog) Types() []*UnitType {
	return append([]*UnitType(nil), c.ordered...)
}

// Names returns the type names in registration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.ordered))
	for i, t := range c.ordered {
		names[i] = t.name
	}
	return names
}

// Army definition file layout.

type catalogFile struct {
	UnitTypes []unitTypeDef `yaml:"unit_types"`
}

type unitTypeDef struct {
	Name           string     `yaml:"name"`
	Kind           string     `yaml:"kind"`
	TroopPaths     []string   `yaml:"troop_paths"`
	FormationPaths []string   `yaml:"formation_paths"`
	Levels         []levelDef `yaml:"levels"`
}

type levelDef struct {
	Move    *ratedDef  `yaml:"move"`
	Weapon  *weaponDef `yaml:"weapon"`
	Command *ratedDef  `yaml:"command"`
	Moral   *ratedDef  `yaml:"moral"`
	Magic   *ratedDef  `yaml:"magic"`
}

// ratedDef is a profile kind with its capacity and an optional modifier.
type ratedDef struct {
	Kind     string `yaml:"kind"`
	Capacity string `yaml:"capacity"`
	Modifier int    `yaml:"modifier"`
}

type weaponDef struct {
	Kind     string `yaml:"kind"`
	Capacity string `yaml:"capacity"`
	Range    int    `yaml:"range"`
	Strength int    `yaml:"strength"`
}

// LoadCatalog parses a YAML army definition. Unknown names of any kind are
// reported as errors.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse army definition: %w", err)
	}
	if len(f.UnitTypes) == 0 {
		return nil, errors.New("army definition declares no unit types")
	}

	c := NewCatalog()
	for _, def := range f.UnitTypes {
		t, err := def.build()
		if err != nil {
			return nil, err
		}
		if err := c.Add(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadCatalogFile reads an army definition from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read army definition: %w", err)
	}
	c, err := LoadCatalog(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (d unitTypeDef) build() (*UnitType, error) {
	kind, err := ParseUnitKind(d.Kind)
	if err != nil {
		return nil, fmt.Errorf("unit type %s: %w", d.Name, err)
	}
	levels := make([]profile.Profiles, len(d.Levels))
	for i, l := range d.Levels {
		p, err := l.build()
		if err != nil {
			return nil, fmt.Errorf("unit type %s level %d: %w", d.Name, i+1, err)
		}
		levels[i] = p
	}
	return NewUnitType(d.Name, kind, levels, d.TroopPaths, d.FormationPaths)
}

func (l levelDef) build() (profile.Profiles, error) {
	var p profile.Profiles
	if l.Move == nil {
		return p, errors.New("missing move profile")
	}

	loco, err := profile.ParseLocomotion(l.Move.Kind)
	if err != nil {
		return p, err
	}
	c, err := parseCapacity(l.Move.Capacity)
	if err != nil {
		return p, err
	}
	p.Move = profile.NewMoveProfile(loco, c)

	if l.Weapon != nil {
		kind, err := profile.ParseWeaponKind(l.Weapon.Kind)
		if err != nil {
			return p, err
		}
		c, err := parseCapacity(l.Weapon.Capacity)
		if err != nil {
			return p, err
		}
		p.Weapon = profile.NewWeaponProfile(kind, c, l.Weapon.Range, l.Weapon.Strength)
	}
	if l.Command != nil {
		kind, err := profile.ParseCommandKind(l.Command.Kind)
		if err != nil {
			return p, err
		}
		c, err := parseCapacity(l.Command.Capacity)
		if err != nil {
			return p, err
		}
		p.Command = profile.NewCommandProfile(kind, c, l.Command.Modifier)
	}
	if l.Moral != nil {
		kind, err := profile.ParseMoralKind(l.Moral.Kind)
		if err != nil {
			return p, err
		}
		c, err := parseCapacity(l.Moral.Capacity)
		if err != nil {
			return p, err
		}
		p.Moral = profile.NewMoralProfile(kind, c, l.Moral.Modifier)
	}
	if l.Magic != nil {
		if l.Magic.Kind != "" && l.Magic.Kind != "arcane" {
			return p, fmt.Errorf("unknown magic kind %q", l.Magic.Kind)
		}
		c, err := parseCapacity(l.Magic.Capacity)
		if err != nil {
			return p, err
		}
		p.Magic = profile.NewArcaneMagicProfile(c, l.Magic.Modifier)
	}
	return p, nil
}

// parseCapacity treats a missing capacity as NORMAL.
func parseCapacity(name string) (profile.Capacity, error) {
	if name == "" {
		return profile.Normal, nil
	}
	return profile.ParseCapacity(name)
}
