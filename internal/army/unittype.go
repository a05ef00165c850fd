// Package army models the forces on the battlefield: unit archetypes, the
// units built from them, their status and the wings that command them.
package army

import (
	"errors"
	"fmt"

	"github.com/talgya/hexwar/internal/profile"
)

// UnitKind separates single-hex troops from formations standing on a hex side.
type UnitKind uint8

const (
	Troop UnitKind = iota
	Formation
)

func (k UnitKind) String() string {
	if k == Formation {
		return "formation"
	}
	return "troop"
}

// ParseUnitKind resolves "troop" or "formation".
func ParseUnitKind(name string) (UnitKind, error) {
	switch name {
	case "troop", "":
		return Troop, nil
	case "formation":
		return Formation, nil
	}
	return 0, fmt.Errorf("unknown unit kind %q", name)
}

// UnitType is the static archetype shared by every unit of that type. Level i
// holds the profiles of a unit with i+1 steps remaining.
type UnitType struct {
	name           string
	kind           UnitKind
	levels         []profile.Profiles
	troopPaths     []string
	formationPaths []string
}

// NewUnitType validates and builds an archetype.
func NewUnitType(name string, kind UnitKind, levels []profile.Profiles, troopPaths, formationPaths []string) (*UnitType, error) {
	if name == "" {
		return nil, errors.New("unit type has no name")
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("unit type %s: no step levels", name)
	}
	for i, l := range levels {
		if l.Move == nil {
			return nil, fmt.Errorf("unit type %s: level %d has no move profile", name, i+1)
		}
	}
	if kind == Formation && len(formationPaths) == 0 {
		return nil, fmt.Errorf("unit type %s: formation without formation paths", name)
	}
	return &UnitType{
		name:           name,
		kind:           kind,
		levels:         append([]profile.Profiles(nil), levels...),
		troopPaths:     append([]string(nil), troopPaths...),
		formationPaths: append([]string(nil), formationPaths...),
	}, nil
}

func (t *UnitType) Name() string   { return t.name }
func (t *UnitType) Kind() UnitKind { return t.kind }
func (t *UnitType) MaxSteps() int  { return len(t.levels) }

// TroopPaths returns the display paths used for troops of this type.
func (t *UnitType) TroopPaths() []string { return append([]string(nil), t.troopPaths...) }

// FormationPaths returns the display paths used for formations of this type.
func (t *UnitType) FormationPaths() []string { return append([]string(nil), t.formationPaths...) }

// Profiles returns the profile bundle of a unit with the given remaining steps.
func (t *UnitType) Profiles(steps int) profile.Profiles {
	mustHold(steps >= 1 && steps <= len(t.levels), "Profiles",
		fmt.Sprintf("%s has steps 1..%d, got %d", t.name, len(t.levels), steps))
	return t.levels[steps-1]
}

// IsCharacter reports whether the type carries command or magic at any level.
// Only characters may lead a wing.
func (t *UnitType) IsCharacter() bool {
	for _, l := range t.levels {
		if l.Command != nil || l.Magic != nil {
			return true
		}
	}
	return false
}

func (t *UnitType) String() string {
	return fmt.Sprintf("%s (%s, %d steps)", t.name, t.kind, len(t.levels))
}
