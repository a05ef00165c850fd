package profile

import (
	"fmt"
	"strings"
)

// WeaponKind selects the base combat figures of a weapon profile.
type WeaponKind uint8

const (
	LightWeapon WeaponKind = iota
	HeavyWeapon
	HordeWeapon
	LanceWeapon
	CrossbowWeapon
	numWeaponKinds
)

var weaponKindNames = [numWeaponKinds]string{"light", "heavy", "horde", "lance", "crossbow"}

func (k WeaponKind) String() string {
	if k >= numWeaponKinds {
		return fmt.Sprintf("WeaponKind(%d)", uint8(k))
	}
	return weaponKindNames[k]
}

// ParseWeaponKind resolves a weapon kind name (case-insensitive).
func ParseWeaponKind(name string) (WeaponKind, error) {
	for i, n := range weaponKindNames {
		if strings.EqualFold(n, name) {
			return WeaponKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weapon kind %q", name)
}

type weaponBase struct {
	attack, defense, strength, rng int
}

var weaponBases = [numWeaponKinds]weaponBase{
	LightWeapon:    {attack: 1, defense: 1, strength: 1},
	HeavyWeapon:    {attack: 2, defense: 2, strength: 2},
	HordeWeapon:    {attack: 1, defense: 0, strength: 1},
	LanceWeapon:    {attack: 3, defense: 1, strength: 3},
	CrossbowWeapon: {attack: 1, defense: 1, strength: 2, rng: 3},
}

// WeaponProfile rates a unit's armament.
type WeaponProfile struct {
	kind             WeaponKind
	capacity         Capacity
	rangeModifier    int
	strengthModifier int
}

// NewWeaponProfile builds a weapon profile; invalid input panics.
func NewWeaponProfile(kind WeaponKind, c Capacity, rangeMod, strengthMod int) *WeaponProfile {
	if kind >= numWeaponKinds {
		panic(fmt.Sprintf("profile: invalid weapon kind %d", uint8(kind)))
	}
	mustCapacity(c)
	return &WeaponProfile{kind: kind, capacity: c, rangeModifier: rangeMod, strengthModifier: strengthMod}
}

func (w *WeaponProfile) Kind() WeaponKind      { return w.kind }
func (w *WeaponProfile) Capacity() Capacity    { return w.capacity }
func (w *WeaponProfile) RangeModifier() int    { return w.rangeModifier }
func (w *WeaponProfile) StrengthModifier() int { return w.strengthModifier }
func (w *WeaponProfile) Attack() int           { return weaponBases[w.kind].attack + int(w.capacity) }
func (w *WeaponProfile) Defense() int          { return weaponBases[w.kind].defense + int(w.capacity) }
func (w *WeaponProfile) Strength() int         { return weaponBases[w.kind].strength + w.strengthModifier }

// Range returns the firing range in hexes; 0 for melee-only weapons.
func (w *WeaponProfile) Range() int {
	base := weaponBases[w.kind].rng
	if base == 0 {
		return 0
	}
	return base + w.rangeModifier
}

func (w *WeaponProfile) String() string {
	return fmt.Sprintf("%s weapon (%s)", w.kind, w.capacity)
}

// CommandKind distinguishes disciplined from tribal leadership.
type CommandKind uint8

const (
	RegularCommand CommandKind = iota
	IrregularCommand
)

func (k CommandKind) String() string {
	if k == IrregularCommand {
		return "irregular"
	}
	return "regular"
}

// ParseCommandKind resolves a command kind name (case-insensitive).
func ParseCommandKind(name string) (CommandKind, error) {
	for _, k := range []CommandKind{RegularCommand, IrregularCommand} {
		if strings.EqualFold(k.String(), name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown command kind %q", name)
}

// CommandProfile rates a character's leadership.
type CommandProfile struct {
	kind     CommandKind
	capacity Capacity
	modifier int
}

// NewCommandProfile builds a command profile; invalid input panics.
func NewCommandProfile(kind CommandKind, c Capacity, modifier int) *CommandProfile {
	if kind > IrregularCommand {
		panic(fmt.Sprintf("profile: invalid command kind %d", uint8(kind)))
	}
	mustCapacity(c)
	return &CommandProfile{kind: kind, capacity: c, modifier: modifier}
}

func (p *CommandProfile) Kind() CommandKind  { return p.kind }
func (p *CommandProfile) Capacity() Capacity { return p.capacity }

// CommandLevel is the rating used for order distribution.
func (p *CommandProfile) CommandLevel() int {
	base := 3
	if p.kind == IrregularCommand {
		base = 2
	}
	return base + int(p.capacity) + p.modifier
}

func (p *CommandProfile) String() string {
	return fmt.Sprintf("%s command (%s)", p.kind, p.capacity)
}

// MoralKind distinguishes the two morale qualities.
type MoralKind uint8

const (
	EliteMoral MoralKind = iota
	ExaltedMoral
)

func (k MoralKind) String() string {
	if k == ExaltedMoral {
		return "exalted"
	}
	return "elite"
}

// ParseMoralKind resolves a moral kind name (case-insensitive).
func ParseMoralKind(name string) (MoralKind, error) {
	for _, k := range []MoralKind{EliteMoral, ExaltedMoral} {
		if strings.EqualFold(k.String(), name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown moral kind %q", name)
}

// MoralProfile rates a unit's resolve.
type MoralProfile struct {
	kind     MoralKind
	capacity Capacity
	modifier int
}

// NewMoralProfile builds a moral profile; invalid input panics.
func NewMoralProfile(kind MoralKind, c Capacity, modifier int) *MoralProfile {
	if kind > ExaltedMoral {
		panic(fmt.Sprintf("profile: invalid moral kind %d", uint8(kind)))
	}
	mustCapacity(c)
	return &MoralProfile{kind: kind, capacity: c, modifier: modifier}
}

func (p *MoralProfile) Kind() MoralKind    { return p.kind }
func (p *MoralProfile) Capacity() Capacity { return p.capacity }

// MoralLevel is the rating used for rally and rout checks.
func (p *MoralProfile) MoralLevel() int {
	base := 3
	if p.kind == ExaltedMoral {
		base = 4
	}
	return base + int(p.capacity) + p.modifier
}

func (p *MoralProfile) String() string {
	return fmt.Sprintf("%s moral (%s)", p.kind, p.capacity)
}

// MagicProfile rates a wizard's arcane power.
type MagicProfile struct {
	capacity Capacity
	modifier int
}

// NewArcaneMagicProfile builds the arcane magic profile; invalid input panics.
func NewArcaneMagicProfile(c Capacity, modifier int) *MagicProfile {
	mustCapacity(c)
	return &MagicProfile{capacity: c, modifier: modifier}
}

func (p *MagicProfile) Capacity() Capacity { return p.capacity }

// ArtLevel is the rating used for spell casting.
func (p *MagicProfile) ArtLevel() int {
	return 2 + int(p.capacity) + p.modifier
}

func (p *MagicProfile) String() string {
	return fmt.Sprintf("arcane magic (%s)", p.capacity)
}

// Profiles bundles the profiles a unit type carries at one step level.
// Only Move is mandatory.
type Profiles struct {
	Move    *MoveProfile
	Weapon  *WeaponProfile
	Command *CommandProfile
	Moral   *MoralProfile
	Magic   *MagicProfile
}
