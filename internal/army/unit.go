package army

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/hexwar/internal/profile"
	"github.com/talgya/hexwar/internal/world"
)

// Location is where a unit stands: a hex for troops, a hex side for formations.
type Location struct {
	Hex    world.HexCoord `json:"hex"`
	Side   world.SideKey  `json:"side"`
	OnSide bool           `json:"onSide"`
}

// AtHex locates a troop on a hex.
func AtHex(c world.HexCoord) Location {
	return Location{Hex: c}
}

// AtSide locates a formation on the side between two adjacent hexes.
func AtSide(a, b world.HexCoord) (Location, error) {
	key, ok := world.SideKeyOf(a, b)
	if !ok {
		return Location{}, fmt.Errorf("hexes %s and %s are not adjacent", a, b)
	}
	return Location{Hex: key.A, Side: key, OnSide: true}, nil
}

// Hexes returns the one or two hexes the location covers.
func (l Location) Hexes() []world.HexCoord {
	if l.OnSide {
		return []world.HexCoord{l.Side.A, l.Side.B}
	}
	return []world.HexCoord{l.Hex}
}

// Covers reports whether the location includes c.
func (l Location) Covers(c world.HexCoord) bool {
	for _, h := range l.Hexes() {
		if world.Similar(h, c) {
			return true
		}
	}
	return false
}

func (l Location) String() string {
	if l.OnSide {
		return fmt.Sprintf("%s|%s", l.Side.A, l.Side.B)
	}
	return l.Hex.String()
}

// Unit is one piece on the board.
type Unit struct {
	id     uuid.UUID
	utype  *UnitType
	wing   *Wing
	steps  int
	loc    Location
	onMap  bool
	angle  int
	status Status
}

type unitState struct {
	steps  int
	loc    Location
	onMap  bool
	angle  int
	status Status
}

// NewUnit creates an off-map unit of the given type for wing w. The unit does
// not join the wing until it is appended to it.
func NewUnit(t *UnitType, w *Wing, steps int) *Unit {
	return newUnit(uuid.New(), t, w, steps)
}

func newUnit(id uuid.UUID, t *UnitType, w *Wing, steps int) *Unit {
	mustHold(t != nil, "NewUnit", "nil unit type")
	mustHold(w != nil, "NewUnit", "nil wing")
	u := &Unit{id: id, utype: t, wing: w}
	u.SetSteps(steps)
	return u
}

func (u *Unit) ID() uuid.UUID      { return u.id }
func (u *Unit) Type() *UnitType    { return u.utype }
func (u *Unit) Wing() *Wing        { return u.wing }
func (u *Unit) Kind() UnitKind     { return u.utype.kind }
func (u *Unit) IsFormation() bool  { return u.utype.kind == Formation }
func (u *Unit) IsCharacter() bool  { return u.utype.IsCharacter() }
func (u *Unit) Steps() int         { return u.steps }
func (u *Unit) Location() Location { return u.loc }
func (u *Unit) OnMap() bool        { return u.onMap }
func (u *Unit) Angle() int         { return u.angle }
func (u *Unit) Status() Status     { return u.status }

// Profiles returns the profiles matching the unit's remaining steps.
func (u *Unit) Profiles() profile.Profiles {
	return u.utype.Profiles(u.steps)
}

// CanSetSteps reports whether n is a valid step count for the unit's type.
func (u *Unit) CanSetSteps(n int) bool {
	return n >= 1 && n <= u.utype.MaxSteps()
}

func (u *Unit) SetSteps(n int) {
	mustHold(u.CanSetSteps(n), "SetSteps", fmt.Sprintf("%s has steps 1..%d, got %d", u.utype.name, u.utype.MaxSteps(), n))
	u.steps = n
}

// CanPlace reports whether loc has the right shape for the unit's kind.
func (u *Unit) CanPlace(loc Location) bool {
	return loc.OnSide == u.IsFormation()
}

// Place puts the unit on the board at loc facing angle.
func (u *Unit) Place(loc Location, angle int) {
	mustHold(u.CanPlace(loc), "Place", fmt.Sprintf("%s cannot stand on %s", u.utype.kind, loc))
	u.loc = loc
	u.onMap = true
	u.SetAngle(angle)
}

// Lift takes the unit off the board.
func (u *Unit) Lift() {
	u.onMap = false
}

// SetAngle sets the facing, normalised to [0,360).
func (u *Unit) SetAngle(angle int) {
	u.angle = ((angle % 360) + 360) % 360
}

// Status queries. Exactly one query per axis holds at a time.

func (u *Unit) IsTired() bool               { return u.status.Tiredness == Tired }
func (u *Unit) IsExhausted() bool           { return u.status.Tiredness == Exhausted }
func (u *Unit) IsGoodOrder() bool           { return u.status.Cohesion == GoodOrder }
func (u *Unit) IsDisrupted() bool           { return u.status.Cohesion == Disrupted }
func (u *Unit) IsRouted() bool              { return u.status.Cohesion == Routed }
func (u *Unit) AreMunitionsScarce() bool    { return u.status.Munitions == MunitionsScarce }
func (u *Unit) AreMunitionsExhausted() bool { return u.status.Munitions == MunitionsExhausted }
func (u *Unit) IsEngaging() bool            { return u.status.Engaging }
func (u *Unit) IsCharging() bool            { return u.status.Charging == Charging }
func (u *Unit) HasReceivedOrder() bool      { return u.status.OrderReceived }
func (u *Unit) IsPlayed() bool              { return u.status.Played }

func (u *Unit) Tiredness() Tiredness { return u.status.Tiredness }
func (u *Unit) Cohesion() Cohesion   { return u.status.Cohesion }
func (u *Unit) Munitions() Munitions { return u.status.Munitions }

// Guards. A mutator may only be called when its guard holds.

// CanSetTiredness refuses exhaustion while charging.
func (u *Unit) CanSetTiredness(t Tiredness) bool {
	return t.Valid() && !(t == Exhausted && u.IsCharging())
}

// CanSetCohesion refuses a rout while engaging or charging, and disorder while
// charging.
func (u *Unit) CanSetCohesion(c Cohesion) bool {
	if !c.Valid() {
		return false
	}
	switch c {
	case Routed:
		return !u.IsEngaging() && !u.IsCharging()
	case Disrupted:
		return !u.IsCharging()
	}
	return true
}

func (u *Unit) CanSetMunitions(m Munitions) bool { return m.Valid() }

// CanEngage reports whether the unit may start engaging.
func (u *Unit) CanEngage() bool { return !u.IsRouted() }

// CanCharge reports whether the unit may start charging. Tired units may.
func (u *Unit) CanCharge() bool { return u.IsGoodOrder() && !u.IsExhausted() }

func (u *Unit) SetTiredness(t Tiredness) {
	mustHold(u.CanSetTiredness(t), "SetTiredness", fmt.Sprintf("%s while %s", t, u.status.Charging))
	u.status.Tiredness = t
}

func (u *Unit) SetCohesion(c Cohesion) {
	mustHold(u.CanSetCohesion(c), "SetCohesion", fmt.Sprintf("%s while engaging=%t charging=%t", c, u.IsEngaging(), u.IsCharging()))
	u.status.Cohesion = c
}

func (u *Unit) SetMunitions(m Munitions) {
	mustHold(u.CanSetMunitions(m), "SetMunitions", fmt.Sprintf("invalid munitions %d", m))
	u.status.Munitions = m
}

// SetEngaging starts or stops engagement. Stopping is always allowed.
func (u *Unit) SetEngaging(engaging bool) {
	if engaging {
		mustHold(u.CanEngage(), "SetEngaging", "unit is routed")
	}
	u.status.Engaging = engaging
}

// SetCharging starts or stops a charge. Stopping is always allowed.
func (u *Unit) SetCharging(c ChargeState) {
	mustHold(c.Valid(), "SetCharging", fmt.Sprintf("invalid charge state %d", c))
	if c == Charging {
		mustHold(u.CanCharge(), "SetCharging", fmt.Sprintf("unit is %s and %s", u.status.Cohesion, u.status.Tiredness))
	}
	u.status.Charging = c
}

func (u *Unit) ReceivesOrder(received bool) {
	u.status.OrderReceived = received
}

// SetPlayed marks the unit's activation. Clearing it also clears the order.
func (u *Unit) SetPlayed(played bool) {
	u.status.Played = played
	if !played {
		u.status.OrderReceived = false
	}
}

// Snapshot captures the mutable state of the unit.
func (u *Unit) Snapshot() any {
	return unitState{steps: u.steps, loc: u.loc, onMap: u.onMap, angle: u.angle, status: u.status}
}

// Restore puts back a state captured by Snapshot.
func (u *Unit) Restore(snapshot any) {
	s := snapshot.(unitState)
	u.steps, u.loc, u.onMap, u.angle, u.status = s.steps, s.loc, s.onMap, s.angle, s.status
}

func (u *Unit) String() string {
	where := "off map"
	if u.onMap {
		where = fmt.Sprintf("at %s facing %d", u.loc, u.angle)
	}
	return fmt.Sprintf("%s %s [%d/%d] %s", u.utype.name, u.id.String()[:8], u.steps, u.utype.MaxSteps(), where)
}
