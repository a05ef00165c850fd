package actuator

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/talgya/hexwar/internal/army"
	"github.com/talgya/hexwar/internal/editor"
	"github.com/talgya/hexwar/internal/profile"
	"github.com/talgya/hexwar/internal/world"
)

// Feedback describes what entering a target would cost.
type Feedback struct {
	Target  Target       `json:"target"`
	Cost    profile.Cost `json:"cost"`
	Allowed bool         `json:"allowed"`
}

// RotationFeedback describes a prospective facing change.
type RotationFeedback struct {
	Angle int          `json:"angle"`
	Cost  profile.Cost `json:"cost"`
}

// CreationActuator places new units of one type for one wing.
type CreationActuator struct {
	base
	session *editor.Session
	layout  world.Layout
	wing    *army.Wing
	utype   *army.UnitType
	steps   int
}

// NewCreationActuator opens a creation for units of t with the given steps.
func NewCreationActuator(s *editor.Session, l world.Layout, w *army.Wing, t *army.UnitType, steps int) (*CreationActuator, error) {
	if steps < 1 || steps > t.MaxSteps() {
		return nil, fmt.Errorf("%s has steps 1..%d, got %d", t.Name(), t.MaxSteps(), steps)
	}
	return &CreationActuator{session: s, layout: l, wing: w, utype: t, steps: steps}, nil
}

func (a *CreationActuator) Name() string { return "create" }

// Targets lists every hex, or every hex side for formations, with the cost of
// standing there.
func (a *CreationActuator) Targets() []Feedback {
	mp := a.utype.Profiles(a.steps).Move
	m := a.session.Map
	var out []Feedback
	for _, c := range sortedCoords(m) {
		if a.utype.Kind() == army.Troop {
			out = append(out, feedbackFor(mp, m, HexTarget(c), world.HexSide{}, false))
			continue
		}
		for _, dir := range []int{0, 60, 120} {
			n := c.Toward(dir)
			if m.Get(n) != nil {
				out = append(out, feedbackFor(mp, m, SideTarget(c, n), world.HexSide{}, false))
			}
		}
	}
	return out
}

// Place creates a unit on t facing the pointer, as one undo step.
func (a *CreationActuator) Place(t Target, pointer world.Point) (*army.Unit, error) {
	if err := a.check(t); err != nil {
		return nil, err
	}
	angle, err := facing(t, a.layout, a.session.Map, pointer)
	if err != nil {
		return nil, err
	}
	return a.place(t, angle)
}

// PlaceFacing creates a unit on t with an explicit facing.
func (a *CreationActuator) PlaceFacing(t Target, angle int) (*army.Unit, error) {
	if err := a.check(t); err != nil {
		return nil, err
	}
	angle, err := checkFacing(t, a.session.Map, angle)
	if err != nil {
		return nil, err
	}
	return a.place(t, angle)
}

func (a *CreationActuator) check(t Target) error {
	if a.Closed() {
		return ErrClosed
	}
	return checkTarget(a.session.Map, a.utype.Kind(), t)
}

func (a *CreationActuator) place(t Target, angle int) (*army.Unit, error) {
	loc, err := t.Location()
	if err != nil {
		return nil, err
	}
	u := a.session.CreateUnit(a.wing, a.utype, a.steps)
	a.session.AppendToMap(u, loc, angle)
	a.Close()
	return u, nil
}

// MoveActuator moves one unit already on the map.
type MoveActuator struct {
	base
	session *editor.Session
	layout  world.Layout
	unit    *army.Unit
}

// NewMoveActuator opens a move for u.
func NewMoveActuator(s *editor.Session, l world.Layout, u *army.Unit) (*MoveActuator, error) {
	if !u.OnMap() {
		return nil, fmt.Errorf("%s is not on the map", u)
	}
	return &MoveActuator{session: s, layout: l, unit: u}, nil
}

func (a *MoveActuator) Name() string { return "move" }

// Feedback combines the cost of the target ground with the cost of the side
// crossed to reach it, and tells whether a fresh activation could afford it.
func (a *MoveActuator) Feedback(t Target) Feedback {
	mp := a.unit.Profiles().Move
	m := a.session.Map
	if t.Side {
		return feedbackFor(mp, m, t, world.HexSide{}, false)
	}
	from := a.unit.Location().Hex
	if side := m.Side(from, t.Hex); side != nil {
		return feedbackFor(mp, m, t, *side, true)
	}
	return feedbackFor(mp, m, t, world.HexSide{}, false)
}

// Commit moves the unit to t facing the pointer, as one undo step.
func (a *MoveActuator) Commit(t Target, pointer world.Point) error {
	if err := a.check(t); err != nil {
		return err
	}
	angle, err := facing(t, a.layout, a.session.Map, pointer)
	if err != nil {
		return err
	}
	return a.move(t, angle)
}

// CommitFacing moves the unit to t with an explicit facing.
func (a *MoveActuator) CommitFacing(t Target, angle int) error {
	if err := a.check(t); err != nil {
		return err
	}
	angle, err := checkFacing(t, a.session.Map, angle)
	if err != nil {
		return err
	}
	return a.move(t, angle)
}

func (a *MoveActuator) check(t Target) error {
	if a.Closed() {
		return ErrClosed
	}
	return checkTarget(a.session.Map, a.unit.Kind(), t)
}

func (a *MoveActuator) move(t Target, angle int) error {
	loc, err := t.Location()
	if err != nil {
		return err
	}
	a.session.MoveUnit(a.unit, loc, angle)
	a.Close()
	return nil
}

// RotateActuator turns one unit in place.
type RotateActuator struct {
	base
	session *editor.Session
	layout  world.Layout
	unit    *army.Unit
}

// NewRotateActuator opens a rotation for u.
func NewRotateActuator(s *editor.Session, l world.Layout, u *army.Unit) (*RotateActuator, error) {
	if !u.OnMap() {
		return nil, fmt.Errorf("%s is not on the map", u)
	}
	return &RotateActuator{session: s, layout: l, unit: u}, nil
}

func (a *RotateActuator) Name() string { return "rotate" }

func (a *RotateActuator) target() Target {
	loc := a.unit.Location()
	if loc.OnSide {
		return SideTarget(loc.Side.A, loc.Side.B)
	}
	return HexTarget(loc.Hex)
}

// Feedback returns the facing the pointer selects and what turning to it costs.
func (a *RotateActuator) Feedback(pointer world.Point) (RotationFeedback, error) {
	angle, err := facing(a.target(), a.layout, a.session.Map, pointer)
	if err != nil {
		return RotationFeedback{}, err
	}
	return RotationFeedback{Angle: angle, Cost: a.cost(angle)}, nil
}

func (a *RotateActuator) cost(angle int) profile.Cost {
	delta := float64(angle - a.unit.Angle())
	mp := a.unit.Profiles().Move
	if a.unit.IsFormation() {
		if profile.NormalizeAngle(delta) == 0 {
			return profile.AddCost(0)
		}
		return mp.FormationRotationCost(delta)
	}
	return mp.RotationCost(delta)
}

// Commit turns the unit toward the pointer, as one undo step.
func (a *RotateActuator) Commit(pointer world.Point) error {
	if a.Closed() {
		return ErrClosed
	}
	angle, err := facing(a.target(), a.layout, a.session.Map, pointer)
	if err != nil {
		return err
	}
	a.session.RotateUnit(a.unit, angle)
	a.Close()
	return nil
}

// CommitFacing turns the unit to an explicit facing.
func (a *RotateActuator) CommitFacing(angle int) error {
	if a.Closed() {
		return ErrClosed
	}
	angle, err := checkFacing(a.target(), a.session.Map, angle)
	if err != nil {
		return err
	}
	a.session.RotateUnit(a.unit, angle)
	a.Close()
	return nil
}

// checkTarget refuses targets off the map or of the wrong shape for kind.
func checkTarget(m *world.Map, kind army.UnitKind, t Target) error {
	if t.Side != (kind == army.Formation) {
		return fmt.Errorf("a %s cannot stand on %s", kind, t)
	}
	if m.Get(t.Hex) == nil {
		return fmt.Errorf("%s is off the map", t.Hex)
	}
	if t.Side && m.Get(t.Other) == nil {
		return fmt.Errorf("%s is off the map", t.Other)
	}
	return nil
}

// feedbackFor prices t for mp. When crossing is set, the cost of crossing
// that side is folded in.
func feedbackFor(mp *profile.MoveProfile, m *world.Map, t Target, crossed world.HexSide, crossing bool) Feedback {
	cost := groundCost(mp, m, t)
	if crossing {
		cost = profile.StepCost(cost, mp.MovementCostOnHexSide(&crossed))
	}
	return Feedback{Target: t, Cost: cost, Allowed: profile.NewBudget(mp.MovementPoints()).CanEnter(cost)}
}

// groundCost is the cost of the target hex, or for a side the worse of its two
// hexes combined with the side itself.
func groundCost(mp *profile.MoveProfile, m *world.Map, t Target) profile.Cost {
	hex := m.Get(t.Hex)
	if hex == nil {
		return profile.ImpassableCost()
	}
	cost := mp.MovementCostOnHex(hex)
	if !t.Side {
		return cost
	}
	other := m.Get(t.Other)
	side := m.Side(t.Hex, t.Other)
	if other == nil || side == nil {
		return profile.ImpassableCost()
	}
	cost = worse(cost, mp.MovementCostOnHex(other))
	return profile.StepCost(cost, mp.MovementCostOnHexSide(side))
}

func worse(a, b profile.Cost) profile.Cost {
	rank := func(c profile.Cost) int {
		switch c.Kind {
		case profile.Impassable:
			return 2
		case profile.MinimalMove:
			return 1
		}
		return 0
	}
	if ra, rb := rank(a), rank(b); ra != rb {
		if ra > rb {
			return a
		}
		return b
	}
	if b.Value > a.Value {
		return b
	}
	return a
}

func sortedCoords(m *world.Map) []world.HexCoord {
	coords := make([]world.HexCoord, 0, len(m.Hexes))
	for c := range m.Hexes {
		coords = append(coords, c)
	}
	slices.SortFunc(coords, func(a, b world.HexCoord) int {
		return cmp.Or(cmp.Compare(a.Q, b.Q), cmp.Compare(a.R, b.R))
	})
	return coords
}
