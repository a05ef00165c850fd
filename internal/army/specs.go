package army

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/hexwar/internal/world"
)

// UnitSpec is the plain record a unit is saved as.
type UnitSpec struct {
	ID            string      `json:"id"`
	Type          string      `json:"type"`
	Wing          string      `json:"wing"`
	Steps         int         `json:"steps"`
	OnMap         bool        `json:"onMap"`
	Q             int         `json:"q"`
	R             int         `json:"r"`
	Side          bool        `json:"side,omitempty"`
	Q2            int         `json:"q2,omitempty"`
	R2            int         `json:"r2,omitempty"`
	Angle         int         `json:"angle"`
	Tiredness     Tiredness   `json:"tiredness"`
	Cohesion      Cohesion    `json:"cohesion"`
	Munitions     Munitions   `json:"munitions"`
	Engaging      bool        `json:"engaging"`
	Charging      ChargeState `json:"charging"`
	OrderReceived bool        `json:"orderReceived"`
	Played        bool        `json:"played"`
}

// WingSpec is the plain record a wing is saved as. Leader holds the leading
// unit's ID, or nothing.
type WingSpec struct {
	Name   string           `json:"name"`
	Order  OrderInstruction `json:"order"`
	Leader string           `json:"leader,omitempty"`
	Units  []UnitSpec       `json:"units"`
}

// ToSpec records the unit.
func (u *Unit) ToSpec() UnitSpec {
	s := UnitSpec{
		ID:            u.id.String(),
		Type:          u.utype.name,
		Wing:          u.wing.name,
		Steps:         u.steps,
		OnMap:         u.onMap,
		Q:             u.loc.Hex.Q,
		R:             u.loc.Hex.R,
		Angle:         u.angle,
		Tiredness:     u.status.Tiredness,
		Cohesion:      u.status.Cohesion,
		Munitions:     u.status.Munitions,
		Engaging:      u.status.Engaging,
		Charging:      u.status.Charging,
		OrderReceived: u.status.OrderReceived,
		Played:        u.status.Played,
	}
	if u.loc.OnSide {
		s.Side = true
		s.Q, s.R = u.loc.Side.A.Q, u.loc.Side.A.R
		s.Q2, s.R2 = u.loc.Side.B.Q, u.loc.Side.B.R
	}
	return s
}

// ToSpec records the wing and all its units.
func (w *Wing) ToSpec() WingSpec {
	s := WingSpec{Name: w.name, Order: w.order, Units: make([]UnitSpec, 0, len(w.units))}
	if w.leader != nil {
		s.Leader = w.leader.id.String()
	}
	for _, u := range w.units {
		s.Units = append(s.Units, u.ToSpec())
	}
	return s
}

// WingFromSpec rebuilds a wing, resolving unit types in c. Records that could
// not have been produced by legal play are rejected.
func WingFromSpec(spec WingSpec, c *Catalog) (*Wing, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("wing has no name")
	}
	if !spec.Order.Valid() {
		return nil, fmt.Errorf("wing %s: invalid order %d", spec.Name, spec.Order)
	}
	w := NewWing(spec.Name)
	w.order = spec.Order
	for i, us := range spec.Units {
		u, err := unitFromSpec(us, w, c)
		if err != nil {
			return nil, fmt.Errorf("wing %s unit %d: %w", spec.Name, i, err)
		}
		if w.find(u.id) != nil {
			return nil, fmt.Errorf("wing %s: duplicate unit %s", spec.Name, u.id)
		}
		w.units = append(w.units, u)
	}
	if spec.Leader != "" {
		id, err := uuid.Parse(spec.Leader)
		if err != nil {
			return nil, fmt.Errorf("wing %s: leader: %w", spec.Name, err)
		}
		leader := w.find(id)
		if !w.CanSetLeader(leader) {
			return nil, fmt.Errorf("wing %s: %s cannot lead", spec.Name, spec.Leader)
		}
		w.leader = leader
	}
	return w, nil
}

func (w *Wing) find(id uuid.UUID) *Unit {
	for _, u := range w.units {
		if u.id == id {
			return u
		}
	}
	return nil
}

func unitFromSpec(s UnitSpec, w *Wing, c *Catalog) (*Unit, error) {
	if s.Wing != "" && s.Wing != w.name {
		return nil, fmt.Errorf("unit listed under wing %s but records wing %s", w.name, s.Wing)
	}
	t := c.Get(s.Type)
	if t == nil {
		return nil, fmt.Errorf("unknown unit type %q", s.Type)
	}
	id := uuid.New()
	if s.ID != "" {
		var err error
		if id, err = uuid.Parse(s.ID); err != nil {
			return nil, fmt.Errorf("unit id: %w", err)
		}
	}
	if s.Steps < 1 || s.Steps > t.MaxSteps() {
		return nil, fmt.Errorf("%s has steps 1..%d, got %d", t.name, t.MaxSteps(), s.Steps)
	}
	status := Status{
		Tiredness:     s.Tiredness,
		Cohesion:      s.Cohesion,
		Munitions:     s.Munitions,
		Engaging:      s.Engaging,
		Charging:      s.Charging,
		OrderReceived: s.OrderReceived,
		Played:        s.Played,
	}
	if err := status.Validate(); err != nil {
		return nil, err
	}

	u := newUnit(id, t, w, s.Steps)
	u.status = status
	u.SetAngle(s.Angle)
	loc := AtHex(world.HexCoord{Q: s.Q, R: s.R})
	if s.Side {
		var err error
		if loc, err = AtSide(world.HexCoord{Q: s.Q, R: s.R}, world.HexCoord{Q: s.Q2, R: s.R2}); err != nil {
			return nil, err
		}
	}
	if s.OnMap && !u.CanPlace(loc) {
		return nil, fmt.Errorf("%s %s cannot stand on %s", t.kind, t.name, loc)
	}
	u.loc = loc
	u.onMap = s.OnMap
	return u, nil
}
