package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/hexwar/internal/army"
	"github.com/talgya/hexwar/internal/world"
)

// ErrNotAllowed is returned by Apply when the requested action's guard fails.
var ErrNotAllowed = errors.New("action not allowed in current state")

// status runs one guarded unit mutation as its own undo step.
func (s *Session) status(u *army.Unit, desc string, mutate func()) {
	s.history.Transaction(func() {
		s.history.Register(u)
		mutate()
	})
	s.emit("status", fmt.Sprintf("%s %s", u.Type().Name(), desc), unitMeta(u))
}

func (s *Session) SetTiredness(u *army.Unit, t army.Tiredness) {
	s.status(u, "tiredness "+t.String(), func() { u.SetTiredness(t) })
}

func (s *Session) SetCohesion(u *army.Unit, c army.Cohesion) {
	s.status(u, "cohesion "+c.String(), func() { u.SetCohesion(c) })
}

func (s *Session) SetMunitions(u *army.Unit, m army.Munitions) {
	s.status(u, "munitions "+m.String(), func() { u.SetMunitions(m) })
}

func (s *Session) SetEngaging(u *army.Unit, engaging bool) {
	s.status(u, fmt.Sprintf("engaging %t", engaging), func() { u.SetEngaging(engaging) })
}

func (s *Session) SetCharging(u *army.Unit, c army.ChargeState) {
	s.status(u, "charge "+c.String(), func() { u.SetCharging(c) })
}

func (s *Session) ReceivesOrder(u *army.Unit, received bool) {
	s.status(u, fmt.Sprintf("order received %t", received), func() { u.ReceivesOrder(received) })
}

func (s *Session) SetPlayed(u *army.Unit, played bool) {
	s.status(u, fmt.Sprintf("played %t", played), func() { u.SetPlayed(played) })
}

func (s *Session) SetSteps(u *army.Unit, steps int) {
	s.status(u, "now at "+humanize.Ordinal(steps)+" step", func() { u.SetSteps(steps) })
}

// SetWingPlayed marks every unit of w in a single undo step.
func (s *Session) SetWingPlayed(w *army.Wing, played bool) {
	s.history.Transaction(func() {
		for _, u := range w.Units() {
			s.history.Register(u)
		}
		w.SetPlayed(played)
	})
	s.emit("wing", fmt.Sprintf("wing %s played %t", w.Name(), played), map[string]any{"wing": w.Name()})
}

// SetLeader appoints u with the given order, dismissing any previous leader.
func (s *Session) SetLeader(w *army.Wing, u *army.Unit, order army.OrderInstruction) {
	var dismissed *army.Unit
	s.history.Transaction(func() {
		s.history.Register(w)
		dismissed = w.SetLeader(u, order)
	})
	meta := unitMeta(u)
	meta["order"] = order.String()
	if dismissed != nil {
		meta["dismissed"] = dismissed.ID().String()
	}
	s.emit("wing", fmt.Sprintf("%s leads wing %s to %s", u.Type().Name(), w.Name(), order), meta)
}

func (s *Session) DismissLeader(w *army.Wing) {
	s.history.Transaction(func() {
		s.history.Register(w)
		w.DismissLeader()
	})
	s.emit("wing", fmt.Sprintf("wing %s has no leader", w.Name()), map[string]any{"wing": w.Name()})
}

func (s *Session) ChangeOrderInstruction(w *army.Wing, order army.OrderInstruction) {
	s.history.Transaction(func() {
		s.history.Register(w)
		w.ChangeOrderInstruction(order)
	})
	s.emit("wing", fmt.Sprintf("wing %s ordered to %s", w.Name(), order), map[string]any{"wing": w.Name(), "order": order.String()})
}

// Map editing

// SetTerrain changes the terrain of an existing hex.
func (s *Session) SetTerrain(c world.HexCoord, t world.Terrain) error {
	hex := s.Map.Get(c)
	if hex == nil {
		return fmt.Errorf("no hex at %s", c)
	}
	if !t.Valid() {
		return fmt.Errorf("invalid terrain %d", t)
	}
	s.history.Transaction(func() {
		s.history.Register(s.Map)
		hex.Terrain = t
	})
	s.emit("map", fmt.Sprintf("%s is now %s", c, t), map[string]any{"hex": c.String()})
	return nil
}

// SetEdge changes the edge between two adjacent hexes.
func (s *Session) SetEdge(a, b world.HexCoord, e world.EdgeType) error {
	if _, ok := world.SideKeyOf(a, b); !ok {
		return fmt.Errorf("hexes %s and %s are not adjacent", a, b)
	}
	if s.Map.Get(a) == nil || s.Map.Get(b) == nil {
		return fmt.Errorf("edge %s|%s is off the map", a, b)
	}
	if !e.Valid() {
		return fmt.Errorf("invalid edge type %d", e)
	}
	var err error
	s.history.Transaction(func() {
		s.history.Register(s.Map)
		err = s.Map.SetSide(a, b, e)
	})
	if err != nil {
		return err
	}
	s.emit("map", fmt.Sprintf("edge %s|%s is now %s", a, b, e), nil)
	return nil
}

// MenuItem is one affordance of the status menu. Disabled items must not be
// offered to the user.
type MenuItem struct {
	Action  string `json:"action"`
	Enabled bool   `json:"enabled"`
	Active  bool   `json:"active"`
}

// Menu lists every status affordance for one unit.
type Menu struct {
	Unit  string     `json:"unit"`
	Items []MenuItem `json:"items"`
}

// Item returns the named item.
func (m Menu) Item(action string) (MenuItem, bool) {
	for _, it := range m.Items {
		if it.Action == action {
			return it, true
		}
	}
	return MenuItem{}, false
}

// Menu actions. Axis values are addressed as "<axis>:<VALUE>".
const (
	ActionEngaging = "engaging"
	ActionCharging = "charging"
	ActionOrder    = "order"
	ActionPlayed   = "played"
	ActionLeader   = "leader"
)

// StatusMenu computes the menu for u from the engine's guards and queries.
func (s *Session) StatusMenu(u *army.Unit) Menu {
	m := Menu{Unit: u.ID().String()}
	add := func(action string, enabled, active bool) {
		m.Items = append(m.Items, MenuItem{Action: action, Enabled: enabled, Active: active})
	}
	for _, t := range []army.Tiredness{army.TirednessNone, army.Tired, army.Exhausted} {
		add("tiredness:"+t.String(), u.CanSetTiredness(t), u.Tiredness() == t)
	}
	for _, c := range []army.Cohesion{army.GoodOrder, army.Disrupted, army.Routed} {
		add("cohesion:"+c.String(), u.CanSetCohesion(c), u.Cohesion() == c)
	}
	for _, mu := range []army.Munitions{army.MunitionsPlenty, army.MunitionsScarce, army.MunitionsExhausted} {
		add("munitions:"+mu.String(), u.CanSetMunitions(mu), u.Munitions() == mu)
	}
	add(ActionEngaging, u.IsEngaging() || u.CanEngage(), u.IsEngaging())
	add(ActionCharging, u.IsCharging() || u.CanCharge(), u.IsCharging())
	add(ActionOrder, true, u.HasReceivedOrder())
	add(ActionPlayed, true, u.IsPlayed())
	w := u.Wing()
	add(ActionLeader, w.IsLeader(u) || w.CanSetLeader(u), w.IsLeader(u))
	return m
}

// Apply performs a menu action on u. Axis actions set the value; the other
// actions toggle. Leadership keeps the wing's current order. Returns
// ErrNotAllowed when the item is disabled.
func (s *Session) Apply(u *army.Unit, action string) error {
	item, ok := s.StatusMenu(u).Item(action)
	if !ok {
		return fmt.Errorf("unknown action %q", action)
	}
	if !item.Enabled {
		return fmt.Errorf("%s: %w", action, ErrNotAllowed)
	}

	axis, value, _ := strings.Cut(action, ":")
	switch axis {
	case "tiredness":
		var t army.Tiredness
		if err := t.UnmarshalText([]byte(value)); err != nil {
			return err
		}
		s.SetTiredness(u, t)
	case "cohesion":
		var c army.Cohesion
		if err := c.UnmarshalText([]byte(value)); err != nil {
			return err
		}
		s.SetCohesion(u, c)
	case "munitions":
		var m army.Munitions
		if err := m.UnmarshalText([]byte(value)); err != nil {
			return err
		}
		s.SetMunitions(u, m)
	case ActionEngaging:
		s.SetEngaging(u, !item.Active)
	case ActionCharging:
		if item.Active {
			s.SetCharging(u, army.ChargeNone)
		} else {
			s.SetCharging(u, army.Charging)
		}
	case ActionOrder:
		s.ReceivesOrder(u, !item.Active)
	case ActionPlayed:
		s.SetPlayed(u, !item.Active)
	case ActionLeader:
		if item.Active {
			s.DismissLeader(u.Wing())
		} else {
			s.SetLeader(u.Wing(), u, u.Wing().OrderInstruction())
		}
	}
	return nil
}
