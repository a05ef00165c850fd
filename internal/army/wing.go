package army

import (
	"fmt"
	"slices"
	"strings"
)

// OrderInstruction is the standing order a leader gives its wing.
type OrderInstruction uint8

const (
	OrderAttack OrderInstruction = iota
	OrderDefend
	OrderRegroup
	OrderRetreat
	numOrders
)

var orderNames = [numOrders]string{"ATTACK", "DEFEND", "REGROUP", "RETREAT"}

// AllOrderInstructions returns every order instruction.
func AllOrderInstructions() []OrderInstruction {
	return []OrderInstruction{OrderAttack, OrderDefend, OrderRegroup, OrderRetreat}
}

func (o OrderInstruction) Valid() bool    { return o < numOrders }
func (o OrderInstruction) String() string { return enumName(orderNames[:], int(o)) }

func (o OrderInstruction) MarshalText() ([]byte, error) { return marshalEnum(o.Valid(), o.String()) }

func (o *OrderInstruction) UnmarshalText(b []byte) error {
	i, err := parseEnum("order instruction", orderNames[:], string(b))
	*o = OrderInstruction(i)
	return err
}

// Playable is anything whose activation can be marked as done.
type Playable interface {
	IsPlayed() bool
	SetPlayed(played bool)
}

var (
	_ Playable = (*Unit)(nil)
	_ Playable = (*Wing)(nil)
)

// Wing is one side's ordered group of units. The leader is a plain reference
// to one of the units; the wing never owns it beyond its unit list.
type Wing struct {
	name   string
	units  []*Unit
	leader *Unit
	order  OrderInstruction
}

type wingState struct {
	units  []*Unit
	leader *Unit
	order  OrderInstruction
}

// NewWing creates an empty wing with a defensive standing order.
func NewWing(name string) *Wing {
	return &Wing{name: name, order: OrderDefend}
}

func (w *Wing) Name() string                       { return w.name }
func (w *Wing) Leader() *Unit                      { return w.leader }
func (w *Wing) IsLeader(u *Unit) bool              { return u != nil && w.leader == u }
func (w *Wing) OrderInstruction() OrderInstruction { return w.order }
func (w *Wing) Len() int                           { return len(w.units) }

// Units returns the member units in order.
func (w *Wing) Units() []*Unit {
	return slices.Clone(w.units)
}

// Contains reports whether u is a member of the wing.
func (w *Wing) Contains(u *Unit) bool {
	return slices.Contains(w.units, u)
}

// AppendUnit adds u at the end of the wing. Units belong to the wing they were
// created for.
func (w *Wing) AppendUnit(u *Unit) {
	mustHold(u.wing == w, "AppendUnit", fmt.Sprintf("unit belongs to wing %s", u.wing.name))
	if w.Contains(u) {
		return
	}
	w.units = append(w.units, u)
}

// RemoveUnit drops u from the wing. A removed leader is dismissed.
func (w *Wing) RemoveUnit(u *Unit) {
	i := slices.Index(w.units, u)
	if i < 0 {
		return
	}
	w.units = slices.Delete(w.units, i, i+1)
	if w.leader == u {
		w.leader = nil
	}
}

// CanSetLeader reports whether u may lead the wing: it must be a member
// character.
func (w *Wing) CanSetLeader(u *Unit) bool {
	return u != nil && w.Contains(u) && u.IsCharacter()
}

// SetLeader makes u the leader with the given order and returns the leader it
// dismissed, if any.
func (w *Wing) SetLeader(u *Unit, order OrderInstruction) *Unit {
	mustHold(w.CanSetLeader(u), "SetLeader", fmt.Sprintf("%s cannot lead wing %s", u, w.name))
	mustHold(order.Valid(), "SetLeader", fmt.Sprintf("invalid order %d", order))
	previous := w.DismissLeader()
	w.leader = u
	w.order = order
	if previous == u {
		return nil
	}
	return previous
}

// DismissLeader clears the leader and returns it.
func (w *Wing) DismissLeader() *Unit {
	previous := w.leader
	w.leader = nil
	return previous
}

func (w *Wing) ChangeOrderInstruction(order OrderInstruction) {
	mustHold(order.Valid(), "ChangeOrderInstruction", fmt.Sprintf("invalid order %d", order))
	w.order = order
}

// IsPlayed reports whether every unit of the wing has been played. An empty
// wing is not played.
func (w *Wing) IsPlayed() bool {
	if len(w.units) == 0 {
		return false
	}
	for _, u := range w.units {
		if !u.IsPlayed() {
			return false
		}
	}
	return true
}

// SetPlayed marks every member unit.
func (w *Wing) SetPlayed(played bool) {
	for _, u := range w.units {
		u.SetPlayed(played)
	}
}

// Snapshot captures membership, leader and order. Member state is captured by
// the units themselves.
func (w *Wing) Snapshot() any {
	return wingState{units: slices.Clone(w.units), leader: w.leader, order: w.order}
}

// Restore puts back a state captured by Snapshot.
func (w *Wing) Restore(snapshot any) {
	s := snapshot.(wingState)
	w.units, w.leader, w.order = slices.Clone(s.units), s.leader, s.order
}

func (w *Wing) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "wing %s (%s, %d units)", w.name, w.order, len(w.units))
	if w.leader != nil {
		fmt.Fprintf(&b, " led by %s", w.leader.utype.name)
	}
	return b.String()
}
