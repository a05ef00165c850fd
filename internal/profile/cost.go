package profile

import (
	"fmt"
	"strconv"
)

// CostKind says how a movement cost applies to a unit's point budget.
type CostKind uint8

const (
	costUnset   CostKind = iota // table hole; never returned by a query
	Add                         // added to the points consumed
	Set                         // consumption fixed at Value whatever the terrain
	Impassable                  // movement forbidden
	MinimalMove                 // allowed only as the first move of an activation
)

func (k CostKind) String() string {
	switch k {
	case Add:
		return "ADD"
	case Set:
		return "SET"
	case Impassable:
		return "IMPASSABLE"
	case MinimalMove:
		return "MINIMAL_MOVE"
	default:
		return "UNSET"
	}
}

// MarshalText encodes the kind by name in JSON responses.
func (k CostKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Cost is the result of a movement or rotation cost query.
type Cost struct {
	Kind  CostKind `json:"kind"`
	Value float64  `json:"value,omitempty"`
}

// AddCost returns a cost that adds v points to the consumption.
func AddCost(v float64) Cost { return Cost{Kind: Add, Value: v} }

// SetCost returns a cost that fixes consumption at v points.
func SetCost(v float64) Cost { return Cost{Kind: Set, Value: v} }

// ImpassableCost returns the cost of a forbidden move.
func ImpassableCost() Cost { return Cost{Kind: Impassable} }

// MinimalMoveCost returns the cost of a first-move-only entry.
func MinimalMoveCost() Cost { return Cost{Kind: MinimalMove} }

// Passable reports whether the move may ever happen.
func (c Cost) Passable() bool {
	return c.Kind != Impassable && c.Kind != costUnset
}

func (c Cost) String() string {
	switch c.Kind {
	case Add, Set:
		return fmt.Sprintf("%s(%s)", c.Kind, strconv.FormatFloat(c.Value, 'f', -1, 64))
	default:
		return c.Kind.String()
	}
}

// StepCost combines the cost of entering a hex with the cost of crossing the
// edge leading into it. A SET edge (road) overrides the terrain.
func StepCost(hex, side Cost) Cost {
	switch {
	case hex.Kind == Impassable || side.Kind == Impassable:
		return ImpassableCost()
	case side.Kind == Set:
		return side
	case hex.Kind == MinimalMove:
		return MinimalMoveCost()
	case hex.Kind == Set:
		return SetCost(hex.Value + side.Value)
	default:
		return AddCost(hex.Value + side.Value)
	}
}

// Budget tracks the movement points a unit spends during one activation.
type Budget struct {
	Points float64 `json:"points"`
	Spent  float64 `json:"spent"`
}

// NewBudget returns a fresh budget of the given points.
func NewBudget(points float64) *Budget {
	return &Budget{Points: points}
}

// Remaining returns the points still available.
func (b *Budget) Remaining() float64 {
	return b.Points - b.Spent
}

// Moved reports whether anything was spent this activation.
func (b *Budget) Moved() bool {
	return b.Spent > 0
}

// CanEnter reports whether a step of the given cost fits the budget.
func (b *Budget) CanEnter(c Cost) bool {
	switch c.Kind {
	case Add, Set:
		return c.Value <= b.Remaining()
	case MinimalMove:
		return !b.Moved() && b.Points > 0
	default:
		return false
	}
}

// Enter spends the cost of a step. A minimal move exhausts the budget.
// Returns false, leaving the budget untouched, when the step does not fit.
func (b *Budget) Enter(c Cost) bool {
	if !b.CanEnter(c) {
		return false
	}
	if c.Kind == MinimalMove {
		b.Spent = b.Points
		return true
	}
	b.Spent += c.Value
	return true
}
