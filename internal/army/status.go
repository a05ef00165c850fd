package army

import (
	"fmt"
	"strings"
)

// Tiredness is the fatigue axis of a unit's status.
type Tiredness uint8

const (
	TirednessNone Tiredness = iota
	Tired
	Exhausted
	numTiredness
)

// Cohesion is the order axis of a unit's status.
type Cohesion uint8

const (
	GoodOrder Cohesion = iota
	Disrupted
	Routed
	numCohesion
)

// Munitions is the ammunition axis of a unit's status.
type Munitions uint8

const (
	MunitionsPlenty Munitions = iota
	MunitionsScarce
	MunitionsExhausted
	numMunitions
)

// ChargeState tells whether a unit is charging.
type ChargeState uint8

const (
	ChargeNone ChargeState = iota
	Charging
	numChargeStates
)

var (
	tirednessNames = [numTiredness]string{"NONE", "TIRED", "EXHAUSTED"}
	cohesionNames  = [numCohesion]string{"GOOD_ORDER", "DISRUPTED", "ROUTED"}
	munitionsNames = [numMunitions]string{"NONE", "SCARCE", "EXHAUSTED"}
	chargeNames    = [numChargeStates]string{"NONE", "CHARGING"}
)

func (t Tiredness) Valid() bool   { return t < numTiredness }
func (c Cohesion) Valid() bool    { return c < numCohesion }
func (m Munitions) Valid() bool   { return m < numMunitions }
func (c ChargeState) Valid() bool { return c < numChargeStates }

func (t Tiredness) String() string   { return enumName(tirednessNames[:], int(t)) }
func (c Cohesion) String() string    { return enumName(cohesionNames[:], int(c)) }
func (m Munitions) String() string   { return enumName(munitionsNames[:], int(m)) }
func (c ChargeState) String() string { return enumName(chargeNames[:], int(c)) }

func (t Tiredness) MarshalText() ([]byte, error)   { return marshalEnum(t.Valid(), t.String()) }
func (c Cohesion) MarshalText() ([]byte, error)    { return marshalEnum(c.Valid(), c.String()) }
func (m Munitions) MarshalText() ([]byte, error)   { return marshalEnum(m.Valid(), m.String()) }
func (c ChargeState) MarshalText() ([]byte, error) { return marshalEnum(c.Valid(), c.String()) }

func (t *Tiredness) UnmarshalText(b []byte) error {
	i, err := parseEnum("tiredness", tirednessNames[:], string(b))
	*t = Tiredness(i)
	return err
}

func (c *Cohesion) UnmarshalText(b []byte) error {
	i, err := parseEnum("cohesion", cohesionNames[:], string(b))
	*c = Cohesion(i)
	return err
}

func (m *Munitions) UnmarshalText(b []byte) error {
	i, err := parseEnum("munitions", munitionsNames[:], string(b))
	*m = Munitions(i)
	return err
}

func (c *ChargeState) UnmarshalText(b []byte) error {
	i, err := parseEnum("charge state", chargeNames[:], string(b))
	*c = ChargeState(i)
	return err
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("INVALID(%d)", i)
	}
	return names[i]
}

func marshalEnum(valid bool, name string) ([]byte, error) {
	if !valid {
		return nil, fmt.Errorf("cannot marshal %s", name)
	}
	return []byte(name), nil
}

func parseEnum(axis string, names []string, s string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", axis, s)
}

// Status is the full status record of a unit. The zero value is a fresh,
// rested unit in good order.
type Status struct {
	Tiredness     Tiredness
	Cohesion      Cohesion
	Munitions     Munitions
	Engaging      bool
	Charging      ChargeState
	OrderReceived bool
	Played        bool
}

// Validate checks every axis and the cross-axis constraints: a charging unit
// is in good order and not exhausted, an engaging unit is not routed.
func (s Status) Validate() error {
	switch {
	case !s.Tiredness.Valid():
		return fmt.Errorf("invalid tiredness %d", s.Tiredness)
	case !s.Cohesion.Valid():
		return fmt.Errorf("invalid cohesion %d", s.Cohesion)
	case !s.Munitions.Valid():
		return fmt.Errorf("invalid munitions %d", s.Munitions)
	case !s.Charging.Valid():
		return fmt.Errorf("invalid charge state %d", s.Charging)
	case s.Charging == Charging && s.Cohesion != GoodOrder:
		return fmt.Errorf("charging unit is %s", s.Cohesion)
	case s.Charging == Charging && s.Tiredness == Exhausted:
		return fmt.Errorf("charging unit is exhausted")
	case s.Engaging && s.Cohesion == Routed:
		return fmt.Errorf("engaging unit is routed")
	}
	return nil
}

// PreconditionError is the panic value raised when a mutator is called while
// its guard does not hold.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated: %s: %s", e.Op, e.Reason)
}

func mustHold(ok bool, op, reason string) {
	if !ok {
		panic(PreconditionError{Op: op, Reason: reason})
	}
}
