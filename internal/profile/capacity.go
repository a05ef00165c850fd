// Package profile turns unit archetypes and terrain into movement and combat
// figures. Every profile is parameterised by a Capacity and is immutable once
// built.
package profile

import (
	"fmt"
	"strings"
)

// Capacity scales a profile's base value.
type Capacity int8

const (
	Inferior      Capacity = -2
	Disadvantaged Capacity = -1
	Normal        Capacity = 0
	Advantaged    Capacity = 1
	Superior      Capacity = 2
)

// AllCapacities returns the five capacities from worst to best.
func AllCapacities() []Capacity {
	return []Capacity{Inferior, Disadvantaged, Normal, Advantaged, Superior}
}

// Valid reports whether c is one of the five capacity steps.
func (c Capacity) Valid() bool {
	return c >= Inferior && c <= Superior
}

func (c Capacity) String() string {
	switch c {
	case Superior:
		return "SUPERIOR"
	case Advantaged:
		return "ADVANTAGED"
	case Normal:
		return "NORMAL"
	case Disadvantaged:
		return "DISADVANTAGED"
	case Inferior:
		return "INFERIOR"
	default:
		return fmt.Sprintf("Capacity(%d)", int8(c))
	}
}

// ParseCapacity resolves a capacity name (case-insensitive).
func ParseCapacity(name string) (Capacity, error) {
	for _, c := range AllCapacities() {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown capacity %q", name)
}

func mustCapacity(c Capacity) {
	if !c.Valid() {
		panic(fmt.Sprintf("profile: invalid capacity %d", int8(c)))
	}
}
