// Package actuator turns pointer input on the board into placements, moves and
// rotations, with cost feedback from the unit's move profile. Feedback is
// informative only: the editor lets the user place units anywhere.
package actuator

import (
	"fmt"
	"math"

	"github.com/talgya/hexwar/internal/army"
	"github.com/talgya/hexwar/internal/world"
)

// SnapStep is the facing resolution of troops, in degrees.
const SnapStep = 30

// SnapAngle returns the bearing from center to pointer rounded to the nearest
// SnapStep, in [0,360). 0 is north, angles grow clockwise.
func SnapAngle(center, pointer world.Point) int {
	return SnapDegrees(world.Bearing(center, pointer))
}

// SnapDegrees rounds an angle to the nearest SnapStep, in [0,360).
func SnapDegrees(angle float64) int {
	a := int(math.Round(angle/SnapStep)) * SnapStep
	return ((a % 360) + 360) % 360
}

// FormationFacings returns the two facings allowed on side: toward B and
// toward A, each perpendicular to the edge line.
func FormationFacings(side *world.HexSide) [2]int {
	toB := side.Angle()
	return [2]int{toB, (toB + 180) % 360}
}

// FormationFacing picks the facing of a formation on side from the half-plane
// the pointer lies in. center is the screen midpoint of the side.
func FormationFacing(side *world.HexSide, center, pointer world.Point) int {
	facings := FormationFacings(side)
	rad := float64(facings[0]) * math.Pi / 180
	// Screen direction of the A->B bearing; y grows downward.
	dx, dy := math.Sin(rad), -math.Cos(rad)
	if (pointer.X-center.X)*dx+(pointer.Y-center.Y)*dy >= 0 {
		return facings[0]
	}
	return facings[1]
}

// Target is a place a unit can be put: a hex, or for formations the side
// between Hex and Other.
type Target struct {
	Hex   world.HexCoord `json:"hex"`
	Other world.HexCoord `json:"other"`
	Side  bool           `json:"side"`
}

// HexTarget targets a single hex.
func HexTarget(c world.HexCoord) Target {
	return Target{Hex: c}
}

// SideTarget targets the side between two adjacent hexes.
func SideTarget(a, b world.HexCoord) Target {
	return Target{Hex: a, Other: b, Side: true}
}

// Location converts the target into a unit location.
func (t Target) Location() (army.Location, error) {
	if t.Side {
		return army.AtSide(t.Hex, t.Other)
	}
	return army.AtHex(t.Hex), nil
}

func (t Target) String() string {
	if t.Side {
		return fmt.Sprintf("%s|%s", t.Hex, t.Other)
	}
	return t.Hex.String()
}

// center returns the screen point facings are measured from.
func (t Target) center(l world.Layout, m *world.Map) world.Point {
	if t.Side {
		if s := m.Side(t.Hex, t.Other); s != nil {
			return l.SideCenter(s)
		}
	}
	return l.Center(t.Hex)
}

// facing resolves the facing a unit placed on t gets from the pointer.
func facing(t Target, l world.Layout, m *world.Map, pointer world.Point) (int, error) {
	if !t.Side {
		return SnapAngle(t.center(l, m), pointer), nil
	}
	side := m.Side(t.Hex, t.Other)
	if side == nil {
		return 0, fmt.Errorf("hexes %s and %s are not adjacent", t.Hex, t.Other)
	}
	return FormationFacing(side, t.center(l, m), pointer), nil
}

// checkFacing validates an explicit facing for t.
func checkFacing(t Target, m *world.Map, angle int) (int, error) {
	a := ((angle % 360) + 360) % 360
	if !t.Side {
		if a%SnapStep != 0 {
			return 0, fmt.Errorf("facing %d is not a multiple of %d", angle, SnapStep)
		}
		return a, nil
	}
	side := m.Side(t.Hex, t.Other)
	if side == nil {
		return 0, fmt.Errorf("hexes %s and %s are not adjacent", t.Hex, t.Other)
	}
	for _, f := range FormationFacings(side) {
		if f == a {
			return a, nil
		}
	}
	return 0, fmt.Errorf("formation on %s cannot face %d", t, angle)
}
