package profile

import (
	"fmt"
	"math"
	"strings"

	"github.com/talgya/hexwar/internal/world"
)

// Locomotion is the way a unit moves; it selects the cost tables.
type Locomotion uint8

const (
	Pedestrian Locomotion = iota
	Animal
	Cavalry
	numLocomotions
)

func (l Locomotion) String() string {
	switch l {
	case Pedestrian:
		return "pedestrian"
	case Animal:
		return "animal"
	case Cavalry:
		return "cavalry"
	default:
		return fmt.Sprintf("Locomotion(%d)", uint8(l))
	}
}

// ParseLocomotion resolves a locomotion family name (case-insensitive).
func ParseLocomotion(name string) (Locomotion, error) {
	for _, l := range AllLocomotions() {
		if strings.EqualFold(l.String(), name) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown locomotion %q", name)
}

// AllLocomotions returns every locomotion family.
func AllLocomotions() []Locomotion {
	return []Locomotion{Pedestrian, Animal, Cavalry}
}

var (
	basePoints         = [numLocomotions]float64{Pedestrian: 2, Animal: 3, Cavalry: 3}
	baseExtendedPoints = [numLocomotions]float64{Pedestrian: 3, Animal: 4.5, Cavalry: 4.5}
)

// Pedestrians and animals share the foot table; cavalry gets the stricter one.
var footTerrainCosts = [world.NumTerrains]Cost{
	world.TerrainOutdoorClear:              AddCost(1),
	world.TerrainOutdoorClearFlammable:     AddCost(1),
	world.TerrainOutdoorRough:              AddCost(1.5),
	world.TerrainOutdoorRoughFlammable:     AddCost(1.5),
	world.TerrainOutdoorDifficult:          AddCost(2),
	world.TerrainOutdoorDifficultFlammable: AddCost(2),
	world.TerrainCaveClear:                 AddCost(1),
	world.TerrainCaveClearFlammable:        AddCost(1),
	world.TerrainCaveRough:                 AddCost(1.5),
	world.TerrainCaveRoughFlammable:        AddCost(1.5),
	world.TerrainCaveDifficult:             AddCost(2),
	world.TerrainCaveDifficultFlammable:    AddCost(2),
	world.TerrainWater:                     MinimalMoveCost(),
	world.TerrainLava:                      ImpassableCost(),
	world.TerrainImpassable:                ImpassableCost(),
}

var cavalryTerrainCosts = [world.NumTerrains]Cost{
	world.TerrainOutdoorClear:              AddCost(0.5),
	world.TerrainOutdoorClearFlammable:     AddCost(0.5),
	world.TerrainOutdoorRough:              AddCost(1),
	world.TerrainOutdoorRoughFlammable:     AddCost(1),
	world.TerrainOutdoorDifficult:          MinimalMoveCost(),
	world.TerrainOutdoorDifficultFlammable: MinimalMoveCost(),
	world.TerrainCaveClear:                 AddCost(0.5),
	world.TerrainCaveClearFlammable:        AddCost(0.5),
	world.TerrainCaveRough:                 AddCost(1),
	world.TerrainCaveRoughFlammable:        AddCost(1),
	world.TerrainCaveDifficult:             MinimalMoveCost(),
	world.TerrainCaveDifficultFlammable:    MinimalMoveCost(),
	world.TerrainWater:                     ImpassableCost(),
	world.TerrainLava:                      ImpassableCost(),
	world.TerrainImpassable:                ImpassableCost(),
}

var terrainCosts = [numLocomotions]*[world.NumTerrains]Cost{
	Pedestrian: &footTerrainCosts,
	Animal:     &footTerrainCosts,
	Cavalry:    &cavalryTerrainCosts,
}

var footEdgeCosts = [world.NumEdgeTypes]Cost{
	world.EdgeNormal:    AddCost(0),
	world.EdgeEasy:      SetCost(0.5),
	world.EdgeDifficult: AddCost(0.5),
	world.EdgeClimb:     ImpassableCost(),
	world.EdgeWall:      ImpassableCost(),
}

var cavalryEdgeCosts = [world.NumEdgeTypes]Cost{
	world.EdgeNormal:    AddCost(0),
	world.EdgeEasy:      SetCost(0.5),
	world.EdgeDifficult: AddCost(1),
	world.EdgeClimb:     ImpassableCost(),
	world.EdgeWall:      ImpassableCost(),
}

var edgeCosts = [numLocomotions]*[world.NumEdgeTypes]Cost{
	Pedestrian: &footEdgeCosts,
	Animal:     &footEdgeCosts,
	Cavalry:    &cavalryEdgeCosts,
}

// Rotation costs: [cheap (|angle| <= 60), expensive] and the flat formation cost.
var (
	rotationCosts          = [numLocomotions][2]float64{Pedestrian: {0, 0.5}, Animal: {0, 0.5}, Cavalry: {0.5, 1}}
	formationRotationCosts = [numLocomotions]float64{Pedestrian: 0.5, Animal: 0.5, Cavalry: 1}
)

func init() {
	if err := checkTables(); err != nil {
		panic(err)
	}
}

// checkTables reports the first (family, terrain) or (family, edge) pair
// without an entry.
func checkTables() error {
	for _, l := range AllLocomotions() {
		table := terrainCosts[l]
		if table == nil {
			return fmt.Errorf("profile: no terrain table for %s", l)
		}
		for _, t := range world.AllTerrains() {
			if table[t].Kind == costUnset {
				return fmt.Errorf("profile: no %s cost for terrain %s", l, t)
			}
		}
		edges := edgeCosts[l]
		if edges == nil {
			return fmt.Errorf("profile: no edge table for %s", l)
		}
		for _, e := range world.AllEdgeTypes() {
			if edges[e].Kind == costUnset {
				return fmt.Errorf("profile: no %s cost for edge %s", l, e)
			}
		}
	}
	return nil
}

// MoveProfile gives the movement allowance and terrain costs of a unit.
type MoveProfile struct {
	locomotion Locomotion
	capacity   Capacity
}

// NewMoveProfile builds a move profile. An invalid capacity or family is a
// configuration error and panics.
func NewMoveProfile(l Locomotion, c Capacity) *MoveProfile {
	if l >= numLocomotions {
		panic(fmt.Sprintf("profile: invalid locomotion %d", uint8(l)))
	}
	mustCapacity(c)
	return &MoveProfile{locomotion: l, capacity: c}
}

// NewPedestrianMoveProfile builds a move profile for foot troops.
func NewPedestrianMoveProfile(c Capacity) *MoveProfile { return NewMoveProfile(Pedestrian, c) }

// NewAnimalMoveProfile builds a move profile for beasts.
func NewAnimalMoveProfile(c Capacity) *MoveProfile { return NewMoveProfile(Animal, c) }

// NewCavalryMoveProfile builds a move profile for mounted troops.
func NewCavalryMoveProfile(c Capacity) *MoveProfile { return NewMoveProfile(Cavalry, c) }

func (p *MoveProfile) Locomotion() Locomotion { return p.locomotion }
func (p *MoveProfile) Capacity() Capacity     { return p.capacity }

// MovementPoints returns the normal movement allowance.
func (p *MoveProfile) MovementPoints() float64 {
	return basePoints[p.locomotion] + float64(p.capacity)
}

// ExtendedMovementPoints returns the allowance for a forced march.
func (p *MoveProfile) ExtendedMovementPoints() float64 {
	return baseExtendedPoints[p.locomotion] + float64(p.capacity)*1.5
}

// CostOnTerrain returns the cost of entering a hex of the given terrain.
func (p *MoveProfile) CostOnTerrain(t world.Terrain) Cost {
	if !t.Valid() {
		panic(fmt.Sprintf("profile: cost query for invalid terrain %d", uint8(t)))
	}
	return terrainCosts[p.locomotion][t]
}

// MovementCostOnHex returns the cost of entering the hex.
func (p *MoveProfile) MovementCostOnHex(hex *world.Hex) Cost {
	return p.CostOnTerrain(hex.Terrain)
}

// CostOnEdge returns the cost of crossing an edge of the given type.
func (p *MoveProfile) CostOnEdge(e world.EdgeType) Cost {
	if !e.Valid() {
		panic(fmt.Sprintf("profile: cost query for invalid edge %d", uint8(e)))
	}
	return edgeCosts[p.locomotion][e]
}

// MovementCostOnHexSide returns the cost of crossing the hex side.
func (p *MoveProfile) MovementCostOnHexSide(side *world.HexSide) Cost {
	return p.CostOnEdge(side.Type)
}

// RotationCost returns the cost of turning a troop by angle degrees.
func (p *MoveProfile) RotationCost(angle float64) Cost {
	costs := rotationCosts[p.locomotion]
	if math.Abs(NormalizeAngle(angle)) <= 60 {
		return AddCost(costs[0])
	}
	return AddCost(costs[1])
}

// FormationRotationCost returns the cost of turning a formation. Formations
// pivot as a block so the angle does not matter.
func (p *MoveProfile) FormationRotationCost(angle float64) Cost {
	return AddCost(formationRotationCosts[p.locomotion])
}

func (p *MoveProfile) String() string {
	return fmt.Sprintf("%s move (%s)", p.locomotion, p.capacity)
}

// NormalizeAngle maps an angle in degrees to (-180, 180].
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle, 360)
	if a <= -180 {
		a += 360
	} else if a > 180 {
		a -= 360
	}
	return a
}
