// Package world provides the hex grid, terrain, and edge data the rule engine queries.
// Uses axial coordinates (q, r) on a flat-top grid. Angles are in degrees,
// 0 = north, increasing clockwise; hex neighbours sit at multiples of 60.
package world

import (
	"fmt"
	"strings"
)

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

func (h HexCoord) String() string {
	return fmt.Sprintf("(%d,%d)", h.Q, h.R)
}

// Terrain types for hex tiles.
type Terrain uint8

const (
	TerrainOutdoorClear Terrain = iota
	TerrainOutdoorClearFlammable
	TerrainOutdoorRough
	TerrainOutdoorRoughFlammable
	TerrainOutdoorDifficult
	TerrainOutdoorDifficultFlammable
	TerrainCaveClear
	TerrainCaveClearFlammable
	TerrainCaveRough
	TerrainCaveRoughFlammable
	TerrainCaveDifficult
	TerrainCaveDifficultFlammable
	TerrainWater
	TerrainLava
	TerrainImpassable
)

// NumTerrains is the total number of terrain types.
const NumTerrains = 15

var terrainNames = [NumTerrains]string{
	"OUTDOOR_CLEAR",
	"OUTDOOR_CLEAR_FLAMMABLE",
	"OUTDOOR_ROUGH",
	"OUTDOOR_ROUGH_FLAMMABLE",
	"OUTDOOR_DIFFICULT",
	"OUTDOOR_DIFFICULT_FLAMMABLE",
	"CAVE_CLEAR",
	"CAVE_CLEAR_FLAMMABLE",
	"CAVE_ROUGH",
	"CAVE_ROUGH_FLAMMABLE",
	"CAVE_DIFFICULT",
	"CAVE_DIFFICULT_FLAMMABLE",
	"WATER",
	"LAVA",
	"IMPASSABLE",
}

// AllTerrains returns every terrain type in declaration order.
func AllTerrains() []Terrain {
	all := make([]Terrain, NumTerrains)
	for i := range all {
		all[i] = Terrain(i)
	}
	return all
}

// Valid reports whether t is one of the declared terrain types.
func (t Terrain) Valid() bool {
	return t < NumTerrains
}

func (t Terrain) String() string {
	return TerrainName(t)
}

// TerrainName returns the canonical upper-case name of a terrain type.
func TerrainName(t Terrain) string {
	if !t.Valid() {
		return "UNKNOWN"
	}
	return terrainNames[t]
}

// ParseTerrain resolves a terrain name (case-insensitive).
func ParseTerrain(name string) (Terrain, error) {
	for i, n := range terrainNames {
		if strings.EqualFold(n, name) {
			return Terrain(i), nil
		}
	}
	return 0, fmt.Errorf("unknown terrain %q", name)
}

// IsCave reports whether the terrain is underground.
func (t Terrain) IsCave() bool {
	return t >= TerrainCaveClear && t <= TerrainCaveDifficultFlammable
}

// IsFlammable reports whether fire can spread over the terrain.
func (t Terrain) IsFlammable() bool {
	switch t {
	case TerrainOutdoorClearFlammable, TerrainOutdoorRoughFlammable, TerrainOutdoorDifficultFlammable,
		TerrainCaveClearFlammable, TerrainCaveRoughFlammable, TerrainCaveDifficultFlammable:
		return true
	}
	return false
}

// EdgeType describes what lies on the boundary between two hexes.
type EdgeType uint8

const (
	EdgeNormal    EdgeType = iota
	EdgeEasy               // road or bridge
	EdgeDifficult          // hedge, ford, slope
	EdgeClimb              // cliff
	EdgeWall
)

// NumEdgeTypes is the total number of edge types.
const NumEdgeTypes = 5

var edgeNames = [NumEdgeTypes]string{"NORMAL", "EASY", "DIFFICULT", "CLIMB", "WALL"}

// AllEdgeTypes returns every edge type in declaration order.
func AllEdgeTypes() []EdgeType {
	return []EdgeType{EdgeNormal, EdgeEasy, EdgeDifficult, EdgeClimb, EdgeWall}
}

// Valid reports whether e is one of the declared edge types.
func (e EdgeType) Valid() bool {
	return e < NumEdgeTypes
}

func (e EdgeType) String() string {
	if !e.Valid() {
		return "UNKNOWN"
	}
	return edgeNames[e]
}

// ParseEdgeType resolves an edge type name (case-insensitive).
func ParseEdgeType(name string) (EdgeType, error) {
	for i, n := range edgeNames {
		if strings.EqualFold(n, name) {
			return EdgeType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown edge type %q", name)
}

// Hex represents a single tile on the battlefield.
type Hex struct {
	Coord   HexCoord `json:"coord"`
	Terrain Terrain  `json:"terrain"`
	Height  int      `json:"height"`
}

// HexSide is the edge shared by two adjacent hexes. A is always the hex from
// which B lies at 0, 60 or 120 degrees (see SideKeyOf).
type HexSide struct {
	A    HexCoord `json:"a"`
	B    HexCoord `json:"b"`
	Type EdgeType `json:"type"`
}

// Angle returns the direction from A to B.
func (s *HexSide) Angle() int {
	return DirectionTo(s.A, s.B)
}

// SideKey identifies a hex side independently of the order its hexes are given in.
type SideKey struct {
	A HexCoord
	B HexCoord
}

// SideKeyOf returns the canonical key of the side between two adjacent hexes
// and whether they are adjacent at all.
func SideKeyOf(a, b HexCoord) (SideKey, bool) {
	dir := DirectionTo(a, b)
	if dir < 0 {
		return SideKey{}, false
	}
	if dir >= 180 {
		a, b = b, a
	}
	return SideKey{A: a, B: b}, true
}

// HexNeighborDirections defines the six neighbour offsets in axial coordinates,
// indexed by direction / 60 (north first, then clockwise).
var HexNeighborDirections = [6]HexCoord{
	{Q: 0, R: -1},
	{Q: 1, R: -1},
	{Q: 1, R: 0},
	{Q: 0, R: 1},
	{Q: -1, R: 1},
	{Q: -1, R: 0},
}

// Neighbors returns the six adjacent hex coordinates, north first.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Toward returns the neighbour lying in the given direction. The angle must be
// a multiple of 60; anything else is a caller bug.
func (h HexCoord) Toward(angle int) HexCoord {
	a := ((angle % 360) + 360) % 360
	if a%60 != 0 {
		panic(fmt.Sprintf("world: Toward(%d) is not a hex direction", angle))
	}
	dir := HexNeighborDirections[a/60]
	return HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
}

// DirectionTo returns the angle from a to an adjacent hex b, or -1 when the
// hexes are not neighbours.
func DirectionTo(a, b HexCoord) int {
	d := HexCoord{Q: b.Q - a.Q, R: b.R - a.R}
	for i, dir := range HexNeighborDirections {
		if dir == d {
			return i * 60
		}
	}
	return -1
}

// Similar reports whether two coordinates designate the same hex.
func Similar(a, b HexCoord) bool {
	return a == b
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	// Max of the three absolute differences in cube coordinates.
	return max(dq, dr, ds)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
