package world

import "fmt"

// Map holds the complete hex grid battlefield.
type Map struct {
	Hexes  map[HexCoord]*Hex    `json:"-"` // All hexes keyed by coordinate
	Sides  map[SideKey]*HexSide `json:"-"` // Non-default edges only
	Radius int                  `json:"radius"`
}

// NewMap creates an empty map with the given radius.
// A hex grid of radius R contains hexes where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	return &Map{
		Hexes:  make(map[HexCoord]*Hex),
		Sides:  make(map[SideKey]*HexSide),
		Radius: radius,
	}
}

// NewFilledMap creates a map of the given radius where every hex has the same terrain.
func NewFilledMap(radius int, terrain Terrain) *Map {
	m := NewMap(radius)
	for q := -radius; q <= radius; q++ {
		for r := -radius; r <= radius; r++ {
			c := HexCoord{Q: q, R: r}
			if m.InBounds(c) {
				m.Set(&Hex{Coord: c, Terrain: terrain})
			}
		}
	}
	return m
}

// Get returns the hex at the given coordinate, or nil if out of bounds.
func (m *Map) Get(coord HexCoord) *Hex {
	return m.Hexes[coord]
}

// Set places a hex at the given coordinate.
func (m *Map) Set(hex *Hex) {
	m.Hexes[hex.Coord] = hex
}

// SetSide stores the edge between two adjacent hexes.
func (m *Map) SetSide(a, b HexCoord, edge EdgeType) error {
	key, ok := SideKeyOf(a, b)
	if !ok {
		return fmt.Errorf("hexes %s and %s are not adjacent", a, b)
	}
	if edge == EdgeNormal {
		delete(m.Sides, key)
		return nil
	}
	if s, ok := m.Sides[key]; ok {
		s.Type = edge
		return nil
	}
	m.Sides[key] = &HexSide{A: key.A, B: key.B, Type: edge}
	return nil
}

// Side returns the edge between two adjacent hexes. Edges that were never set
// are reported as normal. Returns nil when the hexes are not adjacent.
func (m *Map) Side(a, b HexCoord) *HexSide {
	key, ok := SideKeyOf(a, b)
	if !ok {
		return nil
	}
	if s, ok := m.Sides[key]; ok {
		return s
	}
	return &HexSide{A: key.A, B: key.B, Type: EdgeNormal}
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return max(abs(coord.Q), abs(coord.R), abs(coord.S())) <= m.Radius
}

// HexCount returns the total number of hexes in the map.
func (m *Map) HexCount() int {
	return len(m.Hexes)
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, hexes=%d, sides=%d)", m.Radius, m.HexCount(), len(m.Sides))
}

type mapState struct {
	hexes map[HexCoord]Hex
	sides map[SideKey]EdgeType
}

// Snapshot captures terrain, heights and edges.
func (m *Map) Snapshot() any {
	st := mapState{
		hexes: make(map[HexCoord]Hex, len(m.Hexes)),
		sides: make(map[SideKey]EdgeType, len(m.Sides)),
	}
	for c, h := range m.Hexes {
		st.hexes[c] = *h
	}
	for k, s := range m.Sides {
		st.sides[k] = s.Type
	}
	return st
}

// Restore overwrites the map from a snapshot. Existing *Hex values are
// updated in place so outstanding references stay valid.
func (m *Map) Restore(snapshot any) {
	st := snapshot.(mapState)
	for c, h := range st.hexes {
		if cur, ok := m.Hexes[c]; ok {
			*cur = h
			continue
		}
		hex := h
		m.Hexes[c] = &hex
	}
	for c := range m.Hexes {
		if _, ok := st.hexes[c]; !ok {
			delete(m.Hexes, c)
		}
	}
	for k, e := range st.sides {
		if cur, ok := m.Sides[k]; ok {
			cur.Type = e
			continue
		}
		m.Sides[k] = &HexSide{A: k.A, B: k.B, Type: e}
	}
	for k := range m.Sides {
		if _, ok := st.sides[k]; !ok {
			delete(m.Sides, k)
		}
	}
}
