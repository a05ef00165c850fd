// Battlefield generation using layered simplex noise.
// Generates elevation, moisture and vegetation layers, then derives terrain,
// heights and edges.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds battlefield generation parameters.
type GenConfig struct {
	Radius     int     // Hex grid radius
	Seed       int64   // Random seed (0 = random)
	WaterLevel float64 // Elevation threshold for water (0.0–1.0)
	CaveLevel  float64 // Elevation above which ground is a cave complex (0.0–1.0)
	MaxHeight  int     // Height of the highest hex
	WalledRim  bool    // Surround the field with impassable hexes
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:     12,
		Seed:       0,
		WaterLevel: 0.22,
		CaveLevel:  0.78,
		MaxHeight:  4,
		WalledRim:  true,
	}
}

// SmallTestConfig returns a tiny battlefield for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:     4,
		Seed:       42,
		WaterLevel: 0.25,
		CaveLevel:  0.8,
		MaxHeight:  3,
		WalledRim:  false,
	}
}

// Generate creates a complete battlefield with terrain, heights and edges.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)
	vegNoise := opensimplex.NewNormalized(seed + 2)

	m := NewMap(cfg.Radius)

	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if !m.InBounds(coord) {
				continue
			}

			// Axial → cartesian for noise sampling (flat-top).
			x := float64(q) * 1.5
			y := (float64(r) + float64(q)/2) * math.Sqrt(3.0)

			elev := octaveNoise(elevNoise, x, y, 4, 0.09, 0.5)
			moist := octaveNoise(moistNoise, x, y, 3, 0.07, 0.5)
			veg := octaveNoise(vegNoise, x, y, 2, 0.12, 0.5)

			terrain := deriveTerrain(elev, moist, veg, cfg)
			if cfg.WalledRim && Distance(coord, HexCoord{}) == cfg.Radius {
				terrain = TerrainImpassable
			}

			m.Set(&Hex{
				Coord:   coord,
				Terrain: terrain,
				Height:  int(math.Round(elev * float64(cfg.MaxHeight))),
			})
		}
	}

	placeEdges(m)
	return m
}

// deriveTerrain determines terrain type from environmental parameters.
func deriveTerrain(elev, moist, veg float64, cfg GenConfig) Terrain {
	if elev < cfg.WaterLevel {
		return TerrainWater
	}
	cave := elev > cfg.CaveLevel
	if cave && moist < 0.15 {
		return TerrainLava
	}

	// Index into the clear/rough/difficult triple, then shift for flammable and cave variants.
	var base Terrain
	switch {
	case moist < 0.4:
		base = TerrainOutdoorClear
	case moist < 0.65:
		base = TerrainOutdoorRough
	default:
		base = TerrainOutdoorDifficult
	}
	if veg > 0.55 {
		base++
	}
	if cave {
		base += TerrainCaveClear
	}
	return base
}

// placeEdges marks slopes between hexes of different heights.
// One step is a difficult edge, two or more a cliff.
func placeEdges(m *Map) {
	for coord, hex := range m.Hexes {
		// Only the three forward directions so each side is visited once.
		for _, dir := range []int{0, 60, 120} {
			nc := coord.Toward(dir)
			nh := m.Get(nc)
			if nh == nil {
				continue
			}
			switch diff := abs(hex.Height - nh.Height); {
			case diff >= 2:
				m.SetSide(coord, nc, EdgeClimb)
			case diff == 1:
				m.SetSide(coord, nc, EdgeDifficult)
			}
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, hex := range m.Hexes {
		counts[hex.Terrain]++
	}
	return counts
}
