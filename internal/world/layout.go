package world

import "math"

// Point is a position in screen space (y grows downward).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout converts between axial coordinates and screen space for flat-top hexes.
type Layout struct {
	Size   float64 // Centre-to-corner distance
	Origin Point   // Screen position of hex (0,0)
}

// Center returns the screen position of a hex centre.
func (l Layout) Center(c HexCoord) Point {
	x := l.Size * 1.5 * float64(c.Q)
	y := l.Size * math.Sqrt(3) * (float64(c.R) + float64(c.Q)/2)
	return Point{X: l.Origin.X + x, Y: l.Origin.Y + y}
}

// SideCenter returns the midpoint of the edge between two hexes.
func (l Layout) SideCenter(s *HexSide) Point {
	a, b := l.Center(s.A), l.Center(s.B)
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// HexAt returns the hex containing a screen position.
func (l Layout) HexAt(p Point) HexCoord {
	x := (p.X - l.Origin.X) / l.Size
	y := (p.Y - l.Origin.Y) / l.Size
	q := 2.0 / 3.0 * x
	r := -1.0/3.0*x + math.Sqrt(3)/3.0*y
	return roundAxial(q, r)
}

// roundAxial rounds fractional axial coordinates to the nearest hex.
func roundAxial(fq, fr float64) HexCoord {
	fs := -fq - fr
	q, r, s := math.Round(fq), math.Round(fr), math.Round(fs)
	dq, dr, ds := math.Abs(q-fq), math.Abs(r-fr), math.Abs(s-fs)
	switch {
	case dq > dr && dq > ds:
		q = -r - s
	case dr > ds:
		r = -q - s
	}
	return HexCoord{Q: int(q), R: int(r)}
}

// Bearing returns the angle from one screen point to another, in degrees in
// [0, 360), 0 = north, clockwise.
func Bearing(from, to Point) float64 {
	deg := math.Atan2(to.X-from.X, from.Y-to.Y) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
