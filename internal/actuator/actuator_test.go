package actuator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexwar/internal/army"
	"github.com/talgya/hexwar/internal/editor"
	"github.com/talgya/hexwar/internal/profile"
	"github.com/talgya/hexwar/internal/world"
)

var testLayout = world.Layout{Size: 10}

func pointerAt(center world.Point, bearing, dist float64) world.Point {
	rad := bearing * math.Pi / 180
	return world.Point{X: center.X + dist*math.Sin(rad), Y: center.Y - dist*math.Cos(rad)}
}

func TestSnapAngle(t *testing.T) {
	c := world.Point{X: 5, Y: 5}
	cases := map[float64]int{
		0:     0,
		14:    0,
		16:    30,
		90:    90,
		179:   180,
		200:   210,
		344:   330,
		346:   0,
		359.9: 0,
	}
	for bearing, want := range cases {
		assert.Equal(t, want, SnapAngle(c, pointerAt(c, bearing, 20)), "bearing %v", bearing)
	}
	assert.Equal(t, 0, SnapDegrees(-10))
	assert.Equal(t, 330, SnapDegrees(-30))
}

func TestFormationFacing(t *testing.T) {
	m := world.NewFilledMap(2, world.TerrainOutdoorClear)
	north := m.Side(world.HexCoord{}, world.HexCoord{Q: 0, R: -1})
	require.NotNil(t, north)
	center := testLayout.SideCenter(north)

	assert.Equal(t, [2]int{0, 180}, FormationFacings(north))
	assert.Equal(t, 0, FormationFacing(north, center, pointerAt(center, 10, 5)))
	assert.Equal(t, 180, FormationFacing(north, center, pointerAt(center, 170, 5)))

	diag := m.Side(world.HexCoord{}, world.HexCoord{Q: 1, R: 0})
	c2 := testLayout.SideCenter(diag)
	assert.Equal(t, [2]int{120, 300}, FormationFacings(diag))
	assert.Equal(t, 120, FormationFacing(diag, c2, pointerAt(c2, 100, 5)))
	assert.Equal(t, 300, FormationFacing(diag, c2, pointerAt(c2, 290, 5)))

	// Every facing is perpendicular to the edge line.
	for _, f := range FormationFacings(diag) {
		edgeLine := float64(diag.Angle() + 90)
		assert.Equal(t, 90.0, math.Abs(profile.NormalizeAngle(float64(f)-edgeLine)))
	}
}

type fixture struct {
	session *editor.Session
	wing    *army.Wing
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	m := world.NewFilledMap(3, world.TerrainOutdoorClear)
	m.Get(world.HexCoord{Q: 1, R: 0}).Terrain = world.TerrainOutdoorDifficult
	m.Get(world.HexCoord{Q: 0, R: 1}).Terrain = world.TerrainLava
	require.NoError(t, m.SetSide(world.HexCoord{}, world.HexCoord{Q: 0, R: -1}, world.EdgeWall))
	s := editor.NewSession(m, army.DefaultCatalog(), nil)
	w, err := s.AddWing("blue")
	require.NoError(t, err)
	return fixture{session: s, wing: w}
}

func (f fixture) create(t *testing.T, typeName string, target Target, angle int) *army.Unit {
	t.Helper()
	ut := f.session.Catalog.Get(typeName)
	a, err := NewCreationActuator(f.session, testLayout, f.wing, ut, ut.MaxSteps())
	require.NoError(t, err)
	u, err := a.PlaceFacing(target, angle)
	require.NoError(t, err)
	return u
}

func TestCreationActuator(t *testing.T) {
	f := newFixture(t)
	knights := f.session.Catalog.Get("Knights")

	_, err := NewCreationActuator(f.session, testLayout, f.wing, knights, 3)
	assert.Error(t, err)

	a, err := NewCreationActuator(f.session, testLayout, f.wing, knights, 2)
	require.NoError(t, err)
	targets := a.Targets()
	assert.Len(t, targets, f.session.Map.HexCount())
	for _, fb := range targets {
		switch fb.Target.Hex {
		case world.HexCoord{Q: 1, R: 0}:
			assert.Equal(t, profile.MinimalMoveCost(), fb.Cost)
			assert.True(t, fb.Allowed)
		case world.HexCoord{Q: 0, R: 1}:
			assert.False(t, fb.Allowed)
		case world.HexCoord{}:
			assert.Equal(t, profile.AddCost(0.5), fb.Cost)
		}
	}

	_, err = a.Place(SideTarget(world.HexCoord{}, world.HexCoord{Q: 1, R: 0}), world.Point{})
	assert.Error(t, err, "troops stand on hexes")
	_, err = a.Place(HexTarget(world.HexCoord{Q: 9, R: 0}), world.Point{})
	assert.Error(t, err)

	c := testLayout.Center(world.HexCoord{Q: -1, R: 0})
	u, err := a.Place(HexTarget(world.HexCoord{Q: -1, R: 0}), pointerAt(c, 95, 8))
	require.NoError(t, err)
	assert.Equal(t, 90, u.Angle())
	assert.True(t, f.wing.Contains(u))
	assert.True(t, a.Closed())

	_, err = a.Place(HexTarget(world.HexCoord{}), world.Point{})
	assert.ErrorIs(t, err, ErrClosed)

	f.session.Undo()
	assert.False(t, f.wing.Contains(u))
}

func TestCreationTargetsForFormations(t *testing.T) {
	f := newFixture(t)
	maa := f.session.Catalog.Get("Men-at-Arms")
	a, err := NewCreationActuator(f.session, testLayout, f.wing, maa, 3)
	require.NoError(t, err)

	targets := a.Targets()
	// Interior sides of a radius-3 hexagon.
	assert.Len(t, targets, 90)
	for _, fb := range targets {
		assert.True(t, fb.Target.Side)
		key, ok := world.SideKeyOf(fb.Target.Hex, fb.Target.Other)
		require.True(t, ok)
		if key == (world.SideKey{A: world.HexCoord{}, B: world.HexCoord{Q: 0, R: -1}}) {
			assert.Equal(t, profile.ImpassableCost(), fb.Cost, "wall")
		}
	}

	_, err = a.PlaceFacing(SideTarget(world.HexCoord{}, world.HexCoord{Q: -1, R: 0}), 45)
	assert.Error(t, err)
	u, err := a.PlaceFacing(SideTarget(world.HexCoord{}, world.HexCoord{Q: -1, R: 0}), 120)
	require.NoError(t, err)
	assert.Equal(t, 120, u.Angle())
	assert.True(t, u.Location().OnSide)
}

func TestMoveActuatorFeedback(t *testing.T) {
	f := newFixture(t)
	knights := f.create(t, "Knights", HexTarget(world.HexCoord{}), 0)
	a, err := NewMoveActuator(f.session, testLayout, knights)
	require.NoError(t, err)

	assert.Equal(t, profile.AddCost(0.5), a.Feedback(HexTarget(world.HexCoord{Q: -1, R: 0})).Cost)
	assert.Equal(t, profile.MinimalMoveCost(), a.Feedback(HexTarget(world.HexCoord{Q: 1, R: 0})).Cost)
	wall := a.Feedback(HexTarget(world.HexCoord{Q: 0, R: -1}))
	assert.Equal(t, profile.ImpassableCost(), wall.Cost)
	assert.False(t, wall.Allowed)

	// Feedback never blocks the editor.
	require.NoError(t, a.CommitFacing(HexTarget(world.HexCoord{Q: 0, R: -1}), 180))
	assert.Equal(t, world.HexCoord{Q: 0, R: -1}, knights.Location().Hex)
	assert.ErrorIs(t, a.CommitFacing(HexTarget(world.HexCoord{}), 0), ErrClosed)

	f.session.Undo()
	assert.Equal(t, world.HexCoord{}, knights.Location().Hex)
	assert.Equal(t, 0, knights.Angle())
}

func TestMoveActuatorRequiresPlacedUnit(t *testing.T) {
	f := newFixture(t)
	u := f.session.CreateUnit(f.wing, f.session.Catalog.Get("Knights"), 1)
	_, err := NewMoveActuator(f.session, testLayout, u)
	assert.Error(t, err)
	_, err = NewRotateActuator(f.session, testLayout, u)
	assert.Error(t, err)
}

func TestMoveActuatorCommitWithPointer(t *testing.T) {
	f := newFixture(t)
	maa := f.create(t, "Men-at-Arms", SideTarget(world.HexCoord{}, world.HexCoord{Q: -1, R: 0}), 120)
	a, err := NewMoveActuator(f.session, testLayout, maa)
	require.NoError(t, err)

	target := SideTarget(world.HexCoord{Q: -1, R: 1}, world.HexCoord{Q: -1, R: 2})
	side := f.session.Map.Side(target.Hex, target.Other)
	center := testLayout.SideCenter(side)
	require.NoError(t, a.Commit(target, pointerAt(center, 170, 4)))
	assert.Equal(t, 180, maa.Angle())
	assert.Equal(t, world.SideKey{A: world.HexCoord{Q: -1, R: 2}, B: world.HexCoord{Q: -1, R: 1}}, maa.Location().Side)
}

func TestRotateActuator(t *testing.T) {
	f := newFixture(t)
	ped := f.create(t, "Crossbowmen", HexTarget(world.HexCoord{Q: 2, R: 0}), 0)
	a, err := NewRotateActuator(f.session, testLayout, ped)
	require.NoError(t, err)

	c := testLayout.Center(world.HexCoord{Q: 2, R: 0})
	fb, err := a.Feedback(pointerAt(c, 60, 5))
	require.NoError(t, err)
	assert.Equal(t, RotationFeedback{Angle: 60, Cost: profile.AddCost(0)}, fb)

	fb, err = a.Feedback(pointerAt(c, 270, 5))
	require.NoError(t, err)
	assert.Equal(t, 270, fb.Angle)
	assert.Equal(t, profile.AddCost(0.5), fb.Cost)

	require.NoError(t, a.Commit(pointerAt(c, 270, 5)))
	assert.Equal(t, 270, ped.Angle())

	maa := f.create(t, "Men-at-Arms", SideTarget(world.HexCoord{}, world.HexCoord{Q: -1, R: 0}), 120)
	r, err := NewRotateActuator(f.session, testLayout, maa)
	require.NoError(t, err)
	center := testLayout.SideCenter(f.session.Map.Side(world.HexCoord{}, world.HexCoord{Q: -1, R: 0}))

	fb, err = r.Feedback(pointerAt(center, 120, 5))
	require.NoError(t, err)
	assert.Equal(t, profile.AddCost(0), fb.Cost, "keeping the facing is free")
	fb, err = r.Feedback(pointerAt(center, 300, 5))
	require.NoError(t, err)
	assert.Equal(t, 300, fb.Angle)
	assert.Equal(t, profile.AddCost(0.5), fb.Cost)

	assert.Error(t, r.CommitFacing(90))
	require.NoError(t, r.CommitFacing(300))
	assert.Equal(t, 300, maa.Angle())
}

func TestManagerKeepsOneSetOpen(t *testing.T) {
	f := newFixture(t)
	u := f.create(t, "Knights", HexTarget(world.HexCoord{}), 0)
	m := NewManager(nil)

	move, err := NewMoveActuator(f.session, testLayout, u)
	require.NoError(t, err)
	rotate, err := NewRotateActuator(f.session, testLayout, u)
	require.NoError(t, err)
	m.Open(u, move, rotate)
	assert.True(t, m.IsOpen())
	assert.Same(t, u, m.Selected())

	create, err := NewCreationActuator(f.session, testLayout, f.wing, f.session.Catalog.Get("Wizard"), 1)
	require.NoError(t, err)
	m.Open(nil, create)
	assert.True(t, move.Closed())
	assert.True(t, rotate.Closed())
	assert.Len(t, m.Actuators(), 1)
	assert.Nil(t, m.Selected())

	assert.False(t, m.HandleKey("Enter"))
	assert.False(t, create.Closed())

	before := f.session.Specs()
	assert.True(t, m.HandleKey("Escape"))
	assert.False(t, m.IsOpen())
	assert.True(t, create.Closed())
	assert.Equal(t, before, f.session.Specs(), "cancelling commits nothing")
	_, err = create.Place(HexTarget(world.HexCoord{Q: 2, R: 0}), world.Point{})
	assert.ErrorIs(t, err, ErrClosed)
}
