package editor

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexwar/internal/army"
	"github.com/talgya/hexwar/internal/world"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession(world.NewFilledMap(4, world.TerrainOutdoorClear), army.DefaultCatalog(), nil)
}

func placeUnit(t *testing.T, s *Session, w *army.Wing, typeName string, c world.HexCoord) *army.Unit {
	t.Helper()
	ut := s.Catalog.Get(typeName)
	require.NotNil(t, ut, typeName)
	u := s.CreateUnit(w, ut, ut.MaxSteps())
	s.AppendToMap(u, army.AtHex(c), 0)
	return u
}

func TestCreateUnitChangesNothingUntilPlaced(t *testing.T) {
	s := newTestSession(t)
	w, err := s.AddWing("blue")
	require.NoError(t, err)
	s.ClearHistory()

	u := s.CreateUnit(w, s.Catalog.Get("Knights"), 2)
	assert.False(t, u.OnMap())
	assert.False(t, w.Contains(u))
	assert.False(t, s.CanUndo())

	s.AppendToMap(u, army.AtHex(world.HexCoord{Q: 1, R: 0}), 60)
	assert.True(t, u.OnMap())
	assert.True(t, w.Contains(u))
	assert.Equal(t, []*army.Unit{u}, s.UnitsAt(world.HexCoord{Q: 1, R: 0}))
	assert.Same(t, u, s.FindUnit(u.ID()))

	require.True(t, s.Undo())
	assert.False(t, u.OnMap())
	assert.False(t, w.Contains(u))
	assert.Nil(t, s.FindUnit(u.ID()))
}

func TestMoveUndoRestoresPlacement(t *testing.T) {
	s := newTestSession(t)
	w, _ := s.AddWing("blue")
	u := placeUnit(t, s, w, "Knights", world.HexCoord{})
	s.RotateUnit(u, 120)

	s.MoveUnit(u, army.AtHex(world.HexCoord{Q: 2, R: -1}), 240)
	assert.Equal(t, world.HexCoord{Q: 2, R: -1}, u.Location().Hex)
	assert.Equal(t, 240, u.Angle())

	s.Undo()
	assert.Equal(t, world.HexCoord{}, u.Location().Hex)
	assert.Equal(t, 120, u.Angle())
	assert.True(t, u.OnMap())
}

func TestDeleteFromMapDismissesLeader(t *testing.T) {
	s := newTestSession(t)
	w, _ := s.AddWing("blue")
	captain := placeUnit(t, s, w, "Captain", world.HexCoord{})
	s.SetLeader(w, captain, army.OrderAttack)

	s.DeleteFromMap(captain)
	assert.Nil(t, w.Leader())
	assert.False(t, captain.OnMap())

	s.Undo()
	assert.Same(t, captain, w.Leader())
	assert.True(t, captain.OnMap())
}

// Undoing n mutations then redoing them reproduces the final state exactly.
func TestUndoRedoRoundTrip(t *testing.T) {
	s := newTestSession(t)
	initial := s.Specs()

	w, _ := s.AddWing("blue")
	captain := placeUnit(t, s, w, "Captain", world.HexCoord{})
	knights := placeUnit(t, s, w, "Knights", world.HexCoord{Q: 1, R: 0})
	maa := s.CreateUnit(w, s.Catalog.Get("Men-at-Arms"), 3)
	side, err := army.AtSide(world.HexCoord{Q: 0, R: 1}, world.HexCoord{Q: 0, R: 2})
	require.NoError(t, err)
	s.AppendToMap(maa, side, 90)
	s.SetLeader(w, captain, army.OrderAttack)
	s.SetTiredness(knights, army.Tired)
	s.SetCharging(knights, army.Charging)
	s.SetEngaging(maa, true)
	s.SetCohesion(maa, army.Disrupted)
	s.SetSteps(maa, 1)
	s.MoveUnit(knights, army.AtHex(world.HexCoord{Q: 2, R: 0}), 60)
	s.ReceivesOrder(captain, true)
	s.SetWingPlayed(w, true)
	s.ChangeOrderInstruction(w, army.OrderRetreat)
	require.NoError(t, s.SetTerrain(world.HexCoord{Q: 1, R: 1}, world.TerrainLava))
	require.NoError(t, s.SetEdge(world.HexCoord{}, world.HexCoord{Q: 0, R: -1}, world.EdgeWall))
	s.DeleteFromMap(knights)

	final := s.Specs()
	finalMap := s.Map.Snapshot()
	n := 0
	for s.CanUndo() {
		require.True(t, s.Undo())
		n++
	}
	assert.Equal(t, 17, n)
	assert.Equal(t, initial, s.Specs())
	assert.Equal(t, world.TerrainOutdoorClear, s.Map.Get(world.HexCoord{Q: 1, R: 1}).Terrain)
	assert.Equal(t, world.EdgeNormal, s.Map.Side(world.HexCoord{}, world.HexCoord{Q: 0, R: -1}).Type)

	for i := 0; i < n; i++ {
		require.True(t, s.Redo())
	}
	assert.False(t, s.Redo())
	assert.Equal(t, final, s.Specs())
	assert.Equal(t, finalMap, s.Map.Snapshot())
}

func TestNewActionAfterUndoDropsRedo(t *testing.T) {
	s := newTestSession(t)
	w, _ := s.AddWing("blue")
	u := placeUnit(t, s, w, "Knights", world.HexCoord{})
	s.SetTiredness(u, army.Tired)
	s.Undo()
	require.True(t, s.CanRedo())

	s.SetCohesion(u, army.Disrupted)
	assert.False(t, s.CanRedo())
	assert.False(t, s.Redo())
}

func TestWingLifecycle(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddWing("")
	assert.Error(t, err)
	_, err = s.AddWing("blue")
	require.NoError(t, err)
	_, err = s.AddWing("blue")
	assert.Error(t, err)
	_, err = s.AddWing("red")
	require.NoError(t, err)

	require.NoError(t, s.RemoveWing("blue"))
	assert.Nil(t, s.Wing("blue"))
	assert.Error(t, s.RemoveWing("blue"))

	s.Undo()
	require.Len(t, s.Wings(), 2)
	assert.Equal(t, "blue", s.Wings()[0].Name())
}

func TestMapEditingErrors(t *testing.T) {
	s := newTestSession(t)
	assert.Error(t, s.SetTerrain(world.HexCoord{Q: 9, R: 9}, world.TerrainWater))
	assert.Error(t, s.SetTerrain(world.HexCoord{}, world.Terrain(world.NumTerrains)))
	assert.Error(t, s.SetEdge(world.HexCoord{}, world.HexCoord{Q: 2, R: 2}, world.EdgeWall))
	assert.Error(t, s.SetEdge(world.HexCoord{}, world.HexCoord{Q: 1, R: 0}, world.EdgeType(world.NumEdgeTypes)))
	assert.Error(t, s.SetEdge(world.HexCoord{Q: 50, R: 50}, world.HexCoord{Q: 51, R: 50}, world.EdgeWall))
	assert.Error(t, s.SetEdge(world.HexCoord{Q: 4, R: 0}, world.HexCoord{Q: 5, R: 0}, world.EdgeWall), "rim hex to outside")
	assert.Empty(t, s.Map.Sides)
	assert.False(t, s.CanUndo(), "rejected edits leave no history")
}

func TestResumeContinuesStoredHistory(t *testing.T) {
	s := newTestSession(t)
	_, err := s.AddWing("blue")
	require.NoError(t, err)

	history := []Event{
		{Seq: 40, Description: "wing red raised", Category: "wing"},
		{Seq: 41, Description: "wing red ordered to DEFEND", Category: "wing"},
	}
	require.NoError(t, s.Resume(world.NewFilledMap(2, world.TerrainOutdoorClear), nil, history))

	events := s.Events(0)
	require.Len(t, events, 3)
	assert.Equal(t, "wing red raised", events[0].Description)
	assert.Equal(t, uint64(42), events[2].Seq)
	assert.Equal(t, "scenario loaded with 0 wings", events[2].Description)

	require.Error(t, s.Resume(nil, nil, nil))
	assert.Len(t, s.Events(0), 3, "rejected resume keeps the log")
}

func TestSpecsRoundTripThroughLoad(t *testing.T) {
	s := newTestSession(t)
	w, _ := s.AddWing("blue")
	captain := placeUnit(t, s, w, "Captain", world.HexCoord{})
	s.SetLeader(w, captain, army.OrderRegroup)
	s.SetMunitions(captain, army.MunitionsScarce)
	specs := s.Specs()

	other := newTestSession(t)
	require.NoError(t, other.LoadSpecs(specs))
	assert.Equal(t, specs, other.Specs())
	assert.False(t, other.CanUndo())
	assert.NotNil(t, other.FindUnit(captain.ID()))

	dup := append(specs, specs[0])
	assert.Error(t, other.LoadSpecs(dup))

	clash := specs[0]
	clash.Name = "red"
	clash.Units = slices.Clone(clash.Units)
	for i := range clash.Units {
		clash.Units[i].Wing = "red"
	}
	assert.Error(t, other.LoadSpecs([]army.WingSpec{specs[0], clash}), "unit ids are unique across wings")
	assert.Equal(t, specs, other.Specs(), "rejected load keeps the current wings")
}

func TestEventsAndListeners(t *testing.T) {
	s := newTestSession(t)
	var got []Event
	unsubscribe := s.Subscribe(func(e Event) { got = append(got, e) })

	w, _ := s.AddWing("blue")
	u := placeUnit(t, s, w, "Knights", world.HexCoord{})
	s.Undo()
	require.Len(t, got, 3)
	assert.Equal(t, "wing", got[0].Category)
	assert.Equal(t, "unit", got[1].Category)
	assert.Equal(t, u.ID().String(), got[1].Meta["unit"])
	assert.Equal(t, "history", got[2].Category)
	assert.Equal(t, uint64(3), got[2].Seq)

	unsubscribe()
	s.Redo()
	assert.Len(t, got, 3)
	assert.Len(t, s.Events(0), 4)
	assert.Len(t, s.Events(2), 2)
	assert.Equal(t, "redo", s.Events(1)[0].Description)
}
