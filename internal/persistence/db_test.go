package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexwar/internal/army"
	"github.com/talgya/hexwar/internal/editor"
	"github.com/talgya/hexwar/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "hexwar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// testSession builds a small battle: one wing with a led troop and a
// formation on a side, and a second, empty wing.
func testSession(t *testing.T) *editor.Session {
	t.Helper()
	m := world.NewFilledMap(3, world.TerrainOutdoorClear)
	m.Get(world.HexCoord{Q: 1, R: 0}).Terrain = world.TerrainCaveRough
	m.Get(world.HexCoord{Q: 1, R: 0}).Height = 2
	require.NoError(t, m.SetSide(world.HexCoord{}, world.HexCoord{Q: 0, R: -1}, world.EdgeWall))

	s := editor.NewSession(m, army.DefaultCatalog(), nil)
	blue, err := s.AddWing("blue")
	require.NoError(t, err)
	_, err = s.AddWing("red")
	require.NoError(t, err)

	captain := s.CreateUnit(blue, s.Catalog.Get("Captain"), 1)
	s.AppendToMap(captain, army.AtHex(world.HexCoord{Q: -1, R: 1}), 90)
	s.SetLeader(blue, captain, army.OrderAttack)

	mena := s.CreateUnit(blue, s.Catalog.Get("Men-at-Arms"), 2)
	loc, err := army.AtSide(world.HexCoord{}, world.HexCoord{Q: 1, R: -1})
	require.NoError(t, err)
	s.AppendToMap(mena, loc, 60)
	s.SetTiredness(mena, army.Tired)
	s.SetEngaging(mena, true)
	return s
}

func TestScenarioRoundTrip(t *testing.T) {
	db := openTestDB(t)
	s := testSession(t)

	saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.SaveScenario(&Scenario{Name: "ford", Map: s.Map, Wings: s.Specs(), SavedAt: saved}))

	sc, err := db.LoadScenario("ford")
	require.NoError(t, err)
	assert.Equal(t, saved, sc.SavedAt)
	assert.Equal(t, s.Map.Radius, sc.Map.Radius)
	assert.Equal(t, s.Map.HexCount(), sc.Map.HexCount())
	assert.Equal(t, world.TerrainCaveRough, sc.Map.Get(world.HexCoord{Q: 1, R: 0}).Terrain)
	assert.Equal(t, 2, sc.Map.Get(world.HexCoord{Q: 1, R: 0}).Height)
	side := sc.Map.Side(world.HexCoord{Q: 0, R: -1}, world.HexCoord{})
	require.NotNil(t, side)
	assert.Equal(t, world.EdgeWall, side.Type)
	assert.Equal(t, s.Specs(), sc.Wings)

	// The loaded records rebuild the same session.
	other := editor.NewSession(world.NewMap(0), army.DefaultCatalog(), nil)
	require.NoError(t, other.Load(sc.Map, sc.Wings))
	assert.Equal(t, s.Specs(), other.Specs())
	assert.Same(t, sc.Map, other.Map)
}

func TestSaveScenarioReplaces(t *testing.T) {
	db := openTestDB(t)
	s := testSession(t)
	require.NoError(t, db.SaveScenario(&Scenario{Name: "ford", Map: s.Map, Wings: s.Specs()}))

	require.NoError(t, s.RemoveWing("red"))
	require.NoError(t, db.SaveScenario(&Scenario{Name: "ford", Map: s.Map, Wings: s.Specs()}))

	sc, err := db.LoadScenario("ford")
	require.NoError(t, err)
	require.Len(t, sc.Wings, 1)
	assert.Equal(t, "blue", sc.Wings[0].Name)

	infos, err := db.ListScenarios()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Wings)
	assert.Equal(t, 2, infos[0].Units)
	assert.Equal(t, 3, infos[0].Radius)
}

func TestListAndDeleteScenarios(t *testing.T) {
	db := openTestDB(t)
	s := testSession(t)
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.SaveScenario(&Scenario{Name: "a", Map: s.Map, Wings: s.Specs(), SavedAt: older}))
	require.NoError(t, db.SaveScenario(&Scenario{Name: "b", Map: s.Map, SavedAt: older.Add(time.Hour)}))

	infos, err := db.ListScenarios()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "b", infos[0].Name)
	assert.Equal(t, "a", infos[1].Name)
	assert.Equal(t, 2, infos[1].Wings)

	require.NoError(t, db.DeleteScenario("a"))
	_, err = db.LoadScenario("a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteScenario("a"), ErrNotFound)

	var n int
	require.NoError(t, db.conn.Get(&n, "SELECT COUNT(*) FROM units WHERE scenario = 'a'"))
	assert.Zero(t, n)
}

func TestLoadRejectsUnknownNames(t *testing.T) {
	db := openTestDB(t)
	s := testSession(t)
	require.NoError(t, db.SaveScenario(&Scenario{Name: "bad", Map: s.Map, Wings: s.Specs()}))

	_, err := db.conn.Exec("UPDATE hexes SET terrain = 'SWAMP' WHERE scenario = 'bad' AND q = 0 AND r = 0")
	require.NoError(t, err)
	_, err = db.LoadScenario("bad")
	assert.ErrorContains(t, err, "SWAMP")

	_, err = db.conn.Exec("UPDATE hexes SET terrain = 'WATER' WHERE scenario = 'bad'")
	require.NoError(t, err)
	_, err = db.conn.Exec("UPDATE units SET status_json = '{\"cohesion\":\"SHAKEN\"}' WHERE scenario = 'bad'")
	require.NoError(t, err)
	_, err = db.LoadScenario("bad")
	assert.Error(t, err)
}

func TestSaveScenarioNeedsName(t *testing.T) {
	db := openTestDB(t)
	assert.Error(t, db.SaveScenario(&Scenario{Map: world.NewMap(1)}))
}

func TestEventsAndMeta(t *testing.T) {
	db := openTestDB(t)
	s := testSession(t)
	require.NoError(t, db.SaveEvents("ford", s.Events(0)))

	recent, err := db.RecentEvents("ford", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Greater(t, recent[0].Seq, recent[1].Seq)

	_, err = db.GetMeta("last_scenario")
	assert.Error(t, err)
	require.NoError(t, db.SaveMeta("last_scenario", "ford"))
	require.NoError(t, db.SaveMeta("last_scenario", "pass"))
	v, err := db.GetMeta("last_scenario")
	require.NoError(t, err)
	assert.Equal(t, "pass", v)
}

func TestSaveEventsReplacesLog(t *testing.T) {
	db := openTestDB(t)
	s := testSession(t)
	events := s.Events(0)

	for range 3 {
		require.NoError(t, db.SaveEvents("ford", events))
	}
	stored, err := db.RecentEvents("ford", 1000)
	require.NoError(t, err)
	assert.Len(t, stored, len(events))

	require.NoError(t, db.SaveEvents("ford", nil))
	stored, err = db.RecentEvents("ford", 1000)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestHistoryResumesSession(t *testing.T) {
	db := openTestDB(t)
	s := testSession(t)
	events := s.Events(0)
	require.NoError(t, db.SaveScenario(&Scenario{Name: "ford", Map: s.Map, Wings: s.Specs()}))
	require.NoError(t, db.SaveEvents("ford", events))

	history, err := db.History("ford", editor.MaxEvents)
	require.NoError(t, err)
	require.Len(t, history, len(events))
	assert.Equal(t, events[0].Seq, history[0].Seq)
	assert.Equal(t, events[0].Description, history[0].Description)

	sc, err := db.LoadScenario("ford")
	require.NoError(t, err)
	other := editor.NewSession(world.NewMap(0), army.DefaultCatalog(), nil)
	require.NoError(t, other.Resume(sc.Map, sc.Wings, history))

	resumed := other.Events(0)
	require.Len(t, resumed, len(events)+1)
	last := resumed[len(resumed)-1]
	assert.Equal(t, events[len(events)-1].Seq+1, last.Seq)
	assert.Equal(t, "scenario loaded with 2 wings", last.Description)
}
