package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/world"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTypes(t *testing.T) {
	out, err := run(t, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "8 unit types")
	for _, name := range []string{"Knights", "Men-at-Arms", "Wizard"} {
		assert.Contains(t, out, name)
	}
}

func TestProfile(t *testing.T) {
	out, err := run(t, "profile", "Men-at-Arms")
	require.NoError(t, err)
	assert.Contains(t, out, "3rd step")
	assert.Contains(t, out, "1st step")

	_, err = run(t, "profile", "Dragon")
	assert.ErrorContains(t, err, "no unit type")

	_, err = run(t, "profile")
	assert.Error(t, err)
}

func TestCosts(t *testing.T) {
	out, err := run(t, "costs", "--capacity", "advantaged")
	require.NoError(t, err)
	assert.Contains(t, out, "Terrain (ADVANTAGED)")
	assert.Contains(t, out, "LAVA")
	assert.Contains(t, out, "WALL")
	assert.Contains(t, out, "formation")

	_, err = run(t, "costs", "--capacity", "legendary")
	assert.Error(t, err)
}

func TestArmyFileFlag(t *testing.T) {
	_, err := run(t, "types", "--army", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.db")
	db, err := persistence.Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveScenario(&persistence.Scenario{Name: "crossing", Map: world.NewFilledMap(2, world.TerrainWater)}))
	require.NoError(t, db.Close())

	out, err := run(t, "scenarios", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 scenario saved")
	assert.Contains(t, out, "crossing")

	_, err = run(t, "scenarios", "--db", filepath.Join(t.TempDir(), "none.db"))
	assert.Error(t, err)
}
