// Package persistence provides SQLite-based scenario storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexwar/internal/army"
	"github.com/talgya/hexwar/internal/editor"
	"github.com/talgya/hexwar/internal/world"
)

// ErrNotFound is returned when a scenario does not exist.
var ErrNotFound = errors.New("scenario not found")

// timeLayout sorts lexically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB wraps a SQLite connection for scenario persistence.
type DB struct {
	conn *sqlx.DB
}

// Scenario is a saved battlefield with its armies.
type Scenario struct {
	Name    string
	Map     *world.Map
	Wings   []army.WingSpec
	SavedAt time.Time
}

// ScenarioInfo summarises a stored scenario.
type ScenarioInfo struct {
	Name    string    `db:"name" json:"name"`
	Radius  int       `db:"radius" json:"radius"`
	Wings   int       `db:"wings" json:"wings"`
	Units   int       `db:"units" json:"units"`
	SavedAt time.Time `db:"-" json:"saved_at"`
	Stamp   string    `db:"saved_at" json:"-"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scenarios (
		name TEXT PRIMARY KEY,
		radius INTEGER NOT NULL,
		saved_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hexes (
		scenario TEXT NOT NULL REFERENCES scenarios(name) ON DELETE CASCADE,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		terrain TEXT NOT NULL,
		height INTEGER NOT NULL,
		PRIMARY KEY (scenario, q, r)
	);

	CREATE TABLE IF NOT EXISTS hex_sides (
		scenario TEXT NOT NULL REFERENCES scenarios(name) ON DELETE CASCADE,
		aq INTEGER NOT NULL,
		ar INTEGER NOT NULL,
		bq INTEGER NOT NULL,
		br INTEGER NOT NULL,
		edge TEXT NOT NULL,
		PRIMARY KEY (scenario, aq, ar, bq, br)
	);

	CREATE TABLE IF NOT EXISTS wings (
		scenario TEXT NOT NULL REFERENCES scenarios(name) ON DELETE CASCADE,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		order_instruction TEXT NOT NULL,
		leader TEXT NOT NULL,
		PRIMARY KEY (scenario, name)
	);

	CREATE TABLE IF NOT EXISTS units (
		scenario TEXT NOT NULL REFERENCES scenarios(name) ON DELETE CASCADE,
		id TEXT NOT NULL,
		wing TEXT NOT NULL,
		position INTEGER NOT NULL,
		type TEXT NOT NULL,
		steps INTEGER NOT NULL,
		on_map INTEGER NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		side INTEGER NOT NULL,
		q2 INTEGER NOT NULL,
		r2 INTEGER NOT NULL,
		angle INTEGER NOT NULL,
		status_json TEXT NOT NULL,
		PRIMARY KEY (scenario, id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scenario TEXT NOT NULL,
		seq INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_units_wing ON units(scenario, wing);
	CREATE INDEX IF NOT EXISTS idx_events_scenario ON events(scenario);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type hexRow struct {
	Q       int    `db:"q"`
	R       int    `db:"r"`
	Terrain string `db:"terrain"`
	Height  int    `db:"height"`
}

type sideRow struct {
	AQ   int    `db:"aq"`
	AR   int    `db:"ar"`
	BQ   int    `db:"bq"`
	BR   int    `db:"br"`
	Edge string `db:"edge"`
}

type wingRow struct {
	Name   string `db:"name"`
	Order  string `db:"order_instruction"`
	Leader string `db:"leader"`
}

type unitRow struct {
	ID         string `db:"id"`
	Wing       string `db:"wing"`
	Type       string `db:"type"`
	Steps      int    `db:"steps"`
	OnMap      bool   `db:"on_map"`
	Q          int    `db:"q"`
	R          int    `db:"r"`
	Side       bool   `db:"side"`
	Q2         int    `db:"q2"`
	R2         int    `db:"r2"`
	Angle      int    `db:"angle"`
	StatusJSON string `db:"status_json"`
}

// statusRecord is the status_json column.
type statusRecord struct {
	Tiredness     army.Tiredness   `json:"tiredness"`
	Cohesion      army.Cohesion    `json:"cohesion"`
	Munitions     army.Munitions   `json:"munitions"`
	Engaging      bool             `json:"engaging"`
	Charging      army.ChargeState `json:"charging"`
	OrderReceived bool             `json:"order_received"`
	Played        bool             `json:"played"`
}

// SaveScenario writes a scenario, replacing any scenario of the same name.
func (db *DB) SaveScenario(sc *Scenario) error {
	if sc.Name == "" {
		return errors.New("scenario has no name")
	}
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM scenarios WHERE name = ?", sc.Name); err != nil {
		return err
	}
	savedAt := sc.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	if _, err := tx.Exec("INSERT INTO scenarios (name, radius, saved_at) VALUES (?, ?, ?)",
		sc.Name, sc.Map.Radius, savedAt.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("insert scenario: %w", err)
	}

	hexStmt, err := tx.Preparex("INSERT INTO hexes (scenario, q, r, terrain, height) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer hexStmt.Close()
	for c, h := range sc.Map.Hexes {
		if _, err := hexStmt.Exec(sc.Name, c.Q, c.R, h.Terrain.String(), h.Height); err != nil {
			return fmt.Errorf("insert hex %s: %w", c, err)
		}
	}

	for k, s := range sc.Map.Sides {
		if _, err := tx.Exec("INSERT INTO hex_sides (scenario, aq, ar, bq, br, edge) VALUES (?, ?, ?, ?, ?, ?)",
			sc.Name, k.A.Q, k.A.R, k.B.Q, k.B.R, s.Type.String()); err != nil {
			return fmt.Errorf("insert side %s|%s: %w", k.A, k.B, err)
		}
	}

	unitStmt, err := tx.Preparex(`INSERT INTO units
		(scenario, id, wing, position, type, steps, on_map, q, r, side, q2, r2, angle, status_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer unitStmt.Close()

	for wi, w := range sc.Wings {
		if _, err := tx.Exec("INSERT INTO wings (scenario, name, position, order_instruction, leader) VALUES (?, ?, ?, ?, ?)",
			sc.Name, w.Name, wi, w.Order.String(), w.Leader); err != nil {
			return fmt.Errorf("insert wing %s: %w", w.Name, err)
		}
		for ui, u := range w.Units {
			status, err := json.Marshal(statusRecord{
				Tiredness:     u.Tiredness,
				Cohesion:      u.Cohesion,
				Munitions:     u.Munitions,
				Engaging:      u.Engaging,
				Charging:      u.Charging,
				OrderReceived: u.OrderReceived,
				Played:        u.Played,
			})
			if err != nil {
				return fmt.Errorf("unit %s status: %w", u.ID, err)
			}
			_, err = unitStmt.Exec(sc.Name, u.ID, w.Name, ui, u.Type, u.Steps, u.OnMap,
				u.Q, u.R, u.Side, u.Q2, u.R2, u.Angle, string(status))
			if err != nil {
				return fmt.Errorf("insert unit %s: %w", u.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("scenario saved", "name", sc.Name, "hexes", len(sc.Map.Hexes), "wings", len(sc.Wings))
	return nil
}

// LoadScenario reads a scenario back. Unknown terrain, edge or status names
// are load errors.
func (db *DB) LoadScenario(name string) (*Scenario, error) {
	var head struct {
		Radius  int    `db:"radius"`
		SavedAt string `db:"saved_at"`
	}
	err := db.conn.Get(&head, "SELECT radius, saved_at FROM scenarios WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	sc := &Scenario{Name: name, Map: world.NewMap(head.Radius)}
	if sc.SavedAt, err = time.Parse(timeLayout, head.SavedAt); err != nil {
		return nil, fmt.Errorf("saved_at: %w", err)
	}

	var hexes []hexRow
	if err := db.conn.Select(&hexes, "SELECT q, r, terrain, height FROM hexes WHERE scenario = ?", name); err != nil {
		return nil, err
	}
	for _, h := range hexes {
		t, err := world.ParseTerrain(h.Terrain)
		if err != nil {
			return nil, fmt.Errorf("hex %d,%d: %w", h.Q, h.R, err)
		}
		sc.Map.Set(&world.Hex{Coord: world.HexCoord{Q: h.Q, R: h.R}, Terrain: t, Height: h.Height})
	}

	var sides []sideRow
	if err := db.conn.Select(&sides, "SELECT aq, ar, bq, br, edge FROM hex_sides WHERE scenario = ?", name); err != nil {
		return nil, err
	}
	for _, s := range sides {
		e, err := world.ParseEdgeType(s.Edge)
		if err != nil {
			return nil, fmt.Errorf("side %d,%d|%d,%d: %w", s.AQ, s.AR, s.BQ, s.BR, err)
		}
		if err := sc.Map.SetSide(world.HexCoord{Q: s.AQ, R: s.AR}, world.HexCoord{Q: s.BQ, R: s.BR}, e); err != nil {
			return nil, err
		}
	}

	var wings []wingRow
	if err := db.conn.Select(&wings, "SELECT name, order_instruction, leader FROM wings WHERE scenario = ? ORDER BY position", name); err != nil {
		return nil, err
	}
	for _, w := range wings {
		spec := army.WingSpec{Name: w.Name, Leader: w.Leader, Units: []army.UnitSpec{}}
		if err := spec.Order.UnmarshalText([]byte(w.Order)); err != nil {
			return nil, fmt.Errorf("wing %s: %w", w.Name, err)
		}
		var units []unitRow
		if err := db.conn.Select(&units, `SELECT id, wing, type, steps, on_map, q, r, side, q2, r2, angle, status_json
			FROM units WHERE scenario = ? AND wing = ? ORDER BY position`, name, w.Name); err != nil {
			return nil, err
		}
		for _, u := range units {
			var st statusRecord
			if err := json.Unmarshal([]byte(u.StatusJSON), &st); err != nil {
				return nil, fmt.Errorf("unit %s status: %w", u.ID, err)
			}
			spec.Units = append(spec.Units, army.UnitSpec{
				ID: u.ID, Type: u.Type, Wing: u.Wing, Steps: u.Steps, OnMap: u.OnMap,
				Q: u.Q, R: u.R, Side: u.Side, Q2: u.Q2, R2: u.R2, Angle: u.Angle,
				Tiredness: st.Tiredness, Cohesion: st.Cohesion, Munitions: st.Munitions,
				Engaging: st.Engaging, Charging: st.Charging,
				OrderReceived: st.OrderReceived, Played: st.Played,
			})
		}
		sc.Wings = append(sc.Wings, spec)
	}
	return sc, nil
}

// ListScenarios summarises every stored scenario, newest first.
func (db *DB) ListScenarios() ([]ScenarioInfo, error) {
	var infos []ScenarioInfo
	err := db.conn.Select(&infos, `SELECT s.name, s.radius, s.saved_at,
		(SELECT COUNT(*) FROM wings w WHERE w.scenario = s.name) AS wings,
		(SELECT COUNT(*) FROM units u WHERE u.scenario = s.name) AS units
		FROM scenarios s ORDER BY s.saved_at DESC, s.name`)
	if err != nil {
		return nil, err
	}
	for i := range infos {
		if infos[i].SavedAt, err = time.Parse(timeLayout, infos[i].Stamp); err != nil {
			return nil, fmt.Errorf("scenario %s saved_at: %w", infos[i].Name, err)
		}
	}
	return infos, nil
}

// DeleteScenario removes a scenario and everything in it.
func (db *DB) DeleteScenario(name string) error {
	res, err := db.conn.Exec("DELETE FROM scenarios WHERE name = ?", name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if _, err := db.conn.Exec("DELETE FROM events WHERE scenario = ?", name); err != nil {
		return err
	}
	return nil
}

// SaveEvents replaces a scenario's stored event log with events.
func (db *DB) SaveEvents(scenario string, events []editor.Event) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events WHERE scenario = ?", scenario); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	stmt, err := tx.Preparex("INSERT INTO events (scenario, seq, description, category) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range events {
		if _, err := stmt.Exec(scenario, e.Seq, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events of a scenario, newest first.
func (db *DB) RecentEvents(scenario string, limit int) ([]editor.Event, error) {
	var events []editor.Event
	err := db.conn.Select(&events,
		"SELECT seq, description, category FROM events WHERE scenario = ? ORDER BY seq DESC LIMIT ?",
		scenario, limit,
	)
	return events, err
}

// History returns the last limit events of a scenario, oldest first, ready
// for editor.Session.Resume.
func (db *DB) History(scenario string, limit int) ([]editor.Event, error) {
	events, err := db.RecentEvents(scenario, limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(events)
	return events, nil
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}
