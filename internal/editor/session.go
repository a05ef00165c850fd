// Package editor is the scenario editing session: it owns the battlefield, the
// wings and the undo history, and performs every mutation the UI asks for.
package editor

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/dustin/go-humanize/english"
	"github.com/google/uuid"

	"github.com/talgya/hexwar/internal/army"
	"github.com/talgya/hexwar/internal/memento"
	"github.com/talgya/hexwar/internal/world"
)

// MaxEvents bounds the in-memory event log.
const MaxEvents = 1000

// Event is a notable change in the session.
type Event struct {
	Seq         uint64         `json:"seq"`
	Description string         `json:"description"`
	Category    string         `json:"category"` // "unit", "status", "wing", "map", "history"
	Meta        map[string]any `json:"meta,omitempty"`
}

// Listener receives every event as it is emitted.
type Listener func(Event)

// Session is one editing session. It is not safe for concurrent use; callers
// serialise access.
type Session struct {
	Map     *world.Map
	Catalog *army.Catalog

	wings     []*army.Wing
	history   *memento.Stack
	events    []Event
	seq       uint64
	listeners map[int]Listener
	nextID    int
	logger    *slog.Logger
}

type sessionState struct {
	wings []*army.Wing
}

// NewSession starts a session on m with the unit types of c.
func NewSession(m *world.Map, c *army.Catalog, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		Map:       m,
		Catalog:   c,
		history:   memento.NewStack(logger),
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Snapshot captures the wing list. Wings and units capture themselves.
func (s *Session) Snapshot() any {
	return sessionState{wings: slices.Clone(s.wings)}
}

// Restore puts back a wing list captured by Snapshot.
func (s *Session) Restore(snapshot any) {
	s.wings = slices.Clone(snapshot.(sessionState).wings)
}

// Subscribe registers l for future events and returns a function removing it.
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() { delete(s.listeners, id) }
}

// Events returns up to n of the most recent events, oldest first.
func (s *Session) Events(n int) []Event {
	if n <= 0 || n > len(s.events) {
		n = len(s.events)
	}
	return slices.Clone(s.events[len(s.events)-n:])
}

func (s *Session) emit(category, desc string, meta map[string]any) {
	s.seq++
	e := Event{Seq: s.seq, Description: desc, Category: category, Meta: meta}
	s.events = append(s.events, e)
	if len(s.events) > MaxEvents {
		s.events = s.events[len(s.events)-MaxEvents:]
	}
	for _, l := range s.listeners {
		l(e)
	}
	s.logger.Debug("editor event", "category", category, "description", desc)
}

func unitMeta(u *army.Unit) map[string]any {
	return map[string]any{"unit": u.ID().String(), "wing": u.Wing().Name(), "type": u.Type().Name()}
}

// Wings

// Wings returns the wings in creation order.
func (s *Session) Wings() []*army.Wing {
	return slices.Clone(s.wings)
}

// Wing returns the named wing, or nil.
func (s *Session) Wing(name string) *army.Wing {
	for _, w := range s.wings {
		if w.Name() == name {
			return w
		}
	}
	return nil
}

// AddWing creates an empty wing.
func (s *Session) AddWing(name string) (*army.Wing, error) {
	if name == "" {
		return nil, fmt.Errorf("wing name is empty")
	}
	if s.Wing(name) != nil {
		return nil, fmt.Errorf("wing %q already exists", name)
	}
	w := army.NewWing(name)
	s.history.Transaction(func() {
		s.history.Register(s)
		s.wings = append(s.wings, w)
	})
	s.emit("wing", fmt.Sprintf("wing %s raised", name), map[string]any{"wing": name})
	return w, nil
}

// RemoveWing disbands a wing with all its units.
func (s *Session) RemoveWing(name string) error {
	i := slices.IndexFunc(s.wings, func(w *army.Wing) bool { return w.Name() == name })
	if i < 0 {
		return fmt.Errorf("wing %q not found", name)
	}
	s.history.Transaction(func() {
		s.history.Register(s)
		s.wings = slices.Delete(s.wings, i, i+1)
	})
	s.emit("wing", fmt.Sprintf("wing %s disbanded", name), map[string]any{"wing": name})
	return nil
}

// Units

// CreateUnit builds an off-map unit for w. Nothing changes until the unit is
// appended to the map.
func (s *Session) CreateUnit(w *army.Wing, t *army.UnitType, steps int) *army.Unit {
	return army.NewUnit(t, w, steps)
}

// AppendToMap places u at loc and adds it to its wing, in one undo step.
func (s *Session) AppendToMap(u *army.Unit, loc army.Location, angle int) {
	s.history.Transaction(func() {
		s.history.Register(u)
		s.history.Register(u.Wing())
		u.Place(loc, angle)
		u.Wing().AppendUnit(u)
	})
	s.emit("unit", fmt.Sprintf("%s placed at %s", u.Type().Name(), loc), unitMeta(u))
}

// DeleteFromMap lifts u off the map and removes it from its wing.
func (s *Session) DeleteFromMap(u *army.Unit) {
	s.history.Transaction(func() {
		s.history.Register(u)
		s.history.Register(u.Wing())
		u.Wing().RemoveUnit(u)
		u.Lift()
	})
	s.emit("unit", fmt.Sprintf("%s removed", u.Type().Name()), unitMeta(u))
}

// MoveUnit takes u off its location and puts it down at loc facing angle.
// Undo restores the previous placement exactly.
func (s *Session) MoveUnit(u *army.Unit, loc army.Location, angle int) {
	from := u.Location()
	s.history.Transaction(func() {
		s.history.Register(u)
		u.Lift()
		u.Place(loc, angle)
	})
	s.emit("unit", fmt.Sprintf("%s moved from %s to %s", u.Type().Name(), from, loc), unitMeta(u))
}

// RotateUnit changes the facing of u.
func (s *Session) RotateUnit(u *army.Unit, angle int) {
	s.history.Transaction(func() {
		s.history.Register(u)
		u.SetAngle(angle)
	})
	s.emit("unit", fmt.Sprintf("%s now faces %d", u.Type().Name(), u.Angle()), unitMeta(u))
}

// UnitsAt returns the on-map units covering c.
func (s *Session) UnitsAt(c world.HexCoord) []*army.Unit {
	var out []*army.Unit
	for _, w := range s.wings {
		for _, u := range w.Units() {
			if u.OnMap() && u.Location().Covers(c) {
				out = append(out, u)
			}
		}
	}
	return out
}

// FindUnit looks a unit up by ID across all wings.
func (s *Session) FindUnit(id uuid.UUID) *army.Unit {
	for _, w := range s.wings {
		for _, u := range w.Units() {
			if u.ID() == id {
				return u
			}
		}
	}
	return nil
}

// History

// Undo reverts the last action. Returns false when there is none.
func (s *Session) Undo() bool {
	if !s.history.Undo() {
		return false
	}
	s.emit("history", "undo", nil)
	return true
}

// Redo re-applies the last undone action. Returns false when there is none.
func (s *Session) Redo() bool {
	if !s.history.Redo() {
		return false
	}
	s.emit("history", "redo", nil)
	return true
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// ClearHistory forgets every undo and redo step.
func (s *Session) ClearHistory() {
	s.history.Clear()
}

// Specs records every wing.
func (s *Session) Specs() []army.WingSpec {
	specs := make([]army.WingSpec, len(s.wings))
	for i, w := range s.wings {
		specs[i] = w.ToSpec()
	}
	return specs
}

// LoadSpecs replaces all wings and starts a fresh history. Nothing changes
// when any record is rejected.
func (s *Session) LoadSpecs(specs []army.WingSpec) error {
	return s.Load(s.Map, specs)
}

// Load replaces the battlefield and all wings, and starts a fresh history.
// Nothing changes when any record is rejected.
func (s *Session) Load(m *world.Map, specs []army.WingSpec) error {
	return s.load(m, specs, false, nil)
}

// Resume is Load for a stored scenario: the event log is replaced by history
// (oldest first) and numbering continues after its last event.
func (s *Session) Resume(m *world.Map, specs []army.WingSpec, history []Event) error {
	return s.load(m, specs, true, history)
}

func (s *Session) load(m *world.Map, specs []army.WingSpec, replaceLog bool, history []Event) error {
	if m == nil {
		return fmt.Errorf("no battlefield")
	}
	wings := make([]*army.Wing, 0, len(specs))
	names := make(map[string]bool)
	ids := make(map[uuid.UUID]bool)
	for _, spec := range specs {
		if names[spec.Name] {
			return fmt.Errorf("duplicate wing %q", spec.Name)
		}
		names[spec.Name] = true
		w, err := army.WingFromSpec(spec, s.Catalog)
		if err != nil {
			return err
		}
		for _, u := range w.Units() {
			if ids[u.ID()] {
				return fmt.Errorf("unit %s appears in more than one wing", u.ID())
			}
			ids[u.ID()] = true
		}
		wings = append(wings, w)
	}
	s.Map = m
	s.wings = wings
	s.history.Clear()
	if replaceLog {
		if len(history) > MaxEvents-1 {
			history = history[len(history)-(MaxEvents-1):]
		}
		s.events = slices.Clone(history)
		s.seq = 0
		if n := len(history); n > 0 {
			s.seq = history[n-1].Seq
		}
	}
	s.emit("history", "scenario loaded with "+english.Plural(len(wings), "wing", ""), nil)
	s.logger.Info("scenario loaded", "wings", len(wings), "hexes", m.HexCount(), "events", len(s.events))
	return nil
}
