package actuator

import (
	"errors"
	"log/slog"

	"github.com/talgya/hexwar/internal/army"
)

// ErrClosed is returned when committing through an actuator that was closed.
var ErrClosed = errors.New("actuator closed")

// Actuator is one open interaction on the board.
type Actuator interface {
	Name() string
	Close()
	Closed() bool
}

// base carries the open/closed state shared by all actuators.
type base struct {
	closed bool
}

func (b *base) Close()       { b.closed = true }
func (b *base) Closed() bool { return b.closed }

// Manager keeps at most one set of actuators open, with the unit it was
// opened for.
type Manager struct {
	open     []Actuator
	selected *army.Unit
	logger   *slog.Logger
}

// NewManager creates a manager with nothing open. A nil logger uses slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// Open closes the current set and opens a new one. selected may be nil, as
// when creating units.
func (m *Manager) Open(selected *army.Unit, actuators ...Actuator) {
	m.Cancel()
	m.open = actuators
	m.selected = selected
	m.logger.Debug("actuators opened", "count", len(actuators))
}

// Cancel closes every open actuator without committing anything.
func (m *Manager) Cancel() {
	if len(m.open) == 0 && m.selected == nil {
		return
	}
	for _, a := range m.open {
		a.Close()
	}
	m.logger.Debug("actuators closed", "count", len(m.open))
	m.open = nil
	m.selected = nil
}

// HandleKey reacts to a key press. Escape cancels; the return value tells
// whether the key was consumed.
func (m *Manager) HandleKey(key string) bool {
	if key != "Escape" {
		return false
	}
	m.Cancel()
	return true
}

// Selected returns the unit the open set works on, or nil.
func (m *Manager) Selected() *army.Unit { return m.selected }

// Actuators returns the open set.
func (m *Manager) Actuators() []Actuator { return append([]Actuator(nil), m.open...) }

// IsOpen reports whether any actuator is open.
func (m *Manager) IsOpen() bool { return len(m.open) > 0 }
