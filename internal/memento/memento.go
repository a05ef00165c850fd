// Package memento provides linear undo/redo over arbitrary mutable entities.
//
// Entities opt in by implementing Originator. Call sites register an entity
// right before mutating it; the stack snapshots it once per batch. A batch is
// the unit of undo: one user action, however many entities it touches.
package memento

import "log/slog"

// Originator is an entity whose observable state can be captured and put back.
// Implementations must be comparable (pointer receivers) so registrations can
// be coalesced.
type Originator interface {
	Snapshot() any
	Restore(snapshot any)
}

type entry struct {
	owner Originator
	state any
}

type batch []entry

func (b batch) contains(o Originator) bool {
	for _, e := range b {
		if e.owner == o {
			return true
		}
	}
	return false
}

// Stack holds the undo and redo histories of one editing session.
// It is not safe for concurrent use; the engine runs on a single thread.
type Stack struct {
	undo   []batch
	redo   []batch
	open   bool // the top of undo is the batch being filled
	logger *slog.Logger
}

// NewStack creates an empty stack. A nil logger uses slog.Default().
func NewStack(logger *slog.Logger) *Stack {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stack{logger: logger}
}

// Open ends the current batch; the next registration starts a new one. The
// new batch is only pushed once something registers in it.
func (s *Stack) Open() {
	s.open = false
}

// Register snapshots o into the current batch unless it is already part of it.
// Starting a batch discards the redo history.
func (s *Stack) Register(o Originator) {
	if !s.open {
		s.undo = append(s.undo, nil)
		s.open = true
		if len(s.redo) > 0 {
			s.logger.Debug("redo history discarded", "batches", len(s.redo))
			s.redo = nil
		}
	}
	top := len(s.undo) - 1
	if s.undo[top].contains(o) {
		return
	}
	s.undo[top] = append(s.undo[top], entry{owner: o, state: o.Snapshot()})
}

// Transaction runs fn inside its own batch.
func (s *Stack) Transaction(fn func()) {
	s.Open()
	defer s.Open()
	fn()
}

// Undo reverts the most recent batch. Returns false when there is nothing to undo.
func (s *Stack) Undo() bool {
	s.open = false
	b, ok := pop(&s.undo)
	if !ok {
		return false
	}
	s.redo = append(s.redo, revert(b))
	s.logger.Debug("undo", "entities", len(b), "undo_depth", len(s.undo), "redo_depth", len(s.redo))
	return true
}

// Redo re-applies the most recently undone batch. Returns false when there is
// nothing to redo.
func (s *Stack) Redo() bool {
	s.open = false
	b, ok := pop(&s.redo)
	if !ok {
		return false
	}
	s.undo = append(s.undo, revert(b))
	s.logger.Debug("redo", "entities", len(b), "undo_depth", len(s.undo), "redo_depth", len(s.redo))
	return true
}

// Clear drops both histories.
func (s *Stack) Clear() {
	s.undo = nil
	s.redo = nil
	s.open = false
}

// CanUndo reports whether Undo would do anything.
func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

// UndoDepth returns the number of undoable batches.
func (s *Stack) UndoDepth() int { return len(s.undo) }

// RedoDepth returns the number of redoable batches.
func (s *Stack) RedoDepth() int { return len(s.redo) }

func pop(stack *[]batch) (batch, bool) {
	n := len(*stack)
	if n == 0 {
		return nil, false
	}
	b := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return b, true
}

// revert restores every entry of b and returns the batch that undoes the revert.
// Entries are restored newest first so that an entity registered twice across
// nested owners ends up in its oldest captured state.
func revert(b batch) batch {
	inverse := make(batch, len(b))
	for i, e := range b {
		inverse[i] = entry{owner: e.owner, state: e.owner.Snapshot()}
	}
	for i := len(b) - 1; i >= 0; i-- {
		b[i].owner.Restore(b[i].state)
	}
	return inverse
}
