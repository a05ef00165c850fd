package memento

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	value int
	tag   string
}

type counterState struct {
	value int
	tag   string
}

func (c *counter) Snapshot() any { return counterState{value: c.value, tag: c.tag} }

func (c *counter) Restore(s any) {
	st := s.(counterState)
	c.value, c.tag = st.value, st.tag
}

func TestUndoRestoresBatch(t *testing.T) {
	s := NewStack(nil)
	a, b := &counter{value: 1}, &counter{value: 10}

	s.Transaction(func() {
		s.Register(a)
		s.Register(b)
		a.value, b.value = 2, 20
	})

	require.True(t, s.Undo())
	assert.Equal(t, 1, a.value)
	assert.Equal(t, 10, b.value)
	assert.False(t, s.CanUndo())
	assert.True(t, s.CanRedo())
}

func TestRegistrationsAreCoalescedWithinBatch(t *testing.T) {
	s := NewStack(nil)
	a := &counter{value: 1}

	s.Open()
	s.Register(a)
	a.value = 2
	s.Register(a)
	a.value = 3

	require.Equal(t, 1, s.UndoDepth())
	s.Undo()
	assert.Equal(t, 1, a.value, "intermediate state is not individually undoable")
}

func TestEachOpenStartsNewBatch(t *testing.T) {
	s := NewStack(nil)
	a := &counter{}

	for i := 1; i <= 3; i++ {
		s.Open()
		s.Register(a)
		a.value = i
	}
	assert.Equal(t, 3, s.UndoDepth())

	s.Undo()
	assert.Equal(t, 2, a.value)
	s.Undo()
	assert.Equal(t, 1, a.value)
}

func TestOpenWithoutRegistrationPushesNothing(t *testing.T) {
	s := NewStack(nil)
	s.Open()
	s.Open()
	assert.Equal(t, 0, s.UndoDepth())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := NewStack(nil)
	a, b := &counter{}, &counter{}

	mutations := []func(){
		func() { s.Register(a); a.value = 5 },
		func() { s.Register(b); b.tag = "x" },
		func() { s.Register(a); s.Register(b); a.value, b.value = 7, 9 },
		func() { s.Register(a); a.tag = "final" },
	}
	for _, m := range mutations {
		s.Transaction(m)
	}
	finalA, finalB := *a, *b

	for range mutations {
		require.True(t, s.Undo())
	}
	assert.Equal(t, counter{}, *a)
	assert.Equal(t, counter{}, *b)

	for range mutations {
		require.True(t, s.Redo())
	}
	assert.Equal(t, finalA, *a)
	assert.Equal(t, finalB, *b)
}

func TestNewMutationDiscardsRedo(t *testing.T) {
	s := NewStack(nil)
	a := &counter{}

	s.Transaction(func() { s.Register(a); a.value = 1 })
	s.Transaction(func() { s.Register(a); a.value = 2 })
	s.Undo()
	require.True(t, s.CanRedo())

	s.Transaction(func() { s.Register(a); a.value = 42 })
	assert.False(t, s.CanRedo())
	assert.False(t, s.Redo())
	assert.Equal(t, 42, a.value)

	s.Undo()
	assert.Equal(t, 1, a.value)
}

func TestUndoRedoOnEmptyStacksAreNoOps(t *testing.T) {
	s := NewStack(nil)
	assert.False(t, s.Undo())
	assert.False(t, s.Redo())

	a := &counter{value: 3}
	s.Transaction(func() { s.Register(a); a.value = 4 })
	s.Clear()
	assert.False(t, s.Undo())
	assert.Equal(t, 4, a.value)
}

func TestUndoClosesOpenBatch(t *testing.T) {
	s := NewStack(nil)
	a := &counter{}

	s.Open()
	s.Register(a)
	a.value = 1
	s.Undo()

	// A registration after undo must start a new batch rather than extend a popped one.
	s.Register(a)
	a.value = 5
	assert.Equal(t, 1, s.UndoDepth())
	assert.False(t, s.CanRedo())
	s.Undo()
	assert.Equal(t, 0, a.value)
}

func TestIndependentStacks(t *testing.T) {
	s1, s2 := NewStack(nil), NewStack(nil)
	a := &counter{}

	s1.Transaction(func() { s1.Register(a); a.value = 1 })
	assert.False(t, s2.Undo())
	assert.Equal(t, 1, a.value)
}
