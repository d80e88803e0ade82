package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRedoRoundTrip(t *testing.T) {
	value := 0
	m := NewManager(nil, nil)

	value = 1
	m.Perform(Action{
		Label: "set to 1",
		Undo:  func(ctx context.Context) error { value = 0; return nil },
		Redo:  func(ctx context.Context) error { value = 1; return nil },
	})

	require.NoError(t, m.Undo(context.Background()))
	assert.Equal(t, 0, value)
	assert.True(t, m.CanRedo())

	require.NoError(t, m.Redo(context.Background()))
	assert.Equal(t, 1, value)
	assert.False(t, m.CanRedo())
	assert.True(t, m.CanUndo())
}

func TestUndoOnEmptyStackIsNoop(t *testing.T) {
	m := NewManager(nil, nil)
	assert.NoError(t, m.Undo(context.Background()))
	assert.NoError(t, m.Redo(context.Background()))
}

func TestPerformClearsRedoStack(t *testing.T) {
	m := NewManager(nil, nil)
	noop := func(ctx context.Context) error { return nil }

	m.Perform(Action{Label: "a", Undo: noop, Redo: noop})
	require.NoError(t, m.Undo(context.Background()))
	assert.True(t, m.CanRedo())

	m.Perform(Action{Label: "b", Undo: noop, Redo: noop})
	assert.False(t, m.CanRedo(), "a new edit discards redo history")

	undo, redo := m.Depths()
	assert.Equal(t, 1, undo)
	assert.Equal(t, 0, redo)
}

func TestFailedUndoLeavesStacksIntact(t *testing.T) {
	m := NewManager(nil, nil)
	boom := errors.New("backend down")

	m.Perform(Action{
		Label: "doomed",
		Undo:  func(ctx context.Context) error { return boom },
		Redo:  func(ctx context.Context) error { return nil },
	})

	err := m.Undo(context.Background())
	assert.ErrorIs(t, err, boom)

	undo, redo := m.Depths()
	assert.Equal(t, 1, undo, "failed action stays on the undo stack")
	assert.Equal(t, 0, redo)

	// The busy flag must be released so later operations are not blocked.
	assert.ErrorIs(t, m.Undo(context.Background()), boom)
}

func TestRefreshRunsAfterSuccessfulReplay(t *testing.T) {
	refreshed := 0
	m := NewManager(func(ctx context.Context) error { refreshed++; return nil }, nil)
	noop := func(ctx context.Context) error { return nil }

	m.Perform(Action{Label: "x", Undo: noop, Redo: noop})
	require.NoError(t, m.Undo(context.Background()))
	require.NoError(t, m.Redo(context.Background()))
	assert.Equal(t, 2, refreshed)
}

func TestReplayObserverSeesEveryOutcome(t *testing.T) {
	m := NewManager(nil, nil)
	var seen []string
	m.SetReplayObserver(func(op, status string) {
		seen = append(seen, op+":"+status)
	})

	noop := func(ctx context.Context) error { return nil }
	m.Perform(Action{Label: "rename", Undo: noop, Redo: noop})
	require.NoError(t, m.Undo(context.Background()))
	require.NoError(t, m.Redo(context.Background()))

	m.Perform(Action{
		Label: "doomed",
		Undo:  func(ctx context.Context) error { return errors.New("backend down") },
		Redo:  noop,
	})
	require.Error(t, m.Undo(context.Background()))

	assert.Equal(t, []string{"undo:success", "redo:success", "undo:error"}, seen)

	// Empty-stack no-ops replay nothing and must not be counted.
	require.NoError(t, m.Redo(context.Background()))
	require.NoError(t, m.Redo(context.Background()))
	assert.Len(t, seen, 3)
}

func TestReset(t *testing.T) {
	m := NewManager(nil, nil)
	noop := func(ctx context.Context) error { return nil }
	m.Perform(Action{Label: "x", Undo: noop, Redo: noop})
	m.Perform(Action{Label: "y", Undo: noop, Redo: noop})
	require.NoError(t, m.Undo(context.Background()))

	m.Reset()
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}
