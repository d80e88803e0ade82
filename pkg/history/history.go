// Package history provides linear undo/redo over model mutations. Every
// mutation is registered after it has been applied once, as an Action
// with paired undo/redo closures. History is in-memory only and resets
// with the engine instance.
package history

import (
	"context"
	"errors"
	"sync"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
)

// ErrBusy is returned when a history operation is already in flight.
var ErrBusy = errors.New("history operation already in progress")

// Action is a reversible unit of work. Undo and Redo are invoked against
// the persistence collaborator; a full model refresh follows on success.
type Action struct {
	Label string
	Undo  func(ctx context.Context) error
	Redo  func(ctx context.Context) error
}

// RefreshFunc re-reads all entity collections after a successful replay.
type RefreshFunc func(ctx context.Context) error

// ReplayObserver is notified after every undo/redo replay attempt with
// the operation ("undo" or "redo") and its outcome ("success" or "error").
type ReplayObserver func(operation, status string)

// Manager owns the undo and redo stacks. Linear history: performing a new
// action clears the redo stack. Only one replay may be in flight at a time.
type Manager struct {
	mu        sync.Mutex
	undoStack []Action
	redoStack []Action
	busy      bool
	refresh   RefreshFunc
	observe   ReplayObserver
	logger    logging.Logger
}

// NewManager creates an empty history manager. refresh may be nil when no
// post-replay refetch is wanted (tests).
func NewManager(refresh RefreshFunc, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Manager{refresh: refresh, logger: logger}
}

// SetReplayObserver installs a hook called after each replay attempt,
// used for replay counters. Set once at engine construction.
func (m *Manager) SetReplayObserver(fn ReplayObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observe = fn
}

// Perform records an already-applied action and clears the redo stack.
func (m *Manager) Perform(action Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undoStack = append(m.undoStack, action)
	m.redoStack = m.redoStack[:0]
	m.logger.Debug("history action recorded",
		logging.String("label", action.Label),
		logging.Int("undo_depth", len(m.undoStack)))
}

// Undo reverts the most recent action. No-op when the stack is empty.
// If the action's undo fails, it stays on top of the undo stack and the
// error is surfaced; the stacks are never left corrupted.
func (m *Manager) Undo(ctx context.Context) error {
	return m.replay(ctx, &m.undoStack, &m.redoStack, func(a Action) func(context.Context) error { return a.Undo }, "undo")
}

// Redo re-applies the most recently undone action. Mirror of Undo.
func (m *Manager) Redo(ctx context.Context) error {
	return m.replay(ctx, &m.redoStack, &m.undoStack, func(a Action) func(context.Context) error { return a.Redo }, "redo")
}

func (m *Manager) replay(ctx context.Context, from, to *[]Action, pick func(Action) func(context.Context) error, op string) error {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	if len(*from) == 0 {
		m.mu.Unlock()
		return nil
	}
	m.busy = true
	action := (*from)[len(*from)-1]
	observe := m.observe
	m.mu.Unlock()

	err := pick(action)(ctx)

	m.mu.Lock()
	if err != nil {
		// The failed action stays where it was.
		m.busy = false
		m.mu.Unlock()
		if observe != nil {
			observe(op, "error")
		}
		m.logger.Error("history replay failed",
			logging.Operation(op),
			logging.String("label", action.Label),
			logging.Error(err))
		return err
	}
	*from = (*from)[:len(*from)-1]
	*to = append(*to, action)
	refresh := m.refresh
	m.busy = false
	m.mu.Unlock()

	if observe != nil {
		observe(op, "success")
	}

	m.logger.Info("history replay applied",
		logging.Operation(op),
		logging.String("label", action.Label))

	if refresh != nil {
		return refresh(ctx)
	}
	return nil
}

// CanUndo reports whether an undo is available.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack) > 0
}

// CanRedo reports whether a redo is available.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack) > 0
}

// Depths returns the current undo and redo stack depths.
func (m *Manager) Depths() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack), len(m.redoStack)
}

// Reset drops both stacks. Used after a savepoint restore, when recorded
// closures would target superseded entities.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undoStack = m.undoStack[:0]
	m.redoStack = m.redoStack[:0]
}
