// Package snapshot saves and restores named savepoints of the full model,
// including presentation-only layout state. Restore is atomic from the
// caller's perspective: either the model becomes exactly the savepoint's
// recorded entities or the prior state is retained.
package snapshot

import (
	"context"
	"errors"
	"strings"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/engine"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/selection"
)

// ErrBlankTitle is returned when a savepoint is saved without a title.
var ErrBlankTitle = errors.New("savepoint title must not be blank")

// Service coordinates savepoint round-trips between the model store, the
// selection and the optional local layout cache.
type Service struct {
	store     *engine.ModelStore
	selection *selection.Controller
	cache     *LayoutCache
	logger    logging.Logger
}

// NewService wires a snapshot service. selection and cache may be nil.
func NewService(store *engine.ModelStore, sel *selection.Controller, cache *LayoutCache, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		store:     store,
		selection: sel,
		cache:     cache,
		logger:    logger.With(logging.Component("snapshot"), logging.ProjectID(store.ProjectID())),
	}
}

// Save records the current model and layout under the given title.
// Savepoints are bookmarks, not mutations: saving is never history-recorded.
func (s *Service) Save(ctx context.Context, title string) (model.Savepoint, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Savepoint{}, ErrBlankTitle
	}

	state := model.SavepointState{
		Nodes:         s.store.Nodes(),
		Edges:         s.store.Edges(),
		DataObjects:   s.store.DataObjects(),
		ComponentData: s.store.ComponentData(),
		EdgeFlows:     s.store.EdgeFlows(),
		Layout:        s.store.Layout().State(),
	}

	summary, err := s.store.Client().CreateSavepoint(ctx, title, state)
	if err != nil {
		return model.Savepoint{}, err
	}
	s.logger.Info("savepoint saved",
		logging.SavepointID(summary.ID),
		logging.String("title", summary.Title),
		logging.Count(len(state.Nodes)))
	return summary, nil
}

// List returns all savepoint summaries for the project.
func (s *Service) List(ctx context.Context) ([]model.Savepoint, error) {
	return s.store.Client().ListSavepoints(ctx)
}

// Delete removes a savepoint. The live model is untouched.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Client().DeleteSavepoint(ctx, id); err != nil {
		return err
	}
	s.logger.Info("savepoint deleted", logging.SavepointID(id))
	return nil
}

// Restore replaces the live model with a savepoint's recorded state. On
// success the selection is reset, the savepoint's layout is adopted
// wholesale (superseding any local-only layout cache) and the history
// stacks are dropped, since recorded closures would target superseded
// entities. A non-fatal warning from the collaborator or from the refetch
// is passed through on the result.
func (s *Service) Restore(ctx context.Context, id string) (model.RestoreResult, error) {
	res, err := s.store.Client().RestoreSavepoint(ctx, id)
	if err != nil {
		return model.RestoreResult{}, err
	}

	if err := s.store.Refresh(ctx); err != nil {
		return model.RestoreResult{}, err
	}
	s.store.Layout().Adopt(res.Layout)
	if s.selection != nil {
		s.selection.Clear()
	}
	s.store.History().Reset()

	if s.cache != nil {
		if err := s.cache.Save(s.store.ProjectID(), res.Layout); err != nil {
			s.logger.Warn("layout cache write failed", logging.Error(err))
		}
	}
	if w := s.store.Warning(); w != "" {
		if res.Warning != "" {
			res.Warning += "; "
		}
		res.Warning += w
	}

	s.logger.Info("savepoint restored",
		logging.SavepointID(id),
		logging.Int("nodes", res.NodeCount),
		logging.Int("edges", res.EdgeCount))
	return res, nil
}
