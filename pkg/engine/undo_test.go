package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/metrics"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/persistence/memstore"
)

func TestUndoRedoCreateNode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	node := mustCreateNode(t, s, "PLC1", model.CategoryComponent, "")
	require.True(t, s.History().CanUndo())

	require.NoError(t, s.History().Undo(ctx))
	_, exists := s.NodeByID(node.ID)
	assert.False(t, exists, "undo of create removes the node")
	assert.True(t, s.History().CanRedo())

	require.NoError(t, s.History().Redo(ctx))
	got, exists := s.NodeByID(node.ID)
	require.True(t, exists, "redo restores the node under its original id")
	assert.Equal(t, node, got)
}

func TestUndoRedoUpdateNode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	node := mustCreateNode(t, s, "PLC1", model.CategoryComponent, "")
	rename := "PLC-main"
	updated, err := s.UpdateNode(ctx, node.ID, NodePatch{Name: &rename})
	require.NoError(t, err)
	assert.Equal(t, "PLC-main", updated.Name)

	require.NoError(t, s.History().Undo(ctx))
	got, _ := s.NodeByID(node.ID)
	assert.Equal(t, "PLC1", got.Name)

	require.NoError(t, s.History().Redo(ctx))
	got, _ = s.NodeByID(node.ID)
	assert.Equal(t, "PLC-main", got.Name)
}

func TestUndoConnectNodesRemovesAllThreeRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateNode(t, s, "A", model.CategoryComponent, "")
	b := mustCreateNode(t, s, "B", model.CategoryComponent, "")

	res, err := s.ConnectNodes(ctx, a.ID, b.ID, model.DirectionAToB)
	require.NoError(t, err)

	// One composite action: a single undo removes edge, object and flow.
	require.NoError(t, s.History().Undo(ctx))
	assert.Empty(t, s.Edges())
	assert.Empty(t, s.DataObjects())
	assert.Empty(t, s.EdgeFlows())

	require.NoError(t, s.History().Redo(ctx))
	_, exists := s.EdgeByID(res.Edge.ID)
	assert.True(t, exists)
	_, exists = s.DataObjectByID(res.DataObject.ID)
	assert.True(t, exists)
	assert.Len(t, s.EdgeFlows(), 1)
}

func TestUndoMapComponentDataRestoresPreviousRole(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plc := mustCreateNode(t, s, "PLC1", model.CategoryComponent, "")
	hmi := mustCreateNode(t, s, "HMI1", model.CategoryComponent, "")
	obj, err := s.CreateDataObject(ctx, model.DataObjectRequest{
		Name: "Recipe", DataClass: model.ClassProductionData,
		Confidentiality: 5, Integrity: 8, Availability: 5,
	})
	require.NoError(t, err)

	require.NoError(t, s.AssignComponentData(ctx, hmi.ID, obj.ID, model.RoleStores))

	res, err := s.MapComponentData(ctx, hmi.ID, obj.ID, model.RoleReceives, plc.ID)
	require.NoError(t, err)
	require.True(t, res.CreatedEdge)

	// Undoing the mapping restores the Stores role and removes the edge
	// the mapping created.
	require.NoError(t, s.History().Undo(ctx))
	link, ok := s.ComponentDataFor(hmi.ID, obj.ID)
	require.True(t, ok)
	assert.Equal(t, model.RoleStores, link.Role)
	assert.Empty(t, s.Edges())
	assert.Empty(t, s.EdgeFlows())

	require.NoError(t, s.History().Redo(ctx))
	link, _ = s.ComponentDataFor(hmi.ID, obj.ID)
	assert.Equal(t, model.RoleReceives, link.Role)
	assert.Len(t, s.Edges(), 1)
}

func TestNewActionClearsRedo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateNode(t, s, "A", model.CategoryComponent, "")
	require.NoError(t, s.History().Undo(ctx))
	require.True(t, s.History().CanRedo())

	mustCreateNode(t, s, "B", model.CategoryComponent, "")
	assert.False(t, s.History().CanRedo(), "a new action invalidates the redo branch")
}

func replayCounter(t *testing.T, reg *metrics.Registry, operation, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "secudo_history_replays_total" {
			continue
		}
		for _, m := range f.Metric {
			labels := map[string]string{}
			for _, l := range m.Label {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["operation"] == operation && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestUndoRedoMovesReplayCounter(t *testing.T) {
	reg := metrics.NewRegistry()
	s := NewModelStore(Options{
		Client:    memstore.New(),
		ProjectID: "test-project",
		Metrics:   reg,
	})
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	node := mustCreateNode(t, s, "PLC1", model.CategoryComponent, "")
	require.NoError(t, s.History().Undo(ctx))
	require.NoError(t, s.History().Redo(ctx))

	assert.Equal(t, 1.0, replayCounter(t, reg, "undo", "success"))
	assert.Equal(t, 1.0, replayCounter(t, reg, "redo", "success"))

	// A failed replay counts as an error: delete the node out from under
	// the recorded create, then undo it again.
	require.NoError(t, s.DeleteNode(ctx, node.ID))
	require.Error(t, s.History().Undo(ctx))
	assert.Equal(t, 1.0, replayCounter(t, reg, "undo", "error"))
}

func TestDeleteIsNotUndoable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	node := mustCreateNode(t, s, "PLC1", model.CategoryComponent, "")
	undoBefore, _ := s.History().Depths()

	require.NoError(t, s.DeleteNode(ctx, node.ID))
	undoAfter, _ := s.History().Depths()
	assert.Equal(t, undoBefore, undoAfter, "deletes are permanent, never recorded")

	// Undo now targets the create that preceded the delete. Its recorded
	// undo deletes a node that is already gone, so the replay fails and
	// the action stays on the stack.
	require.Error(t, s.History().Undo(ctx))
	stillUndo, _ := s.History().Depths()
	assert.Equal(t, undoAfter, stillUndo)
}
