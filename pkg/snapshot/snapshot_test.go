package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/engine"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/persistence/memstore"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/selection"
)

func newFixture(t *testing.T) (*engine.ModelStore, *selection.Controller, *Service) {
	t.Helper()
	store := engine.NewModelStore(engine.Options{
		Client:    memstore.New(),
		ProjectID: "test-project",
	})
	require.NoError(t, store.Init(context.Background()))
	sel := selection.NewController(store, nil)
	return store, sel, NewService(store, sel, nil, nil)
}

func createNode(t *testing.T, store *engine.ModelStore, name string) model.Node {
	t.Helper()
	node, err := store.CreateNode(context.Background(), model.NodeRequest{
		Name:     name,
		Category: model.CategoryComponent,
	})
	require.NoError(t, err)
	return node
}

func TestSaveRejectsBlankTitle(t *testing.T) {
	_, _, svc := newFixture(t)
	_, err := svc.Save(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrBlankTitle)
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	store, _, svc := newFixture(t)
	ctx := context.Background()

	plc := createNode(t, store, "PLC1")
	hmi := createNode(t, store, "HMI1")
	_, err := store.ConnectNodes(ctx, plc.ID, hmi.ID, model.DirectionAToB)
	require.NoError(t, err)

	baseline, err := svc.Save(ctx, "Baseline")
	require.NoError(t, err)
	assert.Equal(t, "Baseline", baseline.Title)

	nodesBefore := store.Nodes()
	edgesBefore := store.Edges()

	// Mutate after the savepoint.
	createNode(t, store, "Historian")
	require.NoError(t, store.DeleteEdge(ctx, edgesBefore[0].ID))

	res, err := svc.Restore(ctx, baseline.ID)
	require.NoError(t, err)
	assert.Equal(t, len(nodesBefore), res.NodeCount)
	assert.Equal(t, len(edgesBefore), res.EdgeCount)

	// Entity ids match the pre-mutation state exactly.
	assert.Equal(t, nodesBefore, store.Nodes())
	assert.Equal(t, edgesBefore, store.Edges())
}

func TestRestoreResetsSelectionAndHistory(t *testing.T) {
	store, sel, svc := newFixture(t)
	ctx := context.Background()

	node := createNode(t, store, "PLC1")
	baseline, err := svc.Save(ctx, "Baseline")
	require.NoError(t, err)

	sel.ClickNode(node.ID, false)
	require.True(t, store.History().CanUndo())

	_, err = svc.Restore(ctx, baseline.ID)
	require.NoError(t, err)

	assert.True(t, sel.Empty(), "selection reset after restore")
	assert.False(t, store.History().CanUndo(), "history dropped after restore")
	assert.False(t, store.History().CanRedo())
}

func TestRestoreAdoptsSavedLayoutWholesale(t *testing.T) {
	store, _, svc := newFixture(t)
	ctx := context.Background()

	node := createNode(t, store, "PLC1")
	store.Layout().Place(node.ID, model.Position{X: 123, Y: 456})

	baseline, err := svc.Save(ctx, "Baseline")
	require.NoError(t, err)

	// Local-only layout changes after the savepoint are discarded.
	store.Layout().Place(node.ID, model.Position{X: 999, Y: 999})

	_, err = svc.Restore(ctx, baseline.ID)
	require.NoError(t, err)

	pos, ok := store.Layout().PositionOf(node.ID)
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 123, Y: 456}, pos)
}

func TestDeleteSavepointLeavesModelUntouched(t *testing.T) {
	store, _, svc := newFixture(t)
	ctx := context.Background()

	createNode(t, store, "PLC1")
	baseline, err := svc.Save(ctx, "Baseline")
	require.NoError(t, err)

	nodesBefore := store.Nodes()
	require.NoError(t, svc.Delete(ctx, baseline.ID))
	assert.Equal(t, nodesBefore, store.Nodes())

	_, err = svc.Restore(ctx, baseline.ID)
	assert.Error(t, err, "restore of a deleted savepoint fails")
}

func TestListSavepoints(t *testing.T) {
	_, _, svc := newFixture(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "First")
	require.NoError(t, err)
	_, err = svc.Save(ctx, "Second")
	require.NoError(t, err)

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}
