package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/persistence/memstore"
)

func newTestStore(t *testing.T) *ModelStore {
	t.Helper()
	s := NewModelStore(Options{
		Client:    memstore.New(),
		ProjectID: "test-project",
	})
	require.NoError(t, s.Init(context.Background()))
	return s
}

func mustCreateNode(t *testing.T, s *ModelStore, name string, category model.NodeCategory, parentID string) model.Node {
	t.Helper()
	node, err := s.CreateNode(context.Background(), model.NodeRequest{
		Name:         name,
		Category:     category,
		ParentNodeID: parentID,
	})
	require.NoError(t, err)
	return node
}

func TestInitCreatesGlobalContainer(t *testing.T) {
	s := newTestStore(t)
	global, ok := s.GlobalNode()
	require.True(t, ok)
	assert.Equal(t, model.GlobalContainerName, global.Name)
	assert.Equal(t, model.CategoryContainer, global.Category)
	assert.Empty(t, global.ParentNodeID)
}

func TestCreateNodeRejectsBlankName(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateNode(context.Background(), model.NodeRequest{
		Name:     "   ",
		Category: model.CategoryComponent,
	})
	require.Error(t, err)
	assert.Len(t, s.Nodes(), 1, "only Global exists; state unchanged on validation error")
}

func TestCreateNodeRejectsUnknownParent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateNode(context.Background(), model.NodeRequest{
		Name:         "PLC1",
		Category:     model.CategoryComponent,
		ParentNodeID: "no-such-node",
	})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestUpdateNodeRejectsCycles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateNode(t, s, "A", model.CategoryContainer, "")
	b := mustCreateNode(t, s, "B", model.CategoryContainer, a.ID)
	c := mustCreateNode(t, s, "C", model.CategoryContainer, b.ID)

	// A -> C would close the loop A > B > C > A.
	_, err := s.UpdateNode(ctx, a.ID, NodePatch{ParentNodeID: &c.ID})
	assert.ErrorIs(t, err, ErrCycle)

	// Self-parenting is a cycle of length one.
	_, err = s.UpdateNode(ctx, a.ID, NodePatch{ParentNodeID: &a.ID})
	assert.ErrorIs(t, err, ErrCycle)

	// State unchanged after the rejections.
	got, _ := s.NodeByID(a.ID)
	assert.Empty(t, got.ParentNodeID)
}

func TestGlobalContainerIsProtected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	global, _ := s.GlobalNode()

	assert.ErrorIs(t, s.DeleteNode(ctx, global.ID), ErrProtectedGlobal)

	other := mustCreateNode(t, s, "Zone", model.CategoryContainer, "")
	_, err := s.UpdateNode(ctx, global.ID, NodePatch{ParentNodeID: &other.ID})
	assert.ErrorIs(t, err, ErrProtectedGlobal)

	rename := "NotGlobal"
	_, err = s.UpdateNode(ctx, global.ID, NodePatch{Name: &rename})
	assert.ErrorIs(t, err, ErrProtectedGlobal)

	// Non-protected fields stay editable.
	desc := "the default grouping"
	_, err = s.UpdateNode(ctx, global.ID, NodePatch{Description: &desc})
	assert.NoError(t, err)
}

func TestDeleteNodeCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plant := mustCreateNode(t, s, "Plant", model.CategoryContainer, "")
	plc := mustCreateNode(t, s, "PLC1", model.CategoryComponent, plant.ID)
	hmi := mustCreateNode(t, s, "HMI1", model.CategoryComponent, plant.ID)

	res, err := s.ConnectNodes(ctx, plc.ID, hmi.ID, model.DirectionAToB)
	require.NoError(t, err)
	require.NoError(t, s.AssignComponentData(ctx, plc.ID, res.DataObject.ID, model.RoleGenerates))

	require.NoError(t, s.DeleteNode(ctx, plc.ID))

	_, exists := s.NodeByID(plc.ID)
	assert.False(t, exists)
	assert.Empty(t, s.Edges(), "edges touching the node are cascade-deleted")
	assert.Empty(t, s.EdgeFlows(), "flow rows go with their edge")
	for _, link := range s.ComponentData() {
		assert.NotEqual(t, plc.ID, link.NodeID)
	}

	// Children of a deleted container are promoted to root, not deleted.
	require.NoError(t, s.DeleteNode(ctx, plant.ID))
	got, exists := s.NodeByID(hmi.ID)
	require.True(t, exists, "children must survive their parent's deletion")
	assert.Empty(t, got.ParentNodeID)
}

func TestCreateEdgeRejectsDuplicateOrderedPair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateNode(t, s, "A", model.CategoryComponent, "")
	b := mustCreateNode(t, s, "B", model.CategoryComponent, "")

	first, err := s.CreateEdge(ctx, model.EdgeRequest{
		SourceNodeID: a.ID, TargetNodeID: b.ID, Direction: model.DirectionAToB,
	})
	require.NoError(t, err)

	_, err = s.CreateEdge(ctx, model.EdgeRequest{
		SourceNodeID: a.ID, TargetNodeID: b.ID, Direction: model.DirectionBidirectional,
	})
	dup, ok := IsDuplicateEdge(err)
	require.True(t, ok, "duplicate must be rejected, not merged")
	assert.Equal(t, first.ID, dup.ExistingEdgeID, "the existing edge is surfaced to the caller")
	assert.Len(t, s.Edges(), 1)

	// The reverse ordered pair is a different interface.
	_, err = s.CreateEdge(ctx, model.EdgeRequest{
		SourceNodeID: b.ID, TargetNodeID: a.ID, Direction: model.DirectionAToB,
	})
	assert.NoError(t, err)
}

func TestCreateEdgeResolvesHandles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateNode(t, s, "A", model.CategoryComponent, "")
	b := mustCreateNode(t, s, "B", model.CategoryComponent, "")
	s.Layout().Place(a.ID, model.Position{X: 0, Y: 0})
	s.Layout().Place(b.ID, model.Position{X: 900, Y: 0})

	edge, err := s.CreateEdge(ctx, model.EdgeRequest{
		SourceNodeID:   a.ID,
		TargetNodeID:   b.ID,
		SourceHandleID: "bogus",
		TargetHandleID: "",
		Direction:      model.DirectionAToB,
	})
	require.NoError(t, err)
	assert.Equal(t, "right-50", edge.SourceHandleID)
	assert.Equal(t, "left-50", edge.TargetHandleID)
}

func TestConnectNodesCreatesEdgeObjectAndFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plc := mustCreateNode(t, s, "PLC1", model.CategoryComponent, "")
	hmi := mustCreateNode(t, s, "HMI1", model.CategoryComponent, "")

	res, err := s.ConnectNodes(ctx, plc.ID, hmi.ID, model.DirectionAToB)
	require.NoError(t, err)

	require.Len(t, s.Edges(), 1)
	assert.Equal(t, model.DirectionAToB, res.Edge.Direction)

	require.Len(t, s.DataObjects(), 1)
	assert.Equal(t, "PLC1 --> HMI1", res.DataObject.Name)

	flows := s.EdgeFlows()
	require.Len(t, flows, 1)
	assert.Equal(t, res.Edge.ID, flows[0].EdgeID)
	assert.Equal(t, res.DataObject.ID, flows[0].DataObjectID)
	assert.Equal(t, model.FlowSourceToTarget, flows[0].Direction)
}

func TestConnectNodesAutoNameIsUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateNode(t, s, "A", model.CategoryComponent, "")
	b := mustCreateNode(t, s, "B", model.CategoryComponent, "")

	_, err := s.CreateDataObject(ctx, model.DataObjectRequest{
		Name: "A --> B", DataClass: model.ClassOther,
		Confidentiality: 1, Integrity: 1, Availability: 1,
	})
	require.NoError(t, err)

	res, err := s.ConnectNodes(ctx, a.ID, b.ID, model.DirectionAToB)
	require.NoError(t, err)
	assert.Equal(t, "A --> B (2)", res.DataObject.Name)
}

func TestMapComponentDataReusesExistingEdge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plc := mustCreateNode(t, s, "PLC1", model.CategoryComponent, "")
	hmi := mustCreateNode(t, s, "HMI1", model.CategoryComponent, "")
	recipe, err := s.CreateDataObject(ctx, model.DataObjectRequest{
		Name: "Recipe", DataClass: model.ClassProductionData,
		Confidentiality: 5, Integrity: 8, Availability: 5,
	})
	require.NoError(t, err)

	// No pre-existing edge: mapping Receives on HMI1 from PLC1 creates
	// PLC1 -> HMI1 with a SourceToTarget flow.
	res, err := s.MapComponentData(ctx, hmi.ID, recipe.ID, model.RoleReceives, plc.ID)
	require.NoError(t, err)
	assert.True(t, res.CreatedEdge)
	assert.Equal(t, plc.ID, res.Edge.SourceNodeID)
	assert.Equal(t, hmi.ID, res.Edge.TargetNodeID)
	assert.Equal(t, model.FlowSourceToTarget, res.Flow.Direction)
	require.Len(t, s.Edges(), 1)

	// Repeating the mapping reuses the interface: edge count unchanged.
	res, err = s.MapComponentData(ctx, hmi.ID, recipe.ID, model.RoleReceives, plc.ID)
	require.NoError(t, err)
	assert.False(t, res.CreatedEdge)
	assert.Len(t, s.Edges(), 1)

	// Thinking in the other direction still reuses the same interface,
	// with the flow direction flipped.
	res, err = s.MapComponentData(ctx, plc.ID, recipe.ID, model.RoleGenerates, hmi.ID)
	require.NoError(t, err)
	assert.False(t, res.CreatedEdge)
	assert.Len(t, s.Edges(), 1)
	assert.Equal(t, model.FlowSourceToTarget, res.Flow.Direction)

	link, ok := s.ComponentDataFor(plc.ID, recipe.ID)
	require.True(t, ok)
	assert.Equal(t, model.RoleGenerates, link.Role)
}

func TestAssignComponentDataUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := mustCreateNode(t, s, "Historian", model.CategoryComponent, "")
	obj, err := s.CreateDataObject(ctx, model.DataObjectRequest{
		Name: "Telemetry", DataClass: model.ClassTelemetry,
		Confidentiality: 3, Integrity: 6, Availability: 7,
	})
	require.NoError(t, err)

	require.NoError(t, s.AssignComponentData(ctx, n.ID, obj.ID, model.RoleStores))
	require.NoError(t, s.AssignComponentData(ctx, n.ID, obj.ID, model.RoleProcesses))

	links := s.ComponentData()
	require.Len(t, links, 1, "re-assign overwrites instead of duplicating")
	assert.Equal(t, model.RoleProcesses, links[0].Role)
}

func TestDeleteDataObjectPrunesSoleFlowEdge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateNode(t, s, "A", model.CategoryComponent, "")
	b := mustCreateNode(t, s, "B", model.CategoryComponent, "")

	res, err := s.ConnectNodes(ctx, a.ID, b.ID, model.DirectionAToB)
	require.NoError(t, err)

	// The auto-created object is the edge's only payload; deleting it
	// prunes the edge too.
	require.NoError(t, s.DeleteDataObject(ctx, res.DataObject.ID))
	assert.Empty(t, s.Edges())
	assert.Empty(t, s.EdgeFlows())
	assert.Empty(t, s.DataObjects())
}

func TestDeleteDataObjectKeepsEdgeWithOtherPayloads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateNode(t, s, "A", model.CategoryComponent, "")
	b := mustCreateNode(t, s, "B", model.CategoryComponent, "")

	res, err := s.ConnectNodes(ctx, a.ID, b.ID, model.DirectionAToB)
	require.NoError(t, err)

	second, err := s.CreateDataObject(ctx, model.DataObjectRequest{
		Name: "Setpoints", DataClass: model.ClassConfiguration,
		Confidentiality: 4, Integrity: 9, Availability: 6,
	})
	require.NoError(t, err)
	require.NoError(t, s.AssignEdgeFlow(ctx, res.Edge.ID, second.ID, model.FlowBidirectional))

	require.NoError(t, s.DeleteDataObject(ctx, res.DataObject.ID))
	assert.Len(t, s.Edges(), 1, "edge still carries another payload")
	assert.Len(t, s.EdgeFlows(), 1)
}

func TestDropNodeResolvesContainment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plant := mustCreateNode(t, s, "Plant", model.CategoryContainer, "")
	plc := mustCreateNode(t, s, "PLC1", model.CategoryComponent, "")

	s.Layout().Place(plant.ID, model.Position{X: 0, Y: 0})
	s.Layout().Resize(plant.ID, model.Size{Width: 500, Height: 400})

	// Dropped fully inside Plant's rectangle.
	require.NoError(t, s.DropNode(ctx, plc.ID, model.Position{X: 100, Y: 100}))
	got, _ := s.NodeByID(plc.ID)
	assert.Equal(t, plant.ID, got.ParentNodeID)

	// Same parent resolved again: idempotent no-op, no history entry.
	undoBefore, _ := s.History().Depths()
	require.NoError(t, s.DropNode(ctx, plc.ID, model.Position{X: 120, Y: 120}))
	undoAfter, _ := s.History().Depths()
	assert.Equal(t, undoBefore, undoAfter)

	// Dropped outside every container: promoted to root.
	require.NoError(t, s.DropNode(ctx, plc.ID, model.Position{X: 5000, Y: 5000}))
	got, _ = s.NodeByID(plc.ID)
	assert.Empty(t, got.ParentNodeID)
}

func TestRefreshKeepsWarningOnPartialAvailability(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.Warning())
}
