// Package selection tracks the selected node and edge ids and implements
// the selection-scoped bulk operations, delete-selected and copy-selected,
// on top of the model store.
package selection

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/engine"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/history"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

var (
	// ErrEmptySelection is returned by bulk operations on an empty selection.
	ErrEmptySelection = errors.New("nothing selected")
	// ErrEdgesWithoutNodes is returned by copy when only interfaces are
	// selected: an interface cannot be cloned without its endpoints.
	ErrEdgesWithoutNodes = errors.New("to copy interfaces, also select their connected nodes")
	// ErrGlobalInSelection is returned by copy when the protected Global
	// container is part of the selection.
	ErrGlobalInSelection = errors.New("the Global container cannot be copied")
)

// copyOffset displaces every cloned node from its original so the copy is
// visible next to it rather than stacked on top.
var copyOffset = model.Position{X: 40, Y: 40}

// Controller owns the selection sets. Click semantics: a plain click
// replaces the whole selection with the clicked element, a modifier click
// toggles the element in place, a background click clears everything.
type Controller struct {
	mu     sync.Mutex
	store  *engine.ModelStore
	logger logging.Logger
	nodes  map[string]bool
	edges  map[string]bool
}

// NewController creates an empty selection over the given store.
func NewController(store *engine.ModelStore, logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Controller{
		store:  store,
		logger: logger.With(logging.Component("selection")),
		nodes:  make(map[string]bool),
		edges:  make(map[string]bool),
	}
}

// ClickNode selects a node. With modifier set the node is toggled into the
// existing selection; without it the node becomes the entire selection.
func (c *Controller) ClickNode(id string, modifier bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !modifier {
		c.nodes = map[string]bool{id: true}
		c.edges = make(map[string]bool)
		return
	}
	if c.nodes[id] {
		delete(c.nodes, id)
	} else {
		c.nodes[id] = true
	}
}

// ClickEdge mirrors ClickNode for interfaces.
func (c *Controller) ClickEdge(id string, modifier bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !modifier {
		c.edges = map[string]bool{id: true}
		c.nodes = make(map[string]bool)
		return
	}
	if c.edges[id] {
		delete(c.edges, id)
	} else {
		c.edges[id] = true
	}
}

// ClickBackground clears both selection sets.
func (c *Controller) ClickBackground() {
	c.Clear()
}

// Clear empties the selection. Also called after a savepoint restore.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes = make(map[string]bool)
	c.edges = make(map[string]bool)
}

// SelectedNodes returns the selected node ids sorted.
func (c *Controller) SelectedNodes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.nodes)
}

// SelectedEdges returns the selected edge ids sorted.
func (c *Controller) SelectedEdges() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.edges)
}

// IsNodeSelected reports whether a node is in the selection.
func (c *Controller) IsNodeSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes[id]
}

// IsEdgeSelected reports whether an edge is in the selection.
func (c *Controller) IsEdgeSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edges[id]
}

// Empty reports whether nothing is selected.
func (c *Controller) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.nodes) == 0 && len(c.edges) == 0
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DeleteResult reports what delete-selected removed and any per-element
// warnings for elements it skipped.
type DeleteResult struct {
	DeletedNodes int
	DeletedEdges int
	Warnings     []string
}

// DeleteSelected deletes every selected edge, then every selected node.
// The Global container is skipped with a warning instead of aborting the
// batch. Edges with a selected endpoint are left to the node-delete
// cascade so they are not deleted twice. Destructive: like the single
// deletes it is built on, it is not undoable, and the caller is expected
// to confirm before invoking it.
func (c *Controller) DeleteSelected(ctx context.Context) (DeleteResult, error) {
	c.mu.Lock()
	nodeIDs := sortedKeys(c.nodes)
	edgeIDs := sortedKeys(c.edges)
	c.mu.Unlock()

	if len(nodeIDs) == 0 && len(edgeIDs) == 0 {
		return DeleteResult{}, ErrEmptySelection
	}

	var res DeleteResult
	deletable := make(map[string]bool, len(nodeIDs))
	keptNodes := nodeIDs[:0]
	for _, id := range nodeIDs {
		if node, ok := c.store.NodeByID(id); ok && node.IsGlobal() {
			res.Warnings = append(res.Warnings, "Global container cannot be deleted; skipped")
			c.logger.Warn("delete-selected skipped Global container", logging.NodeID(id))
			continue
		}
		deletable[id] = true
		keptNodes = append(keptNodes, id)
	}
	nodeIDs = keptNodes

	for _, id := range edgeIDs {
		edge, ok := c.store.EdgeByID(id)
		if ok && (deletable[edge.SourceNodeID] || deletable[edge.TargetNodeID]) {
			// The node cascade will take this edge with it.
			continue
		}
		if err := c.store.DeleteEdge(ctx, id); err != nil {
			return res, err
		}
		res.DeletedEdges++
	}
	for _, id := range nodeIDs {
		if err := c.store.DeleteNode(ctx, id); err != nil {
			return res, err
		}
		res.DeletedNodes++
	}

	c.Clear()
	c.logger.Info("selection deleted",
		logging.Count(res.DeletedNodes+res.DeletedEdges),
		logging.Int("nodes", res.DeletedNodes),
		logging.Int("edges", res.DeletedEdges))
	return res, nil
}

// CopyResult reports the clones copy-selected created. NodeIDs maps each
// original node id to its clone's id.
type CopyResult struct {
	Nodes    []model.Node
	Edges    []model.Edge
	NodeIDs  map[string]string
	Warnings []string
}

// CopySelected clones the selected nodes, preserving their containment
// structure, and rewires internal interfaces onto the clones. Containers
// are cloned before their selected children so a child can attach to the
// cloned parent. Interfaces are cloned when both endpoints are selected
// and either the interface itself is selected or the selection spans more
// than one node. All-or-nothing: a failure mid-batch compensates the
// clones already persisted. Recorded as one undoable action. On success
// the selection is replaced with the freshly created ids.
func (c *Controller) CopySelected(ctx context.Context) (CopyResult, error) {
	c.mu.Lock()
	nodeIDs := sortedKeys(c.nodes)
	edgeIDs := sortedKeys(c.edges)
	selectedNodes := make(map[string]bool, len(c.nodes))
	for id := range c.nodes {
		selectedNodes[id] = true
	}
	selectedEdges := make(map[string]bool, len(c.edges))
	for id := range c.edges {
		selectedEdges[id] = true
	}
	c.mu.Unlock()

	if len(nodeIDs) == 0 && len(edgeIDs) == 0 {
		return CopyResult{}, ErrEmptySelection
	}
	if len(nodeIDs) == 0 {
		return CopyResult{}, ErrEdgesWithoutNodes
	}

	originals := make(map[string]model.Node, len(nodeIDs))
	for _, id := range nodeIDs {
		node, ok := c.store.NodeByID(id)
		if !ok {
			return CopyResult{}, errors.New("selected node no longer exists: " + id)
		}
		if node.IsGlobal() {
			return CopyResult{}, ErrGlobalInSelection
		}
		originals[id] = node
	}

	// Containers first: order by depth within the selection, where an
	// unselected parent contributes nothing to the depth.
	sort.SliceStable(nodeIDs, func(i, j int) bool {
		di := selectionDepth(nodeIDs[i], originals, selectedNodes)
		dj := selectionDepth(nodeIDs[j], originals, selectedNodes)
		if di != dj {
			return di < dj
		}
		return nodeIDs[i] < nodeIDs[j]
	})

	var res CopyResult
	res.NodeIDs = make(map[string]string, len(nodeIDs))
	layout := c.store.Layout()
	client := c.store.Client()

	clones := make([]model.Node, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		original := originals[id]
		parent := original.ParentNodeID
		if mapped, ok := res.NodeIDs[parent]; ok {
			parent = mapped
		}
		clone := model.Node{
			ID:           uuid.NewString(),
			Name:         original.Name + " Copy",
			Category:     original.Category,
			Description:  original.Description,
			Notes:        original.Notes,
			ParentNodeID: parent,
		}
		res.NodeIDs[id] = clone.ID
		clones = append(clones, clone)
	}

	candidates := candidateEdges(c.store.Edges(), selectedNodes, selectedEdges, len(nodeIDs))
	edgeClones := make([]model.Edge, 0, len(candidates))
	for _, edge := range candidates {
		src, okSrc := res.NodeIDs[edge.SourceNodeID]
		dst, okDst := res.NodeIDs[edge.TargetNodeID]
		if !okSrc || !okDst {
			res.Warnings = append(res.Warnings, "skipped interface "+edge.ID+": endpoint not part of the copy")
			c.logger.Warn("copy-selected skipped interface", logging.EdgeID(edge.ID))
			continue
		}
		clone := edge
		clone.ID = uuid.NewString()
		clone.SourceNodeID = src
		clone.TargetNodeID = dst
		edgeClones = append(edgeClones, clone)
	}

	// Persist parents before children, nodes before interfaces.
	createdNodes := make([]model.Node, 0, len(clones))
	createdEdges := make([]model.Edge, 0, len(edgeClones))
	rollback := func() {
		for i := len(createdEdges) - 1; i >= 0; i-- {
			if err := client.DeleteEdge(ctx, createdEdges[i].ID); err != nil {
				c.logger.Error("copy rollback failed", logging.EdgeID(createdEdges[i].ID), logging.Error(err))
			}
		}
		for i := len(createdNodes) - 1; i >= 0; i-- {
			if err := client.DeleteNode(ctx, createdNodes[i].ID); err != nil {
				c.logger.Error("copy rollback failed", logging.NodeID(createdNodes[i].ID), logging.Error(err))
			}
		}
	}
	for _, clone := range clones {
		created, err := client.CreateNode(ctx, clone)
		if err != nil {
			rollback()
			return CopyResult{}, err
		}
		createdNodes = append(createdNodes, created)
	}
	for _, clone := range edgeClones {
		created, err := client.CreateEdge(ctx, clone)
		if err != nil {
			rollback()
			return CopyResult{}, err
		}
		createdEdges = append(createdEdges, created)
	}

	// Presentation state: offset positions, copy container sizes.
	for _, id := range nodeIDs {
		cloneID := res.NodeIDs[id]
		if pos, ok := layout.PositionOf(id); ok {
			layout.Place(cloneID, model.Position{X: pos.X + copyOffset.X, Y: pos.Y + copyOffset.Y})
		}
		original := originals[id]
		if size, ok := layout.SizeOf(id); ok && original.IsContainer() {
			layout.Resize(cloneID, size)
		}
	}

	if err := c.store.Refresh(ctx); err != nil {
		return CopyResult{}, err
	}

	nodesFinal := append([]model.Node(nil), createdNodes...)
	edgesFinal := append([]model.Edge(nil), createdEdges...)
	c.store.History().Perform(history.Action{
		Label: "copy selection",
		Undo: func(ctx context.Context) error {
			for i := len(edgesFinal) - 1; i >= 0; i-- {
				if err := client.DeleteEdge(ctx, edgesFinal[i].ID); err != nil {
					return err
				}
			}
			for i := len(nodesFinal) - 1; i >= 0; i-- {
				if err := client.DeleteNode(ctx, nodesFinal[i].ID); err != nil {
					return err
				}
			}
			return nil
		},
		Redo: func(ctx context.Context) error {
			for _, n := range nodesFinal {
				if _, err := client.CreateNode(ctx, n); err != nil {
					return err
				}
			}
			for _, e := range edgesFinal {
				if _, err := client.CreateEdge(ctx, e); err != nil {
					return err
				}
			}
			return nil
		},
	})

	// The copy becomes the new selection.
	c.mu.Lock()
	c.nodes = make(map[string]bool, len(createdNodes))
	for _, n := range createdNodes {
		c.nodes[n.ID] = true
	}
	c.edges = make(map[string]bool, len(createdEdges))
	for _, e := range createdEdges {
		c.edges[e.ID] = true
	}
	c.mu.Unlock()

	res.Nodes = createdNodes
	res.Edges = createdEdges
	c.logger.Info("selection copied",
		logging.Int("nodes", len(createdNodes)),
		logging.Int("edges", len(createdEdges)))
	return res, nil
}

// selectionDepth walks the ancestor chain counting only selected parents,
// so a container is always ordered before its selected children. The walk
// is capped to the selection size to stay finite on corrupt chains.
func selectionDepth(id string, originals map[string]model.Node, selected map[string]bool) int {
	depth := 0
	current := originals[id].ParentNodeID
	for i := 0; i <= len(selected) && current != ""; i++ {
		if !selected[current] {
			break
		}
		depth++
		current = originals[current].ParentNodeID
	}
	return depth
}

// candidateEdges picks the interfaces to clone: both endpoints selected,
// and either the interface itself is selected or the selection spans more
// than one node (bulk-select implies copying the internal wiring).
func candidateEdges(edges []model.Edge, selectedNodes, selectedEdges map[string]bool, nodeCount int) []model.Edge {
	out := make([]model.Edge, 0)
	for _, e := range edges {
		if !selectedNodes[e.SourceNodeID] || !selectedNodes[e.TargetNodeID] {
			continue
		}
		if selectedEdges[e.ID] || nodeCount > 1 {
			out = append(out, e)
		}
	}
	return out
}
