package engine

import (
	"context"
	"strings"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/geometry"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/history"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// NodePatch carries the updatable node fields. Nil fields are left as-is.
type NodePatch struct {
	Name         *string
	Description  *string
	Notes        *string
	ParentNodeID *string
}

// CreateNode validates and creates a node. For components, container-only
// presentation fields (size) are ignored. The created node is recorded as
// an undoable action.
func (s *ModelStore) CreateNode(ctx context.Context, req model.NodeRequest) (model.Node, error) {
	done := s.instrument("create_node")
	if err := model.ValidateNodeRequest(&req); err != nil {
		done("validation_error")
		return model.Node{}, modelErr("create", "node", "", err)
	}
	if req.ParentNodeID != "" {
		if _, ok := s.NodeByID(req.ParentNodeID); !ok {
			done("validation_error")
			return model.Node{}, modelErr("create", "node", req.ParentNodeID, ErrNodeNotFound)
		}
	}
	if err := s.beginOp("create_node"); err != nil {
		done("busy")
		return model.Node{}, err
	}
	defer s.endOp("create_node")

	node := model.Node{
		ID:           newID(),
		Name:         strings.TrimSpace(req.Name),
		Category:     req.Category,
		Description:  req.Description,
		Notes:        req.Notes,
		ParentNodeID: req.ParentNodeID,
	}

	created, err := s.client.CreateNode(ctx, node)
	if err != nil {
		done("error")
		return model.Node{}, modelErr("create", "node", node.ID, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return created, err
	}

	s.history.Perform(history.Action{
		Label: "create node " + created.Name,
		Undo: func(ctx context.Context) error {
			return s.client.DeleteNode(ctx, created.ID)
		},
		Redo: func(ctx context.Context) error {
			_, err := s.client.CreateNode(ctx, created)
			return err
		},
	})
	s.publish("node", events.OpCreate, created.ID)
	s.logger.Info("node created", logging.NodeID(created.ID), logging.String("name", created.Name))
	done("success")
	return created, nil
}

// UpdateNode applies a patch to a node. Reparenting that would create a
// cycle is rejected, as is any reparent or rename of the protected Global
// container. Recorded as an undoable action.
func (s *ModelStore) UpdateNode(ctx context.Context, id string, patch NodePatch) (model.Node, error) {
	done := s.instrument("update_node")
	before, ok := s.NodeByID(id)
	if !ok {
		done("validation_error")
		return model.Node{}, modelErr("update", "node", id, ErrNodeNotFound)
	}

	after := before
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			done("validation_error")
			return model.Node{}, modelErr("update", "node", id, ErrBlankName)
		}
		after.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		after.Description = *patch.Description
	}
	if patch.Notes != nil {
		after.Notes = *patch.Notes
	}
	if patch.ParentNodeID != nil {
		after.ParentNodeID = *patch.ParentNodeID
	}

	if before.IsGlobal() && (after.Name != before.Name || after.ParentNodeID != before.ParentNodeID) {
		done("validation_error")
		return model.Node{}, modelErr("update", "node", id, ErrProtectedGlobal)
	}
	if after.ParentNodeID != before.ParentNodeID && after.ParentNodeID != "" {
		if _, ok := s.NodeByID(after.ParentNodeID); !ok {
			done("validation_error")
			return model.Node{}, modelErr("update", "node", after.ParentNodeID, ErrNodeNotFound)
		}
		if err := s.checkAcyclic(id, after.ParentNodeID); err != nil {
			done("validation_error")
			return model.Node{}, modelErr("update", "node", id, err)
		}
	}

	if err := s.beginOp("update_node"); err != nil {
		done("busy")
		return model.Node{}, err
	}
	defer s.endOp("update_node")

	updated, err := s.client.UpdateNode(ctx, after)
	if err != nil {
		done("error")
		return model.Node{}, modelErr("update", "node", id, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return updated, err
	}

	s.history.Perform(history.Action{
		Label: "update node " + updated.Name,
		Undo: func(ctx context.Context) error {
			_, err := s.client.UpdateNode(ctx, before)
			return err
		},
		Redo: func(ctx context.Context) error {
			_, err := s.client.UpdateNode(ctx, after)
			return err
		},
	})
	s.publish("node", events.OpUpdate, updated.ID)
	done("success")
	return updated, nil
}

// checkAcyclic walks from the proposed parent to the root and rejects the
// reparent if the walk revisits the node being updated.
func (s *ModelStore) checkAcyclic(nodeID, proposedParentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	current := proposedParentID
	for current != "" {
		if current == nodeID {
			return ErrCycle
		}
		if seen[current] {
			// Pre-existing loop above us; refuse to attach to it.
			return ErrCycle
		}
		seen[current] = true
		parent, ok := s.nodes[current]
		if !ok {
			break
		}
		current = parent.ParentNodeID
	}
	return nil
}

// DeleteNode deletes a node, every edge touching it (with their flow
// rows), and every component-data link referencing it. Children are NOT
// cascade-deleted; they are promoted to root to avoid silent data loss.
// Destructive: not registered with the history manager.
func (s *ModelStore) DeleteNode(ctx context.Context, id string) error {
	done := s.instrument("delete_node")
	node, ok := s.NodeByID(id)
	if !ok {
		done("validation_error")
		return modelErr("delete", "node", id, ErrNodeNotFound)
	}
	if node.IsGlobal() {
		done("validation_error")
		return modelErr("delete", "node", id, ErrProtectedGlobal)
	}
	if err := s.beginOp("delete_node"); err != nil {
		done("busy")
		return err
	}
	defer s.endOp("delete_node")

	// Cascade: edges touching the node, including their flow rows.
	for _, edge := range s.Edges() {
		if !edge.Touches(id) {
			continue
		}
		if err := s.cascadeDeleteEdge(ctx, edge.ID); err != nil {
			done("error")
			return modelErr("delete", "node", id, err)
		}
	}

	// Cascade: component-data links referencing the node.
	for _, link := range s.ComponentData() {
		if link.NodeID != id {
			continue
		}
		if err := s.client.DeleteComponentData(ctx, link.NodeID, link.DataObjectID); err != nil {
			done("error")
			return modelErr("delete", "node", id, err)
		}
	}

	// Promote children to root rather than deleting them.
	for _, child := range s.Nodes() {
		if child.ParentNodeID != id {
			continue
		}
		child.ParentNodeID = ""
		if _, err := s.client.UpdateNode(ctx, child); err != nil {
			done("error")
			return modelErr("delete", "node", id, err)
		}
	}

	if err := s.client.DeleteNode(ctx, id); err != nil {
		done("error")
		return modelErr("delete", "node", id, err)
	}
	s.layout.Forget(id)

	if err := s.Refresh(ctx); err != nil {
		done("error")
		return err
	}
	s.publish("node", events.OpDelete, id)
	s.logger.Info("node deleted", logging.NodeID(id), logging.String("name", node.Name))
	done("success")
	return nil
}

// DropNode records a node's new position and resolves spatial containment:
// the user-created container with the largest overlap becomes the parent,
// or root when nothing overlaps. When the resolved parent equals the
// current parent this is an idempotent no-op producing no history entry.
func (s *ModelStore) DropNode(ctx context.Context, id string, pos model.Position) error {
	node, ok := s.NodeByID(id)
	if !ok {
		return modelErr("drop", "node", id, ErrNodeNotFound)
	}
	s.layout.Place(id, pos)

	size, ok := s.layout.SizeOf(id)
	if !ok {
		size = geometry.DefaultSize(node.Category)
	}

	candidates := make([]model.Node, 0)
	for _, c := range s.Nodes() {
		if c.ID != id {
			candidates = append(candidates, c)
		}
	}
	parent := s.layout.ResolveParent(pos, size, candidates)
	if parent == node.ParentNodeID {
		return nil
	}
	_, err := s.UpdateNode(ctx, id, NodePatch{ParentNodeID: &parent})
	return err
}
