package engine

import (
	"context"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/geometry"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/history"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// CreateEdge validates and creates an interface between two nodes. At most
// one directed edge may exist per ordered (source, target) pair; a
// duplicate is rejected with the existing edge's id so the caller can
// select it instead. Missing or invalid handle ids are resolved against
// current geometry. Recorded as an undoable action.
func (s *ModelStore) CreateEdge(ctx context.Context, req model.EdgeRequest) (model.Edge, error) {
	done := s.instrument("create_edge")
	edge, err := s.buildEdge(req)
	if err != nil {
		done("validation_error")
		return model.Edge{}, err
	}
	if err := s.beginOp("create_edge"); err != nil {
		done("busy")
		return model.Edge{}, err
	}
	defer s.endOp("create_edge")

	created, err := s.client.CreateEdge(ctx, edge)
	if err != nil {
		done("error")
		return model.Edge{}, modelErr("create", "edge", edge.ID, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return created, err
	}

	s.history.Perform(history.Action{
		Label: "create interface",
		Undo: func(ctx context.Context) error {
			return s.client.DeleteEdge(ctx, created.ID)
		},
		Redo: func(ctx context.Context) error {
			_, err := s.client.CreateEdge(ctx, created)
			return err
		},
	})
	s.publish("edge", events.OpCreate, created.ID)
	done("success")
	return created, nil
}

// buildEdge runs the shared validation and handle resolution for edge
// creation without touching the collaborator.
func (s *ModelStore) buildEdge(req model.EdgeRequest) (model.Edge, error) {
	if err := model.ValidateEdgeRequest(&req); err != nil {
		return model.Edge{}, modelErr("create", "edge", "", err)
	}
	source, ok := s.NodeByID(req.SourceNodeID)
	if !ok {
		return model.Edge{}, modelErr("create", "edge", req.SourceNodeID, ErrNodeNotFound)
	}
	target, ok := s.NodeByID(req.TargetNodeID)
	if !ok {
		return model.Edge{}, modelErr("create", "edge", req.TargetNodeID, ErrNodeNotFound)
	}
	if existing, ok := s.EdgeBetween(req.SourceNodeID, req.TargetNodeID); ok {
		return model.Edge{}, &DuplicateEdgeError{
			SourceNodeID:   req.SourceNodeID,
			TargetNodeID:   req.TargetNodeID,
			ExistingEdgeID: existing.ID,
		}
	}

	sourceHandle, targetHandle := req.SourceHandleID, req.TargetHandleID
	if !geometry.ValidHandleID(sourceHandle) || !geometry.ValidHandleID(targetHandle) {
		sourceHandle, targetHandle = s.resolver.Resolve(source, target)
	}

	return model.Edge{
		ID:             newID(),
		SourceNodeID:   req.SourceNodeID,
		TargetNodeID:   req.TargetNodeID,
		SourceHandleID: sourceHandle,
		TargetHandleID: targetHandle,
		Direction:      req.Direction,
		Name:           req.Name,
		Protocol:       req.Protocol,
		Description:    req.Description,
		Notes:          req.Notes,
	}, nil
}

// ConnectResult reports what a direct-connect gesture created.
type ConnectResult struct {
	Edge       model.Edge
	DataObject model.DataObject
	Flow       model.EdgeDataFlow
}

// ConnectNodes implements the direct-connect gesture: it creates the edge,
// auto-creates a uniquely-named data object "<source> --> <target>" and
// maps it onto the edge as a SourceToTarget flow. Compound and
// all-or-nothing: a failure after a partial step triggers compensating
// deletes of the steps already committed. Recorded as one undoable action.
func (s *ModelStore) ConnectNodes(ctx context.Context, sourceID, targetID string, direction model.EdgeDirection) (ConnectResult, error) {
	done := s.instrument("connect_nodes")
	edge, err := s.buildEdge(model.EdgeRequest{
		SourceNodeID: sourceID,
		TargetNodeID: targetID,
		Direction:    direction,
	})
	if err != nil {
		done("validation_error")
		return ConnectResult{}, err
	}
	if err := s.beginOp("connect_nodes"); err != nil {
		done("busy")
		return ConnectResult{}, err
	}
	defer s.endOp("connect_nodes")

	source, _ := s.NodeByID(sourceID)
	target, _ := s.NodeByID(targetID)

	createdEdge, err := s.client.CreateEdge(ctx, edge)
	if err != nil {
		done("error")
		return ConnectResult{}, modelErr("connect", "edge", edge.ID, err)
	}

	object := model.DataObject{
		ID:              newID(),
		Name:            s.uniqueDataObjectName(source.Name + " --> " + target.Name),
		DataClass:       model.ClassOther,
		Confidentiality: 1,
		Integrity:       1,
		Availability:    1,
	}
	createdObject, err := s.client.CreateDataObject(ctx, object)
	if err != nil {
		// Roll the edge back so the net effect is nothing.
		s.compensate(ctx, "connect", func(ctx context.Context) error {
			return s.client.DeleteEdge(ctx, createdEdge.ID)
		})
		done("error")
		return ConnectResult{}, modelErr("connect", "data object", object.ID, err)
	}

	flow := model.EdgeDataFlow{
		EdgeID:       createdEdge.ID,
		DataObjectID: createdObject.ID,
		Direction:    model.FlowSourceToTarget,
	}
	if err := s.client.UpsertEdgeFlow(ctx, flow); err != nil {
		s.compensate(ctx, "connect", func(ctx context.Context) error {
			return s.client.DeleteDataObject(ctx, createdObject.ID)
		})
		s.compensate(ctx, "connect", func(ctx context.Context) error {
			return s.client.DeleteEdge(ctx, createdEdge.ID)
		})
		done("error")
		return ConnectResult{}, modelErr("connect", "edge flow", createdEdge.ID, err)
	}

	if err := s.Refresh(ctx); err != nil {
		done("error")
		return ConnectResult{}, err
	}

	s.history.Perform(history.Action{
		Label: "connect " + source.Name + " to " + target.Name,
		Undo: func(ctx context.Context) error {
			if err := s.client.DeleteEdgeFlow(ctx, flow.EdgeID, flow.DataObjectID); err != nil {
				return err
			}
			if err := s.client.DeleteDataObject(ctx, createdObject.ID); err != nil {
				return err
			}
			return s.client.DeleteEdge(ctx, createdEdge.ID)
		},
		Redo: func(ctx context.Context) error {
			if _, err := s.client.CreateEdge(ctx, createdEdge); err != nil {
				return err
			}
			if _, err := s.client.CreateDataObject(ctx, createdObject); err != nil {
				return err
			}
			return s.client.UpsertEdgeFlow(ctx, flow)
		},
	})
	s.publish("edge", events.OpCreate, createdEdge.ID)
	done("success")
	return ConnectResult{Edge: createdEdge, DataObject: createdObject, Flow: flow}, nil
}

// compensate runs a rollback step and logs (but does not surface) its
// failure: the original error is the one the caller needs to see.
func (s *ModelStore) compensate(ctx context.Context, op string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		s.logger.Error("compensating delete failed", logging.Operation(op), logging.Error(err))
	}
}

// UpdateEdge replaces an edge's mutable fields. Endpoints are fixed; to
// rewire an interface, delete and recreate it. Recorded as an undoable
// action.
func (s *ModelStore) UpdateEdge(ctx context.Context, edge model.Edge) (model.Edge, error) {
	done := s.instrument("update_edge")
	before, ok := s.EdgeByID(edge.ID)
	if !ok {
		done("validation_error")
		return model.Edge{}, modelErr("update", "edge", edge.ID, ErrEdgeNotFound)
	}
	edge.SourceNodeID = before.SourceNodeID
	edge.TargetNodeID = before.TargetNodeID
	if !geometry.ValidHandleID(edge.SourceHandleID) || !geometry.ValidHandleID(edge.TargetHandleID) {
		source, _ := s.NodeByID(edge.SourceNodeID)
		target, _ := s.NodeByID(edge.TargetNodeID)
		edge.SourceHandleID, edge.TargetHandleID = s.resolver.Repair(edge, source, target)
	}

	if err := s.beginOp("update_edge"); err != nil {
		done("busy")
		return model.Edge{}, err
	}
	defer s.endOp("update_edge")

	updated, err := s.client.UpdateEdge(ctx, edge)
	if err != nil {
		done("error")
		return model.Edge{}, modelErr("update", "edge", edge.ID, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return updated, err
	}

	s.history.Perform(history.Action{
		Label: "update interface",
		Undo: func(ctx context.Context) error {
			_, err := s.client.UpdateEdge(ctx, before)
			return err
		},
		Redo: func(ctx context.Context) error {
			_, err := s.client.UpdateEdge(ctx, updated)
			return err
		},
	})
	s.publish("edge", events.OpUpdate, updated.ID)
	done("success")
	return updated, nil
}

// DeleteEdge removes an edge and its flow rows. Destructive: not
// registered with the history manager.
func (s *ModelStore) DeleteEdge(ctx context.Context, id string) error {
	done := s.instrument("delete_edge")
	if _, ok := s.EdgeByID(id); !ok {
		done("validation_error")
		return modelErr("delete", "edge", id, ErrEdgeNotFound)
	}
	if err := s.beginOp("delete_edge"); err != nil {
		done("busy")
		return err
	}
	defer s.endOp("delete_edge")

	if err := s.cascadeDeleteEdge(ctx, id); err != nil {
		done("error")
		return modelErr("delete", "edge", id, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return err
	}
	s.publish("edge", events.OpDelete, id)
	done("success")
	return nil
}

// cascadeDeleteEdge removes an edge's flow rows and then the edge itself,
// without refreshing. Shared by DeleteEdge and the node-delete cascade.
func (s *ModelStore) cascadeDeleteEdge(ctx context.Context, id string) error {
	for _, flow := range s.EdgeFlows() {
		if flow.EdgeID != id {
			continue
		}
		if err := s.client.DeleteEdgeFlow(ctx, flow.EdgeID, flow.DataObjectID); err != nil {
			return err
		}
	}
	return s.client.DeleteEdge(ctx, id)
}

// ResolveOrCreateEdgeForFlow finds the interface to carry a data flow
// between a and b: an existing a->b edge (flow SourceToTarget), else an
// existing b->a edge (flow TargetToSource), else a new a->b edge. Existing
// interfaces between the pair are always reused, never duplicated,
// regardless of which direction the user thinks in.
func (s *ModelStore) ResolveOrCreateEdgeForFlow(ctx context.Context, a, b string) (model.Edge, model.FlowDirection, bool, error) {
	if edge, ok := s.EdgeBetween(a, b); ok {
		return edge, model.FlowSourceToTarget, false, nil
	}
	if edge, ok := s.EdgeBetween(b, a); ok {
		return edge, model.FlowTargetToSource, false, nil
	}

	edge, err := s.buildEdge(model.EdgeRequest{
		SourceNodeID: a,
		TargetNodeID: b,
		Direction:    model.DirectionAToB,
	})
	if err != nil {
		return model.Edge{}, "", false, err
	}
	created, err := s.client.CreateEdge(ctx, edge)
	if err != nil {
		return model.Edge{}, "", false, modelErr("create", "edge", edge.ID, err)
	}
	return created, model.FlowSourceToTarget, true, nil
}
