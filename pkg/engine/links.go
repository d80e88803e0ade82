package engine

import (
	"context"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/history"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// ComponentDataFor returns the link for a (node, data object) pair.
func (s *ModelStore) ComponentDataFor(nodeID, dataObjectID string) (model.ComponentDataLink, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.componentData[componentKey{nodeID, dataObjectID}]
	return l, ok
}

// EdgeFlowFor returns the flow for an (edge, data object) pair.
func (s *ModelStore) EdgeFlowFor(edgeID, dataObjectID string) (model.EdgeDataFlow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.edgeFlows[flowKey{edgeID, dataObjectID}]
	return f, ok
}

// AssignComponentData links a data object to a node with the given role.
// Unique per (node, data object): re-assigning overwrites the role.
// Recorded as an undoable action.
func (s *ModelStore) AssignComponentData(ctx context.Context, nodeID, dataObjectID string, role model.DataRole) error {
	done := s.instrument("assign_component_data")
	if err := model.ValidateDataRole(role); err != nil {
		done("validation_error")
		return modelErr("assign", "component data", nodeID, err)
	}
	if _, ok := s.NodeByID(nodeID); !ok {
		done("validation_error")
		return modelErr("assign", "component data", nodeID, ErrNodeNotFound)
	}
	if _, ok := s.DataObjectByID(dataObjectID); !ok {
		done("validation_error")
		return modelErr("assign", "component data", dataObjectID, ErrObjectNotFound)
	}

	previous, hadPrevious := s.ComponentDataFor(nodeID, dataObjectID)
	link := model.ComponentDataLink{NodeID: nodeID, DataObjectID: dataObjectID, Role: role}

	if err := s.client.UpsertComponentData(ctx, link); err != nil {
		done("error")
		return modelErr("assign", "component data", nodeID, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return err
	}

	s.history.Perform(history.Action{
		Label: "assign data to component",
		Undo: func(ctx context.Context) error {
			if hadPrevious {
				return s.client.UpsertComponentData(ctx, previous)
			}
			return s.client.DeleteComponentData(ctx, nodeID, dataObjectID)
		},
		Redo: func(ctx context.Context) error {
			return s.client.UpsertComponentData(ctx, link)
		},
	})
	s.publish("component-data", events.OpUpdate, nodeID)
	done("success")
	return nil
}

// RemoveComponentData removes a component-data link. Destructive: not
// registered with history.
func (s *ModelStore) RemoveComponentData(ctx context.Context, nodeID, dataObjectID string) error {
	done := s.instrument("remove_component_data")
	if _, ok := s.ComponentDataFor(nodeID, dataObjectID); !ok {
		done("validation_error")
		return modelErr("remove", "component data", nodeID, ErrLinkNotFound)
	}
	if err := s.client.DeleteComponentData(ctx, nodeID, dataObjectID); err != nil {
		done("error")
		return modelErr("remove", "component data", nodeID, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return err
	}
	s.publish("component-data", events.OpDelete, nodeID)
	done("success")
	return nil
}

// AssignEdgeFlow maps a data object onto an interface with the given
// direction. Unique per (edge, data object): re-assigning overwrites the
// direction. Recorded as an undoable action.
func (s *ModelStore) AssignEdgeFlow(ctx context.Context, edgeID, dataObjectID string, direction model.FlowDirection) error {
	done := s.instrument("assign_edge_flow")
	if err := model.ValidateFlowDirection(direction); err != nil {
		done("validation_error")
		return modelErr("assign", "edge flow", edgeID, err)
	}
	if _, ok := s.EdgeByID(edgeID); !ok {
		done("validation_error")
		return modelErr("assign", "edge flow", edgeID, ErrEdgeNotFound)
	}
	if _, ok := s.DataObjectByID(dataObjectID); !ok {
		done("validation_error")
		return modelErr("assign", "edge flow", dataObjectID, ErrObjectNotFound)
	}

	previous, hadPrevious := s.EdgeFlowFor(edgeID, dataObjectID)
	flow := model.EdgeDataFlow{EdgeID: edgeID, DataObjectID: dataObjectID, Direction: direction}

	if err := s.client.UpsertEdgeFlow(ctx, flow); err != nil {
		done("error")
		return modelErr("assign", "edge flow", edgeID, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return err
	}

	s.history.Perform(history.Action{
		Label: "assign data flow",
		Undo: func(ctx context.Context) error {
			if hadPrevious {
				return s.client.UpsertEdgeFlow(ctx, previous)
			}
			return s.client.DeleteEdgeFlow(ctx, edgeID, dataObjectID)
		},
		Redo: func(ctx context.Context) error {
			return s.client.UpsertEdgeFlow(ctx, flow)
		},
	})
	s.publish("edge-flow", events.OpUpdate, edgeID)
	done("success")
	return nil
}

// RemoveEdgeFlow removes an edge-data-flow link. Destructive: not
// registered with history.
func (s *ModelStore) RemoveEdgeFlow(ctx context.Context, edgeID, dataObjectID string) error {
	done := s.instrument("remove_edge_flow")
	if _, ok := s.EdgeFlowFor(edgeID, dataObjectID); !ok {
		done("validation_error")
		return modelErr("remove", "edge flow", edgeID, ErrLinkNotFound)
	}
	if err := s.client.DeleteEdgeFlow(ctx, edgeID, dataObjectID); err != nil {
		done("error")
		return modelErr("remove", "edge flow", edgeID, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return err
	}
	s.publish("edge-flow", events.OpDelete, edgeID)
	done("success")
	return nil
}

// MapResult reports what a data-role mapping created or reused.
type MapResult struct {
	Link        model.ComponentDataLink
	Edge        model.Edge
	Flow        model.EdgeDataFlow
	CreatedEdge bool
}

// MapComponentData assigns a data role to a node and, when a counterpart
// node is named (the peer the data comes from or goes to), wires the flow
// onto the interface between the pair, creating one only if none exists
// in either direction. Compound and all-or-nothing: a created edge is
// compensated away when a later step fails. Recorded as one undoable
// action.
//
// counterpartID is the node the data flows FROM (role Receives) or TO
// (any other role); pass "" for an at-rest mapping without a flow.
func (s *ModelStore) MapComponentData(ctx context.Context, nodeID, dataObjectID string, role model.DataRole, counterpartID string) (MapResult, error) {
	done := s.instrument("map_component_data")
	if err := model.ValidateDataRole(role); err != nil {
		done("validation_error")
		return MapResult{}, modelErr("map", "component data", nodeID, err)
	}
	if _, ok := s.NodeByID(nodeID); !ok {
		done("validation_error")
		return MapResult{}, modelErr("map", "component data", nodeID, ErrNodeNotFound)
	}
	if _, ok := s.DataObjectByID(dataObjectID); !ok {
		done("validation_error")
		return MapResult{}, modelErr("map", "component data", dataObjectID, ErrObjectNotFound)
	}
	if counterpartID == "" {
		err := s.AssignComponentData(ctx, nodeID, dataObjectID, role)
		link, _ := s.ComponentDataFor(nodeID, dataObjectID)
		done(statusOf(err))
		return MapResult{Link: link}, err
	}
	if _, ok := s.NodeByID(counterpartID); !ok {
		done("validation_error")
		return MapResult{}, modelErr("map", "component data", counterpartID, ErrNodeNotFound)
	}
	if err := s.beginOp("map_component_data"); err != nil {
		done("busy")
		return MapResult{}, err
	}
	defer s.endOp("map_component_data")

	// For Receives the data flows counterpart -> node; every other role
	// flows node -> counterpart.
	from, to := nodeID, counterpartID
	if role == model.RoleReceives {
		from, to = counterpartID, nodeID
	}

	edge, flowDirection, createdEdge, err := s.ResolveOrCreateEdgeForFlow(ctx, from, to)
	if err != nil {
		done("error")
		return MapResult{}, err
	}

	previousFlow, hadPreviousFlow := s.EdgeFlowFor(edge.ID, dataObjectID)
	flow := model.EdgeDataFlow{EdgeID: edge.ID, DataObjectID: dataObjectID, Direction: flowDirection}
	if err := s.client.UpsertEdgeFlow(ctx, flow); err != nil {
		if createdEdge {
			s.compensate(ctx, "map", func(ctx context.Context) error {
				return s.client.DeleteEdge(ctx, edge.ID)
			})
		}
		done("error")
		return MapResult{}, modelErr("map", "edge flow", edge.ID, err)
	}

	previousLink, hadPreviousLink := s.ComponentDataFor(nodeID, dataObjectID)
	link := model.ComponentDataLink{NodeID: nodeID, DataObjectID: dataObjectID, Role: role}
	if err := s.client.UpsertComponentData(ctx, link); err != nil {
		s.compensate(ctx, "map", func(ctx context.Context) error {
			if hadPreviousFlow {
				return s.client.UpsertEdgeFlow(ctx, previousFlow)
			}
			return s.client.DeleteEdgeFlow(ctx, flow.EdgeID, flow.DataObjectID)
		})
		if createdEdge {
			s.compensate(ctx, "map", func(ctx context.Context) error {
				return s.client.DeleteEdge(ctx, edge.ID)
			})
		}
		done("error")
		return MapResult{}, modelErr("map", "component data", nodeID, err)
	}

	if err := s.Refresh(ctx); err != nil {
		done("error")
		return MapResult{}, err
	}

	s.history.Perform(history.Action{
		Label: "map data onto interface",
		Undo: func(ctx context.Context) error {
			if hadPreviousLink {
				if err := s.client.UpsertComponentData(ctx, previousLink); err != nil {
					return err
				}
			} else if err := s.client.DeleteComponentData(ctx, nodeID, dataObjectID); err != nil {
				return err
			}
			if hadPreviousFlow {
				if err := s.client.UpsertEdgeFlow(ctx, previousFlow); err != nil {
					return err
				}
			} else if err := s.client.DeleteEdgeFlow(ctx, flow.EdgeID, flow.DataObjectID); err != nil {
				return err
			}
			if createdEdge {
				return s.client.DeleteEdge(ctx, edge.ID)
			}
			return nil
		},
		Redo: func(ctx context.Context) error {
			if createdEdge {
				if _, err := s.client.CreateEdge(ctx, edge); err != nil {
					return err
				}
			}
			if err := s.client.UpsertEdgeFlow(ctx, flow); err != nil {
				return err
			}
			return s.client.UpsertComponentData(ctx, link)
		},
	})
	s.publish("component-data", events.OpUpdate, nodeID)
	done("success")
	return MapResult{Link: link, Edge: edge, Flow: flow, CreatedEdge: createdEdge}, nil
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
