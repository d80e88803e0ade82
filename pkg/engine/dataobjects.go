package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/history"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// uniqueDataObjectName keeps data object names unique within the project
// by appending " (2)", " (3)", ... on collision.
func (s *ModelStore) uniqueDataObjectName(base string) string {
	base = strings.TrimSpace(base)
	taken := make(map[string]bool)
	s.mu.Lock()
	for _, o := range s.dataObjects {
		taken[o.Name] = true
	}
	s.mu.Unlock()

	if !taken[base] {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)", base, i)
		if !taken[candidate] {
			return candidate
		}
	}
}

// CreateDataObject validates and creates a data object. Name collisions
// are resolved with a numeric suffix. Recorded as an undoable action.
func (s *ModelStore) CreateDataObject(ctx context.Context, req model.DataObjectRequest) (model.DataObject, error) {
	done := s.instrument("create_data_object")
	if err := model.ValidateDataObjectRequest(&req); err != nil {
		done("validation_error")
		return model.DataObject{}, modelErr("create", "data object", "", err)
	}
	if err := s.beginOp("create_data_object"); err != nil {
		done("busy")
		return model.DataObject{}, err
	}
	defer s.endOp("create_data_object")

	object := model.DataObject{
		ID:              newID(),
		Name:            s.uniqueDataObjectName(req.Name),
		DataClass:       req.DataClass,
		Description:     req.Description,
		Confidentiality: req.Confidentiality,
		Integrity:       req.Integrity,
		Availability:    req.Availability,
	}

	created, err := s.client.CreateDataObject(ctx, object)
	if err != nil {
		done("error")
		return model.DataObject{}, modelErr("create", "data object", object.ID, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return created, err
	}

	s.history.Perform(history.Action{
		Label: "create data object " + created.Name,
		Undo: func(ctx context.Context) error {
			return s.client.DeleteDataObject(ctx, created.ID)
		},
		Redo: func(ctx context.Context) error {
			_, err := s.client.CreateDataObject(ctx, created)
			return err
		},
	})
	s.publish("data-object", events.OpCreate, created.ID)
	done("success")
	return created, nil
}

// UpdateDataObject replaces a data object's fields. Recorded as an
// undoable action.
func (s *ModelStore) UpdateDataObject(ctx context.Context, id string, req model.DataObjectRequest) (model.DataObject, error) {
	done := s.instrument("update_data_object")
	before, ok := s.DataObjectByID(id)
	if !ok {
		done("validation_error")
		return model.DataObject{}, modelErr("update", "data object", id, ErrObjectNotFound)
	}
	if err := model.ValidateDataObjectRequest(&req); err != nil {
		done("validation_error")
		return model.DataObject{}, modelErr("update", "data object", id, err)
	}
	if err := s.beginOp("update_data_object"); err != nil {
		done("busy")
		return model.DataObject{}, err
	}
	defer s.endOp("update_data_object")

	after := before
	after.DataClass = req.DataClass
	after.Description = req.Description
	after.Confidentiality = req.Confidentiality
	after.Integrity = req.Integrity
	after.Availability = req.Availability
	if req.Name != before.Name {
		after.Name = s.uniqueDataObjectName(req.Name)
	}

	updated, err := s.client.UpdateDataObject(ctx, after)
	if err != nil {
		done("error")
		return model.DataObject{}, modelErr("update", "data object", id, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return updated, err
	}

	s.history.Perform(history.Action{
		Label: "update data object " + updated.Name,
		Undo: func(ctx context.Context) error {
			_, err := s.client.UpdateDataObject(ctx, before)
			return err
		},
		Redo: func(ctx context.Context) error {
			_, err := s.client.UpdateDataObject(ctx, updated)
			return err
		},
	})
	s.publish("data-object", events.OpUpdate, updated.ID)
	done("success")
	return updated, nil
}

// DeleteDataObject removes a data object, its flow rows and its
// component-data links. An edge whose sole remaining flow payload was
// this object is pruned first, mirroring the direct-connect auto-create
// contract symmetrically. Destructive: not registered with history.
func (s *ModelStore) DeleteDataObject(ctx context.Context, id string) error {
	done := s.instrument("delete_data_object")
	object, ok := s.DataObjectByID(id)
	if !ok {
		done("validation_error")
		return modelErr("delete", "data object", id, ErrObjectNotFound)
	}
	if err := s.beginOp("delete_data_object"); err != nil {
		done("busy")
		return err
	}
	defer s.endOp("delete_data_object")

	flows := s.EdgeFlows()
	otherPayloads := make(map[string]int)
	for _, f := range flows {
		if f.DataObjectID != id {
			otherPayloads[f.EdgeID]++
		}
	}

	for _, f := range flows {
		if f.DataObjectID != id {
			continue
		}
		if otherPayloads[f.EdgeID] == 0 {
			// The edge exists only to carry this flow; prune it.
			if err := s.cascadeDeleteEdge(ctx, f.EdgeID); err != nil {
				done("error")
				return modelErr("delete", "data object", id, err)
			}
			s.logger.Info("pruned interface carrying only deleted data object",
				logging.EdgeID(f.EdgeID), logging.DataObjectID(id))
			continue
		}
		if err := s.client.DeleteEdgeFlow(ctx, f.EdgeID, f.DataObjectID); err != nil {
			done("error")
			return modelErr("delete", "data object", id, err)
		}
	}

	for _, link := range s.ComponentData() {
		if link.DataObjectID != id {
			continue
		}
		if err := s.client.DeleteComponentData(ctx, link.NodeID, link.DataObjectID); err != nil {
			done("error")
			return modelErr("delete", "data object", id, err)
		}
	}

	if err := s.client.DeleteDataObject(ctx, id); err != nil {
		done("error")
		return modelErr("delete", "data object", id, err)
	}
	if err := s.Refresh(ctx); err != nil {
		done("error")
		return err
	}
	s.publish("data-object", events.OpDelete, id)
	s.logger.Info("data object deleted", logging.DataObjectID(id), logging.String("name", object.Name))
	done("success")
	return nil
}
