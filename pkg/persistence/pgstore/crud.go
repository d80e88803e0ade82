package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/persistence"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

func reqErr(op, entity, id string, cause error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(cause, pgx.ErrNoRows):
		cause = persistence.ErrNotFound
	case errors.As(cause, &pgErr) && pgErr.Code == uniqueViolation:
		cause = persistence.ErrConflict
	}
	return &persistence.RequestError{Op: op, Entity: entity, ID: id, Cause: cause}
}

// Nodes

func (s *Store) ListNodes(ctx context.Context) ([]model.Node, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, category, description, notes, parent_node_id
		FROM nodes WHERE project_id = $1 ORDER BY id`, s.projectID)
	if err != nil {
		return nil, reqErr("list", "node", "", err)
	}
	defer rows.Close()

	out := make([]model.Node, 0)
	for rows.Next() {
		var n model.Node
		if err := rows.Scan(&n.ID, &n.Name, &n.Category, &n.Description, &n.Notes, &n.ParentNodeID); err != nil {
			return nil, reqErr("list", "node", "", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CreateNode(ctx context.Context, node model.Node) (model.Node, error) {
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO nodes (project_id, id, name, category, description, notes, parent_node_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.projectID, node.ID, node.Name, node.Category, node.Description, node.Notes, node.ParentNodeID)
	if err != nil {
		return model.Node{}, reqErr("create", "node", node.ID, err)
	}
	return node, nil
}

func (s *Store) UpdateNode(ctx context.Context, node model.Node) (model.Node, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE nodes SET name = $3, category = $4, description = $5, notes = $6, parent_node_id = $7
		WHERE project_id = $1 AND id = $2`,
		s.projectID, node.ID, node.Name, node.Category, node.Description, node.Notes, node.ParentNodeID)
	if err != nil {
		return model.Node{}, reqErr("update", "node", node.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return model.Node{}, reqErr("update", "node", node.ID, persistence.ErrNotFound)
	}
	return node, nil
}

func (s *Store) DeleteNode(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM nodes WHERE project_id = $1 AND id = $2`, s.projectID, id)
	if err != nil {
		return reqErr("delete", "node", id, err)
	}
	if tag.RowsAffected() == 0 {
		return reqErr("delete", "node", id, persistence.ErrNotFound)
	}
	return nil
}

// Edges

func (s *Store) ListEdges(ctx context.Context) ([]model.Edge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_node_id, target_node_id, source_handle_id, target_handle_id,
		       direction, name, protocol, description, notes
		FROM edges WHERE project_id = $1 ORDER BY id`, s.projectID)
	if err != nil {
		return nil, reqErr("list", "edge", "", err)
	}
	defer rows.Close()

	out := make([]model.Edge, 0)
	for rows.Next() {
		var e model.Edge
		if err := rows.Scan(&e.ID, &e.SourceNodeID, &e.TargetNodeID, &e.SourceHandleID, &e.TargetHandleID,
			&e.Direction, &e.Name, &e.Protocol, &e.Description, &e.Notes); err != nil {
			return nil, reqErr("list", "edge", "", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CreateEdge(ctx context.Context, edge model.Edge) (model.Edge, error) {
	if edge.ID == "" {
		edge.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO edges (project_id, id, source_node_id, target_node_id, source_handle_id,
		                   target_handle_id, direction, name, protocol, description, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.projectID, edge.ID, edge.SourceNodeID, edge.TargetNodeID, edge.SourceHandleID,
		edge.TargetHandleID, edge.Direction, edge.Name, edge.Protocol, edge.Description, edge.Notes)
	if err != nil {
		return model.Edge{}, reqErr("create", "edge", edge.ID, err)
	}
	return edge, nil
}

func (s *Store) UpdateEdge(ctx context.Context, edge model.Edge) (model.Edge, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE edges SET source_node_id = $3, target_node_id = $4, source_handle_id = $5,
		       target_handle_id = $6, direction = $7, name = $8, protocol = $9,
		       description = $10, notes = $11
		WHERE project_id = $1 AND id = $2`,
		s.projectID, edge.ID, edge.SourceNodeID, edge.TargetNodeID, edge.SourceHandleID,
		edge.TargetHandleID, edge.Direction, edge.Name, edge.Protocol, edge.Description, edge.Notes)
	if err != nil {
		return model.Edge{}, reqErr("update", "edge", edge.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return model.Edge{}, reqErr("update", "edge", edge.ID, persistence.ErrNotFound)
	}
	return edge, nil
}

func (s *Store) DeleteEdge(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM edges WHERE project_id = $1 AND id = $2`, s.projectID, id)
	if err != nil {
		return reqErr("delete", "edge", id, err)
	}
	if tag.RowsAffected() == 0 {
		return reqErr("delete", "edge", id, persistence.ErrNotFound)
	}
	return nil
}

// Data objects

func (s *Store) ListDataObjects(ctx context.Context) ([]model.DataObject, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, data_class, description, confidentiality, integrity, availability
		FROM data_objects WHERE project_id = $1 ORDER BY id`, s.projectID)
	if err != nil {
		return nil, reqErr("list", "data object", "", err)
	}
	defer rows.Close()

	out := make([]model.DataObject, 0)
	for rows.Next() {
		var o model.DataObject
		if err := rows.Scan(&o.ID, &o.Name, &o.DataClass, &o.Description,
			&o.Confidentiality, &o.Integrity, &o.Availability); err != nil {
			return nil, reqErr("list", "data object", "", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) CreateDataObject(ctx context.Context, obj model.DataObject) (model.DataObject, error) {
	if obj.ID == "" {
		obj.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO data_objects (project_id, id, name, data_class, description,
		                          confidentiality, integrity, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.projectID, obj.ID, obj.Name, obj.DataClass, obj.Description,
		obj.Confidentiality, obj.Integrity, obj.Availability)
	if err != nil {
		return model.DataObject{}, reqErr("create", "data object", obj.ID, err)
	}
	return obj, nil
}

func (s *Store) UpdateDataObject(ctx context.Context, obj model.DataObject) (model.DataObject, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE data_objects SET name = $3, data_class = $4, description = $5,
		       confidentiality = $6, integrity = $7, availability = $8
		WHERE project_id = $1 AND id = $2`,
		s.projectID, obj.ID, obj.Name, obj.DataClass, obj.Description,
		obj.Confidentiality, obj.Integrity, obj.Availability)
	if err != nil {
		return model.DataObject{}, reqErr("update", "data object", obj.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return model.DataObject{}, reqErr("update", "data object", obj.ID, persistence.ErrNotFound)
	}
	return obj, nil
}

func (s *Store) DeleteDataObject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM data_objects WHERE project_id = $1 AND id = $2`, s.projectID, id)
	if err != nil {
		return reqErr("delete", "data object", id, err)
	}
	if tag.RowsAffected() == 0 {
		return reqErr("delete", "data object", id, persistence.ErrNotFound)
	}
	return nil
}

// Component-data links

func (s *Store) ListComponentData(ctx context.Context) ([]model.ComponentDataLink, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT node_id, data_object_id, role
		FROM component_data WHERE project_id = $1 ORDER BY node_id, data_object_id`, s.projectID)
	if err != nil {
		return nil, reqErr("list", "component data", "", err)
	}
	defer rows.Close()

	out := make([]model.ComponentDataLink, 0)
	for rows.Next() {
		var l model.ComponentDataLink
		if err := rows.Scan(&l.NodeID, &l.DataObjectID, &l.Role); err != nil {
			return nil, reqErr("list", "component data", "", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) UpsertComponentData(ctx context.Context, link model.ComponentDataLink) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO component_data (project_id, node_id, data_object_id, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, node_id, data_object_id) DO UPDATE SET role = EXCLUDED.role`,
		s.projectID, link.NodeID, link.DataObjectID, link.Role)
	if err != nil {
		return reqErr("upsert", "component data", link.NodeID, err)
	}
	return nil
}

func (s *Store) DeleteComponentData(ctx context.Context, nodeID, dataObjectID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM component_data WHERE project_id = $1 AND node_id = $2 AND data_object_id = $3`,
		s.projectID, nodeID, dataObjectID)
	if err != nil {
		return reqErr("delete", "component data", nodeID, err)
	}
	if tag.RowsAffected() == 0 {
		return reqErr("delete", "component data", nodeID, persistence.ErrNotFound)
	}
	return nil
}

// Edge-data-flow links

func (s *Store) ListEdgeFlows(ctx context.Context) ([]model.EdgeDataFlow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT edge_id, data_object_id, direction
		FROM edge_flows WHERE project_id = $1 ORDER BY edge_id, data_object_id`, s.projectID)
	if err != nil {
		return nil, reqErr("list", "edge flow", "", err)
	}
	defer rows.Close()

	out := make([]model.EdgeDataFlow, 0)
	for rows.Next() {
		var f model.EdgeDataFlow
		if err := rows.Scan(&f.EdgeID, &f.DataObjectID, &f.Direction); err != nil {
			return nil, reqErr("list", "edge flow", "", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) UpsertEdgeFlow(ctx context.Context, flow model.EdgeDataFlow) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO edge_flows (project_id, edge_id, data_object_id, direction)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, edge_id, data_object_id) DO UPDATE SET direction = EXCLUDED.direction`,
		s.projectID, flow.EdgeID, flow.DataObjectID, flow.Direction)
	if err != nil {
		return reqErr("upsert", "edge flow", flow.EdgeID, err)
	}
	return nil
}

func (s *Store) DeleteEdgeFlow(ctx context.Context, edgeID, dataObjectID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM edge_flows WHERE project_id = $1 AND edge_id = $2 AND data_object_id = $3`,
		s.projectID, edgeID, dataObjectID)
	if err != nil {
		return reqErr("delete", "edge flow", edgeID, err)
	}
	if tag.RowsAffected() == 0 {
		return reqErr("delete", "edge flow", edgeID, persistence.ErrNotFound)
	}
	return nil
}

// Savepoints. The full entity payload is stored as one JSONB document;
// restore replays it into the live tables in a single transaction.

func (s *Store) ListSavepoints(ctx context.Context) ([]model.Savepoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, created_at
		FROM savepoints WHERE project_id = $1 ORDER BY created_at, id`, s.projectID)
	if err != nil {
		return nil, reqErr("list", "savepoint", "", err)
	}
	defer rows.Close()

	out := make([]model.Savepoint, 0)
	for rows.Next() {
		var sp model.Savepoint
		if err := rows.Scan(&sp.ID, &sp.Title, &sp.CreatedAt); err != nil {
			return nil, reqErr("list", "savepoint", "", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *Store) CreateSavepoint(ctx context.Context, title string, state model.SavepointState) (model.Savepoint, error) {
	if title == "" {
		return model.Savepoint{}, reqErr("create", "savepoint", "", errors.New("title must not be blank"))
	}
	summary := model.Savepoint{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO savepoints (project_id, id, title, created_at, state)
		VALUES ($1, $2, $3, $4, $5)`,
		s.projectID, summary.ID, summary.Title, summary.CreatedAt, state)
	if err != nil {
		return model.Savepoint{}, reqErr("create", "savepoint", summary.ID, err)
	}
	return summary, nil
}

func (s *Store) GetSavepointState(ctx context.Context, id string) (model.SavepointState, error) {
	var state model.SavepointState
	err := s.pool.QueryRow(ctx, `
		SELECT state FROM savepoints WHERE project_id = $1 AND id = $2`, s.projectID, id).Scan(&state)
	if err != nil {
		return model.SavepointState{}, reqErr("get", "savepoint", id, err)
	}
	return state, nil
}

func (s *Store) DeleteSavepoint(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM savepoints WHERE project_id = $1 AND id = $2`, s.projectID, id)
	if err != nil {
		return reqErr("delete", "savepoint", id, err)
	}
	if tag.RowsAffected() == 0 {
		return reqErr("delete", "savepoint", id, persistence.ErrNotFound)
	}
	return nil
}

// RestoreSavepoint wipes the project's live entities and replays the
// savepoint's payload inside one transaction, so a mid-restore failure
// leaves the prior state intact.
func (s *Store) RestoreSavepoint(ctx context.Context, id string) (model.RestoreResult, error) {
	state, err := s.GetSavepointState(ctx, id)
	if err != nil {
		return model.RestoreResult{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.RestoreResult{}, reqErr("restore", "savepoint", id, err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"component_data", "edge_flows", "edges", "data_objects", "nodes"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE project_id = $1`, s.projectID); err != nil {
			return model.RestoreResult{}, reqErr("restore", "savepoint", id, err)
		}
	}

	for _, n := range state.Nodes {
		if _, err := tx.Exec(ctx, `
			INSERT INTO nodes (project_id, id, name, category, description, notes, parent_node_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.projectID, n.ID, n.Name, n.Category, n.Description, n.Notes, n.ParentNodeID); err != nil {
			return model.RestoreResult{}, reqErr("restore", "savepoint", id, err)
		}
	}
	for _, e := range state.Edges {
		if _, err := tx.Exec(ctx, `
			INSERT INTO edges (project_id, id, source_node_id, target_node_id, source_handle_id,
			                   target_handle_id, direction, name, protocol, description, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			s.projectID, e.ID, e.SourceNodeID, e.TargetNodeID, e.SourceHandleID,
			e.TargetHandleID, e.Direction, e.Name, e.Protocol, e.Description, e.Notes); err != nil {
			return model.RestoreResult{}, reqErr("restore", "savepoint", id, err)
		}
	}
	for _, o := range state.DataObjects {
		if _, err := tx.Exec(ctx, `
			INSERT INTO data_objects (project_id, id, name, data_class, description,
			                          confidentiality, integrity, availability)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			s.projectID, o.ID, o.Name, o.DataClass, o.Description,
			o.Confidentiality, o.Integrity, o.Availability); err != nil {
			return model.RestoreResult{}, reqErr("restore", "savepoint", id, err)
		}
	}
	for _, l := range state.ComponentData {
		if _, err := tx.Exec(ctx, `
			INSERT INTO component_data (project_id, node_id, data_object_id, role)
			VALUES ($1, $2, $3, $4)`,
			s.projectID, l.NodeID, l.DataObjectID, l.Role); err != nil {
			return model.RestoreResult{}, reqErr("restore", "savepoint", id, err)
		}
	}
	for _, f := range state.EdgeFlows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO edge_flows (project_id, edge_id, data_object_id, direction)
			VALUES ($1, $2, $3, $4)`,
			s.projectID, f.EdgeID, f.DataObjectID, f.Direction); err != nil {
			return model.RestoreResult{}, reqErr("restore", "savepoint", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.RestoreResult{}, reqErr("restore", "savepoint", id, err)
	}

	return model.RestoreResult{
		NodeCount:          len(state.Nodes),
		EdgeCount:          len(state.Edges),
		DataObjectCount:    len(state.DataObjects),
		ComponentDataCount: len(state.ComponentData),
		EdgeFlowCount:      len(state.EdgeFlows),
		Layout:             state.Layout.Clone(),
	}, nil
}
