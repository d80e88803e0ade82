// Package persistence defines the contract against the persistence
// collaborator: one CRUD resource family per entity kind, addressed per
// project. The engine treats the collaborator's responses as authoritative
// and refetches all collections after every mutating round-trip.
package persistence

import (
	"context"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// Client is the per-project persistence contract. Implementations:
// HTTPClient (remote backend), memstore.Store (in-memory reference),
// pgstore.Store (PostgreSQL reference).
type Client interface {
	// Nodes
	ListNodes(ctx context.Context) ([]model.Node, error)
	CreateNode(ctx context.Context, node model.Node) (model.Node, error)
	UpdateNode(ctx context.Context, node model.Node) (model.Node, error)
	DeleteNode(ctx context.Context, id string) error

	// Edges
	ListEdges(ctx context.Context) ([]model.Edge, error)
	CreateEdge(ctx context.Context, edge model.Edge) (model.Edge, error)
	UpdateEdge(ctx context.Context, edge model.Edge) (model.Edge, error)
	DeleteEdge(ctx context.Context, id string) error

	// Data objects
	ListDataObjects(ctx context.Context) ([]model.DataObject, error)
	CreateDataObject(ctx context.Context, obj model.DataObject) (model.DataObject, error)
	UpdateDataObject(ctx context.Context, obj model.DataObject) (model.DataObject, error)
	DeleteDataObject(ctx context.Context, id string) error

	// Component-data links (composite key: nodeID x dataObjectID)
	ListComponentData(ctx context.Context) ([]model.ComponentDataLink, error)
	UpsertComponentData(ctx context.Context, link model.ComponentDataLink) error
	DeleteComponentData(ctx context.Context, nodeID, dataObjectID string) error

	// Edge-data-flow links (composite key: edgeID x dataObjectID)
	ListEdgeFlows(ctx context.Context) ([]model.EdgeDataFlow, error)
	UpsertEdgeFlow(ctx context.Context, flow model.EdgeDataFlow) error
	DeleteEdgeFlow(ctx context.Context, edgeID, dataObjectID string) error

	// Savepoints
	ListSavepoints(ctx context.Context) ([]model.Savepoint, error)
	CreateSavepoint(ctx context.Context, title string, state model.SavepointState) (model.Savepoint, error)
	GetSavepointState(ctx context.Context, id string) (model.SavepointState, error)
	DeleteSavepoint(ctx context.Context, id string) error
	RestoreSavepoint(ctx context.Context, id string) (model.RestoreResult, error)
}
