// Package memstore is the in-memory reference implementation of the
// persistence contract. It backs the reference server's default mode and
// the engine's tests. It is deliberately naive CRUD: cascade rules are
// engine contracts, not store behavior.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/persistence"
)

type componentKey struct {
	NodeID       string
	DataObjectID string
}

type flowKey struct {
	EdgeID       string
	DataObjectID string
}

type savepointRecord struct {
	summary model.Savepoint
	state   model.SavepointState
}

// Store holds one project's entity collections in memory.
type Store struct {
	mu            sync.RWMutex
	nodes         map[string]model.Node
	edges         map[string]model.Edge
	dataObjects   map[string]model.DataObject
	componentData map[componentKey]model.ComponentDataLink
	edgeFlows     map[flowKey]model.EdgeDataFlow
	savepoints    map[string]savepointRecord
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nodes:         make(map[string]model.Node),
		edges:         make(map[string]model.Edge),
		dataObjects:   make(map[string]model.DataObject),
		componentData: make(map[componentKey]model.ComponentDataLink),
		edgeFlows:     make(map[flowKey]model.EdgeDataFlow),
		savepoints:    make(map[string]savepointRecord),
	}
}

var _ persistence.Client = (*Store)(nil)

// Nodes

func (s *Store) ListNodes(ctx context.Context) ([]model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) CreateNode(ctx context.Context, node model.Node) (model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	if _, exists := s.nodes[node.ID]; exists {
		return model.Node{}, &persistence.RequestError{Op: "create", Entity: "node", ID: node.ID, Cause: persistence.ErrConflict}
	}
	s.nodes[node.ID] = node
	return node, nil
}

func (s *Store) UpdateNode(ctx context.Context, node model.Node) (model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[node.ID]; !exists {
		return model.Node{}, &persistence.RequestError{Op: "update", Entity: "node", ID: node.ID, Cause: persistence.ErrNotFound}
	}
	s.nodes[node.ID] = node
	return node, nil
}

func (s *Store) DeleteNode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[id]; !exists {
		return &persistence.RequestError{Op: "delete", Entity: "node", ID: id, Cause: persistence.ErrNotFound}
	}
	delete(s.nodes, id)
	return nil
}

// Edges

func (s *Store) ListEdges(ctx context.Context) ([]model.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) CreateEdge(ctx context.Context, edge model.Edge) (model.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if edge.ID == "" {
		edge.ID = uuid.New().String()
	}
	if _, exists := s.edges[edge.ID]; exists {
		return model.Edge{}, &persistence.RequestError{Op: "create", Entity: "edge", ID: edge.ID, Cause: persistence.ErrConflict}
	}
	s.edges[edge.ID] = edge
	return edge, nil
}

func (s *Store) UpdateEdge(ctx context.Context, edge model.Edge) (model.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.edges[edge.ID]; !exists {
		return model.Edge{}, &persistence.RequestError{Op: "update", Entity: "edge", ID: edge.ID, Cause: persistence.ErrNotFound}
	}
	s.edges[edge.ID] = edge
	return edge, nil
}

func (s *Store) DeleteEdge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.edges[id]; !exists {
		return &persistence.RequestError{Op: "delete", Entity: "edge", ID: id, Cause: persistence.ErrNotFound}
	}
	delete(s.edges, id)
	return nil
}

// Data objects

func (s *Store) ListDataObjects(ctx context.Context) ([]model.DataObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.DataObject, 0, len(s.dataObjects))
	for _, o := range s.dataObjects {
		out = append(out, o)
	}
	return out, nil
}

func (s *Store) CreateDataObject(ctx context.Context, obj model.DataObject) (model.DataObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj.ID == "" {
		obj.ID = uuid.New().String()
	}
	if _, exists := s.dataObjects[obj.ID]; exists {
		return model.DataObject{}, &persistence.RequestError{Op: "create", Entity: "data object", ID: obj.ID, Cause: persistence.ErrConflict}
	}
	s.dataObjects[obj.ID] = obj
	return obj, nil
}

func (s *Store) UpdateDataObject(ctx context.Context, obj model.DataObject) (model.DataObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.dataObjects[obj.ID]; !exists {
		return model.DataObject{}, &persistence.RequestError{Op: "update", Entity: "data object", ID: obj.ID, Cause: persistence.ErrNotFound}
	}
	s.dataObjects[obj.ID] = obj
	return obj, nil
}

func (s *Store) DeleteDataObject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.dataObjects[id]; !exists {
		return &persistence.RequestError{Op: "delete", Entity: "data object", ID: id, Cause: persistence.ErrNotFound}
	}
	delete(s.dataObjects, id)
	return nil
}

// Component-data links

func (s *Store) ListComponentData(ctx context.Context) ([]model.ComponentDataLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ComponentDataLink, 0, len(s.componentData))
	for _, l := range s.componentData {
		out = append(out, l)
	}
	return out, nil
}

func (s *Store) UpsertComponentData(ctx context.Context, link model.ComponentDataLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.componentData[componentKey{link.NodeID, link.DataObjectID}] = link
	return nil
}

func (s *Store) DeleteComponentData(ctx context.Context, nodeID, dataObjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := componentKey{nodeID, dataObjectID}
	if _, exists := s.componentData[key]; !exists {
		return &persistence.RequestError{Op: "delete", Entity: "component data", ID: nodeID, Cause: persistence.ErrNotFound}
	}
	delete(s.componentData, key)
	return nil
}

// Edge-data-flow links

func (s *Store) ListEdgeFlows(ctx context.Context) ([]model.EdgeDataFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.EdgeDataFlow, 0, len(s.edgeFlows))
	for _, f := range s.edgeFlows {
		out = append(out, f)
	}
	return out, nil
}

func (s *Store) UpsertEdgeFlow(ctx context.Context, flow model.EdgeDataFlow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edgeFlows[flowKey{flow.EdgeID, flow.DataObjectID}] = flow
	return nil
}

func (s *Store) DeleteEdgeFlow(ctx context.Context, edgeID, dataObjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := flowKey{edgeID, dataObjectID}
	if _, exists := s.edgeFlows[key]; !exists {
		return &persistence.RequestError{Op: "delete", Entity: "edge flow", ID: edgeID, Cause: persistence.ErrNotFound}
	}
	delete(s.edgeFlows, key)
	return nil
}

// Savepoints

func (s *Store) ListSavepoints(ctx context.Context) ([]model.Savepoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Savepoint, 0, len(s.savepoints))
	for _, r := range s.savepoints {
		out = append(out, r.summary)
	}
	return out, nil
}

func (s *Store) CreateSavepoint(ctx context.Context, title string, state model.SavepointState) (model.Savepoint, error) {
	if title == "" {
		return model.Savepoint{}, &persistence.RequestError{Op: "create", Entity: "savepoint", Cause: fmt.Errorf("title must not be blank")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := model.Savepoint{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.savepoints[summary.ID] = savepointRecord{summary: summary, state: cloneState(state)}
	return summary, nil
}

func (s *Store) GetSavepointState(ctx context.Context, id string) (model.SavepointState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, exists := s.savepoints[id]
	if !exists {
		return model.SavepointState{}, &persistence.RequestError{Op: "get", Entity: "savepoint", ID: id, Cause: persistence.ErrNotFound}
	}
	return cloneState(rec.state), nil
}

func (s *Store) DeleteSavepoint(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.savepoints[id]; !exists {
		return &persistence.RequestError{Op: "delete", Entity: "savepoint", ID: id, Cause: persistence.ErrNotFound}
	}
	delete(s.savepoints, id)
	return nil
}

// RestoreSavepoint replaces the live collections with the savepoint's
// recorded entities. Entities outside the savepoint are superseded.
func (s *Store) RestoreSavepoint(ctx context.Context, id string) (model.RestoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.savepoints[id]
	if !exists {
		return model.RestoreResult{}, &persistence.RequestError{Op: "restore", Entity: "savepoint", ID: id, Cause: persistence.ErrNotFound}
	}

	state := rec.state
	s.nodes = make(map[string]model.Node, len(state.Nodes))
	for _, n := range state.Nodes {
		s.nodes[n.ID] = n
	}
	s.edges = make(map[string]model.Edge, len(state.Edges))
	for _, e := range state.Edges {
		s.edges[e.ID] = e
	}
	s.dataObjects = make(map[string]model.DataObject, len(state.DataObjects))
	for _, o := range state.DataObjects {
		s.dataObjects[o.ID] = o
	}
	s.componentData = make(map[componentKey]model.ComponentDataLink, len(state.ComponentData))
	for _, l := range state.ComponentData {
		s.componentData[componentKey{l.NodeID, l.DataObjectID}] = l
	}
	s.edgeFlows = make(map[flowKey]model.EdgeDataFlow, len(state.EdgeFlows))
	for _, f := range state.EdgeFlows {
		s.edgeFlows[flowKey{f.EdgeID, f.DataObjectID}] = f
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

func cloneState(state model.SavepointState) model.SavepointState {
	out := model.SavepointState{
		Nodes:         append([]model.Node(nil), state.Nodes...),
		Edges:         append([]model.Edge(nil), state.Edges...),
		DataObjects:   append([]model.DataObject(nil), state.DataObjects...),
		ComponentData: append([]model.ComponentDataLink(nil), state.ComponentData...),
		EdgeFlows:     append([]model.EdgeDataFlow(nil), state.EdgeFlows...),
		Layout:        state.Layout.Clone(),
	}
	return out
}
