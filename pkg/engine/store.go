// Package engine owns the canonical model-graph state: nodes, interfaces,
// data objects and their link tables, plus the mutation operations that
// enforce the model invariants. Every mutating round-trip against the
// persistence collaborator is followed by a full refetch; the collaborator
// is authoritative, local state is a last-writer-wins cache.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/geometry"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/history"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/metrics"
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

// Options wires a ModelStore's collaborators. Client and ProjectID are
// required; the rest default to no-ops so tests can instantiate
// independent engine instances.
type Options struct {
	Client    persistence.Client
	ProjectID string
	Logger    logging.Logger
	Bus       *events.Bus
	Metrics   *metrics.Registry
}

// ModelStore is the single owner of all five entity collections.
type ModelStore struct {
	mu        sync.Mutex
	client    persistence.Client
	projectID string
	logger    logging.Logger
	bus       *events.Bus
	metrics   *metrics.Registry

	layout   *geometry.LayoutIndex
	resolver *geometry.HandleResolver
	history  *history.Manager

	nodes         map[string]model.Node
	edges         map[string]model.Edge
	dataObjects   map[string]model.DataObject
	componentData map[componentKey]model.ComponentDataLink
	edgeFlows     map[flowKey]model.EdgeDataFlow

	// warning retains the last non-fatal partial-availability message.
	warning string

	// busy guards re-entrant dispatch of the same operation while a
	// persistence call is in flight.
	busy map[string]bool
}

// NewModelStore creates an engine instance over the given collaborators.
func NewModelStore(opts Options) *ModelStore {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	layout := geometry.NewLayoutIndex()
	s := &ModelStore{
		client:        opts.Client,
		projectID:     opts.ProjectID,
		logger:        logger.With(logging.Component("model-store"), logging.ProjectID(opts.ProjectID)),
		bus:           opts.Bus,
		metrics:       opts.Metrics,
		layout:        layout,
		resolver:      geometry.NewHandleResolver(layout),
		nodes:         make(map[string]model.Node),
		edges:         make(map[string]model.Edge),
		dataObjects:   make(map[string]model.DataObject),
		componentData: make(map[componentKey]model.ComponentDataLink),
		edgeFlows:     make(map[flowKey]model.EdgeDataFlow),
		busy:          make(map[string]bool),
	}
	s.history = history.NewManager(s.Refresh, logger)
	if s.metrics != nil {
		s.history.SetReplayObserver(s.metrics.RecordHistoryReplay)
	}
	return s
}

// Init loads the model and guarantees the protected Global container
// exists. Call once before editing.
func (s *ModelStore) Init(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	return s.ensureGlobal(ctx)
}

// Refresh replaces local entity state wholesale from the collaborator.
// Node, edge and data-object list failures are hard errors; link-table
// failures downgrade to a retained warning so core editing continues.
func (s *ModelStore) Refresh(ctx context.Context) error {
	nodes, err := s.client.ListNodes(ctx)
	if err != nil {
		return modelErr("refresh", "node", "", err)
	}
	edges, err := s.client.ListEdges(ctx)
	if err != nil {
		return modelErr("refresh", "edge", "", err)
	}
	objects, err := s.client.ListDataObjects(ctx)
	if err != nil {
		return modelErr("refresh", "data object", "", err)
	}

	warning := ""
	links, err := s.client.ListComponentData(ctx)
	if err != nil {
		warning = "component-data links unavailable: " + err.Error()
		links = nil
	}
	flows, err := s.client.ListEdgeFlows(ctx)
	if err != nil {
		if warning != "" {
			warning += "; "
		}
		warning += "edge-data-flow links unavailable: " + err.Error()
		flows = nil
	}

	s.mu.Lock()
	s.nodes = make(map[string]model.Node, len(nodes))
	for _, n := range nodes {
		s.nodes[n.ID] = n
	}
	s.edges = make(map[string]model.Edge, len(edges))
	for _, e := range edges {
		s.edges[e.ID] = e
	}
	s.dataObjects = make(map[string]model.DataObject, len(objects))
	for _, o := range objects {
		s.dataObjects[o.ID] = o
	}
	s.componentData = make(map[componentKey]model.ComponentDataLink, len(links))
	for _, l := range links {
		s.componentData[componentKey{l.NodeID, l.DataObjectID}] = l
	}
	s.edgeFlows = make(map[flowKey]model.EdgeDataFlow, len(flows))
	for _, f := range flows {
		s.edgeFlows[flowKey{f.EdgeID, f.DataObjectID}] = f
	}
	s.warning = warning
	s.layout.EnsurePlaced(nodes)
	s.mu.Unlock()

	if warning != "" {
		s.logger.Warn("model refreshed with partial availability", logging.String("warning", warning))
	}
	if s.metrics != nil {
		s.metrics.UpdateEntityCounts(len(nodes), len(edges), len(objects))
		undo, redo := s.history.Depths()
		s.metrics.UpdateHistoryDepths(undo, redo)
	}
	return nil
}

// Warning returns the retained partial-availability warning from the last
// refresh, or "".
func (s *ModelStore) Warning() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warning
}

// History exposes the undo/redo manager.
func (s *ModelStore) History() *history.Manager {
	return s.history
}

// Layout exposes the presentation-only geometry index.
func (s *ModelStore) Layout() *geometry.LayoutIndex {
	return s.layout
}

// Client exposes the persistence collaborator (used by SnapshotService).
func (s *ModelStore) Client() persistence.Client {
	return s.client
}

// ProjectID returns the project this store is bound to.
func (s *ModelStore) ProjectID() string {
	return s.projectID
}

// Nodes returns all nodes sorted by id.
func (s *ModelStore) Nodes() []model.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodeByID returns a node by id.
func (s *ModelStore) NodeByID(id string) (model.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	return n, ok
}

// GlobalNode returns the protected Global container, if loaded.
func (s *ModelStore) GlobalNode() (model.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes {
		if n.IsGlobal() {
			return n, true
		}
	}
	return model.Node{}, false
}

// Edges returns all edges sorted by id.
func (s *ModelStore) Edges() []model.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EdgeByID returns an edge by id.
func (s *ModelStore) EdgeByID(id string) (model.Edge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.edges[id]
	return e, ok
}

// EdgeBetween returns the edge for the exact ordered (source, target)
// pair, if one exists.
func (s *ModelStore) EdgeBetween(sourceID, targetID string) (model.Edge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edgeBetweenLocked(sourceID, targetID)
}

func (s *ModelStore) edgeBetweenLocked(sourceID, targetID string) (model.Edge, bool) {
	for _, e := range s.edges {
		if e.SourceNodeID == sourceID && e.TargetNodeID == targetID {
			return e, true
		}
	}
	return model.Edge{}, false
}

// DataObjects returns all data objects sorted by id.
func (s *ModelStore) DataObjects() []model.DataObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.DataObject, 0, len(s.dataObjects))
	for _, o := range s.dataObjects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DataObjectByID returns a data object by id.
func (s *ModelStore) DataObjectByID(id string) (model.DataObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.dataObjects[id]
	return o, ok
}

// ComponentData returns all component-data links.
func (s *ModelStore) ComponentData() []model.ComponentDataLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ComponentDataLink, 0, len(s.componentData))
	for _, l := range s.componentData {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NodeID != out[j].NodeID {
			return out[i].NodeID < out[j].NodeID
		}
		return out[i].DataObjectID < out[j].DataObjectID
	})
	return out
}

// EdgeFlows returns all edge-data-flow links.
func (s *ModelStore) EdgeFlows() []model.EdgeDataFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EdgeDataFlow, 0, len(s.edgeFlows))
	for _, f := range s.edgeFlows {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EdgeID != out[j].EdgeID {
			return out[i].EdgeID < out[j].EdgeID
		}
		return out[i].DataObjectID < out[j].DataObjectID
	})
	return out
}

// beginOp sets the busy flag for an operation or reports that one is
// already in flight. Prevents interleaved partial writes while a
// persistence call is awaited.
func (s *ModelStore) beginOp(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[op] {
		return modelErr(op, "operation", "", ErrBusyOperation)
	}
	s.busy[op] = true
	return nil
}

func (s *ModelStore) endOp(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, op)
}

// instrument returns a completion callback recording the operation's
// duration and status.
func (s *ModelStore) instrument(op string) func(status string) {
	start := time.Now()
	return func(status string) {
		if s.metrics != nil {
			s.metrics.RecordModelOperation(op, status, time.Since(start))
		}
	}
}

func (s *ModelStore) publish(entity string, op events.Op, id string) {
	if s.bus != nil {
		s.bus.Publish(events.ModelEvent{
			ProjectID: s.projectID,
			Entity:    entity,
			Op:        op,
			EntityID:  id,
		})
	}
}

// ensureGlobal creates the protected Global container when the project
// does not have one yet. Not history-recorded.
func (s *ModelStore) ensureGlobal(ctx context.Context) error {
	if _, ok := s.GlobalNode(); ok {
		return nil
	}
	created, err := s.client.CreateNode(ctx, model.Node{
		ID:       newID(),
		Name:     model.GlobalContainerName,
		Category: model.CategoryContainer,
	})
	if err != nil {
		return modelErr("init", "node", "", err)
	}
	s.logger.Info("created Global container", logging.NodeID(created.ID))
	return s.Refresh(ctx)
}
