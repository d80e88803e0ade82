// Package server implements the reference persistence backend: a JSON
// CRUD surface over per-project entity stores, matching the contract the
// engine's HTTP client speaks. One resource family per entity kind, all
// scoped under /projects/{project}.
package server

import (
	"errors"
	"net/http"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/logging"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/metrics"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/persistence"
)

// StoreProvider hands out the persistence backend for a project id,
// creating it on first use.
type StoreProvider func(projectID string) persistence.Client

// Server routes the CRUD contract onto per-project stores.
type Server struct {
	provider StoreProvider
	logger   logging.Logger
	metrics  *metrics.Registry
	bus      *events.Bus
	mux      *http.ServeMux
}

// New wires the server and registers all routes. metrics and bus may be
// nil; with a bus, every applied mutation is published as a ModelEvent so
// subscribers see changes regardless of which client made them.
func New(provider StoreProvider, logger logging.Logger, reg *metrics.Registry, bus *events.Bus) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Server{
		provider: provider,
		logger:   logger.With(logging.Component("persistence-server")),
		metrics:  reg,
		bus:      bus,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}

	s.mux.HandleFunc("/projects/{project}/nodes", s.handleNodes)
	s.mux.HandleFunc("/projects/{project}/nodes/{id}", s.handleNode)
	s.mux.HandleFunc("/projects/{project}/edges", s.handleEdges)
	s.mux.HandleFunc("/projects/{project}/edges/{id}", s.handleEdge)
	s.mux.HandleFunc("/projects/{project}/data-objects", s.handleDataObjects)
	s.mux.HandleFunc("/projects/{project}/data-objects/{id}", s.handleDataObject)
	s.mux.HandleFunc("/projects/{project}/component-data", s.handleComponentData)
	s.mux.HandleFunc("/projects/{project}/component-data/{nodeID}/{dataObjectID}", s.handleComponentDataItem)
	s.mux.HandleFunc("/projects/{project}/edge-flows", s.handleEdgeFlows)
	s.mux.HandleFunc("/projects/{project}/edge-flows/{edgeID}/{dataObjectID}", s.handleEdgeFlowItem)
	s.mux.HandleFunc("/projects/{project}/savepoints", s.handleSavepoints)
	s.mux.HandleFunc("/projects/{project}/savepoints/{id}", s.handleSavepoint)
	s.mux.HandleFunc("/projects/{project}/savepoints/{id}/restore", s.handleSavepointRestore)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.loggingMiddleware(h)
	if s.metrics != nil {
		h = s.metricsMiddleware(h)
	}
	return h
}

// store resolves the project-scoped backend for a request.
func (s *Server) store(r *http.Request) persistence.Client {
	return s.provider(r.PathValue("project"))
}

// publish announces an applied mutation on the event bus, if one is wired.
func (s *Server) publish(r *http.Request, entity string, op events.Op, id string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.ModelEvent{
		ProjectID: r.PathValue("project"),
		Entity:    entity,
		Op:        op,
		EntityID:  id,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondStoreError maps persistence error taxonomy onto HTTP statuses,
// mirroring what the engine's HTTP client decodes on the other side.
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, persistence.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, persistence.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	var reqErr *persistence.RequestError
	if errors.As(err, &reqErr) && status == http.StatusInternalServerError {
		// Validation-style causes from the store surface as bad requests.
		status = http.StatusBadRequest
	}
	s.respondError(w, status, err.Error())
}
