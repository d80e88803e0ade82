package server

import (
	"net/http"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

func (s *Server) handleEdges(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Get(func() { s.listEdges(w, r) }).
		Post(func() { s.createEdge(w, r) }).
		NotAllowed()
}

func (s *Server) handleEdge(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Put(func() { s.updateEdge(w, r) }).
		Delete(func() { s.deleteEdge(w, r) }).
		NotAllowed()
}

func (s *Server) listEdges(w http.ResponseWriter, r *http.Request) {
	edges, err := s.store(r).ListEdges(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, edges)
}

func (s *Server) createEdge(w http.ResponseWriter, r *http.Request) {
	var edge model.Edge
	if !s.decodeJSON(w, r, &edge) {
		return
	}
	if err := validateEdge(edge); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.store(r).CreateEdge(r.Context(), edge)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "edge", events.OpCreate, created.ID)
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) updateEdge(w http.ResponseWriter, r *http.Request) {
	var edge model.Edge
	if !s.decodeJSON(w, r, &edge) {
		return
	}
	edge.ID = r.PathValue("id")
	if err := validateEdge(edge); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := s.store(r).UpdateEdge(r.Context(), edge)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "edge", events.OpUpdate, updated.ID)
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteEdge(w http.ResponseWriter, r *http.Request) {
	if err := s.store(r).DeleteEdge(r.Context(), r.PathValue("id")); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "edge", events.OpDelete, r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func validateEdge(edge model.Edge) error {
	req := model.EdgeRequest{
		SourceNodeID:   edge.SourceNodeID,
		TargetNodeID:   edge.TargetNodeID,
		SourceHandleID: edge.SourceHandleID,
		TargetHandleID: edge.TargetHandleID,
		Direction:      edge.Direction,
		Name:           edge.Name,
		Protocol:       edge.Protocol,
		Description:    edge.Description,
		Notes:          edge.Notes,
	}
	return model.ValidateEdgeRequest(&req)
}
