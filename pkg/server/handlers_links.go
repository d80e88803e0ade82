package server

import (
	"net/http"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// Component-data and edge-data-flow links are upsert-only collections
// addressed by their composite key for deletion.

func (s *Server) handleComponentData(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Get(func() { s.listComponentData(w, r) }).
		Put(func() { s.upsertComponentData(w, r) }).
		NotAllowed()
}

func (s *Server) handleComponentDataItem(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Delete(func() { s.deleteComponentData(w, r) }).
		NotAllowed()
}

func (s *Server) listComponentData(w http.ResponseWriter, r *http.Request) {
	links, err := s.store(r).ListComponentData(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, links)
}

func (s *Server) upsertComponentData(w http.ResponseWriter, r *http.Request) {
	var link model.ComponentDataLink
	if !s.decodeJSON(w, r, &link) {
		return
	}
	if link.NodeID == "" || link.DataObjectID == "" {
		s.respondError(w, http.StatusBadRequest, "nodeId and dataObjectId are required")
		return
	}
	if err := model.ValidateDataRole(link.Role); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store(r).UpsertComponentData(r.Context(), link); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "component-data", events.OpUpdate, link.NodeID)
	s.respondJSON(w, http.StatusOK, link)
}

func (s *Server) deleteComponentData(w http.ResponseWriter, r *http.Request) {
	err := s.store(r).DeleteComponentData(r.Context(), r.PathValue("nodeID"), r.PathValue("dataObjectID"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "component-data", events.OpDelete, r.PathValue("nodeID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEdgeFlows(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Get(func() { s.listEdgeFlows(w, r) }).
		Put(func() { s.upsertEdgeFlow(w, r) }).
		NotAllowed()
}

func (s *Server) handleEdgeFlowItem(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Delete(func() { s.deleteEdgeFlow(w, r) }).
		NotAllowed()
}

func (s *Server) listEdgeFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := s.store(r).ListEdgeFlows(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, flows)
}

func (s *Server) upsertEdgeFlow(w http.ResponseWriter, r *http.Request) {
	var flow model.EdgeDataFlow
	if !s.decodeJSON(w, r, &flow) {
		return
	}
	if flow.EdgeID == "" || flow.DataObjectID == "" {
		s.respondError(w, http.StatusBadRequest, "edgeId and dataObjectId are required")
		return
	}
	if err := model.ValidateFlowDirection(flow.Direction); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store(r).UpsertEdgeFlow(r.Context(), flow); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "edge-flow", events.OpUpdate, flow.EdgeID)
	s.respondJSON(w, http.StatusOK, flow)
}

func (s *Server) deleteEdgeFlow(w http.ResponseWriter, r *http.Request) {
	err := s.store(r).DeleteEdgeFlow(r.Context(), r.PathValue("edgeID"), r.PathValue("dataObjectID"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "edge-flow", events.OpDelete, r.PathValue("edgeID"))
	w.WriteHeader(http.StatusNoContent)
}
