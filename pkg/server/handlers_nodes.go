package server

import (
	"net/http"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Get(func() { s.listNodes(w, r) }).
		Post(func() { s.createNode(w, r) }).
		NotAllowed()
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Put(func() { s.updateNode(w, r) }).
		Delete(func() { s.deleteNode(w, r) }).
		NotAllowed()
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.store(r).ListNodes(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, nodes)
}

func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	var node model.Node
	if !s.decodeJSON(w, r, &node) {
		return
	}
	if err := validateNode(node); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.store(r).CreateNode(r.Context(), node)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "node", events.OpCreate, created.ID)
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	var node model.Node
	if !s.decodeJSON(w, r, &node) {
		return
	}
	node.ID = r.PathValue("id")
	if err := validateNode(node); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := s.store(r).UpdateNode(r.Context(), node)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "node", events.OpUpdate, updated.ID)
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.store(r).DeleteNode(r.Context(), r.PathValue("id")); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "node", events.OpDelete, r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func validateNode(node model.Node) error {
	req := model.NodeRequest{
		Name:         node.Name,
		Category:     node.Category,
		Description:  node.Description,
		Notes:        node.Notes,
		ParentNodeID: node.ParentNodeID,
	}
	return model.ValidateNodeRequest(&req)
}
