package server

import (
	"net/http"
	"strings"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

// savepointCreateRequest is the POST body for a new savepoint.
type savepointCreateRequest struct {
	Title string               `json:"title"`
	State model.SavepointState `json:"state"`
}

func (s *Server) handleSavepoints(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Get(func() { s.listSavepoints(w, r) }).
		Post(func() { s.createSavepoint(w, r) }).
		NotAllowed()
}

func (s *Server) handleSavepoint(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Get(func() { s.getSavepointState(w, r) }).
		Delete(func() { s.deleteSavepoint(w, r) }).
		NotAllowed()
}

func (s *Server) handleSavepointRestore(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Post(func() { s.restoreSavepoint(w, r) }).
		NotAllowed()
}

func (s *Server) listSavepoints(w http.ResponseWriter, r *http.Request) {
	savepoints, err := s.store(r).ListSavepoints(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, savepoints)
}

func (s *Server) createSavepoint(w http.ResponseWriter, r *http.Request) {
	var req savepointCreateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.respondError(w, http.StatusBadRequest, "title must not be blank")
		return
	}
	summary, err := s.store(r).CreateSavepoint(r.Context(), req.Title, req.State)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "savepoint", events.OpCreate, summary.ID)
	s.respondJSON(w, http.StatusCreated, summary)
}

func (s *Server) getSavepointState(w http.ResponseWriter, r *http.Request) {
	state, err := s.store(r).GetSavepointState(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, state)
}

func (s *Server) deleteSavepoint(w http.ResponseWriter, r *http.Request) {
	if err := s.store(r).DeleteSavepoint(r.Context(), r.PathValue("id")); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "savepoint", events.OpDelete, r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restoreSavepoint(w http.ResponseWriter, r *http.Request) {
	result, err := s.store(r).RestoreSavepoint(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "savepoint", events.OpRestore, r.PathValue("id"))
	s.respondJSON(w, http.StatusOK, result)
}
