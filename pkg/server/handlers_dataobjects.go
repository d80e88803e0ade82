package server

import (
	"net/http"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/events"
	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

func (s *Server) handleDataObjects(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Get(func() { s.listDataObjects(w, r) }).
		Post(func() { s.createDataObject(w, r) }).
		NotAllowed()
}

func (s *Server) handleDataObject(w http.ResponseWriter, r *http.Request) {
	s.methodRouter(w, r).
		Put(func() { s.updateDataObject(w, r) }).
		Delete(func() { s.deleteDataObject(w, r) }).
		NotAllowed()
}

func (s *Server) listDataObjects(w http.ResponseWriter, r *http.Request) {
	objects, err := s.store(r).ListDataObjects(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, objects)
}

func (s *Server) createDataObject(w http.ResponseWriter, r *http.Request) {
	var obj model.DataObject
	if !s.decodeJSON(w, r, &obj) {
		return
	}
	if err := validateDataObject(obj); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.store(r).CreateDataObject(r.Context(), obj)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "data-object", events.OpCreate, created.ID)
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) updateDataObject(w http.ResponseWriter, r *http.Request) {
	var obj model.DataObject
	if !s.decodeJSON(w, r, &obj) {
		return
	}
	obj.ID = r.PathValue("id")
	if err := validateDataObject(obj); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := s.store(r).UpdateDataObject(r.Context(), obj)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "data-object", events.OpUpdate, updated.ID)
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteDataObject(w http.ResponseWriter, r *http.Request) {
	if err := s.store(r).DeleteDataObject(r.Context(), r.PathValue("id")); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.publish(r, "data-object", events.OpDelete, r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func validateDataObject(obj model.DataObject) error {
	req := model.DataObjectRequest{
		Name:            obj.Name,
		DataClass:       obj.DataClass,
		Description:     obj.Description,
		Confidentiality: obj.Confidentiality,
		Integrity:       obj.Integrity,
		Availability:    obj.Availability,
	}
	return model.ValidateDataObjectRequest(&req)
}
