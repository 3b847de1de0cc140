package server

import (
	"math"
	"net/http"
	"strings"

	"vboard/internal/api"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.posts.List(r.Context(), query)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathPostIDOrBadRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.posts.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req api.PostCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.posts.Create(r.Context(), userID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleReplacePost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathPostIDOrBadRequest(w, r)
	if !ok {
		return
	}
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req api.PostCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.posts.Replace(r.Context(), id, userID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePatchPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathPostIDOrBadRequest(w, r)
	if !ok {
		return
	}
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req api.PostPatchRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.posts.Patch(r.Context(), id, userID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathPostIDOrBadRequest(w, r)
	if !ok {
		return
	}
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	if err := s.posts.Delete(r.Context(), id, userID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseListQuery(r *http.Request) (ListQuery, error) {
	page, err := queryIntRange(r, "page", 1, 1, math.MaxInt32)
	if err != nil {
		return ListQuery{}, err
	}
	perPage, err := queryIntRange(r, "per_page", defaultPerPage, 1, maxPerPage)
	if err != nil {
		return ListQuery{}, err
	}

	query := ListQuery{
		Page:    page,
		PerPage: perPage,
		UserID:  strings.TrimSpace(r.URL.Query().Get("user_id")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("min_date")); raw != "" {
		minDate, err := parseFlexibleTime(raw)
		if err != nil {
			return ListQuery{}, err
		}
		query.CreatedAfter = &minDate
	}

	return query, nil
}
