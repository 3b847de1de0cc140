package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"vboard/internal/api"
	"vboard/internal/imagehealth"
)

const imageCheckScheduledMessage = "Image verification started in the background"

func (s *Server) handleTriggerImageCheck(w http.ResponseWriter, r *http.Request) {
	scope := imagehealth.GlobalScope()
	if userID, ok := userIDFromContext(r.Context()); ok {
		scope = imagehealth.OwnerScope(userID)
	}

	if s.checks == nil || !s.checks.Trigger(scope) {
		s.log().Warn("image check not scheduled", "scope", scope.Name(), "owner", scope.OwnerID)
	}

	s.writeJSON(w, http.StatusOK, api.ImageCheckAckResponse{
		Message: imageCheckScheduledMessage,
		Scope:   scope.Name(),
	})
}

func (s *Server) handleImageHealthStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.imageHealth.Status(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.ImageHealthStatusResponse{
		TotalPosts:       status.Total,
		ActivePosts:      status.Active,
		InactivePosts:    status.Inactive,
		UncheckedPosts:   status.Unchecked,
		HealthPercentage: status.HealthPercentage,
	})
}

func (s *Server) handleCheckSinglePost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathPostIDOrBadRequest(w, r)
	if !ok {
		return
	}

	result, err := s.imageHealth.CheckSingle(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, imageHealthError(err))
		return
	}

	s.writeJSON(w, http.StatusOK, api.SingleCheckResponse{
		PostID:       result.PostID,
		ImageURL:     result.ImageURL,
		IsAccessible: result.IsAccessible,
		IsActive:     result.IsActive,
	})
}

func (s *Server) handleReactivatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathPostIDOrBadRequest(w, r)
	if !ok {
		return
	}

	newImageURL, err := reactivateImageURL(w, r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	// A missing identity is treated as a non-owner.
	requester, _ := userIDFromContext(r.Context())
	result, err := s.imageHealth.Reactivate(r.Context(), id, requester, newImageURL)
	if err != nil {
		s.writeServiceError(w, r, imageHealthError(err))
		return
	}

	s.writeJSON(w, http.StatusOK, api.ReactivateResponse{
		PostID:   result.PostID,
		IsActive: result.IsActive,
		ImageURL: result.ImageURL,
		Message:  result.Message,
	})
}

// reactivateImageURL reads new_image_url from the query string or an optional JSON body.
func reactivateImageURL(w http.ResponseWriter, r *http.Request) (string, error) {
	if value := strings.TrimSpace(r.URL.Query().Get("new_image_url")); value != "" {
		return value, nil
	}
	if r.Body == nil || r.ContentLength == 0 {
		return "", nil
	}

	var req api.ReactivateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", classifyDecodeJSONError(err)
	}
	return valueOrEmpty(req.NewImageURL), nil
}

func imageHealthError(err error) error {
	switch {
	case errors.Is(err, imagehealth.ErrPostNotFound):
		return notFoundCode(fmt.Errorf("post not found"), ErrCodePostNotFound)
	case errors.Is(err, imagehealth.ErrForbidden):
		return forbidden(fmt.Errorf("not authorized to reactivate this post"))
	case errors.Is(err, imagehealth.ErrInvalidReference):
		return badRequestCode(fmt.Errorf("new image URL is not accessible"), ErrCodeImageUnreachable)
	default:
		return storeFailure(err)
	}
}
