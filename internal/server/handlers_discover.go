package server

import (
	"net/http"

	"vboard/internal/discover"
	"vboard/internal/models"
)

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	count, err := queryIntRange(r, "count", discover.DefaultCount, 1, discover.MaxCount)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	items := []models.DiscoverItem{}
	if s.discover != nil {
		if photos := s.discover.RandomPhotos(r.Context(), count); photos != nil {
			items = photos
		}
	}

	s.writeJSON(w, http.StatusOK, items)
}
