package server

import (
	"context"
	"net/http"
	"time"

	"vboard/internal/api"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
	healthCheckTimeout    = 5 * time.Second
)

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.InfoResponse{
		Name:    ServiceName,
		Version: s.version,
		Health:  "/health",
		Metrics: "/metrics",
	})
}

// handleHealth reports degraded when only the discover feed is down and
// unhealthy (503) when the database is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := api.HealthResponse{
		Status:    healthStatusHealthy,
		Timestamp: s.now(),
		Services:  api.HealthServices{API: true},
	}

	if err := s.backend.Ping(ctx); err != nil {
		s.log().Warn("health: database ping failed", "error", err)
	} else {
		resp.Services.Database = true
	}
	if s.discover != nil {
		resp.Services.Unsplash = s.discover.CheckHealth(ctx)
	}

	status := http.StatusOK
	switch {
	case !resp.Services.Database:
		resp.Status = healthStatusUnhealthy
		status = http.StatusServiceUnavailable
	case !resp.Services.Unsplash:
		resp.Status = healthStatusDegraded
	}

	s.writeJSON(w, status, resp)
}
