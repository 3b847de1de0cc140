package server

import (
	"net/http"

	"github.com/rs/cors"

	"vboard/internal/api"
)

// DefaultAllowedOrigins are the local frontend dev servers.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:3000",
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization", api.UserIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler(next)
}
