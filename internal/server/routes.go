package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, withIdentity(fn))
	}

	// Info, health and metrics.
	handle("GET /{$}", s.handleInfo)
	handle("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Posts.
	handle("GET /api/posts", s.handleListPosts)
	handle("POST /api/posts", s.handleCreatePost)
	handle("GET /api/posts/{post_id}", s.handleGetPost)
	handle("PUT /api/posts/{post_id}", s.handleReplacePost)
	handle("PATCH /api/posts/{post_id}", s.handlePatchPost)
	handle("DELETE /api/posts/{post_id}", s.handleDeletePost)

	// Users.
	handle("POST /api/users/register", s.handleRegister)
	handle("POST /api/users/login", s.handleLogin)
	handle("GET /api/users/profile/{username}", s.handleUserProfile)
	handle("GET /api/users/check/{username}", s.handleCheckUsername)

	// Uploads.
	handle("POST /api/upload/image", s.handleUploadImage)
	handle("GET /api/upload/images/{filename}", s.handleGetUploadedImage)
	handle("DELETE /api/upload/images/{filename}", s.handleDeleteUploadedImage)

	// Discover.
	handle("GET /api/discover", s.handleDiscover)

	// Image health.
	handle("POST /api/image-health/check", s.handleTriggerImageCheck)
	handle("GET /api/image-health/status", s.handleImageHealthStatus)
	handle("POST /api/image-health/check-single/{post_id}", s.handleCheckSinglePost)
	handle("POST /api/image-health/reactivate/{post_id}", s.handleReactivatePost)

	return mux
}
