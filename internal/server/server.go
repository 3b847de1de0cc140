package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"vboard/internal/imagehealth"
	"vboard/internal/models"
	"vboard/internal/store"
	"vboard/internal/uploadstore"
)

// ServiceName is reported by the info endpoint.
const ServiceName = "vboard"

const (
	allowRemoteEnvKey = "VBOARD_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Backend is the storage the HTTP layer needs beyond image health.
type Backend interface {
	store.PostStore
	store.UserStore
	Ping(ctx context.Context) error
}

// ImageHealth is the synchronous image-health API.
type ImageHealth interface {
	CheckSingle(ctx context.Context, postID int64) (imagehealth.SingleCheckResult, error)
	Reactivate(ctx context.Context, postID int64, requesterID, newImageURL string) (imagehealth.ReactivateResult, error)
	Status(ctx context.Context) (imagehealth.HealthStatus, error)
}

// CheckTrigger schedules detached verification batches.
type CheckTrigger interface {
	Trigger(scope imagehealth.Scope) bool
}

// DiscoverSource supplies the discover feed.
type DiscoverSource interface {
	RandomPhotos(ctx context.Context, count int) []models.DiscoverItem
	CheckHealth(ctx context.Context) bool
}

// Options wires the server's collaborators.
type Options struct {
	Addr              string
	Version           string
	PublicURL         string
	AllowedOrigins    []string
	Backend           Backend
	ImageHealth       ImageHealth
	Checks            CheckTrigger
	Discover          DiscoverSource
	Uploads           uploadstore.Store
	UploadMaxBytes    int64
	AllowedExtensions []string
	Logger            *slog.Logger
}

// Server wraps HTTP handlers for the vboard API.
type Server struct {
	addr              string
	version           string
	publicURL         string
	allowedOrigins    []string
	backend           Backend
	posts             *PostService
	users             *UserService
	imageHealth       ImageHealth
	checks            CheckTrigger
	discover          DiscoverSource
	uploads           uploadstore.Store
	uploadMaxBytes    int64
	allowedExtensions []string
	loginLimiter      *loginRateLimiter
	logger            *slog.Logger
	clock             func() time.Time
}

// New creates a new server instance.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:              opts.Addr,
		version:           opts.Version,
		publicURL:         opts.PublicURL,
		allowedOrigins:    opts.AllowedOrigins,
		backend:           opts.Backend,
		posts:             NewPostService(opts.Backend),
		users:             NewUserService(opts.Backend),
		imageHealth:       opts.ImageHealth,
		checks:            opts.Checks,
		discover:          opts.Discover,
		uploads:           opts.Uploads,
		uploadMaxBytes:    opts.UploadMaxBytes,
		allowedExtensions: opts.AllowedExtensions,
		loginLimiter:      newLoginRateLimiter(defaultLoginMaxFailures, defaultLoginWindow, defaultLoginBlock),
		logger:            logger.With("component", "server"),
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.withCORS(s.routes()))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log().Info("starting server", "addr", s.addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
