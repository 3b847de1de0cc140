package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"vboard/internal/api"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.users.Register(r.Context(), req, s.now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	now := s.now()
	limiterKey := loginAttemptKey(req.UsernameOrEmail, r)
	if !s.loginLimiter.Allow(limiterKey, now) {
		s.writeErrorReq(w, r, http.StatusTooManyRequests, apiError{
			status:  http.StatusTooManyRequests,
			code:    "resource_exhausted",
			errCode: ErrCodeResourceExhausted,
			err:     fmt.Errorf("too many login attempts; retry later"),
		})
		return
	}

	resp, err := s.users.Login(r.Context(), req.UsernameOrEmail, req.Password, now)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			s.loginLimiter.RegisterFailure(limiterKey, now)
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("incorrect username or password")))
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	s.loginLimiter.Reset(limiterKey)

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.users.Profile(r.Context(), r.PathValue("username"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckUsername(w http.ResponseWriter, r *http.Request) {
	resp, err := s.users.Available(r.Context(), r.PathValue("username"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func loginAttemptKey(login string, r *http.Request) string {
	user := strings.ToLower(strings.TrimSpace(login))
	if user == "" {
		user = "<empty>"
	}
	ip := requestClientIP(r)
	if ip == "" {
		ip = "<unknown>"
	}
	return ip + "|" + user
}

func requestClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remote)
	if err == nil {
		return strings.TrimSpace(host)
	}
	return remote
}

func (s *Server) now() time.Time {
	if s.clock != nil {
		return s.clock().UTC()
	}
	return time.Now().UTC()
}
