package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"vboard/internal/api"
)

type identityContextKey struct{}

// withIdentity copies the X-User-Id header into the request context.
// The header is trusted as-is; there is no authentication layer.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(api.UserIDHeader))
		if userID != "" {
			r = r.WithContext(contextWithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

func contextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, identityContextKey{}, userID)
}

func userIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	userID, ok := ctx.Value(identityContextKey{}).(string)
	return userID, ok && userID != ""
}

func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		s.writeErrorReq(w, r, http.StatusUnauthorized, makeAPIError(
			http.StatusUnauthorized, "unauthorized", ErrCodeIdentityRequired,
			fmt.Errorf("%s header is required", api.UserIDHeader),
		))
		return "", false
	}
	return userID, true
}
