package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPTimeoutFromEnv(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "")
		if got := httpTimeoutFromEnv(); got != defaultHTTPTimeout {
			t.Fatalf("expected default timeout %v, got %v", defaultHTTPTimeout, got)
		}
	})

	t.Run("duration format", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "45s")
		if got := httpTimeoutFromEnv(); got != 45*time.Second {
			t.Fatalf("expected 45s timeout, got %v", got)
		}
	})

	t.Run("integer seconds", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "25")
		if got := httpTimeoutFromEnv(); got != 25*time.Second {
			t.Fatalf("expected 25s timeout, got %v", got)
		}
	})

	t.Run("invalid falls back", func(t *testing.T) {
		t.Setenv(httpTimeoutEnvKey, "invalid")
		if got := httpTimeoutFromEnv(); got != defaultHTTPTimeout {
			t.Fatalf("expected default timeout %v, got %v", defaultHTTPTimeout, got)
		}
	})
}

func TestReactivatePostSendsIdentityAndBody(t *testing.T) {
	var gotUser, gotPath string
	var gotBody ReactivateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get(UserIDHeader)
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ReactivateResponse{PostID: 7, IsActive: true, ImageURL: "https://img.example/new.png", Message: "ok"})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL+"/").ReactivatePost(context.Background(), 7, "alice", "https://img.example/new.png")
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if gotUser != "alice" {
		t.Fatalf("expected X-User-Id alice, got %q", gotUser)
	}
	if gotPath != "/api/image-health/reactivate/7" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody.NewImageURL == nil || *gotBody.NewImageURL != "https://img.example/new.png" {
		t.Fatalf("unexpected body %+v", gotBody)
	}
	if !resp.IsActive || resp.PostID != 7 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestTriggerImageCheckWithoutUserOmitsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header[UserIDHeader]; ok {
			t.Errorf("unexpected identity header")
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		_ = json.NewEncoder(w).Encode(ImageCheckAckResponse{Message: "scheduled", Scope: "global"})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).TriggerImageCheck(context.Background(), "  ")
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if resp.Scope != "global" {
		t.Fatalf("expected global scope, got %q", resp.Scope)
	}
}

func TestDecodeErrorReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "not the post owner", Code: "forbidden", ErrorCode: 3002})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ReactivatePost(context.Background(), 1, "mallory", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Code != "forbidden" || apiErr.ErrorCode != 3002 {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if got := apiErr.Error(); got != "forbidden: not the post owner" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestDecodeErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Ping(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 APIError, got %v", err)
	}
}
