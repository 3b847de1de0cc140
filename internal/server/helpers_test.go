package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"vboard/internal/api"
	"vboard/internal/imagehealth"
	"vboard/internal/models"
	"vboard/internal/store"
	"vboard/internal/uploadstore"
)

const testPublicURL = "http://localhost:8000"

type urlProber struct {
	mu        sync.Mutex
	reachable map[string]bool
}

func (p *urlProber) Probe(_ context.Context, ref string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reachable[ref]
}

func (p *urlProber) set(ref string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reachable[ref] = ok
}

type fakeTrigger struct {
	mu     sync.Mutex
	scopes []imagehealth.Scope
	reject bool
}

func (f *fakeTrigger) Trigger(scope imagehealth.Scope) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopes = append(f.scopes, scope)
	return !f.reject
}

func (f *fakeTrigger) triggered() []imagehealth.Scope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]imagehealth.Scope(nil), f.scopes...)
}

type fakeDiscover struct {
	items     []models.DiscoverItem
	healthy   bool
	lastCount int
}

func (f *fakeDiscover) RandomPhotos(_ context.Context, count int) []models.DiscoverItem {
	f.lastCount = count
	return f.items
}

func (f *fakeDiscover) CheckHealth(context.Context) bool {
	return f.healthy
}

type testEnv struct {
	srv      *Server
	handler  http.Handler
	store    *store.Store
	prober   *urlProber
	trigger  *fakeTrigger
	discover *fakeDiscover
	uploads  *uploadstore.LocalStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "vboard.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	uploads, err := uploadstore.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("open uploads: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	prober := &urlProber{reachable: map[string]bool{}}
	trigger := &fakeTrigger{}
	disc := &fakeDiscover{healthy: true}

	srv := New(Options{
		Addr:              "127.0.0.1:0",
		Version:           "test",
		PublicURL:         testPublicURL,
		Backend:           st,
		ImageHealth:       imagehealth.NewService(st, prober, 24*time.Hour, logger),
		Checks:            trigger,
		Discover:          disc,
		Uploads:           uploads,
		UploadMaxBytes:    1 << 10,
		AllowedExtensions: []string{".jpg", ".png"},
		Logger:            logger,
	})

	return &testEnv{
		srv:      srv,
		handler:  srv.Handler(),
		store:    st,
		prober:   prober,
		trigger:  trigger,
		discover: disc,
		uploads:  uploads,
	}
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(api.UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createPost(t *testing.T, userID, title, imageURL string) api.PostResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/posts", userID, api.PostCreateRequest{Title: title, ImageURL: imageURL})
	if w.Code != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	return decodeBody[api.PostResponse](t, w)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func requireAPIError(t *testing.T, w *httptest.ResponseRecorder, status, errCode int) api.ErrorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d, got %d (%s)", status, w.Code, w.Body.String())
	}
	resp := decodeBody[api.ErrorResponse](t, w)
	if errCode != 0 && resp.ErrorCode != errCode {
		t.Fatalf("expected error_code %d, got %d (%s)", errCode, resp.ErrorCode, resp.Error)
	}
	return resp
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
