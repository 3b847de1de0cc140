package imagehealth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"vboard/internal/uploadstore"
)

func newTestUploads(t *testing.T) *uploadstore.LocalStore {
	t.Helper()
	uploads, err := uploadstore.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new upload store: %v", err)
	}
	return uploads
}

func TestHTTPProberLocalUploads(t *testing.T) {
	uploads := newTestUploads(t)
	if err := os.WriteFile(filepath.Join(uploads.Root(), "20250101_a.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	if err := os.Mkdir(filepath.Join(uploads.Root(), "dir.png"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	outside := filepath.Join(filepath.Dir(uploads.Root()), "outside.png")
	if err := os.WriteFile(outside, []byte("png"), 0o644); err != nil {
		t.Fatalf("write outside: %v", err)
	}

	p := NewHTTPProber(ProberConfig{PublicURL: "http://board.test/", Uploads: uploads})
	ctx := context.Background()

	tests := []struct {
		name string
		ref  string
		want bool
	}{
		{name: "public url", ref: "http://board.test/api/upload/images/20250101_a.png", want: true},
		{name: "bare path", ref: "/api/upload/images/20250101_a.png", want: true},
		{name: "query ignored", ref: "/api/upload/images/20250101_a.png?v=2", want: true},
		{name: "missing", ref: "/api/upload/images/missing.png", want: false},
		{name: "directory", ref: "/api/upload/images/dir.png", want: false},
		{name: "escape", ref: "/api/upload/images/../outside.png", want: false},
		{name: "encoded escape", ref: "/api/upload/images/..%2Foutside.png", want: false},
		{name: "empty name", ref: "/api/upload/images/", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Probe(ctx, tt.ref); got != tt.want {
				t.Fatalf("Probe(%q)=%v want %v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestHTTPProberLocalFileDeleted(t *testing.T) {
	uploads := newTestUploads(t)
	res, err := uploads.Save(context.Background(), ".jpg", bytesReader("jpeg"), 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	p := NewHTTPProber(ProberConfig{Uploads: uploads})
	ref := UploadPathPrefix + res.Name

	if !p.Probe(context.Background(), ref) {
		t.Fatal("expected existing upload to be reachable")
	}
	if err := uploads.Delete(context.Background(), res.Name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if p.Probe(context.Background(), ref) {
		t.Fatal("expected deleted upload to be unreachable")
	}
}

func TestHTTPProberLocalNeverHitsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
	}))
	defer srv.Close()

	p := NewHTTPProber(ProberConfig{PublicURL: srv.URL, Uploads: newTestUploads(t)})
	if p.Probe(context.Background(), srv.URL+UploadPathPrefix+"missing.png") {
		t.Fatal("expected missing local upload to be unreachable")
	}
	if hits.Load() != 0 {
		t.Fatalf("local probe made %d network requests", hits.Load())
	}
}

func TestHTTPProberExternal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/image.jpg", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "image/jpeg")
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	})
	mux.HandleFunc("/gone.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/moved.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/image.jpg", http.StatusFound)
	})
	mux.HandleFunc("/nohead.png", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Range") != "bytes=0-0" {
			t.Errorf("expected ranged GET, got range %q", r.Header.Get("Range"))
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte{0x89})
	})
	mux.HandleFunc("/slow.jpg", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		w.Header().Set("Content-Type", "image/jpeg")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	strict := NewHTTPProber(ProberConfig{Timeout: 200 * time.Millisecond, RequireImageContentType: true})
	lenient := NewHTTPProber(ProberConfig{Timeout: 200 * time.Millisecond})
	ctx := context.Background()

	tests := []struct {
		name        string
		ref         string
		wantStrict  bool
		wantLenient bool
	}{
		{name: "image", ref: srv.URL + "/image.jpg", wantStrict: true, wantLenient: true},
		{name: "html", ref: srv.URL + "/page.html", wantStrict: false, wantLenient: true},
		{name: "not found", ref: srv.URL + "/gone.jpg", wantStrict: false, wantLenient: false},
		{name: "redirect", ref: srv.URL + "/moved.jpg", wantStrict: true, wantLenient: true},
		{name: "head not allowed", ref: srv.URL + "/nohead.png", wantStrict: true, wantLenient: true},
		{name: "timeout", ref: srv.URL + "/slow.jpg", wantStrict: false, wantLenient: false},
		{name: "malformed", ref: "://nope", wantStrict: false, wantLenient: false},
		{name: "unsupported scheme", ref: "ftp://example.com/a.jpg", wantStrict: false, wantLenient: false},
		{name: "empty", ref: "", wantStrict: false, wantLenient: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strict.Probe(ctx, tt.ref); got != tt.wantStrict {
				t.Fatalf("strict Probe(%q)=%v want %v", tt.ref, got, tt.wantStrict)
			}
			if got := lenient.Probe(ctx, tt.ref); got != tt.wantLenient {
				t.Fatalf("lenient Probe(%q)=%v want %v", tt.ref, got, tt.wantLenient)
			}
		})
	}
}

func TestHTTPProberBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		w.Header().Set("Content-Type", "image/png")
	}))
	defer srv.Close()

	p := NewHTTPProber(ProberConfig{Concurrency: 2})
	done := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- p.Probe(context.Background(), srv.URL+"/x.png") }()
	}
	for i := 0; i < 8; i++ {
		if !<-done {
			t.Fatal("expected probe to succeed")
		}
	}
	if peak.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent probes, saw %d", peak.Load())
	}
}
