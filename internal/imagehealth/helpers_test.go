package imagehealth

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"vboard/internal/models"
	"vboard/internal/store"
)

func bytesReader(s string) io.Reader { return strings.NewReader(s) }

type stubProber struct {
	mu        sync.Mutex
	reachable map[string]bool
	calls     []string
	onProbe   func(ref string)
}

func newStubProber(reachable map[string]bool) *stubProber {
	if reachable == nil {
		reachable = map[string]bool{}
	}
	return &stubProber{reachable: reachable}
}

func (p *stubProber) Probe(ctx context.Context, ref string) bool {
	p.mu.Lock()
	p.calls = append(p.calls, ref)
	ok := p.reachable[ref]
	hook := p.onProbe
	p.mu.Unlock()
	if hook != nil {
		hook(ref)
	}
	return ok
}

func (p *stubProber) set(ref string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reachable[ref] = ok
}

func (p *stubProber) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func createPost(t *testing.T, st *store.Store, owner, imageURL string) *models.Post {
	t.Helper()
	post := &models.Post{Title: "t", ImageURL: imageURL, UserID: owner}
	if err := st.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func getPost(t *testing.T, st *store.Store, id int64) *models.Post {
	t.Helper()
	post, err := st.GetPost(context.Background(), id)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if post == nil {
		t.Fatalf("post %d missing", id)
	}
	return post
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *clock { return &clock{now: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
