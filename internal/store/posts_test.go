package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"vboard/internal/models"
)

func TestCreateAndGetPost(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	post := &models.Post{
		Title:       "Sunset",
		Description: "over the bay",
		ImageURL:    "https://img.example.com/sunset.jpg",
		UserID:      "alice",
		Tags:        []string{"sky", "sea"},
	}
	if err := st.CreatePost(ctx, post); err != nil {
		t.Fatalf("create: %v", err)
	}
	if post.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	got, err := st.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected post, got nil")
	}
	if !got.IsActive {
		t.Fatal("new post should be active")
	}
	if got.LastImageCheck != nil {
		t.Fatalf("new post should be unchecked, got %v", got.LastImageCheck)
	}
	if got.Description != "over the bay" || len(got.Tags) != 2 || got.Tags[1] != "sea" {
		t.Fatalf("unexpected post: %+v", got)
	}
	if got.UpdatedAt != nil {
		t.Fatalf("expected nil updated_at, got %v", got.UpdatedAt)
	}

	missing, err := st.GetPost(ctx, post.ID+100)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing post, got %+v", missing)
	}
}

func TestPatchPostKeepsLifecycle(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	post := seedPost(t, st, "alice", "https://img.example.com/a.jpg")

	checked := time.Now().UTC()
	if err := st.SetActivation(ctx, post.ID, false, checked, nil); err != nil {
		t.Fatalf("set activation: %v", err)
	}

	title := "Renamed"
	tags := []string{"new"}
	if err := st.PatchPost(ctx, post.ID, PostUpdate{Title: &title, Tags: &tags}); err != nil {
		t.Fatalf("patch: %v", err)
	}

	got, err := st.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Renamed" || len(got.Tags) != 1 || got.Tags[0] != "new" {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.ImageURL != "https://img.example.com/a.jpg" {
		t.Fatalf("image url should be unchanged, got %q", got.ImageURL)
	}
	if got.IsActive {
		t.Fatal("patch must not reactivate a post")
	}
	if got.LastImageCheck == nil || !got.LastImageCheck.Equal(checked) {
		t.Fatalf("patch must not touch last_image_check, got %v", got.LastImageCheck)
	}
	if got.UpdatedAt == nil {
		t.Fatal("expected updated_at to be set")
	}
}

func TestReplacePost(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	post := seedPost(t, st, "alice", "https://img.example.com/a.jpg")

	post.Title = "Replaced"
	post.Description = ""
	post.ImageURL = "https://img.example.com/b.jpg"
	post.Tags = nil
	if err := st.ReplacePost(ctx, post); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := st.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Replaced" || got.ImageURL != "https://img.example.com/b.jpg" {
		t.Fatalf("replace not applied: %+v", got)
	}
	if got.Description != "" || len(got.Tags) != 0 {
		t.Fatalf("expected cleared description and tags, got %+v", got)
	}

	ghost := &models.Post{ID: post.ID + 50, Title: "x", ImageURL: "y"}
	if err := st.ReplacePost(ctx, ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePost(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	post := seedPost(t, st, "alice", "https://img.example.com/a.jpg")

	if err := st.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeletePost(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	got, err := st.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatal("expected post to be gone")
	}
}

func TestListActivePosts(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, owner := range []string{"alice", "bob", "alice", "alice"} {
		post := &models.Post{
			Title:     "p",
			ImageURL:  "https://img.example.com/p.jpg",
			UserID:    owner,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := st.CreatePost(ctx, post); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if i == 3 {
			if err := st.SetActivation(ctx, post.ID, false, base, nil); err != nil {
				t.Fatalf("deactivate: %v", err)
			}
		}
	}

	t.Run("inactive posts are hidden", func(t *testing.T) {
		posts, total, err := st.ListActivePosts(ctx, PostFilter{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 3 || len(posts) != 3 {
			t.Fatalf("expected 3 active posts, got total=%d len=%d", total, len(posts))
		}
		if !posts[0].CreatedAt.After(posts[1].CreatedAt) {
			t.Fatalf("expected newest first, got %v then %v", posts[0].CreatedAt, posts[1].CreatedAt)
		}
	})

	t.Run("owner filter", func(t *testing.T) {
		posts, total, err := st.ListActivePosts(ctx, PostFilter{UserID: "alice"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 2 || len(posts) != 2 {
			t.Fatalf("expected 2 posts for alice, got total=%d len=%d", total, len(posts))
		}
	})

	t.Run("created after", func(t *testing.T) {
		after := base.Add(90 * time.Minute)
		posts, total, err := st.ListActivePosts(ctx, PostFilter{CreatedAfter: &after})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 1 || len(posts) != 1 {
			t.Fatalf("expected 1 post after cutoff, got total=%d len=%d", total, len(posts))
		}
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		posts, total, err := st.ListActivePosts(ctx, PostFilter{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 3 || len(posts) != 1 {
			t.Fatalf("expected second page with 1 post and total 3, got total=%d len=%d", total, len(posts))
		}
	})
}
