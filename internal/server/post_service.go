package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vboard/internal/api"
	"vboard/internal/models"
	"vboard/internal/store"
)

const (
	defaultPerPage = 10
	maxPerPage     = 1000
)

// PostService centralizes post validation, ownership checks and mapping.
type PostService struct {
	store store.PostStore
	now   func() time.Time
}

// NewPostService constructs a PostService.
func NewPostService(st store.PostStore) *PostService {
	return &PostService{store: st, now: time.Now}
}

// ListQuery is a parsed feed request.
type ListQuery struct {
	Page         int
	PerPage      int
	UserID       string
	CreatedAfter *time.Time
}

// List returns one page of the active feed, newest first.
func (s *PostService) List(ctx context.Context, q ListQuery) (api.PostListResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = defaultPerPage
	}

	posts, total, err := s.store.ListActivePosts(ctx, store.PostFilter{
		UserID:       q.UserID,
		CreatedAfter: q.CreatedAfter,
		Limit:        q.PerPage,
		Offset:       (q.Page - 1) * q.PerPage,
	})
	if err != nil {
		return api.PostListResponse{}, storeFailure(err)
	}

	items := make([]api.PostResponse, 0, len(posts))
	for _, post := range posts {
		items = append(items, toPostResponse(post))
	}
	return api.PostListResponse{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: (total + q.PerPage - 1) / q.PerPage,
	}, nil
}

// Get returns one post regardless of its activation state.
func (s *PostService) Get(ctx context.Context, id int64) (api.PostResponse, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return api.PostResponse{}, err
	}
	return toPostResponse(*post), nil
}

// Create stores a new post owned by userID.
func (s *PostService) Create(ctx context.Context, userID string, req api.PostCreateRequest) (api.PostResponse, error) {
	post, err := postFromRequest(req)
	if err != nil {
		return api.PostResponse{}, err
	}
	post.UserID = userID
	post.CreatedAt = s.now().UTC()

	if err := s.store.CreatePost(ctx, &post); err != nil {
		return api.PostResponse{}, storeFailure(err)
	}
	return toPostResponse(post), nil
}

// Replace overwrites every content field of a post owned by userID.
func (s *PostService) Replace(ctx context.Context, id int64, userID string, req api.PostCreateRequest) (api.PostResponse, error) {
	if _, err := s.loadOwned(ctx, id, userID, "edit"); err != nil {
		return api.PostResponse{}, err
	}
	post, err := postFromRequest(req)
	if err != nil {
		return api.PostResponse{}, err
	}
	now := s.now().UTC()
	post.ID = id
	post.UpdatedAt = &now

	if err := s.store.ReplacePost(ctx, &post); err != nil {
		return api.PostResponse{}, s.mapWriteError(id, err)
	}
	return s.Get(ctx, id)
}

// Patch updates the provided fields of a post owned by userID.
func (s *PostService) Patch(ctx context.Context, id int64, userID string, req api.PostPatchRequest) (api.PostResponse, error) {
	if _, err := s.loadOwned(ctx, id, userID, "edit"); err != nil {
		return api.PostResponse{}, err
	}

	update := store.PostUpdate{UpdatedAt: s.now().UTC()}
	if req.Title != nil {
		title, err := normalizeTitle(*req.Title)
		if err != nil {
			return api.PostResponse{}, err
		}
		update.Title = &title
	}
	if req.Description != nil {
		description := valueOrEmpty(req.Description)
		update.Description = &description
	}
	if req.ImageURL != nil {
		imageURL, err := normalizeImageURL(*req.ImageURL)
		if err != nil {
			return api.PostResponse{}, err
		}
		update.ImageURL = &imageURL
	}
	if req.Tags != nil {
		tags, err := normalizeTags(*req.Tags)
		if err != nil {
			return api.PostResponse{}, err
		}
		update.Tags = &tags
	}

	if err := s.store.PatchPost(ctx, id, update); err != nil {
		return api.PostResponse{}, s.mapWriteError(id, err)
	}
	return s.Get(ctx, id)
}

// Delete removes a post owned by userID.
func (s *PostService) Delete(ctx context.Context, id int64, userID string) error {
	if _, err := s.loadOwned(ctx, id, userID, "delete"); err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return s.mapWriteError(id, err)
	}
	return nil
}

func (s *PostService) load(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if post == nil {
		return nil, notFoundCode(fmt.Errorf("post not found"), ErrCodePostNotFound)
	}
	return post, nil
}

func (s *PostService) loadOwned(ctx context.Context, id int64, userID, action string) (*models.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, forbidden(fmt.Errorf("not authorized to %s this post", action))
	}
	return post, nil
}

func (s *PostService) mapWriteError(id int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFoundCode(fmt.Errorf("post not found"), ErrCodePostNotFound)
	}
	return storeFailure(fmt.Errorf("write post %d: %w", id, err))
}

func postFromRequest(req api.PostCreateRequest) (models.Post, error) {
	title, err := normalizeTitle(req.Title)
	if err != nil {
		return models.Post{}, err
	}
	imageURL, err := normalizeImageURL(req.ImageURL)
	if err != nil {
		return models.Post{}, err
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return models.Post{}, err
	}
	return models.Post{
		Title:       title,
		Description: valueOrEmpty(req.Description),
		ImageURL:    imageURL,
		Tags:        tags,
	}, nil
}

func toPostResponse(post models.Post) api.PostResponse {
	var description *string
	if post.Description != "" {
		value := post.Description
		description = &value
	}
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	return api.PostResponse{
		ID:             post.ID,
		Title:          post.Title,
		Description:    description,
		ImageURL:       post.ImageURL,
		Tags:           tags,
		UserID:         post.UserID,
		Author:         post.Author(),
		IsActive:       post.IsActive,
		LastImageCheck: post.LastImageCheck,
		CreatedAt:      post.CreatedAt,
		UpdatedAt:      post.UpdatedAt,
	}
}
