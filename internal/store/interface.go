package store

import (
	"context"
	"time"

	"vboard/internal/models"
)

// PostStore abstracts post CRUD storage.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	ReplacePost(ctx context.Context, post *models.Post) error
	PatchPost(ctx context.Context, id int64, update PostUpdate) error
	DeletePost(ctx context.Context, id int64) error
	ListActivePosts(ctx context.Context, filter PostFilter) ([]models.Post, int, error)
}

// ImageHealthStore owns the is_active / last_image_check pair.
type ImageHealthStore interface {
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	ListPostsDueForCheck(ctx context.Context, filter DueFilter) ([]models.Post, error)
	ApplyVerdicts(ctx context.Context, verdicts []Verdict) (int, error)
	SetActivation(ctx context.Context, id int64, isActive bool, checkedAt time.Time, newImageURL *string) error
	CountPostHealth(ctx context.Context, uncheckedCutoff time.Time) (PostHealthCounts, error)
}

// UserStore abstracts user account storage.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

var (
	_ PostStore        = (*Store)(nil)
	_ ImageHealthStore = (*Store)(nil)
	_ UserStore        = (*Store)(nil)
)
