package imagehealth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"vboard/internal/models"
	"vboard/internal/store"
)

// SingleCheckResult is the verdict of a direct single-post verification.
type SingleCheckResult struct {
	PostID       int64  `json:"post_id" yaml:"post_id"`
	ImageURL     string `json:"image_url" yaml:"image_url"`
	IsAccessible bool   `json:"is_accessible" yaml:"is_accessible"`
	IsActive     bool   `json:"is_active" yaml:"is_active"`
}

// ReactivateResult is returned by a successful reactivation.
type ReactivateResult struct {
	PostID   int64  `json:"post_id" yaml:"post_id"`
	IsActive bool   `json:"is_active" yaml:"is_active"`
	ImageURL string `json:"image_url" yaml:"image_url"`
	Message  string `json:"message" yaml:"message"`
}

// HealthStatus is the aggregate activation snapshot.
type HealthStatus struct {
	Total            int     `json:"total_posts" yaml:"total_posts"`
	Active           int     `json:"active_posts" yaml:"active_posts"`
	Inactive         int     `json:"inactive_posts" yaml:"inactive_posts"`
	Unchecked        int     `json:"unchecked_posts" yaml:"unchecked_posts"`
	HealthPercentage float64 `json:"health_percentage" yaml:"health_percentage"`
}

// Service implements the synchronous image-health operations.
type Service struct {
	store    store.ImageHealthStore
	prober   Prober
	cooldown time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the image-health service.
func NewService(st store.ImageHealthStore, prober Prober, cooldown time.Duration, logger *slog.Logger) *Service {
	if cooldown < DefaultCooldown {
		cooldown = DefaultCooldown
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		prober:   prober,
		cooldown: cooldown,
		logger:   logger.With("component", "image_check"),
		now:      time.Now,
	}
}

// CheckSingle probes the post's current image and records the verdict.
// Unlike batches it ignores cooldown and may reactivate an inactive post.
func (s *Service) CheckSingle(ctx context.Context, postID int64) (SingleCheckResult, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return SingleCheckResult{}, err
	}

	reachable := s.prober.Probe(ctx, post.ImageURL)
	if err := ctx.Err(); err != nil {
		return SingleCheckResult{}, err
	}

	next, _ := post.Activation().ApplyVerdict(models.Verdict(reachable), s.now())
	err = s.store.SetActivation(ctx, post.ID, next.IsActive, *next.CheckedAt, nil)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return SingleCheckResult{}, ErrPostNotFound
	case errors.Is(err, store.ErrStaleCheck):
		// A newer verdict landed first; report what is stored.
		current, loadErr := s.loadPost(ctx, postID)
		if loadErr != nil {
			return SingleCheckResult{}, loadErr
		}
		next.IsActive = current.IsActive
	case err != nil:
		return SingleCheckResult{}, fmt.Errorf("record verdict: %w", err)
	}

	s.logger.Info("single image check",
		"post_id", post.ID,
		"accessible", reachable,
		"state", models.StateOf(next.IsActive),
	)
	return SingleCheckResult{
		PostID:       post.ID,
		ImageURL:     post.ImageURL,
		IsAccessible: reachable,
		IsActive:     next.IsActive,
	}, nil
}

// Reactivate marks the post active again, optionally switching to a new
// image reference that must pass a probe first. Failures leave the post untouched.
func (s *Service) Reactivate(ctx context.Context, postID int64, requesterID, newImageURL string) (ReactivateResult, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return ReactivateResult{}, err
	}
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" || requesterID != post.UserID {
		return ReactivateResult{}, ErrForbidden
	}

	var replacement *string
	imageURL := post.ImageURL
	if candidate := strings.TrimSpace(newImageURL); candidate != "" {
		if len(candidate) > models.MaxImageURLLength || !s.prober.Probe(ctx, candidate) {
			return ReactivateResult{}, ErrInvalidReference
		}
		replacement = &candidate
		imageURL = candidate
	}

	if err := s.store.SetActivation(ctx, post.ID, true, s.now(), replacement); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ReactivateResult{}, ErrPostNotFound
		}
		return ReactivateResult{}, fmt.Errorf("reactivate post %d: %w", post.ID, err)
	}

	s.logger.Info("post reactivated", "post_id", post.ID, "owner", post.UserID, "new_image", replacement != nil)
	return ReactivateResult{
		PostID:   post.ID,
		IsActive: true,
		ImageURL: imageURL,
		Message:  "Post reactivated successfully",
	}, nil
}

// Status returns activation counts and the share of active posts.
func (s *Service) Status(ctx context.Context) (HealthStatus, error) {
	counts, err := s.store.CountPostHealth(ctx, s.now().Add(-s.cooldown))
	if err != nil {
		return HealthStatus{}, err
	}
	return HealthStatus{
		Total:            counts.Total,
		Active:           counts.Active,
		Inactive:         counts.Inactive,
		Unchecked:        counts.Unchecked,
		HealthPercentage: HealthPercentage(counts.Active, counts.Total),
	}, nil
}

// HealthPercentage is active/total*100 rounded to two decimals, or 100 with no posts.
func HealthPercentage(active, total int) float64 {
	if total <= 0 {
		return 100
	}
	return math.Round(float64(active)/float64(total)*100*100) / 100
}

func (s *Service) loadPost(ctx context.Context, postID int64) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}
