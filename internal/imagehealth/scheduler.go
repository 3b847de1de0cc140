package imagehealth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"vboard/internal/store"
)

// DefaultBatchSize is also the ceiling for a batch, and DefaultCooldown
// the floor for the re-check cooldown. Smaller batches are allowed.
const (
	DefaultBatchSize = 50
	DefaultCooldown  = 24 * time.Hour
)

// Scope narrows a batch to one owner. The zero value is global.
type Scope struct {
	OwnerID string
}

// GlobalScope selects every eligible post.
func GlobalScope() Scope { return Scope{} }

// OwnerScope selects the eligible posts of one owner.
func OwnerScope(ownerID string) Scope { return Scope{OwnerID: strings.TrimSpace(ownerID)} }

// Name is the label used in responses, logs and metrics.
func (s Scope) Name() string {
	if s.OwnerID == "" {
		return "global"
	}
	return "user"
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	Scope       string `json:"scope" yaml:"scope"`
	Checked     int    `json:"checked" yaml:"checked"`
	Deactivated int    `json:"deactivated" yaml:"deactivated"`
	StillActive int    `json:"active" yaml:"active"`
	Skipped     int    `json:"skipped" yaml:"skipped"`
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	BatchSize   int
	Cooldown    time.Duration
	Concurrency int
	Logger      *slog.Logger
	Now         func() time.Time
}

// Scheduler selects posts due for verification, probes them and commits
// the verdicts as one unit.
type Scheduler struct {
	store       store.ImageHealthStore
	prober      Prober
	batchSize   int
	cooldown    time.Duration
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// NewScheduler creates a scheduler.
func NewScheduler(st store.ImageHealthStore, prober Prober, cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		store:       st,
		prober:      prober,
		batchSize:   cfg.BatchSize,
		cooldown:    cfg.Cooldown,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}
	if s.batchSize <= 0 || s.batchSize > DefaultBatchSize {
		s.batchSize = DefaultBatchSize
	}
	if s.cooldown < DefaultCooldown {
		s.cooldown = DefaultCooldown
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultProbeConcurrency
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "image_check")
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RunBatch verifies up to one batch of due posts in scope.
func (s *Scheduler) RunBatch(ctx context.Context, scope Scope) (result BatchResult, err error) {
	start := time.Now()
	result.Scope = scope.Name()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		batchesTotal.WithLabelValues(result.Scope, outcome).Inc()
		batchDuration.Observe(time.Since(start).Seconds())
	}()

	due, err := s.store.ListPostsDueForCheck(ctx, store.DueFilter{
		OwnerID: scope.OwnerID,
		Cutoff:  s.now().Add(-s.cooldown),
		Limit:   s.batchSize,
	})
	if err != nil {
		return result, fmt.Errorf("select due posts: %w", err)
	}
	if len(due) == 0 {
		s.logger.Debug("no posts due for image check", "scope", result.Scope)
		return result, nil
	}

	verdicts := make([]store.Verdict, len(due))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, post := range due {
		g.Go(func() error {
			verdicts[i] = store.Verdict{
				PostID:     post.ID,
				ImageURL:   post.ImageURL,
				PriorCheck: post.LastImageCheck,
				Reachable:  s.prober.Probe(gctx, post.ImageURL),
			}
			return nil
		})
	}
	_ = g.Wait()

	// A cancelled probe reads as unreachable; committing it would deactivate healthy posts.
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("batch interrupted: %w", err)
	}

	checkedAt := s.now().UTC()
	for i := range verdicts {
		verdicts[i].CheckedAt = checkedAt
	}

	if _, err := s.store.ApplyVerdicts(ctx, verdicts); err != nil {
		return result, fmt.Errorf("commit verdicts: %w", err)
	}

	for _, v := range verdicts {
		switch {
		case !v.Applied:
			result.Skipped++
		case v.Reachable:
			result.Checked++
			result.StillActive++
		default:
			result.Checked++
			result.Deactivated++
		}
	}
	batchPostsTotal.WithLabelValues("deactivated").Add(float64(result.Deactivated))
	batchPostsTotal.WithLabelValues("still_active").Add(float64(result.StillActive))
	batchPostsTotal.WithLabelValues("skipped").Add(float64(result.Skipped))

	s.logger.Info("image check batch complete",
		"scope", result.Scope,
		"checked", result.Checked,
		"deactivated", result.Deactivated,
		"active", result.StillActive,
		"skipped", result.Skipped,
		"duration", time.Since(start),
	)
	return result, nil
}
