package imagehealth

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultCheckInterval = 6 * time.Hour
	defaultQueueSize     = 16
)

// BatchRunner runs one verification batch.
type BatchRunner interface {
	RunBatch(ctx context.Context, scope Scope) (BatchResult, error)
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Interval   time.Duration // zero disables the periodic loop
	RunOnStart bool
	QueueSize  int
	Logger     *slog.Logger
}

// Runner executes batches off the request path: periodically on a ticker and
// on demand through Trigger. Batches run one at a time.
type Runner struct {
	batches    BatchRunner
	interval   time.Duration
	runOnStart bool
	queue      chan Scope
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRunner creates a runner. Call Start before Trigger.
func NewRunner(batches BatchRunner, cfg RunnerConfig) *Runner {
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		batches:    batches,
		interval:   cfg.Interval,
		runOnStart: cfg.RunOnStart,
		queue:      make(chan Scope, size),
		logger:     logger.With("component", "image_check"),
	}
}

// Start launches the background loop. Calling Start twice is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	go r.loop(loopCtx, r.done)

	r.logger.Info("image checker started", "interval", r.interval.String(), "run_on_start", r.runOnStart)
}

// Trigger queues a batch for scope and returns immediately. It reports
// false when the runner is stopped or the queue is full.
func (r *Runner) Trigger(scope Scope) bool {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if !running {
		r.logger.Warn("image check trigger ignored: runner not started", "scope", scope.Name())
		return false
	}

	select {
	case r.queue <- scope:
		return true
	default:
		r.logger.Warn("image check queue full, dropping trigger", "scope", scope.Name())
		return false
	}
}

// Stop ends the loop after the in-flight batch finishes.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
	r.logger.Info("image checker stopped")
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	// Batches outlive the loop context so Stop lets the current one finish.
	batchCtx := context.WithoutCancel(ctx)

	if r.runOnStart {
		r.run(batchCtx, GlobalScope())
	}

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			r.run(batchCtx, GlobalScope())
		case scope := <-r.queue:
			r.run(batchCtx, scope)
		}
	}
}

func (r *Runner) run(ctx context.Context, scope Scope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("image check batch panicked", "scope", scope.Name(), "panic", rec)
		}
	}()
	if _, err := r.batches.RunBatch(ctx, scope); err != nil {
		r.logger.Error("image check batch failed", "scope", scope.Name(), "error", err)
	}
}
