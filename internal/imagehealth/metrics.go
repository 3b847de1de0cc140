package imagehealth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vboard_image_probes_total",
		Help: "Image reachability probes by target kind and verdict.",
	}, []string{"target", "result"}) // target: local, external

	probeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vboard_image_probe_duration_seconds",
		Help:    "Duration of image reachability probes.",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"target"})

	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vboard_image_check_batches_total",
		Help: "Verification batches by scope and result.",
	}, []string{"scope", "result"})

	batchPostsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vboard_image_check_posts_total",
		Help: "Posts processed by verification batches.",
	}, []string{"outcome"}) // outcome: deactivated, still_active, skipped

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vboard_image_check_batch_duration_seconds",
		Help:    "Duration of verification batches.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})
)

func verdictLabel(ok bool) string {
	if ok {
		return "reachable"
	}
	return "unreachable"
}
