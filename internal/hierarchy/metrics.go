package hierarchy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("lineage/hierarchy")

var (
	recomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lineage",
		Subsystem: "hierarchy",
		Name:      "recompute_total",
		Help:      "Branch recomputations by outcome",
	}, []string{"status"})

	recomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lineage",
		Subsystem: "hierarchy",
		Name:      "recompute_duration_seconds",
		Help:      "Branch recomputation duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
	})

	classesVisited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lineage",
		Subsystem: "hierarchy",
		Name:      "classes_visited_total",
		Help:      "Class-like records visited by the worklist",
	})

	classesChanged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lineage",
		Subsystem: "hierarchy",
		Name:      "classes_changed_total",
		Help:      "Class-like records whose derived facts were rewritten",
	})

	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lineage",
		Subsystem: "hierarchy",
		Name:      "resolutions_total",
		Help:      "Class name resolutions by result (unique, ambiguous, none)",
	}, []string{"result"})

	mergeDepthExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lineage",
		Subsystem: "hierarchy",
		Name:      "merge_depth_exceeded_total",
		Help:      "Merges cut short by the maximum inheritance depth",
	})
)
