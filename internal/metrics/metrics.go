package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ratingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchcore_ratings_total",
			Help: "Total number of ratings recorded",
		},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchcore_matches_total",
			Help: "Total number of matches created",
		},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchcore_compatibility_scores",
			Help:    "Distribution of overall compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	unlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcore_unlocks_total",
			Help: "Unlock flag transitions by flag name",
		},
		[]string{"flag"},
	)

	sweptRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcore_swept_rows_total",
			Help: "Rows destroyed by the retention sweep",
		},
		[]string{"kind"},
	)

	sessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcore_session_transitions_total",
			Help: "Video session state transitions by target state",
		},
		[]string{"to"},
	)
)

func RecordRating(overall int) {
	ratingsTotal.Inc()
	compatibilityScores.Observe(float64(overall))
}

func RecordMatch() {
	matchesTotal.Inc()
}

func RecordUnlock(flag string) {
	unlocksTotal.WithLabelValues(flag).Inc()
}

func RecordSwept(kind string, n int64) {
	sweptRowsTotal.WithLabelValues(kind).Add(float64(n))
}

func RecordSessionTransition(to string) {
	sessionTransitionsTotal.WithLabelValues(to).Inc()
}
