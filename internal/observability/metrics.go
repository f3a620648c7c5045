package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	aggregationRuns     *prometheus.CounterVec
	aggregationDuration prometheus.Histogram
	upsertedUsers       prometheus.Counter
	leaderboardRequests *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the aggregation pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		aggregationRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rated_point_sum_runs_total",
			Help: "Total number of rated point sum recompute runs, by outcome.",
		}, []string{"status"})

		aggregationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rated_point_sum_run_duration_seconds",
			Help:    "Duration distribution of rated point sum recompute runs.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		})

		upsertedUsers = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rated_point_sum_upserted_users_total",
			Help: "Total number of user aggregate rows written by recompute runs.",
		})

		leaderboardRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leaderboard_requests_total",
			Help: "Total number of leaderboard range queries served, by cache outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(aggregationRuns, aggregationDuration, upsertedUsers, leaderboardRequests)
	})
}

// AggregationRuns exposes the recompute run counter.
func AggregationRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return aggregationRuns
}

// AggregationDuration exposes the recompute duration histogram.
func AggregationDuration() prometheus.Histogram {
	RegisterMetrics()
	return aggregationDuration
}

// UpsertedUsers exposes the upserted row counter.
func UpsertedUsers() prometheus.Counter {
	RegisterMetrics()
	return upsertedUsers
}

// LeaderboardRequests exposes the leaderboard query counter.
func LeaderboardRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return leaderboardRequests
}
