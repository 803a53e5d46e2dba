// Package services – Prometheus collectors for the cache layer.
//
// Label cardinality stays bounded: entity_type and statistic_type are small
// closed enums; entity ids are never used as labels.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// cacheHits counts reads served straight from a valid cache entry.
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvstats_cache_hits_total",
			Help: "Reads served from a valid cache entry without recomputation.",
		},
		[]string{"entity_type", "statistic_type"},
	)

	// cacheMisses counts reads that found no servable entry (absent, stale,
	// invalidated, or force-flagged).
	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvstats_cache_misses_total",
			Help: "Reads that found no servable cache entry.",
		},
		[]string{"entity_type", "statistic_type"},
	)

	// recomputeDuration records aggregation wall time by outcome.
	recomputeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pvstats_cache_recompute_duration_seconds",
			Help:    "Duration of statistic recomputations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"entity_type", "statistic_type", "status"},
	)

	// refreshResults counts per-entry outcomes of batch refresh sweeps.
	refreshResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pvstats_refresh_results_total",
			Help: "Per-entry outcomes of batch refresh sweeps.",
		},
		[]string{"status"},
	)

	// cleanupDeleted counts entries removed by the cleanup sweep.
	cleanupDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pvstats_cache_entries_deleted_total",
			Help: "Cache entries removed by the cleanup sweep.",
		},
	)
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses, recomputeDuration, refreshResults, cleanupDeleted)
}
