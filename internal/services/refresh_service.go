// Package services – RefreshService.
//
// This file implements the out-of-band cache maintenance operations:
// targeted and pattern invalidation, the bounded "refresh all expired"
// sweep, and the cleanup of long-dead entries. The sweep and cleanup are
// designed to be driven by a periodic scheduler and are safe to run
// concurrently with live Obtain traffic: recomputation always replaces an
// entry's document in full, never merges partially.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sdiabate/pvstats/internal/domain"
	"github.com/sdiabate/pvstats/internal/repo"
)

// RefreshSummary tallies one batch refresh sweep. Total counts every entry
// currently due for recomputation; Succeeded+Failed count only the entries
// actually processed within the batch limit.
type RefreshSummary struct {
	Total     int64 `json:"total"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
}

// RefreshService maintains the cache out-of-band.
type RefreshService struct {
	// DB is the GORM handle used for selection, invalidation, and deletion.
	DB *gorm.DB
	// Stats performs the actual recomputations so the sweep shares the
	// single per-key serialized refresh path with Obtain.
	Stats *StatsService

	// BatchLimit caps how many entries one sweep recomputes.
	BatchLimit int
	// RetentionDays is how long an expired, invalidated entry survives
	// before cleanup deletes it.
	RetentionDays int

	now func() time.Time
}

// NewRefreshService constructs a RefreshService with the production
// defaults: batches of 100, 7-day retention.
func NewRefreshService(db *gorm.DB, stats *StatsService) *RefreshService {
	return &RefreshService{
		DB:            db,
		Stats:         stats,
		BatchLimit:    100,
		RetentionDays: 7,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Invalidate flips is_valid off for one entry. Idempotent: repeating the
// call, or invalidating an absent entry, changes nothing. The entry is not
// deleted or recomputed; the next Obtain sees the flag and refreshes.
func (s *RefreshService) Invalidate(ctx context.Context, et domain.EntityType, entityID string, st domain.StatisticType) (bool, error) {
	if entityID == "" {
		return false, ErrInvalidScope
	}
	return repo.InvalidateEntry(ctx, s.DB, et, entityID, st)
}

// InvalidateByPattern marks every entry whose cache key contains pattern as
// invalid and due for a forced refresh, so one domain write (a PV validated
// in region 42, say) can sweep the region, department, and national
// aggregates in one call. Matching is substring, not prefix: "region_4"
// also catches "region_42". Returns the number of entries affected.
func (s *RefreshService) InvalidateByPattern(ctx context.Context, pattern string) (int64, error) {
	if pattern == "" {
		return 0, ErrInvalidScope
	}
	return repo.InvalidateByPattern(ctx, s.DB, pattern)
}

// RefreshAllExpired recomputes entries that are invalidated, force-flagged,
// or past TTL, most-used first, up to batchLimit (the service default when
// <= 0). Per-entry failures are logged, counted, and skipped; the sweep
// never aborts on one bad entry.
func (s *RefreshService) RefreshAllExpired(ctx context.Context, batchLimit int) (RefreshSummary, error) {
	if batchLimit <= 0 {
		batchLimit = s.BatchLimit
	}
	now := s.now()

	summary := RefreshSummary{}
	total, err := repo.CountRefreshable(ctx, s.DB, now)
	if err != nil {
		return summary, err
	}
	summary.Total = total

	entries, err := repo.ListRefreshable(ctx, s.DB, now, batchLimit)
	if err != nil {
		return summary, err
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if _, err := s.Stats.Recompute(ctx, e.EntityType, e.EntityID, e.StatisticType, "scheduler"); err != nil {
			summary.Failed++
			refreshResults.WithLabelValues("error").Inc()
			log.Warn().
				Str("cache_key", e.CacheKey).
				Err(err).
				Msg("batch refresh entry failed")
			continue
		}
		summary.Succeeded++
		refreshResults.WithLabelValues("success").Inc()
	}
	return summary, nil
}

// CleanupExpired permanently deletes entries that have been both expired and
// invalidated for longer than retentionDays (the service default when <= 0).
// Entries merely past TTL but still valid are never touched: they refresh
// lazily on their next read. Returns the number of rows deleted.
func (s *RefreshService) CleanupExpired(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = s.RetentionDays
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted, err := repo.DeleteExpiredInvalid(ctx, s.DB, cutoff)
	if err != nil {
		return 0, err
	}
	cleanupDeleted.Add(float64(deleted))
	return deleted, nil
}
