// Package repo – cache entry repository.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only persistence
// and query composition.
//
// Error semantics:
//   - When an entry is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Concurrency notes:
//   - RecordCacheHit uses a single atomic UPDATE (hit_count = hit_count + 1),
//     never read-modify-write.
//   - UpsertCacheEntry runs in a transaction and increments version with a
//     SQL expression, so concurrent refreshes cannot produce duplicate or
//     regressed versions.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdiabate/pvstats/internal/domain"
)

// ErrNotFound aliases gorm.ErrRecordNotFound for callers that prefer not to
// import gorm directly.
var ErrNotFound = gorm.ErrRecordNotFound

// GetCacheEntry fetches an entry by its canonical cache key.
func GetCacheEntry(ctx context.Context, db *gorm.DB, key string) (*domain.CacheEntry, error) {
	var e domain.CacheEntry
	if err := db.WithContext(ctx).Where("cache_key = ?", key).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// RecordCacheHit atomically increments the entry's hit counter and stamps the
// last access time.
func RecordCacheHit(ctx context.Context, db *gorm.DB, entryID string, now time.Time) error {
	return db.WithContext(ctx).Model(&domain.CacheEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]any{
			"hit_count":        gorm.Expr("hit_count + 1"),
			"last_accessed_at": now,
		}).Error
}

// UpsertCacheEntry writes the result of a successful recomputation. If no
// entry exists for the scope one is created at version 1; otherwise the
// existing row is replaced in full: new data, refreshed freshness window,
// flags reset, version incremented. The persisted entry is returned.
func UpsertCacheEntry(ctx context.Context, db *gorm.DB, et domain.EntityType, entityID string, st domain.StatisticType, data domain.Document, ttlMinutes int, durationMS int64, now time.Time) (*domain.CacheEntry, error) {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	key := domain.CacheKey(et, entityID, st)
	expires := now.Add(time.Duration(ttlMinutes) * time.Minute)

	var out domain.CacheEntry
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.CacheEntry
		err := tx.Where("cache_key = ?", key).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = domain.CacheEntry{
				ID:                uuid.NewString(),
				EntityType:        et,
				EntityID:          entityID,
				StatisticType:     st,
				CacheKey:          key,
				Data:              data,
				ComputedAt:        now,
				ComputeDurationMS: durationMS,
				TTLMinutes:        ttlMinutes,
				ExpiresAt:         expires,
				IsValid:           true,
				ForceRefresh:      false,
				Version:           1,
			}
			return tx.Create(&out).Error
		case err != nil:
			return err
		}

		res := tx.Model(&domain.CacheEntry{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"data":                data,
				"computed_at":         now,
				"compute_duration_ms": durationMS,
				"ttl_minutes":         ttlMinutes,
				"expires_at":          expires,
				"is_valid":            true,
				"force_refresh":       false,
				"version":             gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		return tx.Where("id = ?", existing.ID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// InvalidateEntry flips is_valid off for the entry matching the scope.
// It reports whether an entry was affected; invalidating an absent or
// already-invalid entry is a no-op, making the operation idempotent.
func InvalidateEntry(ctx context.Context, db *gorm.DB, et domain.EntityType, entityID string, st domain.StatisticType) (bool, error) {
	key := domain.CacheKey(et, entityID, st)
	res := db.WithContext(ctx).Model(&domain.CacheEntry{}).
		Where("cache_key = ?", key).
		Update("is_valid", false)
	return res.RowsAffected > 0, res.Error
}

// InvalidateByPattern marks every entry whose cache_key contains the given
// substring as invalid AND due for a forced refresh. Substring (not prefix)
// matching is deliberate: one domain write can sweep all derived aggregates
// that mention a scope id without knowing every exact key. It returns the
// number of entries affected.
func InvalidateByPattern(ctx context.Context, db *gorm.DB, pattern string) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.CacheEntry{}).
		Where("cache_key LIKE ?", "%"+pattern+"%").
		Updates(map[string]any{
			"is_valid":      false,
			"force_refresh": true,
		})
	return res.RowsAffected, res.Error
}

// ListRefreshable returns up to limit entries needing recomputation
// (invalidated, force-flagged, or past TTL at the given instant), most-used
// first so popular entries are repaired before rarely-read ones.
func ListRefreshable(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.CacheEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []domain.CacheEntry
	err := db.WithContext(ctx).
		Where("is_valid = ? OR force_refresh = ? OR expires_at <= ?", false, true, now).
		Order("hit_count DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// CountRefreshable counts every entry currently needing recomputation,
// regardless of batch limits.
func CountRefreshable(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.CacheEntry{}).
		Where("is_valid = ? OR force_refresh = ? OR expires_at <= ?", false, true, now).
		Count(&n).Error
	return n, err
}

// DeleteExpiredInvalid permanently removes entries that are both invalidated
// and expired before the cutoff. Entries merely past TTL but still flagged
// valid are kept; they refresh on their next read. Returns rows deleted.
func DeleteExpiredInvalid(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at < ? AND is_valid = ?", cutoff, false).
		Delete(&domain.CacheEntry{})
	return res.RowsAffected, res.Error
}
