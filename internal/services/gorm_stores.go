// Package services – GORM-backed store adapters.
//
// These shims adapt the repository free functions to the store interfaces
// expected by StatsService. This keeps the service decoupled from the
// concrete repo package while reusing existing functions, and gives tests a
// seam to substitute in-memory doubles.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sdiabate/pvstats/internal/domain"
	"github.com/sdiabate/pvstats/internal/repo"
)

// GormCacheStore implements CacheStore over the cache_entries table.
type GormCacheStore struct {
	DB *gorm.DB
}

// Get proxies repo.GetCacheEntry.
func (s GormCacheStore) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	return repo.GetCacheEntry(ctx, s.DB, key)
}

// RecordHit proxies repo.RecordCacheHit.
func (s GormCacheStore) RecordHit(ctx context.Context, entryID string, now time.Time) error {
	return repo.RecordCacheHit(ctx, s.DB, entryID, now)
}

// Upsert proxies repo.UpsertCacheEntry.
func (s GormCacheStore) Upsert(ctx context.Context, et domain.EntityType, entityID string, st domain.StatisticType, data domain.Document, ttlMinutes int, durationMS int64, now time.Time) (*domain.CacheEntry, error) {
	return repo.UpsertCacheEntry(ctx, s.DB, et, entityID, st, data, ttlMinutes, durationMS, now)
}

// GormRefreshLogStore implements RefreshLogStore over the refresh_logs table.
type GormRefreshLogStore struct {
	DB *gorm.DB
}

// Append proxies repo.AppendRefreshLog.
func (s GormRefreshLogStore) Append(ctx context.Context, lg *domain.RefreshLog) error {
	return repo.AppendRefreshLog(ctx, s.DB, lg)
}
