// Package domain defines the persistence models for the statistics cache:
// cache entries, refresh audit logs, daily snapshots, and the electoral
// records the aggregation layer rolls up. These types are mapped with GORM
// and form the core data layer of the application.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntityType identifies the kind of entity a cached statistic is scoped to.
// Entities are referenced by opaque string ids only; the cache layer carries
// no foreign keys into the electoral tables so it can cache statistics for
// any entity kind uniformly.
type EntityType string

// Supported entity types, from the national rollup down to a single
// polling station, plus candidates and users.
const (
	EntityNational       EntityType = "NATIONAL"
	EntityRegion         EntityType = "REGION"
	EntityDepartment     EntityType = "DEPARTMENT"
	EntityCommune        EntityType = "COMMUNE"
	EntitySubPrefecture  EntityType = "SUBPREFECTURE"
	EntityPollingPlace   EntityType = "POLLING_PLACE"
	EntityPollingStation EntityType = "POLLING_STATION"
	EntityCandidate      EntityType = "CANDIDATE"
	EntityUser           EntityType = "USER"
)

// StatisticType identifies the family of aggregates stored in an entry's
// payload. The payload schema depends on this value (see payloads.go).
type StatisticType string

// Supported statistic types.
const (
	StatGeneral       StatisticType = "GENERAL"
	StatPV            StatisticType = "PV"
	StatParticipation StatisticType = "PARTICIPATION"
	StatIncidents     StatisticType = "INCIDENTS"
	StatResults       StatisticType = "RESULTS"
	StatPerformance   StatisticType = "PERFORMANCE"
	StatTimeline      StatisticType = "TIMELINE"
)

// ParseEntityType validates a raw string against the supported entity types.
// Matching is case-insensitive; the canonical upper-case form is returned.
func ParseEntityType(s string) (EntityType, bool) {
	et := EntityType(strings.ToUpper(strings.TrimSpace(s)))
	switch et {
	case EntityNational, EntityRegion, EntityDepartment, EntityCommune,
		EntitySubPrefecture, EntityPollingPlace, EntityPollingStation,
		EntityCandidate, EntityUser:
		return et, true
	}
	return "", false
}

// ParseStatisticType validates a raw string against the supported statistic
// types. Matching is case-insensitive; the canonical form is returned.
func ParseStatisticType(s string) (StatisticType, bool) {
	st := StatisticType(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatGeneral, StatPV, StatParticipation, StatIncidents,
		StatResults, StatPerformance, StatTimeline:
		return st, true
	}
	return "", false
}

// CacheKey derives the canonical storage key for a statistic scope:
// the lower-cased concatenation "{entity_type}_{entity_id}_{statistic_type}".
// The key is the unique index used for lookups and for substring-based
// invalidation.
func CacheKey(et EntityType, entityID string, st StatisticType) string {
	return strings.ToLower(fmt.Sprintf("%s_%s_%s", et, entityID, st))
}

// CacheEntry is one cached statistic document, uniquely identified by the
// (entity_type, entity_id, statistic_type) triple.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - EntityType / EntityID / StatisticType: the cache scope; the triple is
//     enforced unique so at most one entry exists per scope.
//   - CacheKey: derived lower-case key (see CacheKey), unique storage index.
//   - Data: JSON statistic payload; schema varies by StatisticType.
//   - ComputedAt / TTLMinutes / ExpiresAt: freshness window. ExpiresAt is
//     recomputed from ComputedAt + TTLMinutes on every successful refresh.
//   - ComputeDurationMS: how long the last aggregation took.
//   - IsValid: explicit invalidation switch; false forces recomputation on
//     the next read regardless of ExpiresAt.
//   - ForceRefresh: one-shot override; the next read recomputes even when
//     the entry is otherwise fresh. Cleared when recomputation succeeds.
//   - HitCount / LastAccessedAt: usage telemetry, maintained with a
//     DB-level atomic increment.
//   - Version: incremented inside the upsert transaction on each successful
//     recomputation; strictly monotonic per entry.
type CacheEntry struct {
	ID string `json:"id" gorm:"type:char(36);primaryKey"`

	EntityType    EntityType    `json:"entity_type"    gorm:"type:varchar(20);not null;uniqueIndex:ux_cache_scope,priority:1;index:idx_cache_entity"`
	EntityID      string        `json:"entity_id"      gorm:"type:varchar(100);not null;uniqueIndex:ux_cache_scope,priority:2;index:idx_cache_entity"`
	StatisticType StatisticType `json:"statistic_type" gorm:"type:varchar(20);not null;uniqueIndex:ux_cache_scope,priority:3"`

	CacheKey string `json:"cache_key" gorm:"type:varchar(255);not null;uniqueIndex"`

	Data Document `json:"data" gorm:"type:text"`

	ComputedAt        time.Time `json:"computed_at"`
	ComputeDurationMS int64     `json:"compute_duration_ms"`
	TTLMinutes        int       `json:"ttl_minutes" gorm:"not null;default:60"`
	ExpiresAt         time.Time `json:"expires_at" gorm:"index:idx_cache_expiry,priority:1"`

	IsValid      bool `json:"is_valid"      gorm:"not null;default:true;index:idx_cache_expiry,priority:2"`
	ForceRefresh bool `json:"force_refresh" gorm:"not null;default:false"`

	HitCount       int64      `json:"hit_count" gorm:"not null;default:0"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`

	Version int `json:"version" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for CacheEntry.
func (CacheEntry) TableName() string { return "cache_entries" }

// Expired reports whether the entry's TTL has elapsed at the given instant.
// The boundary is inclusive: an entry is stale once now >= ExpiresAt.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Servable reports whether the entry may be returned without recomputation:
// it must be valid, within its TTL, and not flagged for a forced refresh.
func (e *CacheEntry) Servable(now time.Time) bool {
	return e.IsValid && !e.ForceRefresh && !e.Expired(now)
}

// RefreshStatus is the outcome of one recomputation attempt.
type RefreshStatus string

// Refresh outcomes.
const (
	RefreshSuccess RefreshStatus = "SUCCESS"
	RefreshError   RefreshStatus = "ERROR"
	RefreshTimeout RefreshStatus = "TIMEOUT"
)

// RefreshLog is the append-only audit record of one recomputation attempt.
// Rows are never mutated or deleted by this application; retention is managed
// externally. The CacheEntry reference is nullable so the log survives entry
// deletion by the cleanup sweep.
//
// Fields:
//   - CacheEntryID: optional reference to the refreshed entry (SET NULL on
//     entry deletion).
//   - CacheKey / EntityType / EntityID / StatisticType: scope identifiers,
//     duplicated so the row stays meaningful after the entry is gone.
//   - Status: SUCCESS, ERROR, or TIMEOUT.
//   - Message: free-text failure detail; empty on success.
//   - DurationMS: wall-clock duration of the aggregation.
//   - TriggeredBy: what initiated the refresh ("obtain", "scheduler",
//     "api", "manual").
type RefreshLog struct {
	ID string `json:"id" gorm:"type:char(36);primaryKey"`

	CacheEntryID *string     `json:"cache_entry_id,omitempty" gorm:"type:char(36);index"`
	CacheEntry   *CacheEntry `json:"-" gorm:"foreignKey:CacheEntryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`

	CacheKey      string        `json:"cache_key"      gorm:"type:varchar(255);not null;index:idx_refresh_key_time,priority:1"`
	EntityType    EntityType    `json:"entity_type"    gorm:"type:varchar(20);not null"`
	EntityID      string        `json:"entity_id"      gorm:"type:varchar(100);not null"`
	StatisticType StatisticType `json:"statistic_type" gorm:"type:varchar(20);not null"`

	Status     RefreshStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Message    string        `json:"message,omitempty" gorm:"type:text"`
	DurationMS int64         `json:"duration_ms" gorm:"not null"`

	TriggeredBy string `json:"triggered_by" gorm:"type:varchar(50);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_refresh_key_time,priority:2"`
}

// TableName returns the database table name for RefreshLog.
func (RefreshLog) TableName() string { return "refresh_logs" }
