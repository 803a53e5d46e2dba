// Package services – StatsService.
//
// This file implements the cache resolution service: the Obtain entry point
// that serves a statistic from the cache when it is fresh and recomputes it
// through the injected AggregationProvider when it is missing, stale,
// invalidated, or force-flagged. Every recomputation attempt, success or
// failure, is recorded as an append-only RefreshLog row before the outcome
// is returned, and staleness is never hidden: callers always learn whether
// the document they received was fresh, stale, or absent.
//
// Concurrency: recomputations are serialized per cache key with
// singleflight, so concurrent readers hitting the same stale entry share one
// aggregation instead of stampeding the database. Hit counting is a single
// atomic UPDATE in the store.
package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sdiabate/pvstats/internal/domain"
	"github.com/sdiabate/pvstats/internal/repo"
)

// CacheStore is the persistence contract required by StatsService.
// Implementations are responsible for the cache entry table only.
type CacheStore interface {
	// Get fetches an entry by canonical cache key, or repo.ErrNotFound.
	Get(ctx context.Context, key string) (*domain.CacheEntry, error)

	// RecordHit atomically increments the hit counter and stamps the access time.
	RecordHit(ctx context.Context, entryID string, now time.Time) error

	// Upsert persists a successful recomputation: full data replacement,
	// refreshed TTL window, flags reset, version incremented.
	Upsert(ctx context.Context, et domain.EntityType, entityID string, st domain.StatisticType,
		data domain.Document, ttlMinutes int, durationMS int64, now time.Time) (*domain.CacheEntry, error)
}

// RefreshLogStore records recomputation attempts.
type RefreshLogStore interface {
	// Append inserts one audit row. Append failures must not mask the
	// refresh outcome, so implementations should only return storage errors.
	Append(ctx context.Context, lg *domain.RefreshLog) error
}

// AggregationProvider computes the statistic document for a scope. One
// routine exists per supported (entity type, statistic type) pair;
// unsupported pairs return ErrUnsupportedStatistic and missing entities
// ErrEntityNotFound.
type AggregationProvider interface {
	Aggregate(ctx context.Context, et domain.EntityType, entityID string, st domain.StatisticType) (domain.StatisticPayload, error)
}

// RefreshMode controls what Obtain does when the cached entry is not servable.
type RefreshMode int

const (
	// RefreshAuto recomputes synchronously on miss/stale (the default).
	RefreshAuto RefreshMode = iota
	// RefreshNever returns the entry as-is with an explicit freshness
	// marker; the caller decides whether stale data is acceptable.
	RefreshNever
	// RefreshForce recomputes even when the entry is fresh.
	RefreshForce
)

// Freshness qualifies the document in a Result so consumers can distinguish
// fresh data, stale-but-returned data, and no data at all.
type Freshness string

// Freshness values.
const (
	FreshnessFresh   Freshness = "fresh"
	FreshnessStale   Freshness = "stale"
	FreshnessMissing Freshness = "missing"
)

// Result is the outcome of one Obtain call.
type Result struct {
	// Data is the statistic document; nil when Freshness is missing.
	Data domain.Document
	// Freshness qualifies Data.
	Freshness Freshness
	// Entry is the backing cache entry; nil when Freshness is missing.
	Entry *domain.CacheEntry
	// Recomputed reports whether this call triggered an aggregation.
	Recomputed bool
}

// StatsService resolves statistics through the cache. All dependencies are
// injected so tests can substitute in-memory doubles.
type StatsService struct {
	Store    CacheStore
	Logs     RefreshLogStore
	Provider AggregationProvider

	// TTLMinutes is the validity window applied to recomputed entries.
	TTLMinutes int

	group singleflight.Group
	now   func() time.Time
}

// NewStatsService constructs a StatsService with the default TTL.
func NewStatsService(store CacheStore, logs RefreshLogStore, provider AggregationProvider) *StatsService {
	return &StatsService{
		Store:      store,
		Logs:       logs,
		Provider:   provider,
		TTLMinutes: 60,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Obtain resolves the statistic for (et, entityID, st).
//
// Semantics:
//   - A valid, unexpired, unflagged entry is a hit: the hit counter is
//     incremented and the stored document returned unchanged.
//   - Otherwise, with RefreshAuto (or always with RefreshForce) the
//     statistic is recomputed synchronously, persisted at version+1, audited
//     as SUCCESS, and returned fresh.
//   - With RefreshNever nothing is recomputed: a stale/invalid entry is
//     returned marked stale, an absent one marked missing.
//
// Errors: ErrInvalidScope for an empty id; ErrEntityNotFound,
// ErrUnsupportedStatistic, or a *ComputationError when recomputation fails.
// A failed recomputation is audited as ERROR (or TIMEOUT) and propagated;
// stale data is never silently substituted for a failure.
func (s *StatsService) Obtain(ctx context.Context, et domain.EntityType, entityID string, st domain.StatisticType, mode RefreshMode) (*Result, error) {
	if entityID == "" {
		return nil, ErrInvalidScope
	}

	key := domain.CacheKey(et, entityID, st)
	now := s.now()

	entry, err := s.Store.Get(ctx, key)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	if entry != nil && entry.Servable(now) && mode != RefreshForce {
		if err := s.Store.RecordHit(ctx, entry.ID, now); err != nil {
			return nil, err
		}
		cacheHits.WithLabelValues(string(et), string(st)).Inc()
		return &Result{Data: entry.Data, Freshness: FreshnessFresh, Entry: entry}, nil
	}
	cacheMisses.WithLabelValues(string(et), string(st)).Inc()

	if mode == RefreshNever {
		if entry == nil {
			return &Result{Freshness: FreshnessMissing}, nil
		}
		return &Result{Data: entry.Data, Freshness: FreshnessStale, Entry: entry}, nil
	}

	return s.Recompute(ctx, et, entityID, st, "obtain")
}

// Recompute runs the aggregation for a scope and persists the result. The
// call is serialized per cache key: concurrent recomputes of the same key
// share a single aggregation and receive the same Result. triggeredBy is
// recorded in the audit log ("obtain", "scheduler", "api", "manual").
func (s *StatsService) Recompute(ctx context.Context, et domain.EntityType, entityID string, st domain.StatisticType, triggeredBy string) (*Result, error) {
	key := domain.CacheKey(et, entityID, st)
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.recomputeLocked(ctx, et, entityID, st, key, triggeredBy)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (s *StatsService) recomputeLocked(ctx context.Context, et domain.EntityType, entityID string, st domain.StatisticType, key, triggeredBy string) (*Result, error) {
	start := s.now()

	payload, err := s.Provider.Aggregate(ctx, et, entityID, st)
	durationMS := time.Since(start).Milliseconds()
	if err != nil {
		err = s.classify(key, err)
		s.audit(ctx, nil, et, entityID, st, key, refreshStatusFor(err), err.Error(), durationMS, triggeredBy)
		recomputeDuration.WithLabelValues(string(et), string(st), "error").
			Observe(float64(durationMS) / 1000)
		return nil, err
	}

	doc, err := domain.MarshalPayload(payload)
	if err != nil {
		err = &ComputationError{Scope: key, Err: err}
		s.audit(ctx, nil, et, entityID, st, key, domain.RefreshError, err.Error(), durationMS, triggeredBy)
		return nil, err
	}

	entry, err := s.Store.Upsert(ctx, et, entityID, st, doc, s.TTLMinutes, durationMS, s.now())
	if err != nil {
		err = &ComputationError{Scope: key, Err: err}
		s.audit(ctx, nil, et, entityID, st, key, domain.RefreshError, err.Error(), durationMS, triggeredBy)
		return nil, err
	}

	s.audit(ctx, &entry.ID, et, entityID, st, key, domain.RefreshSuccess, "", durationMS, triggeredBy)
	recomputeDuration.WithLabelValues(string(et), string(st), "success").
		Observe(float64(durationMS) / 1000)

	return &Result{Data: entry.Data, Freshness: FreshnessFresh, Entry: entry, Recomputed: true}, nil
}

// classify wraps unexpected aggregation failures as ComputationError while
// letting the routing/existence sentinels pass through unchanged.
func (s *StatsService) classify(key string, err error) error {
	if errors.Is(err, ErrEntityNotFound) || errors.Is(err, ErrUnsupportedStatistic) {
		return err
	}
	return &ComputationError{Scope: key, Err: err}
}

// refreshStatusFor maps an error to the audit outcome. Deadline and
// cancellation failures are recorded as TIMEOUT, everything else as ERROR.
func refreshStatusFor(err error) domain.RefreshStatus {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.RefreshTimeout
	}
	return domain.RefreshError
}

// audit appends a refresh log row. Audit storage failures are swallowed:
// they must not change the refresh outcome the caller sees.
func (s *StatsService) audit(ctx context.Context, entryID *string, et domain.EntityType, entityID string, st domain.StatisticType, key string, status domain.RefreshStatus, msg string, durationMS int64, triggeredBy string) {
	_ = s.Logs.Append(ctx, &domain.RefreshLog{
		CacheEntryID:  entryID,
		CacheKey:      key,
		EntityType:    et,
		EntityID:      entityID,
		StatisticType: st,
		Status:        status,
		Message:       msg,
		DurationMS:    durationMS,
		TriggeredBy:   triggeredBy,
	})
}
