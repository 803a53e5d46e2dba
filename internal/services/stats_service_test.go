package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sdiabate/pvstats/internal/domain"
	"github.com/sdiabate/pvstats/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fakeProvider is an AggregationProvider double. Each call pops the next
// payload (the last one repeats); err wins over payloads when set. gate, when
// non-nil, blocks Aggregate until closed, with entered signalling entry.
type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	payloads []domain.StatisticPayload
	err      error

	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeProvider) Aggregate(ctx context.Context, et domain.EntityType, entityID string, st domain.StatisticType) (domain.StatisticPayload, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.payloads) == 0 {
		return domain.GeneralStats{}, nil
	}
	if n > len(f.payloads) {
		n = len(f.payloads)
	}
	return f.payloads[n-1], nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestStats(t *testing.T, db *gorm.DB, p AggregationProvider) *StatsService {
	t.Helper()
	return NewStatsService(GormCacheStore{DB: db}, GormRefreshLogStore{DB: db}, p)
}

func lastRefreshLog(t *testing.T, db *gorm.DB) domain.RefreshLog {
	t.Helper()
	logs, err := repo.ListRefreshLogsPage(context.Background(), db, 0, 1)
	if err != nil || len(logs) == 0 {
		t.Fatalf("no refresh log rows (err %v)", err)
	}
	return logs[0]
}

func TestObtain_EmptyIDReturnsInvalidScope(t *testing.T) {
	db := newServiceDB(t)
	svc := newTestStats(t, db, &fakeProvider{})

	_, err := svc.Obtain(context.Background(), domain.EntityRegion, "", domain.StatGeneral, RefreshAuto)
	if !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("err = %v, want ErrInvalidScope", err)
	}
	if n, _ := repo.CountRefreshLogs(context.Background(), db); n != 0 {
		t.Fatalf("scope validation must not reach the audit log, found %d rows", n)
	}
}

func TestObtain_MissComputesCachesAndAudits(t *testing.T) {
	db := newServiceDB(t)
	provider := &fakeProvider{payloads: []domain.StatisticPayload{
		domain.GeneralStats{TotalStations: 12},
	}}
	svc := newTestStats(t, db, provider)

	res, err := svc.Obtain(context.Background(), domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto)
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	if !res.Recomputed || res.Freshness != FreshnessFresh {
		t.Fatalf("miss result = {recomputed:%v freshness:%s}", res.Recomputed, res.Freshness)
	}
	if res.Entry.Version != 1 {
		t.Fatalf("version = %d, want 1", res.Entry.Version)
	}
	if res.Entry.HitCount != 0 {
		t.Fatalf("a recomputation is not a hit, hit_count = %d", res.Entry.HitCount)
	}
	if provider.callCount() != 1 {
		t.Fatalf("provider calls = %d, want 1", provider.callCount())
	}

	lg := lastRefreshLog(t, db)
	if lg.Status != domain.RefreshSuccess || lg.TriggeredBy != "obtain" {
		t.Fatalf("audit = {%s, %s}, want {SUCCESS, obtain}", lg.Status, lg.TriggeredBy)
	}
	if lg.CacheEntryID == nil || *lg.CacheEntryID != res.Entry.ID {
		t.Fatal("audit row not linked to the cache entry")
	}
}

func TestObtain_HitServesCacheAndCounts(t *testing.T) {
	db := newServiceDB(t)
	provider := &fakeProvider{payloads: []domain.StatisticPayload{
		domain.GeneralStats{TotalStations: 12},
	}}
	svc := newTestStats(t, db, provider)
	ctx := context.Background()

	if _, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto); err != nil {
		t.Fatalf("prime: %v", err)
	}

	res, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto)
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	if res.Recomputed {
		t.Fatal("fresh entry must be served without recomputation")
	}
	if provider.callCount() != 1 {
		t.Fatalf("provider calls = %d, want 1", provider.callCount())
	}

	entry, err := repo.GetCacheEntry(ctx, db, "region_r1_general")
	if err != nil {
		t.Fatalf("GetCacheEntry: %v", err)
	}
	if entry.HitCount != 1 {
		t.Fatalf("hit_count = %d, want 1", entry.HitCount)
	}
	if entry.LastAccessedAt == nil {
		t.Fatal("last_accessed_at not stamped")
	}
}

func TestObtain_TTLExpiryRecomputesNextVersion(t *testing.T) {
	db := newServiceDB(t)
	provider := &fakeProvider{payloads: []domain.StatisticPayload{
		domain.GeneralStats{TotalStations: 10},
		domain.GeneralStats{TotalStations: 12},
	}}
	svc := newTestStats(t, db, provider)
	ctx := context.Background()

	clock := time.Date(2025, 10, 25, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	first, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto)
	if err != nil {
		t.Fatalf("first Obtain: %v", err)
	}

	// Still inside the window: served from cache.
	clock = clock.Add(59 * time.Minute)
	mid, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto)
	if err != nil {
		t.Fatalf("mid Obtain: %v", err)
	}
	if mid.Recomputed {
		t.Fatal("entry recomputed before TTL elapsed")
	}

	// TTL boundary is inclusive: exactly 60 minutes later the entry is stale.
	clock = clock.Add(time.Minute)
	second, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto)
	if err != nil {
		t.Fatalf("second Obtain: %v", err)
	}
	if !second.Recomputed {
		t.Fatal("expired entry must be recomputed")
	}
	if second.Entry.Version != first.Entry.Version+1 {
		t.Fatalf("version = %d, want %d", second.Entry.Version, first.Entry.Version+1)
	}
	if string(second.Data) == string(first.Data) {
		t.Fatal("recomputation kept the old document")
	}
	if provider.callCount() != 2 {
		t.Fatalf("provider calls = %d, want 2", provider.callCount())
	}
}

func TestObtain_RefreshNeverReportsStaleAndMissing(t *testing.T) {
	db := newServiceDB(t)
	provider := &fakeProvider{payloads: []domain.StatisticPayload{
		domain.GeneralStats{TotalStations: 10},
	}}
	svc := newTestStats(t, db, provider)
	ctx := context.Background()

	res, err := svc.Obtain(ctx, domain.EntityRegion, "ghost", domain.StatGeneral, RefreshNever)
	if err != nil {
		t.Fatalf("missing Obtain: %v", err)
	}
	if res.Freshness != FreshnessMissing || res.Data != nil {
		t.Fatalf("absent entry = {%s, %v}, want {missing, nil}", res.Freshness, res.Data)
	}

	if _, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if _, err := repo.InvalidateEntry(ctx, db, domain.EntityRegion, "r1", domain.StatGeneral); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	res, err = svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshNever)
	if err != nil {
		t.Fatalf("stale Obtain: %v", err)
	}
	if res.Freshness != FreshnessStale || res.Data == nil || res.Recomputed {
		t.Fatalf("invalidated entry = {%s, recomputed:%v}", res.Freshness, res.Recomputed)
	}
	if provider.callCount() != 1 {
		t.Fatal("RefreshNever must never aggregate")
	}
}

func TestObtain_ForceRecomputesFreshEntry(t *testing.T) {
	db := newServiceDB(t)
	provider := &fakeProvider{payloads: []domain.StatisticPayload{
		domain.GeneralStats{TotalStations: 10},
		domain.GeneralStats{TotalStations: 11},
	}}
	svc := newTestStats(t, db, provider)
	ctx := context.Background()

	if _, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto); err != nil {
		t.Fatalf("prime: %v", err)
	}
	res, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshForce)
	if err != nil {
		t.Fatalf("forced Obtain: %v", err)
	}
	if !res.Recomputed || res.Entry.Version != 2 {
		t.Fatalf("forced result = {recomputed:%v version:%d}", res.Recomputed, res.Entry.Version)
	}
}

func TestObtain_ForceRefreshFlagTriggersRecompute(t *testing.T) {
	db := newServiceDB(t)
	provider := &fakeProvider{payloads: []domain.StatisticPayload{
		domain.GeneralStats{TotalStations: 10},
		domain.GeneralStats{TotalStations: 11},
	}}
	svc := newTestStats(t, db, provider)
	ctx := context.Background()

	if _, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if _, err := repo.InvalidateByPattern(ctx, db, "region_r1"); err != nil {
		t.Fatalf("flag: %v", err)
	}

	res, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto)
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	if !res.Recomputed {
		t.Fatal("force-flagged entry must recompute on next read")
	}
	if !res.Entry.IsValid || res.Entry.ForceRefresh {
		t.Fatalf("flags not cleared: valid=%v force=%v", res.Entry.IsValid, res.Entry.ForceRefresh)
	}
}

func TestObtain_FailurePropagatesAndNeverServesStale(t *testing.T) {
	db := newServiceDB(t)
	provider := &fakeProvider{payloads: []domain.StatisticPayload{
		domain.GeneralStats{TotalStations: 10},
	}}
	svc := newTestStats(t, db, provider)
	ctx := context.Background()

	if _, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if _, err := repo.InvalidateEntry(ctx, db, domain.EntityRegion, "r1", domain.StatGeneral); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	provider.err = errors.New("aggregation query failed")
	res, err := svc.Obtain(ctx, domain.EntityRegion, "r1", domain.StatGeneral, RefreshAuto)
	if err == nil {
		t.Fatalf("expected failure, got %+v", res)
	}
	if !IsComputationError(err) {
		t.Fatalf("err = %v, want *ComputationError", err)
	}

	lg := lastRefreshLog(t, db)
	if lg.Status != domain.RefreshError || lg.Message == "" {
		t.Fatalf("audit = {%s, %q}, want ERROR with message", lg.Status, lg.Message)
	}

	// The stale entry is untouched, not replaced or deleted.
	entry, err := repo.GetCacheEntry(ctx, db, "region_r1_general")
	if err != nil {
		t.Fatalf("GetCacheEntry: %v", err)
	}
	if entry.IsValid || entry.Version != 1 {
		t.Fatalf("failed refresh mutated the entry: valid=%v version=%d", entry.IsValid, entry.Version)
	}
}

func TestObtain_SentinelErrorsPassThrough(t *testing.T) {
	db := newServiceDB(t)
	provider := &fakeProvider{err: fmt.Errorf("%w: region %q", ErrEntityNotFound, "ghost")}
	svc := newTestStats(t, db, provider)

	_, err := svc.Obtain(context.Background(), domain.EntityRegion, "ghost", domain.StatGeneral, RefreshAuto)
	if !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("err = %v, want ErrEntityNotFound", err)
	}
	if IsComputationError(err) {
		t.Fatal("sentinel must not be wrapped as ComputationError")
	}

	provider.err = fmt.Errorf("%w: user/results", ErrUnsupportedStatistic)
	_, err = svc.Obtain(context.Background(), domain.EntityUser, "u1", domain.StatResults, RefreshAuto)
	if !errors.Is(err, ErrUnsupportedStatistic) {
		t.Fatalf("err = %v, want ErrUnsupportedStatistic", err)
	}
}

func TestRecompute_TimeoutAuditedAsTimeout(t *testing.T) {
	db := newServiceDB(t)
	provider := &fakeProvider{err: context.DeadlineExceeded}
	svc := newTestStats(t, db, provider)

	_, err := svc.Recompute(context.Background(), domain.EntityNational, "national", domain.StatGeneral, "scheduler")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	lg := lastRefreshLog(t, db)
	if lg.Status != domain.RefreshTimeout {
		t.Fatalf("audit status = %s, want TIMEOUT", lg.Status)
	}
	if lg.TriggeredBy != "scheduler" {
		t.Fatalf("triggered_by = %q, want scheduler", lg.TriggeredBy)
	}
}

func TestRecompute_ConcurrentCallsShareOneAggregation(t *testing.T) {
	db := newServiceDB(t)
	provider := &fakeProvider{
		payloads: []domain.StatisticPayload{domain.GeneralStats{TotalStations: 5}},
		gate:     make(chan struct{}),
		entered:  make(chan struct{}, 8),
	}
	svc := newTestStats(t, db, provider)
	ctx := context.Background()

	const readers = 5
	results := make(chan *Result, readers)
	errs := make(chan error, readers)

	go func() {
		res, err := svc.Recompute(ctx, domain.EntityRegion, "r1", domain.StatGeneral, "obtain")
		results <- res
		errs <- err
	}()
	<-provider.entered // the first aggregation is in flight

	var wg sync.WaitGroup
	for i := 1; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Recompute(ctx, domain.EntityRegion, "r1", domain.StatGeneral, "obtain")
			results <- res
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond) // let the late readers reach the flight group
	close(provider.gate)
	wg.Wait()

	for i := 0; i < readers; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("reader %d: %v", i, err)
		}
		if res := <-results; res.Entry.Version != 1 {
			t.Fatalf("reader %d saw version %d, want the shared first version", i, res.Entry.Version)
		}
	}
	if provider.callCount() != 1 {
		t.Fatalf("provider calls = %d, want exactly 1 shared aggregation", provider.callCount())
	}
}
