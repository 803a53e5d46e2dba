// Package scheduler runs the periodic cache maintenance loops: the
// expired-entry refresh sweep, the dead-entry cleanup, and the daily
// snapshot recorder. Each loop runs on its own ticker and all of them stop
// together when the context is cancelled, so the caller can tie the
// scheduler's lifetime to server shutdown.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sdiabate/pvstats/internal/config"
	"github.com/sdiabate/pvstats/internal/domain"
	"github.com/sdiabate/pvstats/internal/services"
)

// Scheduler drives the maintenance services on fixed intervals. The
// operation funcs are fields so tests can substitute doubles without a
// database.
type Scheduler struct {
	cfg config.SchedulerConfig

	refresh  func(ctx context.Context) (services.RefreshSummary, error)
	cleanup  func(ctx context.Context) (int64, error)
	snapshot func(ctx context.Context) (*domain.DailySnapshot, error)
}

// New wires a Scheduler to the refresh and snapshot services using the
// configured batch limit and retention.
func New(cfg config.SchedulerConfig, refresh *services.RefreshService, snapshot *services.SnapshotService) *Scheduler {
	return &Scheduler{
		cfg: cfg,
		refresh: func(ctx context.Context) (services.RefreshSummary, error) {
			return refresh.RefreshAllExpired(ctx, cfg.RefreshBatch)
		},
		cleanup: func(ctx context.Context) (int64, error) {
			return refresh.CleanupExpired(ctx, cfg.RetentionDays)
		},
		snapshot: snapshot.CreateTodaySnapshot,
	}
}

// Run starts the three maintenance loops and blocks until ctx is cancelled
// and every loop has drained. Each loop fires once shortly after start so a
// freshly booted instance repairs its cache without waiting a full interval.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		s.loop(ctx, "refresh", s.cfg.RefreshInterval, s.runRefresh)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, "cleanup", s.cfg.CleanupInterval, s.runCleanup)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, "snapshot", s.cfg.SnapshotInterval, s.runSnapshot)
	}()

	wg.Wait()
}

// loop fires task immediately, then on every interval tick, until ctx ends.
func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, task func(ctx context.Context)) {
	log.Info().
		Str("loop", name).
		Dur("interval", interval).
		Msg("scheduler loop started")

	task(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("loop", name).Msg("scheduler loop stopped")
			return
		case <-ticker.C:
			task(ctx)
		}
	}
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	start := time.Now()
	summary, err := s.refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Msg("refresh sweep failed")
		return
	}
	log.Info().
		Int64("due", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("took", time.Since(start)).
		Msg("refresh sweep finished")
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	deleted, err := s.cleanup(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Msg("cache cleanup failed")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("cache cleanup finished")
	}
}

func (s *Scheduler) runSnapshot(ctx context.Context) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Msg("daily snapshot failed")
		return
	}
	log.Info().Str("date", snap.Date).Msg("daily snapshot recorded")
}
