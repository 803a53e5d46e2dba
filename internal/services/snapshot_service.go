// Package services – SnapshotService.
//
// The daily snapshot is a durable once-a-day rollup of national figures for
// trend analysis. It bypasses the TTL cache entirely, so a broken cache can
// never contaminate the historical record, and upserts on today's calendar
// date, so rerunning the recorder within a day overwrites today and touches
// nothing else.
package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/sdiabate/pvstats/internal/domain"
	"github.com/sdiabate/pvstats/internal/repo"
)

// SnapshotService records and serves daily national snapshots.
type SnapshotService struct {
	// DB is the GORM handle used for aggregation and persistence.
	DB *gorm.DB

	// TopCandidates caps the snapshot's candidate ranking.
	TopCandidates int

	now func() time.Time
}

// NewSnapshotService constructs a SnapshotService with a top-3 ranking.
func NewSnapshotService(db *gorm.DB) *SnapshotService {
	return &SnapshotService{
		DB:            db,
		TopCandidates: 3,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateTodaySnapshot computes the national rollup and upserts it under
// today's date. Calling it again the same day overwrites that row (last
// write wins); prior days are immutable.
func (s *SnapshotService) CreateTodaySnapshot(ctx context.Context) (*domain.DailySnapshot, error) {
	now := s.now()

	stations, err := repo.CountStations(ctx, s.DB, "", "")
	if err != nil {
		return nil, err
	}
	pvCounts, err := repo.PVStatusCounts(ctx, s.DB, "", "")
	if err != nil {
		return nil, err
	}
	part, err := repo.SumParticipation(ctx, s.DB, "", "")
	if err != nil {
		return nil, err
	}
	incidents, err := repo.CountIncidents(ctx, s.DB, "", "")
	if err != nil {
		return nil, err
	}
	top, err := repo.TopCandidates(ctx, s.DB, "", "", s.TopCandidates)
	if err != nil {
		return nil, err
	}
	details, err := s.regionDetails(ctx)
	if err != nil {
		return nil, err
	}

	totalPV := pvCounts[domain.PVStatusPending] + pvCounts[domain.PVStatusValidated] +
		pvCounts[domain.PVStatusRejected] + pvCounts[domain.PVStatusCorrection]

	topDoc, err := json.Marshal(top)
	if err != nil {
		return nil, err
	}
	detailsDoc, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}

	snap := &domain.DailySnapshot{
		Date: now.Format(domain.SnapshotDateFormat),

		TotalStations:   stations.Total,
		TotalRegistered: stations.Registered,

		TotalPVSubmitted: totalPV,
		TotalPVValidated: pvCounts[domain.PVStatusValidated],
		SubmissionRate:   domain.Rate(totalPV, stations.Total),
		ValidationRate:   domain.Rate(pvCounts[domain.PVStatusValidated], totalPV),

		TotalVoters: part.Voters,
		TurnoutRate: domain.Rate(part.Voters, stations.Registered),

		TotalIncidents:  incidents.Total,
		ActiveIncidents: incidents.Open + incidents.InProgress,
		ResolutionRate:  incidents.ResolutionRate,

		TopCandidates: domain.Document(topDoc),
		RegionDetails: domain.Document(detailsDoc),
	}

	return repo.UpsertDailySnapshot(ctx, s.DB, snap)
}

// regionDetails builds the per-region breakdown for the snapshot.
func (s *SnapshotService) regionDetails(ctx context.Context) ([]domain.RegionDetail, error) {
	regions, err := repo.ListRegions(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	details := make([]domain.RegionDetail, 0, len(regions))
	for _, r := range regions {
		stations, err := repo.CountStations(ctx, s.DB, "region_id", r.ID)
		if err != nil {
			return nil, err
		}
		pvCounts, err := repo.PVStatusCounts(ctx, s.DB, "region_id", r.ID)
		if err != nil {
			return nil, err
		}
		part, err := repo.SumParticipation(ctx, s.DB, "region_id", r.ID)
		if err != nil {
			return nil, err
		}
		incidents, err := repo.CountIncidents(ctx, s.DB, "region_id", r.ID)
		if err != nil {
			return nil, err
		}

		totalPV := pvCounts[domain.PVStatusPending] + pvCounts[domain.PVStatusValidated] +
			pvCounts[domain.PVStatusRejected] + pvCounts[domain.PVStatusCorrection]

		details = append(details, domain.RegionDetail{
			RegionID:       r.ID,
			RegionName:     r.Name,
			TotalStations:  stations.Total,
			PVValidated:    pvCounts[domain.PVStatusValidated],
			SubmissionRate: domain.Rate(totalPV, stations.Total),
			TurnoutRate:    domain.Rate(part.Voters, stations.Registered),
			TotalIncidents: incidents.Total,
		})
	}
	return details, nil
}

// GetSnapshot fetches the snapshot for one calendar date (YYYY-MM-DD).
func (s *SnapshotService) GetSnapshot(ctx context.Context, date string) (*domain.DailySnapshot, error) {
	return repo.GetDailySnapshot(ctx, s.DB, date)
}

// ListSnapshots returns snapshots within [from, to], oldest first. Empty
// bounds are open-ended.
func (s *SnapshotService) ListSnapshots(ctx context.Context, from, to string) ([]domain.DailySnapshot, error) {
	return repo.ListDailySnapshots(ctx, s.DB, from, to)
}
