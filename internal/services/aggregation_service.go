// Package services – AggregationService.
//
// This file implements the AggregationProvider over the electoral tables.
// Each supported (entity type, statistic type) pair routes to exactly one
// routine; anything else fails fast with ErrUnsupportedStatistic rather than
// returning a silently empty document. Entity existence is verified before
// aggregating so a vanished region surfaces as ErrEntityNotFound, not a
// zero-filled rollup.
//
// Scope support for PV-derived statistics follows the denormalized columns
// on pv_records and incidents: national, region, department, and single
// station. Station counts alone are available at every geographic level.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sdiabate/pvstats/internal/domain"
	"github.com/sdiabate/pvstats/internal/repo"
)

// AggregationService computes statistic payloads from the electoral tables.
type AggregationService struct {
	// DB is the GORM handle used for all aggregation queries.
	DB *gorm.DB

	// TopCandidates caps the candidate ranking in rollups.
	TopCandidates int
	// BestStations caps the per-candidate best-station list.
	BestStations int
	// TimelineWindow is how far back the hourly submission timeline reaches.
	TimelineWindow time.Duration

	now func() time.Time
}

// NewAggregationService constructs an AggregationService with the defaults
// used in production: top-3 candidates, top-10 stations, 24h timeline.
func NewAggregationService(db *gorm.DB) *AggregationService {
	return &AggregationService{
		DB:             db,
		TopCandidates:  3,
		BestStations:   10,
		TimelineWindow: 24 * time.Hour,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Aggregate routes the scope to its aggregation routine. It implements
// AggregationProvider.
func (a *AggregationService) Aggregate(ctx context.Context, et domain.EntityType, entityID string, st domain.StatisticType) (domain.StatisticPayload, error) {
	exists, err := repo.EntityExists(ctx, a.DB, et, entityID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s %q", ErrEntityNotFound, et, entityID)
	}

	switch st {
	case domain.StatGeneral:
		if et == domain.EntityPollingStation {
			return a.stationStats(ctx, entityID)
		}
		if col, ok := pvScopeColumn(et); ok {
			return a.generalStats(ctx, col, entityID)
		}
	case domain.StatPV:
		if col, ok := pvScopeColumn(et); ok {
			return a.pvStats(ctx, col, entityID)
		}
	case domain.StatParticipation:
		if col, ok := pvScopeColumn(et); ok {
			return a.participationStats(ctx, col, entityID)
		}
	case domain.StatIncidents:
		if col, ok := pvScopeColumn(et); ok || et == domain.EntityPollingStation {
			if et == domain.EntityPollingStation {
				col = "polling_station_id"
			}
			return a.incidentStats(ctx, col, entityID)
		}
	case domain.StatResults:
		if et == domain.EntityCandidate {
			return a.candidateStats(ctx, entityID)
		}
	case domain.StatPerformance:
		if et == domain.EntityUser {
			return a.performanceStats(ctx, entityID)
		}
	case domain.StatTimeline:
		if col, ok := pvScopeColumn(et); ok {
			return a.timelineStats(ctx, col, entityID)
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedStatistic, et, st)
}

// pvScopeColumn maps entity types to the scope columns denormalized onto
// pv_records and incidents. Only national, region, and department rollups
// are supported for PV-derived figures; finer levels would need joins the
// write path does not maintain.
func pvScopeColumn(et domain.EntityType) (string, bool) {
	switch et {
	case domain.EntityNational:
		return "", true
	case domain.EntityRegion:
		return "region_id", true
	case domain.EntityDepartment:
		return "department_id", true
	default:
		return "", false
	}
}

// generalStats assembles the full rollup for a geographic scope.
func (a *AggregationService) generalStats(ctx context.Context, col, id string) (domain.StatisticPayload, error) {
	stations, err := repo.CountStations(ctx, a.DB, col, id)
	if err != nil {
		return nil, err
	}
	pvCounts, err := repo.PVStatusCounts(ctx, a.DB, col, id)
	if err != nil {
		return nil, err
	}
	part, err := repo.SumParticipation(ctx, a.DB, col, id)
	if err != nil {
		return nil, err
	}
	incidents, err := repo.CountIncidents(ctx, a.DB, col, id)
	if err != nil {
		return nil, err
	}
	top, err := repo.TopCandidates(ctx, a.DB, col, id, a.TopCandidates)
	if err != nil {
		return nil, err
	}

	totalPV := pvCounts[domain.PVStatusPending] + pvCounts[domain.PVStatusValidated] +
		pvCounts[domain.PVStatusRejected] + pvCounts[domain.PVStatusCorrection]

	var avg float64
	if stations.Total > 0 {
		avg = float64(stations.Registered) / float64(stations.Total)
	}

	return domain.GeneralStats{
		TotalStations:      stations.Total,
		TotalRegistered:    stations.Registered,
		AvgRegisteredPerBV: avg,

		TotalPV:        totalPV,
		PVValidated:    pvCounts[domain.PVStatusValidated],
		PVPending:      pvCounts[domain.PVStatusPending],
		PVRejected:     pvCounts[domain.PVStatusRejected],
		PVCorrection:   pvCounts[domain.PVStatusCorrection],
		SubmissionRate: domain.Rate(totalPV, stations.Total),
		ValidationRate: domain.Rate(pvCounts[domain.PVStatusValidated], totalPV),

		TotalVoters:    part.Voters,
		TotalExpressed: part.Expressed,
		NullBallots:    part.NullBallots,
		BlankBallots:   part.BlankBallots,
		TurnoutRate:    domain.Rate(part.Voters, stations.Registered),
		NullRate:       domain.Rate(part.NullBallots, part.Voters),

		Incidents:     incidents,
		TopCandidates: top,
	}, nil
}

// pvStats assembles the PV pipeline breakdown for a scope.
func (a *AggregationService) pvStats(ctx context.Context, col, id string) (domain.StatisticPayload, error) {
	stations, err := repo.CountStations(ctx, a.DB, col, id)
	if err != nil {
		return nil, err
	}
	counts, err := repo.PVStatusCounts(ctx, a.DB, col, id)
	if err != nil {
		return nil, err
	}
	total := counts[domain.PVStatusPending] + counts[domain.PVStatusValidated] +
		counts[domain.PVStatusRejected] + counts[domain.PVStatusCorrection]
	return domain.PVStats{
		Total:          total,
		Validated:      counts[domain.PVStatusValidated],
		Pending:        counts[domain.PVStatusPending],
		Rejected:       counts[domain.PVStatusRejected],
		Correction:     counts[domain.PVStatusCorrection],
		SubmissionRate: domain.Rate(total, stations.Total),
		ValidationRate: domain.Rate(counts[domain.PVStatusValidated], total),
	}, nil
}

// participationStats sums ballots over validated PVs in a scope.
func (a *AggregationService) participationStats(ctx context.Context, col, id string) (domain.StatisticPayload, error) {
	part, err := repo.SumParticipation(ctx, a.DB, col, id)
	if err != nil {
		return nil, err
	}
	return domain.ParticipationStats{
		Registered:   part.Registered,
		Voters:       part.Voters,
		Expressed:    part.Expressed,
		NullBallots:  part.NullBallots,
		BlankBallots: part.BlankBallots,
		TurnoutRate:  domain.Rate(part.Voters, part.Registered),
		NullRate:     domain.Rate(part.NullBallots, part.Voters),
		BlankRate:    domain.Rate(part.BlankBallots, part.Voters),
	}, nil
}

// incidentStats returns the incident breakdown for a scope.
func (a *AggregationService) incidentStats(ctx context.Context, col, id string) (domain.StatisticPayload, error) {
	b, err := repo.CountIncidents(ctx, a.DB, col, id)
	if err != nil {
		return nil, err
	}
	return domain.IncidentStats{IncidentBreakdown: b}, nil
}

// candidateStats aggregates one candidate's national results.
func (a *AggregationService) candidateStats(ctx context.Context, candidateID string) (domain.StatisticPayload, error) {
	totals, err := repo.SumCandidateVotes(ctx, a.DB, candidateID)
	if err != nil {
		return nil, err
	}
	allVotes, err := repo.SumAllVotes(ctx, a.DB)
	if err != nil {
		return nil, err
	}
	byRegion, err := repo.CandidateVotesByRegion(ctx, a.DB, candidateID)
	if err != nil {
		return nil, err
	}
	best, err := repo.CandidateBestStations(ctx, a.DB, candidateID, a.BestStations)
	if err != nil {
		return nil, err
	}

	var avg float64
	if totals.Stations > 0 {
		avg = float64(totals.Votes) / float64(totals.Stations)
	}

	return domain.CandidateStats{
		TotalVotes:         totals.Votes,
		StationCount:       totals.Stations,
		NationalPercent:    domain.Rate(totals.Votes, allVotes),
		AvgVotesPerStation: avg,
		MinVotes:           totals.MinVotes,
		MaxVotes:           totals.MaxVotes,
		ByRegion:           byRegion,
		BestStations:       best,
	}, nil
}

// stationStats builds the detailed view of a single polling station.
func (a *AggregationService) stationStats(ctx context.Context, stationID string) (domain.StatisticPayload, error) {
	stations, err := repo.CountStations(ctx, a.DB, "polling_station_id", stationID)
	if err != nil {
		return nil, err
	}

	stats := domain.StationStats{Registered: stations.Registered}

	pv, err := repo.ValidatedPVForStation(ctx, a.DB, stationID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		// No validated PV yet; participation and results stay zero.
	case err != nil:
		return nil, err
	default:
		stats.HasValidatedPV = true
		stats.PVID = pv.ID
		stats.PVStatus = pv.Status
		stats.Voters = pv.Voters
		stats.Expressed = pv.Expressed
		stats.NullBallots = pv.NullBallots
		stats.BlankBallots = pv.BlankBallots
		stats.TurnoutRate = domain.Rate(pv.Voters, pv.Registered)

		results, err := repo.ResultsForPV(ctx, a.DB, pv.ID, pv.Expressed)
		if err != nil {
			return nil, err
		}
		stats.Results = results
		if len(results) > 0 {
			stats.Winner = results[0].FullName
			stats.WinnerVotes = results[0].Votes
		}
	}

	incidents, err := repo.CountIncidents(ctx, a.DB, "polling_station_id", stationID)
	if err != nil {
		return nil, err
	}
	stats.TotalIncidents = incidents.Total
	stats.OpenIncidents = incidents.Open
	stats.CriticalIncidents = incidents.Urgent

	return stats, nil
}

// performanceStats summarizes a supervisor's activity.
func (a *AggregationService) performanceStats(ctx context.Context, userID string) (domain.StatisticPayload, error) {
	pvs, err := repo.CountSupervisorPVs(ctx, a.DB, userID)
	if err != nil {
		return nil, err
	}
	reported, critical, err := repo.CountReporterIncidents(ctx, a.DB, userID)
	if err != nil {
		return nil, err
	}
	return domain.PerformanceStats{
		PVSubmitted:       pvs.Submitted,
		PVValidated:       pvs.Validated,
		PVRejected:        pvs.Rejected,
		ValidationRate:    domain.Rate(pvs.Validated, pvs.Submitted),
		IncidentsReported: reported,
		IncidentsCritical: critical,
	}, nil
}

// timelineStats buckets PV submissions per hour over the trailing window.
func (a *AggregationService) timelineStats(ctx context.Context, col, id string) (domain.StatisticPayload, error) {
	to := a.now()
	from := to.Add(-a.TimelineWindow)
	points, err := repo.HourlySubmissions(ctx, a.DB, col, id, from, to)
	if err != nil {
		return nil, err
	}

	stats := domain.TimelineStats{Points: points}
	for i, p := range points {
		stats.Total += p.Value
		if i == 0 || p.Value < stats.Minimum {
			stats.Minimum = p.Value
		}
		if p.Value > stats.Maximum {
			stats.Maximum = p.Value
		}
	}
	if len(points) > 0 {
		stats.Average = float64(stats.Total) / float64(len(points))
	}
	return stats, nil
}
