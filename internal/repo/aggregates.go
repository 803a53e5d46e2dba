// Package repo – aggregation queries.
//
// These are the read-only rollup queries the statistics service recomputes
// cache payloads from: scalar and grouped sums over polling stations, PV
// records, candidate results, and incidents, filtered to a geographic or
// entity scope.
//
// Scoping: stations and PVs carry denormalized scope ids (region_id,
// department_id, ...), so a rollup at any level is a single-column filter.
// The empty scope column means national (no filter). Each function takes the
// scope explicitly; routing a (entity, statistic) pair to the right scope
// column is the service layer's job.
package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/sdiabate/pvstats/internal/domain"
)

// ScopeColumn returns the polling-station/PV column that scopes queries for
// the given entity type, or ok=false when the type has no geographic scope
// column (CANDIDATE, USER). National scope is the empty column.
func ScopeColumn(et domain.EntityType) (col string, ok bool) {
	switch et {
	case domain.EntityNational:
		return "", true
	case domain.EntityRegion:
		return "region_id", true
	case domain.EntityDepartment:
		return "department_id", true
	case domain.EntityCommune:
		return "commune_id", true
	case domain.EntitySubPrefecture:
		return "sub_prefecture_id", true
	case domain.EntityPollingPlace:
		return "polling_place_id", true
	case domain.EntityPollingStation:
		return "polling_station_id", true
	default:
		return "", false
	}
}

// EntityExists verifies that the referenced entity row exists. NATIONAL and
// USER ids are accepted as-is: "national" is a literal scope, and users live
// in an external identity system that the cache only knows by opaque id.
func EntityExists(ctx context.Context, db *gorm.DB, et domain.EntityType, id string) (bool, error) {
	var model any
	switch et {
	case domain.EntityNational, domain.EntityUser:
		return true, nil
	case domain.EntityRegion:
		model = &domain.Region{}
	case domain.EntityDepartment:
		model = &domain.Department{}
	case domain.EntityCommune:
		model = &domain.Commune{}
	case domain.EntitySubPrefecture:
		model = &domain.SubPrefecture{}
	case domain.EntityPollingPlace:
		model = &domain.PollingPlace{}
	case domain.EntityPollingStation:
		model = &domain.PollingStation{}
	case domain.EntityCandidate:
		model = &domain.Candidate{}
	default:
		return false, fmt.Errorf("repo: unknown entity type %q", et)
	}
	var n int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// scoped applies the scope filter; the empty column is the national scope.
func scoped(q *gorm.DB, col, id string) *gorm.DB {
	if col == "" {
		return q
	}
	return q.Where(col+" = ?", id)
}

// StationCounts holds the station-level scalars of a rollup.
type StationCounts struct {
	Total      int64
	Registered int64
}

// CountStations returns the number of active polling stations in scope and
// their summed registered voters. The scope column is one of the
// polling_stations scope ids; stations are filtered by their own id when the
// column is polling_station_id.
func CountStations(ctx context.Context, db *gorm.DB, col, id string) (StationCounts, error) {
	var row struct {
		Total      int64
		Registered int64
	}
	q := db.WithContext(ctx).Model(&domain.PollingStation{}).Where("is_active = ?", true)
	if col == "polling_station_id" {
		q = q.Where("id = ?", id)
	} else {
		q = scoped(q, col, id)
	}
	err := q.Select("COUNT(*) AS total, COALESCE(SUM(registered_voters), 0) AS registered").
		Scan(&row).Error
	return StationCounts{Total: row.Total, Registered: row.Registered}, err
}

// PVStatusCounts returns PV counts in scope grouped by lifecycle status.
// Missing statuses are present with a zero count.
func PVStatusCounts(ctx context.Context, db *gorm.DB, col, id string) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := scoped(db.WithContext(ctx).Model(&domain.PVRecord{}), col, id).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := map[string]int64{
		domain.PVStatusPending:    0,
		domain.PVStatusValidated:  0,
		domain.PVStatusRejected:   0,
		domain.PVStatusCorrection: 0,
	}
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

// ParticipationSums holds ballot sums over validated PVs in a scope.
type ParticipationSums struct {
	Registered   int64
	Voters       int64
	Expressed    int64
	NullBallots  int64
	BlankBallots int64
}

// SumParticipation sums the ballot counts of validated PVs in scope.
func SumParticipation(ctx context.Context, db *gorm.DB, col, id string) (ParticipationSums, error) {
	var row ParticipationSums
	err := scoped(db.WithContext(ctx).Model(&domain.PVRecord{}), col, id).
		Where("status = ?", domain.PVStatusValidated).
		Select(`COALESCE(SUM(registered), 0) AS registered,
			COALESCE(SUM(voters), 0) AS voters,
			COALESCE(SUM(expressed), 0) AS expressed,
			COALESCE(SUM(null_ballots), 0) AS null_ballots,
			COALESCE(SUM(blank_ballots), 0) AS blank_ballots`).
		Scan(&row).Error
	return row, err
}

// CountIncidents returns the incident status breakdown for a scope. Urgent
// counts both URGENT and CRITICAL priorities; the resolution rate is the
// share of incidents processed or closed.
func CountIncidents(ctx context.Context, db *gorm.DB, col, id string) (domain.IncidentBreakdown, error) {
	var rows []struct {
		Status string
		N      int64
	}
	base := scoped(db.WithContext(ctx).Model(&domain.Incident{}), col, id)
	if err := base.Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return domain.IncidentBreakdown{}, err
	}

	var b domain.IncidentBreakdown
	for _, r := range rows {
		b.Total += r.N
		switch r.Status {
		case domain.IncidentOpen:
			b.Open = r.N
		case domain.IncidentInProgress:
			b.InProgress = r.N
		case domain.IncidentProcessed:
			b.Processed = r.N
		case domain.IncidentClosed:
			b.Closed = r.N
		}
	}

	urgent := scoped(db.WithContext(ctx).Model(&domain.Incident{}), col, id).
		Where("priority IN ?", []string{domain.PriorityUrgent, domain.PriorityCritical})
	if err := urgent.Count(&b.Urgent).Error; err != nil {
		return domain.IncidentBreakdown{}, err
	}

	b.ResolutionRate = domain.Rate(b.Processed+b.Closed, b.Total)
	return b, nil
}

// TopCandidates sums validated votes per candidate in scope and returns the
// best limit candidates, highest totals first. Percentages are relative to
// the scope's total expressed votes across all candidates.
func TopCandidates(ctx context.Context, db *gorm.DB, col, id string, limit int) ([]domain.CandidateScore, error) {
	if limit <= 0 {
		limit = 3
	}
	var rows []struct {
		CandidateID string
		FullName    string
		Party       string
		Votes       int64
	}
	err := scopedResults(db.WithContext(ctx), col, id).
		Select(`candidates.id AS candidate_id,
			candidates.full_name AS full_name,
			candidates.party AS party,
			COALESCE(SUM(candidate_results.votes), 0) AS votes`).
		Group("candidates.id, candidates.full_name, candidates.party").
		Order("votes DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var total int64
	for _, r := range rows {
		total += r.Votes
	}
	// Percentages against the full scope total, not just the top slice.
	if scopeTotal, err := sumScopeVotes(ctx, db, col, id); err == nil && scopeTotal > 0 {
		total = scopeTotal
	}

	scores := make([]domain.CandidateScore, 0, len(rows))
	for _, r := range rows {
		scores = append(scores, domain.CandidateScore{
			CandidateID: r.CandidateID,
			FullName:    r.FullName,
			Party:       r.Party,
			Votes:       r.Votes,
			Percent:     domain.Rate(r.Votes, total),
		})
	}
	return scores, nil
}

// scopedResults joins candidate_results → pv_records (validated only) →
// candidates, filtered to the scope.
func scopedResults(q *gorm.DB, col, id string) *gorm.DB {
	j := q.Model(&domain.CandidateResult{}).
		Joins("JOIN pv_records ON pv_records.id = candidate_results.pv_record_id").
		Joins("JOIN candidates ON candidates.id = candidate_results.candidate_id").
		Where("pv_records.status = ?", domain.PVStatusValidated)
	if col == "" {
		return j
	}
	if col == "polling_station_id" {
		return j.Where("pv_records.polling_station_id = ?", id)
	}
	return j.Where("pv_records."+col+" = ?", id)
}

// sumScopeVotes totals all validated votes in scope across candidates.
func sumScopeVotes(ctx context.Context, db *gorm.DB, col, id string) (int64, error) {
	var row struct{ Votes int64 }
	err := scopedResults(db.WithContext(ctx), col, id).
		Select("COALESCE(SUM(candidate_results.votes), 0) AS votes").
		Scan(&row).Error
	return row.Votes, err
}

// CandidateTotals holds one candidate's national scalars.
type CandidateTotals struct {
	Votes    int64
	Stations int64
	MinVotes int64
	MaxVotes int64
}

// SumCandidateVotes totals one candidate's validated votes nationally,
// with the number of distinct PVs counted and min/max per station.
func SumCandidateVotes(ctx context.Context, db *gorm.DB, candidateID string) (CandidateTotals, error) {
	var row struct {
		Votes    int64
		Stations int64
		MinVotes int64
		MaxVotes int64
	}
	err := db.WithContext(ctx).Model(&domain.CandidateResult{}).
		Joins("JOIN pv_records ON pv_records.id = candidate_results.pv_record_id").
		Where("candidate_results.candidate_id = ? AND pv_records.status = ?", candidateID, domain.PVStatusValidated).
		Select(`COALESCE(SUM(candidate_results.votes), 0) AS votes,
			COUNT(DISTINCT pv_records.id) AS stations,
			COALESCE(MIN(candidate_results.votes), 0) AS min_votes,
			COALESCE(MAX(candidate_results.votes), 0) AS max_votes`).
		Scan(&row).Error
	return CandidateTotals(row), err
}

// SumAllVotes totals validated votes nationally across every candidate.
func SumAllVotes(ctx context.Context, db *gorm.DB) (int64, error) {
	return sumScopeVotes(ctx, db, "", "")
}

// CandidateVotesByRegion breaks one candidate's validated votes down per
// region, highest first. Regions without votes are omitted.
func CandidateVotesByRegion(ctx context.Context, db *gorm.DB, candidateID string) ([]domain.RegionScore, error) {
	var rows []struct {
		RegionID   string
		RegionName string
		Votes      int64
	}
	err := db.WithContext(ctx).Model(&domain.CandidateResult{}).
		Joins("JOIN pv_records ON pv_records.id = candidate_results.pv_record_id").
		Joins("JOIN regions ON regions.id = pv_records.region_id").
		Where("candidate_results.candidate_id = ? AND pv_records.status = ?", candidateID, domain.PVStatusValidated).
		Select(`pv_records.region_id AS region_id,
			regions.name AS region_name,
			COALESCE(SUM(candidate_results.votes), 0) AS votes`).
		Group("pv_records.region_id, regions.name").
		Having("SUM(candidate_results.votes) > 0").
		Order("votes DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	scores := make([]domain.RegionScore, 0, len(rows))
	for _, r := range rows {
		scores = append(scores, domain.RegionScore(r))
	}
	return scores, nil
}

// CandidateBestStations returns the limit stations where the candidate's
// validated count is highest.
func CandidateBestStations(ctx context.Context, db *gorm.DB, candidateID string, limit int) ([]domain.StationScore, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []struct {
		StationID   string
		StationCode string
		Votes       int64
	}
	err := db.WithContext(ctx).Model(&domain.CandidateResult{}).
		Joins("JOIN pv_records ON pv_records.id = candidate_results.pv_record_id").
		Joins("JOIN polling_stations ON polling_stations.id = pv_records.polling_station_id").
		Where("candidate_results.candidate_id = ? AND pv_records.status = ?", candidateID, domain.PVStatusValidated).
		Select(`pv_records.polling_station_id AS station_id,
			polling_stations.code AS station_code,
			candidate_results.votes AS votes`).
		Order("candidate_results.votes DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	scores := make([]domain.StationScore, 0, len(rows))
	for _, r := range rows {
		scores = append(scores, domain.StationScore(r))
	}
	return scores, nil
}

// ValidatedPVForStation fetches the station's validated PV, or
// gorm.ErrRecordNotFound when none exists.
func ValidatedPVForStation(ctx context.Context, db *gorm.DB, stationID string) (*domain.PVRecord, error) {
	var pv domain.PVRecord
	err := db.WithContext(ctx).
		Where("polling_station_id = ? AND status = ?", stationID, domain.PVStatusValidated).
		Order("submitted_at DESC").
		First(&pv).Error
	if err != nil {
		return nil, err
	}
	return &pv, nil
}

// ResultsForPV lists a PV's candidate lines, highest votes first, with
// percentages relative to the PV's expressed votes.
func ResultsForPV(ctx context.Context, db *gorm.DB, pvID string, expressed int64) ([]domain.CandidateScore, error) {
	var rows []struct {
		CandidateID string
		FullName    string
		Party       string
		Votes       int64
	}
	err := db.WithContext(ctx).Model(&domain.CandidateResult{}).
		Joins("JOIN candidates ON candidates.id = candidate_results.candidate_id").
		Where("candidate_results.pv_record_id = ?", pvID).
		Select(`candidates.id AS candidate_id,
			candidates.full_name AS full_name,
			candidates.party AS party,
			candidate_results.votes AS votes`).
		Order("candidate_results.votes DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	scores := make([]domain.CandidateScore, 0, len(rows))
	for _, r := range rows {
		scores = append(scores, domain.CandidateScore{
			CandidateID: r.CandidateID,
			FullName:    r.FullName,
			Party:       r.Party,
			Votes:       r.Votes,
			Percent:     domain.Rate(r.Votes, expressed),
		})
	}
	return scores, nil
}

// SupervisorCounts holds one supervisor's PV pipeline counts.
type SupervisorCounts struct {
	Submitted int64
	Validated int64
	Rejected  int64
}

// CountSupervisorPVs counts a supervisor's submitted PVs by outcome.
func CountSupervisorPVs(ctx context.Context, db *gorm.DB, supervisorID string) (SupervisorCounts, error) {
	counts := SupervisorCounts{}
	var rows []struct {
		Status string
		N      int64
	}
	err := db.WithContext(ctx).Model(&domain.PVRecord{}).
		Where("supervisor_id = ?", supervisorID).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return counts, err
	}
	for _, r := range rows {
		counts.Submitted += r.N
		switch r.Status {
		case domain.PVStatusValidated:
			counts.Validated = r.N
		case domain.PVStatusRejected:
			counts.Rejected = r.N
		}
	}
	return counts, nil
}

// CountReporterIncidents counts incidents reported by a user, total and
// critical-priority.
func CountReporterIncidents(ctx context.Context, db *gorm.DB, reporterID string) (total, critical int64, err error) {
	q := db.WithContext(ctx).Model(&domain.Incident{}).Where("reporter_id = ?", reporterID)
	if err = q.Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = db.WithContext(ctx).Model(&domain.Incident{}).
		Where("reporter_id = ? AND priority = ?", reporterID, domain.PriorityCritical).
		Count(&critical).Error
	return total, critical, err
}

// ListRegions returns every region, ordered by code. The snapshot recorder
// iterates these to build the per-region breakdown.
func ListRegions(ctx context.Context, db *gorm.DB) ([]domain.Region, error) {
	var regions []domain.Region
	err := db.WithContext(ctx).Order("code ASC").Find(&regions).Error
	return regions, err
}

// HourlySubmissions buckets PV submissions in scope per hour over [from, to).
// Bucket labels are RFC 3339 timestamps truncated to the hour. Bucketing
// happens in Go so the query stays portable across datetime storage formats.
func HourlySubmissions(ctx context.Context, db *gorm.DB, col, id string, from, to time.Time) ([]domain.TimelinePoint, error) {
	if !from.Before(to) {
		return nil, errors.New("repo: timeline range is empty")
	}
	var rows []struct {
		SubmittedAt time.Time
	}
	err := scoped(db.WithContext(ctx).Model(&domain.PVRecord{}), col, id).
		Where("submitted_at >= ? AND submitted_at < ?", from, to).
		Select("submitted_at").
		Order("submitted_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[time.Time]int64, len(rows))
	for _, r := range rows {
		counts[r.SubmittedAt.UTC().Truncate(time.Hour)]++
	}
	buckets := make([]time.Time, 0, len(counts))
	for b := range counts {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Before(buckets[j]) })

	points := make([]domain.TimelinePoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, domain.TimelinePoint{Date: b.Format(time.RFC3339), Value: counts[b]})
	}
	return points, nil
}
