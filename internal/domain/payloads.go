// Package domain – statistic payload schemas.
//
// The cache stores one JSON document per entry; its shape depends on the
// entry's StatisticType. Rather than passing untyped maps around, each
// statistic family has an explicit struct here. The aggregation layer
// produces these, the cache serializes them into the Data column, and API
// consumers get a stable schema per statistic type.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Document is a raw JSON payload stored in a text column. It round-trips
// through GORM unchanged and marshals as-is into API responses.
type Document []byte

// Value implements driver.Valuer, storing the document as text.
func (d Document) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "{}", nil
	}
	return string(d), nil
}

// Scan implements sql.Scanner, accepting text or blob columns.
func (d *Document) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		*d = append((*d)[:0], v...)
		return nil
	case string:
		*d = Document(v)
		return nil
	default:
		return fmt.Errorf("domain: cannot scan %T into Document", src)
	}
}

// MarshalJSON emits the stored JSON verbatim ({} when empty).
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("{}"), nil
	}
	return d, nil
}

// UnmarshalJSON stores the raw JSON verbatim.
func (d *Document) UnmarshalJSON(data []byte) error {
	if d == nil {
		return errors.New("domain: UnmarshalJSON on nil Document")
	}
	*d = append((*d)[:0], data...)
	return nil
}

// StatisticPayload is implemented by every typed statistic document.
type StatisticPayload interface {
	// StatisticType reports which statistic family this payload belongs to.
	StatisticType() StatisticType
}

// MarshalPayload serializes a typed payload into a storable Document.
func MarshalPayload(p StatisticPayload) (Document, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return Document(b), nil
}

// CandidateScore is one candidate's summed vote total within a scope.
type CandidateScore struct {
	CandidateID string  `json:"candidate_id"`
	FullName    string  `json:"full_name"`
	Party       string  `json:"party"`
	Votes       int64   `json:"votes"`
	Percent     float64 `json:"percent"`
}

// IncidentBreakdown groups incident counts by lifecycle status.
type IncidentBreakdown struct {
	Total          int64   `json:"total"`
	Open           int64   `json:"open"`
	InProgress     int64   `json:"in_progress"`
	Processed      int64   `json:"processed"`
	Closed         int64   `json:"closed"`
	Urgent         int64   `json:"urgent"`
	ResolutionRate float64 `json:"resolution_rate"`
}

// GeneralStats is the full rollup for a geographic scope (national, region,
// department, ...): station counts, PV pipeline, participation, incidents,
// and the top three candidates by summed votes.
type GeneralStats struct {
	TotalStations      int64   `json:"total_stations"`
	TotalRegistered    int64   `json:"total_registered"`
	AvgRegisteredPerBV float64 `json:"avg_registered_per_station"`

	TotalPV        int64   `json:"total_pv"`
	PVValidated    int64   `json:"pv_validated"`
	PVPending      int64   `json:"pv_pending"`
	PVRejected     int64   `json:"pv_rejected"`
	PVCorrection   int64   `json:"pv_correction"`
	SubmissionRate float64 `json:"submission_rate"`
	ValidationRate float64 `json:"validation_rate"`

	TotalVoters    int64   `json:"total_voters"`
	TotalExpressed int64   `json:"total_expressed"`
	NullBallots    int64   `json:"null_ballots"`
	BlankBallots   int64   `json:"blank_ballots"`
	TurnoutRate    float64 `json:"turnout_rate"`
	NullRate       float64 `json:"null_rate"`

	Incidents IncidentBreakdown `json:"incidents"`

	TopCandidates []CandidateScore `json:"top_candidates"`
}

// StatisticType implements StatisticPayload.
func (GeneralStats) StatisticType() StatisticType { return StatGeneral }

// PVStats is the PV pipeline breakdown alone, without the surrounding rollup.
type PVStats struct {
	Total          int64   `json:"total"`
	Validated      int64   `json:"validated"`
	Pending        int64   `json:"pending"`
	Rejected       int64   `json:"rejected"`
	Correction     int64   `json:"correction"`
	SubmissionRate float64 `json:"submission_rate"`
	ValidationRate float64 `json:"validation_rate"`
}

// StatisticType implements StatisticPayload.
func (PVStats) StatisticType() StatisticType { return StatPV }

// ParticipationStats sums ballot counts over validated PVs in a scope.
type ParticipationStats struct {
	Registered   int64   `json:"registered"`
	Voters       int64   `json:"voters"`
	Expressed    int64   `json:"expressed"`
	NullBallots  int64   `json:"null_ballots"`
	BlankBallots int64   `json:"blank_ballots"`
	TurnoutRate  float64 `json:"turnout_rate"`
	NullRate     float64 `json:"null_rate"`
	BlankRate    float64 `json:"blank_rate"`
}

// StatisticType implements StatisticPayload.
func (ParticipationStats) StatisticType() StatisticType { return StatParticipation }

// IncidentStats is the incident breakdown for a scope.
type IncidentStats struct {
	IncidentBreakdown
}

// StatisticType implements StatisticPayload.
func (IncidentStats) StatisticType() StatisticType { return StatIncidents }

// RegionScore is a candidate's summed votes within one region.
type RegionScore struct {
	RegionID   string `json:"region_id"`
	RegionName string `json:"region_name"`
	Votes      int64  `json:"votes"`
}

// StationScore is a candidate's vote count in one polling station.
type StationScore struct {
	StationID   string `json:"station_id"`
	StationCode string `json:"station_code"`
	Votes       int64  `json:"votes"`
}

// CandidateStats aggregates one candidate's results: national totals,
// per-region breakdown, and the ten stations with the highest counts.
type CandidateStats struct {
	TotalVotes         int64   `json:"total_votes"`
	StationCount       int64   `json:"station_count"`
	NationalPercent    float64 `json:"national_percent"`
	AvgVotesPerStation float64 `json:"avg_votes_per_station"`
	MinVotes           int64   `json:"min_votes"`
	MaxVotes           int64   `json:"max_votes"`

	ByRegion     []RegionScore  `json:"by_region"`
	BestStations []StationScore `json:"best_stations"`
}

// StatisticType implements StatisticPayload.
func (CandidateStats) StatisticType() StatisticType { return StatResults }

// StationStats is the detailed view of a single polling station: its
// validated PV (if any), participation figures, full candidate results,
// and incident counts.
type StationStats struct {
	HasValidatedPV bool   `json:"has_validated_pv"`
	PVID           string `json:"pv_id,omitempty"`
	PVStatus       string `json:"pv_status,omitempty"`

	Registered   int64   `json:"registered"`
	Voters       int64   `json:"voters"`
	Expressed    int64   `json:"expressed"`
	NullBallots  int64   `json:"null_ballots"`
	BlankBallots int64   `json:"blank_ballots"`
	TurnoutRate  float64 `json:"turnout_rate"`

	Results     []CandidateScore `json:"results"`
	Winner      string           `json:"winner,omitempty"`
	WinnerVotes int64            `json:"winner_votes"`

	TotalIncidents    int64 `json:"total_incidents"`
	OpenIncidents     int64 `json:"open_incidents"`
	CriticalIncidents int64 `json:"critical_incidents"`
}

// StatisticType implements StatisticPayload. Station detail is served under
// the GENERAL statistic family, mirroring the geographic rollups.
func (StationStats) StatisticType() StatisticType { return StatGeneral }

// PerformanceStats summarizes one supervisor's activity.
type PerformanceStats struct {
	PVSubmitted       int64   `json:"pv_submitted"`
	PVValidated       int64   `json:"pv_validated"`
	PVRejected        int64   `json:"pv_rejected"`
	ValidationRate    float64 `json:"validation_rate"`
	IncidentsReported int64   `json:"incidents_reported"`
	IncidentsCritical int64   `json:"incidents_critical"`
}

// StatisticType implements StatisticPayload.
func (PerformanceStats) StatisticType() StatisticType { return StatPerformance }

// TimelinePoint is one bucket of a time series.
type TimelinePoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// TimelineStats is an hourly (or daily) series with summary figures.
type TimelineStats struct {
	Points  []TimelinePoint `json:"data_points"`
	Total   int64           `json:"total"`
	Average float64         `json:"average"`
	Minimum int64           `json:"minimum"`
	Maximum int64           `json:"maximum"`
}

// StatisticType implements StatisticPayload.
func (TimelineStats) StatisticType() StatisticType { return StatTimeline }

// Rate returns part/whole as a percentage rounded to two decimals, or 0 when
// the denominator is zero. Aggregations use it to avoid division-by-zero on
// empty scopes.
func Rate(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return roundRate(float64(part) / float64(whole) * 100)
}

func roundRate(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
