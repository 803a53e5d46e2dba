// Package domain – daily snapshots.
package domain

import "time"

// SnapshotDateFormat is the calendar-date layout used as the snapshot key.
const SnapshotDateFormat = "2006-01-02"

// DailySnapshot is the once-a-day durable rollup of national aggregates,
// kept for trend analysis independently of the TTL cache. One row exists per
// calendar date; recomputing the same day overwrites the row (last write
// wins), any other date is immutable.
type DailySnapshot struct {
	ID   string `json:"id" gorm:"type:char(36);primaryKey"`
	Date string `json:"date" gorm:"type:char(10);not null;uniqueIndex"`

	TotalStations   int64 `json:"total_stations" gorm:"not null;default:0"`
	TotalRegistered int64 `json:"total_registered" gorm:"not null;default:0"`

	TotalPVSubmitted int64   `json:"total_pv_submitted" gorm:"not null;default:0"`
	TotalPVValidated int64   `json:"total_pv_validated" gorm:"not null;default:0"`
	SubmissionRate   float64 `json:"submission_rate" gorm:"not null;default:0"`
	ValidationRate   float64 `json:"validation_rate" gorm:"not null;default:0"`

	TotalVoters int64   `json:"total_voters" gorm:"not null;default:0"`
	TurnoutRate float64 `json:"turnout_rate" gorm:"not null;default:0"`

	TotalIncidents  int64   `json:"total_incidents" gorm:"not null;default:0"`
	ActiveIncidents int64   `json:"active_incidents" gorm:"not null;default:0"`
	ResolutionRate  float64 `json:"resolution_rate" gorm:"not null;default:0"`

	// TopCandidates is the national top-3 as a JSON list of CandidateScore.
	TopCandidates Document `json:"top_candidates" gorm:"type:text"`
	// RegionDetails is the per-region breakdown as a JSON list.
	RegionDetails Document `json:"region_details" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for DailySnapshot.
func (DailySnapshot) TableName() string { return "daily_snapshots" }

// RegionDetail is one region's line in a snapshot's per-region breakdown.
type RegionDetail struct {
	RegionID       string  `json:"region_id"`
	RegionName     string  `json:"region_name"`
	TotalStations  int64   `json:"total_stations"`
	PVValidated    int64   `json:"pv_validated"`
	SubmissionRate float64 `json:"submission_rate"`
	TurnoutRate    float64 `json:"turnout_rate"`
	TotalIncidents int64   `json:"total_incidents"`
}
