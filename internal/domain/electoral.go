// Package domain – electoral records.
//
// These tables hold the raw polling-station, procès-verbal (PV), and incident
// rows the aggregation queries roll up. They are written by the upstream
// collection system; this service only reads them. Scope ids (region,
// department, ...) are denormalized onto stations and PVs so rollups filter
// on a single column instead of walking the six-level geographic hierarchy.
package domain

import "time"

// PV lifecycle statuses.
const (
	PVStatusPending    = "PENDING"
	PVStatusValidated  = "VALIDATED"
	PVStatusRejected   = "REJECTED"
	PVStatusCorrection = "CORRECTION"
)

// Incident lifecycle statuses.
const (
	IncidentOpen       = "OPEN"
	IncidentInProgress = "IN_PROGRESS"
	IncidentProcessed  = "PROCESSED"
	IncidentClosed     = "CLOSED"
)

// Incident priorities.
const (
	PriorityLow      = "LOW"
	PriorityMedium   = "MEDIUM"
	PriorityHigh     = "HIGH"
	PriorityUrgent   = "URGENT"
	PriorityCritical = "CRITICAL"
)

// Region is the top level of the geographic hierarchy.
type Region struct {
	ID        string    `json:"id" gorm:"type:char(36);primaryKey"`
	Code      string    `json:"code" gorm:"type:varchar(10);not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Region.
func (Region) TableName() string { return "regions" }

// Department belongs to a region.
type Department struct {
	ID       string `json:"id" gorm:"type:char(36);primaryKey"`
	RegionID string `json:"region_id" gorm:"type:char(36);not null;index"`
	Code     string `json:"code" gorm:"type:varchar(10);not null;uniqueIndex"`
	Name     string `json:"name" gorm:"type:varchar(100);not null"`
}

// TableName returns the database table name for Department.
func (Department) TableName() string { return "departments" }

// Commune belongs to a department.
type Commune struct {
	ID           string `json:"id" gorm:"type:char(36);primaryKey"`
	DepartmentID string `json:"department_id" gorm:"type:char(36);not null;index"`
	Code         string `json:"code" gorm:"type:varchar(10);not null;uniqueIndex"`
	Name         string `json:"name" gorm:"type:varchar(100);not null"`
}

// TableName returns the database table name for Commune.
func (Commune) TableName() string { return "communes" }

// SubPrefecture belongs to a commune.
type SubPrefecture struct {
	ID        string `json:"id" gorm:"type:char(36);primaryKey"`
	CommuneID string `json:"commune_id" gorm:"type:char(36);not null;index"`
	Code      string `json:"code" gorm:"type:varchar(10);not null;uniqueIndex"`
	Name      string `json:"name" gorm:"type:varchar(100);not null"`
}

// TableName returns the database table name for SubPrefecture.
func (SubPrefecture) TableName() string { return "sub_prefectures" }

// PollingPlace groups stations within a sub-prefecture (a school, a town
// hall, ...).
type PollingPlace struct {
	ID              string `json:"id" gorm:"type:char(36);primaryKey"`
	SubPrefectureID string `json:"sub_prefecture_id" gorm:"type:char(36);not null;index"`
	Name            string `json:"name" gorm:"type:varchar(150);not null"`
}

// TableName returns the database table name for PollingPlace.
func (PollingPlace) TableName() string { return "polling_places" }

// PollingStation is a single voting bureau. The full geographic scope is
// denormalized so every rollup level filters on one indexed column.
type PollingStation struct {
	ID   string `json:"id" gorm:"type:char(36);primaryKey"`
	Code string `json:"code" gorm:"type:varchar(20);not null;uniqueIndex"`

	PollingPlaceID  string `json:"polling_place_id"  gorm:"type:char(36);not null;index"`
	SubPrefectureID string `json:"sub_prefecture_id" gorm:"type:char(36);not null;index"`
	CommuneID       string `json:"commune_id"        gorm:"type:char(36);not null;index"`
	DepartmentID    string `json:"department_id"     gorm:"type:char(36);not null;index"`
	RegionID        string `json:"region_id"         gorm:"type:char(36);not null;index"`

	RegisteredVoters int64 `json:"registered_voters" gorm:"not null;default:0"`
	IsActive         bool  `json:"is_active" gorm:"not null;default:true"`
}

// TableName returns the database table name for PollingStation.
func (PollingStation) TableName() string { return "polling_stations" }

// Candidate is one name on the ballot.
type Candidate struct {
	ID          string `json:"id" gorm:"type:char(36);primaryKey"`
	FullName    string `json:"full_name" gorm:"type:varchar(200);not null"`
	Party       string `json:"party" gorm:"type:varchar(200);not null"`
	BallotOrder int    `json:"ballot_order" gorm:"not null"`
	IsActive    bool   `json:"is_active" gorm:"not null;default:true"`
}

// TableName returns the database table name for Candidate.
func (Candidate) TableName() string { return "candidates" }

// PVRecord is one submitted procès-verbal: the ballot counts reported for a
// polling station, with its validation lifecycle.
type PVRecord struct {
	ID        string `json:"id" gorm:"type:char(36);primaryKey"`
	Reference string `json:"reference" gorm:"type:varchar(50);not null;uniqueIndex"`

	PollingStationID string `json:"polling_station_id" gorm:"type:char(36);not null;index"`
	DepartmentID     string `json:"department_id"      gorm:"type:char(36);not null;index"`
	RegionID         string `json:"region_id"          gorm:"type:char(36);not null;index"`

	SupervisorID string `json:"supervisor_id" gorm:"type:varchar(64);not null;index"`

	Registered   int64 `json:"registered" gorm:"not null"`
	Voters       int64 `json:"voters" gorm:"not null"`
	Expressed    int64 `json:"expressed" gorm:"not null"`
	NullBallots  int64 `json:"null_ballots" gorm:"not null"`
	BlankBallots int64 `json:"blank_ballots" gorm:"not null"`

	Status      string     `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	SubmittedAt time.Time  `json:"submitted_at" gorm:"index"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	ValidatorID string     `json:"validator_id,omitempty" gorm:"type:varchar(64)"`
}

// TableName returns the database table name for PVRecord.
func (PVRecord) TableName() string { return "pv_records" }

// CandidateResult is one candidate's vote line on one PV.
type CandidateResult struct {
	ID          string `json:"id" gorm:"type:char(36);primaryKey"`
	PVRecordID  string `json:"pv_record_id" gorm:"type:char(36);not null;index:idx_result_pv_candidate,priority:1"`
	CandidateID string `json:"candidate_id" gorm:"type:char(36);not null;index:idx_result_pv_candidate,priority:2"`
	Votes       int64  `json:"votes" gorm:"not null"`
}

// TableName returns the database table name for CandidateResult.
func (CandidateResult) TableName() string { return "candidate_results" }

// Incident is a reported issue at a polling station.
type Incident struct {
	ID string `json:"id" gorm:"type:char(36);primaryKey"`

	PollingStationID string `json:"polling_station_id" gorm:"type:char(36);not null;index"`
	DepartmentID     string `json:"department_id"      gorm:"type:char(36);not null;index"`
	RegionID         string `json:"region_id"          gorm:"type:char(36);not null;index"`

	ReporterID string `json:"reporter_id" gorm:"type:varchar(64);not null;index"`

	Status   string `json:"status" gorm:"type:varchar(20);not null;default:'OPEN';index"`
	Priority string `json:"priority" gorm:"type:varchar(20);not null;default:'MEDIUM'"`

	ReportedAt time.Time  `json:"reported_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// TableName returns the database table name for Incident.
func (Incident) TableName() string { return "incidents" }
