package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sdiabate/pvstats/internal/domain"
)

func TestCreateTodaySnapshot_NationalRollup(t *testing.T) {
	db := newServiceDB(t)
	seedElectoral(t, db)
	svc := NewSnapshotService(db)
	svc.now = func() time.Time { return fixtureT0 }

	snap, err := svc.CreateTodaySnapshot(context.Background())
	if err != nil {
		t.Fatalf("CreateTodaySnapshot: %v", err)
	}

	if snap.Date != "2025-10-25" {
		t.Fatalf("date = %s, want 2025-10-25", snap.Date)
	}
	if snap.TotalStations != 3 || snap.TotalRegistered != 1200 {
		t.Fatalf("stations = %d/%d, want 3/1200", snap.TotalStations, snap.TotalRegistered)
	}
	if snap.TotalPVSubmitted != 3 || snap.TotalPVValidated != 2 {
		t.Fatalf("pv = %d/%d, want 3/2", snap.TotalPVSubmitted, snap.TotalPVValidated)
	}
	if snap.TotalVoters != 700 {
		t.Fatalf("voters = %d, want 700 (validated PVs only)", snap.TotalVoters)
	}
	if snap.TurnoutRate != 58.33 {
		t.Fatalf("turnout = %v, want 58.33", snap.TurnoutRate)
	}
	if snap.TotalIncidents != 3 || snap.ActiveIncidents != 2 {
		t.Fatalf("incidents = %d/%d, want 3/2", snap.TotalIncidents, snap.ActiveIncidents)
	}

	var top []domain.CandidateScore
	if err := json.Unmarshal(snap.TopCandidates, &top); err != nil {
		t.Fatalf("top_candidates: %v", err)
	}
	if len(top) != 2 || top[0].CandidateID != "c2" || top[0].Votes != 370 {
		t.Fatalf("top candidates = %+v", top)
	}

	var details []domain.RegionDetail
	if err := json.Unmarshal(snap.RegionDetails, &details); err != nil {
		t.Fatalf("region_details: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("region details = %d, want 2", len(details))
	}
	// Regions come out in code order: Nord (01) before Sud (02).
	if details[0].RegionID != "r1" || details[0].PVValidated != 1 || details[0].TotalStations != 2 {
		t.Fatalf("r1 detail = %+v", details[0])
	}
	if details[1].RegionID != "r2" || details[1].TotalIncidents != 1 {
		t.Fatalf("r2 detail = %+v", details[1])
	}
}

func TestCreateTodaySnapshot_SameDayOverwrite(t *testing.T) {
	db := newServiceDB(t)
	seedElectoral(t, db)
	svc := NewSnapshotService(db)
	svc.now = func() time.Time { return fixtureT0 }
	ctx := context.Background()

	first, err := svc.CreateTodaySnapshot(ctx)
	if err != nil {
		t.Fatalf("first snapshot: %v", err)
	}

	// The pending PV gets validated during the day; rerunning the recorder
	// replaces today's row in place.
	if err := db.Model(&domain.PVRecord{}).Where("id = ?", "pv2").
		Update("status", domain.PVStatusValidated).Error; err != nil {
		t.Fatalf("validate pv2: %v", err)
	}

	second, err := svc.CreateTodaySnapshot(ctx)
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("same-day rerun created a new row: %s != %s", second.ID, first.ID)
	}
	if second.TotalPVValidated != 3 {
		t.Fatalf("validated = %d, want 3 after revalidation", second.TotalPVValidated)
	}
	if second.TotalVoters != 850 {
		t.Fatalf("voters = %d, want 850", second.TotalVoters)
	}

	snaps, err := svc.ListSnapshots(ctx, "", "")
	if err != nil || len(snaps) != 1 {
		t.Fatalf("snapshots = %d (err %v), want exactly 1", len(snaps), err)
	}
}

func TestGetSnapshot_ByDate(t *testing.T) {
	db := newServiceDB(t)
	seedElectoral(t, db)
	svc := NewSnapshotService(db)
	svc.now = func() time.Time { return fixtureT0 }
	ctx := context.Background()

	if _, err := svc.CreateTodaySnapshot(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}

	snap, err := svc.GetSnapshot(ctx, "2025-10-25")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snap.Date != "2025-10-25" {
		t.Fatalf("date = %s", snap.Date)
	}
	if _, err := svc.GetSnapshot(ctx, "1999-01-01"); err == nil {
		t.Fatal("expected error for unknown date")
	}
}
