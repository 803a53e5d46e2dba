package repo

import (
	"context"
	"testing"
	"time"

	"github.com/sdiabate/pvstats/internal/domain"
)

func TestUpsertDailySnapshot_SameDayOverwrites(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	s1, err := UpsertDailySnapshot(ctx, db, &domain.DailySnapshot{
		Date:           "2025-10-25",
		TotalStations:  100,
		TotalVoters:    40000,
		TurnoutRate:    52.5,
		TopCandidates:  domain.Document(`[]`),
		RegionDetails:  domain.Document(`[]`),
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	s2, err := UpsertDailySnapshot(ctx, db, &domain.DailySnapshot{
		Date:           "2025-10-25",
		TotalStations:  100,
		TotalVoters:    45000,
		TurnoutRate:    58.1,
		TopCandidates:  domain.Document(`[{"candidate_id":"c1"}]`),
		RegionDetails:  domain.Document(`[]`),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if s2.ID != s1.ID {
		t.Fatalf("same-day upsert created a new row: %s != %s", s2.ID, s1.ID)
	}
	if s2.TotalVoters != 45000 || s2.TurnoutRate != 58.1 {
		t.Fatalf("fields not overwritten: voters=%d rate=%v", s2.TotalVoters, s2.TurnoutRate)
	}

	got, err := GetDailySnapshot(ctx, db, "2025-10-25")
	if err != nil {
		t.Fatalf("GetDailySnapshot: %v", err)
	}
	if string(got.TopCandidates) != `[{"candidate_id":"c1"}]` {
		t.Fatalf("top_candidates = %s", got.TopCandidates)
	}
}

func TestListDailySnapshots_RangeAndOrder(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	for _, d := range []string{"2025-10-27", "2025-10-25", "2025-10-26", "2025-10-30"} {
		if _, err := UpsertDailySnapshot(ctx, db, &domain.DailySnapshot{Date: d}); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}

	snaps, err := ListDailySnapshots(ctx, db, "2025-10-25", "2025-10-27")
	if err != nil {
		t.Fatalf("ListDailySnapshots: %v", err)
	}
	want := []string{"2025-10-25", "2025-10-26", "2025-10-27"}
	if len(snaps) != len(want) {
		t.Fatalf("got %d snapshots, want %d", len(snaps), len(want))
	}
	for i, s := range snaps {
		if s.Date != want[i] {
			t.Fatalf("snaps[%d].Date = %s, want %s", i, s.Date, want[i])
		}
	}

	all, err := ListDailySnapshots(ctx, db, "", "")
	if err != nil || len(all) != 4 {
		t.Fatalf("open-ended list = (%d, %v), want 4", len(all), err)
	}
}

func TestRefreshLogs_AppendAndPage(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	base := time.Date(2025, 10, 25, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		lg := &domain.RefreshLog{
			EntityType:    domain.EntityRegion,
			EntityID:      "r1",
			StatisticType: domain.StatGeneral,
			Status:        domain.RefreshSuccess,
			DurationMS:    int64(i),
			TriggeredBy:   "scheduler",
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		if err := AppendRefreshLog(ctx, db, lg); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if lg.ID == "" {
			t.Fatal("ID not assigned")
		}
	}

	n, err := CountRefreshLogs(ctx, db)
	if err != nil || n != 5 {
		t.Fatalf("CountRefreshLogs = (%d, %v), want 5", n, err)
	}

	page, err := ListRefreshLogsPage(ctx, db, 1, 2)
	if err != nil {
		t.Fatalf("ListRefreshLogsPage: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	// Newest first: offset 1 skips the 10:04 row.
	if page[0].DurationMS != 3 || page[1].DurationMS != 2 {
		t.Fatalf("page order = [%d, %d], want [3, 2]", page[0].DurationMS, page[1].DurationMS)
	}
}
