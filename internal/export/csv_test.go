package export

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/sdiabate/pvstats/internal/domain"
)

func TestWriteSnapshotsCSV_HeaderRowsAndLocale(t *testing.T) {
	snaps := []domain.DailySnapshot{
		{
			Date:             "2025-10-25",
			TotalStations:    1200,
			TotalRegistered:  480000,
			TotalPVSubmitted: 900,
			TotalPVValidated: 750,
			SubmissionRate:   75,
			ValidationRate:   83.33,
			TotalVoters:      310000,
			TurnoutRate:      64.58,
			TotalIncidents:   42,
			ActiveIncidents:  7,
			ResolutionRate:   83.33,
		},
		{Date: "2025-10-26"},
	}

	var buf bytes.Buffer
	if err := WriteSnapshotsCSV(&buf, snaps, language.English); err != nil {
		t.Fatalf("WriteSnapshotsCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "date,total_stations,") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2025-10-25,1200,480000,900,750,75.00,83.33,310000,64.58,42,7,83.33") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "2025-10-26,0,") {
		t.Fatalf("unexpected zero-value row: %q", lines[2])
	}
}

func TestWriteSnapshotsCSV_FrenchDecimalComma(t *testing.T) {
	snaps := []domain.DailySnapshot{{Date: "2025-10-25", TurnoutRate: 64.58}}

	var buf bytes.Buffer
	if err := WriteSnapshotsCSV(&buf, snaps, language.French); err != nil {
		t.Fatalf("WriteSnapshotsCSV: %v", err)
	}

	// The French printer renders the decimal separator as a comma; the csv
	// writer must then quote the field.
	if !strings.Contains(buf.String(), `"64,58"`) {
		t.Fatalf("expected quoted French decimal, got %q", buf.String())
	}
}

func TestWriteSnapshotsCSV_EmptyInputStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSnapshotsCSV(&buf, nil, language.English); err != nil {
		t.Fatalf("WriteSnapshotsCSV: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(got, "date,") || strings.Contains(got, "\n") {
		t.Fatalf("expected a lone header line, got %q", got)
	}
}
