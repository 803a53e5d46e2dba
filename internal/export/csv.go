// Package export renders daily snapshots into downloadable report formats.
//
// The CSV layout is one row per snapshot date with the national rollup
// figures. Rates are rendered through a locale-aware printer so the export
// matches the conventions of its audience (decimal comma for French, the
// default for election commission reports).
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sdiabate/pvstats/internal/domain"
)

// csvHeader is the column order of the snapshot export.
var csvHeader = []string{
	"date",
	"total_stations",
	"total_registered",
	"total_pv_submitted",
	"total_pv_validated",
	"submission_rate",
	"validation_rate",
	"total_voters",
	"turnout_rate",
	"total_incidents",
	"active_incidents",
	"resolution_rate",
}

// WriteSnapshotsCSV writes the snapshots as CSV to w, one row per date, in
// the order given. Numeric rates are formatted with two decimals using the
// conventions of locale.
func WriteSnapshotsCSV(w io.Writer, snaps []domain.DailySnapshot, locale language.Tag) error {
	p := message.NewPrinter(locale)
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("export snapshots: %w", err)
	}
	for _, s := range snaps {
		row := []string{
			s.Date,
			fmt.Sprintf("%d", s.TotalStations),
			fmt.Sprintf("%d", s.TotalRegistered),
			fmt.Sprintf("%d", s.TotalPVSubmitted),
			fmt.Sprintf("%d", s.TotalPVValidated),
			p.Sprintf("%.2f", s.SubmissionRate),
			p.Sprintf("%.2f", s.ValidationRate),
			fmt.Sprintf("%d", s.TotalVoters),
			p.Sprintf("%.2f", s.TurnoutRate),
			fmt.Sprintf("%d", s.TotalIncidents),
			fmt.Sprintf("%d", s.ActiveIncidents),
			p.Sprintf("%.2f", s.ResolutionRate),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export snapshots: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export snapshots: %w", err)
	}
	return nil
}
