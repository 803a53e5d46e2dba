// Package repo – daily snapshot repository.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdiabate/pvstats/internal/domain"
)

// UpsertDailySnapshot writes the snapshot for snap.Date. A row already
// existing for that date is overwritten in full (last write wins); other
// dates are untouched, so a failed run can never corrupt a prior day. The
// persisted row is returned.
func UpsertDailySnapshot(ctx context.Context, db *gorm.DB, snap *domain.DailySnapshot) (*domain.DailySnapshot, error) {
	var out domain.DailySnapshot
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.DailySnapshot
		err := tx.Where("date = ?", snap.Date).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = *snap
			if out.ID == "" {
				out.ID = uuid.NewString()
			}
			return tx.Create(&out).Error
		case err != nil:
			return err
		}

		res := tx.Model(&domain.DailySnapshot{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"total_stations":     snap.TotalStations,
				"total_registered":   snap.TotalRegistered,
				"total_pv_submitted": snap.TotalPVSubmitted,
				"total_pv_validated": snap.TotalPVValidated,
				"submission_rate":    snap.SubmissionRate,
				"validation_rate":    snap.ValidationRate,
				"total_voters":       snap.TotalVoters,
				"turnout_rate":       snap.TurnoutRate,
				"total_incidents":    snap.TotalIncidents,
				"active_incidents":   snap.ActiveIncidents,
				"resolution_rate":    snap.ResolutionRate,
				"top_candidates":     snap.TopCandidates,
				"region_details":     snap.RegionDetails,
			})
		if res.Error != nil {
			return res.Error
		}
		return tx.Where("id = ?", existing.ID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDailySnapshot fetches the snapshot for one calendar date (YYYY-MM-DD).
func GetDailySnapshot(ctx context.Context, db *gorm.DB, date string) (*domain.DailySnapshot, error) {
	var s domain.DailySnapshot
	if err := db.WithContext(ctx).Where("date = ?", date).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListDailySnapshots returns snapshots within [from, to] inclusive, ordered
// by date ascending for trend rendering. Empty bounds are open-ended.
func ListDailySnapshots(ctx context.Context, db *gorm.DB, from, to string) ([]domain.DailySnapshot, error) {
	q := db.WithContext(ctx).Model(&domain.DailySnapshot{})
	if from != "" {
		q = q.Where("date >= ?", from)
	}
	if to != "" {
		q = q.Where("date <= ?", to)
	}
	var snaps []domain.DailySnapshot
	err := q.Order("date ASC").Find(&snaps).Error
	return snaps, err
}
