// Package repo – refresh audit log repository.
//
// Refresh logs are append-only: this file provides an insert and read-side
// pagination, nothing else. Retention is managed outside the application.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdiabate/pvstats/internal/domain"
)

// AppendRefreshLog inserts one refresh attempt record. The caller fills the
// scope and outcome fields; ID and CreatedAt are assigned here.
func AppendRefreshLog(ctx context.Context, db *gorm.DB, lg *domain.RefreshLog) error {
	if lg.ID == "" {
		lg.ID = uuid.NewString()
	}
	if lg.CreatedAt.IsZero() {
		lg.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(lg).Error
}

// CountRefreshLogs returns the total number of refresh log rows.
func CountRefreshLogs(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.RefreshLog{}).Count(&n).Error
	return n, err
}

// ListRefreshLogsPage returns one page of refresh logs, newest first.
func ListRefreshLogsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.RefreshLog, error) {
	var logs []domain.RefreshLog
	err := db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
