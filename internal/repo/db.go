// Package repo implements the data persistence layer for the statistics
// cache, backed by GORM. This file contains database bootstrapping helpers
// for SQLite (pure Go driver) and schema migrations.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/sdiabate/pvstats/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for every model: the cache-layer
// tables and the electoral tables the aggregations read.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Cache layer
		&domain.CacheEntry{},
		&domain.RefreshLog{},
		&domain.DailySnapshot{},
		// Electoral records
		&domain.Region{},
		&domain.Department{},
		&domain.Commune{},
		&domain.SubPrefecture{},
		&domain.PollingPlace{},
		&domain.PollingStation{},
		&domain.Candidate{},
		&domain.PVRecord{},
		&domain.CandidateResult{},
		&domain.Incident{},
	)
}
