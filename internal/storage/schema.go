package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createCoursesTable(db); err != nil {
		return err
	}
	return createRunsTable(db)
}

func createCoursesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		original_name TEXT,
		match_kind TEXT,
		department TEXT NOT NULL,
		period_code TEXT NOT NULL,
		year INTEGER NOT NULL,
		semester TEXT,
		events TEXT,
		office_hours TEXT,
		sections TEXT,
		instructors TEXT,
		prereqs TEXT,
		schedule_url TEXT,
		source_url TEXT,
		notes TEXT,
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_courses_name ON courses(name);
	CREATE INDEX IF NOT EXISTS idx_courses_department ON courses(department);
	CREATE INDEX IF NOT EXISTS idx_courses_period ON courses(period_code);
	CREATE INDEX IF NOT EXISTS idx_courses_cached_at ON courses(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create courses table: %w", err)
	}

	return nil
}

// createRunsTable creates the pipeline run log: one row per scrape run with
// per-department counts, used by the stats command.
func createRunsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		period_code TEXT NOT NULL,
		department TEXT NOT NULL,
		records INTEGER NOT NULL,
		duplicates INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_period ON runs(period_code);
	CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	return nil
}
