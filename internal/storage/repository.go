package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "uba-horarios/internal/errors"
)

// SaveCourses upserts course records in a single transaction.
func (db *DB) SaveCourses(ctx context.Context, records []*CourseRecord) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO courses (
			id, name, original_name, match_kind, department, period_code, year, semester,
			events, office_hours, sections, instructors, prereqs,
			schedule_url, source_url, notes, cached_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			original_name = excluded.original_name,
			match_kind = excluded.match_kind,
			department = excluded.department,
			period_code = excluded.period_code,
			year = excluded.year,
			semester = excluded.semester,
			events = excluded.events,
			office_hours = excluded.office_hours,
			sections = excluded.sections,
			instructors = excluded.instructors,
			prereqs = excluded.prereqs,
			schedule_url = excluded.schedule_url,
			source_url = excluded.source_url,
			notes = excluded.notes,
			cached_at = excluded.cached_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		cachedAt := r.ScrapedAt
		if cachedAt.IsZero() {
			cachedAt = time.Now()
		}

		_, err := stmt.ExecContext(ctx,
			r.ID, r.Name, r.OriginalName, r.MatchKind, r.Department.Code, r.Period.Code,
			r.Period.Year, r.Period.Semester,
			mustJSON(r.Events), mustJSON(r.OfficeHours), mustJSON(r.Sections),
			mustJSON(r.Instructors), mustJSON(r.Prereqs),
			r.ScheduleURL, r.SourceURL, r.Notes, cachedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert course %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit courses: %w", err)
	}
	return nil
}

// GetCourse returns one course by record ID, expired or not.
func (db *DB) GetCourse(ctx context.Context, id string) (*CourseRecord, error) {
	row := db.conn.QueryRowContext(ctx, selectCourse+` WHERE id = ?`, id)

	record, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: course %s", apperrors.ErrNotFound, id)
	}
	return record, err
}

// FindCoursesByName returns fresh courses whose name matches the pattern
// (SQL LIKE, case-insensitive).
func (db *DB) FindCoursesByName(ctx context.Context, pattern string) ([]*CourseRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		selectCourse+` WHERE name LIKE ? AND cached_at > ? ORDER BY name`,
		"%"+pattern+"%", db.getTTLTimestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses by name: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCourses(rows)
}

// ListCourses returns all fresh courses for a period, ordered by name.
// An empty period code returns every fresh course.
func (db *DB) ListCourses(ctx context.Context, periodCode string) ([]*CourseRecord, error) {
	query := selectCourse + ` WHERE cached_at > ?`
	args := []any{db.getTTLTimestamp()}
	if periodCode != "" {
		query += ` AND period_code = ?`
		args = append(args, periodCode)
	}
	query += ` ORDER BY name`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCourses(rows)
}

// CountCourses returns the number of fresh course records.
func (db *DB) CountCourses(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM courses WHERE cached_at > ?`, db.getTTLTimestamp(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// DeleteExpiredCourses removes records past the cache TTL. Returns the
// number of rows deleted.
func (db *DB) DeleteExpiredCourses(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM courses WHERE cached_at <= ?`, db.getTTLTimestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired courses: %w", err)
	}
	return res.RowsAffected()
}

// Run is one pipeline run log entry for a department.
type Run struct {
	PeriodCode string
	Department string
	Records    int
	Duplicates int
	StartedAt  time.Time
	FinishedAt time.Time
}

// RecordRun logs one department scrape of a pipeline run.
func (db *DB) RecordRun(ctx context.Context, run Run) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO runs (period_code, department, records, duplicates, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.PeriodCode, run.Department, run.Records, run.Duplicates,
		run.StartedAt.Unix(), run.FinishedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecentRuns returns the latest run log entries, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT period_code, department, records, duplicates, started_at, finished_at
		FROM runs ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished int64
		if err := rows.Scan(&run.PeriodCode, &run.Department, &run.Records,
			&run.Duplicates, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0)
		run.FinishedAt = time.Unix(finished, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const selectCourse = `
	SELECT id, name, original_name, match_kind, department, period_code, year, semester,
	       events, office_hours, sections, instructors, prereqs,
	       schedule_url, source_url, notes, cached_at
	FROM courses`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*CourseRecord, error) {
	var (
		r         CourseRecord
		deptCode  string
		events    sql.NullString
		office    sql.NullString
		sections  sql.NullString
		teachers  sql.NullString
		prereqs   sql.NullString
		cachedAt  int64
		origName  sql.NullString
		matchKind sql.NullString
		schedURL  sql.NullString
		sourceURL sql.NullString
		notes     sql.NullString
		semester  sql.NullString
	)

	err := row.Scan(&r.ID, &r.Name, &origName, &matchKind, &deptCode, &r.Period.Code,
		&r.Period.Year, &semester, &events, &office, &sections, &teachers,
		&prereqs, &schedURL, &sourceURL, &notes, &cachedAt)
	if err != nil {
		return nil, err
	}

	r.OriginalName = origName.String
	r.MatchKind = matchKind.String
	r.Department.Code = deptCode
	r.Period.Semester = semester.String
	r.ScheduleURL = schedURL.String
	r.SourceURL = sourceURL.String
	r.Notes = notes.String
	r.ScrapedAt = time.Unix(cachedAt, 0)

	fromJSON(events, &r.Events)
	fromJSON(office, &r.OfficeHours)
	fromJSON(sections, &r.Sections)
	fromJSON(teachers, &r.Instructors)
	fromJSON(prereqs, &r.Prereqs)

	return &r, nil
}

func scanCourses(rows *sql.Rows) ([]*CourseRecord, error) {
	var records []*CourseRecord
	for rows.Next() {
		r, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// mustJSON marshals v, storing empty collections as NULL.
func mustJSON(v any) any {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" || string(data) == "[]" {
		return nil
	}
	return string(data)
}

func fromJSON[T any](col sql.NullString, dest *T) {
	if col.Valid && col.String != "" {
		_ = json.Unmarshal([]byte(col.String), dest)
	}
}
