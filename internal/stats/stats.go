// Package stats keeps an SQLite index of benchmark runs and their per-tick
// samples.
package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run describes one benchmark scenario.
type Run struct {
	ID       int64
	Started  time.Time
	Width    int
	Height   int
	Seed     int64
	Mode     string
	Material string
	Brush    int
	Ticks    int
	Elapsed  time.Duration
}

// Sample is the outcome of one tick.
type Sample struct {
	Tick     uint64
	Working  int
	Moved    int
	Painted  int
	Queued   int
	Duration time.Duration
}

// Summary aggregates the samples of a run.
type Summary struct {
	Ticks       int
	MeanWorking float64
	MaxWorking  int
	TotalMoved  int
	MeanTick    time.Duration
	IdleTicks   int
}

// DB is a handle to the index. It is safe for concurrent use.
type DB struct {
	db *sql.DB
}

// Open creates or opens the index at path.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("stats: empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			mode TEXT NOT NULL,
			material TEXT NOT NULL,
			brush INTEGER NOT NULL,
			ticks INTEGER NOT NULL DEFAULT 0,
			elapsed_ns INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS samples (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			working INTEGER NOT NULL,
			moved INTEGER NOT NULL,
			painted INTEGER NOT NULL,
			queued INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

// StartRun inserts r and returns its id.
func (d *DB) StartRun(ctx context.Context, r Run) (int64, error) {
	if r.Started.IsZero() {
		r.Started = time.Now()
	}
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, width, height, seed, mode, material, brush) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Started.UTC().Format(time.RFC3339Nano), r.Width, r.Height, r.Seed, r.Mode, r.Material, r.Brush)
	if err != nil {
		return 0, fmt.Errorf("stats: start run: %w", err)
	}
	return res.LastInsertId()
}

// RecordTicks stores samples for a run in one transaction.
func (d *DB) RecordTicks(ctx context.Context, runID int64, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (run_id, tick, working, moved, painted, queued, duration_ns) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, runID, int64(s.Tick), s.Working, s.Moved, s.Painted, s.Queued, s.Duration.Nanoseconds()); err != nil {
			return fmt.Errorf("stats: tick %d: %w", s.Tick, err)
		}
	}
	return tx.Commit()
}

// FinishRun records the tick count and wall time of a run.
func (d *DB) FinishRun(ctx context.Context, runID int64, ticks int, elapsed time.Duration) error {
	_, err := d.db.ExecContext(ctx, `UPDATE runs SET ticks = ?, elapsed_ns = ? WHERE id = ?`, ticks, elapsed.Nanoseconds(), runID)
	return err
}

// Summarize aggregates the samples of a run.
func (d *DB) Summarize(ctx context.Context, runID int64) (Summary, error) {
	var (
		s        Summary
		meanWork sql.NullFloat64
		maxWork  sql.NullInt64
		moved    sql.NullInt64
		meanNS   sql.NullFloat64
		idle     sql.NullInt64
	)
	row := d.db.QueryRowContext(ctx, `SELECT COUNT(*), AVG(working), MAX(working), SUM(moved), AVG(duration_ns),
		SUM(CASE WHEN moved = 0 THEN 1 ELSE 0 END) FROM samples WHERE run_id = ?`, runID)
	if err := row.Scan(&s.Ticks, &meanWork, &maxWork, &moved, &meanNS, &idle); err != nil {
		return s, err
	}
	s.MeanWorking = meanWork.Float64
	s.MaxWorking = int(maxWork.Int64)
	s.TotalMoved = int(moved.Int64)
	s.MeanTick = time.Duration(meanNS.Float64)
	s.IdleTicks = int(idle.Int64)
	return s, nil
}

// Runs lists every run, newest first.
func (d *DB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, started_at, width, height, seed, mode, material, brush, ticks, elapsed_ns
		FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			started string
			elapsed int64
		)
		if err := rows.Scan(&r.ID, &started, &r.Width, &r.Height, &r.Seed, &r.Mode, &r.Material, &r.Brush, &r.Ticks, &elapsed); err != nil {
			return nil, err
		}
		r.Started, _ = time.Parse(time.RFC3339Nano, started)
		r.Elapsed = time.Duration(elapsed)
		out = append(out, r)
	}
	return out, rows.Err()
}
