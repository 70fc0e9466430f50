package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists cycle history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS render_cycles (
			id          TEXT PRIMARY KEY,
			source      TEXT,
			invoked_by  TEXT,
			symbol      TEXT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			status      TEXT NOT NULL,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_started ON render_cycles(started_at)`,

		`CREATE TABLE IF NOT EXISTS rendered_charts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id   TEXT NOT NULL REFERENCES render_cycles(id),
			position   INTEGER NOT NULL,
			container  TEXT NOT NULL,
			symbol     TEXT,
			time_frame TEXT,
			query      TEXT,
			candles    INTEGER,
			points     INTEGER,
			ranges     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_charts_cycle ON rendered_charts(cycle_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(rec *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO render_cycles
		(id, source, invoked_by, symbol, started_at, finished_at, status, error)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Source, rec.Trigger, rec.Symbol,
		rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(),
		rec.Status, rec.Error,
	); err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	for i, c := range rec.Charts {
		if _, err := tx.Exec(`INSERT INTO rendered_charts
			(cycle_id, position, container, symbol, time_frame, query, candles, points, ranges)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			rec.ID, i, c.Container, c.Symbol, c.TimeFrame, c.Query,
			c.Candles, c.Points, c.Ranges,
		); err != nil {
			return fmt.Errorf("insert chart %s: %w", c.Container, err)
		}
	}
	return tx.Commit()
}

// RecentCycles returns up to limit cycles, newest first.
func (r *SQLiteRecorder) RecentCycles(limit int) ([]CycleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(`SELECT id, source, invoked_by, symbol, started_at, finished_at, status, error
		FROM render_cycles ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	var cycles []CycleRecord
	for rows.Next() {
		var c CycleRecord
		var started, finished int64
		var errText sql.NullString
		if err := rows.Scan(&c.ID, &c.Source, &c.Trigger, &c.Symbol, &started, &finished, &c.Status, &errText); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		c.StartedAt = time.UnixMilli(started)
		c.FinishedAt = time.UnixMilli(finished)
		c.Error = errText.String
		cycles = append(cycles, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range cycles {
		charts, err := r.chartsFor(cycles[i].ID)
		if err != nil {
			return nil, err
		}
		cycles[i].Charts = charts
	}
	return cycles, nil
}

func (r *SQLiteRecorder) chartsFor(cycleID string) ([]ChartRecord, error) {
	rows, err := r.db.Query(`SELECT container, symbol, time_frame, query, candles, points, ranges
		FROM rendered_charts WHERE cycle_id = ? ORDER BY position`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query charts: %w", err)
	}
	defer rows.Close()

	var charts []ChartRecord
	for rows.Next() {
		var c ChartRecord
		if err := rows.Scan(&c.Container, &c.Symbol, &c.TimeFrame, &c.Query, &c.Candles, &c.Points, &c.Ranges); err != nil {
			return nil, fmt.Errorf("scan chart: %w", err)
		}
		charts = append(charts, c)
	}
	return charts, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
