// Package history persists past simulation runs to a SQLite database, so
// a CI pipeline driving cmd/gpucachesim repeatedly can query miss-rate
// trends across commits instead of only inspecting the latest .out file.
package history

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver; cgo-free, unlike mattn/go-sqlite3.
	_ "github.com/glebarez/go-sqlite"
)

// Record is one stored run: the benchmark/kernel it modelled, the
// hardware configuration's fingerprint, and its categorized outcome.
type Record struct {
	RunID         string
	Benchmark     string
	Kernel        string
	ConfigHash    string
	Compulsory    int64
	Capacity      int64
	Associativity int64
	Latency       int64
	MSHR          int64
	Hits          int64
	TotalAccesses int64
	MissRate      float64
}

// Store records and queries past simulation runs. SQLiteStore is the
// only production implementation; tests mock this interface instead of
// standing up a real database.
type Store interface {
	Insert(r Record) error
	Recent(benchmark, kernel string, n int) ([]Record, error)
	Close() error
}

// SQLiteStore wraps a SQLite database of Records.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates (if necessary) and connects to the SQLite database at path.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id         TEXT PRIMARY KEY,
			benchmark      TEXT NOT NULL,
			kernel         TEXT NOT NULL,
			config_hash    TEXT NOT NULL,
			compulsory     INTEGER NOT NULL,
			capacity       INTEGER NOT NULL,
			associativity  INTEGER NOT NULL,
			latency        INTEGER NOT NULL,
			mshr           INTEGER NOT NULL,
			hits           INTEGER NOT NULL,
			total_accesses INTEGER NOT NULL,
			miss_rate      REAL NOT NULL,
			recorded_at    DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("history: create table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE INDEX IF NOT EXISTS runs_benchmark_kernel_idx
		ON runs (benchmark, kernel)
	`)
	if err != nil {
		return fmt.Errorf("history: create index: %w", err)
	}
	return nil
}

// Insert records one run's outcome.
func (s *SQLiteStore) Insert(r Record) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (
			run_id, benchmark, kernel, config_hash,
			compulsory, capacity, associativity, latency, mshr,
			hits, total_accesses, miss_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.RunID, r.Benchmark, r.Kernel, r.ConfigHash,
		r.Compulsory, r.Capacity, r.Associativity, r.Latency, r.MSHR,
		r.Hits, r.TotalAccesses, r.MissRate,
	)
	if err != nil {
		return fmt.Errorf("history: insert run %s: %w", r.RunID, err)
	}
	return nil
}

// Recent returns the n most recently recorded runs for a benchmark/kernel
// pair, most recent first.
func (s *SQLiteStore) Recent(benchmark, kernel string, n int) ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT run_id, benchmark, kernel, config_hash,
			compulsory, capacity, associativity, latency, mshr,
			hits, total_accesses, miss_rate
		FROM runs
		WHERE benchmark = ? AND kernel = ?
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ?
	`, benchmark, kernel, n)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.RunID, &r.Benchmark, &r.Kernel, &r.ConfigHash,
			&r.Compulsory, &r.Capacity, &r.Associativity, &r.Latency, &r.MSHR,
			&r.Hits, &r.TotalAccesses, &r.MissRate,
		); err != nil {
			return nil, fmt.Errorf("history: scan recent: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
