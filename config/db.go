package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenDB opens the SQLite run history database and creates its tables.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func createTables(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	runsTable := `
		CREATE TABLE IF NOT EXISTS scoring_runs (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		row_count INTEGER NOT NULL DEFAULT 0,
		status TEXT CHECK(status IN ('succeeded','failed')) NOT NULL,
		failed_stage TEXT,
		error_kind TEXT,
		message TEXT,
		mean_risk REAL DEFAULT 0,
		high_risk_rows INTEGER DEFAULT 0,
		total_economic_loss REAL DEFAULT 0,
		model_version TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := tx.Exec(runsTable); err != nil {
		tx.Rollback()
		return fmt.Errorf("create scoring_runs table: %w", err)
	}

	runsIndex := `CREATE INDEX IF NOT EXISTS idx_scoring_runs_created_at ON scoring_runs(created_at);`
	if _, err := tx.Exec(runsIndex); err != nil {
		tx.Rollback()
		return fmt.Errorf("create scoring_runs index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
