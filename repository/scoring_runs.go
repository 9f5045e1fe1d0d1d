package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stockout-app/models"
)

// ErrRunNotFound is returned by Get for an unknown id.
var ErrRunNotFound = errors.New("scoring run not found")

// RunRepository persists scoring run history.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Record inserts a run.
func (r *RunRepository) Record(ctx context.Context, run models.ScoringRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scoring_runs
		(id, file_name, row_count, status, failed_stage, error_kind, message,
		 mean_risk, high_risk_rows, total_economic_loss, model_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.FileName, run.Rows, run.Status, run.FailedStage, run.ErrorKind, run.Message,
		run.MeanRisk, run.HighRiskRows, run.TotalEconomicLoss, run.ModelVersion, run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert scoring run: %w", err)
	}
	return nil
}

const selectRuns = `
	SELECT id, file_name, row_count, status, COALESCE(failed_stage, ''), COALESCE(error_kind, ''),
	       COALESCE(message, ''), mean_risk, high_risk_rows, total_economic_loss,
	       COALESCE(model_version, ''), created_at
	FROM scoring_runs`

// List returns the most recent runs first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.ScoringRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, selectRuns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scoring runs: %w", err)
	}
	defer rows.Close()

	runs := []models.ScoringRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run by id.
func (r *RunRepository) Get(ctx context.Context, id string) (models.ScoringRun, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ScoringRun{}, ErrRunNotFound
	}
	return run, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (models.ScoringRun, error) {
	var run models.ScoringRun
	err := s.Scan(
		&run.ID, &run.FileName, &run.Rows, &run.Status, &run.FailedStage, &run.ErrorKind,
		&run.Message, &run.MeanRisk, &run.HighRiskRows, &run.TotalEconomicLoss,
		&run.ModelVersion, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scan scoring run: %w", err)
	}
	return run, nil
}
