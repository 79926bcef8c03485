package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"gosvca/models"
	"gosvca/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) *RunRepositoryImpl {
	return &RunRepositoryImpl{db: db}
}

var _ ports.RunRepository = (*RunRepositoryImpl)(nil)

// EnsureSchema creates the svca_runs table when it does not exist
func (r *RunRepositoryImpl) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS svca_runs (
			id UUID PRIMARY KEY,
			recording_name TEXT NOT NULL,
			units INT NOT NULL,
			samples INT NOT NULL,
			group1_size INT NOT NULL,
			group2_size INT NOT NULL,
			excluded_units INT NOT NULL,
			train_samples INT NOT NULL,
			test_samples INT NOT NULL,
			truncated BOOLEAN NOT NULL DEFAULT FALSE,
			split_config JSONB NOT NULL,
			svca_config JSONB NOT NULL,
			spectrum JSONB NOT NULL,
			summary JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure svca_runs schema: %w", err)
	}
	return nil
}

// spectrumPayload bundles the per-component vectors into one JSONB column
type spectrumPayload struct {
	SharedVariance []float64 `json:"shared_variance"`
	AllVariance    []float64 `json:"all_variance"`
	SingularValues []float64 `json:"singular_values"`
	Reliability    []float64 `json:"reliability"`
}

// SaveRun saves an analysis run
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run *models.AnalysisRun) error {
	splitConfigJSON, _ := json.Marshal(run.SplitConfig)
	svcaConfigJSON, _ := json.Marshal(run.SVCAConfig)
	spectrumJSON, _ := json.Marshal(spectrumPayload{
		SharedVariance: run.SharedVariance,
		AllVariance:    run.AllVariance,
		SingularValues: run.SingularValues,
		Reliability:    run.Reliability,
	})
	var summaryJSON []byte
	if run.Summary != nil {
		summaryJSON, _ = json.Marshal(run.Summary)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO svca_runs (
			id, recording_name, units, samples, group1_size, group2_size,
			excluded_units, train_samples, test_samples, truncated,
			split_config, svca_config, spectrum, summary, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			spectrum = EXCLUDED.spectrum,
			summary = EXCLUDED.summary,
			truncated = EXCLUDED.truncated`,
		run.ID, run.RecordingName, run.Units, run.Samples, run.Group1Size, run.Group2Size,
		run.ExcludedUnits, run.TrainSamples, run.TestSamples, run.Truncated,
		splitConfigJSON, svcaConfigJSON, spectrumJSON, summaryJSON, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis run: %w", err)
	}
	return nil
}

// GetRun retrieves an analysis run by ID
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT id, recording_name, units, samples, group1_size, group2_size,
			excluded_units, train_samples, test_samples, truncated,
			split_config, svca_config, spectrum, summary, created_at
		FROM svca_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, optionally limited
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*models.AnalysisRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, recording_name, units, samples, group1_size, group2_size,
			excluded_units, train_samples, test_samples, truncated,
			split_config, svca_config, spectrum, summary, created_at
		FROM svca_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// rowScanner covers both sqlx.Row and sqlx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.AnalysisRun, error) {
	run := &models.AnalysisRun{}
	var splitConfigJSON, svcaConfigJSON, spectrumJSON []byte
	var summaryJSON sql.NullString

	err := row.Scan(
		&run.ID, &run.RecordingName, &run.Units, &run.Samples, &run.Group1Size, &run.Group2Size,
		&run.ExcludedUnits, &run.TrainSamples, &run.TestSamples, &run.Truncated,
		&splitConfigJSON, &svcaConfigJSON, &spectrumJSON, &summaryJSON, &run.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(splitConfigJSON, &run.SplitConfig); err != nil {
		return nil, fmt.Errorf("failed to decode split config: %w", err)
	}
	if err := json.Unmarshal(svcaConfigJSON, &run.SVCAConfig); err != nil {
		return nil, fmt.Errorf("failed to decode svca config: %w", err)
	}
	var spectrum spectrumPayload
	if err := json.Unmarshal(spectrumJSON, &spectrum); err != nil {
		return nil, fmt.Errorf("failed to decode spectrum: %w", err)
	}
	run.SharedVariance = spectrum.SharedVariance
	run.AllVariance = spectrum.AllVariance
	run.SingularValues = spectrum.SingularValues
	run.Reliability = spectrum.Reliability
	if summaryJSON.Valid && summaryJSON.String != "" {
		if err := json.Unmarshal([]byte(summaryJSON.String), &run.Summary); err != nil {
			return nil, fmt.Errorf("failed to decode summary: %w", err)
		}
	}
	return run, nil
}
