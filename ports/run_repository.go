package ports

import (
	"context"

	"gosvca/models"

	"github.com/google/uuid"
)

// RunRepository defines the interface for analysis run persistence
type RunRepository interface {
	// SaveRun saves an analysis run
	SaveRun(ctx context.Context, run *models.AnalysisRun) error

	// GetRun retrieves an analysis run by ID
	GetRun(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error)

	// ListRuns returns the most recent runs, newest first, optionally limited
	ListRuns(ctx context.Context, limit int) ([]*models.AnalysisRun, error)
}
