package testkit

import (
	"context"
	"sync"

	"gosvca/domain/core"
	"gosvca/models"
	"gosvca/ports"

	"github.com/google/uuid"
)

// InMemoryRunRepository is a map-backed RunRepository used by tests and by
// entrypoints running without a database.
type InMemoryRunRepository struct {
	mu    sync.RWMutex
	runs  map[uuid.UUID]*models.AnalysisRun
	order []uuid.UUID
}

// NewInMemoryRunRepository creates a new in-memory run repository
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{
		runs: make(map[uuid.UUID]*models.AnalysisRun),
	}
}

var _ ports.RunRepository = (*InMemoryRunRepository)(nil)

// SaveRun saves an analysis run
func (r *InMemoryRunRepository) SaveRun(ctx context.Context, run *models.AnalysisRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[run.ID]; !exists {
		r.order = append(r.order, run.ID)
	}
	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

// GetRun retrieves an analysis run by ID
func (r *InMemoryRunRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id.String())
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns the most recent runs, newest first, optionally limited
func (r *InMemoryRunRepository) ListRuns(ctx context.Context, limit int) ([]*models.AnalysisRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.order) {
		limit = len(r.order)
	}
	runs := make([]*models.AnalysisRun, 0, limit)
	for i := len(r.order) - 1; i >= 0 && len(runs) < limit; i-- {
		copied := *r.runs[r.order[i]]
		runs = append(runs, &copied)
	}
	return runs, nil
}
