package app

import (
	"context"

	"gosvca/internal"
	"gosvca/internal/errors"

	"golang.org/x/sync/errgroup"
)

// SweepService runs a grid of SVCA analyses over seeds and exclusion
// distances. Each grid cell is an independent single-pass computation, so
// cells run concurrently under an errgroup.
type SweepService struct {
	analysis *AnalysisService
	logger   *internal.Logger
}

// NewSweepService creates a new sweep service
func NewSweepService(analysis *AnalysisService, logger *internal.Logger) *SweepService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SweepService{analysis: analysis, logger: logger}
}

// SweepSpec describes the grid: the base request is repeated for every
// (seed, exclusion distance) combination. Empty seed or distance lists
// fall back to the base request's own value.
type SweepSpec struct {
	Base               AnalysisRequest
	Seeds              []int64
	ExclusionDistances []float64
	Parallelism        int
}

// SweepCell is one grid cell's configuration and outcome
type SweepCell struct {
	Seed              int64
	ExclusionDistance float64
	Outcome           *AnalysisOutcome
}

// RunSweep executes the full grid and returns cells in grid order
// (seeds outer, distances inner)
func (s *SweepService) RunSweep(ctx context.Context, spec SweepSpec) ([]SweepCell, error) {
	if spec.Base.Recording == nil {
		return nil, errors.InvalidInput("sweep has no recording")
	}
	seeds := spec.Seeds
	if len(seeds) == 0 {
		seeds = []int64{spec.Base.Split.Seed}
	}
	distances := spec.ExclusionDistances
	if len(distances) == 0 {
		distances = []float64{spec.Base.Split.ExclusionDistance}
	}

	cells := make([]SweepCell, len(seeds)*len(distances))
	g, ctx := errgroup.WithContext(ctx)
	if spec.Parallelism > 0 {
		g.SetLimit(spec.Parallelism)
	}

	for si, seed := range seeds {
		for di, distance := range distances {
			idx := si*len(distances) + di
			cfg := spec.Base.Split
			cfg.Seed = seed
			cfg.ExclusionDistance = distance
			req := AnalysisRequest{
				Recording:            spec.Base.Recording,
				Split:                cfg,
				SVCA:                 spec.Base.SVCA,
				ReliabilityThreshold: spec.Base.ReliabilityThreshold,
			}
			g.Go(func() error {
				outcome, err := s.analysis.Run(ctx, req)
				if err != nil {
					return errors.Wrapf(err, "sweep cell seed=%d exclusion=%.3f failed",
						req.Split.Seed, req.Split.ExclusionDistance)
				}
				cells[idx] = SweepCell{
					Seed:              req.Split.Seed,
					ExclusionDistance: req.Split.ExclusionDistance,
					Outcome:           outcome,
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Info("sweep complete: %d cells (%d seeds × %d exclusion distances)",
		len(cells), len(seeds), len(distances))
	return cells, nil
}

// BestCell returns the cell with the highest effective dimensionality,
// breaking ties by total shared variance
func BestCell(cells []SweepCell) *SweepCell {
	var best *SweepCell
	for i := range cells {
		c := &cells[i]
		if c.Outcome == nil {
			continue
		}
		if best == nil {
			best = c
			continue
		}
		bs, cs := best.Outcome.Summary, c.Outcome.Summary
		if cs.EffectiveDim > bs.EffectiveDim ||
			(cs.EffectiveDim == bs.EffectiveDim && cs.TotalShared > bs.TotalShared) {
			best = c
		}
	}
	return best
}
