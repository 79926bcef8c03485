package app

import (
	"context"
	"time"

	"gosvca/adapters/stats/engine"
	"gosvca/adapters/stats/partition"
	"gosvca/domain/recording"
	"gosvca/domain/svca"
	"gosvca/internal"
	"gosvca/internal/analysis"
	"gosvca/models"
	"gosvca/ports"

	"github.com/google/uuid"
)

// AnalysisService orchestrates a full SVCA pass: partition the recording,
// estimate the shared-variance spectrum, summarize it, and persist the run.
type AnalysisService struct {
	partitioner *partition.Partitioner
	engine      *engine.SVCAEngine
	runs        ports.RunRepository
	logger      *internal.Logger
}

// NewAnalysisService creates a new analysis service. The repository may be
// nil, in which case runs are computed but not persisted.
func NewAnalysisService(runs ports.RunRepository, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		partitioner: partition.NewPartitioner(),
		engine:      engine.NewSVCAEngine(),
		runs:        runs,
		logger:      logger,
	}
}

// AnalysisRequest carries one recording and the configuration for both stages
type AnalysisRequest struct {
	Recording            *recording.Recording
	Split                svca.SplitConfig
	SVCA                 svca.Config
	ReliabilityThreshold float64
}

// AnalysisOutcome is the full output of one analysis pass
type AnalysisOutcome struct {
	Run     *models.AnalysisRun
	Split   *svca.Split
	Result  *svca.Result
	Summary *analysis.SpectrumSummary
}

// Run executes partitioning and estimation for one recording
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*AnalysisOutcome, error) {
	start := time.Now()

	split, err := s.partitioner.SplitData(req.Recording, req.Split)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("partitioned %q: %d/%d units (%d excluded), %d train / %d test samples",
		req.Recording.Name, len(split.Group1), len(split.Group2), len(split.Excluded),
		len(split.TrainIndex), len(split.TestIndex))

	result, err := s.engine.Estimate(split, req.SVCA)
	if err != nil {
		return nil, err
	}
	if result.Truncated {
		s.logger.Warn("covariance rank supported %d of %d requested components",
			result.Components(), result.Requested)
	}

	summary, err := analysis.SummarizeSpectrum(result, req.ReliabilityThreshold)
	if err != nil {
		return nil, err
	}

	run := &models.AnalysisRun{
		ID:             uuid.New(),
		RecordingName:  req.Recording.Name,
		Units:          req.Recording.Units(),
		Samples:        req.Recording.Samples(),
		Group1Size:     len(split.Group1),
		Group2Size:     len(split.Group2),
		ExcludedUnits:  len(split.Excluded),
		TrainSamples:   len(split.TrainIndex),
		TestSamples:    len(split.TestIndex),
		SplitConfig:    req.Split,
		SVCAConfig:     req.SVCA,
		SharedVariance: result.SharedVariance,
		AllVariance:    result.AllVariance,
		SingularValues: result.SingularValues,
		Reliability:    result.Reliability(),
		Summary:        summary,
		Truncated:      result.Truncated,
		CreatedAt:      time.Now().UTC(),
	}

	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, run); err != nil {
			return nil, err
		}
	}

	s.logger.Info("analyzed %q: %d components, effective dim %d, in %s",
		req.Recording.Name, result.Components(), summary.EffectiveDim,
		time.Since(start).Round(time.Millisecond))

	return &AnalysisOutcome{
		Run:     run,
		Split:   split,
		Result:  result,
		Summary: summary,
	}, nil
}
