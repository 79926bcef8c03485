package app

import (
	"context"
	"testing"

	"gosvca/domain/svca"
	"gosvca/internal"
	"gosvca/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoRequest(seed int64) AnalysisRequest {
	rec := testkit.NewSyntheticGenerator(testkit.SyntheticConfig{
		Units:           60,
		Samples:         600,
		SharedFactors:   2,
		FactorAmplitude: 4,
		NoiseAmplitude:  1,
		CoordSpacing:    1,
		Seed:            seed,
	}).Generate()
	cfg := svca.DefaultSplitConfig()
	cfg.Seed = seed
	return AnalysisRequest{Recording: rec, Split: cfg}
}

func TestAnalysisService_RunPersistsRun(t *testing.T) {
	repo := testkit.NewInMemoryRunRepository()
	service := NewAnalysisService(repo, internal.NewLogger(internal.LogLevelError))

	outcome, err := service.Run(context.Background(), demoRequest(3))
	require.NoError(t, err)
	require.NotNil(t, outcome.Run)

	stored, err := repo.GetRun(context.Background(), outcome.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, outcome.Run.RecordingName, stored.RecordingName)
	assert.Equal(t, outcome.Run.Components(), stored.Components())
	assert.Equal(t, 60, stored.Units)
	assert.Equal(t, stored.Group1Size+stored.Group2Size+stored.ExcludedUnits, stored.Units)
	require.NotNil(t, stored.Summary)
	assert.GreaterOrEqual(t, stored.Summary.EffectiveDim, 2)
}

func TestAnalysisService_RunWithoutRepository(t *testing.T) {
	service := NewAnalysisService(nil, internal.NewLogger(internal.LogLevelError))
	outcome, err := service.Run(context.Background(), demoRequest(4))
	require.NoError(t, err)
	assert.NotNil(t, outcome.Result)
	assert.NotNil(t, outcome.Summary)
}

func TestAnalysisService_Reproducible(t *testing.T) {
	service := NewAnalysisService(nil, internal.NewLogger(internal.LogLevelError))

	first, err := service.Run(context.Background(), demoRequest(5))
	require.NoError(t, err)
	second, err := service.Run(context.Background(), demoRequest(5))
	require.NoError(t, err)

	require.Equal(t, first.Result.Components(), second.Result.Components())
	for i := range first.Result.SharedVariance {
		assert.Equal(t, first.Result.SharedVariance[i], second.Result.SharedVariance[i])
		assert.Equal(t, first.Result.AllVariance[i], second.Result.AllVariance[i])
	}
}

func TestSweepService_RunsFullGrid(t *testing.T) {
	repo := testkit.NewInMemoryRunRepository()
	logger := internal.NewLogger(internal.LogLevelError)
	service := NewSweepService(NewAnalysisService(repo, logger), logger)

	cells, err := service.RunSweep(context.Background(), SweepSpec{
		Base:               demoRequest(6),
		Seeds:              []int64{1, 2, 3},
		ExclusionDistances: []float64{0, 1.5},
		Parallelism:        2,
	})
	require.NoError(t, err)
	require.Len(t, cells, 6)

	for _, c := range cells {
		require.NotNil(t, c.Outcome, "cell seed=%d distance=%.1f missing outcome", c.Seed, c.ExclusionDistance)
		assert.Equal(t, c.Seed, c.Outcome.Run.SplitConfig.Seed)
		assert.Equal(t, c.ExclusionDistance, c.Outcome.Run.SplitConfig.ExclusionDistance)
	}

	runs, err := repo.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 6)

	best := BestCell(cells)
	require.NotNil(t, best)
}
