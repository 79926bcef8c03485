package engine

import (
	"math"
	"math/rand"
	"testing"

	"gosvca/adapters/stats/partition"
	"gosvca/domain/svca"
	"gosvca/internal/errors"
	"gosvca/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// threeFactorSplit builds the canonical scenario: 100 units × 1000 samples,
// 3 shared latent factors (amplitude 5) over independent unit noise
// (amplitude 1), split spatially into two halves and 70/30 in time.
func threeFactorSplit(t *testing.T, seed int64) *svca.Split {
	t.Helper()
	rec := testkit.NewSyntheticGenerator(testkit.SyntheticConfig{
		Units:           100,
		Samples:         1000,
		SharedFactors:   3,
		FactorAmplitude: 5,
		NoiseAmplitude:  1,
		CoordSpacing:    1,
		Seed:            seed,
	}).Generate()

	cfg := svca.DefaultSplitConfig()
	cfg.TimeStrategy = svca.TimeContiguous
	cfg.TrainFraction = 0.7

	split, err := partition.NewPartitioner().SplitData(rec, cfg)
	require.NoError(t, err)
	return split
}

func noiseSplit(t *testing.T, seed int64) *svca.Split {
	t.Helper()
	rec := testkit.NewSyntheticGenerator(testkit.SyntheticConfig{
		Units:          100,
		Samples:        1000,
		NoiseAmplitude: 1,
		CoordSpacing:   1,
		Seed:           seed,
	}).Generate()

	cfg := svca.DefaultSplitConfig()
	cfg.TimeStrategy = svca.TimeContiguous
	cfg.TrainFraction = 0.7

	split, err := partition.NewPartitioner().SplitData(rec, cfg)
	require.NoError(t, err)
	return split
}

func TestEstimate_BasesAreOrthonormal(t *testing.T) {
	split := threeFactorSplit(t, 11)
	result, err := NewSVCAEngine().Estimate(split, svca.DefaultConfig())
	require.NoError(t, err)

	for _, basis := range []*mat.Dense{result.Basis1, result.Basis2} {
		require.NotNil(t, basis)
		var gram mat.Dense
		gram.Mul(basis.T(), basis)
		rows, cols := gram.Dims()
		require.Equal(t, rows, cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				want := 0.0
				if i == j {
					want = 1.0
				}
				assert.InDelta(t, want, gram.At(i, j), 1e-9)
			}
		}
	}
}

func TestEstimate_SingularValuesDescending(t *testing.T) {
	split := threeFactorSplit(t, 12)
	result, err := NewSVCAEngine().Estimate(split, svca.DefaultConfig())
	require.NoError(t, err)

	require.NotEmpty(t, result.SingularValues)
	for i := 1; i < len(result.SingularValues); i++ {
		assert.LessOrEqual(t, result.SingularValues[i], result.SingularValues[i-1])
		assert.GreaterOrEqual(t, result.SingularValues[i], 0.0)
	}
}

func TestEstimate_GroupSwapSymmetry(t *testing.T) {
	split := threeFactorSplit(t, 13)
	engine := NewSVCAEngine()

	forward, err := engine.Estimate(split, svca.DefaultConfig())
	require.NoError(t, err)

	swapped := &svca.Split{
		Ftrain: split.Gtrain,
		Ftest:  split.Gtest,
		Gtrain: split.Ftrain,
		Gtest:  split.Ftest,
	}
	reverse, err := engine.Estimate(swapped, svca.DefaultConfig())
	require.NoError(t, err)

	require.Equal(t, forward.Components(), reverse.Components())
	for i := range forward.SharedVariance {
		assert.InDelta(t, forward.SharedVariance[i], reverse.SharedVariance[i], 1e-9)
		assert.InDelta(t, forward.AllVariance[i], reverse.AllVariance[i], 1e-9)
	}
}

func TestEstimate_ThreeSharedFactors(t *testing.T) {
	split := threeFactorSplit(t, 21)
	result, err := NewSVCAEngine().Estimate(split, svca.DefaultConfig())
	require.NoError(t, err)

	reliability := result.Reliability()
	require.GreaterOrEqual(t, len(reliability), 10)
	for i := 0; i < 3; i++ {
		assert.Greater(t, reliability[i], 0.8,
			"shared factor component %d should be reliable", i+1)
	}
	for i := 3; i < len(reliability); i++ {
		assert.Less(t, reliability[i], 0.2,
			"noise component %d should be unreliable", i+1)
	}
}

func TestEstimate_StrongerFactorsRaiseReliability(t *testing.T) {
	build := func(amplitude float64) *svca.Result {
		rec := testkit.NewSyntheticGenerator(testkit.SyntheticConfig{
			Units:           100,
			Samples:         1000,
			SharedFactors:   3,
			FactorAmplitude: amplitude,
			NoiseAmplitude:  1,
			CoordSpacing:    1,
			Seed:            31,
		}).Generate()
		cfg := svca.DefaultSplitConfig()
		cfg.TimeStrategy = svca.TimeContiguous
		cfg.TrainFraction = 0.7
		split, err := partition.NewPartitioner().SplitData(rec, cfg)
		require.NoError(t, err)
		result, err := NewSVCAEngine().Estimate(split, svca.DefaultConfig())
		require.NoError(t, err)
		return result
	}

	weak := build(1)
	strong := build(5)
	weakReliability := weak.Reliability()
	strongReliability := strong.Reliability()
	for i := 0; i < 3; i++ {
		assert.Greater(t, strong.SharedVariance[i], weak.SharedVariance[i])
		assert.Greater(t, strongReliability[i], weakReliability[i])
	}
}

func TestEstimate_PureNoiseSharedVarianceNearZero(t *testing.T) {
	// Averaged over seeds, shared variance of independent noise is
	// indistinguishable from zero for every component
	var total, count float64
	for _, seed := range []int64{41, 42, 43, 44, 45} {
		split := noiseSplit(t, seed)
		result, err := NewSVCAEngine().Estimate(split, svca.DefaultConfig())
		require.NoError(t, err)

		reliability := result.Reliability()
		for i, s := range result.SharedVariance {
			total += s
			count++
			assert.Less(t, math.Abs(reliability[i]), 0.5,
				"seed %d component %d reliability unexpectedly large", seed, i+1)
		}
	}
	assert.InDelta(t, 0, total/count, 0.05)
}

func TestEstimate_MaxComponentsBeyondRankReturnsRank(t *testing.T) {
	// Rank-2 structure: both groups driven by the same two latents
	rng := rand.New(rand.NewSource(5))
	const n1, n2, ttrain, ttest = 12, 10, 200, 100

	latTrain := randomMatrix(rng, 2, ttrain)
	latTest := randomMatrix(rng, 2, ttest)
	l1 := randomMatrix(rng, n1, 2)
	l2 := randomMatrix(rng, n2, 2)

	split := &svca.Split{}
	split.Ftrain = mulDense(l1, latTrain)
	split.Ftest = mulDense(l1, latTest)
	split.Gtrain = mulDense(l2, latTrain)
	split.Gtest = mulDense(l2, latTest)

	result, err := NewSVCAEngine().Estimate(split, svca.Config{MaxComponents: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Components())
	assert.True(t, result.Truncated)
	assert.Equal(t, 10, result.Requested)
}

func TestEstimate_RejectsNonFinite(t *testing.T) {
	split := threeFactorSplit(t, 51)
	split.Ftest.Set(0, 0, math.Inf(1))

	_, err := NewSVCAEngine().Estimate(split, svca.DefaultConfig())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestEstimate_RejectsMismatchedDims(t *testing.T) {
	split := threeFactorSplit(t, 52)
	rows, cols := split.Ftest.Dims()
	split.Ftest = mat.NewDense(rows, cols-1, nil)

	_, err := NewSVCAEngine().Estimate(split, svca.DefaultConfig())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestEstimate_ProjectionShapes(t *testing.T) {
	split := threeFactorSplit(t, 53)
	result, err := NewSVCAEngine().Estimate(split, svca.Config{MaxComponents: 5})
	require.NoError(t, err)

	require.Equal(t, 5, result.Components())
	_, ttest := split.Ftest.Dims()
	r1, c1 := result.SVC1.Dims()
	r2, c2 := result.SVC2.Dims()
	assert.Equal(t, 5, r1)
	assert.Equal(t, 5, r2)
	assert.Equal(t, ttest, c1)
	assert.Equal(t, ttest, c2)
}

func randomMatrix(rng *rand.Rand, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return mat.NewDense(rows, cols, data)
}

func mulDense(a, b *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Mul(a, b)
	return &out
}
