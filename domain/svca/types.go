package svca

import (
	"gonum.org/v1/gonum/mat"
)

// GroupAssignment selects how coordinate bins are mapped to the two unit groups.
// The exclusion distance is the hard invariant; the binning policy is configurable.
type GroupAssignment string

const (
	// AssignAlternating assigns even bins to group 1 and odd bins to group 2
	AssignAlternating GroupAssignment = "alternating"
	// AssignShuffled assigns a seeded random permutation of bins to the groups
	AssignShuffled GroupAssignment = "shuffled"
	// AssignContiguous assigns the lower half of bins to group 1 and the upper half to group 2
	AssignContiguous GroupAssignment = "contiguous"
)

// TimeStrategy selects how time samples are divided into train and test.
type TimeStrategy string

const (
	// TimeInterleaved alternates fixed-width blocks between train and test
	TimeInterleaved TimeStrategy = "interleaved"
	// TimeContiguous puts the leading fraction of samples in train and the rest in test
	TimeContiguous TimeStrategy = "contiguous"
)

// SplitConfig configures the partitioner: spatial grouping, temporal
// train/test splitting, and the exclusion distance between groups.
type SplitConfig struct {
	ExclusionDistance float64         `json:"exclusion_distance"`
	BinWidth          float64         `json:"bin_width"` // 0 derives width from UnitBins
	UnitBins          int             `json:"unit_bins"`
	BinAxis           int             `json:"bin_axis"` // coordinate axis used for binning
	Assignment        GroupAssignment `json:"assignment"`
	TimeStrategy      TimeStrategy    `json:"time_strategy"`
	BlockWidth        int             `json:"block_width"`     // interleaved block width in samples
	TrainFraction     float64         `json:"train_fraction"`  // contiguous split fraction
	Boundary          int             `json:"boundary"`        // explicit contiguous boundary; overrides TrainFraction when > 0
	BoundaryMargin    int             `json:"boundary_margin"` // samples discarded on each side of every train/test boundary
	MinGroupSize      int             `json:"min_group_size"`
	SkipCentering     bool            `json:"skip_centering"` // keep raw values instead of subtracting train means
	Shuffle           bool            `json:"shuffle"`        // permute each unit's samples (null model)
	Seed              int64           `json:"seed"`
}

// DefaultSplitConfig returns the canonical split parameters:
// 16 coordinate bins in alternating groups, 60-sample interleaved
// time blocks, train-mean centering on.
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		UnitBins:     16,
		Assignment:   AssignAlternating,
		TimeStrategy: TimeInterleaved,
		BlockWidth:   60,
		MinGroupSize: 1,
		Seed:         42,
	}
}

// Split holds the four matrices produced by the partitioner plus the
// index bookkeeping that produced them. F* rows are group-1 units,
// G* rows are group-2 units; columns are train or test samples.
type Split struct {
	Ftrain *mat.Dense
	Ftest  *mat.Dense
	Gtrain *mat.Dense
	Gtest  *mat.Dense

	Group1     []int // unit indices backing the F matrices
	Group2     []int // unit indices backing the G matrices
	Excluded   []int // units dropped by the exclusion distance
	TrainIndex []int // sample indices backing the train columns
	TestIndex  []int // sample indices backing the test columns
}

// Config configures the SVCA estimator.
type Config struct {
	// MaxComponents caps the number of retained components; 0 means all
	// components up to the covariance rank.
	MaxComponents int `json:"max_components"`
	// ZeroTolerance is the relative threshold (fraction of the leading
	// singular value) below which components are considered numerically zero.
	ZeroTolerance float64 `json:"zero_tolerance"`
	// KeepZero retains numerically-zero components instead of dropping them.
	KeepZero bool `json:"keep_zero"`
}

// DefaultConfig returns the default estimator configuration
func DefaultConfig() Config {
	return Config{
		ZeroTolerance: 1e-12,
	}
}

// Result holds the cross-validated variance estimates. SharedVariance and
// AllVariance are aligned index-for-index with the train covariance's
// singular values (descending). SVC1/SVC2 are the test-window projections,
// one row per component, columns in test-sample order.
type Result struct {
	SharedVariance []float64 `json:"shared_variance"`
	AllVariance    []float64 `json:"all_variance"`
	SingularValues []float64 `json:"singular_values"`

	SVC1 *mat.Dense `json:"-"`
	SVC2 *mat.Dense `json:"-"`

	// Basis1/Basis2 are the retained orthonormal bases (units × components)
	// for group 1 and group 2, derived solely from train data.
	Basis1 *mat.Dense `json:"-"`
	Basis2 *mat.Dense `json:"-"`

	// Requested is the component count asked for; Truncated is set when the
	// covariance rank supported fewer components than requested.
	Requested int  `json:"requested"`
	Truncated bool `json:"truncated"`
}

// Components returns the number of components actually retained
func (r *Result) Components() int {
	return len(r.SharedVariance)
}

// Reliability returns the per-component shared/all variance fraction.
// The ratio is not clamped: finite-sample noise can push individual
// entries below zero or above one.
func (r *Result) Reliability() []float64 {
	out := make([]float64, len(r.SharedVariance))
	for i := range r.SharedVariance {
		if r.AllVariance[i] != 0 {
			out[i] = r.SharedVariance[i] / r.AllVariance[i]
		}
	}
	return out
}
