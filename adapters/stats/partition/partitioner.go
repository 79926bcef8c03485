package partition

import (
	"math"
	"math/rand"

	"gosvca/domain/recording"
	"gosvca/domain/svca"
	"gosvca/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// Partitioner splits a recording into the four SVCA matrices: two spatially
// separated unit groups crossed with disjoint train/test time windows.
// It is a pure function of the recording and the config; all randomness
// comes from the config's seed.
type Partitioner struct{}

// NewPartitioner creates a new partitioner
func NewPartitioner() *Partitioner {
	return &Partitioner{}
}

// SplitData produces (Ftrain, Ftest, Gtrain, Gtest) from a recording.
// Units are binned along one coordinate axis and bins are mapped to the two
// groups by the configured policy; any unit closer than the exclusion
// distance to the opposite group is dropped. Time samples are divided into
// disjoint train/test sets, optionally discarding samples adjacent to every
// boundary. Each unit's train-window mean is subtracted from both windows
// unless centering is disabled.
func (p *Partitioner) SplitData(rec *recording.Recording, cfg svca.SplitConfig) (*svca.Split, error) {
	if rec == nil {
		return nil, errors.InvalidInput("recording is nil")
	}
	if err := rec.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	cfg = withDefaults(cfg)

	samples := rec.Samples()
	if cfg.BinAxis < 0 || cfg.BinAxis >= len(rec.Coords[0]) {
		return nil, errors.InvalidInputf("bin axis %d out of range for %d-dimensional coordinates",
			cfg.BinAxis, len(rec.Coords[0]))
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	group1, group2, err := p.assignGroups(rec, cfg, rng)
	if err != nil {
		return nil, err
	}

	group1, group2, excluded := p.applyExclusion(rec, group1, group2, cfg.ExclusionDistance)
	if len(group1) < cfg.MinGroupSize {
		return nil, errors.InsufficientUnits("group 1", len(group1), cfg.MinGroupSize)
	}
	if len(group2) < cfg.MinGroupSize {
		return nil, errors.InsufficientUnits("group 2", len(group2), cfg.MinGroupSize)
	}

	trainIdx, testIdx, err := p.splitTime(samples, cfg)
	if err != nil {
		return nil, err
	}
	larger := len(group1)
	if len(group2) > larger {
		larger = len(group2)
	}
	if len(trainIdx) < larger {
		return nil, errors.InsufficientSamples("train", len(trainIdx), larger)
	}
	if len(testIdx) < larger {
		return nil, errors.InsufficientSamples("test", len(testIdx), larger)
	}

	activity := rec.Activity
	if cfg.Shuffle {
		activity = shuffleWithinUnits(activity, rng)
	}

	split := &svca.Split{
		Ftrain:     extract(activity, group1, trainIdx),
		Ftest:      extract(activity, group1, testIdx),
		Gtrain:     extract(activity, group2, trainIdx),
		Gtest:      extract(activity, group2, testIdx),
		Group1:     group1,
		Group2:     group2,
		Excluded:   excluded,
		TrainIndex: trainIdx,
		TestIndex:  testIdx,
	}

	if !cfg.SkipCentering {
		centerByTrainMean(split.Ftrain, split.Ftest)
		centerByTrainMean(split.Gtrain, split.Gtest)
	}

	return split, nil
}

// assignGroups bins units along the configured coordinate axis and maps
// bins to groups by the configured policy.
func (p *Partitioner) assignGroups(rec *recording.Recording, cfg svca.SplitConfig, rng *rand.Rand) ([]int, []int, error) {
	units := rec.Units()
	pos := make([]float64, units)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < units; i++ {
		pos[i] = rec.Coords[i][cfg.BinAxis]
		if pos[i] < lo {
			lo = pos[i]
		}
		if pos[i] > hi {
			hi = pos[i]
		}
	}
	if hi == lo {
		return nil, nil, errors.InvalidInput("coordinate range along bin axis is zero")
	}

	width := cfg.BinWidth
	bins := cfg.UnitBins
	if width <= 0 {
		width = (hi - lo) / float64(bins)
	} else {
		bins = int(math.Ceil((hi-lo)/width)) + 1
	}

	// Bin parity decides group membership under the alternating policy;
	// the other policies remap bin ranks first.
	rank := make([]int, bins)
	for i := range rank {
		rank[i] = i
	}
	switch cfg.Assignment {
	case svca.AssignAlternating:
		// identity
	case svca.AssignShuffled:
		rng.Shuffle(len(rank), func(i, j int) {
			rank[i], rank[j] = rank[j], rank[i]
		})
	case svca.AssignContiguous:
		// lower half of bins even-ranked, upper half odd-ranked
		for i := range rank {
			if i < bins/2 {
				rank[i] = 0
			} else {
				rank[i] = 1
			}
		}
	default:
		return nil, nil, errors.InvalidInputf("unknown group assignment policy %q", cfg.Assignment)
	}

	var group1, group2 []int
	for i := 0; i < units; i++ {
		b := int((pos[i] - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		if rank[b]%2 == 0 {
			group1 = append(group1, i)
		} else {
			group2 = append(group2, i)
		}
	}
	return group1, group2, nil
}

// applyExclusion drops every unit whose nearest opposite-group neighbor is
// closer than the exclusion distance. Distances are measured against the
// original membership of the opposite group, so surviving pairs can only be
// farther apart than the threshold.
func (p *Partitioner) applyExclusion(rec *recording.Recording, group1, group2 []int, distance float64) ([]int, []int, []int) {
	if distance <= 0 {
		return group1, group2, nil
	}

	var excluded []int
	keep := func(members, opposite []int) []int {
		kept := make([]int, 0, len(members))
		for _, u := range members {
			tooClose := false
			for _, v := range opposite {
				if rec.CoordDistance(u, v) < distance {
					tooClose = true
					break
				}
			}
			if tooClose {
				excluded = append(excluded, u)
			} else {
				kept = append(kept, u)
			}
		}
		return kept
	}

	kept1 := keep(group1, group2)
	kept2 := keep(group2, group1)
	return kept1, kept2, excluded
}

// splitTime divides sample indices into disjoint train/test sets and drops
// samples within the boundary margin of every train/test boundary.
func (p *Partitioner) splitTime(samples int, cfg svca.SplitConfig) ([]int, []int, error) {
	label := make([]int8, samples) // 0 train, 1 test, -1 dropped

	switch cfg.TimeStrategy {
	case svca.TimeInterleaved:
		if cfg.BlockWidth <= 0 {
			return nil, nil, errors.InvalidInputf("block width must be positive, got %d", cfg.BlockWidth)
		}
		for t := 0; t < samples; t++ {
			if (t/cfg.BlockWidth)%2 == 1 {
				label[t] = 1
			}
		}
		if cfg.BoundaryMargin > 0 {
			for b := cfg.BlockWidth; b < samples; b += cfg.BlockWidth {
				dropAround(label, b, cfg.BoundaryMargin)
			}
		}
	case svca.TimeContiguous:
		boundary := cfg.Boundary
		if boundary <= 0 {
			boundary = int(math.Round(float64(samples) * cfg.TrainFraction))
		}
		if boundary <= 0 || boundary >= samples {
			return nil, nil, errors.InvalidInputf("time boundary %d outside (0, %d)", boundary, samples)
		}
		for t := boundary; t < samples; t++ {
			label[t] = 1
		}
		if cfg.BoundaryMargin > 0 {
			dropAround(label, boundary, cfg.BoundaryMargin)
		}
	default:
		return nil, nil, errors.InvalidInputf("unknown time strategy %q", cfg.TimeStrategy)
	}

	var train, test []int
	for t, l := range label {
		switch l {
		case 0:
			train = append(train, t)
		case 1:
			test = append(test, t)
		}
	}
	return train, test, nil
}

// dropAround marks the margin samples on each side of boundary b as dropped
func dropAround(label []int8, b, margin int) {
	for t := b - margin; t < b+margin; t++ {
		if t >= 0 && t < len(label) {
			label[t] = -1
		}
	}
}

// extract copies the given rows × columns of m into a fresh matrix
func extract(m *mat.Dense, rows, cols []int) *mat.Dense {
	out := mat.NewDense(len(rows), len(cols), nil)
	for i, r := range rows {
		for j, c := range cols {
			out.Set(i, j, m.At(r, c))
		}
	}
	return out
}

// centerByTrainMean subtracts each row's train-window mean from both the
// train and test windows. Using the train mean for both keeps the test
// window untouched by test statistics.
func centerByTrainMean(train, test *mat.Dense) {
	rows, tcols := train.Dims()
	_, scols := test.Dims()
	for i := 0; i < rows; i++ {
		mu := 0.0
		for j := 0; j < tcols; j++ {
			mu += train.At(i, j)
		}
		mu /= float64(tcols)
		for j := 0; j < tcols; j++ {
			train.Set(i, j, train.At(i, j)-mu)
		}
		for j := 0; j < scols; j++ {
			test.Set(i, j, test.At(i, j)-mu)
		}
	}
}

// shuffleWithinUnits returns a copy of m with each row's columns permuted
// independently, destroying temporal structure while preserving per-unit
// marginals (null model).
func shuffleWithinUnits(m *mat.Dense, rng *rand.Rand) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		perm := rng.Perm(cols)
		for j, pj := range perm {
			out.Set(i, j, m.At(i, pj))
		}
	}
	return out
}

// withDefaults fills zero-valued config fields with the canonical defaults
func withDefaults(cfg svca.SplitConfig) svca.SplitConfig {
	def := svca.DefaultSplitConfig()
	if cfg.UnitBins <= 0 {
		cfg.UnitBins = def.UnitBins
	}
	if cfg.Assignment == "" {
		cfg.Assignment = def.Assignment
	}
	if cfg.TimeStrategy == "" {
		cfg.TimeStrategy = def.TimeStrategy
	}
	if cfg.BlockWidth <= 0 {
		cfg.BlockWidth = def.BlockWidth
	}
	if cfg.TrainFraction <= 0 || cfg.TrainFraction >= 1 {
		cfg.TrainFraction = 0.5
	}
	if cfg.MinGroupSize <= 0 {
		cfg.MinGroupSize = def.MinGroupSize
	}
	return cfg
}
