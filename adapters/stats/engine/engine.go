package engine

import (
	"math"

	"gosvca/domain/svca"
	"gosvca/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// SVCAEngine computes cross-validated shared variance components.
// The train windows define a cross-covariance between the two unit groups;
// its SVD supplies one orthonormal basis per group, and the held-out test
// windows projected onto those bases give unbiased per-component variance
// estimates. The engine is stateless; every call works on fresh output.
type SVCAEngine struct{}

// NewSVCAEngine creates a new SVCA engine
func NewSVCAEngine() *SVCAEngine {
	return &SVCAEngine{}
}

// Estimate runs SVCA over the four split matrices.
//
// The train cross-covariance C = Ftrain·Gtrainᵗ/Ttrain is factored as
// C = U·S·Vᵗ; test windows are projected as SVC1 = Uᵗ·Ftest and
// SVC2 = Vᵗ·Gtest. For component k,
//
//	shared_variance[k] = mean_t SVC1[k,t]·SVC2[k,t]
//	all_variance[k]    = (mean_t SVC1[k,t]² + mean_t SVC2[k,t]²) / 2
//
// Components keep the SVD's descending singular-value order. Singular
// vectors carry an arbitrary sign, but both outputs are bilinear in matched
// U/V pairs, so the sign cancels. A rank-deficient covariance yields fewer
// components than requested rather than an error.
func (e *SVCAEngine) Estimate(split *svca.Split, cfg svca.Config) (*svca.Result, error) {
	if err := validateSplit(split); err != nil {
		return nil, err
	}
	if cfg.ZeroTolerance <= 0 {
		cfg.ZeroTolerance = svca.DefaultConfig().ZeroTolerance
	}

	n1, ttrain := split.Ftrain.Dims()
	n2, _ := split.Gtrain.Dims()
	_, ttest := split.Ftest.Dims()

	// Train cross-covariance between the two groups
	var c mat.Dense
	c.Mul(split.Ftrain, split.Gtrain.T())
	c.Scale(1/float64(ttrain), &c)

	var svd mat.SVD
	if ok := svd.Factorize(&c, mat.SVDThin); !ok {
		return nil, errors.InternalError("SVD of train covariance failed to converge")
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	maxRank := n1
	if n2 < maxRank {
		maxRank = n2
	}
	requested := cfg.MaxComponents
	if requested <= 0 || requested > maxRank {
		requested = maxRank
	}

	// Count components above the relative zero tolerance. Values are
	// descending, so the first sub-threshold value ends the usable range.
	usable := 0
	if len(values) > 0 && values[0] > 0 {
		floor := values[0] * cfg.ZeroTolerance
		for _, s := range values {
			if s <= floor {
				break
			}
			usable++
		}
	}

	k := requested
	if !cfg.KeepZero && usable < k {
		k = usable
	}
	truncated := k < requested

	result := &svca.Result{
		SharedVariance: make([]float64, k),
		AllVariance:    make([]float64, k),
		SingularValues: append([]float64(nil), values[:k]...),
		Requested:      requested,
		Truncated:      truncated,
	}
	if k == 0 {
		return result, nil
	}

	uk := u.Slice(0, n1, 0, k).(*mat.Dense)
	vk := v.Slice(0, n2, 0, k).(*mat.Dense)

	// Project held-out samples onto the train-derived bases
	var p1, p2 mat.Dense
	p1.Mul(uk.T(), split.Ftest)
	p2.Mul(vk.T(), split.Gtest)

	for i := 0; i < k; i++ {
		var cross, var1, var2 float64
		for t := 0; t < ttest; t++ {
			a := p1.At(i, t)
			b := p2.At(i, t)
			cross += a * b
			var1 += a * a
			var2 += b * b
		}
		result.SharedVariance[i] = cross / float64(ttest)
		result.AllVariance[i] = 0.5 * (var1 + var2) / float64(ttest)
	}

	result.SVC1 = &p1
	result.SVC2 = &p2
	result.Basis1 = mat.DenseCopyOf(uk)
	result.Basis2 = mat.DenseCopyOf(vk)
	return result, nil
}

// validateSplit checks the pairing invariants between the four matrices
// and rejects non-finite values.
func validateSplit(split *svca.Split) error {
	if split == nil || split.Ftrain == nil || split.Ftest == nil || split.Gtrain == nil || split.Gtest == nil {
		return errors.InvalidInput("split is missing one or more matrices")
	}

	n1, ttrain := split.Ftrain.Dims()
	n1test, ttest := split.Ftest.Dims()
	n2, gtrain := split.Gtrain.Dims()
	n2test, gtest := split.Gtest.Dims()

	if n1 != n1test {
		return errors.InvalidInputf("group 1 unit count differs between train (%d) and test (%d)", n1, n1test)
	}
	if n2 != n2test {
		return errors.InvalidInputf("group 2 unit count differs between train (%d) and test (%d)", n2, n2test)
	}
	if ttrain != gtrain {
		return errors.InvalidInputf("train sample count differs between groups (%d vs %d)", ttrain, gtrain)
	}
	if ttest != gtest {
		return errors.InvalidInputf("test sample count differs between groups (%d vs %d)", ttest, gtest)
	}
	if ttrain == 0 || ttest == 0 {
		return errors.InvalidInput("empty train or test window")
	}

	for name, m := range map[string]*mat.Dense{
		"Ftrain": split.Ftrain, "Ftest": split.Ftest,
		"Gtrain": split.Gtrain, "Gtest": split.Gtest,
	} {
		rows, cols := m.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				v := m.At(i, j)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return errors.InvalidInputf("%s contains a non-finite value at (%d, %d)", name, i, j)
				}
			}
		}
	}
	return nil
}
