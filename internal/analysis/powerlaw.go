package analysis

import (
	"math"

	"gosvca/internal/errors"

	"gonum.org/v1/gonum/stat"
)

// FitPowerLaw fits y = a·x^p by ordinary least squares in log-log space
// and returns the exponent p and amplitude a. Non-positive samples cannot
// be log-transformed and are skipped; at least two usable points are
// required.
func FitPowerLaw(x, y []float64) (p, a float64, err error) {
	if len(x) != len(y) {
		return 0, 0, errors.InvalidInputf("x and y lengths differ (%d vs %d)", len(x), len(y))
	}

	var logX, logY []float64
	for i := range x {
		if x[i] <= 0 || y[i] <= 0 {
			continue
		}
		logX = append(logX, math.Log(x[i]))
		logY = append(logY, math.Log(y[i]))
	}
	if len(logX) < 2 {
		return 0, 0, errors.InvalidInputf("need at least 2 positive points for a power-law fit, got %d", len(logX))
	}

	alpha, beta := stat.LinearRegression(logX, logY, nil, false)
	return beta, math.Exp(alpha), nil
}

// SpectrumExponent fits a power law to a shared-variance spectrum using the
// 1-based component index as x. Dimensionality estimates in this method
// hinge on the decay exponent of this spectrum.
func SpectrumExponent(sharedVariance []float64) (float64, error) {
	x := make([]float64, len(sharedVariance))
	for i := range x {
		x[i] = float64(i + 1)
	}
	p, _, err := FitPowerLaw(x, sharedVariance)
	if err != nil {
		return 0, err
	}
	return p, nil
}
