package analysis

import (
	"gosvca/domain/svca"
	"gosvca/internal/errors"

	"github.com/montanaflynn/stats"
)

// SpectrumSummary condenses an SVCA result into scalar descriptors of the
// shared-variance spectrum.
type SpectrumSummary struct {
	Components        int       `json:"components"`
	TotalShared       float64   `json:"total_shared"`
	MeanReliability   float64   `json:"mean_reliability"`
	MedianReliability float64   `json:"median_reliability"`
	MaxReliability    float64   `json:"max_reliability"`
	EffectiveDim      int       `json:"effective_dim"`
	CumulativeShared  []float64 `json:"cumulative_shared"`
	PowerLawExponent  float64   `json:"power_law_exponent"`
	PowerLawAmplitude float64   `json:"power_law_amplitude"`
}

// DefaultReliabilityThreshold separates reliably shared components from
// noise-dominated ones when counting the effective dimensionality.
const DefaultReliabilityThreshold = 0.2

// SummarizeSpectrum computes summary descriptors over a result's
// shared-variance spectrum. The reliability threshold decides which
// components count toward the effective dimensionality; pass 0 for the
// default.
func SummarizeSpectrum(result *svca.Result, reliabilityThreshold float64) (*SpectrumSummary, error) {
	if result == nil {
		return nil, errors.InvalidInput("result is nil")
	}
	if reliabilityThreshold <= 0 {
		reliabilityThreshold = DefaultReliabilityThreshold
	}

	summary := &SpectrumSummary{Components: result.Components()}
	if result.Components() == 0 {
		return summary, nil
	}

	reliability := result.Reliability()
	for _, r := range reliability {
		if r >= reliabilityThreshold {
			summary.EffectiveDim++
		}
	}

	var err error
	if summary.MeanReliability, err = stats.Mean(reliability); err != nil {
		return nil, errors.Wrap(err, "failed to compute mean reliability")
	}
	if summary.MedianReliability, err = stats.Median(reliability); err != nil {
		return nil, errors.Wrap(err, "failed to compute median reliability")
	}
	if summary.MaxReliability, err = stats.Max(reliability); err != nil {
		return nil, errors.Wrap(err, "failed to compute max reliability")
	}

	for _, s := range result.SharedVariance {
		summary.TotalShared += s
	}
	summary.CumulativeShared = make([]float64, len(result.SharedVariance))
	running := 0.0
	for i, s := range result.SharedVariance {
		running += s
		if summary.TotalShared != 0 {
			summary.CumulativeShared[i] = running / summary.TotalShared
		}
	}

	// The power-law fit needs a few positive entries; a flat or noise-only
	// spectrum simply reports a zero exponent.
	if p, a, fitErr := FitPowerLaw(componentIndex(len(result.SharedVariance)), result.SharedVariance); fitErr == nil {
		summary.PowerLawExponent = p
		summary.PowerLawAmplitude = a
	}

	return summary, nil
}

func componentIndex(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i + 1)
	}
	return x
}
