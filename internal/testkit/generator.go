package testkit

import (
	"fmt"
	"math/rand"

	"gosvca/domain/recording"
)

// SyntheticConfig configures the synthetic recording generator
type SyntheticConfig struct {
	Units           int     `json:"units"`
	Samples         int     `json:"samples"`
	SharedFactors   int     `json:"shared_factors"`
	FactorAmplitude float64 `json:"factor_amplitude"`
	NoiseAmplitude  float64 `json:"noise_amplitude"`
	CoordSpacing    float64 `json:"coord_spacing"`
	Seed            int64   `json:"seed"`
}

// DefaultSyntheticConfig returns sensible defaults for synthetic data generation
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Units:           100,
		Samples:         1000,
		SharedFactors:   3,
		FactorAmplitude: 5,
		NoiseAmplitude:  1,
		CoordSpacing:    1,
		Seed:            42,
	}
}

// SyntheticGenerator builds recordings with known ground truth: a handful
// of latent factors shared across all units (each unit with its own random
// loading, so the shared subspace keeps full factor rank) plus independent
// Gaussian noise per unit. Coordinates are linearly spaced along one axis.
type SyntheticGenerator struct {
	config SyntheticConfig
	rng    *rand.Rand
}

// NewSyntheticGenerator creates a new synthetic recording generator
func NewSyntheticGenerator(config SyntheticConfig) *SyntheticGenerator {
	return &SyntheticGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds a synthetic recording
func (g *SyntheticGenerator) Generate() *recording.Recording {
	cfg := g.config

	// Latent factor time courses, one per shared factor
	latents := make([][]float64, cfg.SharedFactors)
	for k := range latents {
		latents[k] = make([]float64, cfg.Samples)
		for t := range latents[k] {
			latents[k][t] = g.rng.NormFloat64()
		}
	}

	// Per-unit factor loadings
	loadings := make([][]float64, cfg.Units)
	for i := range loadings {
		loadings[i] = make([]float64, cfg.SharedFactors)
		for k := range loadings[i] {
			loadings[i][k] = g.rng.NormFloat64()
		}
	}

	data := make([]float64, cfg.Units*cfg.Samples)
	coords := make([][]float64, cfg.Units)
	for i := 0; i < cfg.Units; i++ {
		coords[i] = []float64{float64(i) * cfg.CoordSpacing}
		for t := 0; t < cfg.Samples; t++ {
			v := cfg.NoiseAmplitude * g.rng.NormFloat64()
			for k := 0; k < cfg.SharedFactors; k++ {
				v += cfg.FactorAmplitude * loadings[i][k] * latents[k][t]
			}
			data[i*cfg.Samples+t] = v
		}
	}

	name := fmt.Sprintf("synthetic-%du-%ds-%df-seed%d",
		cfg.Units, cfg.Samples, cfg.SharedFactors, cfg.Seed)
	return recording.New(name, cfg.Units, cfg.Samples, data, coords)
}

// GenerateNoise builds a recording with no shared structure at all
func (g *SyntheticGenerator) GenerateNoise() *recording.Recording {
	cfg := g.config
	cfg.SharedFactors = 0
	return (&SyntheticGenerator{config: cfg, rng: g.rng}).Generate()
}
