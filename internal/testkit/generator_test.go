package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticGenerator_ShapesAndCoords(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.Units = 40
	cfg.Samples = 200
	cfg.CoordSpacing = 2.5

	rec := NewSyntheticGenerator(cfg).Generate()
	require.NoError(t, rec.Validate())

	assert.Equal(t, 40, rec.Units())
	assert.Equal(t, 200, rec.Samples())
	require.Len(t, rec.Coords, 40)
	assert.Equal(t, []float64{0}, rec.Coords[0])
	assert.Equal(t, []float64{97.5}, rec.Coords[39])
}

func TestSyntheticGenerator_Deterministic(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.Units = 20
	cfg.Samples = 100

	a := NewSyntheticGenerator(cfg).Generate()
	b := NewSyntheticGenerator(cfg).Generate()

	for i := 0; i < a.Units(); i++ {
		for j := 0; j < a.Samples(); j++ {
			require.Equal(t, a.Activity.At(i, j), b.Activity.At(i, j),
				"activity differs at (%d, %d) for identical seeds", i, j)
		}
	}
}

func TestSyntheticGenerator_SeedChangesData(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.Units = 20
	cfg.Samples = 100

	a := NewSyntheticGenerator(cfg).Generate()
	cfg.Seed = 7
	b := NewSyntheticGenerator(cfg).Generate()

	different := false
	for i := 0; i < a.Units() && !different; i++ {
		for j := 0; j < a.Samples(); j++ {
			if a.Activity.At(i, j) != b.Activity.At(i, j) {
				different = true
				break
			}
		}
	}
	assert.True(t, different)
}

func TestGenerateNoise_HasNoFactors(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.Units = 10
	cfg.Samples = 50
	rec := NewSyntheticGenerator(cfg).GenerateNoise()
	require.NoError(t, rec.Validate())
	assert.Equal(t, 10, rec.Units())
	assert.Equal(t, 50, rec.Samples())
}
