package recording

import (
	"math"
	"strconv"

	"gosvca/domain/core"

	"gonum.org/v1/gonum/mat"
)

// Recording represents a block of simultaneously recorded activity:
// one row per measurement unit (e.g. neuron), one column per time sample,
// plus a spatial coordinate per unit used only for group assignment.
type Recording struct {
	ID       core.RecordingID `json:"id"`
	Name     string           `json:"name"`
	Activity *mat.Dense       `json:"-"` // units × time
	Coords   [][]float64      `json:"-"` // one coordinate vector per unit
}

// New creates a recording from a row-major activity slice (units × time)
// and per-unit coordinates.
func New(name string, units, samples int, data []float64, coords [][]float64) *Recording {
	return &Recording{
		ID:       core.RecordingID(core.NewID()),
		Name:     name,
		Activity: mat.NewDense(units, samples, data),
		Coords:   coords,
	}
}

// Units returns the number of measurement units (rows)
func (r *Recording) Units() int {
	u, _ := r.Activity.Dims()
	return u
}

// Samples returns the number of time samples (columns)
func (r *Recording) Samples() int {
	_, s := r.Activity.Dims()
	return s
}

// Validate checks the structural preconditions: a non-empty matrix with
// finite entries and exactly one coordinate vector per unit.
func (r *Recording) Validate() error {
	if r.Activity == nil {
		return core.NewValidationError("activity", "matrix is nil")
	}
	units, samples := r.Activity.Dims()
	if units == 0 || samples == 0 {
		return core.NewValidationError("activity", "matrix is empty")
	}
	if len(r.Coords) != units {
		return core.NewValidationError("coords", "coordinate count does not match unit count")
	}
	dim := len(r.Coords[0])
	if dim == 0 {
		return core.NewValidationError("coords", "coordinate dimension is zero")
	}
	for i, c := range r.Coords {
		if len(c) != dim {
			return core.NewValidationError("coords", "ragged coordinate vectors")
		}
		for _, v := range c {
			if !isFinite(v) {
				return core.NewValidationError("coords", "non-finite coordinate for unit "+strconv.Itoa(i))
			}
		}
	}
	for i := 0; i < units; i++ {
		for j := 0; j < samples; j++ {
			if !isFinite(r.Activity.At(i, j)) {
				return core.NewValidationError("activity", "non-finite value at unit "+strconv.Itoa(i))
			}
		}
	}
	return nil
}

// CoordDistance returns the Euclidean distance between two units' coordinates
func (r *Recording) CoordDistance(i, j int) float64 {
	sum := 0.0
	for d := range r.Coords[i] {
		diff := r.Coords[i][d] - r.Coords[j][d]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
