package models

import (
	"time"

	"gosvca/domain/svca"
	"gosvca/internal/analysis"

	"github.com/google/uuid"
)

// AnalysisRun is the persisted record of one SVCA invocation: the
// configuration it ran with, the partition geometry it produced, and the
// resulting variance spectrum.
type AnalysisRun struct {
	ID            uuid.UUID `json:"id" db:"id"`
	RecordingName string    `json:"recording_name" db:"recording_name"`

	Units         int `json:"units" db:"units"`
	Samples       int `json:"samples" db:"samples"`
	Group1Size    int `json:"group1_size" db:"group1_size"`
	Group2Size    int `json:"group2_size" db:"group2_size"`
	ExcludedUnits int `json:"excluded_units" db:"excluded_units"`
	TrainSamples  int `json:"train_samples" db:"train_samples"`
	TestSamples   int `json:"test_samples" db:"test_samples"`

	SplitConfig svca.SplitConfig `json:"split_config"`
	SVCAConfig  svca.Config      `json:"svca_config"`

	SharedVariance []float64                 `json:"shared_variance"`
	AllVariance    []float64                 `json:"all_variance"`
	SingularValues []float64                 `json:"singular_values"`
	Reliability    []float64                 `json:"reliability"`
	Summary        *analysis.SpectrumSummary `json:"summary,omitempty"`
	Truncated      bool                      `json:"truncated" db:"truncated"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Components returns the number of retained components in this run
func (r *AnalysisRun) Components() int {
	return len(r.SharedVariance)
}
