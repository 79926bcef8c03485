package excel

import (
	"fmt"
	"io"

	"gosvca/internal/errors"
	"gosvca/models"

	"github.com/xuri/excelize/v2"
)

// SpectrumWriter exports an analysis run's variance spectrum to an Excel
// workbook: one sheet with the per-component vectors, one with the run's
// summary descriptors and partition geometry.
type SpectrumWriter struct{}

// NewSpectrumWriter creates a new spectrum writer
func NewSpectrumWriter() *SpectrumWriter {
	return &SpectrumWriter{}
}

// Write streams the workbook for a run to w
func (sw *SpectrumWriter) Write(run *models.AnalysisRun, w io.Writer) error {
	f, err := sw.build(run)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write spectrum workbook")
	}
	return nil
}

// Save writes the workbook for a run to the given path
func (sw *SpectrumWriter) Save(run *models.AnalysisRun, path string) error {
	f, err := sw.build(run)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save spectrum workbook to %s", path)
	}
	return nil
}

func (sw *SpectrumWriter) build(run *models.AnalysisRun) (*excelize.File, error) {
	if run == nil {
		return nil, errors.InvalidInput("run is nil")
	}

	f := excelize.NewFile()
	const spectrumSheet = "Spectrum"
	if err := f.SetSheetName("Sheet1", spectrumSheet); err != nil {
		return nil, errors.Wrap(err, "failed to rename spectrum sheet")
	}

	headers := []string{"Component", "SingularValue", "SharedVariance", "AllVariance", "Reliability"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(spectrumSheet, cell, h); err != nil {
			return nil, errors.Wrap(err, "failed to write spectrum header")
		}
	}
	for i := range run.SharedVariance {
		row := i + 2
		values := []interface{}{
			i + 1,
			valueAt(run.SingularValues, i),
			run.SharedVariance[i],
			valueAt(run.AllVariance, i),
			valueAt(run.Reliability, i),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(spectrumSheet, cell, v); err != nil {
				return nil, errors.Wrap(err, "failed to write spectrum row")
			}
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, errors.Wrap(err, "failed to create summary sheet")
	}
	rows := [][2]interface{}{
		{"RunID", run.ID.String()},
		{"Recording", run.RecordingName},
		{"Units", run.Units},
		{"Samples", run.Samples},
		{"Group1Size", run.Group1Size},
		{"Group2Size", run.Group2Size},
		{"ExcludedUnits", run.ExcludedUnits},
		{"TrainSamples", run.TrainSamples},
		{"TestSamples", run.TestSamples},
		{"Components", run.Components()},
		{"Truncated", run.Truncated},
		{"CreatedAt", run.CreatedAt.Format("2006-01-02 15:04:05")},
	}
	if run.Summary != nil {
		rows = append(rows,
			[2]interface{}{"EffectiveDim", run.Summary.EffectiveDim},
			[2]interface{}{"TotalShared", run.Summary.TotalShared},
			[2]interface{}{"MeanReliability", run.Summary.MeanReliability},
			[2]interface{}{"MaxReliability", run.Summary.MaxReliability},
			[2]interface{}{"PowerLawExponent", run.Summary.PowerLawExponent},
		)
	}
	for i, kv := range rows {
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), kv[0]); err != nil {
			return nil, errors.Wrap(err, "failed to write summary key")
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), kv[1]); err != nil {
			return nil, errors.Wrap(err, "failed to write summary value")
		}
	}

	return f, nil
}

func valueAt(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}
