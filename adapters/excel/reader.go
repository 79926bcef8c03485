package excel

import (
	"strconv"

	"gosvca/domain/recording"
	"gosvca/internal/errors"

	"github.com/xuri/excelize/v2"
)

// ActivityReader loads a recording from an Excel workbook. The expected
// layout is one row per unit on the first sheet: the first column is the
// unit's coordinate, the remaining columns are its time samples. A
// non-numeric first row is treated as a header and skipped.
type ActivityReader struct {
	filePath string
}

// NewActivityReader creates a reader for the given workbook path
func NewActivityReader(filePath string) *ActivityReader {
	return &ActivityReader{filePath: filePath}
}

// ReadRecording loads the activity matrix and coordinates
func (r *ActivityReader) ReadRecording(name string) (*recording.Recording, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open workbook %s", r.filePath)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInputf("workbook %s has no sheets", r.filePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheets[0])
	}
	if len(rows) > 0 && isHeader(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, errors.InvalidInputf("workbook %s contains no data rows", r.filePath)
	}

	samples := len(rows[0]) - 1
	if samples < 1 {
		return nil, errors.InvalidInput("rows need a coordinate column plus at least one sample column")
	}

	units := len(rows)
	data := make([]float64, 0, units*samples)
	coords := make([][]float64, 0, units)
	for i, row := range rows {
		if len(row) != samples+1 {
			return nil, errors.InvalidInputf("row %d has %d columns, expected %d", i+1, len(row), samples+1)
		}
		coord, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, errors.InvalidInputf("row %d has non-numeric coordinate %q", i+1, row[0])
		}
		coords = append(coords, []float64{coord})
		for j, cell := range row[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.InvalidInputf("row %d column %d has non-numeric value %q", i+1, j+2, cell)
			}
			data = append(data, v)
		}
	}

	rec := recording.New(name, units, samples, data, coords)
	if err := rec.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return rec, nil
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	_, err := strconv.ParseFloat(row[0], 64)
	return err != nil
}
