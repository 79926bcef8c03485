package ui

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gosvca/adapters/excel"
	"gosvca/app"
	"gosvca/domain/recording"
	"gosvca/domain/svca"
	"gosvca/internal/errors"
	"gosvca/internal/testkit"
	"gosvca/models"
)

// RecordingPayload carries an inline activity matrix: one row per unit,
// one coordinate vector per unit.
type RecordingPayload struct {
	Name     string      `json:"name"`
	Activity [][]float64 `json:"activity"`
	Coords   [][]float64 `json:"coords"`
}

// CreateRunRequest is the body of POST /api/runs. Either an inline
// recording or a synthetic generator config must be present.
type CreateRunRequest struct {
	Recording            *RecordingPayload        `json:"recording,omitempty"`
	Synthetic            *testkit.SyntheticConfig `json:"synthetic,omitempty"`
	SplitConfig          svca.SplitConfig         `json:"split_config"`
	SVCAConfig           svca.Config              `json:"svca_config"`
	ReliabilityThreshold float64                  `json:"reliability_threshold"`
}

// CreateSweepRequest is the body of POST /api/sweeps
type CreateSweepRequest struct {
	CreateRunRequest
	Seeds              []int64   `json:"seeds"`
	ExclusionDistances []float64 `json:"exclusion_distances"`
	Parallelism        int       `json:"parallelism"`
}

// SweepCellResponse is one grid cell of a sweep response
type SweepCellResponse struct {
	Seed              int64               `json:"seed"`
	ExclusionDistance float64             `json:"exclusion_distance"`
	Run               *models.AnalysisRun `json:"run"`
}

func (a *App) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.InvalidInput("malformed JSON body"))
		return
	}

	rec, err := resolveRecording(&req)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, err := a.analysis.Run(r.Context(), app.AnalysisRequest{
		Recording:            rec,
		Split:                req.SplitConfig,
		SVCA:                 req.SVCAConfig,
		ReliabilityThreshold: req.ReliabilityThreshold,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, outcome.Run)
}

func (a *App) handleCreateSweep(w http.ResponseWriter, r *http.Request) {
	var req CreateSweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.InvalidInput("malformed JSON body"))
		return
	}

	rec, err := resolveRecording(&req.CreateRunRequest)
	if err != nil {
		writeError(w, err)
		return
	}

	cells, err := a.sweeps.RunSweep(r.Context(), app.SweepSpec{
		Base: app.AnalysisRequest{
			Recording:            rec,
			Split:                req.SplitConfig,
			SVCA:                 req.SVCAConfig,
			ReliabilityThreshold: req.ReliabilityThreshold,
		},
		Seeds:              req.Seeds,
		ExclusionDistances: req.ExclusionDistances,
		Parallelism:        req.Parallelism,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]SweepCellResponse, len(cells))
	for i, c := range cells {
		resp[i] = SweepCellResponse{
			Seed:              c.Seed,
			ExclusionDistance: c.ExclusionDistance,
			Run:               c.Outcome.Run,
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *App) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := a.runs.ListRuns(r.Context(), 50)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := a.lookupRun(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (a *App) handleRunReport(w http.ResponseWriter, r *http.Request) {
	run, err := a.lookupRun(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(RenderReportHTML(run))
}

func (a *App) handleRunExport(w http.ResponseWriter, r *http.Request) {
	run, err := a.lookupRun(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=svca-%s.xlsx", run.ID))
	if err := excel.NewSpectrumWriter().Write(run, w); err != nil {
		a.logger.Error("export of run %s failed: %v", run.ID, err)
	}
}

func (a *App) lookupRun(r *http.Request) (*models.AnalysisRun, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, errors.InvalidInput("run id must be a UUID")
	}
	run, err := a.runs.GetRun(r.Context(), id)
	if err != nil {
		return nil, errors.WithCode(errors.CodeNotFound, err)
	}
	return run, nil
}

// resolveRecording turns a request into a recording, generating synthetic
// data when no inline matrix was supplied
func resolveRecording(req *CreateRunRequest) (*recording.Recording, error) {
	if req.Recording != nil {
		p := req.Recording
		if len(p.Activity) == 0 || len(p.Activity[0]) == 0 {
			return nil, errors.InvalidInput("recording activity is empty")
		}
		units := len(p.Activity)
		samples := len(p.Activity[0])
		data := make([]float64, 0, units*samples)
		for i, row := range p.Activity {
			if len(row) != samples {
				return nil, errors.InvalidInputf("activity row %d has %d samples, expected %d", i, len(row), samples)
			}
			data = append(data, row...)
		}
		name := p.Name
		if name == "" {
			name = "inline"
		}
		rec := recording.New(name, units, samples, data, p.Coords)
		if err := rec.Validate(); err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, err)
		}
		return rec, nil
	}
	if req.Synthetic != nil {
		cfg := *req.Synthetic
		if cfg.Units <= 0 {
			cfg = testkit.DefaultSyntheticConfig()
		}
		return testkit.NewSyntheticGenerator(cfg).Generate(), nil
	}
	return nil, errors.InvalidInput("request needs either a recording or a synthetic config")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeConfigInvalid:
		status = http.StatusBadRequest
	case errors.CodeInsufficientUnits, errors.CodeInsufficientSamples, errors.CodeInsufficientRank:
		status = http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
