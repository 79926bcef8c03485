package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gosvca/app"
	"gosvca/domain/svca"
	"gosvca/internal"
	"gosvca/internal/testkit"
	"gosvca/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() (*App, *testkit.InMemoryRunRepository) {
	repo := testkit.NewInMemoryRunRepository()
	logger := internal.NewLogger(internal.LogLevelError)
	analysisService := app.NewAnalysisService(repo, logger)
	sweepService := app.NewSweepService(analysisService, logger)
	return NewApp(analysisService, sweepService, repo, logger), repo
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateRun_Synthetic(t *testing.T) {
	server, _ := newTestApp()

	rec := postJSON(t, server.Router(), "/api/runs", CreateRunRequest{
		Synthetic: &testkit.SyntheticConfig{
			Units:           50,
			Samples:         500,
			SharedFactors:   2,
			FactorAmplitude: 4,
			NoiseAmplitude:  1,
			CoordSpacing:    1,
			Seed:            9,
		},
		SplitConfig: svca.DefaultSplitConfig(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var run models.AnalysisRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, 50, run.Units)
	assert.NotEmpty(t, run.SharedVariance)
	require.NotNil(t, run.Summary)
	assert.GreaterOrEqual(t, run.Summary.EffectiveDim, 2)
}

func TestCreateRun_RequiresData(t *testing.T) {
	server, _ := newTestApp()
	rec := postJSON(t, server.Router(), "/api/runs", CreateRunRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRun_InsufficientUnitsMapsTo422(t *testing.T) {
	server, _ := newTestApp()

	cfg := svca.DefaultSplitConfig()
	cfg.ExclusionDistance = 1000

	rec := postJSON(t, server.Router(), "/api/runs", CreateRunRequest{
		Synthetic: &testkit.SyntheticConfig{
			Units: 30, Samples: 300, NoiseAmplitude: 1, CoordSpacing: 1, Seed: 2,
		},
		SplitConfig: cfg,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetRunAndReportAndExport(t *testing.T) {
	server, _ := newTestApp()

	created := postJSON(t, server.Router(), "/api/runs", CreateRunRequest{
		Synthetic: &testkit.SyntheticConfig{
			Units: 40, Samples: 400, SharedFactors: 2, FactorAmplitude: 4,
			NoiseAmplitude: 1, CoordSpacing: 1, Seed: 3,
		},
		SplitConfig: svca.DefaultSplitConfig(),
	})
	require.Equal(t, http.StatusCreated, created.Code)
	var run models.AnalysisRun
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &run))

	get := httptest.NewRecorder()
	server.Router().ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID.String(), nil))
	assert.Equal(t, http.StatusOK, get.Code)

	report := httptest.NewRecorder()
	server.Router().ServeHTTP(report, httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID.String()+"/report", nil))
	assert.Equal(t, http.StatusOK, report.Code)
	assert.Contains(t, report.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, report.Body.String(), "SVCA Run")

	export := httptest.NewRecorder()
	server.Router().ServeHTTP(export, httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID.String()+"/export", nil))
	assert.Equal(t, http.StatusOK, export.Code)
	assert.Contains(t, export.Header().Get("Content-Disposition"), "attachment")
	assert.NotZero(t, export.Body.Len())

	missing := httptest.NewRecorder()
	server.Router().ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/api/runs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestListRuns(t *testing.T) {
	server, _ := newTestApp()

	for seed := int64(1); seed <= 3; seed++ {
		rec := postJSON(t, server.Router(), "/api/runs", CreateRunRequest{
			Synthetic: &testkit.SyntheticConfig{
				Units: 30, Samples: 300, SharedFactors: 1, FactorAmplitude: 3,
				NoiseAmplitude: 1, CoordSpacing: 1, Seed: seed,
			},
			SplitConfig: svca.DefaultSplitConfig(),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	list := httptest.NewRecorder()
	server.Router().ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, list.Code)

	var runs []*models.AnalysisRun
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &runs))
	assert.Len(t, runs, 3)
}

func TestCreateSweep(t *testing.T) {
	server, _ := newTestApp()

	body := CreateSweepRequest{
		CreateRunRequest: CreateRunRequest{
			Synthetic: &testkit.SyntheticConfig{
				Units: 40, Samples: 400, SharedFactors: 2, FactorAmplitude: 4,
				NoiseAmplitude: 1, CoordSpacing: 1, Seed: 8,
			},
			SplitConfig: svca.DefaultSplitConfig(),
		},
		Seeds:       []int64{1, 2},
		Parallelism: 2,
	}
	rec := postJSON(t, server.Router(), "/api/sweeps", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var cells []SweepCellResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cells))
	require.Len(t, cells, 2)
	assert.Equal(t, int64(1), cells[0].Seed)
	assert.Equal(t, int64(2), cells[1].Seed)
}

func TestReportMarkdown(t *testing.T) {
	run := &models.AnalysisRun{
		RecordingName:  "demo",
		Units:          10,
		Samples:        100,
		Group1Size:     5,
		Group2Size:     5,
		TrainSamples:   60,
		TestSamples:    40,
		SharedVariance: []float64{1.5, 0.2},
		AllVariance:    []float64{1.6, 1.0},
		Reliability:    []float64{0.9375, 0.2},
	}
	md := BuildReportMarkdown(run)
	assert.True(t, strings.Contains(md, "## Partition"))
	assert.True(t, strings.Contains(md, "| 1 | 1.5000 |"))

	html := string(RenderReportHTML(run))
	assert.Contains(t, html, "<table>")
}
