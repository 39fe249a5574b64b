package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/blood-donation-forecast/internal/adapter/http"
	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"github.com/couchcryptid/blood-donation-forecast/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	readyErr  error
	report    pipeline.Report
	reportErr error
	forecasts map[int]pipeline.ForecastReport
	lastDays  int
}

func (m *mockService) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockService) Report() (pipeline.Report, error) { return m.report, m.reportErr }

func (m *mockService) Forecast(days int) (pipeline.ForecastReport, error) {
	m.lastDays = days
	if days < 1 || days > pipeline.MaxHorizon {
		return pipeline.ForecastReport{}, fmt.Errorf("forecast %d days: %w", days, domain.ErrInvalidArgument)
	}
	fc, ok := m.forecasts[days]
	if !ok {
		return pipeline.ForecastReport{}, fmt.Errorf("forecast: %w", domain.ErrModelNotTrained)
	}
	return fc, nil
}

func newTestServer(svc *mockService) *httpadapter.Server {
	return httpadapter.NewServer(":0", svc, 30, slog.Default())
}

func get(srv *httpadapter.Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(&mockService{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(&mockService{}), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(&mockService{readyErr: fmt.Errorf("no trained pipeline yet")}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no trained pipeline yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(&mockService{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestReportEndpoint(t *testing.T) {
	svc := &mockService{report: pipeline.Report{
		RunID:         "run-1",
		SelectedModel: "Random Forest",
		Models: []pipeline.ModelComparison{
			{Name: "Ridge", MeanR2: 0.61, StdR2: 0.02},
		},
		ImportancesAvailable: true,
	}}
	rec := get(newTestServer(svc), "/report")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, "Random Forest", body["selected_model"])
	assert.Equal(t, true, body["importances_available"])

	t.Run("not trained", func(t *testing.T) {
		svc := &mockService{reportErr: fmt.Errorf("report: %w", domain.ErrModelNotTrained)}
		rec := get(newTestServer(svc), "/report")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("internal error", func(t *testing.T) {
		svc := &mockService{reportErr: fmt.Errorf("boom")}
		rec := get(newTestServer(svc), "/report")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestForecastEndpoint(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := &mockService{forecasts: map[int]pipeline.ForecastReport{
		30: {Total: 3000, Mean: 100},
		2: {
			Points: []domain.ForecastPoint{
				{Date: day, PredictedDonations: 40},
				{Date: day.AddDate(0, 0, 1), PredictedDonations: 60},
			},
			Total: 100,
			Mean:  50,
		},
	}}
	srv := newTestServer(svc)

	t.Run("explicit days", func(t *testing.T) {
		rec := get(srv, "/forecast?days=2")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Points []struct {
				Date               time.Time `json:"date"`
				PredictedDonations float64   `json:"predicted_donations"`
			} `json:"points"`
			Total float64 `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Points, 2)
		assert.True(t, day.Equal(body.Points[0].Date))
		assert.Equal(t, 60.0, body.Points[1].PredictedDonations)
		assert.Equal(t, 100.0, body.Total)
	})

	t.Run("default horizon", func(t *testing.T) {
		rec := get(srv, "/forecast")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 30, svc.lastDays)
	})

	tests := []struct {
		target string
		want   int
	}{
		{"/forecast?days=abc", http.StatusBadRequest},
		{"/forecast?days=0", http.StatusBadRequest},
		{"/forecast?days=366", http.StatusBadRequest},
		{"/forecast?days=5", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(srv, tt.target)
			assert.Equal(t, tt.want, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestForecastEndpointRejectsPost(t *testing.T) {
	srv := newTestServer(&mockService{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/forecast", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
