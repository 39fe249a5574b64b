package pipeline

import (
	"math"
	"strconv"
	"time"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"github.com/couchcryptid/blood-donation-forecast/internal/model"
)

// Score is a metric value that encodes as JSON null when it is not finite,
// since R² is NaN or −Inf on constant targets.
type Score float64

// MarshalJSON implements json.Marshaler.
func (s Score) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// ModelComparison is one candidate's cross-validation summary.
type ModelComparison struct {
	Name   string `json:"name"`
	MeanR2 Score  `json:"mean_r2"`
	StdR2  Score  `json:"std_r2"`
}

// TestMetrics are the held-out errors of the selected model.
type TestMetrics struct {
	MAE  Score `json:"mae"`
	RMSE Score `json:"rmse"`
	R2   Score `json:"r2"`
}

// ForecastReport is an ordered forecast with its aggregates.
type ForecastReport struct {
	Points []domain.ForecastPoint `json:"points"`
	Total  float64                `json:"total"`
	Mean   float64                `json:"mean"`
}

// NewForecastReport sums the points. The mean of an empty forecast is 0.
func NewForecastReport(points []domain.ForecastPoint) ForecastReport {
	var total float64
	for _, p := range points {
		total += p.PredictedDonations
	}
	r := ForecastReport{Points: points, Total: total}
	if len(points) > 0 {
		r.Mean = total / float64(len(points))
	}
	return r
}

// Report summarizes one training run.
type Report struct {
	RunID         string            `json:"run_id"`
	GeneratedAt   time.Time         `json:"generated_at"`
	Records       int               `json:"records"`
	TrainRows     int               `json:"train_rows"`
	TestRows      int               `json:"test_rows"`
	SelectedModel string            `json:"selected_model"`
	CVScore       Score             `json:"cv_score"`
	Models        []ModelComparison `json:"models"`
	TestMetrics   TestMetrics       `json:"test_metrics"`

	// ImportancesAvailable is false when the selected model has no
	// feature importances; TopFeatures is then empty.
	ImportancesAvailable bool                      `json:"importances_available"`
	TopFeatures          []model.FeatureImportance `json:"top_features,omitempty"`

	Forecast ForecastReport `json:"forecast"`
}

func compareModels(results []model.CVResult) []ModelComparison {
	out := make([]ModelComparison, len(results))
	for i, r := range results {
		out[i] = ModelComparison{Name: r.Algorithm.String(), MeanR2: Score(r.Mean), StdR2: Score(r.Std)}
	}
	return out
}

func topFeatures(tp *model.TrainedPipeline, n int) ([]model.FeatureImportance, bool) {
	ranked, ok := tp.RankedImportances()
	if !ok {
		return nil, false
	}
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, true
}
