// Package forecast projects donation volumes onto future dates by resampling
// recent historical context through a trained pipeline.
package forecast

import (
	"fmt"
	"math"
	"slices"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"github.com/couchcryptid/blood-donation-forecast/internal/model"
)

// TemplateWindow is the number of most recent records templates are drawn from.
const TemplateWindow = 100

// Forecast returns one point per day for the horizon days following the
// latest date in history. Each day copies a record drawn uniformly from the
// TemplateWindow most recent records, moves it to the target date, and scores
// it independently of the other days. Predictions are clamped at zero.
func Forecast(tp *model.TrainedPipeline, history []domain.DonationRecord, horizon int, rng *domain.RandomSource) ([]domain.ForecastPoint, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("forecast horizon %d: %w", horizon, domain.ErrInvalidArgument)
	}
	if !tp.Trained() {
		return nil, fmt.Errorf("forecast: %w", domain.ErrModelNotTrained)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("forecast: empty history: %w", domain.ErrInvalidArgument)
	}
	if rng == nil {
		return nil, fmt.Errorf("forecast: nil random source: %w", domain.ErrInvalidArgument)
	}

	recent := Recent(history, TemplateWindow)
	last := recent[len(recent)-1].Date

	future := make([]domain.DonationRecord, horizon)
	for i := range future {
		template := recent[rng.IntN(len(recent))]
		future[i] = template.WithDate(last.AddDate(0, 0, i+1))
	}

	table, err := domain.Transform(future, tp.Vocabularies)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	pred, err := tp.Predict(table)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	points := make([]domain.ForecastPoint, horizon)
	for i, rec := range future {
		points[i] = domain.ForecastPoint{
			Date:               rec.Date,
			PredictedDonations: math.Max(0, pred[i]),
		}
	}
	return points, nil
}

// Recent returns up to n records with the latest dates, in ascending date
// order. Records sharing a date keep their input order.
func Recent(history []domain.DonationRecord, n int) []domain.DonationRecord {
	sorted := slices.Clone(history)
	slices.SortStableFunc(sorted, func(a, b domain.DonationRecord) int {
		return a.Date.Compare(b.Date)
	})
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}
