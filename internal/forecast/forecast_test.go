package forecast

import (
	"context"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"github.com/couchcryptid/blood-donation-forecast/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.May, 20, 8, 0, 0, 0, time.UTC)

func history(t *testing.T, n int) []domain.DonationRecord {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { domain.SetClock(nil) })
	records, err := domain.Generate(n, domain.NewRandomSource(21))
	require.NoError(t, err)
	return records
}

// probePipeline predicts intercept + the raw value of one feature, so a test
// can read back what the forecaster fed the model.
func probePipeline(t *testing.T, records []domain.DonationRecord, feature string, intercept float64) *model.TrainedPipeline {
	t.Helper()
	names := domain.FeatureNames()
	j := slices.Index(names, feature)
	require.GreaterOrEqual(t, j, 0)

	scaler := &model.Scaler{Mean: make([]float64, len(names)), Scale: make([]float64, len(names))}
	for i := range scaler.Scale {
		scaler.Scale[i] = 1
	}
	ridge := model.NewRidge(model.DefaultRidgeConfig())
	ridge.Coef = make([]float64, len(names))
	ridge.Coef[j] = 1
	ridge.Intercept = intercept

	return &model.TrainedPipeline{
		Features:     names,
		Vocabularies: domain.FitVocabularies(records),
		Scaler:       scaler,
		Model:        ridge,
	}
}

func TestForecastDates(t *testing.T) {
	records := history(t, 400)
	tp := probePipeline(t, records, "is_weekend", 0)

	points, err := Forecast(tp, records, 30, domain.NewRandomSource(1))
	require.NoError(t, err)
	require.Len(t, points, 30)

	last := Recent(records, 1)[0].Date
	for i, p := range points {
		assert.Equal(t, last.AddDate(0, 0, i+1), p.Date)
		if i > 0 {
			assert.Equal(t, 24*time.Hour, p.Date.Sub(points[i-1].Date))
		}
		weekend := domain.DayOfWeek(p.Date) >= 5
		assert.Equal(t, weekend, p.PredictedDonations == 1, "date %s", p.Date.Format(domain.DateLayout))
	}
}

func TestForecastRecomputesCalendarFields(t *testing.T) {
	records := history(t, 200)
	tp := probePipeline(t, records, "day_of_year", 0)

	points, err := Forecast(tp, records, 10, domain.NewRandomSource(2))
	require.NoError(t, err)
	for _, p := range points {
		assert.Equal(t, float64(p.Date.YearDay()), p.PredictedDonations)
	}
}

func TestForecastTemplatesComeFromRecentWindow(t *testing.T) {
	records := history(t, 600)
	tp := probePipeline(t, records, "temperature", 1000)

	allowed := map[float64]bool{}
	for _, r := range Recent(records, TemplateWindow) {
		allowed[r.Temperature+1000] = true
	}

	points, err := Forecast(tp, records, 200, domain.NewRandomSource(3))
	require.NoError(t, err)
	for _, p := range points {
		assert.True(t, allowed[p.PredictedDonations], "temperature %v not in recent window", p.PredictedDonations-1000)
	}
}

func TestForecastClampsAtZero(t *testing.T) {
	records := history(t, 120)
	tp := probePipeline(t, records, "temperature", -1e6)

	points, err := Forecast(tp, records, 15, domain.NewRandomSource(4))
	require.NoError(t, err)
	for _, p := range points {
		assert.Equal(t, 0.0, p.PredictedDonations)
	}
}

func TestForecastIsDeterministic(t *testing.T) {
	records := history(t, 300)
	tp := probePipeline(t, records, "temperature", 0)

	a, err := Forecast(tp, records, 20, domain.NewRandomSource(9))
	require.NoError(t, err)
	b, err := Forecast(tp, records, 20, domain.NewRandomSource(9))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestForecastErrors(t *testing.T) {
	records := history(t, 50)
	tp := probePipeline(t, records, "temperature", 0)
	rng := domain.NewRandomSource(1)

	_, err := Forecast(tp, records, 0, rng)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = Forecast(tp, records, -3, rng)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = Forecast(nil, records, 5, rng)
	assert.ErrorIs(t, err, domain.ErrModelNotTrained)
	_, err = Forecast(&model.TrainedPipeline{}, records, 5, rng)
	assert.ErrorIs(t, err, domain.ErrModelNotTrained)
	_, err = Forecast(tp, nil, 5, rng)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	t.Run("unknown category in history", func(t *testing.T) {
		odd := slices.Clone(records)
		for i := range odd {
			odd[i].City = "Jaipur"
		}
		_, err := Forecast(tp, odd, 5, rng)
		assert.ErrorIs(t, err, domain.ErrUnknownCategory)
	})
}

func TestRecent(t *testing.T) {
	day := func(d int) domain.DonationRecord {
		return domain.DonationRecord{Date: time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC), City: string(rune('a' + d))}
	}
	in := []domain.DonationRecord{day(5), day(1), day(9), day(3)}
	got := Recent(in, 2)
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].Date.Day())
	assert.Equal(t, 9, got[1].Date.Day())
	assert.Len(t, Recent(in, 10), 4)
	assert.Equal(t, 5, in[0].Date.Day(), "input must not be reordered")
}

// End to end: generate, fit, select, evaluate and forecast with the fixed seed.
func TestEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("trains every candidate")
	}
	records := history(t, 2000)
	rng := domain.NewRandomSource(42)

	table, vocabs, err := domain.FitTransform(records)
	require.NoError(t, err)
	y := domain.Targets(records)

	train, test, err := model.TrainTestSplit(table.Len(), 0.2, rng)
	require.NoError(t, err)

	sel, err := model.SelectAndFit(context.Background(), model.Rows(table.Rows, train), model.Values(y, train), model.Options{Config: model.DefaultConfig()})
	require.NoError(t, err)
	for _, r := range sel.Results {
		assert.LessOrEqual(t, r.Mean, sel.Score)
	}

	ev, err := model.Evaluate(sel.Scaler, sel.Model, model.Rows(table.Rows, test), model.Values(y, test))
	require.NoError(t, err)
	assert.False(t, math.IsNaN(ev.R2) || math.IsInf(ev.R2, 0))
	assert.False(t, math.IsNaN(ev.MAE) || math.IsNaN(ev.RMSE))

	tp := model.NewTrainedPipeline(table.Names, vocabs, sel)
	points, err := Forecast(tp, records, 30, rng)
	require.NoError(t, err)
	require.Len(t, points, 30)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.PredictedDonations, 0.0)
	}
}
