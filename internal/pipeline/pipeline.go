package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"github.com/couchcryptid/blood-donation-forecast/internal/forecast"
	"github.com/couchcryptid/blood-donation-forecast/internal/model"
	"github.com/couchcryptid/blood-donation-forecast/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"
)

// MaxHorizon is the longest forecast served on request.
const MaxHorizon = 365

const (
	maxPublishAttempts = 5
	initialBackoff     = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
)

// ForecastLoader publishes a run's forecast to a downstream sink.
type ForecastLoader interface {
	LoadForecast(ctx context.Context, batch domain.ForecastBatch) error
}

// ModelStore persists a trained pipeline.
type ModelStore interface {
	Save(ctx context.Context, tp *model.TrainedPipeline) error
}

// Options configures a training run.
type Options struct {
	Seed         uint64
	Records      int
	TestFraction float64
	Horizon      int
	Workers      int
	CacheSize    int
	// TopFeatures bounds the importance ranking in the report. Zero keeps all.
	TopFeatures int
	Model       model.Config
}

// DefaultOptions mirrors the service defaults.
func DefaultOptions() Options {
	return Options{
		Seed:         42,
		Records:      2000,
		TestFraction: 0.2,
		Horizon:      30,
		CacheSize:    64,
		TopFeatures:  10,
		Model:        model.DefaultConfig(),
	}
}

// state is everything produced by one successful run. It is immutable once
// published through Pipeline.state.
type state struct {
	runID    string
	history  []domain.DonationRecord
	pipeline *model.TrainedPipeline
	report   Report
}

// Pipeline trains a forecasting model and serves its results.
type Pipeline struct {
	opts    Options
	loader  ForecastLoader
	store   ModelStore
	logger  *slog.Logger
	metrics *observability.Metrics
	cache   *forecastCache
	ready   atomic.Bool

	mu    sync.RWMutex
	state *state
}

// New creates a Pipeline. loader and store may be nil to skip publishing or persistence.
func New(opts Options, loader ForecastLoader, store ModelStore, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		opts:    opts,
		loader:  loader,
		store:   store,
		logger:  logger,
		metrics: metrics,
		cache:   newForecastCache(opts.CacheSize),
	}
}

// CheckReadiness returns nil once a trained pipeline is serving, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no trained pipeline yet")
	}
	return nil
}

// Run executes one full training run: generate, engineer features, split,
// select, evaluate and forecast. On success the new model replaces the served
// one, then it is persisted and the forecast published when configured.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("pipeline started", "records", p.opts.Records, "seed", p.opts.Seed)
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			logger.Error("pipeline failed", "error", err)
		}
		p.metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	}()

	rng := domain.NewRandomSource(p.opts.Seed)
	cfg := p.opts.Model
	cfg.Seed = p.opts.Seed

	var (
		records     []domain.DonationRecord
		table       domain.FeatureTable
		vocabs      domain.Vocabularies
		y           []float64
		train, test []int
		sel         *model.Selection
		eval        *model.Evaluation
		tp          *model.TrainedPipeline
		points      []domain.ForecastPoint
	)

	stages := []struct {
		name string
		fn   func() error
	}{
		{"generate", func() (err error) {
			records, err = domain.Generate(p.opts.Records, rng)
			p.metrics.RecordsGenerated.Add(float64(len(records)))
			return err
		}},
		{"features", func() (err error) {
			table, vocabs, err = domain.FitTransform(records)
			y = domain.Targets(records)
			return err
		}},
		{"split", func() (err error) {
			train, test, err = model.TrainTestSplit(table.Len(), p.opts.TestFraction, rng)
			return err
		}},
		{"select", func() (err error) {
			sel, err = model.SelectAndFit(ctx, model.Rows(table.Rows, train), model.Values(y, train), model.Options{
				Config:  cfg,
				Workers: p.opts.Workers,
			})
			return err
		}},
		{"evaluate", func() (err error) {
			eval, err = model.Evaluate(sel.Scaler, sel.Model, model.Rows(table.Rows, test), model.Values(y, test))
			return err
		}},
		{"forecast", func() (err error) {
			tp = model.NewTrainedPipeline(table.Names, vocabs, sel)
			points, err = forecast.Forecast(tp, records, p.opts.Horizon, rng)
			return err
		}},
	}
	for _, s := range stages {
		if err := p.runStage(ctx, logger, s.name, s.fn); err != nil {
			return err
		}
	}

	for _, r := range sel.Results {
		p.metrics.CandidateScore.WithLabelValues(r.Algorithm.Key()).Set(r.Mean)
		logger.Info("candidate scored", "algorithm", r.Algorithm.String(), "mean_r2", r.Mean, "std_r2", r.Std)
	}
	p.metrics.TestMetric.WithLabelValues("mae").Set(eval.MAE)
	p.metrics.TestMetric.WithLabelValues("rmse").Set(eval.RMSE)
	p.metrics.TestMetric.WithLabelValues("r2").Set(eval.R2)

	fc := NewForecastReport(points)
	report := Report{
		RunID:         runID,
		GeneratedAt:   domain.Now().UTC(),
		Records:       len(records),
		TrainRows:     len(train),
		TestRows:      len(test),
		SelectedModel: sel.Algorithm.String(),
		CVScore:       Score(sel.Score),
		Models:        compareModels(sel.Results),
		TestMetrics:   TestMetrics{MAE: Score(eval.MAE), RMSE: Score(eval.RMSE), R2: Score(eval.R2)},
		Forecast:      fc,
	}
	report.TopFeatures, report.ImportancesAvailable = topFeatures(tp, p.opts.TopFeatures)

	p.swap(&state{runID: runID, history: records, pipeline: tp, report: report})
	p.cache.retainRun(runID)
	logger.Info("model selected",
		"algorithm", sel.Algorithm.String(),
		"cv_r2", sel.Score,
		"test_mae", eval.MAE,
		"test_rmse", eval.RMSE,
		"test_r2", eval.R2,
		"forecast_total", fc.Total,
	)

	if p.store != nil {
		if err := p.store.Save(ctx, tp); err != nil {
			return fmt.Errorf("save model: %w", err)
		}
		logger.Info("model saved")
	}
	if p.loader != nil {
		batch := domain.ForecastBatch{RunID: runID, GeneratedAt: report.GeneratedAt, Points: points}
		if err := p.publish(ctx, logger, batch); err != nil {
			return err
		}
	}
	return nil
}

// runStage runs fn after checking for cancellation and records its duration.
func (p *Pipeline) runStage(ctx context.Context, logger *slog.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.Debug("stage complete", "stage", name, "duration", elapsed)
	return nil
}

func (p *Pipeline) swap(s *state) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.ready.Store(true)
	p.metrics.PipelineReady.Set(1)
}

func (p *Pipeline) current() *state {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// publish hands the batch to the loader, retrying with exponential backoff.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, batch domain.ForecastBatch) error {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := p.loader.LoadForecast(ctx, batch)
		if err == nil {
			p.metrics.ForecastPointsProduced.Add(float64(len(batch.Points)))
			logger.Info("forecast published", "points", len(batch.Points), "attempt", attempt)
			return nil
		}
		p.metrics.PublishErrors.Inc()
		if attempt >= maxPublishAttempts || ctx.Err() != nil {
			return fmt.Errorf("publish forecast after %d attempts: %w", attempt, err)
		}
		logger.Warn("publish forecast failed, retrying", "error", err, "attempt", attempt, "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return fmt.Errorf("publish forecast: %w", ctx.Err())
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

// Report returns the latest run's report.
func (p *Pipeline) Report() (Report, error) {
	s := p.current()
	if s == nil {
		return Report{}, fmt.Errorf("report: %w", domain.ErrModelNotTrained)
	}
	return s.report, nil
}

// TrainedPipeline returns the model currently being served.
func (p *Pipeline) TrainedPipeline() (*model.TrainedPipeline, error) {
	s := p.current()
	if s == nil {
		return nil, fmt.Errorf("trained pipeline: %w", domain.ErrModelNotTrained)
	}
	return s.pipeline, nil
}

// Forecast serves a forecast of days points from the current model. The run
// horizon always returns the run's own forecast, the one in the report and
// the published batch. Other horizons are cached per run; each draws
// templates from its own stream, so repeated requests return the same points.
func (p *Pipeline) Forecast(days int) (ForecastReport, error) {
	if days < 1 || days > MaxHorizon {
		return ForecastReport{}, fmt.Errorf("forecast %d days, want 1..%d: %w", days, MaxHorizon, domain.ErrInvalidArgument)
	}
	s := p.current()
	if s == nil {
		return ForecastReport{}, fmt.Errorf("forecast: %w", domain.ErrModelNotTrained)
	}
	if days == p.opts.Horizon {
		return s.report.Forecast, nil
	}

	key := forecastKey{runID: s.runID, days: days}
	if fc, ok := p.cache.get(key); ok {
		p.metrics.ForecastCache.WithLabelValues("hit").Inc()
		return fc, nil
	}
	p.metrics.ForecastCache.WithLabelValues("miss").Inc()

	rng := domain.NewRandomSource(p.opts.Seed).Derive(uint64(days))
	points, err := forecast.Forecast(s.pipeline, s.history, days, rng)
	if err != nil {
		return ForecastReport{}, err
	}
	fc := NewForecastReport(points)
	p.cache.put(key, fc)
	return fc, nil
}
