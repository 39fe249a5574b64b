package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "donation_forecast"

// Metrics holds the Prometheus counters, histograms, and gauges for the forecasting pipeline.
type Metrics struct {
	RecordsGenerated prometheus.Counter
	PipelineRuns     *prometheus.CounterVec   // labels: outcome={success,error}
	StageDuration    *prometheus.HistogramVec // labels: stage
	PipelineReady    prometheus.Gauge

	// Model selection and evaluation.
	CandidateScore *prometheus.GaugeVec // labels: algorithm
	TestMetric     *prometheus.GaugeVec // labels: metric={mae,rmse,r2}

	// Forecast serving and publishing.
	ForecastCache          *prometheus.CounterVec // labels: result={hit,miss}
	ForecastPointsProduced prometheus.Counter
	PublishErrors          prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_generated_total",
			Help:      "Total synthetic donation records generated.",
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Training pipeline runs by outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 180},
		}, []string{"stage"}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_ready",
			Help:      "1 once a trained pipeline is serving forecasts, 0 otherwise.",
		}),
		CandidateScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidate_cv_r2",
			Help:      "Mean cross-validated R² of each candidate in the latest run.",
		}, []string{"algorithm"}),
		TestMetric: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "test_metric",
			Help:      "Held-out error metrics of the selected model.",
		}, []string{"metric"}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_total",
			Help:      "Forecast cache lookups by result.",
		}, []string{"result"}),
		ForecastPointsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_points_produced_total",
			Help:      "Total forecast points written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed forecast publish attempts.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsGenerated,
		m.PipelineRuns,
		m.StageDuration,
		m.PipelineReady,
		m.CandidateScore,
		m.TestMetric,
		m.ForecastCache,
		m.ForecastPointsProduced,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
