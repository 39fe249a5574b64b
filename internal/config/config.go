package config

import (
	"errors"
	"os"
	"runtime"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Training run.
	Seed              uint64
	Records           int
	TestFraction      float64
	ForecastHorizon   int
	CVWorkers         int
	ForecastCacheSize int
	ModelPath         string

	// Forecast publishing.
	KafkaBrokers       []string
	KafkaForecastTopic string
	KafkaEnabled       bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("SEED", "42"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid SEED: must be a non-negative integer")
	}

	records, err := parseInt("RECORDS", 2000, 1, 1_000_000)
	if err != nil {
		return nil, err
	}

	testFraction, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("TEST_FRACTION", "0.2"), 64)
	if err != nil || testFraction <= 0 || testFraction >= 1 {
		return nil, errors.New("invalid TEST_FRACTION: must be between 0 and 1 exclusive")
	}

	horizon, err := parseInt("FORECAST_HORIZON", 30, 1, 365)
	if err != nil {
		return nil, err
	}

	workers, err := parseInt("CV_WORKERS", runtime.NumCPU(), 1, 1024)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseInt("FORECAST_CACHE_SIZE", 64, 0, 100_000)
	if err != nil {
		return nil, err
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		Seed:              seed,
		Records:           records,
		TestFraction:      testFraction,
		ForecastHorizon:   horizon,
		CVWorkers:         workers,
		ForecastCacheSize: cacheSize,
		ModelPath:         os.Getenv("MODEL_PATH"),

		KafkaBrokers:       brokers,
		KafkaForecastTopic: sharedcfg.EnvOrDefault("KAFKA_FORECAST_TOPIC", "donation-forecasts"),
		KafkaEnabled:       kafkaEnabled,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// parseInt reads key as an integer in [lo, hi], returning fallback when unset.
func parseInt(key string, fallback, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, errors.New("invalid " + key + ": must be " + strconv.Itoa(lo) + "-" + strconv.Itoa(hi))
	}
	return n, nil
}
