package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/blood-donation-forecast/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/blood-donation-forecast/internal/adapter/kafka"
	"github.com/couchcryptid/blood-donation-forecast/internal/adapter/store"
	"github.com/couchcryptid/blood-donation-forecast/internal/config"
	"github.com/couchcryptid/blood-donation-forecast/internal/observability"
	"github.com/couchcryptid/blood-donation-forecast/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Forecast publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var (
		loader pipeline.ForecastLoader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaForecastTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	var modelStore pipeline.ModelStore
	if cfg.ModelPath != "" {
		modelStore = store.NewFileStore(cfg.ModelPath, logger)
		logger.Info("model persistence enabled", "path", cfg.ModelPath)
	}

	opts := pipeline.DefaultOptions()
	opts.Seed = cfg.Seed
	opts.Records = cfg.Records
	opts.TestFraction = cfg.TestFraction
	opts.Horizon = cfg.ForecastHorizon
	opts.Workers = cfg.CVWorkers
	opts.CacheSize = cfg.ForecastCacheSize

	p := pipeline.New(opts, loader, modelStore, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.ForecastHorizon, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Train once; the server keeps serving the result until shutdown.
	go func() {
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
