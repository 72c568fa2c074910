package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/la-crime-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/la-crime-etl/internal/adapter/kafka"
	"github.com/couchcryptid/la-crime-etl/internal/config"
	"github.com/couchcryptid/la-crime-etl/internal/dashboard"
	"github.com/couchcryptid/la-crime-etl/internal/domain"
	"github.com/couchcryptid/la-crime-etl/internal/observability"
	"github.com/couchcryptid/la-crime-etl/internal/pipeline"
	"github.com/couchcryptid/la-crime-etl/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	src := newRecordSource(cfg, metrics, logger)
	normalizer := domain.NewNormalizer(domain.WithLocation(cfg.DisplayTZ))
	svc := dashboard.NewService(src, normalizer, metrics, logger, dashboard.WithLimit(cfg.ResultLimit))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := observability.ReadinessChecks{}
	var closers []func() error
	if cfg.KafkaEnabled {
		reader := kafkaadapter.NewReader(cfg, logger)
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, reader.Close, writer.Close)

		p := pipeline.New(reader, pipeline.NewTransformer(normalizer), writer, logger, metrics, cfg.BatchSize)
		checks["pipeline"] = p

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
		logger.Info("streaming pipeline enabled",
			"source_topic", cfg.KafkaSourceTopic,
			"sink_topic", cfg.KafkaSinkTopic,
		)
	} else {
		logger.Info("streaming pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, checks, logger, httpadapter.WithLocation(cfg.DisplayTZ))
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newRecordSource builds the configured source, wrapped in the cache unless
// SOURCE_CACHE_SIZE is 0.
func newRecordSource(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) source.RecordSource {
	var src source.RecordSource
	switch cfg.RecordSource {
	case config.SourceCSV:
		src = source.NewCSVSource(cfg.CSVPath, metrics, logger)
		logger.Info("using csv record source", "path", cfg.CSVPath)
	default:
		src = source.NewAPISource(cfg.APIBaseURL, cfg.APITimeout, metrics, logger)
		logger.Info("using incident api record source", "url", cfg.APIBaseURL, "timeout", cfg.APITimeout)
	}

	if cfg.CacheSize == 0 {
		logger.Info("record source cache disabled")
		return src
	}
	logger.Info("record source cache enabled", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	return source.NewCachedSource(src, cfg.CacheSize, cfg.CacheTTL, metrics)
}
