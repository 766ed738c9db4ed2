// Command detector runs the heatwave detection service: it consumes per-site
// observation bundles from Kafka, detects heatwave events with the INMET,
// Ouzeau, and wet-bulb methods, and publishes the standardized events and
// projected timelines to the sink topics.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/thermoclima/heatwave-detect/internal/adapter/http"
	kafkaadapter "github.com/thermoclima/heatwave-detect/internal/adapter/kafka"
	"github.com/thermoclima/heatwave-detect/internal/config"
	"github.com/thermoclima/heatwave-detect/internal/domain"
	"github.com/thermoclima/heatwave-detect/internal/observability"
	"github.com/thermoclima/heatwave-detect/internal/pipeline"
)

func main() {
	configPath := flag.String("config", os.Getenv("HEATWAVE_CONFIG"), "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	baselineStart, baselineEnd, err := cfg.BaselinePeriod()
	if err != nil {
		logger.Error("invalid baseline period", "error", err)
		os.Exit(1)
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	analyzer := pipeline.NewAnalyzer(pipeline.DetectionSettings{
		MethodVersion:      cfg.Detection.MethodVersion,
		INMETDeltaC:        cfg.Detection.INMETDeltaC,
		OuzeauNConsecutive: cfg.Detection.OuzeauNConsecutive,
		WetBulbMinDays:     cfg.Detection.WetBulbMinDays,
		WetBulbQuantile:    cfg.Detection.WetBulbQuantile,
		DefaultBaseline:    domain.BaselinePeriod{Start: baselineStart, End: baselineEnd},
	}, logger)

	p := pipeline.New(reader, analyzer, writer, logger, metrics, cfg.Batch.Size)

	srv := httpadapter.NewServer(cfg.HTTP.Addr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start detection pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
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
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
