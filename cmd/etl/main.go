// The etl service consumes CSS3.0 event bundles from Kafka, converts them
// to QuakeML documents and produces the documents to a sink topic.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/quakecat/css2quakeml/internal/adapter/http"
	kafkaadapter "github.com/quakecat/css2quakeml/internal/adapter/kafka"
	"github.com/quakecat/css2quakeml/internal/adapter/mapbox"
	"github.com/quakecat/css2quakeml/internal/config"
	"github.com/quakecat/css2quakeml/internal/convert"
	"github.com/quakecat/css2quakeml/internal/observability"
	"github.com/quakecat/css2quakeml/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Nearest-place enrichment is feature-flagged via MAPBOX_ENABLED /
	// MAPBOX_TOKEN.
	var placer convert.NearestPlacer
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		placer = mapbox.NewCachedPlacer(client, cfg.MapboxCacheSize, metrics)
		metrics.PlaceEnabled.Set(1)
		logger.Info("nearest-place enrichment enabled",
			"cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("nearest-place enrichment disabled")
	}

	converter := convert.New(convert.Config{
		Agency:            cfg.AgencyID,
		AuthorityID:       cfg.AuthorityID,
		Schema:            cfg.RIDSchema,
		ETypeMap:          cfg.ETypeMap,
		AutomaticAuthors:  cfg.AutomaticAuthors,
		PreferredMagTypes: cfg.PreferredMagTypes,
		DOI:               cfg.DOI,
		NearestPlacer:     placer,
		Logger:            logger,
	})
	opts := convert.Options{
		Origin:           true,
		Magnitude:        true,
		Pick:             cfg.ConvertPicks,
		StationMagnitude: cfg.ConvertStaMags,
		FocalMechanism:   cfg.ConvertFocalMech,
		ANSS:             cfg.ANSS,
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(converter, opts, metrics, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
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
