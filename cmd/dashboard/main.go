package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/wildfire-risk-service/internal/adapter/firms"
	httpadapter "github.com/couchcryptid/wildfire-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/wildfire-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/wildfire-risk-service/internal/adapter/mapbox"
	redisadapter "github.com/couchcryptid/wildfire-risk-service/internal/adapter/redis"
	"github.com/couchcryptid/wildfire-risk-service/internal/config"
	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
	"github.com/couchcryptid/wildfire-risk-service/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, cfg.MapboxRateLimit, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, cfg.MapboxCacheTTL, cfg.GeocodeGridPrecision, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled",
			"cache_size", cfg.MapboxCacheSize,
			"cache_ttl", cfg.MapboxCacheTTL,
			"rate_limit", cfg.MapboxRateLimit,
			"timeout", cfg.MapboxTimeout,
			"geocode_timeout", cfg.GeocodeTimeout,
		)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var fetcher pipeline.Fetcher = firms.NewClient(firms.Options{
		Endpoint: cfg.FIRMSEndpoint,
		MapKey:   cfg.FIRMSMapKey,
		Source:   cfg.FIRMSSource,
		Area:     cfg.FIRMSArea,
		Days:     cfg.FIRMSDays,
		Timeout:  cfg.FIRMSTimeout,
	}, metrics, logger)

	checks := readinessChecks{}
	var fetchCache *redisadapter.FetchCache
	if cfg.RedisAddr != "" {
		client, err := redisadapter.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		key := redisadapter.Key(cfg.FIRMSSource, cfg.FIRMSArea, cfg.FIRMSDays)
		fetchCache = redisadapter.NewFetchCache(client, fetcher, key, cfg.CacheTTL, metrics, logger)
		fetcher = fetchCache
		checks = append(checks, fetchCache)
		logger.Info("redis fetch cache enabled", "addr", cfg.RedisAddr, "key", key)
	}

	var (
		publisher pipeline.Publisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	svc := pipeline.New(
		fetcher,
		pipeline.NewEnricher(geocoder, cfg.GeocodeConcurrency, logger),
		publisher,
		pipeline.Options{
			TTL:            cfg.CacheTTL,
			EnrichTimeout:  cfg.GeocodeTimeout,
			Grouping:       cfg.RegionGrouping,
			TopN:           cfg.TopN,
			HistogramDense: cfg.HistogramDense,
			Density: domain.DensityOptions{
				Areas:           cfg.Areas,
				ExcludeFallback: cfg.DensityExcludeOther,
			},
		},
		logger,
		metrics,
	)
	checks = append(readinessChecks{svc}, checks...)

	srv := httpadapter.NewServer(
		httpadapter.Options{Addr: cfg.HTTPAddr, CORSOrigins: cfg.CORSOrigins},
		checks,
		svc,
		metrics,
		logger,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return svc.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", "error", err)
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if fetchCache != nil {
		if err := fetchCache.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readinessChecks reports ready only when every check passes.
type readinessChecks []httpadapter.ReadinessChecker

func (rc readinessChecks) CheckReadiness(ctx context.Context) error {
	for _, c := range rc {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
