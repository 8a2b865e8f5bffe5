package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/field-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/field-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/field-risk-service/internal/adapter/openmeteo"
	redisadapter "github.com/couchcryptid/field-risk-service/internal/adapter/redis"
	"github.com/couchcryptid/field-risk-service/internal/config"
	"github.com/couchcryptid/field-risk-service/internal/domain"
	"github.com/couchcryptid/field-risk-service/internal/monitor"
	"github.com/couchcryptid/field-risk-service/internal/observability"
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

	forecast := openmeteo.NewForecastClient(cfg.ForecastBaseURL, cfg.ForecastTimeout, openmeteo.BreakerSettings{
		MaxConsecutiveFailures: cfg.BreakerMaxFailures,
		OpenTimeout:            cfg.BreakerOpenTimeout,
	}, metrics, logger)

	geoClient := openmeteo.NewGeocodingClient(cfg.GeocodingBaseURL, cfg.GeocodingCountry, cfg.GeocodingTimeout, metrics, logger)
	geocoder := openmeteo.NewCachedGeocoder(geoClient, cfg.GeocodingCacheSize, metrics)

	opts := []monitor.Option{
		monitor.WithMetrics(metrics),
		monitor.WithLogger(logger),
		monitor.WithMaxAge(cfg.ObservationMaxAge),
		monitor.WithRefreshInterval(cfg.RefreshInterval),
		monitor.WithLocation(domain.Location{
			Name:        cfg.DefaultLocationName,
			Coordinates: domain.Coordinates{Lat: cfg.DefaultLat, Lon: cfg.DefaultLon},
		}),
	}

	// Assessment publishing (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		opts = append(opts, monitor.WithPublisher(publisher))
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAssessmentTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	// Snapshot persistence (feature-flagged via REDIS_ENABLED / REDIS_ADDR).
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RedisEnabled {
		client := redisadapter.NewClient(cfg)
		defer func() { _ = client.Close() }()
		store := redisadapter.NewStore(client, cfg.RedisKeyPrefix, cfg.RedisTTL, logger)
		if err := store.Ping(ctx); err != nil {
			logger.Warn("redis unreachable at startup, continuing", "error", err, "addr", cfg.RedisAddr)
		}
		opts = append(opts, monitor.WithStore(store))
		logger.Info("redis snapshot store enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
	} else {
		logger.Info("redis snapshot store disabled")
	}

	m := monitor.New(forecast, geocoder, opts...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, m, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return m.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
