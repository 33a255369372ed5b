package di

import (
	"context"
	"fmt"
	"time"

	"MarketScout/internal/domain/models"
	drepo "MarketScout/internal/domain/repository"
	"MarketScout/internal/handler/api"
	internalrepo "MarketScout/internal/repository"
	"MarketScout/internal/service/finnhub"
	"MarketScout/internal/service/retry"
	"MarketScout/internal/services/forecast"
	"MarketScout/internal/services/indicator"
	"MarketScout/internal/services/ranking"
	"MarketScout/internal/usecase"
	"MarketScout/pkg/cache"
	"MarketScout/pkg/config"
	xhttp "MarketScout/pkg/http"
	"MarketScout/pkg/logger"
	"MarketScout/pkg/metrics"
	"MarketScout/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideCache builds the candle cache: in-process memory, layered over redis
// when configured. Returns nil when caching is disabled; the provider client
// treats nil as no cache.
func ProvideCache(cfg *config.Config, log *logger.Logger) cache.Service {
	if !cfg.Cache.Enabled {
		return nil
	}

	local := cache.NewMemoryCache()
	if !cfg.Cache.Redis.Enabled {
		return local
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	remote, err := cache.NewRedisCache(ctx, &cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	if err != nil {
		log.Warn("redis unavailable, using memory cache only", logger.Error(err))
		return local
	}

	return cache.NewLayeredCache(local, remote)
}

// ProvideRetryPolicy builds the provider retry policy from config. Only rate
// limits and timeouts retry; NotFound surfaces immediately.
func ProvideRetryPolicy(cfg *config.Config) *retry.Policy {
	return &retry.Policy{
		MaxAttempts: cfg.Provider.Retry.MaxAttempts,
		BackoffMin:  cfg.Provider.Retry.BackoffMin,
		BackoffMax:  cfg.Provider.Retry.BackoffMax,
		Retryable:   finnhub.Retryable,
	}
}

// ProvideHistoryProvider creates the Finnhub candle client.
func ProvideHistoryProvider(cfg *config.Config, policy *retry.Policy, cacheSvc cache.Service) drepo.HistoryProvider {
	return finnhub.New(&finnhub.Config{
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.APIKey,
		RatePerSec: cfg.Provider.RatePerSec,
		Burst:      cfg.Provider.Burst,
		Timeout:    cfg.Pipeline.TickerTimeout,
		CacheTTL:   cfg.Cache.TTL,
	}, policy, cacheSvc)
}

// ProvideRegistry creates the default indicator registry.
func ProvideRegistry() *indicator.Registry {
	return indicator.NewRegistry()
}

// ProvideForecaster creates the smoothing forecast engine.
func ProvideForecaster() *forecast.Engine {
	return forecast.NewEngine(forecast.Options{})
}

// ProvideRanker creates the ranking engine from configured weights.
func ProvideRanker(cfg *config.Config) *ranking.Ranker {
	return ranking.New(ranking.Options{
		Weights: ranking.Weights{
			MarketCap:          cfg.Ranking.Weights.MarketCap,
			GrowthRate:         cfg.Ranking.Weights.GrowthRate,
			Momentum:           cfg.Ranking.Weights.Momentum,
			ForecastConfidence: cfg.Ranking.Weights.ForecastConfidence,
		},
		TopN:            cfg.Pipeline.TopN,
		LowCapThreshold: cfg.Ranking.LowCapThreshold,
		SignalThreshold: cfg.Ranking.GrowthTagThreshold,
	})
}

// ProvideArtifactBuilder creates the artifact builder over the full indicator
// name set.
func ProvideArtifactBuilder(registry *indicator.Registry) *usecase.ArtifactBuilder {
	return usecase.NewArtifactBuilder(registry.Names())
}

// ProvideArtifactStore creates the filesystem artifact store.
func ProvideArtifactStore(cfg *config.Config, log *logger.Logger) drepo.ArtifactStore {
	return internalrepo.NewFSArtifactStore(cfg.Artifact.Dir, cfg.Artifact.File, log)
}

// ProvideUniverse loads the configured ticker universe.
func ProvideUniverse(cfg *config.Config) ([]models.StaticMeta, error) {
	entries, err := config.LoadUniverse(cfg.Universe.Path)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}

	universe := make([]models.StaticMeta, len(entries))
	for i, e := range entries {
		universe[i] = models.StaticMeta{
			Symbol:    e.Symbol,
			MarketCap: e.MarketCap,
			Sector:    e.Sector,
		}
	}
	return universe, nil
}

// ProvidePipeline wires the batch pipeline.
func ProvidePipeline(
	provider drepo.HistoryProvider,
	registry *indicator.Registry,
	engine *forecast.Engine,
	ranker *ranking.Ranker,
	builder *usecase.ArtifactBuilder,
	store drepo.ArtifactStore,
	m drepo.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.Pipeline {
	return usecase.NewPipeline(provider, registry, engine, ranker, builder, store, m, log, usecase.PipelineConfig{
		LookbackDays:          cfg.Pipeline.LookbackDays,
		MinHistory:            cfg.Pipeline.MinHistory,
		MaxFillGap:            cfg.Pipeline.MaxFillGap,
		HorizonDays:           cfg.Pipeline.HorizonDays,
		Workers:               cfg.Pipeline.Workers,
		TickerTimeout:         cfg.Pipeline.TickerTimeout,
		RunDeadline:           cfg.Pipeline.RunDeadline,
		CompletenessThreshold: cfg.Pipeline.CompletenessThreshold,
	})
}

// ProvideHandler creates the read-only artifact API handler.
func ProvideHandler(log *logger.Logger, store drepo.ArtifactStore) xhttp.Handler {
	return api.NewArtifactHandler(log, store)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	pipeline *usecase.Pipeline,
	universe []models.StaticMeta,
	handler xhttp.Handler,
	cacheSvc cache.Service,
) *server.App {
	return server.New(cfg, log, pipeline, universe, handler, cacheSvc)
}
