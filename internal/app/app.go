// Package app assembles the notice alert engine from configuration.
//
// New wires driven adapters into the core services; Run drives the
// document-change path until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	rediscache "github.com/wcreiley/notice-alert-system/internal/adapters/driven/cache/redis"
	embedopenai "github.com/wcreiley/notice-alert-system/internal/adapters/driven/embedding/openai"
	llmopenai "github.com/wcreiley/notice-alert-system/internal/adapters/driven/llm/openai"
	"github.com/wcreiley/notice-alert-system/internal/adapters/driven/notify/slack"
	"github.com/wcreiley/notice-alert-system/internal/adapters/driven/storage/memory"
	"github.com/wcreiley/notice-alert-system/internal/adapters/driven/storage/sqlite"
	"github.com/wcreiley/notice-alert-system/internal/config"
	"github.com/wcreiley/notice-alert-system/internal/connectors/filesystem"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driven"
	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
	"github.com/wcreiley/notice-alert-system/internal/core/services"
	"github.com/wcreiley/notice-alert-system/internal/logger"
	"github.com/wcreiley/notice-alert-system/internal/normalisers"
	"github.com/wcreiley/notice-alert-system/internal/postprocessors/chunker"
)

// SourceID names the notice directory source.
const SourceID = "notices"

// redisPrefix namespaces response cache keys.
const redisPrefix = "noticealert:"

// App is a fully wired engine.
type App struct {
	registry     *prometheus.Registry
	indexer      *services.Indexer
	orchestrator *services.QueryOrchestrator
	alerts       *services.AlertDeduplicator

	closers []func() error
}

// New builds the engine described by cfg. The caller must Close the
// returned App.
//
//nolint:gocyclo // Sequential wiring of every adapter
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := services.NewMetrics(a.registry)

	// 1. PROVIDERS
	llm, err := llmopenai.NewLLMService(llmopenai.LLMConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM service: %w", err)
	}
	embedder, err := embedopenai.NewEmbeddingService(embedopenai.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.EmbeddingDimension,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding service: %w", err)
	}

	// 2. RESPONSE CACHE
	cache, err := a.openCache(ctx, cfg)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	retry := services.RetryPolicy{
		Attempts: cfg.Provider.MaxAttempts,
		Delay:    cfg.Provider.RetryDelay.Duration,
		Timeout:  cfg.Provider.Timeout.Duration,
	}
	resilientLLM := services.NewResilientLLM(llm, cache, retry, metrics)
	resilientEmbedder := services.NewResilientEmbedder(embedder, cache, retry, metrics)
	a.closers = append(a.closers, resilientLLM.Close, resilientEmbedder.Close)

	// 3. STANDING QUERIES
	standing, err := a.openStandingStore(cfg)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	// 4. ALERTS
	notifier, err := slack.New(slack.Config{
		ChannelID: cfg.Slack.ChannelID,
		Token:     cfg.Slack.Token,
		APIURL:    cfg.Slack.APIURL,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating notifier: %w", err), a.Close())
	}
	a.alerts = services.NewAlertDeduplicator(standing, resilientLLM, notifier, services.AlertOptions{
		AlwaysNotify: cfg.Alerts.AlwaysNotify,
		Rate:         cfg.Slack.Rate,
		Retry:        retry,
	}, metrics)

	// 5. INDEX
	if err := os.MkdirAll(cfg.Index.DataDir, 0o755); err != nil {
		return nil, errors.Join(fmt.Errorf("creating data directory: %w", err), a.Close())
	}
	index := memory.NewVectorIndex(resilientEmbedder.Dimensions())
	connector := filesystem.New(SourceID, cfg.Index.DataDir)
	a.closers = append(a.closers, index.Close, connector.Close)

	a.indexer = services.NewIndexer(
		connector,
		normalisers.NewDefaultRegistry(),
		chunker.New(
			chunker.WithMinTokens(cfg.Index.ChunkMinTokens),
			chunker.WithMaxTokens(cfg.Index.ChunkMaxTokens),
		),
		resilientEmbedder,
		index,
		memory.NewDocumentStore(),
		services.WithIndexWorkers(cfg.Index.Workers),
		services.WithIndexMetrics(metrics),
	)

	// 6. QUERIES
	a.orchestrator = services.NewQueryOrchestrator(
		services.NewIntentClassifier(resilientLLM),
		resilientEmbedder,
		services.NewRetriever(index, cfg.Index.RetrievalK),
		services.NewAnswerGenerator(resilientLLM, cfg.OpenAI.MaxTokens, cfg.OpenAI.Temperature),
		a.alerts,
		standing,
		services.WithRecomputeWorkers(cfg.Index.Workers),
		services.WithQueryMetrics(metrics),
	)

	logger.Debug("engine wired: model=%s embedder=%s dim=%d data=%s",
		llm.ModelName(), embedder.ModelName(), embedder.Dimensions(), cfg.Index.DataDir)
	return a, nil
}

func (a *App) openCache(ctx context.Context, cfg *config.Config) (driven.ResponseCache, error) {
	if cfg.Storage.RedisAddr != "" {
		cache, err := rediscache.New(ctx, rediscache.Options{
			Addr:   cfg.Storage.RedisAddr,
			TTL:    cfg.Storage.RedisTTL.Duration,
			Prefix: redisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, cache.Close)
		logger.Info("using redis response cache at %s", cfg.Storage.RedisAddr)
		return cache, nil
	}

	cache, err := memory.NewResponseCache(cfg.Provider.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating response cache: %w", err)
	}
	return cache, nil
}

func (a *App) openStandingStore(cfg *config.Config) (driven.StandingQueryStore, error) {
	if cfg.Storage.StateDB == "" {
		return memory.NewStandingQueryStore(), nil
	}

	store, err := sqlite.NewStore(cfg.Storage.StateDB)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	return store.StandingQueryStore(), nil
}

// Query returns the query service.
func (a *App) Query() driving.QueryService {
	return a.orchestrator
}

// Ingest returns the indexing service.
func (a *App) Ingest() driving.IngestService {
	return a.indexer
}

// MetricsHandler serves the engine's Prometheus metrics.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry})
}

// Sync indexes every document once.
func (a *App) Sync(ctx context.Context) error {
	return a.indexer.Sync(ctx)
}

// Run indexes the data directory, then follows changes and recomputes
// standing queries until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.indexer.Run(ctx)
	})
	g.Go(func() error {
		return a.orchestrator.Run(ctx, a.indexer.Events())
	})
	return g.Wait()
}

// Close waits for pending notifications and releases every resource.
func (a *App) Close() error {
	if a.alerts != nil {
		a.alerts.Wait()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
