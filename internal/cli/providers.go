package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/eshaffer321/statement-reconciler/internal/adapters/extractor"
	"github.com/eshaffer321/statement-reconciler/internal/application/service"
	"github.com/eshaffer321/statement-reconciler/internal/domain/matcher"
	"github.com/eshaffer321/statement-reconciler/internal/domain/statement"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/config"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/metrics"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/storage"
)

// Runtime bundles the components every command needs.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *storage.Storage
	Service  *service.ReconcileService
	Metrics  metrics.Collector
	Registry *prometheus.Registry // nil when metrics are disabled
}

// NewRuntime opens storage and wires the service from cfg.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NoOpCollector{},
	}

	if cfg.Observability.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector := metrics.NewPrometheusCollector(cfg.Observability.Metrics.Namespace)
		if err := collector.Register(registry); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		rt.Metrics = collector
		rt.Registry = registry
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath, storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	rt.Store = store

	opts := ServiceOptions(cfg)
	opts = append(opts, service.WithMetrics(rt.Metrics))

	ext, err := NewExtractor(ctx, cfg, rt.Metrics, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if ext != nil {
		opts = append(opts, service.WithExtractor(ext))
	}

	rt.Service = service.NewReconcileService(store, logger, opts...)
	return rt, nil
}

// Close releases the database.
func (r *Runtime) Close() error {
	if r.Store == nil {
		return nil
	}
	return r.Store.Close()
}

// ServiceOptions translates configuration into service options.
func ServiceOptions(cfg *config.Config) []service.Option {
	parserCfg := statement.DefaultConfig()
	parserCfg.Delimiter = cfg.Parser.DelimiterRune()

	matcherCfg := matcher.DefaultConfig()
	if cfg.Matching.MaxCandidates > 0 {
		matcherCfg.MaxCandidates = cfg.Matching.MaxCandidates
	}
	if cfg.Matching.MinScore > 0 {
		matcherCfg.MinScore = cfg.Matching.MinScore
	}
	if cfg.Matching.Workers > 0 {
		matcherCfg.Workers = cfg.Matching.Workers
	}

	return []service.Option{
		service.WithParserConfig(parserCfg),
		service.WithMatcherConfig(matcherCfg),
		service.WithAutoMinScore(cfg.Reconcile.AutoMinScore),
	}
}

// NewExtractor builds the Gemini extractor behind a circuit breaker.
// It returns nil without error when no API key is configured.
func NewExtractor(ctx context.Context, cfg *config.Config, collector metrics.Collector, logger *slog.Logger) (extractor.Extractor, error) {
	apiKey := cfg.GetAPIKey(cfg.Extraction.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	if apiKey == "" {
		logger.Info("statement extraction disabled, no API key configured")
		return nil, nil
	}

	client, err := extractor.NewGenAIClient(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	gemini := extractor.NewGeminiExtractor(client, cfg.Extraction.Model, extractor.NewMemoryCache(), logger)

	breakerCfg := extractor.DefaultBreakerConfig()
	breakerCfg.Timeout = cfg.Extraction.Timeout()
	return extractor.NewBreakerExtractor(gemini, breakerCfg, collector, logger), nil
}
