package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brandwatch/internal/aggregator"
	"github.com/sells-group/brandwatch/internal/collector"
	"github.com/sells-group/brandwatch/internal/extractor"
	"github.com/sells-group/brandwatch/internal/pipeline"
	"github.com/sells-group/brandwatch/internal/resilience"
	"github.com/sells-group/brandwatch/internal/store"
	anthropicpkg "github.com/sells-group/brandwatch/pkg/anthropic"
	"github.com/sells-group/brandwatch/pkg/openai"
)

// pipelineEnv holds the initialized store, clients, and pipeline needed by
// the run/serve/schedule commands.
type pipelineEnv struct {
	Store     store.Store
	Pipeline  *pipeline.Pipeline
	Collector *collector.Collector
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "brandwatch.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store and all provider clients, then builds the
// Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate("pipeline"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	providers := make([]collector.Provider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		opts := []openai.Option{openai.WithBaseURL(p.BaseURL)}
		if p.Model != "" {
			opts = append(opts, openai.WithModel(p.Model))
		}
		providers = append(providers, collector.Provider{
			Name:   p.Name,
			Client: openai.NewClient(p.Key, opts...),
		})
	}

	coll, err := collector.New(providers, collector.Config{
		MaxParallel:       cfg.Collector.MaxParallel,
		Timeout:           time.Duration(cfg.Collector.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Collector.RequestsPerSecond,
		BreakerConfig: resilience.FromCircuitConfig(
			cfg.Collector.BreakerFailThreshold,
			cfg.Collector.BreakerResetSecs,
		),
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	ext := extractor.New(anthropicpkg.NewClient(cfg.Anthropic.Key), extractor.Config{
		Model:       cfg.Anthropic.Model,
		MaxAttempts: cfg.Extraction.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Extraction.BaseDelaySecs) * time.Second,
		Timeout:     time.Duration(cfg.Extraction.TimeoutSecs) * time.Second,
		MaxTokens:   cfg.Extraction.MaxTokens,
	})

	zap.L().Info("pipeline initialized",
		zap.Int("providers", len(providers)),
		zap.String("store", cfg.Store.Driver),
		zap.String("workspace", cfg.Workspace),
	)

	return &pipelineEnv{
		Store:     st,
		Pipeline:  pipeline.New(st, coll, ext, aggregator.New(st)),
		Collector: coll,
	}, nil
}
