package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/harbiz/prospect-cli/internal/outreach"
	"github.com/harbiz/prospect-cli/internal/pipeline"
	"github.com/harbiz/prospect-cli/internal/ratelimit"
	"github.com/harbiz/prospect-cli/internal/search"
	"github.com/harbiz/prospect-cli/internal/store"
	anthropicpkg "github.com/harbiz/prospect-cli/pkg/anthropic"
	"github.com/harbiz/prospect-cli/pkg/serper"
)

// pipelineEnv bundles the pipeline with everything that needs closing.
type pipelineEnv struct {
	Pipeline *pipeline.Pipeline
	Limits   *ratelimit.MemoryStore
	store    store.Store
}

func (e *pipelineEnv) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "prospects.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "none":
		return nil, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	serperClient := serper.NewClient(cfg.Serper.Key,
		serper.WithBaseURL(cfg.Serper.BaseURL),
		serper.WithLocale(cfg.Serper.CountryCode, cfg.Serper.LanguageCode),
	)

	// Key validation is lazy: a missing Anthropic key surfaces as a fatal
	// error on the first oracle call of a run.
	oracle := anthropicpkg.NewClient(cfg.Anthropic.Key)

	limits := ratelimit.NewMemoryStore()
	limiter := ratelimit.New(limits,
		time.Duration(cfg.RateLimit.WindowSecs)*time.Second,
		cfg.RateLimit.MaxRequests,
	)

	p := pipeline.New(cfg, st, limiter,
		search.NewRunner(serperClient, cfg.Search),
		search.NewRanker(oracle, cfg.Anthropic),
		outreach.NewEnricher(oracle, cfg.Anthropic, cfg.Outreach),
	)

	return &pipelineEnv{Pipeline: p, Limits: limits, store: st}, nil
}
