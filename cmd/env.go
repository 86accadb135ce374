package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/filippefrulli/ranklens-sub000/internal/analysis"
	"github.com/filippefrulli/ranklens-sub000/internal/llm"
	"github.com/filippefrulli/ranklens-sub000/internal/model"
	"github.com/filippefrulli/ranklens-sub000/internal/standardize"
	"github.com/filippefrulli/ranklens-sub000/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "ranklens.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initGateway() *llm.Gateway {
	return llm.NewGateway(llm.Keys{
		OpenAI:     cfg.OpenAI.Key,
		Gemini:     cfg.Gemini.Key,
		Anthropic:  cfg.Anthropic.Key,
		Perplexity: cfg.Perplexity.Key,
		Mistral:    cfg.Mistral.Key,
	}, llm.WithTimeout(time.Duration(cfg.Analysis.CallTimeoutSecs)*time.Second))
}

// analysisEnv bundles the wired store and orchestrator used by the run,
// batch, schedule, and serve commands.
type analysisEnv struct {
	Store        store.Store
	Gateway      *llm.Gateway
	Orchestrator *analysis.Orchestrator
}

func (e *analysisEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

func initAnalysis(ctx context.Context) (*analysisEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	gw := initGateway()

	var std analysis.Standardizer
	if cfg.Standardize.Enabled {
		provider := model.ProviderID(cfg.Standardize.Provider)
		if gw.Configured(provider) {
			std = standardize.New(gw, standardize.NewCache(), provider, cfg.Standardize.Model)
		} else {
			zap.L().Warn("standardization provider has no API key, names pass through unmapped",
				zap.String("provider", cfg.Standardize.Provider))
		}
	}

	runner := analysis.NewRunner(gw, std)
	orch := analysis.NewOrchestrator(st, runner, analysis.NewAggregator(st), analysisConfig())

	return &analysisEnv{Store: st, Gateway: gw, Orchestrator: orch}, nil
}

// analysisConfig maps the flat config knobs onto run pacing. attempts_per_sec
// is inverted into a delay between attempts.
func analysisConfig() analysis.Config {
	c := analysis.Config{
		Attempts:           cfg.Analysis.AttemptsPerQuery,
		RequestedCount:     cfg.Analysis.RequestedCount,
		InterProviderDelay: time.Duration(cfg.Analysis.ProviderDelayMs) * time.Millisecond,
	}
	if rate := cfg.Analysis.AttemptsPerSec; rate > 0 {
		c.InterAttemptDelay = time.Duration(float64(time.Second) / rate)
	}
	return c
}

// seedProviders writes the provider roster into the store. The roster comes
// from the registry file when one is configured, otherwise from the built-in
// provider list.
func seedProviders(ctx context.Context, st store.Store) (int, error) {
	providers := defaultProviders()

	if path := cfg.Providers.Registry; path != "" {
		if _, err := os.Stat(path); err == nil {
			reg, err := llm.LoadRegistry(path)
			if err != nil {
				return 0, eris.Wrap(err, "load provider registry")
			}
			providers = reg.Models()
		} else {
			zap.L().Warn("provider registry not found, using built-in roster",
				zap.String("path", path))
		}
	}

	for i := range providers {
		if override := modelOverride(providers[i].Canonical); override != "" {
			providers[i].DefaultModel = override
		}
		if err := st.UpsertProvider(ctx, providers[i]); err != nil {
			return 0, eris.Wrapf(err, "seed provider %s", providers[i].ID)
		}
	}
	return len(providers), nil
}

func defaultProviders() []model.Provider {
	names := map[model.ProviderID]string{
		model.ProviderOpenAI:     "OpenAI",
		model.ProviderGemini:     "Google Gemini",
		model.ProviderAnthropic:  "Anthropic",
		model.ProviderPerplexity: "Perplexity",
		model.ProviderMistral:    "Mistral",
	}
	providers := make([]model.Provider, 0, len(model.KnownProviderIDs))
	for _, id := range model.KnownProviderIDs {
		providers = append(providers, model.Provider{
			ID:           string(id),
			Canonical:    id,
			Name:         names[id],
			DefaultModel: llm.DefaultModel(id),
			Active:       true,
		})
	}
	return providers
}

func modelOverride(id model.ProviderID) string {
	switch id {
	case model.ProviderOpenAI:
		return cfg.OpenAI.Model
	case model.ProviderGemini:
		return cfg.Gemini.Model
	case model.ProviderAnthropic:
		return cfg.Anthropic.Model
	case model.ProviderPerplexity:
		return cfg.Perplexity.Model
	case model.ProviderMistral:
		return cfg.Mistral.Model
	}
	return ""
}
