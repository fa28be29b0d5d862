package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/finassist/internal/assistant"
	"github.com/Veraticus/finassist/internal/classification"
	"github.com/Veraticus/finassist/internal/config"
	"github.com/Veraticus/finassist/internal/guardrail"
	"github.com/Veraticus/finassist/internal/llm"
	"github.com/Veraticus/finassist/internal/metrics"
	"github.com/Veraticus/finassist/internal/postgrest"
	"github.com/Veraticus/finassist/internal/query"
	"github.com/Veraticus/finassist/internal/service"
	"github.com/Veraticus/finassist/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var errSQLiteOnly = errors.New("this command requires the sqlite backend")

// app holds everything a command needs, wired from the loaded config.
type app struct {
	cfg       *config.Config
	store     service.Store
	sqlite    *storage.SQLiteStorage
	engine    *query.Engine
	assistant *assistant.Assistant
	metrics   *metrics.Collector
	registry  *prometheus.Registry
}

// newApp loads the config and wires the store, engine and assistant. The LLM
// is only connected when withLLM is set and an API key is configured;
// without it questions are limited to templates and raw SQL.
func newApp(ctx context.Context, withLLM bool) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, metrics: metrics.New(), registry: prometheus.NewRegistry()}
	a.metrics.Register(a.registry)
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	policy, err := loadPolicy(cfg.GuardrailPath)
	if err != nil {
		a.close()
		return nil, err
	}
	rules, err := loadRules(cfg.RulesPath)
	if err != nil {
		a.close()
		return nil, err
	}

	logger := slog.Default()
	a.engine = query.NewEngine(a.store, policy,
		query.WithLocation(cfg.Location),
		query.WithObserver(a.metrics),
		query.WithLogger(logger))

	opts := []assistant.Option{
		assistant.WithRecorder(a.metrics),
		assistant.WithRates(assistant.NewStaticRates(cfg.Rates)),
		assistant.WithMaxAmount(decimal.NewFromFloat(cfg.MaxAmount)),
		assistant.WithLocation(cfg.Location),
		assistant.WithLogger(logger),
	}

	if withLLM {
		switch client, err := llm.NewClient(cfg.LLM); {
		case errors.Is(err, llm.ErrMissingAPIKey):
			slog.Warn("No LLM API key configured; only templates and raw SQL can be answered",
				"provider", cfg.LLM.Provider)
		case err != nil:
			a.close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		default:
			opts = append(opts,
				assistant.WithRouter(llm.NewRouter(client, cfg.LLM.CacheTTL, logger)),
				assistant.WithSQLGenerator(llm.NewSQLGenerator(client)))
		}
	}

	a.assistant = assistant.New(a.store, a.engine, classification.NewClassifier(rules, logger), opts...)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Backend {
	case config.BackendPostgREST:
		client, err := postgrest.NewClient(a.cfg.PostgRESTURL, a.cfg.PostgRESTKey,
			postgrest.WithLogger(slog.Default()))
		if err != nil {
			return fmt.Errorf("failed to create PostgREST client: %w", err)
		}
		a.store = client
		slog.Debug("Using PostgREST store", "url", a.cfg.PostgRESTURL)
	default:
		db, err := storage.NewSQLiteStorage(a.cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		a.sqlite = db
		a.store = db
		slog.Debug("Using SQLite store", "path", a.cfg.DatabasePath)
	}
	return nil
}

// requireSQLite returns the SQLite store for commands that write reference
// data, which the REST backend does not expose.
func (a *app) requireSQLite() (*storage.SQLiteStorage, error) {
	if a.sqlite == nil {
		return nil, fmt.Errorf("%w (store.backend is %q)", errSQLiteOnly, a.cfg.Backend)
	}
	return a.sqlite, nil
}

func (a *app) close() {
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}
}

func loadPolicy(path string) (*guardrail.Policy, error) {
	if path == "" {
		return guardrail.DefaultPolicy()
	}
	policy, err := guardrail.LoadPolicy(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load guardrail policy: %w", err)
	}
	return policy, nil
}

func loadRules(path string) (*classification.RuleTable, error) {
	if path == "" {
		return classification.DefaultRuleTable()
	}
	rules, err := classification.LoadRuleTable(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load classification rules: %w", err)
	}
	return rules, nil
}

// userID resolves the --user flag, falling back to the user.id setting.
func userID(flag string) string {
	if flag != "" {
		return flag
	}
	return viper.GetString("user.id")
}

func expandSetting(key string) string {
	return config.ExpandPath(viper.GetString(key))
}
