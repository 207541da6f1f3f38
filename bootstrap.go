package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	classifierx "github.com/tanpawarit/deptrouter/agent/agents/classifier"
	orchestratorx "github.com/tanpawarit/deptrouter/agent/agents/orchestrator"
	specialistx "github.com/tanpawarit/deptrouter/agent/agents/specialist"
	llmx "github.com/tanpawarit/deptrouter/agent/llm"
	statex "github.com/tanpawarit/deptrouter/agent/state"
	configx "github.com/tanpawarit/deptrouter/pkg/config"
	metricsx "github.com/tanpawarit/deptrouter/pkg/metrics"
)

type AppConfig struct {
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8000"`
	StateBackend        string        `envconfig:"STATE_BACKEND" default:"memory"`
	RunTimeout          time.Duration `envconfig:"RUN_TIMEOUT" default:"60s"`
	ShutdownTimeout     time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	ClassifierRulesFile string        `envconfig:"CLASSIFIER_RULES_FILE"`
}

type app struct {
	cfg          AppConfig
	orchestrator *orchestratorx.Orchestrator
	metrics      *metricsx.Metrics
	closers      []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Warn().Err(err).Msg("close resource failed")
		}
	}
}

func bootstrap(ctx context.Context) (*app, error) {
	appCfg, err := configx.New[AppConfig]("APP")
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}

	var opts []specialistx.RegistryOption
	if path := strings.TrimSpace(appCfg.ClassifierRulesFile); path != "" {
		rules, err := configx.Decode[classifierx.RuleFile](path)
		if err != nil {
			return nil, fmt.Errorf("load classifier rules: %w", err)
		}
		log.Info().Str("path", path).Int("rules", len(rules.Rules)).Msg("classifier rules loaded")
		opts = append(opts, specialistx.WithClassifierRules(rules.Rules))
	}

	registry, err := specialistx.NewRegistry(ctx, *llmCfg, opts...)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: *appCfg, metrics: metricsx.New()}

	store, closer, err := openStore(ctx, appCfg.StateBackend)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	orch, err := orchestratorx.New(store, registry,
		orchestratorx.WithMetrics(a.metrics),
		orchestratorx.WithRunTimeout(appCfg.RunTimeout),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.orchestrator = orch
	return a, nil
}

func openStore(ctx context.Context, backend string) (statex.Store, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "memory":
		return statex.NewMemoryStore(), nil, nil
	case "redis":
		cfg, err := configx.New[statex.RedisConfig]("REDIS")
		if err != nil {
			return nil, nil, fmt.Errorf("load redis config: %w", err)
		}
		store, err := statex.NewRedisStoreFromConfig(*cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "upstash":
		cfg, err := configx.New[statex.UpstashConfig]("UPSTASH")
		if err != nil {
			return nil, nil, fmt.Errorf("load upstash config: %w", err)
		}
		store, err := statex.NewUpstashStore(*cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case "postgres":
		store, err := openPostgres(ctx)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", backend)
	}
}

func openPostgres(ctx context.Context) (*statex.PostgresStore, error) {
	cfg, err := configx.New[statex.PostgresConfig]("POSTGRES")
	if err != nil {
		return nil, fmt.Errorf("load postgres config: %w", err)
	}
	return statex.OpenPostgresStore(ctx, *cfg)
}
