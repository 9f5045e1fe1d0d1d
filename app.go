package main

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stockout-app/config"
	"stockout-app/logger"
	"stockout-app/pipeline"
	"stockout-app/repository"
	"stockout-app/scoring"
)

// app holds the components shared by serve and score.
type app struct {
	cfg    *config.Config
	log    *logger.ZapLogger
	loader *scoring.Loader
	runner *pipeline.Runner
	runs   *repository.RunRepository

	db    *sql.DB
	redis *redis.Client
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// initializeApp builds the scoring pipeline from cfg. The returned cleanup
// closes everything that was opened, also on error paths.
func initializeApp(cfg *config.Config) (*app, func(), error) {
	log, err := logger.NewZapLogger(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		return nil, func() {}, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, log: log}
	cleanup := func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
		if a.db != nil {
			_ = a.db.Close()
		}
		_ = log.Sync()
	}

	policy, err := scoring.ParsePolicy(cfg.Model.MissingFeatures)
	if err != nil {
		return nil, cleanup, err
	}

	var cache scoring.Cache
	switch cfg.Cache.Backend {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		cache = scoring.NewRedisCache(a.redis, cfg.Cache.Redis.Key)
	default:
		cache = scoring.NewFileCache(cfg.Model.CachePath)
	}

	a.loader = scoring.NewLoader(cfg.Model.URL, cache, log,
		scoring.WithFetchTimeout(cfg.Model.FetchTimeout),
		scoring.WithSHA256(cfg.Model.SHA256),
	)

	opts := []pipeline.RunnerOption{
		pipeline.WithHighRiskThreshold(cfg.Present.HighlightThreshold),
		pipeline.WithRenames(renames(cfg.Normalize)),
	}
	if cfg.History.Enabled {
		a.db, err = config.OpenDB(cfg.History.Path)
		if err != nil {
			return nil, cleanup, err
		}
		a.runs = repository.NewRunRepository(a.db)
		opts = append(opts, pipeline.WithRecorder(a.runs))
	}

	a.runner = pipeline.NewRunner(a.loader, scoring.NewScorer(policy, log), log, opts...)
	return a, cleanup, nil
}

// renames merges the configured header renames into the built-in map.
func renames(cfg config.NormalizeConfig) map[string]string {
	m := maps.Clone(pipeline.DefaultRenames)
	for _, r := range cfg.Renames {
		m[strings.TrimSpace(r.From)] = strings.TrimSpace(r.To)
	}
	return m
}

func (a *app) format() pipeline.Format {
	return pipeline.Format{
		RiskDecimals:  a.cfg.Export.RiskDecimals,
		ValueDecimals: a.cfg.Export.ValueDecimals,
	}
}

// warmUp loads the artifact before any request arrives. A service that
// cannot load its model must not start.
func (a *app) warmUp(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Model.FetchTimeout+5*time.Second)
	defer cancel()
	if _, err := a.loader.Load(ctx); err != nil {
		return fmt.Errorf("load scoring artifact: %w", err)
	}
	return nil
}
