package main

import (
	"context"
	"fmt"

	"github.com/rushteam/novelrec/catalog"
	"github.com/rushteam/novelrec/config"
	_ "github.com/rushteam/novelrec/config/builders"
	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/feast"
	"github.com/rushteam/novelrec/model"
	"github.com/rushteam/novelrec/pipeline"
	"github.com/rushteam/novelrec/pkg/logging"
	"github.com/rushteam/novelrec/recommend"
	"github.com/rushteam/novelrec/store"
)

// app 持有一次进程生命周期内的全部依赖。
type app struct {
	cfg       *config.AppConfig
	store     core.KeyValueStore
	catalog   *catalog.Memory
	predictor core.Predictor
	service   *recommend.Service
}

func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Log)
	return cfg, nil
}

// bootstrap 按 store → 目录 → Feast 评分 → 模型 → 链路 → 服务 的顺序装配。
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	a.store, err = store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a.catalog, err = catalog.Open(ctx, cfg.Catalog, a.store)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logging.Info().Str("source", cfg.Catalog.Source).Int("novels", a.catalog.Len()).Msg("catalog loaded")

	if cfg.Feast.Enabled {
		a.catalog = a.enrich(ctx)
	}

	a.predictor, err = model.Open(ctx, cfg.Model, a.store)
	if err != nil {
		// 模型缺失只退化为纯内容推荐
		logging.Warn().Err(err).Msg("model unavailable, collaborative filtering disabled")
		a.predictor = nil
	}

	opts := []recommend.Option{
		recommend.WithDefaultSize(cfg.Recommend.Size),
		recommend.WithTimeout(cfg.Recommend.Timeout),
	}
	if cfg.Pipeline != "" {
		p, err := a.buildPipeline(cfg.Pipeline)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, recommend.WithPipeline(p))
	}
	a.service = recommend.NewService(a.catalog, a.predictor, opts...)
	return a, nil
}

func (a *app) enrich(ctx context.Context) *catalog.Memory {
	client, err := feast.NewClient(a.cfg.Feast.Config)
	if err != nil {
		logging.Warn().Err(err).Msg("feast client unavailable, keeping catalog ratings")
		return a.catalog
	}
	defer client.Close()

	enricher := &catalog.RatingEnricher{
		Client:    client,
		Feature:   a.cfg.Feast.Feature,
		EntityKey: a.cfg.Feast.EntityKey,
		BatchSize: a.cfg.Feast.BatchSize,
	}
	return enricher.Enrich(ctx, a.catalog)
}

func (a *app) buildPipeline(path string) (*pipeline.Pipeline, error) {
	pcfg, err := pipeline.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load pipeline %s: %w", path, err)
	}
	env := &pipeline.Env{Catalog: a.catalog, Predictor: a.predictor, Store: a.store}
	p, err := config.BuildPipeline(pcfg, env)
	if err != nil {
		return nil, fmt.Errorf("build pipeline %s: %w", path, err)
	}
	logging.Info().Str("path", path).Int("nodes", len(p.Nodes)).Msg("pipeline loaded")
	return p, nil
}

func (a *app) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		logging.Warn().Err(err).Msg("close store")
	}
}
