// Package builders 在 init 中向 config 注册内置 Node 的构建器。
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/novelrec/config"
	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/filter"
	"github.com/rushteam/novelrec/pipeline"
	"github.com/rushteam/novelrec/pkg/conv"
	"github.com/rushteam/novelrec/rank"
	"github.com/rushteam/novelrec/recall"
	"github.com/rushteam/novelrec/rerank"
)

func init() {
	config.Register("recall.hybrid", BuildHybridRecallNode)
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("recall.popular", BuildPopularNode)
	config.Register("rank.hybrid", BuildHybridRankNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("filter", BuildFilterNode)
}

var defaults = &core.DefaultRecommendConfig{}

func invalid(format string, args ...any) error {
	return core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
}

// BuildHybridRecallNode 构建内容 + 协同过滤双路召回，按内容优先的混合策略合并。
//
//	config:
//	  content_top_k: 50
//	  cf_top_k: 100
//	  content_quota: 50
//	  cf_quota: 50
//	  match_mode: substring   # 或 exact
//	  timeout_ms: 0            # 单个召回源超时，默认不设
func BuildHybridRecallNode(cfg map[string]any, env *pipeline.Env) (pipeline.Node, error) {
	if env == nil || env.Catalog == nil {
		return nil, invalid("recall.hybrid: catalog is required")
	}
	content := &recall.ContentRecall{
		Catalog:   env.Catalog,
		TopK:      conv.ConfigGetInt(cfg, "content_top_k", defaults.DefaultContentTopK()),
		MatchMode: conv.ConfigGet(cfg, "match_mode", recall.MatchSubstring),
	}
	cf := &recall.CollaborativeRecall{
		Catalog:   env.Catalog,
		Predictor: env.Predictor,
		TopK:      conv.ConfigGetInt(cfg, "cf_top_k", defaults.DefaultCollaborativeTopK()),
	}
	return &recall.Fanout{
		Sources:       []recall.Source{content, cf},
		Dedup:         true,
		Timeout:       durationMS(cfg, "timeout_ms", defaults.DefaultTimeout()),
		MaxConcurrent: conv.ConfigGetInt(cfg, "max_concurrent", 0),
		MergeStrategy: &recall.HybridMergeStrategy{
			ContentSource:       content.Name(),
			CollaborativeSource: cf.Name(),
			ContentQuota:        conv.ConfigGetInt(cfg, "content_quota", defaults.DefaultContentQuota()),
			CollaborativeQuota:  conv.ConfigGetInt(cfg, "cf_quota", defaults.DefaultCollaborativeQuota()),
		},
	}, nil
}

// BuildFanoutNode 构建通用多路召回。
//
//	config:
//	  sources:
//	    - type: content | cf | popular
//	  merge_strategy: first | union | hybrid
func BuildFanoutNode(cfg map[string]any, env *pipeline.Env) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]any)
	if !ok || len(sourcesConfig) == 0 {
		return nil, invalid("recall.fanout: sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		src, err := buildSource(sourceMap, env)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		Timeout:       durationMS(cfg, "timeout_ms", defaults.DefaultTimeout()),
		MaxConcurrent: conv.ConfigGetInt(cfg, "max_concurrent", 0),
	}
	switch conv.ConfigGet(cfg, "merge_strategy", "") {
	case "union":
		fanout.MergeStrategy = &recall.UnionMergeStrategy{}
	case "hybrid":
		fanout.MergeStrategy = &recall.HybridMergeStrategy{
			ContentQuota:       conv.ConfigGetInt(cfg, "content_quota", defaults.DefaultContentQuota()),
			CollaborativeQuota: conv.ConfigGetInt(cfg, "cf_quota", defaults.DefaultCollaborativeQuota()),
		}
	default:
		fanout.MergeStrategy = &recall.FirstMergeStrategy{}
	}
	return fanout, nil
}

func buildSource(cfg map[string]any, env *pipeline.Env) (recall.Source, error) {
	if env == nil || env.Catalog == nil {
		return nil, invalid("recall source: catalog is required")
	}
	switch t := conv.ConfigGet(cfg, "type", ""); t {
	case "content":
		return &recall.ContentRecall{
			Catalog:   env.Catalog,
			TopK:      conv.ConfigGetInt(cfg, "top_k", defaults.DefaultContentTopK()),
			MatchMode: conv.ConfigGet(cfg, "match_mode", recall.MatchSubstring),
		}, nil
	case "cf":
		return &recall.CollaborativeRecall{
			Catalog:   env.Catalog,
			Predictor: env.Predictor,
			TopK:      conv.ConfigGetInt(cfg, "top_k", defaults.DefaultCollaborativeTopK()),
		}, nil
	case "popular":
		return popular(cfg, env), nil
	default:
		return nil, invalid("unknown source type: %q", t)
	}
}

func popular(cfg map[string]any, env *pipeline.Env) *recall.PopularRecall {
	return &recall.PopularRecall{
		Catalog: env.Catalog,
		Store:   env.Store,
		Key:     conv.ConfigGet(cfg, "key", recall.DefaultPopularKey),
		TopK:    conv.ConfigGetInt(cfg, "top_k", 50),
	}
}

func BuildPopularNode(cfg map[string]any, env *pipeline.Env) (pipeline.Node, error) {
	if env == nil || env.Catalog == nil || env.Store == nil {
		return nil, invalid("recall.popular: catalog and store are required")
	}
	return popular(cfg, env), nil
}

// BuildHybridRankNode 构建混合打分节点；calibration: false 关闭平台评分校准。
func BuildHybridRankNode(cfg map[string]any, _ *pipeline.Env) (pipeline.Node, error) {
	n := rank.NewHybridNode()
	n.ContentWeight = conv.ConfigGetFloat64(cfg, "content_weight", n.ContentWeight)
	n.NeutralPrior = conv.ConfigGetFloat64(cfg, "neutral_prior", n.NeutralPrior)
	n.PriorWeight = conv.ConfigGetFloat64(cfg, "prior_weight", n.PriorWeight)

	if !conv.ConfigGet(cfg, "calibration", true) {
		n.Calibrator = rank.NoCalibration{}
		return n, nil
	}
	c := rank.DefaultPlatformCalibrator()
	c.Pivot = conv.ConfigGetFloat64(cfg, "pivot", c.Pivot)
	c.Step = conv.ConfigGetFloat64(cfg, "step", c.Step)
	c.RewardPerStep = conv.ConfigGetFloat64(cfg, "reward_per_step", c.RewardPerStep)
	c.PenaltyPerStep = conv.ConfigGetFloat64(cfg, "penalty_per_step", c.PenaltyPerStep)
	if c.Step <= 0 {
		return nil, invalid("rank.hybrid: step must be positive")
	}
	n.Calibrator = c
	return n, nil
}

func BuildTopNNode(cfg map[string]any, _ *pipeline.Env) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", defaults.DefaultSize())}, nil
}

func BuildDiversityNode(cfg map[string]any, _ *pipeline.Env) (pipeline.Node, error) {
	return &rerank.Diversity{
		Key:       conv.ConfigGet(cfg, "key", "author"),
		MaxPerKey: conv.ConfigGetInt(cfg, "max_per_key", 1),
		Drop:      conv.ConfigGet(cfg, "drop", false),
	}, nil
}

// BuildFilterNode 构建过滤节点。
//
//	config:
//	  filters:
//	    - type: blacklist
//	      item_ids: ["1001"]
//	      key: novel:blacklist
//	    - type: platform
//	    - type: expr
//	      expr: item.platform_rating == null || item.platform_rating >= 3.5
func BuildFilterNode(cfg map[string]any, env *pipeline.Env) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, invalid("filter: filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		switch t := conv.ConfigGet(filterMap, "type", ""); t {
		case "blacklist":
			f := filter.NewBlacklistFilter(conv.SliceAnyToString(filterMap["item_ids"]), nil, conv.ConfigGet(filterMap, "key", ""))
			if env != nil && conv.ConfigGet(filterMap, "key", "") != "" {
				f.Store = env.Store
			}
			if sec := conv.ConfigGetInt(filterMap, "refresh_seconds", 0); sec > 0 {
				f.RefreshInterval = time.Duration(sec) * time.Second
			}
			filters = append(filters, f)
		case "platform":
			filters = append(filters, &filter.PlatformFilter{Platforms: conv.SliceAnyToString(filterMap["platforms"])})
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		default:
			return nil, invalid("unknown filter type: %q", t)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func durationMS(cfg map[string]any, key string, def time.Duration) time.Duration {
	if ms := conv.ConfigGetInt(cfg, key, 0); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}
