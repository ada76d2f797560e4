// Package novelrec 是面向新用户的混合小说推荐系统。
//
// 设计要点：
// - Profile-first: 由人口属性（性别、年龄、职业、阅读时长）推导偏好标签，新用户无需任何行为数据
// - Pipeline-first: 推荐链路由 Node 串联（Recall → Filter → Rank → ReRank），可由 YAML 配置
// - Hybrid: 内容匹配召回与协同过滤召回并发执行，内容优先合并，再按平台评分校准
// - Labels-first: labels 全链路透传，用于 explain 与观测
package novelrec

import (
	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pipeline"
	"github.com/rushteam/novelrec/recommend"
)

// 轻量 facade：便于直接 import "novelrec" 使用核心抽象。
type (
	Pipeline       = pipeline.Pipeline
	Node           = pipeline.Node
	Kind           = pipeline.Kind
	Service        = recommend.Service
	Recommendation = recommend.Recommendation
	Demographics   = core.Demographics
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)

// NewService 见 recommend.NewService。
func NewService(catalog core.Catalog, predictor core.Predictor, opts ...recommend.Option) *Service {
	return recommend.NewService(catalog, predictor, opts...)
}
