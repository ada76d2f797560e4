package core

import "github.com/rushteam/novelrec/pkg/utils"

// 混合推荐链路使用的特征 key。
const (
	// FeatureMatchScore 内容匹配度：命中的偏好标签数量（整数，>= 0）
	FeatureMatchScore = "match_score"
	// FeatureCFScore 协同过滤预测评分，0 表示未计算
	FeatureCFScore = "cf_score"
	// FeatureBaseScore 平台评分校准前的基础分
	FeatureBaseScore = "base_score"
	// FeatureAdjustment 平台评分校准量
	FeatureAdjustment = "platform_adjustment"
)

// Item 是推荐链路中的统一承载结构：特征、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// SetLabel 覆盖写入 Label，用于同一阶段重复执行时保持结果不变。
func (it *Item) SetLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	it.Labels[key] = lbl
}

// SetFeature 写入特征。
func (it *Item) SetFeature(key string, v float64) {
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[key] = v
}

// MatchScore 返回内容匹配度。
func (it *Item) MatchScore() int {
	return int(it.Features[FeatureMatchScore])
}

// CFScore 返回协同过滤预测评分。
func (it *Item) CFScore() float64 {
	return it.Features[FeatureCFScore]
}
