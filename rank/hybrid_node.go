package rank

import (
	"context"
	"math"
	"sort"
	"strconv"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pipeline"
	"github.com/rushteam/novelrec/pkg/utils"
)

// 评分区间
const (
	MinScore = 0.0
	MaxScore = 5.0
)

// HybridNode 是混合打分排序 Node：
//
//  1. 内容匹配度按本批最大匹配度归一化到 [0,5]，与中性先验加权：
//     base = (m/maxMatch)*5*ContentWeight + NeutralPrior*PriorWeight
//  2. 没有内容匹配的候选直接使用协同过滤预测分作为 base
//  3. 叠加平台评分校准，截断到 [0,5]，稳定降序
//
// 写入 features：base_score、platform_adjustment；写入 labels：rank_model。
// rctx 上记录 score_norm（本批 max_match / max_cf）。
type HybridNode struct {
	// ContentWeight 默认 0.7
	ContentWeight float64
	// NeutralPrior 默认 3
	NeutralPrior float64
	// PriorWeight 默认 0.3
	PriorWeight float64

	// Calibrator 为空时使用 DefaultPlatformCalibrator
	Calibrator Calibrator
}

// NewHybridNode 使用默认权重。
func NewHybridNode() *HybridNode {
	return &HybridNode{
		ContentWeight: 0.7,
		NeutralPrior:  3,
		PriorWeight:   0.3,
		Calibrator:    DefaultPlatformCalibrator(),
	}
}

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	calibrator := n.Calibrator
	if calibrator == nil {
		calibrator = DefaultPlatformCalibrator()
	}

	maxMatch, maxCF := 1, 5.0
	for _, it := range items {
		if it == nil {
			continue
		}
		maxMatch = max(maxMatch, it.MatchScore())
		if cf := it.CFScore(); cf > 0 {
			maxCF = math.Max(maxCF, cf)
		}
	}
	if rctx != nil {
		rctx.PutLabel("score_norm", utils.Label{
			Value:  "max_match=" + strconv.Itoa(maxMatch) + ",max_cf=" + strconv.FormatFloat(maxCF, 'f', 2, 64),
			Source: "rank",
		})
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		base := n.BaseScore(it.MatchScore(), maxMatch, it.CFScore())
		var adj float64
		if novel, ok := core.NovelOf(it); ok {
			adj = calibrator.Adjustment(novel.Rating)
		}
		it.SetFeature(core.FeatureBaseScore, base)
		it.SetFeature(core.FeatureAdjustment, adj)
		it.Score = Clamp(base + adj)
		it.SetLabel("rank_model", utils.Label{Value: "hybrid", Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

// BaseScore 计算校准前的基础分；maxMatch 小于 1 时按 1 处理。
func (n *HybridNode) BaseScore(match, maxMatch int, cf float64) float64 {
	if match <= 0 {
		return cf
	}
	if maxMatch < 1 {
		maxMatch = 1
	}
	return float64(match)/float64(maxMatch)*MaxScore*n.ContentWeight + n.NeutralPrior*n.PriorWeight
}

// Clamp 把分数截断到 [0,5]。
func Clamp(v float64) float64 {
	return math.Min(MaxScore, math.Max(MinScore, v))
}
