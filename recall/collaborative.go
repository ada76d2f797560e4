package recall

import (
	"context"
	"sort"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pkg/conv"
	"github.com/rushteam/novelrec/pkg/logging"
	"github.com/rushteam/novelrec/pkg/utils"
)

// CollaborativeRecall 是基于离线隐因子模型的协同过滤召回源。
//
// 新用户没有任何历史行为：如果模型实现了 core.ColdStartPredictor，
// 走冷启动预测；否则用 core.AnonymousUserID 调 Predict，由模型自行外推。
//
// 工程特征：
//   - 每个请求对目录做一次全量预测，代价与目录大小线性相关
//   - 模型只读，无需加锁
//   - 模型缺失或目录为空时返回空结果，不报错
type CollaborativeRecall struct {
	Catalog   core.Catalog
	Predictor core.Predictor

	// TopK 返回 TopK 个物品，默认 100
	TopK int
}

func (r *CollaborativeRecall) Name() string {
	return "recall.cf"
}

func (r *CollaborativeRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Predictor == nil || r.Catalog == nil || r.Catalog.Len() == 0 {
		return nil, nil
	}

	predict := r.predictFunc(rctx)

	type scoredNovel struct {
		novel *core.Novel
		score float64
	}
	scores := make([]scoredNovel, 0, r.Catalog.Len())
	var failed int
	for _, n := range r.Catalog.Novels() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		est, err := predict(ctx, n.ID)
		if err != nil {
			failed++
			continue
		}
		scores = append(scores, scoredNovel{novel: n, score: conv.Round(est, 2)})
	}
	if failed > 0 {
		logging.Ctx(ctx).Debug().
			Str("model", r.Predictor.Name()).
			Int("failed", failed).
			Msg("collaborative predictions skipped")
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 100
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})
	if len(scores) > topK {
		scores = scores[:topK]
	}

	out := make([]*core.Item, 0, len(scores))
	for _, s := range scores {
		it := core.ItemFromNovel(s.novel)
		it.Score = s.score
		it.SetFeature(core.FeatureCFScore, s.score)
		it.PutLabel("cf_model", utils.Label{Value: r.Predictor.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

func (r *CollaborativeRecall) predictFunc(rctx *core.RecommendContext) func(context.Context, string) (float64, error) {
	if rctx.IsAnonymous() {
		if cs, ok := r.Predictor.(core.ColdStartPredictor); ok {
			return cs.PredictColdStart
		}
		return func(ctx context.Context, itemID string) (float64, error) {
			return r.Predictor.Predict(ctx, core.AnonymousUserID, itemID)
		}
	}
	userID := rctx.UserID
	return func(ctx context.Context, itemID string) (float64, error) {
		return r.Predictor.Predict(ctx, userID, itemID)
	}
}
