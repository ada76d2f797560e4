package recall

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pipeline"
	"github.com/rushteam/novelrec/pkg/utils"
)

// DefaultPopularKey 是热门榜在 Store 中的默认 key。
const DefaultPopularKey = "novel:popular"

// PopularRecall 是热门榜召回源，从 Store 读取离线计算的热门小说 ID。
//   - Store 实现了 KeyValueStore 时，从有序集合 ZRange 读取 TopK（按热度降序）
//   - 否则从普通 key 读取 JSON 数组
//
// 不在目录中的 ID 会被跳过；读取失败返回空结果。
// 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type PopularRecall struct {
	Catalog core.Catalog
	Store   core.Store

	// Key 默认 "novel:popular"
	Key string

	// TopK 默认 50
	TopK int
}

func (r *PopularRecall) Name() string        { return "recall.popular" }
func (r *PopularRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *PopularRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *PopularRecall) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil || r.Catalog == nil {
		return nil, nil
	}
	key := r.Key
	if key == "" {
		key = DefaultPopularKey
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 50
	}

	var ids []string
	if kv, ok := r.Store.(core.KeyValueStore); ok {
		// key 不是有序集合时 Redis 返回 WRONGTYPE，退回普通读取
		if members, err := kv.ZRange(ctx, key, 0, int64(topK-1)); err == nil {
			ids = members
		}
	}
	if len(ids) == 0 {
		data, err := r.Store.Get(ctx, key)
		if err != nil {
			if core.IsStoreNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		if err := json.Unmarshal(data, &ids); err != nil {
			return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
				"recall.popular: decode "+key+": "+err.Error())
		}
	}

	out := make([]*core.Item, 0, min(len(ids), topK))
	for rank, id := range ids {
		if len(out) >= topK {
			break
		}
		n, ok := r.Catalog.Get(id)
		if !ok {
			continue
		}
		it := core.ItemFromNovel(n)
		it.Score = float64(len(ids) - rank)
		it.PutLabel("recall_popular", utils.Label{Value: key, Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
