package rerank

import (
	"context"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pipeline"
	"github.com/rushteam/novelrec/pkg/conv"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个物品。
//
// 请求级参数 rctx.Params["size"] 优先于 N，用于按请求控制返回条数：
//   - size = 0 返回空列表
//   - size 大于候选数时返回全部
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        rank.NewHybridNode(),       // 排序
//	        &rerank.Diversity{...},     // 多样性重排
//	        &rerank.TopNNode{N: 100},   // 截取 Top 100
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量；N <= 0 且请求未指定 size 时不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit, ok := requestSize(rctx)
	if !ok {
		if n.N <= 0 {
			return items, nil
		}
		limit = n.N
	}
	if len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}

// requestSize 读取请求级 size；负数按 0 处理。
func requestSize(rctx *core.RecommendContext) (int, bool) {
	if rctx == nil || rctx.Params == nil {
		return 0, false
	}
	v, exists := rctx.Params[core.ParamSize]
	if !exists {
		return 0, false
	}
	size, ok := conv.ToInt(v)
	if !ok {
		return 0, false
	}
	return max(size, 0), true
}
