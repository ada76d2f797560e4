// Package pipeline 把推荐逻辑拆成可组合的 Node 链：召回 → 过滤 → 排序 → 重排。
package pipeline

import (
	"context"
	"time"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pkg/logging"
)

// Observer 接收每个 Node 的执行结果，用于打点（例如 Prometheus 阶段耗时）。
type Observer interface {
	ObserveNode(node Node, in, out int, elapsed time.Duration, err error)
}

// Pipeline 是核心抽象：按顺序执行 Nodes，上一个 Node 的输出是下一个的输入。
type Pipeline struct {
	Name     string
	Nodes    []Node
	Observer Observer
}

// Run 执行整条链路。任意 Node 出错或 ctx 被取消时立即返回。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		elapsed := time.Since(start)
		if p.Observer != nil {
			p.Observer.ObserveNode(node, len(cur), len(next), elapsed, err)
		}
		if err != nil {
			return nil, err
		}
		logging.Ctx(ctx).Debug().
			Str("pipeline", p.Name).
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Dur("elapsed", elapsed).
			Msg("node done")
		cur = next
	}
	return cur, nil
}
