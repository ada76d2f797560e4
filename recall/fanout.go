package recall

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pipeline"
	"github.com/rushteam/novelrec/pkg/logging"
	"github.com/rushteam/novelrec/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并按 MergeStrategy 合并结果。
//
// 每个召回源的结果写入各自的槽位，合并时按 Sources 顺序读取，
// 因此输出顺序与 goroutine 调度无关。单个召回源失败或超时只会让它贡献空结果。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy MergeStrategy // 为空时使用 FirstMergeStrategy
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	results := make([]SourceResult, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		results[i] = SourceResult{Source: src.Name(), Priority: i}
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				// 超时或错误时返回空结果，不中断其他召回源
				logging.Ctx(ctx).Warn().Err(err).Str("source", src.Name()).Msg("recall source degraded")
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				if it == nil {
					continue
				}
				it.PutLabel("recall_source", utils.Label{Value: src.Name(), Source: "recall"})
				it.PutLabel("recall_priority", utils.Label{Value: strconv.Itoa(i), Source: "recall"})
			}
			results[i].Items = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if rctx != nil {
		for _, r := range results {
			rctx.PutLabel("recall_count."+r.Source, utils.Label{Value: strconv.Itoa(len(r.Items)), Source: "recall"})
		}
	}

	strategy := n.MergeStrategy
	if strategy == nil {
		strategy = &FirstMergeStrategy{}
	}
	return strategy.Merge(results, n.Dedup), nil
}
