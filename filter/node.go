package filter

import (
	"context"
	"strconv"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pipeline"
	"github.com/rushteam/novelrec/pkg/logging"
	"github.com/rushteam/novelrec/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 任何一个过滤器返回 true，该物品就会被过滤掉；过滤器出错时保留该物品。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	dropped := make(map[string]int)
	var errCount int

	for _, item := range items {
		if item == nil {
			continue
		}
		reason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				errCount++
				continue
			}
			if ok {
				reason = f.Name()
				break
			}
		}
		if reason != "" {
			dropped[reason]++
			continue
		}
		out = append(out, item)
	}

	if rctx != nil {
		for name, c := range dropped {
			rctx.PutLabel("filtered."+name, utils.Label{Value: strconv.Itoa(c), Source: "filter"})
		}
	}
	if errCount > 0 {
		logging.Ctx(ctx).Debug().Int("errors", errCount).Msg("filter errors ignored, items kept")
	}
	return out, nil
}
