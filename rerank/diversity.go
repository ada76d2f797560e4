package rerank

import (
	"context"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pipeline"
)

// Diversity 是按属性打散的多样性 ReRank：同一属性值最多保留 MaxPerKey 个靠前位置。
//
// 属性来源优先级：
//   - 小说字段：author / platform
//   - label[Key].Value
//   - meta[Key] (string)
//
// 超出上限的物品默认降到列表末尾（保持相对顺序），Drop 为 true 时直接丢弃。
// 取不到属性值的物品不受限制。
type Diversity struct {
	// Key 默认 "author"
	Key string

	// MaxPerKey 默认 1
	MaxPerKey int

	Drop bool
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.Key
	if key == "" {
		key = "author"
	}
	limit := n.MaxPerKey
	if limit <= 0 {
		limit = 1
	}

	counts := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))
	var overflow []*core.Item

	for _, it := range items {
		if it == nil {
			continue
		}
		v := attribute(it, key)
		if v == "" {
			out = append(out, it)
			continue
		}
		if counts[v] >= limit {
			if !n.Drop {
				overflow = append(overflow, it)
			}
			continue
		}
		counts[v]++
		out = append(out, it)
	}
	return append(out, overflow...), nil
}

func attribute(it *core.Item, key string) string {
	if novel, ok := core.NovelOf(it); ok {
		switch key {
		case "author":
			return novel.Author
		case "platform":
			return novel.Platform
		}
	}
	if lbl, ok := it.Labels[key]; ok && lbl.Value != "" {
		return lbl.Value
	}
	if s, ok := it.Meta[key].(string); ok {
		return s
	}
	return ""
}
