package recall

import (
	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pkg/utils"
)

// SourceResult 是单个召回源的输出，Priority 为其在 Fanout.Sources 中的下标。
type SourceResult struct {
	Source   string
	Priority int
	Items    []*core.Item
}

// MergeStrategy 把多路召回结果合并成一个候选列表。
// results 按 Priority 升序排列。
type MergeStrategy interface {
	Merge(results []SourceResult, dedup bool) []*core.Item
}

// FirstMergeStrategy 按优先级顺序拼接，按 ID 去重时保留第一次出现的并合并 labels。
type FirstMergeStrategy struct{}

func (s *FirstMergeStrategy) Merge(results []SourceResult, dedup bool) []*core.Item {
	var all []*core.Item
	for _, r := range results {
		all = append(all, r.Items...)
	}
	if !dedup {
		return all
	}
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}

// UnionMergeStrategy 合并所有结果，不去重。
type UnionMergeStrategy struct{}

func (s *UnionMergeStrategy) Merge(results []SourceResult, _ bool) []*core.Item {
	var all []*core.Item
	for _, r := range results {
		all = append(all, r.Items...)
	}
	return all
}

// HybridMergeStrategy 是内容优先的混合合并：
//
//  1. 取内容召回前 ContentQuota 个结果原样入列（协同分记为 0，即"未计算"）
//  2. 按排名遍历协同过滤结果，跳过已入列的 ID，最多补 CollaborativeQuota 个
//
// 内容相关的小说不会被纯协同信号挤出，两路各自最多占目标条数的一半。
// 结果中每个 ID 恰好出现一次（与 dedup 参数无关）。
type HybridMergeStrategy struct {
	// ContentSource 内容召回源名称，默认 "recall.content"
	ContentSource string
	// CollaborativeSource 协同过滤召回源名称，默认 "recall.cf"
	CollaborativeSource string

	// ContentQuota 默认 50
	ContentQuota int
	// CollaborativeQuota 默认 50
	CollaborativeQuota int
}

func (s *HybridMergeStrategy) Merge(results []SourceResult, _ bool) []*core.Item {
	contentName := s.ContentSource
	if contentName == "" {
		contentName = "recall.content"
	}
	cfName := s.CollaborativeSource
	if cfName == "" {
		cfName = "recall.cf"
	}

	var content, cf []*core.Item
	for _, r := range results {
		switch r.Source {
		case contentName:
			content = r.Items
		case cfName:
			cf = r.Items
		}
	}
	return MergeHybrid(content, cf, s.ContentQuota, s.CollaborativeQuota)
}

// MergeHybrid 执行内容优先的去重合并，quota <= 0 时使用默认值 50。
func MergeHybrid(content, cf []*core.Item, contentQuota, cfQuota int) []*core.Item {
	if contentQuota <= 0 {
		contentQuota = 50
	}
	if cfQuota <= 0 {
		cfQuota = 50
	}

	out := make([]*core.Item, 0, contentQuota+cfQuota)
	seen := make(map[string]struct{}, contentQuota+cfQuota)

	for _, it := range content {
		if len(out) >= contentQuota {
			break
		}
		if it == nil {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		it.SetFeature(core.FeatureCFScore, 0)
		it.SetLabel("merge_slot", utils.Label{Value: "content", Source: "merge"})
		out = append(out, it)
	}

	var added int
	for _, it := range cf {
		if added >= cfQuota {
			break
		}
		if it == nil {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		it.SetFeature(core.FeatureMatchScore, 0)
		it.SetLabel("merge_slot", utils.Label{Value: "collaborative", Source: "merge"})
		out = append(out, it)
		added++
	}
	return out
}
