package recall

import (
	"context"
	"sort"
	"strings"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pkg/utils"
)

// 标签匹配方式。
const (
	// MatchSubstring 偏好标签作为子串出现在小说标签字段中即算命中
	MatchSubstring = "substring"
	// MatchExact 把小说标签字段按分隔符切开后做集合匹配
	MatchExact = "exact"
)

// DefaultTagDelimiters 是 MatchExact 模式下的标签分隔符。
const DefaultTagDelimiters = ",，|/、;； "

// ContentRecall 是基于标签重叠的内容召回源（Content-Based Recommendation）。
//
// 核心思想："用户偏好的标签在小说标签里命中得越多，越相关"
//
// 匹配度 match_score = 命中的偏好标签个数；0 分的小说不进入结果。
// 结果按匹配度降序（同分保持目录顺序），截断到 TopK。
type ContentRecall struct {
	Catalog core.Catalog

	// TopK 返回 TopK 个物品，默认 50
	TopK int

	// MatchMode 标签匹配方式：substring（默认）/ exact
	MatchMode string

	// Delimiters MatchExact 模式下的分隔符集合，默认 DefaultTagDelimiters
	Delimiters string

	// PreferencesExtractor 从 RecommendContext 提取偏好标签（可选）
	// 为空时使用 rctx.User.PreferredTags
	PreferencesExtractor func(rctx *core.RecommendContext) []string
}

func (r *ContentRecall) Name() string {
	return "recall.content"
}

func (r *ContentRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil || r.Catalog.Len() == 0 {
		return nil, nil
	}

	var prefs []string
	if r.PreferencesExtractor != nil {
		prefs = r.PreferencesExtractor(rctx)
	} else {
		prefs = rctx.PreferredTags()
	}
	if len(prefs) == 0 {
		return nil, nil
	}

	mode := r.MatchMode
	if mode == "" {
		mode = MatchSubstring
	}

	type scoredNovel struct {
		novel *core.Novel
		score int
	}
	scores := make([]scoredNovel, 0)
	for _, n := range r.Catalog.Novels() {
		var score int
		if mode == MatchExact {
			score = r.exactMatches(n.Tags, prefs)
		} else {
			score = SubstringMatches(n.Tags, prefs)
		}
		if score > 0 {
			scores = append(scores, scoredNovel{novel: n, score: score})
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 50
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
		it.Score = float64(s.score)
		it.SetFeature(core.FeatureMatchScore, float64(s.score))
		it.PutLabel("recall_match", utils.Label{Value: mode, Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// SubstringMatches 统计有多少个偏好标签作为子串出现在 tags 中。
// 这是文本包含检测：复合标签（如 "修真仙侠"）可能同时命中多个偏好标签。
func SubstringMatches(tags string, prefs []string) int {
	var n int
	for _, p := range prefs {
		if p != "" && strings.Contains(tags, p) {
			n++
		}
	}
	return n
}

func (r *ContentRecall) exactMatches(tags string, prefs []string) int {
	delims := r.Delimiters
	if delims == "" {
		delims = DefaultTagDelimiters
	}
	set := make(map[string]struct{})
	for _, t := range strings.FieldsFunc(tags, func(c rune) bool {
		return strings.ContainsRune(delims, c)
	}) {
		set[strings.TrimSpace(t)] = struct{}{}
	}
	var n int
	for _, p := range prefs {
		if _, ok := set[p]; ok {
			n++
		}
	}
	return n
}
