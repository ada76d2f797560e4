package filter

import (
	"context"
	"strings"

	"github.com/rushteam/novelrec/core"
)

// PlatformFilter 只保留用户常用平台上的小说。
// 用户未选择平台（或只选了"不想透露"）时不过滤。
// 平台名按双向包含匹配，例如 "起点" 可以匹配 "起点读书"。
type PlatformFilter struct {
	// Platforms 固定平台列表；为空时使用用户画像中的平台
	Platforms []string
}

func (f *PlatformFilter) Name() string {
	return "filter.platform"
}

func (f *PlatformFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	platforms := f.Platforms
	if len(platforms) == 0 && rctx != nil && rctx.User != nil {
		platforms = rctx.User.DisclosedPlatforms()
	}
	if len(platforms) == 0 {
		return false, nil
	}
	novel, ok := core.NovelOf(item)
	if !ok || novel.Platform == "" {
		return false, nil
	}
	for _, p := range platforms {
		if p == "" {
			continue
		}
		if strings.Contains(novel.Platform, p) || strings.Contains(p, novel.Platform) {
			return false, nil
		}
	}
	return true, nil
}
