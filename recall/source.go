package recall

import (
	"context"

	"github.com/rushteam/novelrec/core"
)

// Source 表示一个可复用的召回源（内容匹配 / 协同过滤 / ...）。
// 你可以把它理解为"可并发 fan-out 的策略单元"。
// 实现只能读取共享的目录和模型，返回的 Item 每次请求新建。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
