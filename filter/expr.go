package filter

import (
	"context"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤：表达式为 false 的候选被移除。
//
// 示例：`item.platform_rating == null || item.platform_rating >= 3.5`
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式，编译失败返回 INVALID_INPUT。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回原始表达式。
func (f *ExprFilter) Expr() string { return f.prg.String() }

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	keep, err := f.prg.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
