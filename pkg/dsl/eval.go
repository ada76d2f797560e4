// Package dsl 是基于 CEL (Common Expression Language) 的推荐表达式解释器。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/novelrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("user", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的表达式，可被多个请求并发复用。
//
// 可用变量：
//   - item：id, title, author, tags, platform, platform_rating（暂无评分为 null）,
//     score, match_score, cf_score, features, labels
//   - label：label.<key> 直接取 Label.Value
//   - user：gender, occupation, reading_time, birth_year, age,
//     favorite_tags, platforms, preferred_tags
//
// 示例：
//   - `item.platform == "起点读书"`
//   - `item.platform_rating != null && item.platform_rating >= 4.0`
//   - `item.tags.contains("修真") || user.age < 20`
//   - `label.recall_source.contains("recall.cf")`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；表达式必须返回布尔值。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: init env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dsl: compile %q: %v", expr, issues.Err()))
	}
	if out := ast.OutputType().String(); out != "bool" && out != "dyn" {
		return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dsl: %q must return bool, got %s", expr, out))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 对单个候选求值。访问不存在的 key 会返回错误，请先用 `!= null` 或 has() 判断。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(BuildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: %q must return bool, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Eval 一次性编译并求值，适合调试；热路径请复用 Compile 的结果。
func Eval(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

// BuildInput 构建 CEL 表达式的输入数据。
func BuildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	labelValues := make(map[string]any)
	itemMap := map[string]any{}

	if item != nil {
		for k, v := range item.Labels {
			labels[k] = map[string]any{"value": v.Value, "source": v.Source}
			labelValues[k] = v.Value
		}
		features := make(map[string]any, len(item.Features))
		for k, v := range item.Features {
			features[k] = v
		}
		itemMap["id"] = item.ID
		itemMap["score"] = item.Score
		itemMap["match_score"] = int64(item.MatchScore())
		itemMap["cf_score"] = item.CFScore()
		itemMap["features"] = features
		itemMap["labels"] = labels

		var rating any
		if novel, ok := core.NovelOf(item); ok {
			itemMap["title"] = novel.Title
			itemMap["author"] = novel.Author
			itemMap["tags"] = novel.Tags
			itemMap["platform"] = novel.Platform
			if novel.Rating.Positive() {
				rating = novel.Rating.Value
			}
		} else {
			itemMap["title"] = ""
			itemMap["author"] = ""
			itemMap["tags"] = ""
			itemMap["platform"] = ""
		}
		itemMap["platform_rating"] = rating
	}

	user := map[string]any{
		"gender":         "",
		"occupation":     "",
		"reading_time":   "",
		"birth_year":     int64(0),
		"age":            int64(0),
		"favorite_tags":  []string{},
		"platforms":      []string{},
		"preferred_tags": []string{},
	}
	if rctx != nil && rctx.User != nil {
		u := rctx.User
		user["gender"] = string(u.Gender)
		user["occupation"] = string(u.Occupation)
		user["reading_time"] = string(u.ReadingTime)
		user["birth_year"] = int64(u.BirthYear)
		user["age"] = int64(u.Age)
		user["favorite_tags"] = nonNil(u.FavoriteTags)
		user["platforms"] = nonNil(u.Platforms)
		user["preferred_tags"] = nonNil(u.PreferredTags)
	}

	return map[string]any{
		"item":  itemMap,
		"label": labelValues,
		"user":  user,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
