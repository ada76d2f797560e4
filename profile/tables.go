package profile

import (
	"strings"

	"github.com/rushteam/novelrec/core"
)

// 各维度的候选标签表。每个维度的取值映射到固定的 4 个候选标签，
// "不想透露"或未知取值不贡献任何标签。
var (
	genderTags = map[core.Gender][]string{
		core.GenderMale:   {"玄幻", "科幻", "武侠", "战争"},
		core.GenderFemale: {"言情", "校园", "都市", "重生"},
	}

	occupationTags = map[core.Occupation][]string{
		core.OccupationStudent:      {"校园", "青春", "异能", "修真"},
		core.OccupationOfficeWorker: {"职场", "现实", "都市", "系统"},
		core.OccupationFreelancer:   {"冒险", "奇幻", "武侠", "灵异"},
		core.OccupationRetired:      {"历史", "文学", "现实", "战争"},
	}

	readingTimeTags = map[core.ReadingTime][]string{
		core.ReadingRarely:      {"短篇", "言情", "搞笑", "校园"},
		core.Reading1To3Hours:   {"都市", "修真", "异能", "悬疑"},
		core.Reading4To6Hours:   {"玄幻", "武侠", "无限流", "历史"},
		core.Reading7To10Hours:  {"长篇", "史诗", "系统", "修仙"},
		core.ReadingOver10Hours: {"长篇", "史诗", "系统", "修仙"},
	}
)

// ageBucket 是一个左闭右开的年龄段，upper <= 0 表示无上界。
type ageBucket struct {
	upper int
	tags  []string
}

var ageBuckets = []ageBucket{
	{upper: 20, tags: []string{"校园", "修真", "异能", "搞笑"}},
	{upper: 30, tags: []string{"都市", "系统", "无限流", "职场"}},
	{upper: 40, tags: []string{"历史", "权谋", "战争", "悬疑"}},
	{upper: 0, tags: []string{"历史", "现实", "职场", "文学"}},
}

func ageTags(age int) []string {
	for _, b := range ageBuckets {
		if b.upper <= 0 || age < b.upper {
			return b.tags
		}
	}
	return nil
}

// AllTags 是用户可勾选的全部标签，NormalizeTags 以它为白名单。
var AllTags = []string{
	"玄幻", "都市", "历史", "科幻", "悬疑", "武侠", "穿越", "奇幻", "冒险",
	"仙侠", "重生", "灵异", "战争", "言情", "搞笑", "无限流", "修真", "系统",
	"游戏", "娱乐", "异能", "权谋", "修仙", "校园", "江湖", "末世", "异世界",
}

var knownTags = func() map[string]struct{} {
	m := make(map[string]struct{}, len(AllTags))
	for _, t := range AllTags {
		m[t] = struct{}{}
	}
	return m
}()

// NormalizeTags 规整用户勾选的标签：去空白、去重，丢弃不在 AllTags 中的标签，保留"不想透露"。
// 结果保持输入顺序；输入为空时返回 nil。
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if _, ok := knownTags[t]; !ok && t != core.Undisclosed {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
