// Package profile 从粗粒度的人口属性推导新用户的隐式偏好标签。
//
// 推导方式是加权投票：性别、年龄段、职业、阅读时长四个维度各自给出固定的候选标签，
// 汇总计数后取票数最高的前 MaxTags 个，同票按首次出现顺序排列。
package profile

import (
	"sort"
	"strings"
	"time"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/pkg/utils"
)

const (
	// MaxTags 偏好标签上限
	MaxTags = 4

	// MinBirthYear 出生年份下界，低于该值按下界处理
	MinBirthYear = 1900
)

// Deriver 推导用户画像。无状态，可并发使用。
type Deriver struct {
	// Now 返回当前时间，为空时使用 time.Now
	Now func() time.Time
}

// NewDeriver 创建使用系统时钟的 Deriver。
func NewDeriver() *Deriver {
	return &Deriver{Now: time.Now}
}

func (d *Deriver) currentYear() int {
	if d == nil || d.Now == nil {
		return time.Now().Year()
	}
	return d.Now().Year()
}

// Age 根据出生年份计算年龄，出生年份越界时先夹到 [MinBirthYear, 当前年份]。
func (d *Deriver) Age(birthYear int) int {
	year := d.currentYear()
	switch {
	case birthYear < MinBirthYear:
		birthYear = MinBirthYear
	case birthYear > year:
		birthYear = year
	}
	return year - birthYear
}

// Derive 构建用户画像并推导偏好标签。永远不会失败。
func (d *Deriver) Derive(demo core.Demographics) *core.UserProfile {
	p := core.NewUserProfile(demo)
	p.Age = d.Age(demo.BirthYear)
	p.PreferredTags = Vote(
		genderTags[demo.Gender],
		ageTags(p.Age),
		occupationTags[demo.Occupation],
		readingTimeTags[demo.ReadingTime],
	)
	return p
}

// Apply 推导画像并写入 RecommendContext。
func (d *Deriver) Apply(rctx *core.RecommendContext, demo core.Demographics) *core.UserProfile {
	p := d.Derive(demo)
	rctx.User = p
	if len(p.PreferredTags) > 0 {
		rctx.PutLabel("preferred_tags", utils.Label{
			Value:  strings.Join(p.PreferredTags, "|"),
			Source: "profile",
		})
	}
	return p
}

// Vote 按候选池顺序计票，返回票数最高的前 MaxTags 个标签，同票按首次出现顺序。
func Vote(pools ...[]string) []string {
	counts := make(map[string]int)
	order := make([]string, 0, 16)
	for _, pool := range pools {
		for _, tag := range pool {
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > MaxTags {
		order = order[:MaxTags]
	}
	return order
}
