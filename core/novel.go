package core

import (
	"math"
	"strconv"

	"github.com/rushteam/novelrec/pkg/utils"
)

// Novel 是目录中的一本小说，加载后只读。
//
// Tags 保留数据源中的原始分隔字符串（如 "玄幻,修真"），内容匹配直接在该字符串上做子串检测。
type Novel struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Author   string         `json:"author"`
	Tags     string         `json:"tags"`
	Platform string         `json:"platform"`
	Rating   PlatformRating `json:"rating"`
}

// PlatformRating 是平台评分，取值 [0,5]。Known=false 表示"暂无评分"。
type PlatformRating struct {
	Value float64
	Known bool
}

// Rated 创建一个已知评分。
func Rated(v float64) PlatformRating {
	return PlatformRating{Value: v, Known: true}
}

// Unrated 表示暂无评分。
var Unrated = PlatformRating{}

// MaxRating 平台评分上限
const MaxRating = 5.0

// RatingOf 规整外部数据源的评分：NaN、Inf、非正数视为暂无评分，超过 MaxRating 的按上限处理。
func RatingOf(v float64) PlatformRating {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return Unrated
	}
	return Rated(min(v, MaxRating))
}

// Positive 返回评分是否可用于校准（已知且大于 0）。
func (r PlatformRating) Positive() bool {
	return r.Known && r.Value > 0
}

func (r PlatformRating) String() string {
	if !r.Positive() {
		return "暂无评分"
	}
	return strconv.FormatFloat(r.Value, 'f', 2, 64)
}

// MarshalJSON 暂无评分编码为 null。
func (r PlatformRating) MarshalJSON() ([]byte, error) {
	if !r.Known || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(r.Value, 'f', -1, 64)), nil
}

// UnmarshalJSON 接受数字或 null，按 RatingOf 规整。
func (r *PlatformRating) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*r = Unrated
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*r = Unrated
		return nil
	}
	*r = RatingOf(v)
	return nil
}

// Catalog 是只读小说目录。实现需保证并发读安全、ID 唯一且顺序稳定。
type Catalog interface {
	// Len 返回目录大小
	Len() int

	// Novels 按加载顺序返回所有小说，调用方不得修改
	Novels() []*Novel

	// Get 按 ID 查找小说
	Get(id string) (*Novel, bool)
}

const metaNovel = "novel"

// ItemFromNovel 把小说包装成推荐链路中的 Item，小说本身放入 Meta。
func ItemFromNovel(n *Novel) *Item {
	it := NewItem(n.ID)
	it.Meta[metaNovel] = n
	if n.Platform != "" {
		it.PutLabel("platform", utils.Label{Value: n.Platform, Source: "catalog"})
	}
	return it
}

// NovelOf 取出 Item 携带的小说。
func NovelOf(it *Item) (*Novel, bool) {
	if it == nil || it.Meta == nil {
		return nil, false
	}
	n, ok := it.Meta[metaNovel].(*Novel)
	return n, ok && n != nil
}
