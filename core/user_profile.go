package core

// Gender 性别选项。
type Gender string

const (
	GenderMale        Gender = "男"
	GenderFemale      Gender = "女"
	GenderUndisclosed Gender = "不想透露"
)

// Occupation 职业选项。
type Occupation string

const (
	OccupationStudent      Occupation = "学生"
	OccupationOfficeWorker Occupation = "上班族"
	OccupationFreelancer   Occupation = "自由职业者"
	OccupationRetired      Occupation = "退休"
	OccupationUndisclosed  Occupation = "不想透露"
)

// ReadingTime 每周阅读时长档位。
type ReadingTime string

const (
	ReadingRarely      ReadingTime = "几乎不阅读"
	Reading1To3Hours   ReadingTime = "1-3小时"
	Reading4To6Hours   ReadingTime = "4-6小时"
	Reading7To10Hours  ReadingTime = "7-10小时"
	ReadingOver10Hours ReadingTime = "10小时以上"
)

// Undisclosed 是多选项（标签、平台）中的"不想透露"。
const Undisclosed = "不想透露"

// Demographics 是一次推荐请求携带的用户输入。
// 只存在于单次请求内，不做持久化。
type Demographics struct {
	Gender      Gender      `json:"gender" yaml:"gender"`
	BirthYear   int         `json:"birth_year" yaml:"birth_year"`
	Occupation  Occupation  `json:"occupation" yaml:"occupation"`
	ReadingTime ReadingTime `json:"reading_time" yaml:"reading_time"`

	// FavoriteTags 用户显式勾选的标签
	FavoriteTags []string `json:"favorite_tags,omitempty" yaml:"favorite_tags"`

	// Platforms 用户常用的平台
	Platforms []string `json:"platforms,omitempty" yaml:"platforms"`
}

// DisclosedPlatforms 返回去掉"不想透露"后的平台列表。
func (d Demographics) DisclosedPlatforms() []string {
	return disclosed(d.Platforms)
}

// DisclosedFavoriteTags 返回去掉"不想透露"后的标签列表。
func (d Demographics) DisclosedFavoriteTags() []string {
	return disclosed(d.FavoriteTags)
}

func disclosed(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || v == Undisclosed {
			continue
		}
		out = append(out, v)
	}
	return out
}

// UserProfile 是推荐 Pipeline 的用户上下文：原始输入 + 推导出的偏好标签。
//
// 新用户没有历史行为，PreferredTags 完全由人口属性投票得出（见 profile 包），
// 按票数降序排列，最多 4 个。
type UserProfile struct {
	Demographics

	// Age 由出生年份推导
	Age int

	// PreferredTags 推导出的偏好标签（有序，<= 4）
	PreferredTags []string
}

// NewUserProfile 创建一个新的用户画像。
func NewUserProfile(d Demographics) *UserProfile {
	return &UserProfile{
		Demographics:  d,
		PreferredTags: make([]string, 0, 4),
	}
}

// HasPreferences 是否有可用于内容匹配的偏好标签。
func (p *UserProfile) HasPreferences() bool {
	return p != nil && len(p.PreferredTags) > 0
}
