package core

import "github.com/rushteam/novelrec/pkg/utils"

// RecommendContext 承载用户/请求信息，贯穿整个 Pipeline 透传。
// 每个请求一份，不在请求之间共享。
type RecommendContext struct {
	// RequestID 用于日志关联
	RequestID string

	// UserID 为空表示匿名新用户（走冷启动路径）
	UserID string

	Scene string

	// User 是强类型用户画像（人口属性 + 推导出的偏好标签）
	User *UserProfile

	// Labels 是用户级标签，用于 explain / 观测
	Labels map[string]utils.Label

	// Params 请求级参数，例如 size（本次请求的返回条数）
	Params map[string]any
}

// ParamSize 是 Params 中请求条数的 key。
const ParamSize = "size"

// IsAnonymous 是否为没有持久身份的新用户。
func (rctx *RecommendContext) IsAnonymous() bool {
	return rctx == nil || rctx.UserID == "" || rctx.UserID == AnonymousUserID
}

// PreferredTags 返回推导出的偏好标签。
func (rctx *RecommendContext) PreferredTags() []string {
	if rctx == nil || rctx.User == nil {
		return nil
	}
	return rctx.User.PreferredTags
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
