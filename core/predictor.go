package core

import "context"

// AnonymousUserID 是没有持久身份的新用户在协同过滤预测中使用的哨兵 ID。
// 仅当预测器未实现 ColdStartPredictor 时才会用到。
const AnonymousUserID = "-1"

// Predictor 是离线训练好的协同过滤模型的领域接口，加载后只读，可并发调用。
//
// 实现：
//   - model.SVD：有偏矩阵分解
//   - 其他模型（KNN、远程模型服务）也可以实现此接口
type Predictor interface {
	// Name 返回模型名称（用于日志/观测）
	Name() string

	// Predict 预测用户对物品的评分，取值 [1,5]
	Predict(ctx context.Context, userID, itemID string) (float64, error)
}

// ColdStartPredictor 是 Predictor 的可选扩展：为没有任何历史的新用户给出基线预测。
// 协同过滤召回优先走此路径，而不是用哨兵用户 ID 调 Predict。
type ColdStartPredictor interface {
	Predictor

	// PredictColdStart 预测新用户对物品的评分，取值 [1,5]
	PredictColdStart(ctx context.Context, itemID string) (float64, error)
}

// ErrPredictorUnavailable 表示预测器不可用（未加载或加载失败）。
var ErrPredictorUnavailable = NewDomainError(ModuleModel, ErrorCodeUnavailable, "model: predictor unavailable")
