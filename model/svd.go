package model

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/rushteam/novelrec/core"
)

// SVD 实现了有偏矩阵分解 (Biased Matrix Factorization / Funk SVD)。
// 它是评分预测类协同过滤最经典的隐因子模型。
//
// 预测原理：
//
//	r̂(u,i) = μ + b_u + b_i + p_u·q_i
//
// 未见过的用户/物品，其偏置与隐向量按 0 处理：
//   - 新用户：r̂ = μ + b_i（冷启动基线）
//   - 新物品：r̂ = μ + b_u
//
// 输出截断到评分区间 [Min, Max]（默认 [1,5]）。
type SVD struct {
	GlobalMean  float64              `json:"global_mean"`
	UserBias    map[string]float64   `json:"user_bias"`
	ItemBias    map[string]float64   `json:"item_bias"`
	UserFactors map[string][]float64 `json:"user_factors"`
	ItemFactors map[string][]float64 `json:"item_factors"`

	// RatingScale 评分区间 [min, max]，缺省 [1,5]
	RatingScale [2]float64 `json:"rating_scale"`
}

var (
	_ core.Predictor          = (*SVD)(nil)
	_ core.ColdStartPredictor = (*SVD)(nil)
)

// LoadSVDFile 从 JSON 文件加载模型。
func LoadSVDFile(path string) (*SVD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeUnavailable,
			fmt.Sprintf("model: read %s: %v", path, err))
	}
	return ParseSVD(data)
}

// LoadSVDStore 从 Store 的 key 读取 JSON 模型。
func LoadSVDStore(ctx context.Context, st core.Store, key string) (*SVD, error) {
	if key == "" {
		key = DefaultStoreKey
	}
	data, err := st.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotFound,
				fmt.Sprintf("model: key %q not found in %s store", key, st.Name()))
		}
		return nil, fmt.Errorf("model: load from %s: %w", st.Name(), err)
	}
	return ParseSVD(data)
}

// ParseSVD 解析并校验模型：所有隐向量维度必须一致。
func ParseSVD(data []byte) (*SVD, error) {
	var m SVD
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("model: decode svd: %v", err))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate 校验评分区间与隐向量维度。
func (m *SVD) Validate() error {
	if m.RatingScale == [2]float64{} {
		m.RatingScale = [2]float64{1, 5}
	}
	if m.RatingScale[0] >= m.RatingScale[1] {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("model: invalid rating scale %v", m.RatingScale))
	}
	dim := -1
	check := func(kind string, factors map[string][]float64) error {
		for id, f := range factors {
			if dim == -1 {
				dim = len(f)
				continue
			}
			if len(f) != dim {
				return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
					fmt.Sprintf("model: %s %q has %d factors, want %d", kind, id, len(f), dim))
			}
		}
		return nil
	}
	if err := check("user", m.UserFactors); err != nil {
		return err
	}
	return check("item", m.ItemFactors)
}

func (m *SVD) Name() string { return "svd" }

// Factors 返回隐向量维度。
func (m *SVD) Factors() int {
	for _, f := range m.ItemFactors {
		return len(f)
	}
	for _, f := range m.UserFactors {
		return len(f)
	}
	return 0
}

func (m *SVD) Predict(ctx context.Context, userID, itemID string) (float64, error) {
	if m == nil {
		return 0, core.ErrPredictorUnavailable
	}
	est := m.GlobalMean + m.UserBias[userID] + m.ItemBias[itemID]
	pu, qi := m.UserFactors[userID], m.ItemFactors[itemID]
	if len(pu) == len(qi) {
		for k := range pu {
			est += pu[k] * qi[k]
		}
	}
	return m.clip(est), nil
}

func (m *SVD) PredictColdStart(ctx context.Context, itemID string) (float64, error) {
	if m == nil {
		return 0, core.ErrPredictorUnavailable
	}
	return m.clip(m.GlobalMean + m.ItemBias[itemID]), nil
}

func (m *SVD) clip(v float64) float64 {
	lo, hi := m.RatingScale[0], m.RatingScale[1]
	if lo == hi {
		lo, hi = 1, 5
	}
	return min(hi, max(lo, v))
}
