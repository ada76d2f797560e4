package rank

import "github.com/rushteam/novelrec/core"

// Calibrator 根据平台评分给出对基础分的修正量。
type Calibrator interface {
	Adjustment(r core.PlatformRating) float64
}

// PlatformCalibrator 以 Pivot 为中点按 Step 分档：
//   - 评分高于 Pivot：每档 +RewardPerStep
//   - 评分在 (0, Pivot]：每档 -PenaltyPerStep
//   - 暂无评分或非正数：不修正
//
// 奖励比惩罚大，好评对排序的影响比差评更明显。
type PlatformCalibrator struct {
	Pivot          float64
	Step           float64
	RewardPerStep  float64
	PenaltyPerStep float64
}

// DefaultPlatformCalibrator 返回默认参数：中点 3，每 0.2 分一档，奖励 0.03，惩罚 0.01。
func DefaultPlatformCalibrator() *PlatformCalibrator {
	return &PlatformCalibrator{
		Pivot:          3,
		Step:           0.2,
		RewardPerStep:  0.03,
		PenaltyPerStep: 0.01,
	}
}

func (c *PlatformCalibrator) Adjustment(r core.PlatformRating) float64 {
	if !r.Positive() || c.Step <= 0 {
		return 0
	}
	if r.Value > c.Pivot {
		return (r.Value - c.Pivot) / c.Step * c.RewardPerStep
	}
	return (c.Pivot - r.Value) / c.Step * -c.PenaltyPerStep
}

// NoCalibration 不做任何修正。
type NoCalibration struct{}

func (NoCalibration) Adjustment(core.PlatformRating) float64 { return 0 }
