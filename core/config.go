package core

import "time"

// RecommendConfig 是推荐链路相关的配置接口，用于提供默认值。
type RecommendConfig interface {
	// DefaultContentTopK 内容召回的截断条数
	DefaultContentTopK() int

	// DefaultCollaborativeTopK 协同过滤召回的截断条数
	DefaultCollaborativeTopK() int

	// DefaultContentQuota 混合合并时内容结果的最大席位
	DefaultContentQuota() int

	// DefaultCollaborativeQuota 混合合并时协同过滤结果的最大补位数
	DefaultCollaborativeQuota() int

	// DefaultSize 默认返回条数
	DefaultSize() int

	// DefaultTimeout 单个召回源的超时时间，0 表示不设超时
	DefaultTimeout() time.Duration
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultContentTopK() int {
	return 50
}

func (c *DefaultRecommendConfig) DefaultCollaborativeTopK() int {
	return 100
}

func (c *DefaultRecommendConfig) DefaultContentQuota() int {
	return 50
}

func (c *DefaultRecommendConfig) DefaultCollaborativeQuota() int {
	return 50
}

func (c *DefaultRecommendConfig) DefaultSize() int {
	return 100
}

// DefaultTimeout 默认不设超时：预测器可用时协同过滤结果必须完整参与合并，结果不随机器负载变化。
func (c *DefaultRecommendConfig) DefaultTimeout() time.Duration {
	return 0
}
