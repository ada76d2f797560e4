package feast

import (
	"context"
	"time"
)

// Client 是 Feast Feature Store 在线特征的客户端接口。
//
// 推荐服务只在启动阶段用它刷新目录的平台评分（catalog.RatingEnricher），
// 因此只暴露在线特征读取。实现：
//   - GrpcClient：基于官方 SDK (github.com/feast-dev/feast/sdk/go)
//   - 测试中可自行实现此接口
//
// 参考：https://github.com/feast-dev/feast
type Client interface {
	// GetOnlineFeatures 获取在线特征
	//
	// 参数：
	//   - features: 特征名称列表，例如 ["novel_stats:platform_rating"]
	//   - entityRows: 实体行，例如 [{"novel_id": "1001"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表
	Features []string

	// EntityRows 实体行，例如 [{"novel_id": "1001"}, {"novel_id": "1002"}]
	EntityRows []map[string]any

	// Project 项目名称（可选，默认使用客户端配置）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，与请求的实体行一一对应
	FeatureVectors []FeatureVector
}

// FeatureVector 特征向量
type FeatureVector struct {
	// Values 特征值，key 为特征名称；缺失的特征不出现在 map 中
	Values map[string]any

	// EntityRow 对应的实体行
	EntityRow map[string]any
}

// Config Feast 客户端配置
type Config struct {
	// Endpoint 服务端点，"host:port" 或 "grpc://host:port"
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Project 项目名称
	Project string `yaml:"project" json:"project"`

	// Timeout 单次请求超时
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Token 静态 Token 认证（可选）
	Token string `yaml:"token" json:"token"`
}

// ClientOption Feast 客户端配置选项
type ClientOption func(*Config)

// WithTimeout 设置超时时间
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithToken 使用静态 Token 认证
func WithToken(token string) ClientOption {
	return func(c *Config) {
		c.Token = token
	}
}
