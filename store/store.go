// Package store 提供 core.Store / core.KeyValueStore 的实现。
//
// 接口定义在 core 包，此包只包含实现：
//   - MemoryStore：测试/开发/单机部署
//   - RedisStore：生产环境，多实例共享目录、模型与黑名单
//
// 示例：
//
//	st, err := store.Open(ctx, store.Config{Backend: "redis", Addr: "127.0.0.1:6379"})
package store

import (
	"context"
	"fmt"

	"github.com/rushteam/novelrec/core"
)

// 后端名称
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config 存储配置。
type Config struct {
	Backend  string `yaml:"backend" json:"backend" validate:"omitempty,oneof=memory redis"`
	Addr     string `yaml:"addr" json:"addr" validate:"required_if=Backend redis"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db" validate:"gte=0"`
	// Prefix 所有 key 的命名空间前缀，例如 "novelrec:"
	Prefix string `yaml:"prefix" json:"prefix"`
}

// Open 按配置创建存储；Backend 为空时使用内存存储。
func Open(ctx context.Context, cfg Config) (core.KeyValueStore, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg)
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("store: unknown backend %q", cfg.Backend))
	}
}
