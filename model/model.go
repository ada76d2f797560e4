// Package model 提供协同过滤预测器（core.Predictor 的实现）。
//
// 模型由离线训练任务导出为 JSON，服务启动时加载，之后只读：
//   - 本地文件：LoadSVDFile
//   - Store（MemoryStore / RedisStore）：LoadSVDStore
package model

import (
	"context"
	"fmt"

	"github.com/rushteam/novelrec/core"
)

// 模型来源
const (
	SourceFile  = "file"
	SourceStore = "store"
)

// DefaultStoreKey 是模型在 Store 中的默认 key。
const DefaultStoreKey = "model:svd"

// Config 模型加载配置。Source 为空表示不加载模型（纯内容推荐）。
type Config struct {
	Source string `yaml:"source" json:"source" validate:"omitempty,oneof=file store"`
	Path   string `yaml:"path" json:"path" validate:"required_if=Source file"`
	Key    string `yaml:"key" json:"key"`
}

// Open 按配置加载预测器；Source 为空时返回 (nil, nil)。
func Open(ctx context.Context, cfg Config, st core.Store) (core.Predictor, error) {
	switch cfg.Source {
	case "":
		return nil, nil
	case SourceFile:
		m, err := LoadSVDFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		return m, nil
	case SourceStore:
		if st == nil {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "model: store source requires a store")
		}
		m, err := LoadSVDStore(ctx, st, cfg.Key)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: unknown source %q", cfg.Source))
	}
}
