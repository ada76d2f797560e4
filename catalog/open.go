package catalog

import (
	"context"
	"fmt"

	"github.com/rushteam/novelrec/core"
)

// 目录数据源
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
	SourceStore  = "store"
)

// Config 目录加载配置。
type Config struct {
	Source string `yaml:"source" json:"source" validate:"required,oneof=csv sqlite store"`
	// Path CSV 文件路径或 SQLite DSN
	Path string `yaml:"path" json:"path" validate:"required_unless=Source store"`
	// Table SQLite 表名
	Table string `yaml:"table" json:"table"`
	// Key Store 中的 key
	Key string `yaml:"key" json:"key"`
}

// Open 按配置加载目录；Source=store 时需要传入 st。
func Open(ctx context.Context, cfg Config, st core.Store) (*Memory, error) {
	switch cfg.Source {
	case SourceCSV:
		return LoadCSV(cfg.Path)
	case SourceSQLite:
		return LoadSQLite(ctx, cfg.Path, cfg.Table)
	case SourceStore:
		if st == nil {
			return nil, invalidInput("catalog: store source requires a store")
		}
		return LoadStore(ctx, st, cfg.Key)
	default:
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotSupported,
			fmt.Sprintf("catalog: unknown source %q", cfg.Source))
	}
}
