// Package config 提供应用配置加载与 Pipeline Node 注册表。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/novelrec/catalog"
	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/feast"
	"github.com/rushteam/novelrec/model"
	"github.com/rushteam/novelrec/pkg/logging"
	"github.com/rushteam/novelrec/store"
)

// EnvConfigPath 指定配置文件路径的环境变量，优先于命令行默认值。
const EnvConfigPath = "NOVELREC_CONFIG"

// AppConfig 是 novelrec 服务的完整配置。
type AppConfig struct {
	Log       logging.Config  `yaml:"log"`
	Store     store.Config    `yaml:"store"`
	Catalog   catalog.Config  `yaml:"catalog"`
	Model     model.Config    `yaml:"model"`
	Feast     FeastConfig     `yaml:"feast"`
	Recommend RecommendConfig `yaml:"recommend"`
	Server    ServerConfig    `yaml:"server"`

	// Pipeline 可选的 pipeline 配置文件；为空时使用内置的混合推荐链路
	Pipeline string `yaml:"pipeline"`
}

// FeastConfig 控制启动时是否从 Feast 刷新平台评分。
type FeastConfig struct {
	feast.Config `yaml:",inline"`

	Enabled   bool   `yaml:"enabled"`
	Feature   string `yaml:"feature"`
	EntityKey string `yaml:"entity_key"`
	BatchSize int    `yaml:"batch_size" validate:"gte=0"`
}

// RecommendConfig 推荐请求的默认参数。
type RecommendConfig struct {
	// Size 默认返回条数
	Size int `yaml:"size" validate:"gte=0,lte=1000"`

	// Timeout 单次请求的整体超时，0 表示只受调用方 ctx 约束；超时后返回空结果而不是错误
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// ServerConfig HTTP 服务配置。
type ServerConfig struct {
	Addr         string        `yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default 返回默认配置：CSV 目录 data/novels.csv，无模型，监听 :8080。
func Default() *AppConfig {
	defaults := &core.DefaultRecommendConfig{}
	return &AppConfig{
		Log:     logging.Config{Level: "info", Format: "json"},
		Store:   store.Config{Backend: store.BackendMemory},
		Catalog: catalog.Config{Source: catalog.SourceCSV, Path: "data/novels.csv"},
		Recommend: RecommendConfig{
			Size: defaults.DefaultSize(),
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// ResolvePath 返回实际使用的配置路径：环境变量优先。
func ResolvePath(flagPath string) string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return flagPath
}

// Load 读取 YAML 配置并在默认值之上覆盖；path 为空时只使用默认值。
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
				fmt.Sprintf("config: parse %s: %v", path, err))
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置字段。
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput,
				"config: "+strings.Join(msgs, "; "))
		}
		return err
	}
	if c.Feast.Enabled && c.Feast.Endpoint == "" {
		return core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "config: feast.endpoint is required when feast is enabled")
	}
	return nil
}
