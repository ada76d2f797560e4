package feast

import (
	"context"
	"fmt"
	"strconv"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"

	"github.com/rushteam/novelrec/core"
)

// GrpcClient 是基于官方 Feast Go SDK 的 gRPC 客户端实现。
type GrpcClient struct {
	client *feastsdk.GrpcClient

	// Project 默认项目名称
	Project string

	// Endpoint 服务端点（用于日志展示）
	Endpoint string

	// Timeout 单次请求超时，0 表示只受 ctx 控制
	Timeout time.Duration
}

// NewGrpcClient 创建一个基于官方 SDK 的 Feast gRPC 客户端。
func NewGrpcClient(host string, port int, cfg Config) (*GrpcClient, error) {
	if port == 0 {
		port = defaultGrpcPort
	}

	var (
		client *feastsdk.GrpcClient
		err    error
	)
	if cfg.Token != "" {
		client, err = feastsdk.NewSecureGrpcClient(host, port, feastsdk.SecurityConfig{
			Credential: feastsdk.NewStaticCredential(cfg.Token),
		})
	} else {
		client, err = feastsdk.NewGrpcClient(host, port)
	}
	if err != nil {
		return nil, core.NewDomainError(core.ModuleFeast, core.ErrorCodeUnavailable,
			fmt.Sprintf("feast: connect %s:%d: %v", host, port, err))
	}

	return &GrpcClient{
		client:   client,
		Project:  cfg.Project,
		Endpoint: fmt.Sprintf("%s:%d", host, port),
		Timeout:  cfg.Timeout,
	}, nil
}

// GetOnlineFeatures 获取在线特征
func (c *GrpcClient) GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	if c.client == nil {
		return nil, core.NewDomainError(core.ModuleFeast, core.ErrorCodeUnavailable, "feast: client closed")
	}
	if len(req.Features) == 0 {
		return nil, core.NewDomainError(core.ModuleFeast, core.ErrorCodeInvalidInput, "feast: features are required")
	}
	if len(req.EntityRows) == 0 {
		return &GetOnlineFeaturesResponse{}, nil
	}
	project := req.Project
	if project == "" {
		project = c.Project
	}
	if project == "" {
		return nil, core.NewDomainError(core.ModuleFeast, core.ErrorCodeInvalidInput, "feast: project is required")
	}

	entityRows := make([]feastsdk.Row, len(req.EntityRows))
	for i, row := range req.EntityRows {
		entityRow := make(feastsdk.Row, len(row))
		for k, v := range row {
			putEntity(entityRow, k, v)
		}
		entityRows[i] = entityRow
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	sdkResp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: req.Features,
		Entities: entityRows,
		Project:  project,
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleFeast, core.ErrorCodeUnavailable,
			fmt.Sprintf("feast: get online features: %v", err))
	}

	rows := sdkResp.Rows()
	if len(rows) != len(req.EntityRows) {
		return nil, core.NewDomainError(core.ModuleFeast, core.ErrorCodeInternalError,
			fmt.Sprintf("feast: response row count mismatch: expected %d, got %d", len(req.EntityRows), len(rows)))
	}

	vectors := make([]FeatureVector, len(rows))
	for i, row := range rows {
		values := make(map[string]any, len(req.Features))
		for _, name := range req.Features {
			if val, ok := row[name]; ok {
				if v := fromSDKValue(val); v != nil {
					values[name] = v
				}
			}
		}
		vectors[i] = FeatureVector{Values: values, EntityRow: req.EntityRows[i]}
	}
	return &GetOnlineFeaturesResponse{FeatureVectors: vectors}, nil
}

// Close 释放 SDK 客户端。
func (c *GrpcClient) Close() error {
	c.client = nil
	return nil
}

// putEntity 按值类型写入实体列。
func putEntity(row feastsdk.Row, key string, v any) {
	switch val := v.(type) {
	case string:
		row[key] = feastsdk.StrVal(val)
	case int:
		row[key] = feastsdk.Int64Val(int64(val))
	case int64:
		row[key] = feastsdk.Int64Val(val)
	case float64:
		row[key] = feastsdk.DoubleVal(val)
	case float32:
		row[key] = feastsdk.FloatVal(val)
	case bool:
		row[key] = feastsdk.BoolVal(val)
	case []byte:
		row[key] = feastsdk.BytesVal(val)
	default:
		row[key] = feastsdk.StrVal(fmt.Sprintf("%v", val))
	}
}

// protoValue 是 SDK 返回的 protobuf Value 的取值方法集合。
type protoValue interface {
	GetDoubleVal() float64
	GetFloatVal() float32
	GetInt64Val() int64
	GetInt32Val() int32
	GetStringVal() string
}

// fromSDKValue 把特征值转换为 float64 或 string；数值优先。
func fromSDKValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case protoValue:
		switch {
		case v.GetDoubleVal() != 0:
			return v.GetDoubleVal()
		case v.GetFloatVal() != 0:
			return float64(v.GetFloatVal())
		case v.GetInt64Val() != 0:
			return float64(v.GetInt64Val())
		case v.GetInt32Val() != 0:
			return float64(v.GetInt32Val())
		case v.GetStringVal() != "":
			s := v.GetStringVal()
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
			return s
		}
		return nil
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return v
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return nil
	}
}

var _ Client = (*GrpcClient)(nil)
