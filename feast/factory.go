package feast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rushteam/novelrec/core"
)

const defaultGrpcPort = 6565

// NewClient 根据配置创建 gRPC 客户端。
//
// 示例：
//
//	client, err := feast.NewClient(feast.Config{Endpoint: "localhost:6565", Project: "novels"})
func NewClient(cfg Config, opts ...ClientOption) (Client, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Endpoint == "" {
		return nil, core.NewDomainError(core.ModuleFeast, core.ErrorCodeInvalidInput, "feast: endpoint is required")
	}
	host, port, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	return NewGrpcClient(host, port, cfg)
}

// parseEndpoint 解析端点地址，返回 host 和 port；未指定端口时使用 6565。
func parseEndpoint(endpoint string) (string, int, error) {
	endpoint = strings.TrimPrefix(endpoint, "grpc://")

	host, portStr, found := strings.Cut(endpoint, ":")
	if !found {
		return endpoint, defaultGrpcPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return "", 0, core.NewDomainError(core.ModuleFeast, core.ErrorCodeInvalidInput,
			fmt.Sprintf("feast: invalid endpoint %q", endpoint))
	}
	return host, port, nil
}
