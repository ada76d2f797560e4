package feast

import (
	"context"
	"testing"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/novelrec/core"
)

// 需要连接真实的 Feast 服务器才能运行
func TestGrpcClient_GetOnlineFeatures(t *testing.T) {
	t.Skip("需要连接真实的 Feast 服务器才能运行")

	client, err := NewClient(Config{Endpoint: "localhost:6565", Project: "novels"})
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.GetOnlineFeatures(context.Background(), &GetOnlineFeaturesRequest{
		Features:   []string{"novel_stats:platform_rating"},
		EntityRows: []map[string]any{{"novel_id": "1001"}, {"novel_id": "1002"}},
	})
	require.NoError(t, err)
	assert.Len(t, resp.FeatureVectors, 2)
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		host string
		port int
		ok   bool
	}{
		{"localhost:6565", "localhost", 6565, true},
		{"grpc://feast.internal:7000", "feast.internal", 7000, true},
		{"feast.internal", "feast.internal", defaultGrpcPort, true},
		{"localhost:abc", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, port, err := parseEndpoint(tt.in)
			if !tt.ok {
				assert.True(t, core.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
		})
	}
}

func TestNewClient_EmptyEndpoint(t *testing.T) {
	_, err := NewClient(Config{Project: "novels"})
	assert.True(t, core.IsInvalidInput(err))
}

func TestPutEntity(t *testing.T) {
	row := make(feastsdk.Row)
	putEntity(row, "s", "1001")
	putEntity(row, "i", 7)
	putEntity(row, "f", 3.5)
	putEntity(row, "b", true)
	putEntity(row, "x", struct{}{})
	assert.Len(t, row, 5)
	for k, v := range row {
		assert.NotNil(t, v, k)
	}
}

func TestFromSDKValue(t *testing.T) {
	assert.Nil(t, fromSDKValue(nil))
	assert.Equal(t, 4.5, fromSDKValue(feastsdk.DoubleVal(4.5)))
	assert.Equal(t, 3.0, fromSDKValue(feastsdk.Int64Val(3)))
	assert.Equal(t, 4.2, fromSDKValue(feastsdk.StrVal("4.2")))
	assert.Equal(t, "n/a", fromSDKValue(feastsdk.StrVal("n/a")))
	assert.Equal(t, 2.0, fromSDKValue("2"))
	assert.Equal(t, 1.5, fromSDKValue(float32(1.5)))
}
