package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/novelrec/core"
)

func appendNode(name, id string) Node {
	return &NodeFunc{
		NodeName: name,
		NodeKind: KindPostProcess,
		Fn: func(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
			return append(items, core.NewItem(id)), nil
		},
	}
}

type recordingObserver struct {
	names []string
	outs  []int
}

func (o *recordingObserver) ObserveNode(node Node, _, out int, _ time.Duration, _ error) {
	o.names = append(o.names, node.Name())
	o.outs = append(o.outs, out)
}

func TestPipeline_Run(t *testing.T) {
	obs := &recordingObserver{}
	p := &Pipeline{Nodes: []Node{appendNode("a", "1"), appendNode("b", "2")}, Observer: obs}

	items, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "2", items[1].ID)
	assert.Equal(t, []string{"a", "b"}, obs.names)
	assert.Equal(t, []int{1, 2}, obs.outs)
}

func TestPipeline_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	failing := &NodeFunc{NodeName: "fail", NodeKind: KindRank, Fn: func(context.Context, *core.RecommendContext, []*core.Item) ([]*core.Item, error) {
		return nil, boom
	}}
	p := &Pipeline{Nodes: []Node{failing, appendNode("never", "x")}}
	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Pipeline{Nodes: []Node{appendNode("a", "1")}}
	_, err := p.Run(ctx, &core.RecommendContext{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

const yamlConfig = `
pipeline:
  name: novel
  nodes:
    - type: test.append
      config:
        id: "7"
    - type: test.append
`

func TestConfig_BuildPipeline(t *testing.T) {
	cfg, err := ParseYAML([]byte(yamlConfig))
	require.NoError(t, err)
	assert.Equal(t, "novel", cfg.Pipeline.Name)
	require.Len(t, cfg.Pipeline.Nodes, 2)

	f := NewNodeFactory()
	f.Register("test.append", func(c map[string]any, env *Env) (Node, error) {
		id, _ := c["id"].(string)
		if id == "" {
			id = "default"
		}
		return appendNode("append", id), nil
	})
	assert.True(t, f.Has("test.append"))

	p, err := cfg.BuildPipeline(f, nil)
	require.NoError(t, err)
	items, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "7", items[0].ID)
	assert.Equal(t, "default", items[1].ID)

	_, err = (&Config{Pipeline: cfg.Pipeline}).BuildPipeline(NewNodeFactory(), nil)
	assert.True(t, core.IsNotSupported(err))
}

func TestLoad_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"pipeline":{"name":"j","nodes":[{"type":"rank.hybrid"}]}}`), 0o644))
	yamlPath := filepath.Join(dir, "p.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlConfig), 0o644))

	cfg, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "j", cfg.Pipeline.Name)
	assert.Equal(t, "rank.hybrid", cfg.Pipeline.Nodes[0].Type)

	cfg, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "novel", cfg.Pipeline.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
