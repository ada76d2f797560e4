package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/store"
)

const sampleModel = `{
  "global_mean": 3.5,
  "user_bias": {"u1": 0.2},
  "item_bias": {"n1": 0.4, "n2": -0.3, "n3": 2.0},
  "user_factors": {"u1": [1, 0.5]},
  "item_factors": {"n1": [0.2, 0.4], "n2": [0, 0], "n3": [1, 1]}
}`

func TestSVD_Predict(t *testing.T) {
	m, err := ParseSVD([]byte(sampleModel))
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, 2, m.Factors())
	assert.Equal(t, [2]float64{1, 5}, m.RatingScale)

	got, err := m.Predict(ctx, "u1", "n1")
	require.NoError(t, err)
	assert.InDelta(t, 3.5+0.2+0.4+0.2+0.2, got, 1e-9)

	// 新用户：只剩 μ + b_i
	got, err = m.Predict(ctx, core.AnonymousUserID, "n2")
	require.NoError(t, err)
	assert.InDelta(t, 3.2, got, 1e-9)

	cold, err := m.PredictColdStart(ctx, "n2")
	require.NoError(t, err)
	assert.Equal(t, got, cold)

	// 新物品：μ + b_u
	got, err = m.Predict(ctx, "u1", "unknown")
	require.NoError(t, err)
	assert.InDelta(t, 3.7, got, 1e-9)

	// 截断到 [1,5]
	got, err = m.Predict(ctx, "u1", "n3")
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)
}

func TestSVD_Nil(t *testing.T) {
	var m *SVD
	_, err := m.Predict(context.Background(), "u", "i")
	assert.True(t, core.IsUnavailable(err))
}

func TestParseSVD_Invalid(t *testing.T) {
	_, err := ParseSVD([]byte(`{`))
	assert.True(t, core.IsInvalidInput(err))

	_, err = ParseSVD([]byte(`{"global_mean":3,"item_factors":{"a":[1,2],"b":[1]}}`))
	assert.True(t, core.IsInvalidInput(err))

	_, err = ParseSVD([]byte(`{"global_mean":3,"rating_scale":[5,1]}`))
	assert.True(t, core.IsInvalidInput(err))
}

func TestLoadSVD(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "svd.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleModel), 0o644))

	p, err := Open(ctx, Config{Source: SourceFile, Path: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "svd", p.Name())

	st := store.NewMemoryStore()
	_, err = LoadSVDStore(ctx, st, "")
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, st.Set(ctx, DefaultStoreKey, []byte(sampleModel)))
	p, err = Open(ctx, Config{Source: SourceStore}, st)
	require.NoError(t, err)
	_, ok := p.(core.ColdStartPredictor)
	assert.True(t, ok)

	p, err = Open(ctx, Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = LoadSVDFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, core.IsUnavailable(err))
}
