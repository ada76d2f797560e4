package catalog

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/feast"
	"github.com/rushteam/novelrec/store"
)

const sampleCSV = `id,title,author,tags,platform,rating
1,斗破苍穹,天蚕土豆,"玄幻,修真",起点读书,4.6
2,三体,刘慈欣,"科幻,现实",微信读书,
3,明朝那些事儿,当年明月,"历史,文学",QQ 阅读,0
4,鬼吹灯,天下霸唱,"灵异,冒险",番茄小说,abc
`

func TestNew_DuplicateID(t *testing.T) {
	_, err := New([]core.Novel{{ID: "1"}, {ID: "1"}})
	assert.True(t, core.IsInvalidInput(err))

	_, err = New([]core.Novel{{ID: ""}})
	assert.True(t, core.IsInvalidInput(err))
}

func TestMemory_Order(t *testing.T) {
	m, err := New([]core.Novel{{ID: "b"}, {ID: "a"}, {ID: "c"}})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"b", "a", "c"}, m.IDs())

	n, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", n.ID)
	_, ok = m.Get("zz")
	assert.False(t, ok)
}

func TestReadCSV(t *testing.T) {
	m, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 4, m.Len())

	n, _ := m.Get("1")
	assert.Equal(t, "斗破苍穹", n.Title)
	assert.Equal(t, "玄幻,修真", n.Tags)
	assert.Equal(t, core.Rated(4.6), n.Rating)

	for _, id := range []string{"2", "3", "4"} {
		n, _ := m.Get(id)
		assert.False(t, n.Rating.Known, id)
		assert.Equal(t, "暂无评分", n.Rating.String())
	}
}

func TestReadCSV_Errors(t *testing.T) {
	m, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	_, err = ReadCSV(strings.NewReader("id,title\n1,x\n"))
	assert.True(t, core.IsInvalidInput(err))

	_, err = ReadCSV(strings.NewReader("id,title,author,tags,platform\n1,a,b,c,d\n1,a,b,c,d\n"))
	assert.True(t, core.IsInvalidInput(err))
}

func TestReadCSV_ByteOrderMark(t *testing.T) {
	m, err := ReadCSV(strings.NewReader("\ufeff" + sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 4, m.Len())

	n, ok := m.Get("1")
	require.True(t, ok)
	assert.Equal(t, "斗破苍穹", n.Title)
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want core.PlatformRating
	}{
		{in: "4.6", want: core.Rated(4.6)},
		{in: " 3 ", want: core.Rated(3)},
		{in: "5", want: core.Rated(5)},
		{in: "7.5", want: core.Rated(5)},
		{in: "", want: core.Unrated},
		{in: "0", want: core.Unrated},
		{in: "-1", want: core.Unrated},
		{in: "abc", want: core.Unrated},
		{in: "NaN", want: core.Unrated},
		{in: "Inf", want: core.Unrated},
		{in: "-Inf", want: core.Unrated},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRating(tt.in), tt.in)
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "novels.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	m, err := Open(context.Background(), Config{Source: SourceCSV, Path: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, core.IsUnavailable(err))
}

func TestLoadSQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "novels.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE novels (id INTEGER, title TEXT, author TEXT, tags TEXT, platform TEXT, rating REAL)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO novels VALUES
		(10, '斗破苍穹', '天蚕土豆', '玄幻,修真', '起点读书', 4.6),
		(11, '三体', '刘慈欣', '科幻', '微信读书', NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	m, err := LoadSQLite(ctx, dsn, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "11"}, m.IDs())
	n, _ := m.Get("10")
	assert.Equal(t, core.Rated(4.6), n.Rating)
	n, _ = m.Get("11")
	assert.False(t, n.Rating.Known)

	_, err = LoadSQLite(ctx, dsn, "novels; DROP TABLE novels")
	assert.True(t, core.IsInvalidInput(err))
}

func TestLoadStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	_, err := LoadStore(ctx, st, "")
	assert.True(t, core.IsNotFound(err))

	src, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, SaveStore(ctx, st, "", src))

	m, err := Open(ctx, Config{Source: SourceStore}, st)
	require.NoError(t, err)
	assert.Equal(t, src.IDs(), m.IDs())
	n, _ := m.Get("1")
	assert.Equal(t, core.Rated(4.6), n.Rating)
	n, _ = m.Get("2")
	assert.False(t, n.Rating.Known)

	require.NoError(t, st.Set(ctx, "bad", []byte("{")))
	_, err = LoadStore(ctx, st, "bad")
	assert.True(t, core.IsInvalidInput(err))
}

func TestOpen_UnknownSource(t *testing.T) {
	_, err := Open(context.Background(), Config{Source: "ftp"}, nil)
	assert.True(t, core.IsNotSupported(err))
}

type fakeFeast struct {
	values map[string]any
	fail   bool
	calls  int
}

func (f *fakeFeast) GetOnlineFeatures(ctx context.Context, req *feast.GetOnlineFeaturesRequest) (*feast.GetOnlineFeaturesResponse, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("feast down")
	}
	resp := &feast.GetOnlineFeaturesResponse{}
	for _, row := range req.EntityRows {
		values := map[string]any{}
		if v, ok := f.values[row["novel_id"].(string)]; ok {
			values[req.Features[0]] = v
		}
		resp.FeatureVectors = append(resp.FeatureVectors, feast.FeatureVector{Values: values, EntityRow: row})
	}
	return resp, nil
}

func (f *fakeFeast) Close() error { return nil }

func TestRatingEnricher(t *testing.T) {
	src, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	client := &fakeFeast{values: map[string]any{"1": 3.9, "2": 4.4, "3": 0.0}}
	e := &RatingEnricher{Client: client, BatchSize: 3}
	out := e.Enrich(context.Background(), src)

	assert.Equal(t, 2, client.calls)
	n, _ := out.Get("1")
	assert.Equal(t, core.Rated(3.9), n.Rating)
	n, _ = out.Get("2")
	assert.Equal(t, core.Rated(4.4), n.Rating)
	n, _ = out.Get("3")
	assert.False(t, n.Rating.Known)

	// 原目录不变
	n, _ = src.Get("1")
	assert.Equal(t, core.Rated(4.6), n.Rating)
}

func TestRatingEnricher_FailureKeepsRatings(t *testing.T) {
	src, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	out := (&RatingEnricher{Client: &fakeFeast{fail: true}}).Enrich(context.Background(), src)
	n, _ := out.Get("1")
	assert.Equal(t, core.Rated(4.6), n.Rating)
	assert.Equal(t, src.IDs(), out.IDs())
}
