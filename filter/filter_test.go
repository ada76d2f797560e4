package filter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/store"
)

func novel(id, platform string, rating core.PlatformRating) *core.Item {
	return core.ItemFromNovel(&core.Novel{ID: id, Title: "t" + id, Tags: "玄幻,修真", Platform: platform, Rating: rating})
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

type errFilter struct{}

func (errFilter) Name() string { return "err" }
func (errFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return true, errors.New("broken")
}

func TestFilterNode(t *testing.T) {
	items := []*core.Item{novel("1", "起点读书", core.Unrated), novel("2", "番茄小说", core.Unrated), nil}
	rctx := &core.RecommendContext{}
	n := &FilterNode{Filters: []Filter{errFilter{}, NewBlacklistFilter([]string{"2"}, nil, "")}}

	out, err := n.Process(context.Background(), rctx, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(out))

	lbl, ok := rctx.GetLabel("filtered.filter.blacklist")
	require.True(t, ok)
	assert.Equal(t, "1", lbl.Value)
}

func TestBlacklistFilter_Store(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(ctx, DefaultBlacklistKey, []byte(`["3"]`)))

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewBlacklistFilter([]string{"1"}, st, "")
	f.now = func() time.Time { return now }

	for id, want := range map[string]bool{"1": true, "2": false, "3": true} {
		got, err := f.ShouldFilter(ctx, nil, core.NewItem(id))
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}

	// 缓存期内不重新读取
	require.NoError(t, st.Set(ctx, DefaultBlacklistKey, []byte(`["2"]`)))
	got, _ := f.ShouldFilter(ctx, nil, core.NewItem("2"))
	assert.False(t, got)

	now = now.Add(2 * time.Minute)
	got, _ = f.ShouldFilter(ctx, nil, core.NewItem("2"))
	assert.True(t, got)
}

func TestBlacklistFilter_MissingKey(t *testing.T) {
	f := NewBlacklistFilter(nil, store.NewMemoryStore(), "absent")
	got, err := f.ShouldFilter(context.Background(), nil, core.NewItem("1"))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestPlatformFilter(t *testing.T) {
	items := []*core.Item{
		novel("1", "起点读书", core.Unrated),
		novel("2", "番茄小说", core.Unrated),
		novel("3", "", core.Unrated),
	}
	user := core.NewUserProfile(core.Demographics{Platforms: []string{"起点", core.Undisclosed}})
	rctx := &core.RecommendContext{User: user}

	out, err := (&FilterNode{Filters: []Filter{&PlatformFilter{}}}).Process(context.Background(), rctx, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(out))

	undisclosed := &core.RecommendContext{User: core.NewUserProfile(core.Demographics{Platforms: []string{core.Undisclosed}})}
	out, err = (&FilterNode{Filters: []Filter{&PlatformFilter{}}}).Process(context.Background(), undisclosed, items)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestExprFilter(t *testing.T) {
	f, err := NewExprFilter(`item.platform_rating == null || item.platform_rating >= 4.0`)
	require.NoError(t, err)

	items := []*core.Item{
		novel("1", "起点读书", core.Rated(4.5)),
		novel("2", "起点读书", core.Rated(3.1)),
		novel("3", "起点读书", core.Unrated),
	}
	out, err := (&FilterNode{Filters: []Filter{f}}).Process(context.Background(), &core.RecommendContext{}, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(out))
}

func TestExprFilter_User(t *testing.T) {
	f, err := NewExprFilter(`user.age < 20 || !item.tags.contains("修真")`)
	require.NoError(t, err)

	young := &core.RecommendContext{User: &core.UserProfile{Age: 16}}
	old := &core.RecommendContext{User: &core.UserProfile{Age: 40}}
	it := novel("1", "起点读书", core.Unrated)

	drop, err := f.ShouldFilter(context.Background(), young, it)
	require.NoError(t, err)
	assert.False(t, drop)

	drop, err = f.ShouldFilter(context.Background(), old, it)
	require.NoError(t, err)
	assert.True(t, drop)
}

func TestNewExprFilter_Invalid(t *testing.T) {
	_, err := NewExprFilter(`item.score >`)
	assert.True(t, core.IsInvalidInput(err))

	_, err = NewExprFilter(`1 + 2`)
	assert.True(t, core.IsInvalidInput(err))
}
