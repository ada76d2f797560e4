package recall

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/novelrec/catalog"
	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/store"
)

func newCatalog(t *testing.T, novels ...core.Novel) *catalog.Memory {
	t.Helper()
	m, err := catalog.New(novels)
	require.NoError(t, err)
	return m
}

func profileContext(tags ...string) *core.RecommendContext {
	return &core.RecommendContext{User: &core.UserProfile{PreferredTags: tags}}
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// fakePredictor 按 itemID 查表，并记录调用时的 userID。
type fakePredictor struct {
	scores map[string]float64
	users  []string
}

func (p *fakePredictor) Name() string { return "fake" }

func (p *fakePredictor) Predict(_ context.Context, userID, itemID string) (float64, error) {
	p.users = append(p.users, userID)
	s, ok := p.scores[itemID]
	if !ok {
		return 0, errors.New("unknown item")
	}
	return s, nil
}

type fakeColdStart struct {
	fakePredictor
	coldCalls int
}

func (p *fakeColdStart) PredictColdStart(_ context.Context, itemID string) (float64, error) {
	p.coldCalls++
	return p.scores[itemID] + 0.5, nil
}

func TestContentRecall_SubstringMatch(t *testing.T) {
	cat := newCatalog(t,
		core.Novel{ID: "1", Tags: "都市,言情"},
		core.Novel{ID: "2", Tags: "校园,修真,搞笑"},
		core.Novel{ID: "3", Tags: "修真仙侠"},
		core.Novel{ID: "4", Tags: "异能,校园"},
		core.Novel{ID: "5", Tags: "历史"},
	)
	r := &ContentRecall{Catalog: cat}
	items, err := r.Recall(context.Background(), profileContext("校园", "修真", "异能", "搞笑"))
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "4", "3"}, ids(items))
	assert.Equal(t, []int{3, 2, 1}, []int{items[0].MatchScore(), items[1].MatchScore(), items[2].MatchScore()})
	for i, it := range items {
		assert.GreaterOrEqual(t, it.MatchScore(), 1)
		if i > 0 {
			assert.LessOrEqual(t, it.MatchScore(), items[i-1].MatchScore())
		}
		n, ok := core.NovelOf(it)
		require.True(t, ok)
		assert.Equal(t, it.ID, n.ID)
	}
}

func TestContentRecall_ExactMatch(t *testing.T) {
	cat := newCatalog(t,
		core.Novel{ID: "1", Tags: "修真仙侠"},
		core.Novel{ID: "2", Tags: "修真，仙侠"},
	)
	r := &ContentRecall{Catalog: cat, MatchMode: MatchExact}
	items, err := r.Recall(context.Background(), profileContext("修真"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(items))
}

func TestContentRecall_Empty(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog(t, core.Novel{ID: "1", Tags: "都市"})

	items, err := (&ContentRecall{Catalog: cat}).Recall(ctx, profileContext())
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = (&ContentRecall{Catalog: catalog.Empty()}).Recall(ctx, profileContext("都市"))
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = (&ContentRecall{Catalog: cat}).Recall(ctx, &core.RecommendContext{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestContentRecall_TopKStable(t *testing.T) {
	var novels []core.Novel
	for i := 0; i < 80; i++ {
		novels = append(novels, core.Novel{ID: fmt.Sprintf("n%02d", i), Tags: "玄幻"})
	}
	r := &ContentRecall{Catalog: newCatalog(t, novels...)}
	items, err := r.Recall(context.Background(), profileContext("玄幻"))
	require.NoError(t, err)
	require.Len(t, items, 50)
	assert.Equal(t, "n00", items[0].ID)
	assert.Equal(t, "n49", items[49].ID)
}

func TestSubstringMatches(t *testing.T) {
	assert.Equal(t, 2, SubstringMatches("修真仙侠", []string{"修真", "仙侠", "都市"}))
	assert.Equal(t, 0, SubstringMatches("", []string{"修真"}))
	assert.Equal(t, 0, SubstringMatches("修真", []string{""}))
}

func TestCollaborativeRecall_ColdStartPreferred(t *testing.T) {
	cat := newCatalog(t, core.Novel{ID: "1"}, core.Novel{ID: "2"})
	p := &fakeColdStart{fakePredictor: fakePredictor{scores: map[string]float64{"1": 3, "2": 4}}}
	r := &CollaborativeRecall{Catalog: cat, Predictor: p}

	items, err := r.Recall(context.Background(), &core.RecommendContext{})
	require.NoError(t, err)
	assert.Equal(t, 2, p.coldCalls)
	assert.Empty(t, p.users)
	assert.Equal(t, []string{"2", "1"}, ids(items))
	assert.Equal(t, 4.5, items[0].CFScore())
	assert.Equal(t, "fake", items[0].Labels["cf_model"].Value)
}

func TestCollaborativeRecall_SentinelUser(t *testing.T) {
	cat := newCatalog(t, core.Novel{ID: "1"})
	p := &fakePredictor{scores: map[string]float64{"1": 3}}
	_, err := (&CollaborativeRecall{Catalog: cat, Predictor: p}).Recall(context.Background(), &core.RecommendContext{})
	require.NoError(t, err)
	assert.Equal(t, []string{core.AnonymousUserID}, p.users)

	p.users = nil
	_, err = (&CollaborativeRecall{Catalog: cat, Predictor: p}).Recall(context.Background(), &core.RecommendContext{UserID: "u42"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u42"}, p.users)
}

func TestCollaborativeRecall_RoundingAndErrors(t *testing.T) {
	cat := newCatalog(t, core.Novel{ID: "1"}, core.Novel{ID: "2"}, core.Novel{ID: "missing"})
	p := &fakePredictor{scores: map[string]float64{"1": 3.456, "2": 3.454}}
	items, err := (&CollaborativeRecall{Catalog: cat, Predictor: p}).Recall(context.Background(), &core.RecommendContext{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 3.46, items[0].CFScore())
	assert.Equal(t, 3.45, items[1].CFScore())
}

func TestCollaborativeRecall_Unavailable(t *testing.T) {
	cat := newCatalog(t, core.Novel{ID: "1"})
	items, err := (&CollaborativeRecall{Catalog: cat}).Recall(context.Background(), &core.RecommendContext{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCollaborativeRecall_TopK(t *testing.T) {
	var novels []core.Novel
	scores := map[string]float64{}
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("n%03d", i)
		novels = append(novels, core.Novel{ID: id})
		scores[id] = 1 + float64(i)/100
	}
	items, err := (&CollaborativeRecall{Catalog: newCatalog(t, novels...), Predictor: &fakePredictor{scores: scores}}).
		Recall(context.Background(), &core.RecommendContext{})
	require.NoError(t, err)
	require.Len(t, items, 100)
	assert.Equal(t, "n149", items[0].ID)
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i].CFScore(), items[i-1].CFScore())
	}
}

type staticSource struct {
	name  string
	items []string
	err   error
	delay time.Duration
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*core.Item, 0, len(s.items))
	for _, id := range s.items {
		out = append(out, core.NewItem(id))
	}
	return out, nil
}

func TestFanout_DeterministicOrder(t *testing.T) {
	f := &Fanout{
		Sources: []Source{
			&staticSource{name: "a", items: []string{"1", "2"}, delay: 5 * time.Millisecond},
			&staticSource{name: "b", items: []string{"2", "3"}},
		},
		Dedup: true,
	}
	rctx := &core.RecommendContext{}
	items, err := f.Process(context.Background(), rctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(items))
	assert.Equal(t, "a|b", items[1].Labels["recall_source"].Value)

	lbl, ok := rctx.GetLabel("recall_count.b")
	require.True(t, ok)
	assert.Equal(t, "2", lbl.Value)
}

func TestFanout_SourceFailureDegrades(t *testing.T) {
	f := &Fanout{
		Sources: []Source{
			&staticSource{name: "broken", err: errors.New("boom")},
			&staticSource{name: "slow", items: []string{"x"}, delay: time.Second},
			&staticSource{name: "ok", items: []string{"1"}},
		},
		Timeout: 20 * time.Millisecond,
	}
	items, err := f.Process(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(items))
}

func TestFanout_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &Fanout{Sources: []Source{&staticSource{name: "a", items: []string{"1"}}}}
	_, err := f.Process(ctx, &core.RecommendContext{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func makeItems(prefix string, n int, feature string) []*core.Item {
	out := make([]*core.Item, n)
	for i := range out {
		it := core.NewItem(fmt.Sprintf("%s%03d", prefix, i))
		it.SetFeature(feature, float64(n-i))
		out[i] = it
	}
	return out
}

func TestMergeHybrid_Caps(t *testing.T) {
	content := makeItems("c", 60, core.FeatureMatchScore)
	cf := makeItems("f", 80, core.FeatureCFScore)

	out := MergeHybrid(content, cf, 50, 50)
	require.Len(t, out, 100)

	seen := map[string]bool{}
	var fromContent, fromCF int
	for _, it := range out {
		assert.False(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
		switch it.Labels["merge_slot"].Value {
		case "content":
			fromContent++
			assert.Zero(t, it.CFScore())
		case "collaborative":
			fromCF++
			assert.Zero(t, it.MatchScore())
		}
	}
	assert.Equal(t, 50, fromContent)
	assert.Equal(t, 50, fromCF)
	assert.Equal(t, "c000", out[0].ID)
	assert.Equal(t, "f000", out[50].ID)
}

func TestMergeHybrid_OverlapBackfill(t *testing.T) {
	content := makeItems("n", 3, core.FeatureMatchScore)
	cf := []*core.Item{core.NewItem("n001"), core.NewItem("x1"), core.NewItem("n000"), core.NewItem("x2")}

	out := MergeHybrid(content, cf, 50, 50)
	assert.Equal(t, []string{"n000", "n001", "n002", "x1", "x2"}, ids(out))
}

func TestMergeHybrid_Idempotent(t *testing.T) {
	content := makeItems("c", 10, core.FeatureMatchScore)
	cf := makeItems("f", 10, core.FeatureCFScore)

	first := MergeHybrid(content, cf, 5, 5)
	snapshot := make(map[string]map[string]float64)
	for _, it := range first {
		snapshot[it.ID] = map[string]float64{
			core.FeatureMatchScore: float64(it.MatchScore()),
			core.FeatureCFScore:    it.CFScore(),
		}
	}
	second := MergeHybrid(content, cf, 5, 5)
	assert.Equal(t, ids(first), ids(second))
	for _, it := range second {
		assert.Equal(t, snapshot[it.ID][core.FeatureMatchScore], float64(it.MatchScore()))
		assert.Equal(t, snapshot[it.ID][core.FeatureCFScore], it.CFScore())
		assert.Equal(t, "merge", it.Labels["merge_slot"].Source)
	}
}

func TestHybridMergeStrategy_BySourceName(t *testing.T) {
	s := &HybridMergeStrategy{ContentQuota: 1, CollaborativeQuota: 1}
	out := s.Merge([]SourceResult{
		{Source: "recall.cf", Items: []*core.Item{core.NewItem("b"), core.NewItem("c")}},
		{Source: "recall.content", Items: []*core.Item{core.NewItem("a"), core.NewItem("d")}},
	}, false)
	assert.Equal(t, []string{"a", "b"}, ids(out))
}

func TestPopularRecall(t *testing.T) {
	ctx := context.Background()
	cat := newCatalog(t, core.Novel{ID: "1"}, core.Novel{ID: "2"}, core.Novel{ID: "3"})
	st := store.NewMemoryStore()
	require.NoError(t, st.ZAdd(ctx, DefaultPopularKey, 10, "2"))
	require.NoError(t, st.ZAdd(ctx, DefaultPopularKey, 5, "3"))
	require.NoError(t, st.ZAdd(ctx, DefaultPopularKey, 8, "ghost"))

	items, err := (&PopularRecall{Catalog: cat, Store: st}).Recall(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids(items))

	require.NoError(t, st.Set(ctx, "hot:json", []byte(`["3","1"]`)))
	items, err = (&PopularRecall{Catalog: cat, Store: st, Key: "hot:json"}).Recall(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"}, ids(items))

	items, err = (&PopularRecall{Catalog: cat, Store: st, Key: "nothing"}).Recall(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
