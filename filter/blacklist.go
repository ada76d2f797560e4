package filter

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/novelrec/core"
)

// DefaultBlacklistKey 是黑名单在 Store 中的默认 key。
const DefaultBlacklistKey = "novel:blacklist"

// BlacklistFilter 是黑名单过滤器，过滤掉下架/屏蔽的小说。
//
// 黑名单来源：
//   - ItemIDs：静态列表
//   - Store + Key：JSON 字符串数组，按 RefreshInterval 缓存（默认 1 分钟）
//
// Store 读取失败时沿用上一次成功的结果。
type BlacklistFilter struct {
	ItemIDs []string

	Store core.Store
	Key   string

	RefreshInterval time.Duration

	mu       sync.Mutex
	static   map[string]struct{}
	cached   map[string]struct{}
	loadedAt time.Time
	now      func() time.Time
}

// NewBlacklistFilter 创建一个黑名单过滤器；st 为空时只使用静态列表。
func NewBlacklistFilter(itemIDs []string, st core.Store, key string) *BlacklistFilter {
	return &BlacklistFilter{ItemIDs: itemIDs, Store: st, Key: key}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	set, err := f.blacklist(ctx)
	_, hit := set[item.ID]
	if !hit {
		_, hit = f.staticSet()[item.ID]
	}
	if hit {
		return true, nil
	}
	return false, err
}

func (f *BlacklistFilter) staticSet() map[string]struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.static == nil {
		f.static = make(map[string]struct{}, len(f.ItemIDs))
		for _, id := range f.ItemIDs {
			f.static[id] = struct{}{}
		}
	}
	return f.static
}

func (f *BlacklistFilter) blacklist(ctx context.Context) (map[string]struct{}, error) {
	if f.Store == nil {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now
	if f.now != nil {
		now = f.now
	}
	interval := f.RefreshInterval
	if interval <= 0 {
		interval = time.Minute
	}
	if f.cached != nil && now().Sub(f.loadedAt) < interval {
		return f.cached, nil
	}

	key := f.Key
	if key == "" {
		key = DefaultBlacklistKey
	}
	data, err := f.Store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			f.cached, f.loadedAt = map[string]struct{}{}, now()
			return f.cached, nil
		}
		return f.cached, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return f.cached, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	f.cached, f.loadedAt = set, now()
	return set, nil
}
