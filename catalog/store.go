package catalog

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/novelrec/core"
)

// DefaultStoreKey 是目录在 Store 中的默认 key。
const DefaultStoreKey = "catalog:novels"

// LoadStore 从 Store 的某个 key 读取 JSON 数组形式的目录。
func LoadStore(ctx context.Context, st core.Store, key string) (*Memory, error) {
	if key == "" {
		key = DefaultStoreKey
	}
	data, err := st.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound,
				fmt.Sprintf("catalog: key %q not found in %s store", key, st.Name()))
		}
		return nil, fmt.Errorf("catalog: load from %s: %w", st.Name(), err)
	}
	var novels []core.Novel
	if err := json.Unmarshal(data, &novels); err != nil {
		return nil, invalidInput(fmt.Sprintf("catalog: decode %q: %v", key, err))
	}
	return New(novels)
}

// SaveStore 把目录写入 Store，供其他实例通过 LoadStore 共享。
func SaveStore(ctx context.Context, st core.Store, key string, c core.Catalog) error {
	if key == "" {
		key = DefaultStoreKey
	}
	novels := make([]core.Novel, 0, c.Len())
	for _, n := range c.Novels() {
		novels = append(novels, *n)
	}
	data, err := json.Marshal(novels)
	if err != nil {
		return fmt.Errorf("catalog: encode: %w", err)
	}
	return st.Set(ctx, key, data)
}
