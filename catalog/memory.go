// Package catalog 加载并持有只读小说目录。
//
// 目录在请求开始前一次性加载，之后不再修改，可被并发请求安全共享。
// 支持的数据源：CSV 文件、SQLite 表、core.Store 中的 JSON（MemoryStore / RedisStore），
// 以及从 Feast 在线特征库刷新平台评分。
package catalog

import (
	"fmt"

	"github.com/rushteam/novelrec/core"
)

// Memory 是内存实现的 core.Catalog：保持加载顺序，按 ID 建索引。
type Memory struct {
	novels []*core.Novel
	index  map[string]*core.Novel
}

var _ core.Catalog = (*Memory)(nil)

// New 用给定小说构建目录；ID 为空或重复时返回 INVALID_INPUT 错误。
func New(novels []core.Novel) (*Memory, error) {
	m := &Memory{
		novels: make([]*core.Novel, 0, len(novels)),
		index:  make(map[string]*core.Novel, len(novels)),
	}
	for i := range novels {
		n := novels[i]
		if n.ID == "" {
			return nil, invalidInput(fmt.Sprintf("catalog: novel at row %d has empty id", i))
		}
		if _, dup := m.index[n.ID]; dup {
			return nil, invalidInput(fmt.Sprintf("catalog: duplicate novel id %q", n.ID))
		}
		m.novels = append(m.novels, &n)
		m.index[n.ID] = &n
	}
	return m, nil
}

// Empty 返回空目录。
func Empty() *Memory {
	m, _ := New(nil)
	return m
}

func (m *Memory) Len() int { return len(m.novels) }

func (m *Memory) Novels() []*core.Novel { return m.novels }

func (m *Memory) Get(id string) (*core.Novel, bool) {
	n, ok := m.index[id]
	return n, ok
}

// IDs 按目录顺序返回所有 ID。
func (m *Memory) IDs() []string {
	ids := make([]string, len(m.novels))
	for i, n := range m.novels {
		ids[i] = n.ID
	}
	return ids
}

// WithRatings 返回替换了部分平台评分的新目录，原目录不变。
func (m *Memory) WithRatings(ratings map[string]core.PlatformRating) *Memory {
	out := &Memory{
		novels: make([]*core.Novel, 0, len(m.novels)),
		index:  make(map[string]*core.Novel, len(m.novels)),
	}
	for _, n := range m.novels {
		cp := *n
		if r, ok := ratings[cp.ID]; ok {
			cp.Rating = r
		}
		out.novels = append(out.novels, &cp)
		out.index[cp.ID] = &cp
	}
	return out
}

func invalidInput(msg string) error {
	return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, msg)
}
