package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rushteam/novelrec/core"
	"github.com/rushteam/novelrec/recall"
	"github.com/rushteam/novelrec/store"
)

var popularKey string

// catalogPopularCmd 写入热门榜单，供 recall.popular 节点读取。
var catalogPopularCmd = &cobra.Command{
	Use:     "popular <id=score>...",
	Short:   "Write popularity scores into the configured store",
	Example: `  novelrec catalog popular 1=120 7=98.5 --key novel:popular`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := pushPopular(cmd.Context(), st, popularKey, args)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d popular entries to %s\n", n, st.Name())
		return nil
	},
}

func init() {
	catalogPopularCmd.Flags().StringVar(&popularKey, "key", recall.DefaultPopularKey, "store key")
	catalogCmd.AddCommand(catalogPopularCmd)
}

// pushPopular 解析 id=score 并逐个写入有序集合；任一参数格式错误时不写入。
func pushPopular(ctx context.Context, st core.KeyValueStore, key string, pairs []string) (int, error) {
	type entry struct {
		id    string
		score float64
	}
	entries := make([]entry, 0, len(pairs))
	for _, p := range pairs {
		id, raw, ok := strings.Cut(p, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return 0, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
				fmt.Sprintf("popular: expected id=score, got %q", p))
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
				fmt.Sprintf("popular: invalid score in %q", p))
		}
		entries = append(entries, entry{id: id, score: score})
	}
	for _, e := range entries {
		if err := st.ZAdd(ctx, key, e.score, e.id); err != nil {
			return 0, fmt.Errorf("popular: zadd %s: %w", e.id, err)
		}
	}
	return len(entries), nil
}
