package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/novelrec/catalog"
	"github.com/rushteam/novelrec/store"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Catalog maintenance",
}

var pushKey string

// catalogPushCmd 把 CSV / SQLite 目录写入配置的 store，供 catalog.source=store 的实例加载。
var catalogPushCmd = &cobra.Command{
	Use:   "push <source> <path>",
	Short: "Load a csv or sqlite catalog and save it into the configured store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		cat, err := catalog.Open(ctx, catalog.Config{Source: args[0], Path: args[1]}, nil)
		if err != nil {
			return err
		}
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := catalog.SaveStore(ctx, st, pushKey, cat); err != nil {
			return err
		}
		fmt.Printf("pushed %d novels to %s\n", cat.Len(), st.Name())
		return nil
	},
}

func init() {
	catalogPushCmd.Flags().StringVar(&pushKey, "key", catalog.DefaultStoreKey, "store key")
	catalogCmd.AddCommand(catalogPushCmd)
}
