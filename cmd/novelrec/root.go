package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "novelrec",
	Short: "novelrec - hybrid novel recommender",
	Long: `novelrec 为没有阅读历史的新用户推荐小说：
根据人口属性推导偏好标签，结合内容匹配与协同过滤打分，并按平台评分校准。`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (env NOVELREC_CONFIG takes precedence)")
	rootCmd.AddCommand(serveCmd, recommendCmd, catalogCmd)
}
