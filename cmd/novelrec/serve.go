package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rushteam/novelrec/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP recommendation server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(server.Config{
			Addr:         a.cfg.Server.Addr,
			ReadTimeout:  a.cfg.Server.ReadTimeout,
			WriteTimeout: a.cfg.Server.WriteTimeout,
		}, a.service, a.catalog)
		return srv.ListenAndServe(ctx)
	},
}
