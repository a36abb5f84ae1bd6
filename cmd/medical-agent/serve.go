// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medical-agent/internal/app"
	"github.com/pdiddy/medical-agent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question-answering API over HTTP",
	Long: `Serve exposes POST /api/ask and GET /health. With --debug (or
server.debug in the config file) POST /api/trace returns every stage's
output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("debug") {
			cfg.Server.Debug, _ = cmd.Flags().GetBool("debug")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.Build(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		return server.New(a.Agent, cfg.Server, nil).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":5000", "listen address")
	serveCmd.Flags().Bool("debug", false, "expose the per-stage trace endpoint")

	rootCmd.AddCommand(serveCmd)
}
