// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/medical-agent/internal/cache"
	"github.com/pdiddy/medical-agent/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the evidence cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired entries from the persistent evidence cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Cache.Backend != types.CacheSQLite {
			color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "cache backend is in-memory; nothing to purge")
			return nil
		}

		c, err := cache.OpenSQLite[[]types.EvidenceItem](cfg.Cache.Path, cfg.Cache.TTL, slog.Default())
		if err != nil {
			return err
		}
		defer c.Close()

		n, err := c.Purge()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired entries from %s\n", n, cfg.Cache.Path)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
