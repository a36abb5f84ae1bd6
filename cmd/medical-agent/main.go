// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the medical-agent CLI. It answers
// health questions from the terminal and serves the same pipeline over
// HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medical-agent/internal/config"
	"github.com/pdiddy/medical-agent/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds one file per API key.
const secretsDir = ".secrets/"

// rootCmd is the base command for the medical-agent CLI.
var rootCmd = &cobra.Command{
	Use:   "medical-agent",
	Short: "Evidence-grounded educational answers to health questions",
	Long: `medical-agent answers health questions for educational purposes. Each
question is validated, grounded in Wikipedia or PubMed evidence, summarized
either by a language model or a local heuristic, and returned with a fixed
medical disclaimer.

Use "ask" for a single question and "serve" to run the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		logger, err := newLogger(level)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./medical-agent.yaml or ~/.config/medical-agent/medical-agent.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn or error")
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

// loadConfig reads configuration using the persistent flags.
func loadConfig(cmd *cobra.Command) (*types.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Load(config.Options{
		File:       file,
		EnvFile:    envFile,
		SecretsDir: secretsDir,
		Logger:     slog.Default(),
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
