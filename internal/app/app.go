// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package app wires configuration into a ready pipeline.Agent.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdiddy/medical-agent/internal/evidence"
	"github.com/pdiddy/medical-agent/internal/llm"
	"github.com/pdiddy/medical-agent/internal/pipeline"
	"github.com/pdiddy/medical-agent/internal/summarize"
	"github.com/pdiddy/medical-agent/internal/validate"
	"github.com/pdiddy/medical-agent/pkg/types"
)

// App holds the agent and the resources it owns.
type App struct {
	Agent     *pipeline.Agent
	Selection llm.Selection
	Source    string

	closers []func() error
}

// Build constructs every stage from cfg. A model that cannot be opened
// degrades to the heuristic summarizer rather than failing startup.
func Build(ctx context.Context, cfg *types.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	policy := validate.DefaultPolicy()
	if cfg.Policy.File != "" {
		p, err := validate.LoadPolicy(cfg.Policy.File)
		if err != nil {
			return nil, fmt.Errorf("loading policy: %w", err)
		}
		policy = p
	}
	validator, err := validate.New(policy)
	if err != nil {
		return nil, fmt.Errorf("compiling policy: %w", err)
	}

	client, closeCache, err := evidence.New(cfg.Evidence, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Source: client.Source(), closers: []func() error{closeCache}}

	sel := llm.Resolve(cfg.LLM)
	model, err := sel.Open(ctx)
	if err != nil {
		logger.Warn("language model unavailable; using heuristic answers",
			"provider", sel.Provider,
			"error", err,
		)
		sel = llm.Selection{Provider: types.ProviderLocal, Reason: err.Error()}
		model = nil
	}
	if sel.Reason != "" {
		logger.Info("language model disabled", "reason", sel.Reason)
	}
	if model != nil {
		a.closers = append(a.closers, model.Close)
	}
	a.Selection = sel

	s := summarize.New(a.Source, model, sel.Provider, logger)
	a.Agent = pipeline.New(validator, client, s, pipeline.WithLogger(logger), pipeline.WithSource(a.Source))

	logger.Debug("agent ready",
		"source", a.Source,
		"provider", sel.Provider,
		"model", sel.Model,
		"cache", cfg.Cache.Enabled,
	)
	return a, nil
}

// Close releases the cache and model clients.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
