// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize turns a question and its evidence into a formatted
// answer, either through a language model or a local heuristic. The
// model path falls back to the heuristic on any failure.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/medical-agent/internal/llm"
	"github.com/pdiddy/medical-agent/pkg/types"
)

var errMissingAnswer = errors.New("reply missing answer_text")

// Summarizer writes answers for one evidence source. A nil model selects
// the heuristic path. Safe for concurrent use when the model is.
type Summarizer struct {
	source   string
	model    llm.ChatModel
	provider types.LLMProvider
	logger   *slog.Logger
}

// New returns a summarizer. source is the evidence source name shown in
// answers ("PubMed", "Wikipedia").
func New(source string, model llm.ChatModel, provider types.LLMProvider, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if model == nil {
		provider = types.ProviderLocal
	}
	return &Summarizer{source: source, model: model, provider: provider, logger: logger}
}

// Summarize answers question from items. It never fails: any model error,
// unparseable reply or reply without answer text yields the heuristic
// answer with UsedModel false.
func (s *Summarizer) Summarize(ctx context.Context, question string, items []types.EvidenceItem) types.FormattedAnswer {
	question = strings.TrimSpace(question)
	if s.model == nil {
		return Heuristic(s.source, items)
	}

	answer, err := s.fromModel(ctx, question, items)
	if err != nil {
		s.logger.Info("model summarization failed; falling back to heuristic",
			"provider", s.provider,
			"model", s.model.Name(),
			"error", err,
		)
		return Heuristic(s.source, items)
	}
	return answer
}

func (s *Summarizer) fromModel(ctx context.Context, question string, items []types.EvidenceItem) (types.FormattedAnswer, error) {
	prompt, err := renderPrompt(s.source, question, items)
	if err != nil {
		return types.FormattedAnswer{}, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := s.model.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return types.FormattedAnswer{}, err
	}

	reply, err := parseReply(text)
	if err != nil {
		return types.FormattedAnswer{}, err
	}
	if reply.AnswerText == "" {
		return types.FormattedAnswer{}, errMissingAnswer
	}

	return types.FormattedAnswer{
		AnswerText:      reply.AnswerText,
		Bullets:         EnsureMinBullets(reply.Bullets),
		Recommendations: reply.Recommendations,
		Sections:        Sections(items),
		UsedModel:       true,
		Provider:        string(s.provider),
	}, nil
}
