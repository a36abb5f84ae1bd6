// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a question through validation, evidence
// retrieval, summarization and the disclaimer stage. Every call returns a
// well-formed response; stage failures become values and panics are
// recovered at the Agent boundary.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/medical-agent/internal/summarize"
	"github.com/pdiddy/medical-agent/pkg/types"
)

// UnexpectedErrorMessage is returned when a stage panics.
const UnexpectedErrorMessage = "An unexpected error occurred while processing your question. Please try again later."

type requestIDKey struct{}

// WithRequestID returns a context whose requests reuse id instead of
// generating one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the ID stored by WithRequestID, if any.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// Agent composes the four stages. It holds no per-request state and is
// safe for concurrent use when its stages are.
type Agent struct {
	validator  Validator
	retriever  Retriever
	summarizer Summarizer
	disclaimer Disclaimer
	logger     *slog.Logger
	newID      func() string
	source     string
}

// Option configures an Agent.
type Option func(*Agent)

// WithDisclaimer replaces the default disclaimer stage.
func WithDisclaimer(d Disclaimer) Option {
	return func(a *Agent) { a.disclaimer = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithSource names the evidence source used in fallback answers when the
// retrieval result does not carry one.
func WithSource(name string) Option {
	return func(a *Agent) { a.source = name }
}

// WithRequestIDs sets the request ID generator.
func WithRequestIDs(f func() string) Option {
	return func(a *Agent) { a.newID = f }
}

// New returns an Agent over the given stages.
func New(v Validator, r Retriever, s Summarizer, opts ...Option) *Agent {
	a := &Agent{
		validator:  v,
		retriever:  r,
		summarizer: s,
		disclaimer: FixedDisclaimer{},
		logger:     slog.Default(),
		newID:      uuid.NewString,
		source:     "Wikipedia",
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Ask answers question. It never panics and never returns an error; the
// outcome is described by the response's Status and ErrorKind.
func (a *Agent) Ask(ctx context.Context, question string) types.Response {
	return a.run(ctx, question, nil)
}

// Trace runs the same stages as Ask and records each stage's output.
func (a *Agent) Trace(ctx context.Context, question string) types.Trace {
	tr := &types.Trace{Question: question}
	tr.Final = a.run(ctx, question, tr)
	return *tr
}

// run drives the state machine. tr, when non-nil, receives every
// intermediate output.
func (a *Agent) run(ctx context.Context, question string, tr *types.Trace) (resp types.Response) {
	reqID, ok := RequestID(ctx)
	if !ok {
		reqID = a.newID()
	}
	states := []types.State{types.StateStart}
	log := a.logger.With("request_id", reqID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline stage panicked",
				"state", states[len(states)-1],
				"panic", fmt.Sprint(r),
			)
			states = append(states, types.StateError)
			resp = types.Response{
				AnswerText:  UnexpectedErrorMessage,
				Bullets:     []string{},
				SourceLinks: []types.SourceLink{},
				Status:      types.StatusError,
				Error:       UnexpectedErrorMessage,
				ErrorKind:   types.ErrorUnexpected,
			}
			resp = a.finish(resp, reqID, &states, tr)
		}
	}()

	validation := a.validator.Validate(question)
	if tr != nil {
		tr.Validation = validation
	}
	if !validation.IsValid {
		if validation.Error == "" {
			validation.Error = "Invalid question"
		}
		log.Info("question rejected", "reason", validation.Error)
		states = append(states, types.StateError)
		resp = types.Response{
			AnswerText:  validation.Error,
			Bullets:     []string{},
			SourceLinks: []types.SourceLink{},
			Status:      types.StatusError,
			Error:       validation.Error,
			ErrorKind:   types.ErrorValidation,
			Analysis:    map[string]any{"is_question": validation.IsQuestion},
		}
		return a.finish(resp, reqID, &states, tr)
	}
	states = append(states, types.StateValidated)

	retrieval := a.retriever.Retrieve(ctx, validation.SanitizedQuestion)
	if tr != nil {
		tr.Retrieval = &retrieval
	}
	items := retrieval.Items
	if !retrieval.OK() {
		log.Warn("retrieval degraded", "error", retrieval.Error)
		items = nil
	}
	states = append(states, types.StateRetrieved)

	formatted := a.summarizer.Summarize(ctx, validation.SanitizedQuestion, items)
	if strings.TrimSpace(formatted.AnswerText) == "" {
		log.Warn("summarizer returned no answer text, using heuristic answer")
		formatted = summarize.Heuristic(a.sourceName(retrieval), items)
	}
	formatted.Bullets = summarize.EnsureMinBullets(formatted.Bullets)
	if tr != nil {
		tr.Formatting = &formatted
	}
	states = append(states, types.StateFormatted)

	analysis := map[string]any{
		"is_question":  validation.IsQuestion,
		"used_model":   formatted.UsedModel,
		"provider":     formatted.Provider,
		"retrieval":    retrieval.Meta,
		"source_count": len(items),
		"degraded":     !retrieval.OK(),
	}
	if !retrieval.OK() {
		analysis["retrieval_error"] = retrieval.Error
	}
	if len(formatted.Sections) > 0 {
		analysis["sections"] = formatted.Sections
	}

	resp = types.Response{
		AnswerText:      formatted.AnswerText,
		Bullets:         formatted.Bullets,
		SourceLinks:     sourceLinks(items),
		Recommendations: formatted.Recommendations,
		Status:          types.StatusSuccess,
		Analysis:        analysis,
	}
	return a.finish(resp, reqID, &states, tr)
}

// finish applies the disclaimer, closes the state sequence and stamps
// diagnostics. It runs exactly once per request.
func (a *Agent) finish(resp types.Response, reqID string, states *[]types.State, tr *types.Trace) types.Response {
	resp = a.attach(resp)
	*states = append(*states, types.StateDisclaimed, types.StateDone)

	if resp.Analysis == nil {
		resp.Analysis = map[string]any{}
	}
	resp.Analysis["request_id"] = reqID
	resp.Analysis["states"] = append([]types.State(nil), *states...)

	if tr != nil {
		tr.States = append([]types.State(nil), *states...)
	}
	return resp
}

// attach runs the disclaimer stage; a panicking disclaimer still leaves
// the fixed text in place.
func (a *Agent) attach(resp types.Response) (out types.Response) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("disclaimer stage panicked", "panic", fmt.Sprint(r))
			resp.Disclaimer = DisclaimerText
			out = resp
		}
	}()
	out = a.disclaimer.Attach(resp)
	if out.Disclaimer == "" {
		out.Disclaimer = DisclaimerText
	}
	return out
}

// sourceName prefers the source recorded by the retriever.
func (a *Agent) sourceName(r types.RetrievalResult) string {
	if name, ok := r.Meta["source"].(string); ok && name != "" {
		return name
	}
	return a.source
}

func sourceLinks(items []types.EvidenceItem) []types.SourceLink {
	links := make([]types.SourceLink, 0, len(items))
	for _, it := range items {
		links = append(links, types.SourceLink{
			Title:      it.Title,
			URL:        it.URL,
			SourceName: it.SourceName,
			Published:  it.Published,
		})
	}
	return links
}
