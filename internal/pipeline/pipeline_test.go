// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pdiddy/medical-agent/internal/evidence"
	mock_pipeline "github.com/pdiddy/medical-agent/internal/mocks/pipeline"
	"github.com/pdiddy/medical-agent/internal/summarize"
	"github.com/pdiddy/medical-agent/internal/validate"
	"github.com/pdiddy/medical-agent/pkg/types"
)

func fixedID() string { return "req-1" }

func validResult(q string) types.ValidationResult {
	return types.ValidationResult{IsValid: true, SanitizedQuestion: q, IsQuestion: true}
}

func sampleItems() []types.EvidenceItem {
	return []types.EvidenceItem{
		{ID: "Diabetes", Title: "Diabetes", URL: "https://en.wikipedia.org/wiki/Diabetes", SourceName: "Group of endocrine diseases", Snippet: "Diabetes is a group of metabolic disorders."},
		{ID: "Insulin", Title: "Insulin", URL: "https://en.wikipedia.org/wiki/Insulin"},
	}
}

func sampleAnswer() types.FormattedAnswer {
	return types.FormattedAnswer{
		AnswerText: "Diabetes affects blood sugar.",
		Bullets:    []string{"a", "b", "c"},
		Provider:   "local",
	}
}

func TestAgentAsk(t *testing.T) {
	tests := []struct {
		name      string
		question  string
		setupMock func(v *mock_pipeline.MockValidator, r *mock_pipeline.MockRetriever, s *mock_pipeline.MockSummarizer)
		check     func(t *testing.T, resp types.Response)
	}{
		{
			name:     "success",
			question: " diabetes? ",
			setupMock: func(v *mock_pipeline.MockValidator, r *mock_pipeline.MockRetriever, s *mock_pipeline.MockSummarizer) {
				v.EXPECT().Validate(" diabetes? ").Return(validResult("diabetes?"))
				r.EXPECT().Retrieve(gomock.Any(), "diabetes?").Return(types.RetrievalResult{
					Status: types.StatusSuccess,
					Query:  "diabetes?",
					Items:  sampleItems(),
					Meta:   map[string]any{"used_cache": false},
				})
				s.EXPECT().Summarize(gomock.Any(), "diabetes?", sampleItems()).Return(sampleAnswer())
			},
			check: func(t *testing.T, resp types.Response) {
				assert.Equal(t, types.StatusSuccess, resp.Status)
				assert.Equal(t, "Diabetes affects blood sugar.", resp.AnswerText)
				require.Len(t, resp.SourceLinks, 2)
				assert.Equal(t, "https://en.wikipedia.org/wiki/Diabetes", resp.SourceLinks[0].URL)
				assert.Equal(t, DisclaimerText, resp.Disclaimer)
				assert.Equal(t, false, resp.Analysis["degraded"])
				assert.Equal(t, 2, resp.Analysis["source_count"])
				assert.Equal(t, "req-1", resp.Analysis["request_id"])
				assert.Equal(t, []types.State{
					types.StateStart, types.StateValidated, types.StateRetrieved,
					types.StateFormatted, types.StateDisclaimed, types.StateDone,
				}, resp.Analysis["states"])
			},
		},
		{
			name:     "validation failure skips retrieval",
			question: "",
			setupMock: func(v *mock_pipeline.MockValidator, r *mock_pipeline.MockRetriever, s *mock_pipeline.MockSummarizer) {
				v.EXPECT().Validate("").Return(types.ValidationResult{Error: validate.MsgEmpty})
				r.EXPECT().Retrieve(gomock.Any(), gomock.Any()).Times(0)
				s.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			check: func(t *testing.T, resp types.Response) {
				assert.Equal(t, types.StatusError, resp.Status)
				assert.Equal(t, types.ErrorValidation, resp.ErrorKind)
				assert.Equal(t, validate.MsgEmpty, resp.Error)
				assert.Equal(t, validate.MsgEmpty, resp.AnswerText)
				assert.NotNil(t, resp.Bullets)
				assert.NotNil(t, resp.SourceLinks)
				assert.Equal(t, DisclaimerText, resp.Disclaimer)
				assert.Equal(t, []types.State{
					types.StateStart, types.StateError, types.StateDisclaimed, types.StateDone,
				}, resp.Analysis["states"])
			},
		},
		{
			name:     "invalid result without message",
			question: "x",
			setupMock: func(v *mock_pipeline.MockValidator, r *mock_pipeline.MockRetriever, s *mock_pipeline.MockSummarizer) {
				v.EXPECT().Validate("x").Return(types.ValidationResult{})
			},
			check: func(t *testing.T, resp types.Response) {
				assert.Equal(t, "Invalid question", resp.Error)
				assert.NotEmpty(t, resp.AnswerText)
			},
		},
		{
			name:     "retrieval failure degrades",
			question: "asthma",
			setupMock: func(v *mock_pipeline.MockValidator, r *mock_pipeline.MockRetriever, s *mock_pipeline.MockSummarizer) {
				v.EXPECT().Validate("asthma").Return(validResult("asthma"))
				r.EXPECT().Retrieve(gomock.Any(), "asthma").Return(types.RetrievalResult{
					Status: types.StatusError,
					Query:  "asthma",
					Items:  []types.EvidenceItem{},
					Error:  "timeout",
				})
				s.EXPECT().Summarize(gomock.Any(), "asthma", gomock.Nil()).Return(sampleAnswer())
			},
			check: func(t *testing.T, resp types.Response) {
				assert.Equal(t, types.StatusSuccess, resp.Status)
				assert.Empty(t, resp.SourceLinks)
				assert.Equal(t, true, resp.Analysis["degraded"])
				assert.Equal(t, "timeout", resp.Analysis["retrieval_error"])
			},
		},
		{
			name:     "empty summary falls back to heuristic answer",
			question: "diabetes",
			setupMock: func(v *mock_pipeline.MockValidator, r *mock_pipeline.MockRetriever, s *mock_pipeline.MockSummarizer) {
				v.EXPECT().Validate("diabetes").Return(validResult("diabetes"))
				r.EXPECT().Retrieve(gomock.Any(), "diabetes").Return(types.RetrievalResult{
					Status: types.StatusSuccess,
					Items:  sampleItems(),
					Meta:   map[string]any{"source": "PubMed"},
				})
				s.EXPECT().Summarize(gomock.Any(), "diabetes", sampleItems()).Return(types.FormattedAnswer{})
			},
			check: func(t *testing.T, resp types.Response) {
				want := summarize.Heuristic("PubMed", sampleItems())
				assert.Equal(t, types.StatusSuccess, resp.Status)
				assert.Equal(t, want.AnswerText, resp.AnswerText)
				assert.Equal(t, want.Bullets, resp.Bullets)
				assert.Equal(t, false, resp.Analysis["used_model"])
				assert.Equal(t, "local", resp.Analysis["provider"])
			},
		},
		{
			name:     "short bullet list is padded",
			question: "diabetes",
			setupMock: func(v *mock_pipeline.MockValidator, r *mock_pipeline.MockRetriever, s *mock_pipeline.MockSummarizer) {
				v.EXPECT().Validate("diabetes").Return(validResult("diabetes"))
				r.EXPECT().Retrieve(gomock.Any(), "diabetes").Return(types.RetrievalResult{Status: types.StatusSuccess})
				s.EXPECT().Summarize(gomock.Any(), "diabetes", gomock.Any()).Return(types.FormattedAnswer{
					AnswerText: "Diabetes affects blood sugar.",
					Bullets:    []string{"- only one", "  "},
				})
			},
			check: func(t *testing.T, resp types.Response) {
				assert.Equal(t, "Diabetes affects blood sugar.", resp.AnswerText)
				assert.Equal(t, []string{"only one", summarize.FillerBullet, summarize.FillerBullet}, resp.Bullets)
			},
		},
		{
			name:     "retriever panic is recovered",
			question: "asthma",
			setupMock: func(v *mock_pipeline.MockValidator, r *mock_pipeline.MockRetriever, s *mock_pipeline.MockSummarizer) {
				v.EXPECT().Validate("asthma").Return(validResult("asthma"))
				r.EXPECT().Retrieve(gomock.Any(), "asthma").DoAndReturn(func(context.Context, string) types.RetrievalResult {
					panic("boom")
				})
			},
			check: func(t *testing.T, resp types.Response) {
				assert.Equal(t, types.StatusError, resp.Status)
				assert.Equal(t, types.ErrorUnexpected, resp.ErrorKind)
				assert.Equal(t, UnexpectedErrorMessage, resp.AnswerText)
				assert.Equal(t, DisclaimerText, resp.Disclaimer)
				assert.Equal(t, []types.State{
					types.StateStart, types.StateValidated, types.StateError,
					types.StateDisclaimed, types.StateDone,
				}, resp.Analysis["states"])
			},
		},
		{
			name:     "summarizer panic is recovered",
			question: "asthma",
			setupMock: func(v *mock_pipeline.MockValidator, r *mock_pipeline.MockRetriever, s *mock_pipeline.MockSummarizer) {
				v.EXPECT().Validate("asthma").Return(validResult("asthma"))
				r.EXPECT().Retrieve(gomock.Any(), "asthma").Return(types.RetrievalResult{Status: types.StatusSuccess})
				s.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
					func(context.Context, string, []types.EvidenceItem) types.FormattedAnswer {
						panic(errors.New("nil map"))
					})
			},
			check: func(t *testing.T, resp types.Response) {
				assert.Equal(t, types.ErrorUnexpected, resp.ErrorKind)
				assert.NotEmpty(t, resp.Disclaimer)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			v := mock_pipeline.NewMockValidator(ctrl)
			r := mock_pipeline.NewMockRetriever(ctrl)
			s := mock_pipeline.NewMockSummarizer(ctrl)
			tt.setupMock(v, r, s)

			agent := New(v, r, s, WithRequestIDs(fixedID))
			tt.check(t, agent.Ask(context.Background(), tt.question))
		})
	}
}

func TestAgentDisclaimerPanic(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := mock_pipeline.NewMockValidator(ctrl)
	d := mock_pipeline.NewMockDisclaimer(ctrl)

	v.EXPECT().Validate("").Return(types.ValidationResult{Error: validate.MsgEmpty})
	d.EXPECT().Attach(gomock.Any()).DoAndReturn(func(types.Response) types.Response {
		panic("disclaimer")
	})

	agent := New(v, mock_pipeline.NewMockRetriever(ctrl), mock_pipeline.NewMockSummarizer(ctrl), WithDisclaimer(d))
	resp := agent.Ask(context.Background(), "")

	assert.Equal(t, DisclaimerText, resp.Disclaimer)
	assert.Equal(t, validate.MsgEmpty, resp.Error)
}

func TestAgentDisclaimerBlankIsReplaced(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := mock_pipeline.NewMockValidator(ctrl)
	d := mock_pipeline.NewMockDisclaimer(ctrl)

	v.EXPECT().Validate("").Return(types.ValidationResult{Error: validate.MsgEmpty})
	d.EXPECT().Attach(gomock.Any()).DoAndReturn(func(r types.Response) types.Response { return r })

	resp := New(v, nil, nil, WithDisclaimer(d)).Ask(context.Background(), "")
	assert.Equal(t, DisclaimerText, resp.Disclaimer)
}

func TestAgentTrace(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := mock_pipeline.NewMockValidator(ctrl)
	r := mock_pipeline.NewMockRetriever(ctrl)
	s := mock_pipeline.NewMockSummarizer(ctrl)

	retrieval := types.RetrievalResult{Status: types.StatusSuccess, Query: "gout", Items: sampleItems()}
	v.EXPECT().Validate("gout").Return(validResult("gout"))
	r.EXPECT().Retrieve(gomock.Any(), "gout").Return(retrieval)
	s.EXPECT().Summarize(gomock.Any(), "gout", gomock.Any()).Return(sampleAnswer())

	tr := New(v, r, s, WithRequestIDs(fixedID)).Trace(context.Background(), "gout")

	assert.Equal(t, "gout", tr.Question)
	assert.True(t, tr.Validation.IsValid)
	require.NotNil(t, tr.Retrieval)
	assert.Equal(t, retrieval, *tr.Retrieval)
	require.NotNil(t, tr.Formatting)
	assert.Equal(t, sampleAnswer(), *tr.Formatting)
	assert.Equal(t, types.StatusSuccess, tr.Final.Status)
	assert.Equal(t, tr.Final.Analysis["states"], tr.States)
	assert.Len(t, tr.States, 6)
}

func TestAgentTraceStopsAtValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := mock_pipeline.NewMockValidator(ctrl)
	v.EXPECT().Validate("weather").Return(types.ValidationResult{SanitizedQuestion: "weather", Error: validate.MsgNotMedical})

	tr := New(v, nil, nil).Trace(context.Background(), "weather")

	assert.Nil(t, tr.Retrieval)
	assert.Nil(t, tr.Formatting)
	assert.Equal(t, types.ErrorValidation, tr.Final.ErrorKind)
	assert.Equal(t, []types.State{types.StateStart, types.StateError, types.StateDisclaimed, types.StateDone}, tr.States)
}

func TestAgentRequestIDsDefault(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := mock_pipeline.NewMockValidator(ctrl)
	v.EXPECT().Validate(gomock.Any()).Return(types.ValidationResult{Error: validate.MsgEmpty}).Times(2)

	agent := New(v, nil, nil)
	a := agent.Ask(context.Background(), "")
	b := agent.Ask(context.Background(), "")

	assert.Len(t, a.Analysis["request_id"], 36)
	assert.NotEqual(t, a.Analysis["request_id"], b.Analysis["request_id"])
}

// End-to-end runs with the real validator, evidence client and summarizer.

type stubBackend struct {
	items []types.EvidenceItem
	err   error
	calls atomic.Int32
}

func (b *stubBackend) Name() string { return "Wikipedia" }

func (b *stubBackend) Normalize(q string) string { return strings.ToLower(strings.TrimSpace(q)) }

func (b *stubBackend) Fetch(context.Context, string, int) ([]types.EvidenceItem, map[string]any, error) {
	b.calls.Add(1)
	return b.items, nil, b.err
}

type proseModel struct{}

func (proseModel) Name() string { return "prose" }

func (proseModel) Close() error { return nil }

func (proseModel) Complete(context.Context, string, string) (string, error) {
	return "Diabetes is a chronic condition that affects blood sugar.", nil
}

func newEndToEnd(backend *stubBackend, model bool) *Agent {
	s := summarize.New("Wikipedia", nil, types.ProviderLocal, nil)
	if model {
		s = summarize.New("Wikipedia", proseModel{}, types.ProviderOpenAI, nil)
	}
	return New(validate.Default(), evidence.NewClient(backend, 5), s)
}

func TestEndToEndSymptomsQuestion(t *testing.T) {
	backend := &stubBackend{items: sampleItems()}
	resp := newEndToEnd(backend, false).Ask(context.Background(), "What are the symptoms of diabetes?")

	assert.Equal(t, types.StatusSuccess, resp.Status)
	assert.NotEmpty(t, resp.AnswerText)
	assert.GreaterOrEqual(t, len(resp.Bullets), 3)
	assert.NotEmpty(t, resp.SourceLinks)
	assert.True(t, strings.Contains(resp.Disclaimer, "educational") || strings.Contains(resp.Disclaimer, "not medical advice"))
}

func TestEndToEndEmptyQuestion(t *testing.T) {
	backend := &stubBackend{}
	resp := newEndToEnd(backend, false).Ask(context.Background(), "")

	assert.Equal(t, types.StatusError, resp.Status)
	assert.Contains(t, strings.ToLower(resp.Error), "empty")
	assert.NotEmpty(t, resp.Disclaimer)
	assert.Zero(t, backend.calls.Load())
}

func TestEndToEndEmergencyQuestion(t *testing.T) {
	backend := &stubBackend{items: sampleItems()}
	resp := newEndToEnd(backend, false).Ask(context.Background(), "Should I take aspirin for chest pain, is this an emergency?")

	assert.Equal(t, types.StatusError, resp.Status)
	assert.Equal(t, validate.MsgInappropriate, resp.Error)
	assert.Contains(t, resp.Error, "professional medical attention")
	assert.Zero(t, backend.calls.Load())
}

func TestEndToEndSourceUnreachable(t *testing.T) {
	backend := &stubBackend{err: context.DeadlineExceeded}
	resp := newEndToEnd(backend, false).Ask(context.Background(), "What are the symptoms of asthma?")

	assert.Equal(t, types.StatusSuccess, resp.Status)
	assert.Equal(t, true, resp.Analysis["degraded"])
	assert.Contains(t, resp.AnswerText, "couldn't retrieve Wikipedia results")
	assert.Empty(t, resp.SourceLinks)
	assert.Equal(t, DisclaimerText, resp.Disclaimer)
}

func TestEndToEndModelReturnsProse(t *testing.T) {
	backend := &stubBackend{items: sampleItems()}
	resp := newEndToEnd(backend, true).Ask(context.Background(), "What is diabetes?")

	assert.Equal(t, types.StatusSuccess, resp.Status)
	assert.Equal(t, false, resp.Analysis["used_model"])
	assert.Equal(t, "local", resp.Analysis["provider"])
	assert.Equal(t, summarize.Heuristic("Wikipedia", sampleItems()).AnswerText, resp.AnswerText)
	assert.GreaterOrEqual(t, len(resp.Bullets), 3)
}

func TestAgentReusesContextRequestID(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := mock_pipeline.NewMockValidator(ctrl)
	v.EXPECT().Validate("").Return(types.ValidationResult{Error: validate.MsgEmpty})

	ctx := WithRequestID(context.Background(), "from-header")
	resp := New(v, nil, nil, WithRequestIDs(fixedID)).Ask(ctx, "")

	assert.Equal(t, "from-header", resp.Analysis["request_id"])

	id, ok := RequestID(WithRequestID(context.Background(), ""))
	assert.False(t, ok)
	assert.Empty(t, id)
}
