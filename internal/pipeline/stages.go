// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

//go:generate mockgen -source=stages.go -destination=../mocks/pipeline/mock_stages.go -package=mock_pipeline

import (
	"context"

	"github.com/pdiddy/medical-agent/pkg/types"
)

// Validator classifies raw question text.
type Validator interface {
	Validate(raw string) types.ValidationResult
}

// Retriever fetches evidence for a sanitized question. Failures are
// reported in the result, never as a Go error.
type Retriever interface {
	Retrieve(ctx context.Context, query string) types.RetrievalResult
}

// Summarizer writes an answer from evidence. It always returns at least
// three bullets.
type Summarizer interface {
	Summarize(ctx context.Context, question string, items []types.EvidenceItem) types.FormattedAnswer
}

// Disclaimer attaches the safety notice to a response.
type Disclaimer interface {
	Attach(resp types.Response) types.Response
}
