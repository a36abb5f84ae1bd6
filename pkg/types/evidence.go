// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the medical-agent pipeline:
// validation results, evidence items, formatted answers, the final response
// and the configuration consumed by each stage.
package types

// Status tags the outcome of a retrieval or of the whole pipeline.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ValidationResult is the output of the question validator. An invalid
// result always carries a non-empty Error.
type ValidationResult struct {
	IsValid           bool   `json:"is_valid" yaml:"is_valid"`
	SanitizedQuestion string `json:"sanitized_question" yaml:"sanitized_question"`
	Error             string `json:"error,omitempty" yaml:"error,omitempty"`

	// IsQuestion reports whether the text is phrased as a question. It is
	// informational and never affects IsValid.
	IsQuestion bool `json:"is_question" yaml:"is_question"`
}

// EvidenceItem is one retrieved document (a Wikipedia page or a PubMed
// article) used as grounding for an answer.
type EvidenceItem struct {
	// ID is the page key or PMID.
	ID string `json:"id" yaml:"id"`

	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet" yaml:"snippet"`

	// SourceName is the journal name for PubMed, the page description for Wikipedia.
	SourceName string `json:"source_name,omitempty" yaml:"source_name,omitempty"`

	// Published is the publication date as reported by the source.
	Published string `json:"published,omitempty" yaml:"published,omitempty"`

	URL string `json:"url" yaml:"url"`
}

// RetrievalResult is the output of the evidence source client. Failures
// are values: Status is StatusError and Error holds the reason.
type RetrievalResult struct {
	Status Status         `json:"status" yaml:"status"`
	Query  string         `json:"query" yaml:"query"`
	Items  []EvidenceItem `json:"items" yaml:"items"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`

	// Meta carries diagnostics such as used_cache and result_count.
	Meta map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// OK reports whether the retrieval succeeded.
func (r RetrievalResult) OK() bool {
	return r.Status == StatusSuccess
}
