// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Section is a titled block of beginner-oriented text built from the
// primary evidence item.
type Section struct {
	Heading string `json:"heading" yaml:"heading"`
	Body    string `json:"body" yaml:"body"`
}

// FormattedAnswer is the output of the summarizer. Bullets always holds at
// least three entries.
type FormattedAnswer struct {
	AnswerText      string    `json:"answer_text" yaml:"answer_text"`
	Bullets         []string  `json:"bullets" yaml:"bullets"`
	Recommendations []string  `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Sections        []Section `json:"sections,omitempty" yaml:"sections,omitempty"`
	UsedModel       bool      `json:"used_model" yaml:"used_model"`

	// Provider names the backend that produced the answer ("local" for the heuristic path).
	Provider string `json:"provider" yaml:"provider"`
}

// SourceLink is a citation returned to the caller.
type SourceLink struct {
	Title      string `json:"title" yaml:"title"`
	URL        string `json:"url" yaml:"url"`
	SourceName string `json:"source_name,omitempty" yaml:"source_name,omitempty"`
	Published  string `json:"published,omitempty" yaml:"published,omitempty"`
}

// ErrorKind classifies an error response so transport layers can choose a
// status code.
type ErrorKind string

const (
	ErrorValidation ErrorKind = "validation"
	ErrorUnexpected ErrorKind = "unexpected"
)

// Response is the final pipeline output. Every Response, success or error,
// carries a non-empty Disclaimer and AnswerText.
type Response struct {
	AnswerText      string         `json:"answer_text" yaml:"answer_text"`
	Bullets         []string       `json:"bullets" yaml:"bullets"`
	SourceLinks     []SourceLink   `json:"source_links" yaml:"source_links"`
	Recommendations []string       `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Disclaimer      string         `json:"disclaimer" yaml:"disclaimer"`
	Status          Status         `json:"status" yaml:"status"`
	Error           string         `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind       ErrorKind      `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Analysis        map[string]any `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// State is a node of the pipeline state machine.
type State string

const (
	StateStart      State = "start"
	StateValidated  State = "validated"
	StateRetrieved  State = "retrieved"
	StateFormatted  State = "formatted"
	StateDisclaimed State = "disclaimed"
	StateDone       State = "done"
	StateError      State = "error"
)

// Trace holds the intermediate output of every stage for one question.
// Stages skipped by an early exit are left nil.
type Trace struct {
	Question   string           `json:"question" yaml:"question"`
	Validation ValidationResult `json:"validation" yaml:"validation"`
	Retrieval  *RetrievalResult `json:"retrieval,omitempty" yaml:"retrieval,omitempty"`
	Formatting *FormattedAnswer `json:"formatting,omitempty" yaml:"formatting,omitempty"`
	Final      Response         `json:"final" yaml:"final"`
	States     []State          `json:"states" yaml:"states"`
}
