// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate classifies raw question text as a well-formed,
// in-domain, appropriate health question.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/medical-agent/pkg/types"
)

// User-facing rejection messages.
const (
	MsgEmpty         = "Question cannot be empty"
	MsgInappropriate = "This type of medical question requires professional medical attention. Please consult a healthcare provider."
	MsgNotMedical    = "This does not appear to be a health-related question. Please ask about medical topics, symptoms, or health conditions."
)

// Validator applies a compiled Policy. It holds no mutable state and is
// safe for concurrent use.
type Validator struct {
	inappropriate []*regexp.Regexp
	keywords      []string
	question      []*regexp.Regexp
}

// New compiles the policy's regular expressions.
func New(p Policy) (*Validator, error) {
	inappropriate, err := compileAll(p.InappropriatePatterns)
	if err != nil {
		return nil, fmt.Errorf("inappropriate patterns: %w", err)
	}
	question, err := compileAll(p.QuestionPatterns)
	if err != nil {
		return nil, fmt.Errorf("question patterns: %w", err)
	}

	keywords := make([]string, 0, len(p.MedicalKeywords))
	for _, k := range p.MedicalKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}

	return &Validator{
		inappropriate: inappropriate,
		keywords:      keywords,
		question:      question,
	}, nil
}

// Default returns a validator built from DefaultPolicy.
func Default() *Validator {
	v, err := New(DefaultPolicy())
	if err != nil {
		panic(err)
	}
	return v
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Validate classifies raw. The inappropriate-intent check runs before the
// keyword check, so a question that is both medical and inappropriate is
// rejected as inappropriate.
func (v *Validator) Validate(raw string) types.ValidationResult {
	sanitized := strings.TrimSpace(raw)
	if sanitized == "" {
		return types.ValidationResult{Error: MsgEmpty}
	}

	lower := strings.ToLower(sanitized)

	for _, re := range v.inappropriate {
		if re.MatchString(lower) {
			return types.ValidationResult{SanitizedQuestion: sanitized, Error: MsgInappropriate}
		}
	}

	if !v.hasKeyword(lower) {
		return types.ValidationResult{SanitizedQuestion: sanitized, Error: MsgNotMedical}
	}

	return types.ValidationResult{
		IsValid:           true,
		SanitizedQuestion: sanitized,
		IsQuestion:        v.isQuestion(lower),
	}
}

func (v *Validator) hasKeyword(lower string) bool {
	for _, k := range v.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func (v *Validator) isQuestion(lower string) bool {
	for _, re := range v.question {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
