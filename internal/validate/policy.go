// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"
)

// Policy is the table of patterns and keywords the validator applies. The
// lists are a product decision, so they can be replaced from a YAML file.
type Policy struct {
	// InappropriatePatterns are regular expressions matched against the
	// lower-cased question. Any match rejects the question.
	InappropriatePatterns []string `yaml:"inappropriate_patterns"`

	// MedicalKeywords are substrings; at least one must occur in the
	// lower-cased question.
	MedicalKeywords []string `yaml:"medical_keywords"`

	// QuestionPatterns are anchored regular expressions that mark text as
	// phrased like a question.
	QuestionPatterns []string `yaml:"question_patterns"`
}

// DefaultPolicy returns the built-in policy table. Some entries are known to
// over-match (for example "what should i do?" is always rejected and "back"
// matches "background"); they are kept for compatibility.
func DefaultPolicy() Policy {
	return Policy{
		InappropriatePatterns: []string{
			`(diagnose|diagnosis)\b`,
			`\bshould i take\b`,
			`\bprescribe\b`,
			`\bmedical advice\b`,
			`\bourge\b`,
			`\bemergency\b`,
			`\blife-threatening\b`,
			`\boverdose\b`,
			`\bsuicide\b`,
			`\bsuicidal\b`,
			`\bself-harm\b`,
			`\bself harm\b`,
			`\bwhat should i do\?`,
		},
		MedicalKeywords: []string{
			"health", "medical", "medicine", "doctor", "physician", "symptom", "symptoms",
			"disease", "disorder", "condition", "treatment", "medication", "drug",
			"pain", "fever", "cough", "headache", "diabetes", "cancer", "heart",
			"brain", "lung", "liver", "kidney", "stomach", "back", "neck",
			"infection", "virus", "bacteria", "allergy", "anxiety", "depression",
			"mental health", "physical therapy", "surgery", "diagnosis", "prognosis",
			"blood pressure", "cholesterol", "asthma", "bronchitis", "pneumonia",
			"migraine", "arthritis", "osteoporosis", "stroke", "heart attack",
			"hypertension", "hypotension", "appendicitis", "hepatitis",
			"thoughts", "mental",
		},
		QuestionPatterns: []string{
			`^.*\?$`,
			`^(what|when|where|who|why|how|can|should|do|does|did|is|are|will|would|could)\s+.*`,
			`^(tell me about|explain|describe|what is|what are)\s+.*`,
		},
	}
}

// LoadPolicy reads a YAML policy file. Lists omitted from the file keep
// their default values.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("reading policy %s: %w", path, err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parsing policy %s: %w", path, err)
	}

	def := DefaultPolicy()
	if len(p.InappropriatePatterns) == 0 {
		p.InappropriatePatterns = def.InappropriatePatterns
	}
	if len(p.MedicalKeywords) == 0 {
		p.MedicalKeywords = def.MedicalKeywords
	}
	if len(p.QuestionPatterns) == 0 {
		p.QuestionPatterns = def.QuestionPatterns
	}
	return p, nil
}

// WritePolicy encodes p as YAML to w.
func WritePolicy(w io.Writer, p Policy) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encoding policy: %w", err)
	}
	return enc.Close()
}
