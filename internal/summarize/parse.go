// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

var errNoJSON = errors.New("reply contains no JSON object")

// modelReply is the structure the model is asked to return. Bullets and
// recommendations are decoded loosely since models sometimes emit
// numbers or nested values in lists.
type modelReply struct {
	AnswerText      string
	Bullets         []string
	Recommendations []string
}

// parseReply decodes text as JSON, or failing that the outermost {...}
// block inside it. Valid JSON that is not an object is rejected.
func parseReply(text string) (modelReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return modelReply{}, errNoJSON
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return modelReply{}, fmt.Errorf("decoding reply: %w", err)
		}
		block := jsonObjectRe.FindString(text)
		if block == "" {
			return modelReply{}, errNoJSON
		}
		if err := json.Unmarshal([]byte(block), &raw); err != nil {
			return modelReply{}, fmt.Errorf("decoding reply: %w", err)
		}
	}
	if raw == nil {
		return modelReply{}, errNoJSON
	}

	reply := modelReply{
		Bullets:         stringList(raw["bullets"]),
		Recommendations: stringList(raw["recommendations"]),
	}
	reply.AnswerText = scalarText(raw["answer_text"])
	return reply, nil
}

// scalarText renders a JSON scalar as text. Missing values, objects and
// arrays give "".
func scalarText(v any) string {
	switch t := v.(type) {
	case nil, map[string]any, []any:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return fmt.Sprint(t)
	}
}

// stringList keeps the non-blank string entries of a JSON array.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
