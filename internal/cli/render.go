// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cli renders pipeline output for terminals.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medical-agent/pkg/types"
)

// Renderer writes responses in human, JSON or YAML form.
type Renderer struct {
	w       io.Writer
	heading *color.Color
	bold    *color.Color
	italic  *color.Color
	errText *color.Color
	faint   *color.Color
}

// NewRenderer returns a Renderer writing to w. Colors follow
// color.NoColor, which is set automatically for non-terminals.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{
		w:       w,
		heading: color.New(color.Bold, color.FgCyan),
		bold:    color.New(color.Bold),
		italic:  color.New(color.Italic),
		errText: color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
	}
}

// Response prints resp for a person reading a terminal.
func (r *Renderer) Response(resp types.Response) {
	if resp.Status == types.StatusError {
		r.errText.Fprintf(r.w, "Error: %s\n", resp.Error)
		fmt.Fprintln(r.w)
		r.italic.Fprintln(r.w, resp.Disclaimer)
		return
	}

	r.heading.Fprintln(r.w, "Answer")
	fmt.Fprintln(r.w, resp.AnswerText)

	if sections := sectionsOf(resp); len(sections) > 0 {
		fmt.Fprintln(r.w)
		for _, s := range sections {
			r.bold.Fprintf(r.w, "%s: ", s.Heading)
			fmt.Fprintln(r.w, s.Body)
		}
	}

	fmt.Fprintln(r.w)
	r.heading.Fprintln(r.w, "Key points")
	for _, b := range resp.Bullets {
		fmt.Fprintf(r.w, "  • %s\n", b)
	}

	if len(resp.SourceLinks) > 0 {
		fmt.Fprintln(r.w)
		r.heading.Fprintln(r.w, "Sources")
		for i, l := range resp.SourceLinks {
			meta := strings.Join(nonEmpty(l.SourceName, l.Published), "; ")
			if meta != "" {
				meta = " (" + meta + ")"
			}
			fmt.Fprintf(r.w, "  [%d] %s%s\n", i+1, l.Title, meta)
			r.faint.Fprintf(r.w, "      %s\n", l.URL)
		}
	}

	if len(resp.Recommendations) > 0 {
		fmt.Fprintln(r.w)
		r.heading.Fprintln(r.w, "Read next")
		for _, rec := range resp.Recommendations {
			fmt.Fprintf(r.w, "  - %s\n", rec)
		}
	}

	if degraded, _ := resp.Analysis["degraded"].(bool); degraded {
		fmt.Fprintln(r.w)
		r.errText.Fprintln(r.w, "Evidence source unavailable; answer is general guidance only.")
	}

	fmt.Fprintln(r.w)
	r.italic.Fprintln(r.w, resp.Disclaimer)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML.
func (r *Renderer) YAML(v any) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// sectionsOf reads the beginner sections back out of Analysis, which holds
// them as []types.Section in process.
func sectionsOf(resp types.Response) []types.Section {
	s, _ := resp.Analysis["sections"].([]types.Section)
	return s
}

func nonEmpty(vals ...string) []string {
	out := vals[:0]
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
