// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/medical-agent/pkg/types"
)

// systemPrompt bounds the model to educational content.
const systemPrompt = "You are a careful medical research assistant. Provide educational information only. " +
	"Do not provide diagnosis or personalized treatment plans."

// userPromptTmpl is sent with every model call. It embeds the question and
// numbered citations and asks for a JSON object.
var userPromptTmpl = template.Must(template.New("answer").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`You are a medical research assistant. Provide an educational summary to the user's question, grounded in the provided {{.Source}} citations. Avoid giving personal medical advice.

Provide at least 3 concise bullet insights that reflect themes from the citations (mechanism, evidence, safety, etc.).

Provide a short list of 2-4 recommendations for what the user should read/verify next (e.g., guidelines, RCTs, reviews).

Question: {{.Question}}

{{.Source}} citations:
{{if .Items}}{{range $i, $it := .Items}}{{if $i}}

{{end}}[{{inc $i}}] {{$it.Title}} ({{$it.SourceName}}; {{or $it.Published "n.d."}})
URL: {{$it.URL}}
Snippet: {{$it.Snippet}}{{end}}{{else}}(no {{.Source}} sources available){{end}}

Return a JSON object with keys: answer_text (string), bullets (list of strings), recommendations (list of strings).
`))

// renderPrompt executes the user prompt template.
func renderPrompt(source, question string, items []types.EvidenceItem) (string, error) {
	var buf bytes.Buffer
	err := userPromptTmpl.Execute(&buf, struct {
		Source   string
		Question string
		Items    []types.EvidenceItem
	}{source, question, items})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
