// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/medical-agent/pkg/types"
)

const maxThemes = 6

var (
	tokenRe    = regexp.MustCompile(`[A-Za-z][A-Za-z-]{2,}`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)
)

var stopWords = map[string]bool{
	"with": true, "from": true, "into": true, "over": true, "under": true,
	"among": true, "between": true, "trial": true, "trials": true,
	"randomized": true, "randomised": true, "double": true, "blind": true,
	"study": true, "studies": true, "effect": true, "effects": true,
	"analysis": true, "meta": true, "systematic": true, "review": true,
	"patients": true, "patient": true, "treatment": true, "therapies": true,
	"therapy": true, "clinical": true, "results": true, "outcomes": true,
}

// wording holds the source-dependent phrases of the heuristic answer.
type wording struct {
	found           string
	topics          string
	itemBullet      string
	recommendations []string
}

var (
	researchWording = wording{
		found:      "I found %d recent %s results that may be relevant. Below is a high-level summary of themes from the titles/abstract snippets.",
		topics:     "Common topics in the retrieved citations: ",
		itemBullet: "Recent papers may cover multiple approaches (medications, devices, lifestyle, and care pathways).",
		recommendations: []string{
			"Search PubMed for recent systematic reviews and randomized trials.",
			"Check the latest clinical guidelines from relevant professional societies.",
			"If a specific therapy is mentioned, review its safety profile, contraindications, and major trials.",
		},
	}
	referenceWording = wording{
		found:      "I found %d %s articles that may be relevant. Below is a high-level summary of themes from the article titles and summaries.",
		topics:     "Common topics in the retrieved articles: ",
		itemBullet: "Reference articles give background on a condition; they may not reflect the newest research or guidelines.",
		recommendations: []string{
			"For research evidence, look for systematic reviews and randomized trials on PubMed.",
			"Check current clinical guidelines from relevant professional societies.",
			"If a specific therapy is mentioned, review its safety profile and contraindications with a clinician.",
		},
	}
)

// wordingFor picks research phrasing for literature databases and
// reference phrasing for encyclopedic sources.
func wordingFor(source string) wording {
	if strings.EqualFold(source, "PubMed") {
		return researchWording
	}
	return referenceWording
}

// Heuristic writes an answer from evidence titles alone. It never fails.
func Heuristic(source string, items []types.EvidenceItem) types.FormattedAnswer {
	w := wordingFor(source)

	var parts []string
	if len(items) > 0 {
		parts = append(parts, fmt.Sprintf(w.found, len(items), source))
	} else {
		parts = append(parts, fmt.Sprintf(
			"I couldn't retrieve %s results right now. Below is a general, educational overview and suggestions for how to verify the latest evidence.",
			source))
	}
	if themes := commonThemes(items); len(themes) > 0 {
		parts = append(parts, w.topics+strings.Join(themes, ", ")+".")
	}

	var bullets []string
	if len(items) > 0 {
		bullets = []string{
			w.itemBullet,
			"Look for high-quality evidence first (guidelines, systematic reviews, large RCTs) before drawing conclusions.",
			"Compare benefits vs. harms and consider patient-specific factors (age, comorbidities, pregnancy, kidney function).",
		}
	} else {
		bullets = []string{
			fmt.Sprintf("%s was unreachable; if you need the very latest evidence, try again later or search %s directly.", source, source),
			"Consider starting with major guideline sources (ADA, AHA, WHO, NICE) for current best practices.",
			"If the question is urgent or personal, seek professional medical advice.",
		}
	}

	return types.FormattedAnswer{
		AnswerText:      strings.Join(parts, "\n\n"),
		Bullets:         EnsureMinBullets(bullets),
		Recommendations: append([]string(nil), w.recommendations...),
		Sections:        Sections(items),
		UsedModel:       false,
		Provider:        string(types.ProviderLocal),
	}
}

// commonThemes returns the most frequent non-stop-word title tokens, ties
// broken by first appearance.
func commonThemes(items []types.EvidenceItem) []string {
	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.Title)
	}

	freq := map[string]int{}
	var order []string
	for _, tok := range tokenRe.FindAllString(strings.Join(titles, " "), -1) {
		tok = strings.ToLower(tok)
		if stopWords[tok] || len(tok) < 4 {
			continue
		}
		if freq[tok] == 0 {
			order = append(order, tok)
		}
		freq[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	if len(order) > maxThemes {
		order = order[:maxThemes]
	}
	return order
}

// Section headings, in display order.
const (
	HeadingWhatItIs   = "What it is"
	HeadingSymptoms   = "Common symptoms"
	HeadingSeeADoctor = "When to see a doctor"
)

var (
	seeDoctorKeywords = []string{
		"consult", "see a doctor", "medical attention", "seek help",
		"emergency", "immediately", "severe", "worsening",
		"should consult", "doctor if", "seek medical", "get medical",
	}
	whatItIsKeywords = []string{"is a", "are", "refers to", "characterized by", "involves"}
	symptomKeywords  = []string{"symptom", "sign", "manifestation", "include", "may cause", "can cause", "causes"}
)

// Sections sorts the sentences of the first item's snippet into beginner
// headings. A sentence goes to the first matching heading, checking
// see-a-doctor cues before definitions before symptoms. When nothing
// matches, the whole snippet becomes "What it is".
func Sections(items []types.EvidenceItem) []types.Section {
	if len(items) == 0 {
		return nil
	}
	text := strings.TrimSpace(items[0].Snippet)
	if text == "" {
		return nil
	}

	var what, symptoms, doctor []string
	for _, s := range sentenceRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		switch {
		case containsAny(lower, seeDoctorKeywords):
			doctor = append(doctor, s+".")
		case containsAny(lower, whatItIsKeywords):
			what = append(what, s+".")
		case containsAny(lower, symptomKeywords):
			symptoms = append(symptoms, s+".")
		}
	}

	if len(what)+len(symptoms)+len(doctor) == 0 {
		return []types.Section{{Heading: HeadingWhatItIs, Body: text}}
	}

	var out []types.Section
	for _, sec := range []struct {
		heading string
		lines   []string
	}{
		{HeadingWhatItIs, what},
		{HeadingSymptoms, symptoms},
		{HeadingSeeADoctor, doctor},
	} {
		if len(sec.lines) > 0 {
			out = append(out, types.Section{Heading: sec.heading, Body: strings.Join(sec.lines, " ")})
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
