// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
)

// wikipediaReplacements is applied in order; later rules see the output of
// earlier ones.
var wikipediaReplacements = []struct{ from, to string }{
	{"dr ", "doctor "},
	{"md ", ""},
	{"symptom ", "symptoms "},
	{"condition ", ""},
	{"disease ", ""},
	{"syndrome ", ""},
	{"disorder ", ""},
}

// normalizeWikipedia lowercases, collapses whitespace, strips punctuation
// other than hyphens and underscores, then rewrites common medical terms.
func normalizeWikipedia(q string) string {
	s := strings.ToLower(strings.TrimSpace(q))
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = punctuationRe.ReplaceAllString(s, "")
	for _, r := range wikipediaReplacements {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	return strings.TrimSpace(s)
}

// normalizePubMed only trims; E-utilities does its own term parsing.
func normalizePubMed(q string) string {
	return strings.TrimSpace(q)
}

// truncateRunes shortens s to at most n runes, replacing the tail with "...".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n-3]), " \t\n") + "..."
}
