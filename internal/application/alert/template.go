package alert

import (
	"regexp"
	"strings"
)

// Token is one of the placeholders a message template may reference.
// The set is closed: custom templates can use any subset, and anything
// else between double braces is reported by UnknownTokens instead of
// silently surviving substitution.
type Token string

const (
	TokenAlerts      Token = "{{alerts}}"
	TokenSuggestions Token = "{{suggestions}}"
	TokenPanorama    Token = "{{panorama}}"
	TokenTrends      Token = "{{trends}}"
	TokenHighlights  Token = "{{highlights}}"
)

// KnownTokens lists every supported placeholder.
var KnownTokens = []Token{
	TokenAlerts,
	TokenSuggestions,
	TokenPanorama,
	TokenTrends,
	TokenHighlights,
}

var placeholderPattern = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// Render substitutes every occurrence of each token, not just the first.
// Placeholders without a value are left untouched.
func Render(tpl string, values map[Token]string) string {
	out := tpl
	for _, tok := range KnownTokens {
		if v, ok := values[tok]; ok {
			out = strings.ReplaceAll(out, string(tok), v)
		}
	}
	return out
}

// UnknownTokens reports placeholders in tpl that are not in the known set,
// in order of first appearance. A non-empty result flags a likely typo in a
// custom template; it never fails a send.
func UnknownTokens(tpl string) []string {
	var unknown []string
	seen := map[string]bool{}
	for _, m := range placeholderPattern.FindAllString(tpl, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		known := false
		for _, tok := range KnownTokens {
			if m == string(tok) {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, m)
		}
	}
	return unknown
}
