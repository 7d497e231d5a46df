package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"memoryd/internal/apierr"
)

var fenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ExtractJSON implements C1's JSON-from-markdown extraction rule: strip
// surrounding whitespace; strip a leading/trailing triple-backtick fence
// (with or without the json tag); if strict parse fails, scan the raw
// reply for balanced {...} substrings from longest to shortest and return
// the first that parses. On total failure it returns a ParseError.
func ExtractJSON(raw string, out any) error {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if err := json.Unmarshal([]byte(s), out); err == nil {
		return nil
	}
	for _, candidate := range balancedBraceSubstrings(raw) {
		if err := json.Unmarshal([]byte(candidate), out); err == nil {
			return nil
		}
	}
	return apierr.ParseErrorf(nil, "could not extract a JSON object from llm reply")
}

// balancedBraceSubstrings returns every substring of s that starts with
// '{' and ends with its matching '}', ordered longest to shortest.
func balancedBraceSubstrings(s string) []string {
	var spans [][2]int
	var stack []int
	for i, r := range s {
		switch r {
		case '{':
			stack = append(stack, i)
		case '}':
			if len(stack) == 0 {
				continue
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			spans = append(spans, [2]int{start, i + 1})
		}
	}
	out := make([]string, 0, len(spans))
	for _, sp := range spans {
		out = append(out, s[sp[0]:sp[1]])
	}
	// longest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if len(out[j]) > len(out[i]) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}
