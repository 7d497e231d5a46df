// Package retrieval implements C5: candidate fetch, vector/entity/
// importance scoring, and the decay/boost/emotion rerank. Grounded on
// intelligencedev-manifold's rerank.go (fetch candidates, score, sort
// pattern) and agentic_memory.go's SearchAgenticMemories, reimplemented
// as in-process scoring rather than an HTTP reranker call.
package retrieval

import (
	"regexp"
	"strings"
)

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// stopWords is a small Chinese/English stop-word set.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "and": true, "or": true, "of": true, "to": true, "in": true,
	"on": true, "at": true, "for": true, "with": true, "that": true, "this": true,
	"的": true, "了": true, "是": true, "我": true, "你": true, "在": true,
	"和": true, "也": true, "就": true, "都": true, "不": true, "有": true,
}

// ExtractKeywords lowercases, splits on non-word characters, drops the
// stop-word set, and keeps tokens of length >= 2.
func ExtractKeywords(text string) []string {
	lower := strings.ToLower(text)
	tokens := nonWordRe.Split(lower, -1)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len([]rune(t)) < 2 {
			continue
		}
		if stopWords[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// tokenSet returns a deduplicated set of keywords.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range ExtractKeywords(text) {
		set[t] = true
	}
	return set
}
