package retrieval

import (
	"math"
	"strings"
	"time"

	"memoryd/internal/models"
)

// VectorSimilarity returns cosine similarity between query and memory
// embeddings when both are present, falling back to Jaccard-style
// token-overlap similarity over the query and the memory's summary.
func VectorSimilarity(queryEmbedding []float32, querySummary string, mem models.ConversationMemory) float64 {
	if queryEmbedding != nil && mem.Embedding != nil {
		memVec := mem.Embedding.Slice()
		if len(memVec) == len(queryEmbedding) {
			return cosine(queryEmbedding, memVec)
		}
	}
	return jaccardOverlap(querySummary, mem.Summary)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// jaccardOverlap is |tokens(query) ∩ tokens(summary)| / min(|q|, |s|),
// zero when either side is empty.
func jaccardOverlap(query, summary string) float64 {
	q := tokenSet(query)
	s := tokenSet(summary)
	if len(q) == 0 || len(s) == 0 {
		return 0
	}
	var overlap int
	for t := range q {
		if s[t] {
			overlap++
		}
	}
	minLen := len(q)
	if len(s) < minLen {
		minLen = len(s)
	}
	return float64(overlap) / float64(minLen)
}

// relativeWindows maps a detected relative-time phrase to its window and
// a uniform +30d tolerance.
var relativeWindows = []struct {
	phrase string
	days   float64
}{
	{"今天", 0}, {"today", 0},
	{"昨天", 1}, {"yesterday", 1},
	{"这周", 7}, {"本周", 7}, {"this week", 7},
	{"上周", 14}, {"last week", 14},
	{"这个月", 30}, {"本月", 30}, {"this month", 30},
	{"上个月", 60}, {"last month", 60},
	{"今年", 365}, {"this year", 365},
	{"去年", 730}, {"last year", 730},
	{"前年", 1095}, {"year before", 1095},
}

const dateTolerance = 30.0 // days

func detectRelativeWindowDays(query string) (float64, bool) {
	lower := strings.ToLower(query)
	for _, w := range relativeWindows {
		if strings.Contains(lower, strings.ToLower(w.phrase)) {
			return w.days, true
		}
	}
	return 0, false
}

// EntityScore rule-matches the query against stored entities, summed and
// clamped to [0, 1].
func EntityScore(query string, ent models.Entities) float64 {
	var score float64
	lowerQuery := strings.ToLower(query)
	qTokens := tokenSet(query)

	for _, loc := range ent.Locations {
		lowerLoc := strings.ToLower(loc)
		if lowerLoc != "" && strings.Contains(lowerQuery, lowerLoc) {
			score += 0.4
		} else if anyTokenContains(qTokens, lowerLoc) {
			score += 0.2
		}
	}

	if windowDays, ok := detectRelativeWindowDays(query); ok && len(ent.Dates) > 0 {
		now := time.Now()
		for _, d := range ent.Dates {
			parsed, err := time.Parse("2006-01-02", d)
			if err != nil {
				continue
			}
			diffDays := math.Abs(now.Sub(parsed).Hours() / 24)
			if math.Abs(diffDays-windowDays) <= dateTolerance {
				score += 0.3
				break
			}
		}
	}

	for _, p := range ent.People {
		lowerP := strings.ToLower(p)
		if lowerP != "" && strings.Contains(lowerQuery, lowerP) {
			score += 0.2
		} else if anyTokenContains(qTokens, lowerP) {
			score += 0.1
		}
	}

	for _, e := range ent.Events {
		lowerE := strings.ToLower(e)
		if lowerE != "" && strings.Contains(lowerQuery, lowerE) {
			score += 0.1
		} else if anyTokenContains(qTokens, lowerE) {
			score += 0.05
		}
	}

	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

func anyTokenContains(tokens map[string]bool, needle string) bool {
	if needle == "" {
		return false
	}
	for t := range tokens {
		if strings.Contains(needle, t) || strings.Contains(t, needle) {
			return true
		}
	}
	return false
}

// ImportanceScore normalizes importance_score to [0,1].
func ImportanceScore(mem models.ConversationMemory) float64 {
	return float64(mem.Importance) / 10.0
}

// CombinedScore is 0.5*vector + 0.3*entity + 0.2*importance.
func CombinedScore(vector, entity, importance float64) float64 {
	return 0.5*vector + 0.3*entity + 0.2*importance
}

const decayWindowHours = 24.0

// Rerank applies the decay/boost/emotion formula on top of a base
// combined score.
func Rerank(base float64, mem models.ConversationMemory, now time.Time) float64 {
	decay := 1.0
	if mem.Category.Decaying() {
		deltaHours := now.Sub(mem.CreatedAt).Hours()
		decay = 1.0 / (1.0 + deltaHours/decayWindowHours)
	}
	accessCount := mem.AccessCount
	if accessCount < 1 {
		accessCount = 1
	}
	boost := 1 + math.Log10(float64(accessCount))
	emo := 1 + 0.5*mem.EmotionalWgt
	return base * decay * boost * emo
}
