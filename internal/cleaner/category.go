package cleaner

import (
	"strings"

	"memoryd/internal/models"
)

// intentVerbs signal a `desire` category: the speaker wants/plans/intends
// something.
var intentVerbs = []string{
	"want to", "wants to", "plan to", "plans to", "intend to", "will ",
	"想要", "打算", "计划", "希望", "准备",
}

// affinityVerbs signal a `preference` category: likes/dislikes/prefers.
var affinityVerbs = []string{
	"like", "love", "prefer", "hate", "dislike", "enjoy", "favorite",
	"喜欢", "讨厌", "偏好", "最爱",
}

// stateOfBeingVerbs signal a `fact` category when entities are present:
// is/am/are/was/were, equivalently stative "是/有" in Chinese.
var stateOfBeingVerbs = []string{
	"is ", "am ", "are ", "was ", "were ", "is a", "is an",
	"是", "有",
}

// Classify assigns a decay category deterministically from summary text
// and extracted entities: desire > preference > (fact if state-of-being
// verbs present else event, when entities exist) > fact (default).
func Classify(summary string, entities models.Entities) models.MemoryCategory {
	lower := strings.ToLower(summary)

	if containsAny(lower, intentVerbs) {
		return models.CategoryDesire
	}
	if containsAny(lower, affinityVerbs) {
		return models.CategoryPreference
	}

	hasEntities := len(entities.Dates) > 0 || len(entities.Locations) > 0 ||
		len(entities.People) > 0 || len(entities.Events) > 0
	if hasEntities {
		if containsAny(lower, stateOfBeingVerbs) {
			return models.CategoryFact
		}
		return models.CategoryEvent
	}

	return models.CategoryFact
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
