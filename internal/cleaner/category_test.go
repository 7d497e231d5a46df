package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"memoryd/internal/models"
)

func TestClassify_Desire(t *testing.T) {
	got := Classify("I want to go to Paris next year", models.Entities{})
	assert.Equal(t, models.CategoryDesire, got)
}

func TestClassify_Preference(t *testing.T) {
	got := Classify("I really like spicy food", models.Entities{})
	assert.Equal(t, models.CategoryPreference, got)
}

func TestClassify_EventWithEntities(t *testing.T) {
	got := Classify("明天下午三点要去人民广场和小王喝下午茶",
		models.Entities{Locations: []string{"人民广场"}, People: []string{"小王"}})
	assert.Equal(t, models.CategoryEvent, got)
}

func TestClassify_FactWithStateOfBeing(t *testing.T) {
	got := Classify("小王 is a software engineer", models.Entities{People: []string{"小王"}})
	assert.Equal(t, models.CategoryFact, got)
}

func TestClassify_DefaultFact(t *testing.T) {
	got := Classify("nothing notable happened", models.Entities{})
	assert.Equal(t, models.CategoryFact, got)
}
