package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoryd/internal/models"
)

func TestEntityScore_LocationMatch(t *testing.T) {
	// S3: stored location "人民广场", query mentions it -> entity >= 0.4.
	score := EntityScore("上周我去人民广场做了什么？", models.Entities{Locations: []string{"人民广场"}})
	assert.GreaterOrEqual(t, score, 0.4)
}

func TestEntityScore_Bounded(t *testing.T) {
	ent := models.Entities{
		Locations: []string{"人民广场"},
		People:    []string{"小王"},
		Events:    []string{"下午茶", "聚会", "会议"},
	}
	score := EntityScore("人民广场 小王 下午茶 聚会 会议", ent)
	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestVectorSimilarity_JaccardFallback(t *testing.T) {
	mem := models.ConversationMemory{Summary: "去人民广场喝下午茶"}
	sim := VectorSimilarity(nil, "人民广场 下午茶", mem)
	assert.Greater(t, sim, 0.0)
	assert.LessOrEqual(t, sim, 1.0)
}

func TestVectorSimilarity_EmptyIsZero(t *testing.T) {
	mem := models.ConversationMemory{Summary: ""}
	sim := VectorSimilarity(nil, "", mem)
	assert.Equal(t, 0.0, sim)
}

func TestRerank_DecayOrdersRecentAboveOld(t *testing.T) {
	// S4: two identical `event` rows except created_at, same vector
	// similarity; the 1h row must rank strictly above the 72h row.
	now := time.Now()
	base := models.ConversationMemory{
		ID:           uuid.New(),
		Category:     models.CategoryEvent,
		Importance:   5,
		EmotionalWgt: 0.5,
		AccessCount:  1,
	}
	recent := base
	recent.CreatedAt = now.Add(-1 * time.Hour)
	old := base
	old.CreatedAt = now.Add(-72 * time.Hour)

	combined := CombinedScore(0.8, 0, 0.5)
	recentScore := Rerank(combined, recent, now)
	oldScore := Rerank(combined, old, now)
	assert.Greater(t, recentScore, oldScore)
}

func TestRerank_NonDecayingCategoryIgnoresAge(t *testing.T) {
	now := time.Now()
	fact := models.ConversationMemory{Category: models.CategoryFact, AccessCount: 1, EmotionalWgt: 0.1}
	fact.CreatedAt = now.Add(-1000 * time.Hour)
	score := Rerank(1.0, fact, now)
	assert.InDelta(t, 1*1.05, score, 1e-9) // decay=1, boost=1(log10(1)=0), emo=1+0.5*0.1
}

func TestExtractKeywords_DropsStopWordsAndShortTokens(t *testing.T) {
	kws := ExtractKeywords("the cat and a dog 的 人民广场")
	assert.Contains(t, kws, "cat")
	assert.Contains(t, kws, "dog")
	assert.Contains(t, kws, "人民广场")
	assert.NotContains(t, kws, "the")
	assert.NotContains(t, kws, "a")
	assert.NotContains(t, kws, "的")
}

func TestRetrieve_Deterministic(t *testing.T) {
	mems := []models.ConversationMemory{
		{ID: uuid.New(), Summary: "一", Importance: 5, CreatedAt: time.Now(), Category: models.CategoryFact, EmotionalWgt: 0.1, AccessCount: 1},
		{ID: uuid.New(), Summary: "二", Importance: 8, CreatedAt: time.Now(), Category: models.CategoryFact, EmotionalWgt: 0.1, AccessCount: 1},
	}
	store := fakeStore{mems: mems}
	r := NewHybridRetriever(store, 50, 5)

	ctx := context.Background()
	first, _, err := r.Retrieve(ctx, uuid.New(), uuid.New(), "一 二", nil)
	require.NoError(t, err)
	second, _, err := r.Retrieve(ctx, uuid.New(), uuid.New(), "一 二", nil)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Memory.ID, second[i].Memory.ID)
	}
}

type fakeStore struct {
	mems []models.ConversationMemory
}

func (f fakeStore) Candidates(ctx context.Context, userID, sid uuid.UUID, n int) ([]models.ConversationMemory, error) {
	return f.mems, nil
}
