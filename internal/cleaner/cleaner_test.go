package cleaner

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoryd/internal/llm"
	"memoryd/internal/models"
)

type fakeGateway struct {
	completeReply string
	completeErr   error
	embedErr      error
}

func (f *fakeGateway) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	if f.completeErr != nil {
		return llm.CompletionResult{}, f.completeErr
	}
	return llm.CompletionResult{Content: f.completeReply}, nil
}

func (f *fakeGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeWriter struct {
	inserted []*models.ConversationMemory
}

func (w *fakeWriter) Insert(ctx context.Context, m *models.ConversationMemory) error {
	w.inserted = append(w.inserted, m)
	return nil
}

func TestClean_NoPersistOnShouldRememberFalse(t *testing.T) {
	gw := &fakeGateway{completeReply: `{"summary": "greeting", "key_points": [], "importance_score": 1, "should_remember": false, "memory_type": "active", "reason": "trivial", "entities": {}}`}
	writer := &fakeWriter{}
	c := New(gw, writer, zerolog.Nop(), 6)

	c.Clean(context.Background(), uuid.New(), uuid.New(), []llm.Message{
		{Role: llm.RoleUser, Content: "你好"},
		{Role: llm.RoleAssistant, Content: "你好！"},
	})

	assert.Empty(t, writer.inserted)
}

func TestClean_PersistsOnShouldRememberTrue(t *testing.T) {
	gw := &fakeGateway{completeReply: `{"summary": "going to the park tomorrow with Wang",
		"key_points": ["meeting at the park"], "importance_score": 8, "should_remember": true,
		"memory_type": "active", "reason": "", "entities": {"locations": ["People's Square"], "people": ["Wang"]}}`}
	writer := &fakeWriter{}
	c := New(gw, writer, zerolog.Nop(), 6)

	c.Clean(context.Background(), uuid.New(), uuid.New(), []llm.Message{
		{Role: llm.RoleUser, Content: "I'm meeting Wang at the park tomorrow at 3pm for tea"},
	})

	require.Len(t, writer.inserted, 1)
	assert.Equal(t, models.CategoryEvent, writer.inserted[0].Category)
	assert.Equal(t, 8, writer.inserted[0].Importance)
	assert.Nil(t, writer.inserted[0].OriginalContent)
}

func TestScoreEmotion_FallsBackOnRepeatedParseFailure(t *testing.T) {
	gw := &fakeGateway{completeReply: "not json at all"}
	c := New(gw, &fakeWriter{}, zerolog.Nop(), 6)
	weight := c.scoreEmotion(context.Background(), "some transcript")
	assert.Equal(t, defaultEmotionalWeight, weight)
}
