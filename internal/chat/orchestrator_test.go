package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoryd/internal/cleaner"
	"memoryd/internal/emotion"
	"memoryd/internal/llm"
	"memoryd/internal/models"
	"memoryd/internal/retrieval"
)

type fakeGateway struct {
	completeReply string
	completeErr   error
}

func (f *fakeGateway) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	if f.completeErr != nil {
		return llm.CompletionResult{}, f.completeErr
	}
	return llm.CompletionResult{Content: f.completeReply, Usage: llm.Usage{TotalTokens: 10}}, nil
}

func (f *fakeGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, assert.AnError
}

type fakeInstrStore struct {
	def *models.SystemInstruction
}

func (s *fakeInstrStore) Default(ctx context.Context) (*models.SystemInstruction, error) {
	return s.def, nil
}

func (s *fakeInstrStore) Get(ctx context.Context, id uuid.UUID) (*models.SystemInstruction, error) {
	if s.def != nil && s.def.ID == id {
		return s.def, nil
	}
	return nil, assert.AnError
}

type fakePromptStore struct{}

func (fakePromptStore) Get(ctx context.Context, userID, sid uuid.UUID) (*models.UserCustomPrompt, error) {
	return nil, assert.AnError
}

type fakeMemoryStore struct {
	bumped []uuid.UUID
}

func (f *fakeMemoryStore) Recent(ctx context.Context, userID, sid uuid.UUID, n int) ([]models.ConversationMemory, error) {
	return nil, nil
}

func (f *fakeMemoryStore) BumpAccess(ctx context.Context, ids []uuid.UUID) error {
	f.bumped = append(f.bumped, ids...)
	return nil
}

func (f *fakeMemoryStore) Candidates(ctx context.Context, userID, sid uuid.UUID, n int) ([]models.ConversationMemory, error) {
	return nil, nil
}

type fakeGC struct {
	ran bool
}

func (g *fakeGC) RunRollingCutoff(ctx context.Context, userID, sid uuid.UUID) error {
	g.ran = true
	return nil
}

type fakeEmotion struct {
	ch chan struct{}
}

func (f *fakeEmotion) ProcessConversation(ctx context.Context, userID, charID uuid.UUID, messages []llm.Message) (emotion.Snapshot, error) {
	close(f.ch)
	return emotion.Snapshot{}, nil
}

func newTestOrchestrator(gw llm.Gateway, memStore *fakeMemoryStore, gc GC, emo EmotionProcessor) *Orchestrator {
	def := &models.SystemInstruction{ID: uuid.New(), Name: "default", Content: "be helpful", IsDefault: true, IsActive: true}
	instr := &fakeInstrStore{def: def}
	retriever := retrieval.NewHybridRetriever(memStore, 50, 5)
	cln := cleaner.New(gw, &fakeCleanerWriter{}, zerolog.Nop(), 6)
	return NewOrchestrator(gw, retriever, instr, fakePromptStore{}, memStore, memStore, cln, gc, emo, 6, zerolog.Nop())
}

type fakeCleanerWriter struct{}

func (fakeCleanerWriter) Insert(ctx context.Context, m *models.ConversationMemory) error { return nil }

func TestChat_ReturnsAssistantReply(t *testing.T) {
	gw := &fakeGateway{completeReply: "hi there"}
	memStore := &fakeMemoryStore{}
	gc := &fakeGC{}
	orch := newTestOrchestrator(gw, memStore, gc, nil)

	resp, err := orch.Chat(context.Background(), uuid.New(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Message)
}

func TestChat_LLMFailurePropagatesAsError(t *testing.T) {
	gw := &fakeGateway{completeErr: assert.AnError}
	memStore := &fakeMemoryStore{}
	gc := &fakeGC{}
	orch := newTestOrchestrator(gw, memStore, gc, nil)

	_, err := orch.Chat(context.Background(), uuid.New(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})

	assert.Error(t, err)
}

// TestChat_EmotionProcessorRunsPerTurn verifies C3's per-turn VA update
// fires on a turn below the should_clean threshold, and that the response
// is still returned normally.
func TestChat_EmotionProcessorRunsPerTurn(t *testing.T) {
	gw := &fakeGateway{completeReply: "ok"}
	memStore := &fakeMemoryStore{}
	gc := &fakeGC{}
	emo := &fakeEmotion{ch: make(chan struct{})}
	orch := newTestOrchestrator(gw, memStore, gc, emo)

	resp, err := orch.Chat(context.Background(), uuid.New(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message)

	select {
	case <-emo.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("emotion processor was not invoked")
	}
}
