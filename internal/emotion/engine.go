package emotion

import (
	"context"
	"time"

	"github.com/google/uuid"

	"memoryd/internal/llm"
	"memoryd/internal/models"
)

// lastN is the number of most recent messages fed to the judge.
const lastN = 6

// StateStore is the persistence boundary the engine depends on; it is
// satisfied by internal/store.EmotionStateStore.
type StateStore interface {
	Get(ctx context.Context, userID, charID uuid.UUID) (*models.CharacterEmotionState, error)
	Upsert(ctx context.Context, state models.CharacterEmotionState) error
}

// Snapshot is the result of processing one conversation's emotional
// impact: the state before and after, the applied delta, and their
// discrete labels.
type Snapshot struct {
	Previous         models.CharacterEmotionState
	PreviousLabel    Label
	Delta            Delta
	Current          models.CharacterEmotionState
	CurrentLabel     Label
}

// Engine ties the pure VA math to the LLM judge and the state store.
type Engine struct {
	store StateStore
	judge *Judge
}

func NewEngine(store StateStore, judge *Judge) *Engine {
	return &Engine{store: store, judge: judge}
}

// ProcessConversation loads or creates the (user, char) state, asks the
// judge for a delta over the last 6 messages, applies the VA update,
// persists it, and returns a snapshot. A judge failure never prevents
// this from completing — Analyze always returns a usable delta.
func (e *Engine) ProcessConversation(ctx context.Context, userID, charID uuid.UUID, messages []llm.Message) (Snapshot, error) {
	state, err := e.store.Get(ctx, userID, charID)
	if err != nil {
		return Snapshot{}, err
	}
	if state == nil {
		state = &models.CharacterEmotionState{UserID: userID, CharID: charID, Valence: 0, Arousal: 0}
	}
	previous := *state

	msgs := messages
	if len(msgs) > lastN {
		msgs = msgs[len(msgs)-lastN:]
	}
	delta := e.judge.Analyze(ctx, msgs, state.Valence, state.Arousal)

	newV, newA := Update(state.Valence, state.Arousal, delta.DeltaValence, delta.DeltaArousal)
	state.Valence, state.Arousal = newV, newA
	state.UpdatedAt = time.Now()

	if err := e.store.Upsert(ctx, *state); err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Previous:      previous,
		PreviousLabel: ClassifyLabel(previous.Valence, previous.Arousal),
		Delta:         delta,
		Current:       *state,
		CurrentLabel:  ClassifyLabel(state.Valence, state.Arousal),
	}, nil
}
