package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"memoryd/internal/apierr"
	"memoryd/internal/database"
	"memoryd/internal/models"
)

// EmotionStateStore implements emotion.StateStore.
type EmotionStateStore struct {
	db *database.Pool
}

func NewEmotionStateStore(db *database.Pool) *EmotionStateStore {
	return &EmotionStateStore{db: db}
}

func (s *EmotionStateStore) Get(ctx context.Context, userID, charID uuid.UUID) (*models.CharacterEmotionState, error) {
	const q = `SELECT user_id, char_id, valence, arousal, updated_at
		FROM character_emotion_states WHERE user_id = $1 AND char_id = $2`
	row := s.db.QueryRow(ctx, q, userID, charID)
	var st models.CharacterEmotionState
	err := row.Scan(&st.UserID, &st.CharID, &st.Valence, &st.Arousal, &st.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apierr.StorageErrorf(err, "get emotion state")
	}
	return &st, nil
}

// Upsert writes the (user, char) state, relying on the table's primary
// key to enforce the one-state-per-pair invariant.
func (s *EmotionStateStore) Upsert(ctx context.Context, state models.CharacterEmotionState) error {
	const q = `INSERT INTO character_emotion_states (user_id, char_id, valence, arousal, updated_at)
		VALUES ($1,$2,$3,$4,now())
		ON CONFLICT (user_id, char_id) DO UPDATE
		SET valence = EXCLUDED.valence, arousal = EXCLUDED.arousal, updated_at = now()`
	_, err := s.db.Exec(ctx, q, state.UserID, state.CharID, state.Valence, state.Arousal)
	if err != nil {
		return apierr.StorageErrorf(err, "upsert emotion state")
	}
	return nil
}
