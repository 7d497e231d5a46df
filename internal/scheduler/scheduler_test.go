package scheduler

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoryd/internal/models"
	"memoryd/internal/store"
)

type recordingStore struct {
	calls []store.CutoffPredicate
}

func (r *recordingStore) CutoffDelete(ctx context.Context, pred store.CutoffPredicate) (int64, error) {
	r.calls = append(r.calls, pred)
	return 1, nil
}

func TestRunDaily_NeverTouchesNonDecayingCategories(t *testing.T) {
	rs := &recordingStore{}
	gc := NewGC(rs, zerolog.Nop())
	gc.RunDaily(context.Background())

	require.Len(t, rs.calls, 2)
	for _, call := range rs.calls {
		assert.ElementsMatch(t, []models.MemoryCategory{models.CategoryEvent, models.CategoryDesire}, call.Categories)
	}
}

func TestClearOld_ClampsMonths(t *testing.T) {
	rs := &recordingStore{}
	gc := NewGC(rs, zerolog.Nop())
	userID := uuid.New()

	_, err := gc.ClearOld(context.Background(), userID, nil, 99)
	require.NoError(t, err)
	assert.Equal(t, 12.0*30, rs.calls[0].MinDaysSinceAccess)

	_, err = gc.ClearOld(context.Background(), userID, nil, -5)
	require.NoError(t, err)
	assert.Equal(t, 1.0*30, rs.calls[1].MinDaysSinceAccess)
}
