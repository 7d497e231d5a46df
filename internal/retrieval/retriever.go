package retrieval

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"memoryd/internal/models"
)

// CandidateStore is the persistence boundary the retriever depends on;
// satisfied by internal/store's (cached) MemoryStore.
type CandidateStore interface {
	Candidates(ctx context.Context, userID, sid uuid.UUID, n int) ([]models.ConversationMemory, error)
}

// Scored pairs a memory with its final rerank score, for callers that
// want to inspect the ranking (tests, diagnostics).
type Scored struct {
	Memory models.ConversationMemory
	Base   float64
	Final  float64
}

// AccessFeedback is the batched set of memory ids the orchestrator must
// bump_access for after the LLM call, per §9's message-passing note: the
// retriever emits ids, it never writes to the store itself.
type AccessFeedback struct {
	IDs []uuid.UUID
}

// HybridRetriever implements C5.
type HybridRetriever struct {
	store      CandidateStore
	candidateN int
	topK       int
}

func NewHybridRetriever(store CandidateStore, candidateN, topK int) *HybridRetriever {
	return &HybridRetriever{store: store, candidateN: candidateN, topK: topK}
}

// Retrieve returns the top-K most useful memories for query, given an
// optional query embedding (nil triggers the lexical fallback in every
// candidate's vector term). Deterministic given identical stored state
// and identical query/embedding; ties broken by importance_score desc
// then created_at desc.
func (r *HybridRetriever) Retrieve(ctx context.Context, userID, sid uuid.UUID, query string, queryEmbedding []float32) ([]Scored, AccessFeedback, error) {
	candidates, err := r.store.Candidates(ctx, userID, sid, r.candidateN)
	if err != nil {
		return nil, AccessFeedback{}, err
	}

	now := time.Now()
	scored := make([]Scored, 0, len(candidates))
	for _, mem := range candidates {
		vector := VectorSimilarity(queryEmbedding, query, mem)
		entity := EntityScore(query, mem.Entities)
		importance := ImportanceScore(mem)
		base := CombinedScore(vector, entity, importance)
		final := Rerank(base, mem, now)
		scored = append(scored, Scored{Memory: mem, Base: base, Final: final})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Final != scored[j].Final {
			return scored[i].Final > scored[j].Final
		}
		if scored[i].Memory.Importance != scored[j].Memory.Importance {
			return scored[i].Memory.Importance > scored[j].Memory.Importance
		}
		return scored[i].Memory.CreatedAt.After(scored[j].Memory.CreatedAt)
	})

	if len(scored) > r.topK {
		scored = scored[:r.topK]
	}

	ids := make([]uuid.UUID, len(scored))
	for i, s := range scored {
		ids[i] = s.Memory.ID
	}
	return scored, AccessFeedback{IDs: ids}, nil
}
