package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/redis/go-redis/v9"

	"memoryd/internal/models"
)

// candidateTTL bounds how stale a cached candidate set may be; retrieval
// is best-effort, so a short TTL is acceptable.
const candidateTTL = 30 * time.Second

// CachedMemoryStore wraps MemoryStore with an optional Redis read-through
// cache in front of Candidates, falling back to direct DB reads whenever
// Redis is unset or unreachable — it never blocks retrieval on the cache.
type CachedMemoryStore struct {
	*MemoryStore
	rdb *redis.Client
}

// NewCachedMemoryStore wraps inner with a cache backed by rdb. rdb may be
// nil, in which case every call passes straight through.
func NewCachedMemoryStore(inner *MemoryStore, rdb *redis.Client) *CachedMemoryStore {
	return &CachedMemoryStore{MemoryStore: inner, rdb: rdb}
}

// cachedMemory is the cache's own wire shape: models.ConversationMemory
// tags Embedding json:"-" so it never leaks over the public /memory API,
// but the candidate cache needs that vector to survive the round trip or
// retrieval silently degrades to lexical scoring for every cache hit.
type cachedMemory struct {
	Memory    models.ConversationMemory `json:"memory"`
	Embedding *pgvector.Vector          `json:"embedding,omitempty"`
}

func toCachedMemories(in []models.ConversationMemory) []cachedMemory {
	out := make([]cachedMemory, len(in))
	for i, m := range in {
		out[i] = cachedMemory{Memory: m, Embedding: m.Embedding}
	}
	return out
}

func fromCachedMemories(in []cachedMemory) []models.ConversationMemory {
	out := make([]models.ConversationMemory, len(in))
	for i, c := range in {
		m := c.Memory
		m.Embedding = c.Embedding
		out[i] = m
	}
	return out
}

func (c *CachedMemoryStore) Candidates(ctx context.Context, userID, sid uuid.UUID, n int) ([]models.ConversationMemory, error) {
	if c.rdb == nil {
		return c.MemoryStore.Candidates(ctx, userID, sid, n)
	}

	key := cacheKey(userID, sid, n)
	if cached, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var out []cachedMemory
		if json.Unmarshal(cached, &out) == nil {
			return fromCachedMemories(out), nil
		}
	}

	out, err := c.MemoryStore.Candidates(ctx, userID, sid, n)
	if err != nil {
		return nil, err
	}
	if encoded, merr := json.Marshal(toCachedMemories(out)); merr == nil {
		c.rdb.Set(ctx, key, encoded, candidateTTL)
	}
	return out, nil
}

func cacheKey(userID, sid uuid.UUID, n int) string {
	return "memoryd:candidates:" + userID.String() + ":" + sid.String() + ":" + itoa(n)
}
