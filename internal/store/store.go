// Package store implements C2: CRUD + query over memory records, plus the
// supporting system-instruction, custom-prompt and emotion-state tables.
// Grounded on intelligencedev-manifold's AgenticEngine (agentic_memory.go):
// single-round-trip inserts, pgvector scan/bind, pool-acquire/release
// style — generalized from a single note table to the full relational
// model this system needs.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"memoryd/internal/apierr"
	"memoryd/internal/database"
	"memoryd/internal/models"
)

// MemoryStore is C2's interface over conversation_memories.
type MemoryStore struct {
	db *database.Pool
}

func NewMemoryStore(db *database.Pool) *MemoryStore {
	return &MemoryStore{db: db}
}

// Insert writes a single new memory row; it never updates an existing row.
func (s *MemoryStore) Insert(ctx context.Context, m *models.ConversationMemory) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.LastAccessed.IsZero() {
		m.LastAccessed = m.CreatedAt
	}
	if m.AccessCount == 0 {
		m.AccessCount = 1
	}

	var embedding *pgvector.Vector
	if m.Embedding != nil {
		embedding = m.Embedding
	}

	const q = `
		INSERT INTO conversation_memories (
			id, user_id, system_instruction_id, summary, key_points, original_content,
			entities_dates, entities_locations, entities_people, entities_events,
			embedding, memory_type, memory_category, importance_score,
			semantic_importance, emotional_weight,
			created_at_timestamp, last_accessed, access_count,
			is_deleted, conversation_round
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21
		)`

	_, err := s.db.Exec(ctx, q,
		m.ID, m.UserID, m.SystemInstructionID, m.Summary, m.KeyPoints, m.OriginalContent,
		m.Entities.Dates, m.Entities.Locations, m.Entities.People, m.Entities.Events,
		embedding, string(m.MemoryType), string(m.Category), m.Importance,
		m.Semantic, m.EmotionalWgt,
		m.CreatedAt, m.LastAccessed, m.AccessCount,
		false, m.ConversationRound,
	)
	if err != nil {
		return apierr.StorageErrorf(err, "insert memory")
	}
	return nil
}

// List returns non-deleted (unless includeDeleted) memories for a user,
// optionally scoped to a system instruction, ordered by
// (importance_score desc, created_at desc).
func (s *MemoryStore) List(ctx context.Context, userID uuid.UUID, systemInstructionID *uuid.UUID, includeDeleted bool) ([]models.ConversationMemory, error) {
	q := `SELECT ` + memoryColumns + ` FROM conversation_memories WHERE user_id = $1`
	args := []any{userID}
	if systemInstructionID != nil {
		q += ` AND system_instruction_id = $2`
		args = append(args, *systemInstructionID)
	}
	if !includeDeleted {
		q += ` AND is_deleted = FALSE`
	}
	q += ` ORDER BY importance_score DESC, created_at_timestamp DESC`

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, apierr.StorageErrorf(err, "list memories")
	}
	defer rows.Close()
	return scanMemories(rows)
}

// Recent returns the n most recently created memories for (user, sid).
func (s *MemoryStore) Recent(ctx context.Context, userID, sid uuid.UUID, n int) ([]models.ConversationMemory, error) {
	const q = `SELECT ` + memoryColumns + ` FROM conversation_memories
		WHERE user_id = $1 AND system_instruction_id = $2 AND is_deleted = FALSE
		ORDER BY created_at_timestamp DESC LIMIT $3`
	rows, err := s.db.Query(ctx, q, userID, sid, n)
	if err != nil {
		return nil, apierr.StorageErrorf(err, "recent memories")
	}
	defer rows.Close()
	return scanMemories(rows)
}

// Candidates returns the oversampled set retrieval reranks from: the top n
// non-deleted memories for (user, sid) ordered by importance_score desc.
func (s *MemoryStore) Candidates(ctx context.Context, userID, sid uuid.UUID, n int) ([]models.ConversationMemory, error) {
	const q = `SELECT ` + memoryColumns + ` FROM conversation_memories
		WHERE user_id = $1 AND system_instruction_id = $2 AND is_deleted = FALSE
		ORDER BY importance_score DESC LIMIT $3`
	rows, err := s.db.Query(ctx, q, userID, sid, n)
	if err != nil {
		return nil, apierr.StorageErrorf(err, "candidate memories")
	}
	defer rows.Close()
	return scanMemories(rows)
}

// SoftDelete marks a memory deleted; idempotent, and only for the owning
// user.
func (s *MemoryStore) SoftDelete(ctx context.Context, id, userID uuid.UUID) error {
	const q = `UPDATE conversation_memories SET is_deleted = TRUE, deleted_at = now()
		WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE`
	_, err := s.db.Exec(ctx, q, id, userID)
	if err != nil {
		return apierr.StorageErrorf(err, "soft delete memory")
	}
	return nil
}

// BumpAccess atomically updates last_accessed/access_count for every id in
// a single round trip.
func (s *MemoryStore) BumpAccess(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `UPDATE conversation_memories
		SET last_accessed = now(), access_count = access_count + 1
		WHERE id = ANY($1) AND is_deleted = FALSE`
	_, err := s.db.Exec(ctx, q, ids)
	if err != nil {
		return apierr.StorageErrorf(err, "bump access")
	}
	return nil
}

// CutoffPredicate describes a scheduled or ad-hoc GC pass.
type CutoffPredicate struct {
	UserID              *uuid.UUID // nil: all users (scheduled GC)
	SystemInstructionID *uuid.UUID
	Categories          []models.MemoryCategory
	MinDaysSinceAccess  float64
	MaxAccessCount      *int
	MaxImportance       *int
	MaxEmotionalWeight  *float64
}

// CutoffDelete batch soft-deletes rows matching predicate, inside a
// single transaction, and returns the number of rows affected.
func (s *MemoryStore) CutoffDelete(ctx context.Context, pred CutoffPredicate) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, apierr.StorageErrorf(err, "begin gc transaction")
	}
	defer tx.Rollback(ctx)

	q := `UPDATE conversation_memories SET is_deleted = TRUE, deleted_at = now()
		WHERE is_deleted = FALSE
		AND memory_category = ANY($1)
		AND EXTRACT(EPOCH FROM (now() - last_accessed)) / 86400 > $2`
	args := []any{categoryStrings(pred.Categories), pred.MinDaysSinceAccess}
	n := 3

	if pred.UserID != nil {
		q += fmtArg(" AND user_id = $", n)
		args = append(args, *pred.UserID)
		n++
	}
	if pred.SystemInstructionID != nil {
		q += fmtArg(" AND system_instruction_id = $", n)
		args = append(args, *pred.SystemInstructionID)
		n++
	}
	if pred.MaxAccessCount != nil {
		q += fmtArg(" AND access_count < $", n)
		args = append(args, *pred.MaxAccessCount)
		n++
	}
	if pred.MaxImportance != nil {
		q += fmtArg(" AND importance_score < $", n)
		args = append(args, *pred.MaxImportance)
		n++
	}
	if pred.MaxEmotionalWeight != nil {
		q += fmtArg(" AND emotional_weight < $", n)
		args = append(args, *pred.MaxEmotionalWeight)
		n++
	}

	tag, err := tx.Exec(ctx, q, args...)
	if err != nil {
		return 0, apierr.StorageErrorf(err, "cutoff delete")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, apierr.StorageErrorf(err, "commit cutoff delete")
	}
	return tag.RowsAffected(), nil
}

func categoryStrings(cats []models.MemoryCategory) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

func fmtArg(prefix string, n int) string {
	return prefix + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

const memoryColumns = `id, user_id, system_instruction_id, summary, key_points, original_content,
	entities_dates, entities_locations, entities_people, entities_events,
	embedding, memory_type, memory_category, importance_score,
	semantic_importance, emotional_weight,
	created_at_timestamp, last_accessed, access_count,
	is_deleted, deleted_at, conversation_round`

func scanMemories(rows pgx.Rows) ([]models.ConversationMemory, error) {
	var out []models.ConversationMemory
	for rows.Next() {
		m, err := scanMemoryRow(rows)
		if err != nil {
			return nil, apierr.StorageErrorf(err, "scan memory row")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.StorageErrorf(err, "iterate memory rows")
	}
	return out, nil
}

func scanMemoryRow(rows pgx.Rows) (models.ConversationMemory, error) {
	var (
		m          models.ConversationMemory
		memType    string
		category   string
		embedding  *pgvector.Vector
	)
	err := rows.Scan(
		&m.ID, &m.UserID, &m.SystemInstructionID, &m.Summary, &m.KeyPoints, &m.OriginalContent,
		&m.Entities.Dates, &m.Entities.Locations, &m.Entities.People, &m.Entities.Events,
		&embedding, &memType, &category, &m.Importance,
		&m.Semantic, &m.EmotionalWgt,
		&m.CreatedAt, &m.LastAccessed, &m.AccessCount,
		&m.IsDeleted, &m.DeletedAt, &m.ConversationRound,
	)
	if err != nil {
		return m, err
	}
	m.MemoryType = models.MemoryType(memType)
	m.Category = models.MemoryCategory(category)
	m.Embedding = embedding
	return m, nil
}
