// Package models holds the relational entities of the memory subsystem.
// Grounded on the field shapes of intelligencedev-manifold's AgenticMemory
// (agentic_memory.go) and User (user_auth.go), generalized to the fuller
// entity set this system persists.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// MemoryType records whether a memory was inferred by the model or
// explicitly requested by the user.
type MemoryType string

const (
	MemoryTypeActive  MemoryType = "active"
	MemoryTypePassive MemoryType = "passive"
)

// MemoryCategory is the decay class assigned by the category classifier.
type MemoryCategory string

const (
	CategoryFact       MemoryCategory = "fact"
	CategoryPreference MemoryCategory = "preference"
	CategoryEvent      MemoryCategory = "event"
	CategoryDesire     MemoryCategory = "desire"
)

// Decaying reports whether records of this category are subject to
// scheduled garbage collection.
func (c MemoryCategory) Decaying() bool {
	return c == CategoryEvent || c == CategoryDesire
}

// Entities is the structured entity extraction attached to a memory.
type Entities struct {
	Dates     []string `json:"dates"`
	Locations []string `json:"locations"`
	People    []string `json:"people"`
	Events    []string `json:"events"`
}

// User is an authenticated account. Inactive users cannot authenticate;
// the core never hard-deletes a user.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP  string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SystemInstruction is a named base prompt. At most one row may have
// IsDefault && IsActive at any time.
type SystemInstruction struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	IsActive  bool      `json:"is_active"`
	IsDefault bool      `json:"is_default"`
	SortOrder int       `json:"sort_order"`
}

// UserCustomPrompt is a per-user override layered on a SystemInstruction.
// (UserID, SystemInstructionID) is unique across active rows.
type UserCustomPrompt struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	SystemInstructionID uuid.UUID `json:"system_instruction_id"`
	Content             string    `json:"content"`
	IsActive            bool      `json:"is_active"`
	SortOrder           int       `json:"sort_order"`
}

// ConversationMemory is the central entity: a distilled, scored, embedded
// record of a stretch of dialogue.
type ConversationMemory struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	SystemInstructionID uuid.UUID `json:"system_instruction_id"`

	Summary         string   `json:"summary"`
	KeyPoints       []string `json:"key_points"`
	OriginalContent *string  `json:"original_content,omitempty"`
	Entities        Entities `json:"entities"`

	Embedding    *pgvector.Vector `json:"-"`
	MemoryType   MemoryType       `json:"memory_type"`
	Category     MemoryCategory   `json:"category"`
	Importance   int              `json:"importance_score"` // 1-10
	Semantic     float64          `json:"semantic_importance"` // importance/10, [0.1, 1.0]
	EmotionalWgt float64          `json:"emotional_weight"`    // [0.1, 1.0]

	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	AccessCount  int       `json:"access_count"`

	IsDeleted         bool       `json:"is_deleted"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
	ConversationRound int        `json:"conversation_round"`
}

// CharacterEmotionState is the per-(user, character) Valence/Arousal state.
type CharacterEmotionState struct {
	UserID    uuid.UUID `json:"user_id"`
	CharID    uuid.UUID `json:"char_id"`
	Valence   float64   `json:"valence"`
	Arousal   float64   `json:"arousal"`
	UpdatedAt time.Time `json:"updated_at"`
}
