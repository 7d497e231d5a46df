// Package database owns the process-wide Postgres connection pool and
// schema bootstrap. Grounded on intelligencedev-manifold's
// EnsureAgenticMemoryTable (create-if-missing + ALTER-patch + index
// pattern, agentic_memory.go) and database.go's pool-acquire/release
// style.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"memoryd/internal/config"
)

// Pool wraps a pgxpool.Pool and is the single source of truth for all
// relational state in the system.
type Pool struct {
	*pgxpool.Pool
}

// Connect builds the connection pool per the configured sizing and
// verifies connectivity with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.PoolSize + cfg.PoolOverflow)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.PoolTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Pool{pool}, nil
}

// EnsureSchema creates every table and index the system needs if they do
// not already exist. Every statement is CREATE ... IF NOT EXISTS, so
// re-running it against an existing database is a no-op; columns missing
// from an existing table are not added.
func (p *Pool) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_login_at TIMESTAMPTZ,
			last_login_ip TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS system_instructions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			content TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			sort_order INT NOT NULL DEFAULT 0
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_system_instructions_one_default
			ON system_instructions ((is_default)) WHERE is_default AND is_active`,

		`CREATE TABLE IF NOT EXISTS user_custom_prompts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id),
			system_instruction_id UUID NOT NULL REFERENCES system_instructions(id),
			content TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			sort_order INT NOT NULL DEFAULT 0
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_custom_prompts_unique
			ON user_custom_prompts (user_id, system_instruction_id) WHERE is_active`,

		`CREATE TABLE IF NOT EXISTS conversation_memories (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id),
			system_instruction_id UUID NOT NULL REFERENCES system_instructions(id),
			summary TEXT NOT NULL,
			key_points TEXT[] NOT NULL DEFAULT '{}',
			original_content TEXT,
			entities_dates TEXT[] NOT NULL DEFAULT '{}',
			entities_locations TEXT[] NOT NULL DEFAULT '{}',
			entities_people TEXT[] NOT NULL DEFAULT '{}',
			entities_events TEXT[] NOT NULL DEFAULT '{}',
			embedding vector(1536),
			memory_type TEXT NOT NULL,
			memory_category TEXT NOT NULL,
			importance_score INT NOT NULL,
			semantic_importance DOUBLE PRECISION NOT NULL,
			emotional_weight DOUBLE PRECISION NOT NULL,
			created_at_timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_accessed TIMESTAMPTZ NOT NULL DEFAULT now(),
			access_count INT NOT NULL DEFAULT 1,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_at TIMESTAMPTZ,
			conversation_round INT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_user_sid_created
			ON conversation_memories (user_id, system_instruction_id, created_at_timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_user_sid_deleted
			ON conversation_memories (user_id, system_instruction_id, is_deleted)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_category
			ON conversation_memories (memory_category)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_last_accessed
			ON conversation_memories (last_accessed)`,

		`CREATE TABLE IF NOT EXISTS character_emotion_states (
			user_id UUID NOT NULL REFERENCES users(id),
			char_id UUID NOT NULL,
			valence DOUBLE PRECISION NOT NULL DEFAULT 0,
			arousal DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, char_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := p.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap: %w", err)
		}
	}
	return nil
}
