// Package audit records memory lifecycle transitions into an optional
// ClickHouse columnar sink for long-term analytics without bloating
// Postgres. Only the cleaner's "persisted" transition is recorded;
// access bumps and soft-deletes are not. No-op when CLICKHOUSE_DSN is
// unset.
package audit

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
)

// Sink is satisfied both by a real ClickHouse-backed sink and noopSink.
type Sink interface {
	RecordTransition(ctx context.Context, memoryID, userID uuid.UUID, transition string) error
	Close() error
}

type clickhouseSink struct {
	conn clickhouse.Conn
}

// NewSink returns a ClickHouse-backed sink when dsn is non-empty,
// otherwise a no-op sink.
func NewSink(dsn string) (Sink, error) {
	if dsn == "" {
		return noopSink{}, nil
	}
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	return &clickhouseSink{conn: conn}, nil
}

// EnsureSchema creates the audit table if it does not already exist.
func (s *clickhouseSink) EnsureSchema(ctx context.Context) error {
	return s.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS memory_audit_log (
		memory_id UUID,
		user_id UUID,
		transition String,
		recorded_at DateTime
	) ENGINE = MergeTree() ORDER BY (recorded_at)`)
}

func (s *clickhouseSink) RecordTransition(ctx context.Context, memoryID, userID uuid.UUID, transition string) error {
	return s.conn.Exec(ctx, `INSERT INTO memory_audit_log (memory_id, user_id, transition, recorded_at) VALUES (?, ?, ?, ?)`,
		memoryID, userID, transition, time.Now())
}

func (s *clickhouseSink) Close() error { return s.conn.Close() }

type noopSink struct{}

func (noopSink) RecordTransition(ctx context.Context, memoryID, userID uuid.UUID, transition string) error {
	return nil
}
func (noopSink) Close() error { return nil }
