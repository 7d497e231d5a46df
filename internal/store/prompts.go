package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"memoryd/internal/apierr"
	"memoryd/internal/database"
	"memoryd/internal/models"
)

// UserCustomPromptStore enforces the (user_id, system_instruction_id)
// uniqueness invariant across active rows.
type UserCustomPromptStore struct {
	db *database.Pool
}

func NewUserCustomPromptStore(db *database.Pool) *UserCustomPromptStore {
	return &UserCustomPromptStore{db: db}
}

// Get returns the active custom prompt for (userID, sid), if any.
func (s *UserCustomPromptStore) Get(ctx context.Context, userID, sid uuid.UUID) (*models.UserCustomPrompt, error) {
	const q = `SELECT id, user_id, system_instruction_id, content, is_active, sort_order
		FROM user_custom_prompts WHERE user_id = $1 AND system_instruction_id = $2 AND is_active = TRUE`
	row := s.db.QueryRow(ctx, q, userID, sid)
	p, err := scanPrompt(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apierr.StorageErrorf(err, "get custom prompt")
	}
	return &p, nil
}

func (s *UserCustomPromptStore) List(ctx context.Context, userID uuid.UUID) ([]models.UserCustomPrompt, error) {
	const q = `SELECT id, user_id, system_instruction_id, content, is_active, sort_order
		FROM user_custom_prompts WHERE user_id = $1 ORDER BY sort_order ASC`
	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, apierr.StorageErrorf(err, "list custom prompts")
	}
	defer rows.Close()
	var out []models.UserCustomPrompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, apierr.StorageErrorf(err, "scan custom prompt")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert replaces the active custom prompt for (userID, sid), deactivating
// any prior one in the same transaction to preserve the uniqueness
// invariant.
func (s *UserCustomPromptStore) Upsert(ctx context.Context, p *models.UserCustomPrompt) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apierr.StorageErrorf(err, "begin upsert prompt")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE user_custom_prompts SET is_active = FALSE
		WHERE user_id = $1 AND system_instruction_id = $2 AND is_active = TRUE`, p.UserID, p.SystemInstructionID); err != nil {
		return apierr.StorageErrorf(err, "deactivate prior prompt")
	}
	const q = `INSERT INTO user_custom_prompts (id, user_id, system_instruction_id, content, is_active, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := tx.Exec(ctx, q, p.ID, p.UserID, p.SystemInstructionID, p.Content, true, p.SortOrder); err != nil {
		return apierr.StorageErrorf(err, "insert custom prompt")
	}
	if err := tx.Commit(ctx); err != nil {
		return apierr.StorageErrorf(err, "commit upsert prompt")
	}
	return nil
}

func (s *UserCustomPromptStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM user_custom_prompts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apierr.StorageErrorf(err, "delete custom prompt")
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFoundError("custom prompt not found")
	}
	return nil
}

func scanPrompt(row rowScanner) (models.UserCustomPrompt, error) {
	var p models.UserCustomPrompt
	err := row.Scan(&p.ID, &p.UserID, &p.SystemInstructionID, &p.Content, &p.IsActive, &p.SortOrder)
	return p, err
}
