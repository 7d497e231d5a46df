package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"memoryd/internal/apierr"
	"memoryd/internal/database"
	"memoryd/internal/models"
)

// SystemInstructionStore is simple CRUD with the single-default invariant:
// setting a new default must first clear prior defaults in the same
// transaction.
type SystemInstructionStore struct {
	db *database.Pool
}

func NewSystemInstructionStore(db *database.Pool) *SystemInstructionStore {
	return &SystemInstructionStore{db: db}
}

func (s *SystemInstructionStore) List(ctx context.Context) ([]models.SystemInstruction, error) {
	const q = `SELECT id, name, content, is_active, is_default, sort_order
		FROM system_instructions ORDER BY sort_order ASC`
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, apierr.StorageErrorf(err, "list system instructions")
	}
	defer rows.Close()
	return scanInstructions(rows)
}

func (s *SystemInstructionStore) Get(ctx context.Context, id uuid.UUID) (*models.SystemInstruction, error) {
	const q = `SELECT id, name, content, is_active, is_default, sort_order
		FROM system_instructions WHERE id = $1`
	row := s.db.QueryRow(ctx, q, id)
	si, err := scanInstruction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apierr.NotFoundError("system instruction not found")
		}
		return nil, apierr.StorageErrorf(err, "get system instruction")
	}
	return &si, nil
}

// Default returns the unique active default instruction, if any.
func (s *SystemInstructionStore) Default(ctx context.Context) (*models.SystemInstruction, error) {
	const q = `SELECT id, name, content, is_active, is_default, sort_order
		FROM system_instructions WHERE is_default = TRUE AND is_active = TRUE LIMIT 1`
	row := s.db.QueryRow(ctx, q)
	si, err := scanInstruction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apierr.StorageErrorf(err, "get default system instruction")
	}
	return &si, nil
}

// Create inserts a new instruction. If IsDefault is set, prior defaults
// are cleared in the same transaction.
func (s *SystemInstructionStore) Create(ctx context.Context, si *models.SystemInstruction) error {
	if si.ID == uuid.Nil {
		si.ID = uuid.New()
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apierr.StorageErrorf(err, "begin create instruction")
	}
	defer tx.Rollback(ctx)

	if si.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE system_instructions SET is_default = FALSE WHERE is_default = TRUE`); err != nil {
			return apierr.StorageErrorf(err, "clear prior defaults")
		}
	}
	const q = `INSERT INTO system_instructions (id, name, content, is_active, is_default, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := tx.Exec(ctx, q, si.ID, si.Name, si.Content, si.IsActive, si.IsDefault, si.SortOrder); err != nil {
		return apierr.StorageErrorf(err, "insert system instruction")
	}
	if err := tx.Commit(ctx); err != nil {
		return apierr.StorageErrorf(err, "commit create instruction")
	}
	return nil
}

// Update overwrites mutable fields of an instruction, clearing prior
// defaults first if IsDefault is being set.
func (s *SystemInstructionStore) Update(ctx context.Context, si *models.SystemInstruction) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apierr.StorageErrorf(err, "begin update instruction")
	}
	defer tx.Rollback(ctx)

	if si.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE system_instructions SET is_default = FALSE WHERE is_default = TRUE AND id != $1`, si.ID); err != nil {
			return apierr.StorageErrorf(err, "clear prior defaults")
		}
	}
	const q = `UPDATE system_instructions SET name=$2, content=$3, is_active=$4, is_default=$5, sort_order=$6
		WHERE id = $1`
	tag, err := tx.Exec(ctx, q, si.ID, si.Name, si.Content, si.IsActive, si.IsDefault, si.SortOrder)
	if err != nil {
		return apierr.StorageErrorf(err, "update system instruction")
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFoundError("system instruction not found")
	}
	if err := tx.Commit(ctx); err != nil {
		return apierr.StorageErrorf(err, "commit update instruction")
	}
	return nil
}

func (s *SystemInstructionStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM system_instructions WHERE id = $1`, id)
	if err != nil {
		return apierr.StorageErrorf(err, "delete system instruction")
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFoundError("system instruction not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstruction(row rowScanner) (models.SystemInstruction, error) {
	var si models.SystemInstruction
	err := row.Scan(&si.ID, &si.Name, &si.Content, &si.IsActive, &si.IsDefault, &si.SortOrder)
	return si, err
}

func scanInstructions(rows pgx.Rows) ([]models.SystemInstruction, error) {
	var out []models.SystemInstruction
	for rows.Next() {
		si, err := scanInstruction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, si)
	}
	return out, rows.Err()
}
