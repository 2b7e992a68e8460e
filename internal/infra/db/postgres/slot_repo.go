// File: internal/infra/db/postgres/slot_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"chatbot-feedback/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.NamedSlot = (*SlotRepo)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv_slots (
  key        TEXT PRIMARY KEY,
  value      BYTEA NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

type executor interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// SlotRepo stores the conversation list as one row of kv_slots.
type SlotRepo struct {
	db  executor
	key string
}

func NewSlotRepo(pool *pgxpool.Pool, key string) *SlotRepo {
	return &SlotRepo{db: pool, key: key}
}

// EnsureSchema creates kv_slots when it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure kv_slots: %w", err)
	}
	return nil
}

func (r *SlotRepo) Driver() string { return "postgres" }

func (r *SlotRepo) Read(ctx context.Context) ([]byte, bool, error) {
	const sql = `
SELECT value
  FROM kv_slots
 WHERE key = $1;
`
	var data []byte
	if err := r.db.QueryRow(ctx, sql, r.key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read slot %s: %w", r.key, err)
	}
	return data, len(data) > 0, nil
}

func (r *SlotRepo) Write(ctx context.Context, data []byte) error {
	const sql = `
INSERT INTO kv_slots (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE
  SET value      = EXCLUDED.value,
      updated_at = EXCLUDED.updated_at;
`
	tag, err := r.db.Exec(ctx, sql, r.key, data)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", r.key, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("write slot %s: %d rows affected", r.key, tag.RowsAffected())
	}
	return nil
}
