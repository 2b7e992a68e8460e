// File: internal/infra/db/sqlite/slot.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"chatbot-feedback/internal/domain/ports/repository"
)

var _ repository.NamedSlot = (*Slot)(nil)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS kv_slots (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    updated_at TEXT NOT NULL
);
`

// Slot stores the conversation list as one row of a local SQLite database.
type Slot struct {
	db  *sql.DB
	key string
}

// DefaultDBPath returns ~/.local/share/chatbot-feedback/slots.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "chatbot-feedback", "slots.db"), nil
}

// Open opens (or creates) the database at dbPath and ensures the schema exists.
func Open(dbPath, key string) (*Slot, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Slot{db: db, key: key}, nil
}

func (s *Slot) Driver() string { return "sqlite" }

func (s *Slot) Read(ctx context.Context) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_slots WHERE key = ?`, s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %s: %w", s.key, err)
	}
	return data, len(data) > 0, nil
}

func (s *Slot) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO kv_slots (key, value, updated_at)
		VALUES (?, ?, ?)`,
		s.key, data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", s.key, err)
	}
	return nil
}

func (s *Slot) Close() error { return s.db.Close() }
