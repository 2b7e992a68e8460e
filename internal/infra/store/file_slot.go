package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"chatbot-feedback/internal/domain/ports/repository"
)

var _ repository.NamedSlot = (*FileSlot)(nil)

// FileSlot stores the slot as <dir>/<key>.json. Writes go to a temp file that is
// renamed over the old one, so a crash never leaves a half-written list.
type FileSlot struct {
	path string
}

// DefaultDir returns ~/.local/share/chatbot-feedback.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "chatbot-feedback"), nil
}

func NewFileSlot(dir, key string) (*FileSlot, error) {
	if key == "" {
		return nil, errors.New("file slot: empty key")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slot directory: %w", err)
	}
	return &FileSlot{path: filepath.Join(dir, key+".json")}, nil
}

func (s *FileSlot) Driver() string { return "file" }
func (s *FileSlot) Path() string   { return s.path }

func (s *FileSlot) Read(ctx context.Context) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot: %w", err)
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

func (s *FileSlot) Write(ctx context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write slot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write slot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close slot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace slot: %w", err)
	}
	return nil
}
