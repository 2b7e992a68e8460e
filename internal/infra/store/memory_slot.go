package store

import (
	"context"
	"sync"

	"chatbot-feedback/internal/domain/ports/repository"
)

var _ repository.NamedSlot = (*MemorySlot)(nil)

// MemorySlot keeps the slot value in process memory. It backs the "memory"
// driver and the tests.
type MemorySlot struct {
	mu     sync.Mutex
	data   []byte
	set    bool
	writes int
}

func NewMemorySlot() *MemorySlot { return &MemorySlot{} }

// NewMemorySlotWith returns a slot pre-filled with data.
func NewMemorySlotWith(data []byte) *MemorySlot {
	s := &MemorySlot{}
	s.data = append([]byte(nil), data...)
	s.set = true
	return s
}

func (s *MemorySlot) Driver() string { return "memory" }

func (s *MemorySlot) Read(ctx context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, false, nil
	}
	return append([]byte(nil), s.data...), true, nil
}

func (s *MemorySlot) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.set = true
	s.writes++
	return nil
}

// Writes reports how many times the slot has been written.
func (s *MemorySlot) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Bytes returns the current value.
func (s *MemorySlot) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}
