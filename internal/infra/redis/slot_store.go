// File: internal/infra/redis/slot_store.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"chatbot-feedback/internal/domain/ports/repository"
)

var _ repository.NamedSlot = (*Slot)(nil)

// kv is the part of *redis.Client the slot needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Slot keeps the conversation list under one redis key with no expiry.
type Slot struct {
	cli kv
	key string
}

func NewSlot(c *Client, key string) *Slot {
	return &Slot{cli: c.cli, key: key}
}

func (s *Slot) Driver() string { return "redis" }

func (s *Slot) Read(ctx context.Context) ([]byte, bool, error) {
	data, err := s.cli.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return data, len(data) > 0, nil
}

func (s *Slot) Write(ctx context.Context, data []byte) error {
	if err := s.cli.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
