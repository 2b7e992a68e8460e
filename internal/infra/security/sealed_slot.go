package security

import (
	"bytes"
	"context"
	"fmt"

	"chatbot-feedback/internal/domain/ports/repository"
)

var sealedPrefix = []byte("enc:v1:")

// SealedSlot encrypts the slot value at rest. Values written before encryption
// was enabled carry no prefix and are returned unchanged, so the next write
// seals them.
type SealedSlot struct {
	inner repository.NamedSlot
	enc   *EncryptionService
}

var _ repository.NamedSlot = (*SealedSlot)(nil)

func NewSealedSlot(inner repository.NamedSlot, enc *EncryptionService) *SealedSlot {
	return &SealedSlot{inner: inner, enc: enc}
}

func (s *SealedSlot) Driver() string { return s.inner.Driver() }

func (s *SealedSlot) Read(ctx context.Context) ([]byte, bool, error) {
	data, ok, err := s.inner.Read(ctx)
	if err != nil || !ok {
		return data, ok, err
	}
	if !bytes.HasPrefix(data, sealedPrefix) {
		return data, true, nil
	}
	pt, err := s.enc.Open(data[len(sealedPrefix):])
	if err != nil {
		return nil, false, fmt.Errorf("open sealed slot: %w", err)
	}
	return pt, true, nil
}

func (s *SealedSlot) Write(ctx context.Context, data []byte) error {
	sealed, err := s.enc.Seal(data)
	if err != nil {
		return fmt.Errorf("seal slot: %w", err)
	}
	return s.inner.Write(ctx, append(append([]byte(nil), sealedPrefix...), sealed...))
}
