package store

import (
	"context"

	"chatbot-feedback/internal/domain/ports/repository"
	"chatbot-feedback/internal/infra/metrics"
)

// Instrument counts reads and writes of a slot per driver.
func Instrument(inner repository.NamedSlot) repository.NamedSlot {
	return &instrumentedSlot{inner: inner}
}

type instrumentedSlot struct {
	inner repository.NamedSlot
}

func (s *instrumentedSlot) Driver() string { return s.inner.Driver() }

func (s *instrumentedSlot) Read(ctx context.Context) ([]byte, bool, error) {
	data, ok, err := s.inner.Read(ctx)
	switch {
	case err != nil:
		metrics.IncSlotOp(s.Driver(), "read", "error")
	case !ok:
		metrics.IncSlotOp(s.Driver(), "read", "empty")
	default:
		metrics.IncSlotOp(s.Driver(), "read", "ok")
	}
	return data, ok, err
}

func (s *instrumentedSlot) Write(ctx context.Context, data []byte) error {
	err := s.inner.Write(ctx, data)
	if err != nil {
		metrics.IncSlotOp(s.Driver(), "write", "error")
	} else {
		metrics.IncSlotOp(s.Driver(), "write", "ok")
	}
	return err
}
