//go:build integration

package postgres

import (
	"context"
	"testing"

	"chatbot-feedback/internal/domain/model"
	"chatbot-feedback/internal/infra/store"
)

func TestSlotRepo_Integration(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewSlotRepo(testPool, "conversations")

	if _, ok, err := repo.Read(ctx); err != nil || ok {
		t.Fatalf("fresh table: ok=%v err=%v", ok, err)
	}

	s := store.Open(ctx, repo)
	c, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.AppendMessage(ctx, c.ID, model.NewUserMessage("hello")); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if _, err := s.SetFeedback(ctx, c.ID, model.Feedback{Rating: 5}); err != nil {
		t.Fatalf("SetFeedback: %v", err)
	}

	reopened, _ := store.Open(ctx, NewSlotRepo(testPool, "conversations")).List(ctx)
	if len(reopened) != 1 || len(reopened[0].Messages) != 1 || reopened[0].Feedback.Rating != 5 {
		t.Errorf("unexpected reloaded state %+v", reopened)
	}

	other, _ := store.Open(ctx, NewSlotRepo(testPool, "other")).List(ctx)
	if len(other) != 0 {
		t.Errorf("slots with different keys must not share data")
	}
}
