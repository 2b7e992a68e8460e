package repository

import (
	"context"

	"chatbot-feedback/internal/domain/model"
)

// -----------------------------
// Conversations
// -----------------------------

// ConversationRepository owns every conversation. Returned values are copies;
// callers observe changes only through the repository.
type ConversationRepository interface {
	List(ctx context.Context) ([]*model.Conversation, error)
	Create(ctx context.Context) (*model.Conversation, error)
	FindByID(ctx context.Context, id int64) (*model.Conversation, error)
	AppendMessage(ctx context.Context, id int64, msg model.Message) (*model.Conversation, error)
	SetFeedback(ctx context.Context, id int64, fb model.Feedback) (*model.Conversation, error)
}
