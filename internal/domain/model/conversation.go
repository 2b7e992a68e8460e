package model

import (
	"time"

	"chatbot-feedback/internal/domain"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

func (s Sender) Valid() bool { return s == SenderUser || s == SenderAI }

// Message is one entry of a conversation. Messages are never edited once appended.
type Message struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

func NewUserMessage(text string) Message { return Message{Text: text, Sender: SenderUser} }
func NewAIMessage(text string) Message   { return Message{Text: text, Sender: SenderAI} }

const (
	MinRating = 0
	MaxRating = 5
)

// Feedback is the single rating/comment pair attached to a conversation.
type Feedback struct {
	Rating             int    `json:"rating"`
	SubjectiveFeedback string `json:"subjectiveFeedback"`
}

// NewFeedback validates the rating range.
func NewFeedback(rating int, subjective string) (*Feedback, error) {
	if !ValidRating(rating) {
		return nil, domain.ErrInvalidArgument
	}
	return &Feedback{Rating: rating, SubjectiveFeedback: subjective}, nil
}

func ValidRating(r int) bool { return r >= MinRating && r <= MaxRating }

// Conversation is the aggregate root persisted by the conversation store.
// ID is the creation time in Unix milliseconds; Feedback is nil until submitted.
type Conversation struct {
	ID       int64     `json:"id"`
	Messages []Message `json:"messages"`
	Feedback *Feedback `json:"feedback"`
}

func NewConversation(id int64) *Conversation {
	return &Conversation{
		ID:       id,
		Messages: make([]Message, 0, 8),
	}
}

func (c *Conversation) AddMessage(m Message) {
	c.Messages = append(c.Messages, m)
}

// CreatedAt derives the creation time from the id.
func (c *Conversation) CreatedAt() time.Time { return time.UnixMilli(c.ID) }

func (c *Conversation) HasFeedback() bool { return c.Feedback != nil }

// Clone returns a deep copy so callers cannot mutate store-owned state.
func (c *Conversation) Clone() *Conversation {
	cp := &Conversation{ID: c.ID, Messages: make([]Message, len(c.Messages))}
	copy(cp.Messages, c.Messages)
	if c.Feedback != nil {
		fb := *c.Feedback
		cp.Feedback = &fb
	}
	return cp
}

// Validate reports whether a decoded conversation has the expected shape.
func (c *Conversation) Validate() error {
	if c.ID <= 0 {
		return domain.ErrInvalidArgument
	}
	for _, m := range c.Messages {
		if !m.Sender.Valid() {
			return domain.ErrInvalidArgument
		}
	}
	if c.Feedback != nil && !ValidRating(c.Feedback.Rating) {
		return domain.ErrInvalidArgument
	}
	return nil
}
