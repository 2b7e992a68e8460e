// File: internal/infra/store/conversation_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatbot-feedback/internal/domain"
	"chatbot-feedback/internal/domain/model"
	"chatbot-feedback/internal/domain/ports/repository"
	"chatbot-feedback/internal/infra/metrics"
)

var _ repository.ConversationRepository = (*ConversationStore)(nil)

// ConversationStore keeps every conversation in memory and writes the full list
// back to its slot before each mutating call returns. A failed write rolls the
// in-memory change back, so memory and slot never diverge.
type ConversationStore struct {
	slot  repository.Slot
	log   *zerolog.Logger
	now   func() time.Time
	mu    sync.Mutex
	convs []*model.Conversation
	index map[int64]int
	last  int64
}

type Option func(*ConversationStore)

// WithClock overrides the id source; ids are Unix milliseconds of this clock.
func WithClock(now func() time.Time) Option {
	return func(s *ConversationStore) { s.now = now }
}

func WithLogger(l *zerolog.Logger) Option {
	return func(s *ConversationStore) { s.log = l }
}

// Open loads the slot once. Empty, unreadable or corrupt content starts an empty
// store; Open itself never fails.
func Open(ctx context.Context, slot repository.Slot, opts ...Option) *ConversationStore {
	nop := zerolog.Nop()
	s := &ConversationStore{
		slot:  slot,
		log:   &nop,
		now:   time.Now,
		index: make(map[int64]int),
	}
	for _, o := range opts {
		o(s)
	}
	s.load(ctx)
	return s
}

func (s *ConversationStore) load(ctx context.Context) {
	data, ok, err := s.slot.Read(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("conversation slot unreadable; starting empty")
		metrics.IncSlotRecovered("unreadable")
		return
	}
	if !ok {
		s.log.Debug().Msg("conversation slot empty")
		return
	}
	convs, err := decode(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("conversation slot holds foreign data; starting empty")
		metrics.IncSlotRecovered("corrupt")
		return
	}
	s.convs = convs
	for i, c := range convs {
		s.index[c.ID] = i
		if c.ID > s.last {
			s.last = c.ID
		}
	}
	s.log.Info().Int("conversations", len(convs)).Msg("conversations loaded")
}

func (s *ConversationStore) List(ctx context.Context) ([]*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Conversation, 0, len(s.convs))
	for _, c := range s.convs {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (s *ConversationStore) FindByID(ctx context.Context, id int64) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// Create allocates a conversation whose id is strictly greater than every id seen so far.
func (s *ConversationStore) Create(ctx context.Context) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	c := model.NewConversation(id)
	s.convs = append(s.convs, c)
	s.index[id] = len(s.convs) - 1

	if err := s.flush(ctx); err != nil {
		s.convs = s.convs[:len(s.convs)-1]
		delete(s.index, id)
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	s.last = id
	metrics.IncConversationCreated()
	return c.Clone(), nil
}

func (s *ConversationStore) AppendMessage(ctx context.Context, id int64, msg model.Message) (*model.Conversation, error) {
	if !msg.Sender.Valid() {
		return nil, fmt.Errorf("append message: sender %q: %w", msg.Sender, domain.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.get(id)
	if err != nil {
		return nil, err
	}
	n := len(c.Messages)
	c.AddMessage(msg)
	if err := s.flush(ctx); err != nil {
		c.Messages = c.Messages[:n]
		return nil, fmt.Errorf("append message: %w", err)
	}
	metrics.IncMessageAppended(string(msg.Sender))
	return c.Clone(), nil
}

func (s *ConversationStore) SetFeedback(ctx context.Context, id int64, fb model.Feedback) (*model.Conversation, error) {
	if !model.ValidRating(fb.Rating) {
		return nil, fmt.Errorf("set feedback: rating %d: %w", fb.Rating, domain.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.get(id)
	if err != nil {
		return nil, err
	}
	prev := c.Feedback
	c.Feedback = &fb
	if err := s.flush(ctx); err != nil {
		c.Feedback = prev
		return nil, fmt.Errorf("set feedback: %w", err)
	}
	metrics.ObserveFeedback(fb.Rating)
	return c.Clone(), nil
}

func (s *ConversationStore) get(id int64) (*model.Conversation, error) {
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}
	return s.convs[i], nil
}

// flush must be called with mu held.
func (s *ConversationStore) flush(ctx context.Context) error {
	data, err := encode(s.convs)
	if err != nil {
		return fmt.Errorf("encode conversations: %w", err)
	}
	if err := s.slot.Write(ctx, data); err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}
