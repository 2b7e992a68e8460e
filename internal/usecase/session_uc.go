// File: internal/usecase/session_uc.go
package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chatbot-feedback/internal/domain"
	"chatbot-feedback/internal/domain/model"
	"chatbot-feedback/internal/domain/ports/adapter"
	"chatbot-feedback/internal/domain/ports/repository"
	"chatbot-feedback/internal/infra/logging"
	"chatbot-feedback/internal/infra/metrics"
	"chatbot-feedback/internal/infra/scheduler"
)

// DefaultReplyDelay is how long the responder "thinks" before answering.
const DefaultReplyDelay = 500 * time.Millisecond

type State int

const (
	NoActiveConversation State = iota
	ActiveConversation
)

func (s State) String() string {
	if s == ActiveConversation {
		return "active"
	}
	return "none"
}

// Drafts is the unsubmitted input of the widget.
type Drafts struct {
	Input    string
	Rating   int
	Feedback string
}

// PendingReply is a responder answer that has been scheduled but not appended yet.
type PendingReply struct {
	TaskID         uint64
	ConversationID int64
	Input          string
	Due            time.Time
}

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

type SessionUseCase interface {
	StartNew(ctx context.Context) (*model.Conversation, error)
	Load(ctx context.Context, id int64) (*model.Conversation, error)
	Send(ctx context.Context, text string) error
	SubmitFeedback(ctx context.Context, rating int, text string) error
	ToggleOverview()

	SetDraftInput(text string)
	SetDraftRating(rating int) error
	SetDraftFeedback(text string)
	SendDraft(ctx context.Context) error
	SubmitDraftFeedback(ctx context.Context) error

	State() State
	ActiveID() (int64, bool)
	Messages(ctx context.Context) ([]model.Message, error)
	Drafts() Drafts
	OverviewVisible() bool
	Conversations(ctx context.Context) ([]*model.Conversation, error)
	Overview(ctx context.Context) ([]FeedbackRow, error)
	PendingReplies() []PendingReply
}

// SessionOption customises the controller.
type SessionOption func(*sessionUC)

func WithReplyDelay(d time.Duration) SessionOption {
	return func(s *sessionUC) { s.delay = d }
}

func WithNotifier(n adapter.Notifier) SessionOption {
	return func(s *sessionUC) { s.notifier = n }
}

// WithDevMode logs message text unredacted.
func WithDevMode(dev bool) SessionOption {
	return func(s *sessionUC) { s.dev = dev }
}

// sessionUC is not safe for concurrent use. Every method, and every reply task it
// schedules, runs on the goroutine that drives the loop.
type sessionUC struct {
	store     repository.ConversationRepository
	responder adapter.Responder
	loop      *scheduler.Loop
	notifier  adapter.Notifier
	log       *zerolog.Logger
	delay     time.Duration
	dev       bool

	active   int64 // 0 when no conversation is active
	drafts   Drafts
	overview bool
	pending  map[uint64]PendingReply
}

func NewSessionUseCase(store repository.ConversationRepository, responder adapter.Responder, loop *scheduler.Loop, logger *zerolog.Logger, opts ...SessionOption) *sessionUC {
	s := &sessionUC{
		store:     store,
		responder: responder,
		loop:      loop,
		notifier:  adapter.NotifierFunc(func(adapter.Event) {}),
		log:       logger,
		delay:     DefaultReplyDelay,
		pending:   make(map[uint64]PendingReply),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *sessionUC) intent(ctx context.Context, id int64) (context.Context, *zerolog.Logger) {
	if logging.TraceIDFrom(ctx) == "" {
		ctx = logging.WithTraceID(ctx, logging.NewTraceID())
	}
	if id != 0 {
		ctx = logging.WithConvID(ctx, id)
	}
	return ctx, logging.With(ctx, s.log)
}

func (s *sessionUC) fail(id int64, err error) error {
	s.notifier.Notify(adapter.Event{Kind: adapter.EventError, ConversationID: id, Err: err})
	return err
}

func (s *sessionUC) StartNew(ctx context.Context) (*model.Conversation, error) {
	ctx, log := s.intent(ctx, 0)
	defer logging.TraceDuration(log, "SessionUC.StartNew")()

	c, err := s.store.Create(ctx)
	if err != nil {
		log.Error().Err(err).Msg("start conversation failed")
		return nil, s.fail(0, err)
	}
	s.active = c.ID
	s.drafts = Drafts{}
	s.overview = false
	log.Info().Int64("conversation_id", c.ID).Msg("conversation started")
	return c, nil
}

// Load activates a stored conversation. An unknown id leaves the state untouched.
// The draft input survives a switch; rating and feedback drafts come from the
// stored feedback.
func (s *sessionUC) Load(ctx context.Context, id int64) (*model.Conversation, error) {
	ctx, log := s.intent(ctx, id)
	defer logging.TraceDuration(log, "SessionUC.Load")()

	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Msg("load conversation failed")
		return nil, err
	}
	s.active = c.ID
	if c.Feedback != nil {
		s.drafts.Rating = c.Feedback.Rating
		s.drafts.Feedback = c.Feedback.SubjectiveFeedback
	} else {
		s.drafts.Rating = model.MinRating
		s.drafts.Feedback = ""
	}
	s.overview = false
	log.Debug().Int("messages", len(c.Messages)).Msg("conversation loaded")
	return c, nil
}

// Send appends the user message now and schedules the responder's answer. The
// answer is bound to the conversation that was active at send time, even if the
// user switches away before it fires.
func (s *sessionUC) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" || s.active == 0 {
		return nil
	}
	id := s.active
	ctx, log := s.intent(ctx, id)
	defer logging.TraceDuration(log, "SessionUC.Send")()

	if _, err := s.store.AppendMessage(ctx, id, model.NewUserMessage(text)); err != nil {
		log.Error().Err(err).Msg("append user message failed")
		return s.fail(id, err)
	}
	s.drafts.Input = ""

	replyCtx := context.WithoutCancel(ctx)
	var info scheduler.TaskInfo
	info = s.loop.After("reply", s.delay, func() {
		s.deliverReply(replyCtx, info.ID, id, text)
	})
	s.pending[info.ID] = PendingReply{TaskID: info.ID, ConversationID: id, Input: text, Due: info.Due}
	metrics.SetPendingReplies(len(s.pending))

	log.Debug().
		Str("text", logging.Redact(text, s.dev)).
		Uint64("task_id", info.ID).
		Time("due", info.Due).
		Msg("reply scheduled")
	return nil
}

func (s *sessionUC) deliverReply(ctx context.Context, taskID uint64, id int64, input string) {
	delete(s.pending, taskID)
	metrics.SetPendingReplies(len(s.pending))

	log := logging.With(ctx, s.log)
	reply := s.responder.Respond(input)
	if _, err := s.store.AppendMessage(ctx, id, model.NewAIMessage(reply)); err != nil {
		log.Error().Err(err).Msg("append reply failed")
		_ = s.fail(id, err)
		return
	}
	log.Debug().Str("reply", logging.Redact(reply, s.dev)).Msg("reply appended")
	s.notifier.Notify(adapter.Event{Kind: adapter.EventReplyAppended, ConversationID: id})
}

func (s *sessionUC) SubmitFeedback(ctx context.Context, rating int, text string) error {
	if s.active == 0 {
		return domain.ErrNoActiveConversation
	}
	id := s.active
	ctx, log := s.intent(ctx, id)
	defer logging.TraceDuration(log, "SessionUC.SubmitFeedback")()

	fb, err := model.NewFeedback(rating, text)
	if err != nil {
		return fmt.Errorf("rating %d: %w", rating, err)
	}
	if _, err := s.store.SetFeedback(ctx, id, *fb); err != nil {
		log.Error().Err(err).Msg("submit feedback failed")
		return s.fail(id, err)
	}
	s.drafts.Rating = fb.Rating
	s.drafts.Feedback = fb.SubjectiveFeedback
	log.Info().Int("rating", fb.Rating).Msg("feedback submitted")
	s.notifier.Notify(adapter.Event{Kind: adapter.EventFeedbackSubmitted, ConversationID: id})
	return nil
}

func (s *sessionUC) ToggleOverview() { s.overview = !s.overview }

func (s *sessionUC) SetDraftInput(text string) { s.drafts.Input = text }

func (s *sessionUC) SetDraftRating(rating int) error {
	if !model.ValidRating(rating) {
		return fmt.Errorf("rating %d: %w", rating, domain.ErrInvalidArgument)
	}
	s.drafts.Rating = rating
	return nil
}

func (s *sessionUC) SetDraftFeedback(text string) { s.drafts.Feedback = text }

// SendDraft sends the draft input, as pressing Enter does.
func (s *sessionUC) SendDraft(ctx context.Context) error {
	return s.Send(ctx, s.drafts.Input)
}

func (s *sessionUC) SubmitDraftFeedback(ctx context.Context) error {
	return s.SubmitFeedback(ctx, s.drafts.Rating, s.drafts.Feedback)
}

func (s *sessionUC) State() State {
	if s.active == 0 {
		return NoActiveConversation
	}
	return ActiveConversation
}

func (s *sessionUC) ActiveID() (int64, bool) { return s.active, s.active != 0 }

// Messages returns what the chat area shows: the stored messages of the active
// conversation, or nothing when none is active.
func (s *sessionUC) Messages(ctx context.Context) ([]model.Message, error) {
	if s.active == 0 {
		return nil, nil
	}
	c, err := s.store.FindByID(ctx, s.active)
	if err != nil {
		return nil, err
	}
	return c.Messages, nil
}

func (s *sessionUC) Drafts() Drafts { return s.drafts }

func (s *sessionUC) OverviewVisible() bool { return s.overview }

func (s *sessionUC) Conversations(ctx context.Context) ([]*model.Conversation, error) {
	return s.store.List(ctx)
}

func (s *sessionUC) Overview(ctx context.Context) ([]FeedbackRow, error) {
	convs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return Overview(convs), nil
}

// PendingReplies lists scheduled replies, earliest first.
func (s *sessionUC) PendingReplies() []PendingReply {
	out := make([]PendingReply, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Due.Equal(out[j].Due) {
			return out[i].TaskID < out[j].TaskID
		}
		return out[i].Due.Before(out[j].Due)
	})
	return out
}
