// File: internal/usecase/helpers_test.go
package usecase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatbot-feedback/internal/domain/model"
	"chatbot-feedback/internal/domain/ports/adapter"
	"chatbot-feedback/internal/domain/ports/repository"
	"chatbot-feedback/internal/infra/adapters/responder"
	"chatbot-feedback/internal/infra/scheduler"
	"chatbot-feedback/internal/infra/store"
	"chatbot-feedback/internal/usecase"
)

var epoch = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// recorder collects notifier events.
type recorder struct {
	mu     sync.Mutex
	events []adapter.Event
}

func (r *recorder) Notify(ev adapter.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []adapter.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]adapter.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

// harness wires a controller over an in-memory slot and a virtual clock.
type harness struct {
	clock  *scheduler.ManualClock
	loop   *scheduler.Loop
	slot   *store.MemorySlot
	store  *store.ConversationStore
	events *recorder
	uc     usecase.SessionUseCase
}

func newHarness(t interface{ Fatalf(string, ...any) }) *harness {
	clock := scheduler.NewManualClock(epoch)
	loop := scheduler.NewLoop(clock, newTestLogger())
	slot := store.NewMemorySlot()
	st := store.Open(context.Background(), slot, store.WithClock(clock.Now))
	r, err := responder.NewDefault()
	if err != nil {
		t.Fatalf("responder: %v", err)
	}
	events := &recorder{}
	uc := usecase.NewSessionUseCase(st, r, loop, newTestLogger(), usecase.WithNotifier(events))
	return &harness{clock: clock, loop: loop, slot: slot, store: st, events: events, uc: uc}
}

// advance moves virtual time and runs whatever became due.
func (h *harness) advance(d time.Duration) int {
	h.clock.Advance(d)
	return h.loop.RunDue()
}

var errBroken = errors.New("backend down")

// brokenRepo fails every mutation; reads delegate to an inner repository.
type brokenRepo struct {
	repository.ConversationRepository
}

func (b brokenRepo) Create(ctx context.Context) (*model.Conversation, error) {
	return nil, errBroken
}

func (b brokenRepo) AppendMessage(ctx context.Context, id int64, m model.Message) (*model.Conversation, error) {
	return nil, errBroken
}

func (b brokenRepo) SetFeedback(ctx context.Context, id int64, fb model.Feedback) (*model.Conversation, error) {
	return nil, errBroken
}
