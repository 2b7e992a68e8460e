//go:build !integration

package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"chatbot-feedback/internal/infra/adapters/responder"
	"chatbot-feedback/internal/infra/i18n"
	"chatbot-feedback/internal/infra/scheduler"
	"chatbot-feedback/internal/infra/store"
	"chatbot-feedback/internal/usecase"
)

type fixture struct {
	clock *scheduler.ManualClock
	st    *store.ConversationStore
	uc    usecase.SessionUseCase
	m     Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()
	clock := scheduler.NewManualClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	loop := scheduler.NewLoop(clock, &logger)
	st := store.Open(ctx, store.NewMemorySlot(), store.WithClock(clock.Now))
	r, err := responder.NewDefault()
	if err != nil {
		t.Fatal(err)
	}
	tr, err := i18n.NewDefault("en")
	if err != nil {
		t.Fatal(err)
	}
	inbox := NewInbox()
	uc := usecase.NewSessionUseCase(st, r, loop, &logger, usecase.WithNotifier(inbox))
	m := New(ctx, uc, loop, tr, inbox, &logger)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return &fixture{clock: clock, st: st, uc: uc, m: next.(Model)}
}

func (f *fixture) send(msgs ...tea.Msg) {
	for _, msg := range msgs {
		next, _ := f.m.Update(msg)
		f.m = next.(Model)
	}
}

func (f *fixture) typeText(s string) {
	for _, r := range s {
		f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func TestModel_ChatFlow(t *testing.T) {
	f := newFixture(t)

	f.send(key(tea.KeyCtrlN))
	if f.uc.State() != usecase.ActiveConversation {
		t.Fatal("ctrl+n should start a conversation")
	}
	if f.m.focus != focusInput {
		t.Fatalf("focus = %v, want input", f.m.focus)
	}

	f.typeText("hello")
	if f.uc.Drafts().Input != "hello" {
		t.Fatalf("draft input = %q", f.uc.Drafts().Input)
	}
	f.send(key(tea.KeyEnter))
	if f.m.input.Value() != "" {
		t.Errorf("input should be cleared after send, got %q", f.m.input.Value())
	}
	if !strings.Contains(f.m.View(), "ChatBot is typing...") {
		t.Errorf("pending reply indicator missing")
	}

	f.clock.Advance(usecase.DefaultReplyDelay)
	f.send(tickMsg(time.Now()))

	view := f.m.View()
	if !strings.Contains(view, "Hello there!") {
		t.Errorf("reply missing from view:\n%s", view)
	}
	if strings.Contains(view, "ChatBot is typing...") {
		t.Errorf("typing indicator should be gone")
	}
}

func TestModel_FeedbackAndOverview(t *testing.T) {
	f := newFixture(t)
	f.send(key(tea.KeyCtrlN))

	f.send(key(tea.KeyCtrlR), key(tea.KeyCtrlR), key(tea.KeyCtrlR), key(tea.KeyCtrlR))
	if f.uc.Drafts().Rating != 4 {
		t.Fatalf("rating = %d, want 4", f.uc.Drafts().Rating)
	}
	f.send(key(tea.KeyTab)) // input -> feedback
	if f.m.focus != focusFeedback {
		t.Fatalf("focus = %v, want feedback", f.m.focus)
	}
	f.typeText("quick")
	f.send(key(tea.KeyEnter))

	if f.m.status != "Feedback submitted!" || !f.m.statusOK {
		t.Errorf("status = %q ok=%v", f.m.status, f.m.statusOK)
	}
	convs, _ := f.st.List(context.Background())
	if convs[0].Feedback == nil || convs[0].Feedback.Rating != 4 || convs[0].Feedback.SubjectiveFeedback != "quick" {
		t.Fatalf("stored feedback = %+v", convs[0].Feedback)
	}

	f.send(key(tea.KeyCtrlO))
	view := f.m.View()
	if !strings.Contains(view, "Feedback Overview") || !strings.Contains(view, "quick") {
		t.Errorf("overview not rendered:\n%s", view)
	}
}

func TestModel_SubmitWithoutConversation(t *testing.T) {
	f := newFixture(t)
	f.send(key(tea.KeyCtrlS))
	if f.m.status != "Start or load a conversation first." || f.m.statusOK {
		t.Errorf("status = %q", f.m.status)
	}
}

func TestModel_SidebarLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, _ := f.uc.StartNew(ctx)
	_ = f.uc.SubmitFeedback(ctx, 2, "meh")
	f.clock.Advance(time.Second)
	_, _ = f.uc.StartNew(ctx)
	f.m.refresh()

	f.m.setFocus(focusSidebar)
	f.send(key(tea.KeyDown), key(tea.KeyUp), key(tea.KeyEnter))
	if id, _ := f.uc.ActiveID(); id != first.ID {
		t.Fatalf("active = %d, want %d", id, first.ID)
	}
	if f.m.note.Value() != "meh" {
		t.Errorf("feedback field should show stored text, got %q", f.m.note.Value())
	}

	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'5'}})
	if f.uc.Drafts().Rating != 5 {
		t.Errorf("digit in sidebar should set rating, got %d", f.uc.Drafts().Rating)
	}
}

func TestModel_Quit(t *testing.T) {
	f := newFixture(t)
	_, cmd := f.m.Update(key(tea.KeyCtrlC))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}
