//go:build !integration

package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chatbot-feedback/internal/infra/adapters/responder"
	"chatbot-feedback/internal/infra/i18n"
	"chatbot-feedback/internal/infra/scheduler"
	"chatbot-feedback/internal/infra/store"
	"chatbot-feedback/internal/usecase"
)

func newREPL(t *testing.T, clock scheduler.Clock, delay time.Duration) (*REPL, *bytes.Buffer, *scheduler.Loop) {
	t.Helper()
	logger := zerolog.Nop()
	loop := scheduler.NewLoop(clock, &logger)
	st := store.Open(context.Background(), store.NewMemorySlot(), store.WithClock(clock.Now))
	r, err := responder.NewDefault()
	if err != nil {
		t.Fatal(err)
	}
	tr, err := i18n.NewDefault("en")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	rp := New(loop, tr, &out, &logger)
	rp.Attach(usecase.NewSessionUseCase(st, r, loop, &logger,
		usecase.WithNotifier(rp), usecase.WithReplyDelay(delay)))
	return rp, &out, loop
}

func TestREPL_Commands(t *testing.T) {
	ctx := context.Background()
	clock := scheduler.NewManualClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	rp, out, loop := newREPL(t, clock, usecase.DefaultReplyDelay)

	t.Run("send without conversation", func(t *testing.T) {
		out.Reset()
		rp.Handle(ctx, "hello")
		if !strings.Contains(out.String(), "Start or load a conversation first.") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("chat with deferred reply", func(t *testing.T) {
		out.Reset()
		rp.Handle(ctx, "/new")
		rp.Handle(ctx, "What is your name?")
		if strings.Contains(out.String(), "I'm ChatBot.") {
			t.Fatal("reply printed before its delay")
		}
		clock.Advance(usecase.DefaultReplyDelay)
		loop.RunDue()
		if !strings.Contains(out.String(), "ChatBot: I'm ChatBot.") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("rate, note and submit", func(t *testing.T) {
		out.Reset()
		rp.Handle(ctx, "/rate 9")
		if !strings.Contains(out.String(), "Rating must be a number from 0 to 5") {
			t.Errorf("bad rating not reported: %q", out.String())
		}
		rp.Handle(ctx, "/rate 4")
		rp.Handle(ctx, "/note very polite")
		rp.Handle(ctx, "/submit")
		if !strings.Contains(out.String(), "Feedback submitted!") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("overview table", func(t *testing.T) {
		out.Reset()
		rp.Handle(ctx, "/overview")
		s := out.String()
		if !strings.Contains(s, "Feedback Overview") || !strings.Contains(s, "very polite") || !strings.Contains(s, "1 rated, average 4.0") {
			t.Errorf("output = %q", s)
		}
		out.Reset()
		rp.Handle(ctx, "/overview") // toggles off, prints nothing
		if out.Len() != 0 {
			t.Errorf("hiding the overview printed %q", out.String())
		}
	})

	t.Run("list and load", func(t *testing.T) {
		clock.Advance(time.Minute)
		rp.Handle(ctx, "/new")
		out.Reset()
		rp.Handle(ctx, "/list")
		if !strings.Contains(out.String(), "  1. Conversation") || !strings.Contains(out.String(), "* 2. Conversation") {
			t.Errorf("list = %q", out.String())
		}
		out.Reset()
		rp.Handle(ctx, "/load 7")
		if !strings.Contains(out.String(), "No conversation #7") {
			t.Errorf("output = %q", out.String())
		}
		out.Reset()
		rp.Handle(ctx, "/load 1")
		if !strings.Contains(out.String(), "You: What is your name?") || !strings.Contains(out.String(), "ChatBot: I'm ChatBot.") {
			t.Errorf("transcript = %q", out.String())
		}
	})

	t.Run("unknown command and quit", func(t *testing.T) {
		out.Reset()
		if rp.Handle(ctx, "/dance") {
			t.Error("unknown command should not quit")
		}
		if !strings.Contains(out.String(), `Unknown command "/dance"`) {
			t.Errorf("output = %q", out.String())
		}
		if !rp.Handle(ctx, "/quit") {
			t.Error("/quit should quit")
		}
	})
}

func TestREPL_RunWaitsForRepliesAtEOF(t *testing.T) {
	rp, out, _ := newREPL(t, scheduler.SystemClock{}, 5*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := strings.NewReader("/new\nhello\nhow are you?\n")
	if err := rp.Run(ctx, in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := out.String()
	first := strings.Index(s, "ChatBot: Hello there!")
	second := strings.Index(s, "ChatBot: I'm doing well, thank you. How about you?")
	if first < 0 || second < 0 || first > second {
		t.Errorf("replies missing or out of order:\n%s", s)
	}
}

func TestREPL_RunStopsOnQuit(t *testing.T) {
	rp, out, _ := newREPL(t, scheduler.SystemClock{}, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rp.Run(ctx, strings.NewReader("/quit\n/new\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "Bye!") {
		t.Errorf("output = %q", out.String())
	}
}
