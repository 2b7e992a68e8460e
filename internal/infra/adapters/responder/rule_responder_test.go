//go:build !integration

package responder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestRuleResponder_Default(t *testing.T) {
	r, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}

	cases := []struct {
		in   string
		want string
	}{
		{"hello", "Hello there!"},
		{"Hello", "Hello there!"},
		{"HELLO", "Hello there!"},
		{"how are you?", "I'm doing well, thank you. How about you?"},
		{"HOW ARE YOU?", "I'm doing well, thank you. How about you?"},
		{"What is your name?", "I'm ChatBot."},
		{"what's up", "I'm not sure I understand."},
		{"", "I'm not sure I understand."},
		{" hello ", "I'm not sure I understand."},
		{"default", "I'm not sure I understand."},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := r.Respond(tc.in); got != tc.want {
				t.Errorf("Respond(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRuleResponder_Deterministic(t *testing.T) {
	r, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	for _, in := range []string{"hello", "nonsense", "How Are You?"} {
		first := r.Respond(in)
		for i := 0; i < 10; i++ {
			if got := r.Respond(in); got != first {
				t.Fatalf("Respond(%q) changed from %q to %q", in, first, got)
			}
		}
	}
}

func TestRuleResponder_CustomTables(t *testing.T) {
	t.Run("keys are case folded on load", func(t *testing.T) {
		fsys := fstest.MapFS{
			"replies/xx.yaml": {Data: []byte("Ping: pong\ndefault: \"?\"\n")},
		}
		r, err := NewRuleResponder(fsys, "xx")
		if err != nil {
			t.Fatalf("NewRuleResponder: %v", err)
		}
		if got := r.Respond("PING"); got != "pong" {
			t.Errorf("got %q", got)
		}
		if got := r.Respond("pong"); got != "?" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("missing default is rejected", func(t *testing.T) {
		_, err := newRuleResponderFromBytes([]byte("hello: hi\n"))
		if err == nil || !strings.Contains(err.Error(), "default") {
			t.Fatalf("expected missing-default error, got %v", err)
		}
	})

	t.Run("missing language file", func(t *testing.T) {
		if _, err := NewRuleResponder(fstest.MapFS{}, "fr"); err == nil {
			t.Fatal("expected an error for a missing table")
		}
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "replies.yaml")
		if err := os.WriteFile(path, []byte("hi: hey\ndefault: hmm\n"), 0644); err != nil {
			t.Fatal(err)
		}
		r, err := NewFromFile(path)
		if err != nil {
			t.Fatalf("NewFromFile: %v", err)
		}
		if r.Respond("HI") != "hey" || r.Respond("bye") != "hmm" {
			t.Errorf("unexpected replies from file table")
		}
		if len(r.Phrases()) != 1 {
			t.Errorf("Phrases = %v", r.Phrases())
		}
	})
}
