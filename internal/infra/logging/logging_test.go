//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatbot-feedback/internal/config"

	"github.com/rs/zerolog"
)

func TestWith_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithConvID(WithTraceID(context.Background(), "01TRACE"), 42)
	With(ctx, &base).Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if line["trace_id"] != "01TRACE" {
		t.Errorf("trace_id = %v", line["trace_id"])
	}
	if line["conversation_id"] != float64(42) {
		t.Errorf("conversation_id = %v", line["conversation_id"])
	}
}

func TestNewTraceID_Unique(t *testing.T) {
	a, b := NewTraceID(), NewTraceID()
	if a == "" || a == b {
		t.Fatalf("expected two distinct trace ids, got %q and %q", a, b)
	}
	if len(a) != 26 {
		t.Errorf("expected a 26-char ULID, got %d chars", len(a))
	}
	ctx := WithTraceID(context.Background(), a)
	if TraceIDFrom(ctx) != a {
		t.Errorf("TraceIDFrom mismatch")
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("how are you?", true); got != "how are you?" {
		t.Errorf("dev mode should not redact, got %q", got)
	}
	if got := Redact("hello", false); got != "***" {
		t.Errorf("short strings should be masked, got %q", got)
	}
	if got := Redact("how are you?", false); got != "how ...u?" {
		t.Errorf("unexpected preview %q", got)
	}
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	logger, closer, err := New(config.LogConfig{Level: "info", Format: "json", File: path}, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info().Msg("written to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "written to file") {
		t.Errorf("log file missing message: %q", b)
	}
}
