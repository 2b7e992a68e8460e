// File: internal/infra/adapters/responder/rule_responder.go
package responder

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"chatbot-feedback/internal/domain/ports/adapter"
)

//go:embed replies
var RepliesFS embed.FS

const defaultKey = "default"

var _ adapter.Responder = (*RuleResponder)(nil)

// RuleResponder answers from a fixed phrase table. Lookups are exact after case folding;
// anything else gets the table's default reply.
type RuleResponder struct {
	replies  map[string]string
	fallback string
}

// NewRuleResponder loads replies/<lang>.yaml from fsys.
func NewRuleResponder(fsys fs.FS, lang string) (*RuleResponder, error) {
	path := fmt.Sprintf("replies/%s.yaml", lang)
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply table %s: %w", path, err)
	}
	return newRuleResponderFromBytes(data)
}

// NewDefault returns the built-in English table.
func NewDefault() (*RuleResponder, error) {
	return NewRuleResponder(RepliesFS, "en")
}

// NewFromFile loads a user-provided reply table.
func NewFromFile(path string) (*RuleResponder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply table %s: %w", path, err)
	}
	return newRuleResponderFromBytes(data)
}

func newRuleResponderFromBytes(data []byte) (*RuleResponder, error) {
	var table map[string]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse reply table: %w", err)
	}
	fallback, ok := table[defaultKey]
	if !ok {
		return nil, errors.New("reply table has no default entry")
	}
	replies := make(map[string]string, len(table))
	for phrase, reply := range table {
		if phrase == defaultKey {
			continue
		}
		replies[strings.ToLower(phrase)] = reply
	}
	return &RuleResponder{replies: replies, fallback: fallback}, nil
}

func (r *RuleResponder) Respond(input string) string {
	if reply, ok := r.replies[strings.ToLower(input)]; ok {
		return reply
	}
	return r.fallback
}

// Phrases lists the recognised inputs; used by the UI help text.
func (r *RuleResponder) Phrases() []string {
	out := make([]string, 0, len(r.replies))
	for p := range r.replies {
		out = append(out, p)
	}
	return out
}
