package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verdantai/verdant-agent/internal/domain"
)

// MockLLM is a deterministic stand-in used in local dev and tests.
// A few keyword rules keep both agents exercisable without credentials.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Generate(ctx context.Context, msgs []domain.Message) (string, error) {
	last := lastContent(msgs)
	if containsAny(joinContents(msgs), "search query", "formulate") {
		return "sustainability " + firstWords(last, 6), nil
	}
	return fmt.Sprintf("I hear you. You said %q. This is a mocked sustainability reply.", firstWords(last, 12)), nil
}

func (m *MockLLM) GenerateStructured(ctx context.Context, msgs []domain.Message, out any) error {
	all := joinContents(msgs)
	var raw string
	switch {
	case containsAny(all, "outline"):
		raw = `{"outline":["Background","Current Practices","Outlook"]}`
	case containsAny(all, "report", "research", "latest"):
		raw = `{"should_search":true}`
	default:
		raw = `{"should_search":false}`
	}
	return json.Unmarshal([]byte(raw), out)
}

func lastContent(msgs []domain.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}

func joinContents(msgs []domain.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(strings.ToLower(m.Content))
		b.WriteString("\n")
	}
	return b.String()
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
