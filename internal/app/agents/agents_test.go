package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/verdantai/verdant-agent/internal/domain"
)

// scriptedLLM answers by prompt shape: relevance decisions, outlines, search
// queries, section drafts and final answers are all keyed off the prompt text.
type scriptedLLM struct {
	decide  bool
	outline []string

	failSections map[string]bool          // section title -> draft call errors
	sectionDelay map[string]time.Duration // simulate out-of-order completion

	mu            sync.Mutex
	draftOrder    []string // titles in completion order
	generateCalls int
}

func (s *scriptedLLM) Generate(ctx context.Context, msgs []domain.Message) (string, error) {
	s.mu.Lock()
	s.generateCalls++
	s.mu.Unlock()

	all := joinAll(msgs)
	switch {
	case strings.Contains(all, "search assistant"):
		return "scripted query", nil

	case strings.Contains(all, "Write a 200-300 word section titled"):
		title := s.matchTitle(all)
		if d := s.sectionDelay[title]; d > 0 {
			time.Sleep(d)
		}
		s.mu.Lock()
		s.draftOrder = append(s.draftOrder, title)
		s.mu.Unlock()
		if s.failSections[title] {
			return "", fmt.Errorf("%w: scripted section failure", domain.ErrLLMUnavailable)
		}
		return "draft for " + title, nil

	case strings.Contains(all, "report editor"):
		return "Scripted introduction.", nil

	default:
		return "scripted answer", nil
	}
}

func (s *scriptedLLM) GenerateStructured(ctx context.Context, msgs []domain.Message, out any) error {
	all := joinAll(msgs)
	if strings.Contains(all, "outline") {
		*(out.(*OutlinePlan)) = OutlinePlan{Outline: s.outline}
		return nil
	}
	*(out.(*SearchDecision)) = SearchDecision{ShouldSearch: s.decide}
	return nil
}

func (s *scriptedLLM) matchTitle(prompt string) string {
	for title := range s.failSections {
		if strings.Contains(prompt, fmt.Sprintf("%q", title)) {
			return title
		}
	}
	for title := range s.sectionDelay {
		if strings.Contains(prompt, fmt.Sprintf("%q", title)) {
			return title
		}
	}
	for _, title := range s.outline {
		if strings.Contains(prompt, fmt.Sprintf("%q", title)) {
			return title
		}
	}
	return ""
}

func joinAll(msgs []domain.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// fakeSearch counts calls and serves a fixed script of responses.
type fakeSearch struct {
	mu      sync.Mutex
	calls   int
	results []domain.SearchResult
	err     error
	empty   bool
}

func (f *fakeSearch) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return []domain.SearchResult{}, nil
	}
	return f.results, nil
}

func (f *fakeSearch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeCrawl counts calls and returns fixed content.
type fakeCrawl struct {
	mu      sync.Mutex
	calls   int
	content string
}

func (f *fakeCrawl) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.content, nil
}

func (f *fakeCrawl) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func userState(text string) domain.AgentState {
	return domain.AgentState{}.Append(domain.Message{
		ID:       "m1",
		ThreadID: "t1",
		Role:     domain.RoleUser,
		Content:  text,
	})
}

func noTrace(string, domain.AgentState) {}
