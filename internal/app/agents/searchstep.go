package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/verdantai/verdant-agent/internal/domain"
	"github.com/verdantai/verdant-agent/internal/observability"
)

// searchRetryBudget bounds the query-reformulation retries after an empty or
// failed search. Worst case is three provider calls per step.
const searchRetryBudget = 2

// SearchDecision is the structured output of the relevance gate.
type SearchDecision struct {
	ShouldSearch bool `json:"should_search"`
}

// decideSearch runs the relevance gate. A gate failure degrades to "no
// search" so the turn can still answer.
func decideSearch(ctx context.Context, llm domain.LLMClient, state domain.AgentState, maxHistory int) bool {
	msgs := []domain.Message{
		domain.SystemMessage(classifierPrompt),
		domain.UserMessage("Conversation history:\n" + historyBlock(state.Messages, maxHistory)),
	}

	var decision SearchDecision
	if err := llm.GenerateStructured(ctx, msgs, &decision); err != nil {
		observability.LoggerFromContext(ctx).Warn("relevance gate failed, skipping search", "error", err)
		return false
	}
	return decision.ShouldSearch
}

// searchStep issues a search for one question or report section, retrying
// with LLM-reformulated queries up to the budget, then optionally crawls the
// results. It never fails the turn: exhaustion returns nil results.
type searchStep struct {
	llm        domain.LLMClient
	search     domain.SearchClient
	crawl      domain.CrawlClient // nil when no crawler is configured
	maxResults int
	maxHistory int
}

// run searches for the conversation topic; focus narrows the query to one
// report section when non-empty.
func (s *searchStep) run(ctx context.Context, state domain.AgentState, focus string) []domain.SearchResult {
	log := observability.LoggerFromContext(ctx)

	query := s.formulate(ctx, state, focus)
	results, err := s.search.Search(ctx, query, s.maxResults)

	for attempt := 1; attempt <= searchRetryBudget && (err != nil || len(results) == 0); attempt++ {
		if err != nil {
			log.Warn("search failed, reformulating", "attempt", attempt, "error", err)
		} else {
			log.Info("search returned no results, reformulating", "attempt", attempt, "query", query)
		}
		query = s.reformulate(ctx, state, focus, query, attempt)
		results, err = s.search.Search(ctx, query, s.maxResults)
	}

	if err != nil || len(results) == 0 {
		log.Warn("search budget exhausted, proceeding without sources", "focus", focus)
		return nil
	}

	return s.enrich(ctx, results)
}

func (s *searchStep) formulate(ctx context.Context, state domain.AgentState, focus string) string {
	var focusLine string
	if focus != "" {
		focusLine = fmt.Sprintf(" The search query must be focused on %q.", focus)
	}
	msgs := []domain.Message{
		domain.SystemMessage(fmt.Sprintf(queryPrompt, focusLine)),
		domain.UserMessage("Conversation history:\n" + historyBlock(state.Messages, s.maxHistory)),
	}

	query, err := s.llm.Generate(ctx, msgs)
	if err != nil || strings.TrimSpace(query) == "" {
		// Fall back to the raw topic when the model cannot help.
		if focus != "" {
			return focus
		}
		return state.LastUserMessage()
	}
	return strings.TrimSpace(query)
}

func (s *searchStep) reformulate(ctx context.Context, state domain.AgentState, focus, prev string, attempt int) string {
	var focusPart string
	if focus != "" {
		focusPart = fmt.Sprintf(" for %q", focus)
	}
	msgs := []domain.Message{
		domain.SystemMessage(fmt.Sprintf(retryQueryPrompt, focusPart, attempt, searchRetryBudget)),
		domain.UserMessage(fmt.Sprintf(
			"Previous failed query: %s\nConversation history:\n%s",
			prev, historyBlock(state.Messages, s.maxHistory),
		)),
	}

	query, err := s.llm.Generate(ctx, msgs)
	if err != nil || strings.TrimSpace(query) == "" {
		return prev
	}
	return strings.TrimSpace(query)
}

// enrich crawls each result's page when a crawler is configured. Crawl
// failures leave the snippet-only result in place.
func (s *searchStep) enrich(ctx context.Context, results []domain.SearchResult) []domain.SearchResult {
	if s.crawl == nil {
		return results
	}
	for i, r := range results {
		if r.URL == "" {
			continue
		}
		content, err := s.crawl.Fetch(ctx, r.URL)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("crawl failed", "url", r.URL, "error", err)
			continue
		}
		results[i].Content = content
	}
	return results
}
