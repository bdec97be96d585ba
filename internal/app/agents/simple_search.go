package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verdantai/verdant-agent/internal/domain"
	"github.com/verdantai/verdant-agent/internal/observability"
)

type simplePhase int

const (
	simpleDeciding simplePhase = iota
	simpleSearching
	simpleAnswering
	simpleDone
)

// SimpleSearchAgent answers a single turn: decide whether the question needs
// external information, optionally search, then synthesize an answer that
// cites its sources. The flow is an explicit state machine; every transition
// depends only on the current state and the result of one external call.
type SimpleSearchAgent struct {
	llm  domain.LLMClient
	step *searchStep
	now  func() time.Time

	maxHistory int
}

func NewSimpleSearchAgent(llm domain.LLMClient, search domain.SearchClient, crawl domain.CrawlClient, maxResults, maxHistory int) *SimpleSearchAgent {
	return &SimpleSearchAgent{
		llm: llm,
		step: &searchStep{
			llm:        llm,
			search:     search,
			crawl:      crawl,
			maxResults: maxResults,
			maxHistory: maxHistory,
		},
		now:        time.Now,
		maxHistory: maxHistory,
	}
}

func (a *SimpleSearchAgent) ID() domain.AgentID {
	return "simple-search"
}

func (a *SimpleSearchAgent) Description() string {
	return "A simple search agent that can answer questions using web search."
}

func (a *SimpleSearchAgent) Run(ctx context.Context, state domain.AgentState, trace TraceFunc) (domain.AgentState, error) {
	log := observability.LoggerFromContext(ctx).With("agent", a.ID())

	// Search results live only for the duration of this turn.
	var results []domain.SearchResult

	for phase := simpleDeciding; phase != simpleDone; {
		switch phase {
		case simpleDeciding:
			state.ShouldSearch = decideSearch(ctx, a.llm, state, a.maxHistory)
			trace(NodeDecideSearch, state)
			log.Info("relevance gate decided", "should_search", state.ShouldSearch)
			if state.ShouldSearch {
				phase = simpleSearching
			} else {
				phase = simpleAnswering
			}

		case simpleSearching:
			results = a.step.run(ctx, state, "")
			trace(NodeRunSearch, state)
			phase = simpleAnswering

		case simpleAnswering:
			answer, err := a.answer(ctx, state, results)
			if err != nil {
				return state, fmt.Errorf("generating answer: %w", err)
			}
			state = state.Append(domain.Message{
				ID:        domain.MessageID(uuid.NewString()),
				ThreadID:  firstThreadID(state),
				Role:      domain.RoleAssistant,
				Content:   answer,
				CreatedAt: a.now(),
			}).ClearPipeline()
			trace(NodeGenerateAnswer, state)
			phase = simpleDone
		}
	}

	return state, nil
}

func (a *SimpleSearchAgent) answer(ctx context.Context, state domain.AgentState, results []domain.SearchResult) (string, error) {
	msgs := make([]domain.Message, 0, len(state.Messages)+1)
	msgs = append(msgs, domain.SystemMessage(answerSystemPrompt(results, a.now())))
	msgs = append(msgs, tail(state.Messages, a.maxHistory)...)
	return a.llm.Generate(ctx, msgs)
}

func tail(msgs []domain.Message, limit int) []domain.Message {
	if limit > 0 && len(msgs) > limit {
		return msgs[len(msgs)-limit:]
	}
	return msgs
}

func firstThreadID(state domain.AgentState) domain.ThreadID {
	for _, m := range state.Messages {
		if m.ThreadID != "" {
			return m.ThreadID
		}
	}
	return ""
}
