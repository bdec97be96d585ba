package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/verdantai/verdant-agent/internal/adapters/llm"
	"github.com/verdantai/verdant-agent/internal/adapters/storage/memory"
	"github.com/verdantai/verdant-agent/internal/app/agents"
	"github.com/verdantai/verdant-agent/internal/app/chat"
	"github.com/verdantai/verdant-agent/internal/domain"
)

type noSearch struct{}

func (noSearch) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	return nil, domain.ErrSearchUnavailable
}

func newTestService() *chat.Service {
	llmClient := llm.NewMockLLM()
	registry := agents.NewRegistry(
		"simple-search",
		agents.NewSimpleSearchAgent(llmClient, noSearch{}, nil, 3, 20),
		agents.NewWorkflowAgent(llmClient, noSearch{}, nil, 3, 2, 20),
	)
	return chat.NewService(registry, memory.NewStore())
}

func TestRunTurnStartsThreadAndReplies(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	out, err := svc.RunTurn(ctx, chat.TurnInput{Message: "Hola, what can you do?"})
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if out.ThreadID == "" {
		t.Fatalf("expected a thread id, got empty")
	}
	if out.RunID == "" {
		t.Fatalf("expected a run id, got empty")
	}
	if out.Reply.Role != domain.RoleAssistant || out.Reply.Content == "" {
		t.Fatalf("expected non-empty assistant reply, got %+v", out.Reply)
	}
}

func TestRunTurnKeepsHistoryAcrossTurns(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	first, err := svc.RunTurn(ctx, chat.TurnInput{Message: "What is carbon accounting?"})
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	second, err := svc.RunTurn(ctx, chat.TurnInput{
		ThreadID: first.ThreadID,
		Message:  "And how do companies apply it?",
	})
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}
	if second.ThreadID != first.ThreadID {
		t.Fatalf("expected the same thread, got %s and %s", first.ThreadID, second.ThreadID)
	}

	msgs, err := svc.History(ctx, first.ThreadID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	// Two user messages and two assistant replies.
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[0].Role != domain.RoleUser || msgs[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected message order: %+v", msgs)
	}
}

func TestHistoryUnknownThread(t *testing.T) {
	svc := newTestService()

	_, err := svc.History(context.Background(), "nope")
	if !errors.Is(err, domain.ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound, got %v", err)
	}
}

func TestRunTurnUnknownAgent(t *testing.T) {
	svc := newTestService()

	_, err := svc.RunTurn(context.Background(), chat.TurnInput{
		AgentID: "does-not-exist",
		Message: "hello",
	})
	if !errors.Is(err, domain.ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestDeleteThreadRemovesHistory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	out, err := svc.RunTurn(ctx, chat.TurnInput{Message: "Hello"})
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if err := svc.DeleteThread(ctx, out.ThreadID); err != nil {
		t.Fatalf("DeleteThread failed: %v", err)
	}

	if _, err := svc.History(ctx, out.ThreadID); !errors.Is(err, domain.ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound after delete, got %v", err)
	}
}
