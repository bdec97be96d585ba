package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/verdantai/verdant-agent/internal/adapters/http"
	"github.com/verdantai/verdant-agent/internal/adapters/llm"
	"github.com/verdantai/verdant-agent/internal/adapters/storage/memory"
	"github.com/verdantai/verdant-agent/internal/app/agents"
	"github.com/verdantai/verdant-agent/internal/app/chat"
	"github.com/verdantai/verdant-agent/internal/app/history"
	"github.com/verdantai/verdant-agent/internal/domain"
)

type noSearch struct{}

func (noSearch) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	return []domain.SearchResult{}, nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	llmClient := llm.NewMockLLM()
	store := memory.NewStore()
	registry := agents.NewRegistry(
		"simple-search",
		agents.NewSimpleSearchAgent(llmClient, noSearch{}, nil, 3, 20),
		agents.NewWorkflowAgent(llmClient, noSearch{}, nil, 3, 2, 20),
	)

	chatSvc := chat.NewService(registry, store)
	historySvc := history.NewService(store)

	return httpadapter.NewServer(chatSvc, historySvc, registry)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestInfoListsAgents(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Agents       []agents.Info `json:"agents"`
		DefaultAgent string        `json:"default_agent"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(resp.Agents))
	}
	if resp.DefaultAgent != "simple-search" {
		t.Fatalf("expected default simple-search, got %q", resp.DefaultAgent)
	}
}

func TestChatWaitThenHistory(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"message":"Hello, what do you cover?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/wait", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var chatResp struct {
		Type     string `json:"type"`
		Content  string `json:"content"`
		ThreadID string `json:"thread_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &chatResp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if chatResp.Type != "ai" || chatResp.Content == "" || chatResp.ThreadID == "" {
		t.Fatalf("unexpected chat response: %+v", chatResp)
	}

	// History of the new thread has the user message and the reply.
	histBody, _ := json.Marshal(map[string]string{"thread_id": chatResp.ThreadID})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/history", bytes.NewReader(histBody))
	w = httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var histResp struct {
		Messages []struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &histResp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(histResp.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(histResp.Messages))
	}
	if histResp.Messages[0].Type != "human" || histResp.Messages[1].Type != "ai" {
		t.Fatalf("unexpected message types: %+v", histResp.Messages)
	}
}

func TestChatValidation(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/wait", bytes.NewReader([]byte(`{"message":"  "}`)))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHistoryUnknownThreadIs404(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"thread_id":"missing"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/history", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUnknownAgentIs404(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"message":"hello","agent_id":"nope"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/wait", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestStateHistoryAfterTurn(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"message":"Hi there"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/wait", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var chatResp struct {
		ThreadID string `json:"thread_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &chatResp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	shBody, _ := json.Marshal(map[string]string{"thread_id": chatResp.ThreadID})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/state_history", bytes.NewReader(shBody))
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var parsed struct {
		TotalSteps int `json:"total_steps"`
		Steps      []struct {
			NodeName string `json:"node_name"`
		} `json:"steps"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.TotalSteps < 2 {
		t.Fatalf("expected at least decide and answer steps, got %d", parsed.TotalSteps)
	}
	if parsed.Steps[0].NodeName != agents.NodeDecideSearch {
		t.Fatalf("expected first step %s, got %s", agents.NodeDecideSearch, parsed.Steps[0].NodeName)
	}
}

func TestDeleteThread(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"message":"Hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/wait", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var chatResp struct {
		ThreadID string `json:"thread_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &chatResp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/threads/delete?thread_id="+chatResp.ThreadID, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/threads/show_all", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var threads []domain.ThreadInfo
	if err := json.Unmarshal(w.Body.Bytes(), &threads); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(threads) != 0 {
		t.Fatalf("expected no threads after delete, got %d", len(threads))
	}
}
