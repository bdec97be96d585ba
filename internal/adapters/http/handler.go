package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/verdantai/verdant-agent/internal/app/agents"
	"github.com/verdantai/verdant-agent/internal/app/chat"
	"github.com/verdantai/verdant-agent/internal/app/history"
	"github.com/verdantai/verdant-agent/internal/domain"
)

const apiPrefix = "/api/v1"

type Server struct {
	chat     *chat.Service
	history  *history.Service
	registry *agents.Registry
}

func NewServer(chatSvc *chat.Service, historySvc *history.Service, registry *agents.Registry) http.Handler {
	s := &Server{
		chat:     chatSvc,
		history:  historySvc,
		registry: registry,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+apiPrefix+"/health", s.handleHealth)
	mux.HandleFunc("GET "+apiPrefix+"/info", s.handleInfo)
	mux.HandleFunc("POST "+apiPrefix+"/chat", s.handleChat)
	mux.HandleFunc("POST "+apiPrefix+"/chat/wait", s.handleChatWait)
	mux.HandleFunc("POST "+apiPrefix+"/history", s.handleHistory)
	mux.HandleFunc("POST "+apiPrefix+"/state_history", s.handleStateHistory)
	mux.HandleFunc("POST "+apiPrefix+"/state_history/raw", s.handleRawStateHistory)
	mux.HandleFunc("GET "+apiPrefix+"/threads/show_all", s.handleListThreads)
	mux.HandleFunc("DELETE "+apiPrefix+"/threads/delete", s.handleDeleteThread)

	return chainMiddlewares(mux, withRequestID, withLogging, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatInput struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
	AgentID  string `json:"agent_id,omitempty"`
}

type chatMessageResponse struct {
	Type     string    `json:"type"`
	Content  string    `json:"content"`
	RunID    string    `json:"run_id,omitempty"`
	ThreadID string    `json:"thread_id,omitempty"`
	Created  time.Time `json:"created_at,omitzero"`
}

type chatRunResponse struct {
	RunID    string `json:"run_id"`
	ThreadID string `json:"thread_id"`
}

type historyInput struct {
	ThreadID string `json:"thread_id"`
	AgentID  string `json:"agent_id,omitempty"`
}

type chatHistoryResponse struct {
	Messages []chatMessageResponse `json:"messages"`
}

type serviceMetadata struct {
	Agents       []agents.Info `json:"agents"`
	DefaultAgent string        `json:"default_agent"`
}

type healthResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Message: "ALL IS WELL", Status: http.StatusOK})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, serviceMetadata{
		Agents:       s.registry.Infos(),
		DefaultAgent: string(s.registry.DefaultID()),
	})
}

func (s *Server) handleChatWait(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeChatInput(w, r)
	if !ok {
		return
	}

	out, err := s.chat.RunTurn(r.Context(), chat.TurnInput{
		ThreadID: domain.ThreadID(in.ThreadID),
		AgentID:  domain.AgentID(in.AgentID),
		Message:  in.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatMessageResponse{
		Type:     "ai",
		Content:  out.Reply.Content,
		RunID:    string(out.RunID),
		ThreadID: string(out.ThreadID),
		Created:  out.Reply.CreatedAt,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeChatInput(w, r)
	if !ok {
		return
	}

	runID, threadID, err := s.chat.StartTurn(r.Context(), chat.TurnInput{
		ThreadID: domain.ThreadID(in.ThreadID),
		AgentID:  domain.AgentID(in.AgentID),
		Message:  in.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, chatRunResponse{
		RunID:    string(runID),
		ThreadID: string(threadID),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var in historyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if in.ThreadID == "" {
		badRequest(w, "thread_id is required")
		return
	}

	msgs, err := s.chat.History(r.Context(), domain.ThreadID(in.ThreadID))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := chatHistoryResponse{Messages: make([]chatMessageResponse, 0, len(msgs))}
	for _, m := range msgs {
		msgType := "human"
		if m.Role == domain.RoleAssistant {
			msgType = "ai"
		}
		resp.Messages = append(resp.Messages, chatMessageResponse{
			Type:    msgType,
			Content: m.Content,
			Created: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStateHistory(w http.ResponseWriter, r *http.Request) {
	var in historyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if in.ThreadID == "" {
		badRequest(w, "thread_id is required")
		return
	}

	parsed, err := s.history.StateHistory(r.Context(), domain.ThreadID(in.ThreadID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

func (s *Server) handleRawStateHistory(w http.ResponseWriter, r *http.Request) {
	var in historyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if in.ThreadID == "" {
		badRequest(w, "thread_id is required")
		return
	}

	raw, err := s.history.RawHistory(r.Context(), domain.ThreadID(in.ThreadID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := s.chat.ListThreads(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if threads == nil {
		threads = []domain.ThreadInfo{}
	}
	writeJSON(w, http.StatusOK, threads)
}

func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("thread_id")
	if threadID == "" {
		badRequest(w, "thread_id is required")
		return
	}

	if err := s.chat.DeleteThread(r.Context(), domain.ThreadID(threadID)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func decodeChatInput(w http.ResponseWriter, r *http.Request) (chatInput, bool) {
	var in chatInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, "invalid JSON body")
		return in, false
	}
	if strings.TrimSpace(in.Message) == "" {
		badRequest(w, "message is required")
		return in, false
	}
	return in, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrThreadNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "thread not found"})
	case errors.Is(err, domain.ErrAgentNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agent not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
