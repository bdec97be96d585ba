package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verdantai/verdant-agent/internal/app/agents"
	"github.com/verdantai/verdant-agent/internal/domain"
	"github.com/verdantai/verdant-agent/internal/observability"
)

// Service runs conversation turns: it resolves the thread, loads persisted
// state, invokes the selected agent, and checkpoints every state-machine
// node. Turns of the same thread are serialized with a per-thread lock so
// checkpoint writes never interleave.
type Service struct {
	registry     *agents.Registry
	checkpointer domain.Checkpointer
	now          func() time.Time

	mu    sync.Mutex
	locks map[domain.ThreadID]*sync.Mutex
}

func NewService(registry *agents.Registry, checkpointer domain.Checkpointer) *Service {
	return &Service{
		registry:     registry,
		checkpointer: checkpointer,
		now:          time.Now,
		locks:        make(map[domain.ThreadID]*sync.Mutex),
	}
}

type TurnInput struct {
	ThreadID domain.ThreadID // empty starts a new thread
	AgentID  domain.AgentID  // empty selects the default agent
	Message  string
}

type TurnOutput struct {
	ThreadID domain.ThreadID
	RunID    domain.RunID
	Reply    domain.Message
}

// RunTurn executes one turn synchronously and returns the assistant reply.
func (s *Service) RunTurn(ctx context.Context, in TurnInput) (*TurnOutput, error) {
	agent, err := s.registry.Get(in.AgentID)
	if err != nil {
		return nil, err
	}

	threadID := in.ThreadID
	if threadID == "" {
		threadID = domain.ThreadID(uuid.NewString())
	}
	runID := domain.RunID(uuid.NewString())
	ctx = observability.WithRunID(ctx, string(runID))

	log := observability.LoggerFromContext(ctx).With(
		"thread_id", threadID,
		"agent", agent.ID(),
	)
	log.Info("turn started")

	unlock := s.lockThread(threadID)
	defer unlock()

	loaded, err := s.checkpointer.Load(ctx, threadID)
	if err != nil {
		log.Error("failed to load state", "error", err)
		return nil, fmt.Errorf("loading state: %w", err)
	}
	state := domain.AgentState{}
	if loaded != nil {
		state = *loaded
	}

	state = state.Append(domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		ThreadID:  threadID,
		Role:      domain.RoleUser,
		Content:   in.Message,
		CreatedAt: s.now(),
	})

	trace := func(node string, st domain.AgentState) {
		if err := s.checkpointer.Save(ctx, threadID, node, st); err != nil {
			log.Error("failed to save checkpoint", "node", node, "error", err)
		}
	}

	state, err = agent.Run(ctx, state, trace)
	if err != nil {
		log.Error("agent run failed", "error", err)
		return nil, err
	}

	reply := lastAssistantMessage(state)
	if reply == nil {
		return nil, fmt.Errorf("agent produced no reply")
	}

	log.Info("turn completed")
	return &TurnOutput{
		ThreadID: threadID,
		RunID:    runID,
		Reply:    *reply,
	}, nil
}

// StartTurn launches a turn in the background and returns immediately with
// the run and thread ids. Failures are logged; callers observe progress via
// the state-history endpoint.
func (s *Service) StartTurn(ctx context.Context, in TurnInput) (domain.RunID, domain.ThreadID, error) {
	if _, err := s.registry.Get(in.AgentID); err != nil {
		return "", "", err
	}

	if in.ThreadID == "" {
		in.ThreadID = domain.ThreadID(uuid.NewString())
	}
	runID := domain.RunID(uuid.NewString())

	// Detach from the request context but keep request-scoped log fields.
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		runCtx, cancel := context.WithTimeout(bgCtx, 10*time.Minute)
		defer cancel()
		if _, err := s.RunTurn(runCtx, in); err != nil {
			observability.LoggerFromContext(runCtx).Error("background turn failed",
				"thread_id", in.ThreadID, "error", err)
		}
	}()

	return runID, in.ThreadID, nil
}

// History returns the full message timeline of a thread.
func (s *Service) History(ctx context.Context, threadID domain.ThreadID) ([]domain.Message, error) {
	state, err := s.checkpointer.Load(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	if state == nil {
		return nil, domain.ErrThreadNotFound
	}
	return state.Messages, nil
}

func (s *Service) ListThreads(ctx context.Context) ([]domain.ThreadInfo, error) {
	return s.checkpointer.ListThreads(ctx)
}

func (s *Service) DeleteThread(ctx context.Context, threadID domain.ThreadID) error {
	return s.checkpointer.DeleteThread(ctx, threadID)
}

func (s *Service) lockThread(threadID domain.ThreadID) func() {
	s.mu.Lock()
	lock, ok := s.locks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[threadID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func lastAssistantMessage(state domain.AgentState) *domain.Message {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == domain.RoleAssistant {
			return &state.Messages[i]
		}
	}
	return nil
}
