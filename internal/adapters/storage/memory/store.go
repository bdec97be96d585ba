package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/verdantai/verdant-agent/internal/domain"
)

// Store is an in-memory implementation of domain.Checkpointer.
// It is NOT persistent and is only suitable for development / local mode.
type Store struct {
	mu          sync.RWMutex
	checkpoints map[domain.ThreadID][]domain.Checkpoint
}

func NewStore() *Store {
	return &Store{
		checkpoints: make(map[domain.ThreadID][]domain.Checkpoint),
	}
}

func (s *Store) Load(ctx context.Context, threadID domain.ThreadID) (*domain.AgentState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cps := s.checkpoints[threadID]
	if len(cps) == 0 {
		return nil, nil
	}
	state, err := cloneState(cps[len(cps)-1].State)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) Save(ctx context.Context, threadID domain.ThreadID, node string, state domain.AgentState) error {
	cloned, err := cloneState(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkpoints[threadID] = append(s.checkpoints[threadID], domain.Checkpoint{
		ThreadID:  threadID,
		Step:      len(s.checkpoints[threadID]) + 1,
		Node:      node,
		State:     cloned,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *Store) History(ctx context.Context, threadID domain.ThreadID) ([]domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cps := s.checkpoints[threadID]
	out := make([]domain.Checkpoint, len(cps))
	copy(out, cps)
	return out, nil
}

func (s *Store) ListThreads(ctx context.Context) ([]domain.ThreadInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ThreadInfo, 0, len(s.checkpoints))
	for id, cps := range s.checkpoints {
		if len(cps) == 0 {
			continue
		}
		out = append(out, domain.ThreadInfo{
			ID:        id,
			Steps:     len(cps),
			UpdatedAt: cps[len(cps)-1].CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) DeleteThread(ctx context.Context, threadID domain.ThreadID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.checkpoints, threadID)
	return nil
}

func (s *Store) Close() error {
	return nil
}

// cloneState deep-copies a state so callers cannot mutate stored snapshots.
func cloneState(in domain.AgentState) (domain.AgentState, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return domain.AgentState{}, err
	}
	var out domain.AgentState
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.AgentState{}, err
	}
	return out, nil
}
