package agents

import (
	"context"

	"github.com/verdantai/verdant-agent/internal/domain"
)

// Node names recorded in checkpoints, one per state-machine transition.
const (
	NodeDecideSearch    = "decide_search"
	NodeRunSearch       = "run_search"
	NodeGenerateAnswer  = "generate_answer"
	NodePlanOutline     = "plan_outline"
	NodeResearchSection = "research_section"
	NodeCompileReport   = "compile_report"
)

// TraceFunc is called after each node of an agent's state machine with the
// state as it stands. The chat service uses it to checkpoint progress.
type TraceFunc func(node string, state domain.AgentState)

// Agent runs one conversation turn over an AgentState and returns the
// updated state with the assistant's reply appended.
type Agent interface {
	ID() domain.AgentID
	Description() string
	Run(ctx context.Context, state domain.AgentState, trace TraceFunc) (domain.AgentState, error)
}

// Info describes a registered agent for the /info endpoint.
type Info struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Registry holds the available agents and the configured default.
type Registry struct {
	agents    map[domain.AgentID]Agent
	order     []domain.AgentID
	defaultID domain.AgentID
}

func NewRegistry(defaultID domain.AgentID, list ...Agent) *Registry {
	r := &Registry{
		agents:    make(map[domain.AgentID]Agent, len(list)),
		defaultID: defaultID,
	}
	for _, a := range list {
		r.agents[a.ID()] = a
		r.order = append(r.order, a.ID())
	}
	return r
}

// Get resolves an agent id, falling back to the default when id is empty.
func (r *Registry) Get(id domain.AgentID) (Agent, error) {
	if id == "" {
		id = r.defaultID
	}
	a, ok := r.agents[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	return a, nil
}

func (r *Registry) DefaultID() domain.AgentID {
	return r.defaultID
}

func (r *Registry) Infos() []Info {
	out := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, Info{
			Key:         string(id),
			Description: r.agents[id].Description(),
		})
	}
	return out
}
