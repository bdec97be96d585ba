package history

import (
	"context"
	"fmt"
	"time"

	"github.com/verdantai/verdant-agent/internal/app/agents"
	"github.com/verdantai/verdant-agent/internal/domain"
)

// StepInfo is one parsed step of a thread's checkpoint history.
type StepInfo struct {
	StepNumber    int                   `json:"step_number"`
	NodeName      string                `json:"node_name"`
	Timestamp     time.Time             `json:"timestamp"`
	Description   string                `json:"description"`
	Messages      []domain.Message      `json:"messages"`
	ShouldSearch  bool                  `json:"should_search,omitempty"`
	Outline       []string              `json:"outline,omitempty"`
	SectionDrafts []domain.SectionDraft `json:"section_drafts,omitempty"`
	Report        string                `json:"report,omitempty"`
}

// ParsedStateHistory is the structured view of a thread's checkpoints.
type ParsedStateHistory struct {
	ThreadID   domain.ThreadID `json:"thread_id"`
	TotalSteps int             `json:"total_steps"`
	Steps      []StepInfo      `json:"steps"`
}

// Service exposes the persisted checkpoint history of a thread, parsed into
// per-step summaries for inspection and debugging.
type Service struct {
	checkpointer domain.Checkpointer
}

func NewService(checkpointer domain.Checkpointer) *Service {
	return &Service{checkpointer: checkpointer}
}

func (s *Service) StateHistory(ctx context.Context, threadID domain.ThreadID) (*ParsedStateHistory, error) {
	cps, err := s.checkpointer.History(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint history: %w", err)
	}
	if len(cps) == 0 {
		return nil, domain.ErrThreadNotFound
	}

	steps := make([]StepInfo, 0, len(cps))
	for _, cp := range cps {
		steps = append(steps, StepInfo{
			StepNumber:    cp.Step,
			NodeName:      cp.Node,
			Timestamp:     cp.CreatedAt,
			Description:   describeNode(cp.Node, cp.State),
			Messages:      cp.State.Messages,
			ShouldSearch:  cp.State.ShouldSearch,
			Outline:       cp.State.Outline,
			SectionDrafts: cp.State.SectionDrafts,
			Report:        cp.State.Report,
		})
	}

	return &ParsedStateHistory{
		ThreadID:   threadID,
		TotalSteps: len(steps),
		Steps:      steps,
	}, nil
}

// RawHistory returns the unparsed checkpoints, for debugging.
func (s *Service) RawHistory(ctx context.Context, threadID domain.ThreadID) ([]domain.Checkpoint, error) {
	cps, err := s.checkpointer.History(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint history: %w", err)
	}
	if len(cps) == 0 {
		return nil, domain.ErrThreadNotFound
	}
	return cps, nil
}

func describeNode(node string, state domain.AgentState) string {
	switch node {
	case agents.NodeDecideSearch:
		if state.ShouldSearch {
			return "Analyzed the query: web search is needed"
		}
		return "Analyzed the query: answering without web search"
	case agents.NodeRunSearch:
		return "Searched the web for relevant information"
	case agents.NodeGenerateAnswer:
		return "Generated response based on available information"
	case agents.NodePlanOutline:
		return fmt.Sprintf("Planned a report outline with %d sections", len(state.Outline))
	case agents.NodeResearchSection:
		return fmt.Sprintf("Researched and drafted %d report sections", len(state.SectionDrafts))
	case agents.NodeCompileReport:
		return "Compiled the final report"
	default:
		return "Processing " + node
	}
}
