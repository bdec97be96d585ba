package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/verdantai/verdant-agent/internal/domain"
	"github.com/verdantai/verdant-agent/internal/observability"
)

type workflowPhase int

const (
	workflowDeciding workflowPhase = iota
	workflowPlanning
	workflowResearching
	workflowCompiling
	workflowAnswering
	workflowDone
)

// OutlinePlan is the structured output of the planning step.
type OutlinePlan struct {
	Outline []string `json:"outline"`
}

// WorkflowAgent produces a multi-section report: plan an outline, research
// and draft every section, then compile the drafts. Sections have no data
// dependency on each other, so they are drafted concurrently on a bounded
// worker pool; drafts slot into an index-addressed slice so the report keeps
// outline order regardless of completion order. A failed section is marked
// and noted by the compiler instead of aborting the report.
type WorkflowAgent struct {
	llm  domain.LLMClient
	step *searchStep
	now  func() time.Time

	workers    int
	maxHistory int
}

func NewWorkflowAgent(llm domain.LLMClient, search domain.SearchClient, crawl domain.CrawlClient, maxResults, workers, maxHistory int) *WorkflowAgent {
	if workers <= 0 {
		workers = 1
	}
	return &WorkflowAgent{
		llm: llm,
		step: &searchStep{
			llm:        llm,
			search:     search,
			crawl:      crawl,
			maxResults: maxResults,
			maxHistory: maxHistory,
		},
		now:        time.Now,
		workers:    workers,
		maxHistory: maxHistory,
	}
}

func (a *WorkflowAgent) ID() domain.AgentID {
	return "workflow"
}

func (a *WorkflowAgent) Description() string {
	return "A more advanced agent that creates detailed reports with multiple sections using web search."
}

func (a *WorkflowAgent) Run(ctx context.Context, state domain.AgentState, trace TraceFunc) (domain.AgentState, error) {
	log := observability.LoggerFromContext(ctx).With("agent", a.ID())

	for phase := workflowDeciding; phase != workflowDone; {
		switch phase {
		case workflowDeciding:
			state.ShouldSearch = decideSearch(ctx, a.llm, state, a.maxHistory)
			trace(NodeDecideSearch, state)
			log.Info("relevance gate decided", "should_search", state.ShouldSearch)
			if state.ShouldSearch {
				phase = workflowPlanning
			} else {
				// Off-topic or small talk: reply directly, skip the pipeline.
				phase = workflowAnswering
			}

		case workflowPlanning:
			outline, err := a.plan(ctx, state)
			if err != nil || len(outline) == 0 {
				log.Warn("planning failed, answering directly", "error", err)
				phase = workflowAnswering
				continue
			}
			state.Outline = outline
			trace(NodePlanOutline, state)
			log.Info("outline planned", "sections", len(outline))
			phase = workflowResearching

		case workflowResearching:
			state.SectionDrafts = a.researchAll(ctx, state)
			trace(NodeResearchSection, state)
			phase = workflowCompiling

		case workflowCompiling:
			state.Report = a.compile(ctx, state.SectionDrafts)
			trace(NodeCompileReport, state)
			state = state.Append(domain.Message{
				ID:        domain.MessageID(uuid.NewString()),
				ThreadID:  firstThreadID(state),
				Role:      domain.RoleAssistant,
				Content:   state.Report,
				CreatedAt: a.now(),
			}).ClearPipeline()
			trace(NodeGenerateAnswer, state)
			phase = workflowDone

		case workflowAnswering:
			answer, err := a.answer(ctx, state)
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
			phase = workflowDone
		}
	}

	return state, nil
}

func (a *WorkflowAgent) plan(ctx context.Context, state domain.AgentState) ([]string, error) {
	topic := state.LastUserMessage()

	var plan OutlinePlan
	err := a.llm.GenerateStructured(ctx, []domain.Message{
		domain.UserMessage(fmt.Sprintf(outlinePrompt, topic)),
	}, &plan)
	if err != nil {
		return nil, err
	}
	return plan.Outline, nil
}

// researchAll drafts every outline section on a worker pool capped at
// a.workers. Each goroutine writes only its own index, so the join is
// ordered by construction.
func (a *WorkflowAgent) researchAll(ctx context.Context, state domain.AgentState) []domain.SectionDraft {
	drafts := make([]domain.SectionDraft, len(state.Outline))

	p := pool.New().WithMaxGoroutines(a.workers)
	for i, title := range state.Outline {
		p.Go(func() {
			drafts[i] = a.researchSection(ctx, state, title)
		})
	}
	p.Wait()

	return drafts
}

func (a *WorkflowAgent) researchSection(ctx context.Context, state domain.AgentState, title string) domain.SectionDraft {
	results := a.step.run(ctx, state, title)

	sources := resultsBlock(results)
	if sources == "" {
		sources = "No search results are available for this section. Draft it from general knowledge and note the lack of sources."
	}

	draft, err := a.llm.Generate(ctx, []domain.Message{
		domain.UserMessage(fmt.Sprintf(sectionDraftPrompt, title, sources)),
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error("section draft failed", "section", title, "error", err)
		return domain.SectionDraft{Title: title, Failed: true}
	}

	return domain.SectionDraft{Title: title, Content: strings.TrimSpace(draft)}
}

// compile joins the drafts with headers. The introduction is best-effort:
// when the model call fails the report ships without one.
func (a *WorkflowAgent) compile(ctx context.Context, drafts []domain.SectionDraft) string {
	sections := make([]string, 0, len(drafts))
	for _, d := range drafts {
		body := d.Content
		if d.Failed {
			body = "_This section could not be completed._"
		}
		sections = append(sections, fmt.Sprintf("## %s\n\n%s", d.Title, body))
	}
	joined := strings.Join(sections, "\n\n")

	intro, err := a.llm.Generate(ctx, []domain.Message{
		domain.UserMessage(fmt.Sprintf(compileIntroPrompt, joined)),
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("report intro failed, compiling without it", "error", err)
		return joined
	}
	return strings.TrimSpace(intro) + "\n\n" + joined
}

func (a *WorkflowAgent) answer(ctx context.Context, state domain.AgentState) (string, error) {
	msgs := make([]domain.Message, 0, len(state.Messages)+1)
	msgs = append(msgs, domain.SystemMessage(answerSystemPrompt(nil, a.now())))
	msgs = append(msgs, tail(state.Messages, a.maxHistory)...)
	return a.llm.Generate(ctx, msgs)
}
