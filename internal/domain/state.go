package domain

import "time"

// SectionDraft is the generated text for one outline entry.
// Drafts are order-correlated with the outline: draft i belongs to outline[i].
type SectionDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Failed  bool   `json:"failed,omitempty"`
}

// SearchResult is one item returned by the search client, optionally enriched
// with crawled page content. Ephemeral: used within a single agent turn and
// never persisted.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Content string `json:"content,omitempty"`
	Index   int    `json:"index"` // 1-based, for inline citations
}

// AgentState is the snapshot persisted between turns of a thread. It is owned
// exclusively by one in-flight agent invocation.
type AgentState struct {
	Messages      []Message      `json:"messages"`
	ShouldSearch  bool           `json:"should_search,omitempty"`
	Outline       []string       `json:"outline,omitempty"`
	SectionDrafts []SectionDraft `json:"section_drafts,omitempty"`
	Report        string         `json:"report,omitempty"`
}

// LastUserMessage returns the content of the most recent user message, or "".
func (s AgentState) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// Append returns a copy of the state with msg added to the history.
func (s AgentState) Append(msg Message) AgentState {
	msgs := make([]Message, 0, len(s.Messages)+1)
	msgs = append(msgs, s.Messages...)
	msgs = append(msgs, msg)
	s.Messages = msgs
	return s
}

// ClearPipeline resets the per-run workflow fields, keeping the history.
// Called once a report or answer has been produced.
func (s AgentState) ClearPipeline() AgentState {
	s.ShouldSearch = false
	s.Outline = nil
	s.SectionDrafts = nil
	s.Report = ""
	return s
}

// Checkpoint is one persisted step of a thread: the state snapshot after a
// named node of the agent state machine ran.
type Checkpoint struct {
	ThreadID  ThreadID   `json:"thread_id"`
	Step      int        `json:"step"`
	Node      string     `json:"node"`
	State     AgentState `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
}
