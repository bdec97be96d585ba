package domain

import "context"

// LLMClient defines how the core application talks to a hosted model.
type LLMClient interface {
	// Generate returns free-form text for the given message sequence.
	Generate(ctx context.Context, msgs []Message) (string, error)
	// GenerateStructured asks the model for JSON and unmarshals it into out.
	GenerateStructured(ctx context.Context, msgs []Message, out any) error
}

// SearchClient issues a query to a web search API.
// Returns an empty slice on zero matches and ErrSearchUnavailable on
// network/auth failure.
type SearchClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// CrawlClient fetches the readable content of a page.
type CrawlClient interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Checkpointer persists agent state keyed by thread id.
// Load returns (nil, nil) for an unknown thread.
type Checkpointer interface {
	Load(ctx context.Context, threadID ThreadID) (*AgentState, error)
	Save(ctx context.Context, threadID ThreadID, node string, state AgentState) error
	History(ctx context.Context, threadID ThreadID) ([]Checkpoint, error)
	ListThreads(ctx context.Context) ([]ThreadInfo, error)
	DeleteThread(ctx context.Context, threadID ThreadID) error
	Close() error
}
