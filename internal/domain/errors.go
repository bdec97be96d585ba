package domain

import "errors"

var (
	// ErrSearchUnavailable: the search provider is unreachable or erroring.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrCrawlUnavailable: the crawler service is unreachable or erroring.
	ErrCrawlUnavailable = errors.New("crawl unavailable")

	// ErrLLMUnavailable: the model provider is unreachable or erroring.
	ErrLLMUnavailable = errors.New("llm unavailable")

	// ErrLLMRateLimited: the model provider returned a rate-limit response
	// after the retry budget was exhausted.
	ErrLLMRateLimited = errors.New("llm rate limited")

	// ErrThreadNotFound: no persisted state exists for the thread id.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrAgentNotFound: the requested agent id is not registered.
	ErrAgentNotFound = errors.New("agent not found")
)
