package agents

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/verdantai/verdant-agent/internal/domain"
)

const classifierPrompt = `You are a classifier that must decide whether the user's question requires a live web search.
The assistant only answers sustainability-related questions; off-topic or small-talk input never needs a search.
Reply with JSON of the form {"should_search": true} or {"should_search": false}.`

const answerInstructions = `You are a sustainability-focused digital assistant. Your primary task is to support in-depth research and answer questions related to sustainability, environmental impact, green technologies, industry practices, and corporate sustainability reports.

If a query is ambiguous or only partially relevant, ask a clarifying question to guide the conversation back to sustainability.
Do not search the internet or generate long replies for unrelated queries. Your focus is always sustainability.

When declining a query, do so professionally and concisely. Keep your tone helpful and respectful. Here are some example behaviors:
- If the user asks "How tall is the Eiffel Tower?" reply with:
    > I'm here to assist with sustainability-related questions. Feel free to ask about environmental topics or industry sustainability practices.

- If the user says "Tell me a joke", respond with:
    > My focus is on providing accurate and helpful sustainability insights. Let me know if you'd like to explore a topic in that area.

Today is %s.
%s`

const queryPrompt = `You are a search assistant. Formulate a short web search query based on the conversation history.%s
Reply with the query only, no commentary.`

const retryQueryPrompt = `You are a search assistant. The previous search query%s returned no good results.
This is retry attempt %d of %d.
Create a more specific and detailed search query that will yield better results.
Consider using more technical terms, alternative keywords, or rephrasing the query entirely.
Reply with the query only, no commentary.`

const outlinePrompt = `You are a senior sustainability analyst. Write a 3 bullet point high-level outline for an in-depth report on:
«%s»
Reply with JSON of the form {"outline": ["Section title", ...]}.`

const sectionDraftPrompt = `Write a 200-300 word section titled %q.
Use ONLY the sources provided below and cite each claim inline with [url] at the end of the claim.
For example:
According to the search results, the sky is blue [https://example.com].

The search results include both snippets and, when available, full content crawled from the page.
Prefer the full content when available to provide more detailed and accurate information.

Following search results are available:
%s`

const compileIntroPrompt = `You are the report editor. Write a 2-3 sentence introduction for the report below. Reply with the introduction only; the sections are appended unchanged afterwards.

%s`

// historyBlock renders the last limit messages as a plain-text transcript.
func historyBlock(msgs []domain.Message, limit int) string {
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// resultsBlock serializes search results for prompt context, "" when empty.
func resultsBlock(results []domain.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return ""
	}
	return "Search Results:\n" + string(raw)
}

func answerSystemPrompt(results []domain.SearchResult, now time.Time) string {
	context := resultsBlock(results)
	if context != "" {
		context = "\nWhen answering using the search results, cite the claims that require a citation with [url] at the end of the claim.\n\n" + context
	}
	return fmt.Sprintf(answerInstructions, now.Format("2006-01-02T15:04:05"), context)
}
