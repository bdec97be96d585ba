package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/verdantai/verdant-agent/internal/adapters/http"
	"github.com/verdantai/verdant-agent/internal/adapters/crawl"
	"github.com/verdantai/verdant-agent/internal/adapters/llm"
	"github.com/verdantai/verdant-agent/internal/adapters/search"
	"github.com/verdantai/verdant-agent/internal/adapters/storage"
	"github.com/verdantai/verdant-agent/internal/app/agents"
	"github.com/verdantai/verdant-agent/internal/app/chat"
	"github.com/verdantai/verdant-agent/internal/app/history"
	"github.com/verdantai/verdant-agent/internal/config"
	"github.com/verdantai/verdant-agent/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// LLM provider
	var (
		llmClient domain.LLMClient
		err       error
	)
	switch cfg.LLMProvider {
	case config.ProviderAzure:
		log.Println("[LLM] Using Azure OpenAI client")
		llmClient, err = llm.NewAzureClient(cfg)
		if err != nil {
			log.Fatalf("error initializing Azure OpenAI client: %v", err)
		}
	case config.ProviderGemini:
		log.Println("[LLM] Using Gemini (Vertex AI) client")
		llmClient, err = llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
	default:
		log.Println("[LLM] Using MOCK LLM client")
		llmClient = llm.NewMockLLM()
	}

	// Search + optional crawler
	searchClient := search.NewBing(cfg)

	var crawlClient domain.CrawlClient
	if cfg.CrawlerURL != "" {
		log.Printf("[CRAWL] Crawler enabled (url=%s)", cfg.CrawlerURL)
		crawlClient = crawl.New(cfg.CrawlerURL)
	}

	// Checkpointer: Postgres, SQLite or in-memory
	checkpointer, err := storage.Select(ctx, cfg)
	if err != nil {
		log.Fatalf("error initializing checkpointer: %v", err)
	}
	defer checkpointer.Close()
	switch {
	case cfg.PostgresURI != "":
		log.Println("[STORE] Using Postgres checkpointer")
	case cfg.SQLitePath != "":
		log.Printf("[STORE] Using SQLite checkpointer (path=%s)", cfg.SQLitePath)
	default:
		log.Println("[STORE] Using in-memory checkpointer")
	}

	// Agents
	registry := agents.NewRegistry(
		domain.AgentID(cfg.DefaultAgent),
		agents.NewSimpleSearchAgent(llmClient, searchClient, crawlClient, cfg.SearchMaxResults, cfg.HistoryLimit),
		agents.NewWorkflowAgent(llmClient, searchClient, crawlClient, cfg.SearchMaxResults, cfg.SectionWorkers, cfg.HistoryLimit),
	)
	if _, err := registry.Get(""); err != nil {
		log.Fatalf("default agent %q is not registered", cfg.DefaultAgent)
	}

	// Services + HTTP server
	chatSvc := chat.NewService(registry, checkpointer)
	historySvc := history.NewService(checkpointer)
	handler := httpadapter.NewServer(chatSvc, historySvc, registry)

	addr := ":" + cfg.Port
	log.Println("Verdant API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
