package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type LLMProvider string

const (
	ProviderAzure  LLMProvider = "azure"
	ProviderGemini LLMProvider = "gemini"
	ProviderMock   LLMProvider = "mock"
)

type Config struct {
	Port string

	LLMProvider LLMProvider

	// Azure OpenAI
	AzureAPIKey     string
	AzureEndpoint   string
	AzureDeployment string
	AzureAPIVersion string

	// Gemini on Vertex AI
	GCPProjectID string
	GCPLocation  string
	GeminiModel  string

	// Bing Web Search
	BingSubscriptionKey string
	BingSearchURL       string
	SearchMaxResults    int

	// Optional crawler service; crawling is disabled when empty.
	CrawlerURL string

	// Checkpointer backend selection: PostgresURI wins over SQLitePath,
	// both empty means in-memory.
	PostgresURI string
	SQLitePath  string

	DefaultAgent   string
	SectionWorkers int
	HistoryLimit   int
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load reads all env vars once and builds the config.
// A .env file is honored when present (local dev).
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		AzureAPIKey:     getEnv("AZURE_OPENAI_API_KEY", ""),
		AzureEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", ""),
		AzureAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", ""),

		GCPProjectID: getEnv("VERDANT_GCP_PROJECT", ""),
		GCPLocation:  getEnv("VERDANT_GCP_LOCATION", "us-central1"),
		GeminiModel:  getEnv("VERDANT_GEMINI_MODEL", "gemini-2.5-flash"),

		BingSubscriptionKey: getEnv("BING_SUBSCRIPTION_KEY", ""),
		BingSearchURL:       getEnv("BING_SEARCH_URL", "https://api.bing.microsoft.com/v7.0/search"),
		SearchMaxResults:    getIntEnv("VERDANT_SEARCH_MAX_RESULTS", 3),

		CrawlerURL: getEnv("CRAWLER_URL", ""),

		PostgresURI: getEnv("POSTGRES_URI", ""),
		SQLitePath:  getEnv("SQLITE_DB_PATH", ""),

		DefaultAgent:   getEnv("DEFAULT_AGENT", "simple-search"),
		SectionWorkers: getIntEnv("VERDANT_SECTION_WORKERS", 3),
		HistoryLimit:   getIntEnv("VERDANT_HISTORY_LIMIT", 20),
	}

	cfg.LLMProvider = resolveProvider(cfg)

	// A real provider needs search credentials; the mock runs without them.
	if cfg.LLMProvider != ProviderMock && cfg.BingSubscriptionKey == "" {
		log.Fatal("BING_SUBSCRIPTION_KEY must be set when a real LLM provider is configured")
	}

	return cfg
}

// resolveProvider honors an explicit VERDANT_LLM_PROVIDER, otherwise picks
// azure when the full Azure variable set is present, falling back to mock.
func resolveProvider(cfg *Config) LLMProvider {
	switch LLMProvider(getEnv("VERDANT_LLM_PROVIDER", "")) {
	case ProviderAzure:
		if cfg.AzureAPIKey == "" || cfg.AzureEndpoint == "" || cfg.AzureDeployment == "" || cfg.AzureAPIVersion == "" {
			log.Fatal("AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT_NAME and AZURE_OPENAI_API_VERSION must all be set for the azure provider")
		}
		return ProviderAzure
	case ProviderGemini:
		if cfg.GCPProjectID == "" {
			log.Fatal("VERDANT_GCP_PROJECT must be set for the gemini provider")
		}
		return ProviderGemini
	case ProviderMock:
		return ProviderMock
	}

	if cfg.AzureAPIKey != "" && cfg.AzureEndpoint != "" && cfg.AzureDeployment != "" && cfg.AzureAPIVersion != "" {
		return ProviderAzure
	}
	if cfg.GCPProjectID != "" {
		return ProviderGemini
	}
	return ProviderMock
}
