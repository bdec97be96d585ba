package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/verdantai/verdant-agent/internal/config"
	"github.com/verdantai/verdant-agent/internal/domain"
)

// GeminiClient implements domain.LLMClient on Vertex AI (Gemini).
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	if cfg.GCPProjectID == "" || cfg.GCPLocation == "" {
		return nil, fmt.Errorf("VERDANT_GCP_PROJECT and VERDANT_GCP_LOCATION must be set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.GCPProjectID,
		Location: cfg.GCPLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: cfg.GeminiModel,
	}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, msgs []domain.Message) (string, error) {
	return g.generate(ctx, msgs, "")
}

func (g *GeminiClient) GenerateStructured(ctx context.Context, msgs []domain.Message, out any) error {
	raw, err := g.generate(ctx, msgs, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), out); err != nil {
		return fmt.Errorf("%w: decoding structured output: %v", domain.ErrLLMUnavailable, err)
	}
	return nil
}

func (g *GeminiClient) generate(ctx context.Context, msgs []domain.Message, mimeType string) (string, error) {
	var system string
	var contents []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleSystem:
			// Gemini takes system text as a separate instruction.
			if system != "" {
				system += "\n"
			}
			system += m.Content
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	temp := float32(0)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: 8192,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if mimeType != "" {
		cfg.ResponseMIMEType = mimeType
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: vertex generate content: %v", domain.ErrLLMUnavailable, err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("%w: vertex returned empty text", domain.ErrLLMUnavailable)
	}
	return text, nil
}
