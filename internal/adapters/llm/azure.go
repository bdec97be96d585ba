package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"

	"github.com/verdantai/verdant-agent/internal/config"
	"github.com/verdantai/verdant-agent/internal/domain"
)

// AzureClient implements domain.LLMClient on top of an Azure OpenAI
// deployment. Rate-limit responses are retried with exponential backoff
// before being surfaced as domain.ErrLLMRateLimited.
type AzureClient struct {
	client     *openai.Client
	deployment string
}

func NewAzureClient(cfg *config.Config) (*AzureClient, error) {
	if cfg.AzureAPIKey == "" || cfg.AzureEndpoint == "" || cfg.AzureDeployment == "" {
		return nil, fmt.Errorf("azure openai credentials are incomplete")
	}

	clientCfg := openai.DefaultAzureConfig(cfg.AzureAPIKey, cfg.AzureEndpoint)
	clientCfg.APIVersion = cfg.AzureAPIVersion
	clientCfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}

	return &AzureClient{
		client:     openai.NewClientWithConfig(clientCfg),
		deployment: cfg.AzureDeployment,
	}, nil
}

func (c *AzureClient) Generate(ctx context.Context, msgs []domain.Message) (string, error) {
	resp, err := c.complete(ctx, msgs, nil)
	if err != nil {
		return "", err
	}
	return resp, nil
}

func (c *AzureClient) GenerateStructured(ctx context.Context, msgs []domain.Message, out any) error {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	raw, err := c.complete(ctx, msgs, format)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), out); err != nil {
		return fmt.Errorf("%w: decoding structured output: %v", domain.ErrLLMUnavailable, err)
	}
	return nil
}

func (c *AzureClient) complete(ctx context.Context, msgs []domain.Message, format *openai.ChatCompletionResponseFormat) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:          c.deployment,
		Messages:       toOpenAIMessages(msgs),
		Temperature:    0,
		ResponseFormat: format,
	}

	var text string
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if isRateLimit(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty choices in completion response")
		}
		text = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		if isRateLimit(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrLLMRateLimited, err)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	return text, nil
}

func isRateLimit(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

func toOpenAIMessages(msgs []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case domain.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case domain.RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
