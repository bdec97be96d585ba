package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/verdantai/verdant-agent/internal/domain"
)

// 32KB cap so a single crawled page cannot swamp the model context.
const maxContentBytes = 32 * 1024

// Client implements domain.CrawlClient against a crawler service that
// converts a page to markdown via its /md endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type crawlRequest struct {
	URL string  `json:"url"`
	F   string  `json:"f"`
	Q   *string `json:"q"`
	C   string  `json:"c"`
}

type crawlResponse struct {
	Success  bool   `json:"success"`
	Markdown string `json:"markdown"`
}

// Fetch posts the URL to the crawler and returns the extracted markdown.
func (c *Client) Fetch(ctx context.Context, pageURL string) (string, error) {
	if strings.TrimSpace(pageURL) == "" {
		return "", fmt.Errorf("%w: url is empty", domain.ErrCrawlUnavailable)
	}

	body, err := json.Marshal(crawlRequest{URL: pageURL, F: "fit", C: "0"})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/md", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCrawlUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: crawler http %d", domain.ErrCrawlUnavailable, resp.StatusCode)
	}

	var payload crawlResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decoding crawler response: %v", domain.ErrCrawlUnavailable, err)
	}
	if !payload.Success {
		return "", nil
	}

	content := payload.Markdown
	if len(content) > maxContentBytes {
		content = content[:maxContentBytes] + "\n[TRUNCATED]"
	}
	return content, nil
}
