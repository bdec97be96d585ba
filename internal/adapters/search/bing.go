package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/verdantai/verdant-agent/internal/config"
	"github.com/verdantai/verdant-agent/internal/domain"
)

// BingClient implements domain.SearchClient against the Bing Web Search v7
// API. Transient failures (429 and 5xx) are retried with exponential backoff
// before the call is reported as domain.ErrSearchUnavailable.
type BingClient struct {
	endpoint string
	key      string
	client   *http.Client
}

func NewBing(cfg *config.Config) *BingClient {
	return &BingClient{
		endpoint: cfg.BingSearchURL,
		key:      cfg.BingSubscriptionKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// NewBingWithClient overrides the default HTTP client, useful in tests.
func NewBingWithClient(endpoint, key string, client *http.Client) *BingClient {
	return &BingClient{endpoint: endpoint, key: key, client: client}
}

type bingResponse struct {
	WebPages struct {
		Value []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

func (b *BingClient) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	if b.key == "" {
		return nil, fmt.Errorf("%w: bing subscription key is missing", domain.ErrSearchUnavailable)
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	endpoint := b.endpoint + "?q=" + url.QueryEscape(query) + "&count=" + strconv.Itoa(maxResults)

	var payload bingResponse
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Ocp-Apim-Subscription-Key", b.key)

		resp, err := b.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("bing http %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("bing http %d", resp.StatusCode)
		}

		payload = bingResponse{}
		return json.NewDecoder(resp.Body).Decode(&payload)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}

	results := make([]domain.SearchResult, 0, len(payload.WebPages.Value))
	for i, r := range payload.WebPages.Value {
		results = append(results, domain.SearchResult{
			Title:   r.Name,
			URL:     r.URL,
			Snippet: r.Snippet,
			Index:   i + 1,
		})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}
