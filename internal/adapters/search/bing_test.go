package search_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantai/verdant-agent/internal/adapters/search"
	"github.com/verdantai/verdant-agent/internal/domain"
)

const bingPayload = `{
	"webPages": {
		"value": [
			{"name": "First", "url": "https://a.example/one", "snippet": "snippet one"},
			{"name": "Second", "url": "https://b.example/two", "snippet": "snippet two"},
			{"name": "Third", "url": "https://c.example/three", "snippet": "snippet three"}
		]
	}
}`

func TestSearchParsesResults(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		w.Write([]byte(bingPayload))
	}))
	defer srv.Close()

	client := search.NewBingWithClient(srv.URL, "test-key", srv.Client())
	results, err := client.Search(context.Background(), "solar panel recycling", 3)
	require.NoError(t, err)

	assert.Equal(t, "solar panel recycling", gotQuery)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, results, 3)
	assert.Equal(t, "First", results[0].Title)
	assert.Equal(t, "https://a.example/one", results[0].URL)
	assert.Equal(t, "snippet one", results[0].Snippet)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 3, results[2].Index)
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bingPayload))
	}))
	defer srv.Close()

	client := search.NewBingWithClient(srv.URL, "test-key", srv.Client())
	results, err := client.Search(context.Background(), "green hydrogen", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(bingPayload))
	}))
	defer srv.Close()

	client := search.NewBingWithClient(srv.URL, "test-key", srv.Client())
	results, err := client.Search(context.Background(), "carbon capture", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchFailsAsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := search.NewBingWithClient(srv.URL, "bad-key", srv.Client())
	_, err := client.Search(context.Background(), "anything", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSearchUnavailable))
}

func TestSearchMissingKey(t *testing.T) {
	client := search.NewBingWithClient("http://unused", "", http.DefaultClient)
	_, err := client.Search(context.Background(), "anything", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSearchUnavailable))
}

func TestSearchEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"webPages": {"value": []}}`))
	}))
	defer srv.Close()

	client := search.NewBingWithClient(srv.URL, "test-key", srv.Client())
	results, err := client.Search(context.Background(), "no hits here", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
