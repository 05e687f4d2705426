// Package websearch integrates the Tavily search API as the fallback for
// questions the knowledge base cannot answer.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kbdesk/kbdesk/server/generation"
)

const defaultBaseURL = "https://api.tavily.com"

// Result is one web search response.
type Result struct {
	Query   string       `json:"query"`
	Answer  string       `json:"answer"`
	Results []PageResult `json:"results"`
}

// PageResult is one matched page.
type PageResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Client calls the Tavily REST API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether an API key is present. Unconfigured clients
// make the caller skip web search instead of failing the query.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type searchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeImages     bool   `json:"include_images"`
	IncludeRawContent bool   `json:"include_raw_content"`
	MaxResults        int    `json:"max_results"`
}

// Search runs one web search. Returns at most maxResults pages.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (*Result, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("web search is not configured")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	payload, err := json.Marshal(searchRequest{
		APIKey:        c.apiKey,
		Query:         query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
		MaxResults:    maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("web search returned status %d: %s", resp.StatusCode, body)
	}

	result := &Result{Query: query}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return result, nil
}

// Sources converts page results into the generation service's web source
// format.
func (r *Result) Sources() []generation.WebSource {
	sources := make([]generation.WebSource, 0, len(r.Results))
	for _, page := range r.Results {
		sources = append(sources, generation.WebSource{
			Title:   page.Title,
			URL:     page.URL,
			Content: page.Content,
		})
	}
	return sources
}

// ShouldUseWebSearch decides whether a query goes to the web: always for
// external and mixed intents, and whenever internal retrieval scored below
// the threshold.
func ShouldUseWebSearch(intent string, bestInternalScore, threshold float64) bool {
	if intent == generation.IntentExternal || intent == generation.IntentBoth {
		return true
	}
	return bestInternalScore < threshold
}
