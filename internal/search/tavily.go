package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsbrief/internal/logger"
)

const defaultTavilyEndpoint = "https://api.tavily.com/search"

// TavilyProvider implements Provider using the Tavily search API
type TavilyProvider struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewTavilyProvider creates a new Tavily search provider
func NewTavilyProvider(apiKey string) *TavilyProvider {
	return &TavilyProvider{
		apiKey:   apiKey,
		endpoint: defaultTavilyEndpoint,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetName returns the name of this provider
func (t *TavilyProvider) GetName() string {
	return "Tavily"
}

// SetEndpoint overrides the API endpoint, used by tests
func (t *TavilyProvider) SetEndpoint(endpoint string) {
	t.endpoint = endpoint
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	IncludeRaw     bool     `json:"include_raw_content"`
}

type tavilyResponse struct {
	Results []struct {
		Title      string `json:"title"`
		URL        string `json:"url"`
		Content    string `json:"content"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
}

// Search performs a search using the Tavily API
func (t *TavilyProvider) Search(ctx context.Context, query string, config Config) ([]Result, error) {
	depth := config.SearchDepth
	if depth == "" {
		depth = "advanced"
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:         t.apiKey,
		Query:          query,
		SearchDepth:    depth,
		MaxResults:     config.MaxResults,
		IncludeDomains: config.IncludeDomains,
		IncludeRaw:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode Tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create Tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute Tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Tavily request failed with status: %d", resp.StatusCode)
	}

	var apiResponse tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse Tavily response: %w", err)
	}
	if len(apiResponse.Results) == 0 {
		return nil, fmt.Errorf("%w for query %q", ErrNoResults, query)
	}

	var results []Result
	for i, item := range apiResponse.Results {
		results = append(results, Result{
			URL:        item.URL,
			Title:      item.Title,
			Content:    item.Content,
			RawContent: item.RawContent,
			Domain:     extractDomain(item.URL),
			Source:     "Tavily",
			Rank:       i + 1,
		})
	}

	logger.Info("Tavily search completed", "query", query, "results_found", len(results))

	return results, nil
}

// extractDomain extracts the domain name from a URL
func extractDomain(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}

	domain := parsed.Hostname()
	if strings.HasPrefix(domain, "www.") {
		domain = domain[4:]
	}

	return domain
}
