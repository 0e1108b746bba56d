package search

import (
	"context"
)

// Provider defines the unified interface for search providers.
// Implementations are treated as black boxes returning candidate articles.
type Provider interface {
	// Search performs a search with configuration
	Search(ctx context.Context, query string, config Config) ([]Result, error)

	// GetName returns the name of the search provider
	GetName() string
}

// Config holds configuration for search requests
type Config struct {
	MaxResults     int      // Maximum number of results to return
	IncludeDomains []string // Restrict results to this allow-list of source domains
	SearchDepth    string   // Provider-specific depth hint (e.g. "basic", "advanced")
}

// Result represents a unified search result
type Result struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Content    string `json:"content"`     // Body text returned by the provider
	RawContent string `json:"raw_content"` // Unprocessed content, if the provider supplies it
	Domain     string `json:"domain"`
	Source     string `json:"source"` // Provider-specific source identifier
	Rank       int    `json:"rank"`   // Position in search results
}

// ProviderType represents the type of search provider
type ProviderType string

const (
	ProviderTypeTavily ProviderType = "tavily"
	ProviderTypeMock   ProviderType = "mock"
)

// ProviderFactory creates search providers based on type and configuration
type ProviderFactory struct{}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{}
}

// CreateProvider creates a search provider of the specified type
func (f *ProviderFactory) CreateProvider(providerType ProviderType, config map[string]string) (Provider, error) {
	switch providerType {
	case ProviderTypeTavily:
		apiKey, exists := config["api_key"]
		if !exists || apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewTavilyProvider(apiKey), nil
	case ProviderTypeMock:
		return NewMockProvider(), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// GetAvailableProviders returns a list of available provider types
func (f *ProviderFactory) GetAvailableProviders() []ProviderType {
	return []ProviderType{
		ProviderTypeTavily,
		ProviderTypeMock,
	}
}
