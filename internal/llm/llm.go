package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// DefaultModel is the default Gemini model used for text generation.
	DefaultModel = "gemini-1.5-flash"
	// DefaultEmbeddingModel is the default model for generating embeddings.
	DefaultEmbeddingModel = "text-embedding-004"
	// EmbeddingDimensions is the output dimension of the embedding model.
	// The similarity index is constructed against this constant; it must not
	// change within one index's lifetime.
	EmbeddingDimensions = 768
)

// Client wraps the Gemini SDK for text generation and embeddings.
type Client struct {
	gClient        *genai.Client
	modelName      string
	embeddingModel string
}

// NewClient creates a new Gemini client. Empty model names fall back to the
// package defaults.
func NewClient(ctx context.Context, apiKey, modelName, embeddingModel string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required; set GEMINI_API_KEY or ai.gemini.api_key")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	gClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		gClient:        gClient,
		modelName:      modelName,
		embeddingModel: embeddingModel,
	}, nil
}

// Generate returns a text completion for the given prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.gClient.GenerativeModel(c.modelName)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", c.modelName)
	}
	return text, nil
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.gClient.EmbeddingModel(c.embeddingModel)

	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding from model %s", c.embeddingModel)
	}
	return res.Embedding.Values, nil
}

// Close releases the underlying SDK client.
func (c *Client) Close() error {
	return c.gClient.Close()
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}
