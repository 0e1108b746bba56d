package pipeline

import (
	"context"

	"newsbrief/internal/core"
)

// TextGenerator produces a text completion for a prompt. Failures degrade
// gracefully at each call site; the pipeline never retries.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ContentCollector gathers raw candidate articles for a set of interest tags
// within a result budget. Per-tag failures are localized inside the collector.
type ContentCollector interface {
	Collect(ctx context.Context, interests []string, budget int) []core.Article
}

// ArticleIndexer stores articles for future similarity search.
type ArticleIndexer interface {
	Add(ctx context.Context, articles []core.Article) error
}

// Deliverer sends a rendered newsletter to a recipient.
type Deliverer interface {
	Send(recipient, subject, htmlBody string) error
}
