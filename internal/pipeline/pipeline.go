package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"newsbrief/internal/core"
	"newsbrief/internal/email"
	"newsbrief/internal/logger"
	"newsbrief/internal/rank"
)

const (
	// DefaultResultBudget is the total search-result budget shared across a
	// run's interest tags.
	DefaultResultBudget = 20
	// MaxNewsletterArticles caps how many ranked articles make the newsletter
	// body. Indexing is not capped.
	MaxNewsletterArticles = 10
	// maxQueries caps the generated search query list.
	maxQueries = 10

	noArticlesContent    = "No relevant articles found for your interests."
	composeFailedContent = "Failed to compose newsletter."
)

// queryPromptTemplate asks the text-generation capability for extra free-form
// queries; its output is line-split and appended to the templated queries.
const queryPromptTemplate = `Generate 3 specific and effective search queries for finding the latest technology news about these topics: %s

Focus on:
- Recent developments and breakthroughs
- Industry news and trends
- Product launches and innovations

Return only the search queries, one per line.`

const summaryPromptTemplate = `Summarize this article in 2-3 sentences, focusing on the key insights:

Title: %s
Content: %s

Make it engaging and highlight why it's relevant to someone interested in %s.`

// summaryContentLimit is how much article content the summary prompt carries.
const summaryContentLimit = 500

// Stage identifies one step of the newsletter workflow.
type Stage string

const (
	StageGenerateQueries Stage = "generate_queries"
	StageCollectContent  Stage = "collect_content"
	StageProcessContent  Stage = "process_content"
	StageComposeContent  Stage = "compose_content"
	StageDeliver         Stage = "deliver"
)

// RunState is the single mutable object threaded through the pipeline stages.
// It is created fresh per run and discarded once the summary is returned.
type RunState struct {
	Recipient         string
	Interests         []string
	SearchQueries     []string
	RawArticles       []core.Article
	ProcessedArticles []core.Article
	ComposedContent   string
	DeliveryStatus    core.DeliveryStatus
	ErrorMessage      string
}

// Summary is the terminal output of a run. Error carries only the last
// recorded stage error; per-stage diagnostics live in the logs.
type Summary struct {
	Status        core.DeliveryStatus `json:"status"`
	ArticlesFound int                 `json:"articles_found"`
	Content       string              `json:"newsletter_content"`
	Error         string              `json:"error"`
}

// Pipeline sequences the fixed linear stages of a newsletter run. It holds no
// per-run state; concurrent runs share only the article indexer.
type Pipeline struct {
	generator TextGenerator
	collector ContentCollector
	indexer   ArticleIndexer
	deliverer Deliverer
	budget    int
}

// New creates a pipeline over the given collaborators.
func New(generator TextGenerator, collector ContentCollector, indexer ArticleIndexer, deliverer Deliverer) *Pipeline {
	return &Pipeline{
		generator: generator,
		collector: collector,
		indexer:   indexer,
		deliverer: deliverer,
		budget:    DefaultResultBudget,
	}
}

// SetResultBudget overrides the per-run search result budget.
func (p *Pipeline) SetResultBudget(budget int) {
	p.budget = budget
}

// stageFunc transforms the run state. An error marks the stage failed; the
// orchestrator records it, applies the stage's failure value, and moves on.
type stageDef struct {
	name    Stage
	run     func(ctx context.Context, state *RunState) error
	onError func(state *RunState)
}

// Run executes one complete newsletter generation for a recipient. Stage
// failures are recorded into the state (last error wins) but never abort the
// run; the summary always reflects a completed pass through every stage.
func (p *Pipeline) Run(ctx context.Context, recipient string, interests []string) Summary {
	state := &RunState{
		Recipient:      recipient,
		Interests:      interests,
		DeliveryStatus: core.DeliveryPending,
	}

	stages := []stageDef{
		{StageGenerateQueries, p.generateQueries, func(s *RunState) { s.SearchQueries = nil }},
		{StageCollectContent, p.collectContent, func(s *RunState) { s.RawArticles = nil }},
		{StageProcessContent, p.processContent, func(s *RunState) { s.ProcessedArticles = nil }},
		{StageComposeContent, p.composeContent, func(s *RunState) { s.ComposedContent = composeFailedContent }},
		{StageDeliver, p.deliver, func(s *RunState) { s.DeliveryStatus = core.DeliveryFailed }},
	}

	for _, stage := range stages {
		if err := stage.run(ctx, state); err != nil {
			stage.onError(state)
			state.ErrorMessage = fmt.Sprintf("%s failed: %v", stage.name, err)
			logger.Error("pipeline stage failed", err, "stage", string(stage.name), "recipient", recipient)
		}
	}

	return Summary{
		Status:        state.DeliveryStatus,
		ArticlesFound: len(state.ProcessedArticles),
		Content:       state.ComposedContent,
		Error:         state.ErrorMessage,
	}
}

// generateQueries produces three templated queries per interest, then asks the
// text generator for free-form additions. Generation failure is not an error:
// the templated queries alone still drive the run.
func (p *Pipeline) generateQueries(ctx context.Context, state *RunState) error {
	year := time.Now().Year()

	var queries []string
	for _, interest := range state.Interests {
		queries = append(queries,
			fmt.Sprintf("%s latest news technology", interest),
			fmt.Sprintf("%s breakthrough innovation %d", interest, year),
			fmt.Sprintf("%s industry trends updates", interest),
		)
	}

	prompt := fmt.Sprintf(queryPromptTemplate, strings.Join(state.Interests, ", "))
	if response, err := p.generator.Generate(ctx, prompt); err != nil {
		logger.Warn("query expansion failed, using templated queries only", "error", err.Error())
	} else {
		for _, line := range strings.Split(response, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				queries = append(queries, line)
			}
		}
	}

	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	state.SearchQueries = queries

	logger.Debug("search queries generated", "count", len(queries))
	return nil
}

// collectContent gathers raw articles across the run's interests. The
// collector localizes all per-tag and per-scrape failures internally.
func (p *Pipeline) collectContent(ctx context.Context, state *RunState) error {
	state.RawArticles = p.collector.Collect(ctx, state.Interests, p.budget)
	logger.Info("content collected", "raw_articles", len(state.RawArticles))
	return nil
}

// processContent filters, deduplicates and ranks the raw articles, submits the
// full filtered set to the similarity index, and caps the newsletter body.
func (p *Pipeline) processContent(ctx context.Context, state *RunState) error {
	if len(state.RawArticles) == 0 {
		state.ProcessedArticles = nil
		return nil
	}

	ranked := rank.Rank(state.RawArticles)

	// The uncapped set is indexed so future searches see everything that
	// passed quality filtering, not just what fit the newsletter.
	if err := p.indexer.Add(ctx, ranked); err != nil {
		return fmt.Errorf("failed to index articles: %w", err)
	}

	state.ProcessedArticles = rank.Top(ranked, MaxNewsletterArticles)
	logger.Info("content processed", "ranked", len(ranked), "kept", len(state.ProcessedArticles))
	return nil
}

// composeContent summarizes each processed article and renders the newsletter
// body. A per-article summary failure falls back to the raw content excerpt.
func (p *Pipeline) composeContent(ctx context.Context, state *RunState) error {
	if len(state.ProcessedArticles) == 0 {
		state.ComposedContent = noArticlesContent
		return nil
	}

	for i := range state.ProcessedArticles {
		article := &state.ProcessedArticles[i]

		content := core.Truncate(article.Content, summaryContentLimit)
		prompt := fmt.Sprintf(summaryPromptTemplate, article.Title, content, article.Category)

		summary, err := p.generator.Generate(ctx, prompt)
		if err != nil {
			logger.Warn("article summary failed, using content excerpt",
				"url", article.URL, "error", err.Error())
			continue
		}
		article.Summary = strings.TrimSpace(summary)
	}

	html, err := email.RenderNewsletter(state.ProcessedArticles, state.Interests)
	if err != nil {
		return err
	}
	state.ComposedContent = html
	return nil
}

// deliver hands the composed newsletter to the delivery collaborator.
func (p *Pipeline) deliver(ctx context.Context, state *RunState) error {
	subject := email.Subject(state.Interests, time.Now())

	if err := p.deliverer.Send(state.Recipient, subject, state.ComposedContent); err != nil {
		state.DeliveryStatus = core.DeliveryFailed
		return err
	}

	state.DeliveryStatus = core.DeliverySent
	return nil
}
