package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"newsbrief/internal/core"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if g.response == "" {
		return "generated text", nil
	}
	return g.response, nil
}

type fakeCollector struct {
	articles []core.Article
}

func (c *fakeCollector) Collect(ctx context.Context, interests []string, budget int) []core.Article {
	return c.articles
}

type fakeIndexer struct {
	added [][]core.Article
	err   error
}

func (i *fakeIndexer) Add(ctx context.Context, articles []core.Article) error {
	if i.err != nil {
		return i.err
	}
	i.added = append(i.added, articles)
	return nil
}

type fakeDeliverer struct {
	err       error
	recipient string
	subject   string
	body      string
}

func (d *fakeDeliverer) Send(recipient, subject, htmlBody string) error {
	d.recipient = recipient
	d.subject = subject
	d.body = htmlBody
	return d.err
}

func longBody(prefix string) string {
	return prefix + ": " + strings.Repeat("detail ", 30)
}

func scenarioArticles() []core.Article {
	now := time.Now()
	return []core.Article{
		{Title: "AI Breakthrough", Content: longBody("first"), URL: "https://a/1", Category: "AI", PublishedAt: now},
		{Title: "ai breakthrough", Content: longBody("duplicate"), URL: "https://a/2", Category: "AI", PublishedAt: now},
		{Title: "Short One", Content: "too short", URL: "https://a/3", Category: "AI", PublishedAt: now},
	}
}

func TestRunEndToEnd(t *testing.T) {
	indexer := &fakeIndexer{}
	deliverer := &fakeDeliverer{}
	p := New(&fakeGenerator{}, &fakeCollector{articles: scenarioArticles()}, indexer, deliverer)

	summary := p.Run(context.Background(), "reader@example.com", []string{"AI"})

	if summary.Status != core.DeliverySent {
		t.Errorf("Expected status sent, got %s", summary.Status)
	}
	if summary.ArticlesFound != 1 {
		t.Errorf("Expected exactly 1 processed article (dedup + quality filter), got %d", summary.ArticlesFound)
	}
	if summary.Error != "" {
		t.Errorf("Expected no error, got %q", summary.Error)
	}
	if !strings.Contains(summary.Content, "AI Breakthrough") {
		t.Error("Expected composed newsletter to contain the surviving article")
	}
	if deliverer.recipient != "reader@example.com" {
		t.Errorf("Expected delivery to recipient, got %q", deliverer.recipient)
	}

	// The filtered-but-uncapped set is indexed exactly once.
	if len(indexer.added) != 1 || len(indexer.added[0]) != 1 {
		t.Errorf("Expected one indexed batch with 1 article, got %+v batches", len(indexer.added))
	}
}

func TestRunFailedDeliveryStillReportsArticles(t *testing.T) {
	deliverer := &fakeDeliverer{err: errors.New("smtp refused")}
	p := New(&fakeGenerator{}, &fakeCollector{articles: scenarioArticles()}, &fakeIndexer{}, deliverer)

	summary := p.Run(context.Background(), "reader@example.com", []string{"AI"})

	if summary.Status != core.DeliveryFailed {
		t.Errorf("Expected status failed, got %s", summary.Status)
	}
	if summary.ArticlesFound != 1 {
		t.Errorf("Expected articles_found to survive delivery failure, got %d", summary.ArticlesFound)
	}
	if !strings.Contains(summary.Error, "deliver failed") {
		t.Errorf("Expected last error to mention delivery, got %q", summary.Error)
	}
}

func TestRunNoArticlesUsesPlaceholder(t *testing.T) {
	deliverer := &fakeDeliverer{}
	p := New(&fakeGenerator{}, &fakeCollector{}, &fakeIndexer{}, deliverer)

	summary := p.Run(context.Background(), "reader@example.com", []string{"AI"})

	if summary.ArticlesFound != 0 {
		t.Errorf("Expected no articles, got %d", summary.ArticlesFound)
	}
	if summary.Content != noArticlesContent {
		t.Errorf("Expected placeholder body, got %q", summary.Content)
	}
	if summary.Status != core.DeliverySent {
		t.Errorf("Expected placeholder newsletter to still be delivered, got %s", summary.Status)
	}
}

func TestRunIndexFailureDegradesStage(t *testing.T) {
	indexer := &fakeIndexer{err: errors.New("disk full")}
	deliverer := &fakeDeliverer{}
	p := New(&fakeGenerator{}, &fakeCollector{articles: scenarioArticles()}, indexer, deliverer)

	summary := p.Run(context.Background(), "reader@example.com", []string{"AI"})

	if summary.ArticlesFound != 0 {
		t.Errorf("Expected processing failure to empty the processed set, got %d", summary.ArticlesFound)
	}
	if !strings.Contains(summary.Error, "process_content failed") {
		t.Errorf("Expected process_content error recorded, got %q", summary.Error)
	}
	// The run still completes and delivers the placeholder body.
	if summary.Status != core.DeliverySent {
		t.Errorf("Expected pipeline to continue past the failed stage, got status %s", summary.Status)
	}
}

func TestGenerateQueriesTemplatesAndExpansion(t *testing.T) {
	gen := &fakeGenerator{response: "custom query one\n\ncustom query two"}
	p := New(gen, &fakeCollector{}, &fakeIndexer{}, &fakeDeliverer{})

	state := &RunState{Interests: []string{"AI"}}
	if err := p.generateQueries(context.Background(), state); err != nil {
		t.Fatalf("generateQueries failed: %v", err)
	}

	if len(state.SearchQueries) != 5 {
		t.Fatalf("Expected 3 templated + 2 generated queries, got %d: %v",
			len(state.SearchQueries), state.SearchQueries)
	}
	if state.SearchQueries[0] != "AI latest news technology" {
		t.Errorf("Expected first templated query, got %q", state.SearchQueries[0])
	}
	if state.SearchQueries[3] != "custom query one" {
		t.Errorf("Expected generated queries appended, got %q", state.SearchQueries[3])
	}
}

func TestGenerateQueriesSurvivesGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model offline")}
	p := New(gen, &fakeCollector{}, &fakeIndexer{}, &fakeDeliverer{})

	state := &RunState{Interests: []string{"AI", "IoT"}}
	if err := p.generateQueries(context.Background(), state); err != nil {
		t.Fatalf("generateQueries should not fail, got: %v", err)
	}
	if len(state.SearchQueries) != 6 {
		t.Errorf("Expected the 6 templated queries to survive, got %d", len(state.SearchQueries))
	}
}

func TestGenerateQueriesCapped(t *testing.T) {
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = "generated query"
	}
	gen := &fakeGenerator{response: strings.Join(lines, "\n")}
	p := New(gen, &fakeCollector{}, &fakeIndexer{}, &fakeDeliverer{})

	state := &RunState{Interests: []string{"AI", "IoT", "EV"}}
	if err := p.generateQueries(context.Background(), state); err != nil {
		t.Fatalf("generateQueries failed: %v", err)
	}
	if len(state.SearchQueries) != maxQueries {
		t.Errorf("Expected query list capped at %d, got %d", maxQueries, len(state.SearchQueries))
	}
}

func TestComposeFallsBackOnSummaryFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model offline")}
	p := New(gen, &fakeCollector{}, &fakeIndexer{}, &fakeDeliverer{})

	state := &RunState{
		Interests: []string{"AI"},
		ProcessedArticles: []core.Article{
			{Title: "Headline", Content: longBody("body"), Category: "AI"},
		},
	}
	if err := p.composeContent(context.Background(), state); err != nil {
		t.Fatalf("composeContent failed: %v", err)
	}
	if !strings.Contains(state.ComposedContent, "Headline") {
		t.Error("Expected newsletter rendered despite summary failures")
	}
	if !strings.Contains(state.ComposedContent, "body: detail") {
		t.Error("Expected raw content excerpt as summary fallback")
	}
}

func TestRunCapsNewsletterArticles(t *testing.T) {
	var articles []core.Article
	now := time.Now()
	for i := 0; i < 15; i++ {
		articles = append(articles, core.Article{
			Title:       strings.Repeat("t", i+1),
			Content:     longBody("a"),
			Category:    "AI",
			PublishedAt: now,
		})
	}

	indexer := &fakeIndexer{}
	p := New(&fakeGenerator{}, &fakeCollector{articles: articles}, indexer, &fakeDeliverer{})

	summary := p.Run(context.Background(), "reader@example.com", []string{"AI"})

	if summary.ArticlesFound != MaxNewsletterArticles {
		t.Errorf("Expected newsletter capped at %d articles, got %d",
			MaxNewsletterArticles, summary.ArticlesFound)
	}
	if len(indexer.added) != 1 || len(indexer.added[0]) != 15 {
		t.Error("Expected the full uncapped ranked set to be indexed")
	}
}
