package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"newsbrief/internal/core"
)

const testDim = 8

// fakeEmbedder produces deterministic vectors: identical text always yields
// the identical embedding.
type fakeEmbedder struct {
	dim      int
	failText string
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.failText != "" && strings.Contains(text, e.failText) {
		return nil, errors.New("embedding backend unavailable")
	}
	vec := make([]float32, e.dim)
	for i, b := range []byte(text) {
		vec[i%e.dim] += float32(b)
	}
	return vec, nil
}

func newTestIndex(t *testing.T, dir string) *Index {
	t.Helper()
	idx, err := New(dir, &fakeEmbedder{dim: testDim}, testDim)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return idx
}

func testArticle(title, category string) core.Article {
	return core.Article{
		Title:       title,
		Content:     "content for " + title,
		URL:         "https://example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Source:      "example.com",
		Category:    category,
		PublishedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAddKeepsMetadataAlignedWithVectors(t *testing.T) {
	dir := t.TempDir()
	idx := newTestIndex(t, dir)

	batch1 := []core.Article{testArticle("One", "AI"), testArticle("Two", "AI")}
	batch2 := []core.Article{testArticle("Three", "IoT")}

	if err := idx.Add(context.Background(), batch1); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := idx.Add(context.Background(), batch2); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if idx.Len() != 3 {
		t.Errorf("Expected 3 rows, got %d", idx.Len())
	}

	// Reloading from disk preserves row-for-row alignment.
	reloaded := newTestIndex(t, dir)
	if reloaded.Len() != 3 {
		t.Errorf("Expected 3 rows after reload, got %d", reloaded.Len())
	}

	results, err := reloaded.Search(context.Background(), "Three content for Three", 3, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) == 0 || results[0].Title != "Three" {
		t.Errorf("Expected reloaded index to find 'Three' first, got %+v", results)
	}
}

func TestSearchRoundTripSimilarity(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())

	article := testArticle("Solo Article", "AI")
	if err := idx.Add(context.Background(), []core.Article{article}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	query := article.Title + " " + article.Content
	results, err := idx.Search(context.Background(), query, 1, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Score < 0.9999 || results[0].Score > 1.0001 {
		t.Errorf("Expected similarity ~1.0 for identical text, got %f", results[0].Score)
	}
}

func TestSearchInterestFilterIsStrict(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())

	articles := []core.Article{
		testArticle("AI Model Released", "AI"),
		testArticle("AI Chips Shipping", "AI"),
	}
	if err := idx.Add(context.Background(), articles); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	results, err := idx.Search(context.Background(), "AI", 5, []string{"IoT"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, r := range results {
		if r.Category == "AI" {
			t.Errorf("Interest filter leaked an AI article: %+v", r)
		}
	}
	if len(results) != 0 {
		t.Errorf("Expected zero results after strict filtering, got %d", len(results))
	}
}

func TestSearchCapsAtK(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())

	var articles []core.Article
	for i := 0; i < 10; i++ {
		articles = append(articles, testArticle(fmt.Sprintf("Article %d", i), "AI"))
	}
	if err := idx.Add(context.Background(), articles); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	results, err := idx.Search(context.Background(), "Article", 3, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected k=3 results, got %d", len(results))
	}
}

func TestAddIsNotIdempotent(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())

	articles := []core.Article{testArticle("Dup", "AI"), testArticle("Other", "AI")}
	for i := 0; i < 2; i++ {
		if err := idx.Add(context.Background(), articles); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	// Dedup is the ranker's responsibility, not the index's.
	if idx.Len() != 4 {
		t.Errorf("Expected row count to double on repeated add, got %d", idx.Len())
	}
}

func TestAddSkipsFailedEmbeddings(t *testing.T) {
	idx, err := New(t.TempDir(), &fakeEmbedder{dim: testDim, failText: "Poison"}, testDim)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	articles := []core.Article{testArticle("Poison Pill", "AI"), testArticle("Healthy", "AI")}
	if err := idx.Add(context.Background(), articles); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if idx.Len() != 1 {
		t.Errorf("Expected failed embedding to be skipped, got %d rows", idx.Len())
	}
}

func TestTrendingCountsCategories(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())

	articles := []core.Article{
		testArticle("A1", "AI"),
		testArticle("A2", "AI"),
		testArticle("I1", "IoT"),
		testArticle("E1", "EV"),
		testArticle("E2", "EV"),
		testArticle("E3", "EV"),
	}
	if err := idx.Add(context.Background(), articles); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	trending := idx.Trending(nil)
	if len(trending) != 3 {
		t.Fatalf("Expected 3 categories, got %d", len(trending))
	}
	if trending[0].Category != "EV" || trending[0].Count != 3 {
		t.Errorf("Expected EV with count 3 first, got %+v", trending[0])
	}
	if trending[1].Category != "AI" || trending[1].Count != 2 {
		t.Errorf("Expected AI with count 2 second, got %+v", trending[1])
	}

	filtered := idx.Trending([]string{"AI"})
	if len(filtered) != 1 || filtered[0].Category != "AI" {
		t.Errorf("Expected interest-filtered trending to contain only AI, got %+v", filtered)
	}
}

func TestTrendingTiesBreakByFirstSeen(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())

	articles := []core.Article{
		testArticle("B1", "Batteries"),
		testArticle("R1", "Robotics"),
	}
	if err := idx.Add(context.Background(), articles); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	trending := idx.Trending(nil)
	if trending[0].Category != "Batteries" {
		t.Errorf("Expected first-seen category to win the tie, got %+v", trending)
	}
}

func TestNewRejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	idx := newTestIndex(t, dir)
	if err := idx.Add(context.Background(), []core.Article{testArticle("Row", "AI")}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if _, err := New(dir, &fakeEmbedder{dim: testDim + 1}, testDim+1); err == nil {
		t.Error("Expected construction to fail on dimension mismatch")
	}
}

func TestNewRejectsIncompletePair(t *testing.T) {
	dir := t.TempDir()
	idx := newTestIndex(t, dir)
	if err := idx.Add(context.Background(), []core.Article{testArticle("Row", "AI")}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := os.Remove(idx.paths.metadata); err != nil {
		t.Fatalf("failed to remove metadata file: %v", err)
	}
	if _, err := New(dir, &fakeEmbedder{dim: testDim}, testDim); err == nil {
		t.Error("Expected construction to fail when half of the persisted pair is missing")
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := newTestIndex(t, t.TempDir())

	results, err := idx.Search(context.Background(), "anything", 5, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results from an empty index, got %d", len(results))
	}
}
