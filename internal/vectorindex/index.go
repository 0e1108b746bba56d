package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"newsbrief/internal/core"
	"newsbrief/internal/logger"
)

// Embedder computes a fixed-dimension vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchResult pairs indexed article metadata with its similarity score.
type SearchResult struct {
	core.ArticleMetadata
	Score float32 `json:"similarity_score"`
}

// TopicCount is a category with its stored-article count.
type TopicCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// overFetchFactor controls how many rows are retrieved before the interest
// filter is applied: 2k nearest rows for a k-result query.
const overFetchFactor = 2

// trendingLimit caps the number of categories Trending reports.
const trendingLimit = 5

// Index is a persistent nearest-neighbor store over article embeddings.
// Vectors are L2-normalized on insertion, so inner product equals cosine
// similarity. Metadata rows stay in lockstep with vector rows: position in
// the metadata sequence is the vector row identifier.
//
// Writes are serialized; reads may proceed concurrently when no writer is
// active.
type Index struct {
	mu       sync.RWMutex
	embedder Embedder
	dim      int
	vectors  [][]float32
	metadata []core.ArticleMetadata
	paths    persistPaths
}

// New constructs an index, loading the persisted vector/metadata pair from
// dataDir when present. A dimension mismatch with a persisted index, or a
// pair that cannot be read as a whole, is a fatal construction error.
func New(dataDir string, embedder Embedder, dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}

	idx := &Index{
		embedder: embedder,
		dim:      dim,
		paths:    newPersistPaths(dataDir),
	}

	vectors, metadata, err := load(idx.paths, dim)
	if err != nil {
		return nil, err
	}
	idx.vectors = vectors
	idx.metadata = metadata

	return idx, nil
}

// Len returns the number of stored rows.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Add embeds each article over its title and content, appends the normalized
// vector and the article's metadata as a new row, then persists the pair.
// A failed embedding skips that one article. The index applies no dedup of
// its own; identical articles produce identical additional rows.
func (idx *Index) Add(ctx context.Context, articles []core.Article) error {
	if len(articles) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	added := 0
	for _, article := range articles {
		text := article.Title + " " + article.Content
		vec, err := idx.embedder.Embed(ctx, text)
		if err != nil {
			logger.Error("failed to embed article, skipping", err, "url", article.URL)
			continue
		}
		if len(vec) != idx.dim {
			logger.Error("embedding dimension mismatch, skipping article", nil,
				"url", article.URL, "got", len(vec), "want", idx.dim)
			continue
		}

		normalize(vec)
		idx.vectors = append(idx.vectors, vec)
		idx.metadata = append(idx.metadata, core.MetadataFor(article))
		added++
	}

	if added == 0 {
		return nil
	}

	if err := save(idx.paths, idx.dim, idx.vectors, idx.metadata); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}

	logger.Info("indexed articles", "added", added, "total_rows", len(idx.vectors))
	return nil
}

// Search embeds the query, retrieves up to 2k nearest rows by inner-product
// similarity, filters them by category membership in interests (when
// provided), and returns at most k results in descending similarity order.
func (idx *Index) Search(ctx context.Context, query string, k int, interests []string) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(queryVec) != idx.dim {
		return nil, fmt.Errorf("query embedding dimension %d does not match index dimension %d", len(queryVec), idx.dim)
	}
	normalize(queryVec)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	retrieve := overFetchFactor * k
	if retrieve > len(idx.vectors) {
		retrieve = len(idx.vectors)
	}

	type scored struct {
		row   int
		score float32
	}
	all := make([]scored, len(idx.vectors))
	for i, vec := range idx.vectors {
		all[i] = scored{row: i, score: dot(queryVec, vec)}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })

	allowed := make(map[string]bool, len(interests))
	for _, interest := range interests {
		allowed[interest] = true
	}

	var results []SearchResult
	for _, candidate := range all[:retrieve] {
		meta := idx.metadata[candidate.row]
		if len(interests) > 0 && !allowed[meta.Category] {
			continue
		}
		results = append(results, SearchResult{ArticleMetadata: meta, Score: candidate.score})
		if len(results) >= k {
			break
		}
	}

	return results, nil
}

// Trending returns the top categories by stored-article count, optionally
// restricted to the given interests. Ties break by first-seen order.
func (idx *Index) Trending(interests []string) []TopicCount {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	allowed := make(map[string]bool, len(interests))
	for _, interest := range interests {
		allowed[interest] = true
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, meta := range idx.metadata {
		if len(interests) > 0 && !allowed[meta.Category] {
			continue
		}
		if _, ok := counts[meta.Category]; !ok {
			firstSeen[meta.Category] = i
		}
		counts[meta.Category]++
	}

	trending := make([]TopicCount, 0, len(counts))
	for category, count := range counts {
		trending = append(trending, TopicCount{Category: category, Count: count})
	}
	sort.Slice(trending, func(i, j int) bool {
		if trending[i].Count != trending[j].Count {
			return trending[i].Count > trending[j].Count
		}
		return firstSeen[trending[i].Category] < firstSeen[trending[j].Category]
	})

	if len(trending) > trendingLimit {
		trending = trending[:trendingLimit]
	}
	return trending
}

// normalize scales a vector to unit L2 norm in place. Zero vectors are left
// unchanged.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
