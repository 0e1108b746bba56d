package rank

import (
	"sort"

	"newsbrief/internal/core"
)

// MinContentLength is the quality floor: articles with shorter content are
// dropped before ranking.
const MinContentLength = 100

// Rank deduplicates, filters and orders articles for downstream summarization.
// An article is dropped when its normalized title was already seen earlier in
// the sequence, its content is below the quality floor, or its normalized
// title is empty. Survivors are stable-sorted descending by publish time,
// ties broken by longer content first; a missing publish time sorts as the
// oldest possible value. The result is uncapped — callers cap separately so
// the full ranked set can still be indexed.
func Rank(articles []core.Article) []core.Article {
	seen := make(map[string]bool, len(articles))
	filtered := make([]core.Article, 0, len(articles))

	for _, article := range articles {
		title := article.NormalizedTitle()
		if title == "" || seen[title] || len(article.Content) < MinContentLength {
			continue
		}
		seen[title] = true
		filtered = append(filtered, article)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].PublishedAt.Equal(filtered[j].PublishedAt) {
			return filtered[i].PublishedAt.After(filtered[j].PublishedAt)
		}
		return len(filtered[i].Content) > len(filtered[j].Content)
	})

	return filtered
}

// Top returns at most n leading articles from a ranked sequence.
func Top(articles []core.Article, n int) []core.Article {
	if n < 0 {
		n = 0
	}
	if len(articles) > n {
		return articles[:n]
	}
	return articles
}
