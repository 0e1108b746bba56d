package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Article represents a single piece of content collected for a newsletter run.
type Article struct {
	ID          string    `json:"id"`           // Unique identifier for the article
	Title       string    `json:"title"`        // Title of the article
	Content     string    `json:"content"`      // Article body (search snippet or scraped text, possibly truncated)
	URL         string    `json:"url"`          // Canonical URL of the article
	Source      string    `json:"source"`       // Domain the article came from
	Category    string    `json:"category"`     // Interest tag that produced this article
	PublishedAt time.Time `json:"published_at"` // Publication time; zero value if unknown
	RawContent  string    `json:"raw_content"`  // Raw content returned by the search provider, if any
	ScrapedOK   bool      `json:"scraped_ok"`   // Whether a secondary scrape fully succeeded
	Summary     string    `json:"summary"`      // LLM-generated summary, populated during composition
}

// NormalizedTitle returns the article title lower-cased and trimmed.
// Two articles with equal normalized titles are duplicates regardless of source.
func (a Article) NormalizedTitle() string {
	return strings.ToLower(strings.TrimSpace(a.Title))
}

// ArticleMetadata is the slice of article fields stored alongside the vector
// index. Its position in the metadata sequence is the implicit row identifier
// for the corresponding embedding, so the two must stay in lockstep.
type ArticleMetadata struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"published_at"`
}

// MetadataFor extracts the indexable metadata from an article.
func MetadataFor(a Article) ArticleMetadata {
	return ArticleMetadata{
		ID:          a.ID,
		Title:       a.Title,
		URL:         a.URL,
		Source:      a.Source,
		Category:    a.Category,
		PublishedAt: a.PublishedAt,
	}
}

// Truncate shortens s to at most limit bytes without splitting a UTF-8 rune,
// so truncated article content stays valid UTF-8.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// DeliveryStatus describes the terminal state of a newsletter delivery.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)
