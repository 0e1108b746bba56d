package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsbrief/internal/core"
)

const (
	// ScrapeTimeout bounds a single article fetch.
	ScrapeTimeout = 10 * time.Second
	// MaxContentLength is the truncation limit for scraped article bodies.
	MaxContentLength = 2000
)

// contentSelectors are tried in order; the first non-empty match wins.
var contentSelectors = []string{
	"article", "[role='main']", ".content", ".post-content",
	".entry-content", ".article-body", "main",
}

// dateSelectors are tried in order for a parseable publish date.
var dateSelectors = []string{"time", "[datetime]", ".date", ".published"}

// ScrapedArticle is the result of scraping a single URL.
type ScrapedArticle struct {
	Title       string
	Content     string
	URL         string
	PublishedAt time.Time
	ScrapedOK   bool
}

// Scraper fetches article pages and extracts title, body and publish date.
type Scraper struct {
	client *http.Client
}

// NewScraper creates a scraper with a bounded per-request timeout.
func NewScraper() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: ScrapeTimeout},
	}
}

// NewScraperWithClient creates a scraper using the given HTTP client, used by tests.
func NewScraperWithClient(client *http.Client) *Scraper {
	return &Scraper{client: client}
}

// Scrape fetches the URL and extracts article fields. A failed fetch or parse
// returns a ScrapedArticle with ScrapedOK=false alongside the error; callers
// treat this as a per-item degradation, not a fatal condition.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (ScrapedArticle, error) {
	failed := ScrapedArticle{URL: pageURL, PublishedAt: time.Now().UTC()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return failed, fmt.Errorf("failed to create request for %s: %w", pageURL, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return failed, fmt.Errorf("failed to fetch URL %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failed, fmt.Errorf("failed to fetch URL %s: status code %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return failed, fmt.Errorf("failed to parse HTML from %s: %w", pageURL, err)
	}

	doc.Find("script, style").Remove()

	content := core.Truncate(extractContent(doc), MaxContentLength)

	return ScrapedArticle{
		Title:       extractTitle(doc),
		Content:     content,
		URL:         pageURL,
		PublishedAt: extractPublishDate(doc),
		ScrapedOK:   true,
	}, nil
}

// extractTitle returns the first non-empty match among heading/title-like
// elements, in priority order.
func extractTitle(doc *goquery.Document) string {
	for _, selector := range []string{"h1", "h2", "title"} {
		if title := strings.TrimSpace(doc.Find(selector).First().Text()); title != "" {
			return title
		}
	}
	return ""
}

// extractContent returns the first non-empty semantic container, falling back
// to concatenating all paragraph text.
func extractContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			return text
		}
	}

	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// extractPublishDate returns the first parseable date among the date-bearing
// selectors. An unparsable or absent date yields the current time; this is a
// placeholder, not an error.
func extractPublishDate(doc *goquery.Document) time.Time {
	for _, selector := range dateSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		dateText, exists := sel.Attr("datetime")
		if !exists {
			dateText = strings.TrimSpace(sel.Text())
		}
		if parsed, err := parseDate(dateText); err == nil {
			return parsed
		}
	}
	return time.Now().UTC()
}

func parseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(strings.Replace(text, "Z", "+00:00", 1))
	layouts := []string{
		"2006-01-02T15:04:05-07:00",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date: %q", text)
}
