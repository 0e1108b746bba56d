package collect

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsbrief/internal/core"
	"newsbrief/internal/fetch"
	"newsbrief/internal/logger"
	"newsbrief/internal/search"
)

const (
	// EnhanceThreshold is the content length below which an article gets a
	// secondary scrape of its URL.
	EnhanceThreshold = 200
	// ScrapeConcurrency caps simultaneous in-flight enhancement scrapes.
	ScrapeConcurrency = 5
	// scrapeCacheTTL is how long a cached scrape stays fresh.
	scrapeCacheTTL = 24 * time.Hour
)

// ScrapeCache is the subset of the store used by the enhancement step.
type ScrapeCache interface {
	GetScrape(url string, maxAge time.Duration) (fetch.ScrapedArticle, bool, error)
	SaveScrape(article fetch.ScrapedArticle) error
}

// Collector gathers candidate articles for a set of interest tags by querying
// a search provider per tag and enhancing thin results with a page scrape.
type Collector struct {
	provider search.Provider
	scraper  *fetch.Scraper
	cache    ScrapeCache // may be nil
	domains  []string    // allow-listed source domains
}

// New creates a collector. cache may be nil to disable scrape caching.
func New(provider search.Provider, scraper *fetch.Scraper, cache ScrapeCache, domains []string) *Collector {
	return &Collector{
		provider: provider,
		scraper:  scraper,
		cache:    cache,
		domains:  domains,
	}
}

// Collect produces one article sequence for the given interests within the
// result budget. Each tag gets budget/len(interests) results; a failure on one
// tag is logged and yields zero articles for that tag only. Output order is
// search-result order within a tag, tags in the order given.
func (c *Collector) Collect(ctx context.Context, interests []string, budget int) []core.Article {
	if len(interests) == 0 || budget <= 0 {
		return nil
	}

	perTag := budget / len(interests)
	if perTag == 0 {
		logger.Warn("result budget too small for interest count, skipping all tags",
			"budget", budget, "interests", len(interests))
		return nil
	}

	var articles []core.Article
	for _, interest := range interests {
		query := interest + " technology news latest"
		results, err := c.provider.Search(ctx, query, search.Config{
			MaxResults:     perTag,
			IncludeDomains: c.domains,
		})
		if err != nil {
			logger.Error("search failed for interest", err, "interest", interest)
			continue
		}

		for _, result := range results {
			articles = append(articles, core.Article{
				ID:          uuid.NewString(),
				Title:       result.Title,
				Content:     result.Content,
				URL:         result.URL,
				Source:      result.Domain,
				Category:    interest,
				PublishedAt: time.Now().UTC().Add(-24 * time.Hour), // Approximate; providers rarely date results
				RawContent:  result.RawContent,
			})
		}
	}

	return c.enhance(ctx, articles)
}

// enhance re-scrapes articles whose content is below the length floor, at most
// ScrapeConcurrency at a time. Results are written back by position, so the
// output preserves the input order and length regardless of completion order.
// An article is only replaced when its scrape fully succeeds.
func (c *Collector) enhance(ctx context.Context, articles []core.Article) []core.Article {
	out := make([]core.Article, len(articles))
	copy(out, articles)

	sem := make(chan struct{}, ScrapeConcurrency)
	var wg sync.WaitGroup

	for i := range out {
		if len(out[i].Content) >= EnhanceThreshold {
			continue
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			scraped, err := c.scrapeWithCache(ctx, out[i].URL)
			if err != nil {
				logger.Warn("scrape enhancement failed, keeping original article",
					"url", out[i].URL, "error", err.Error())
				return
			}

			out[i].Title = scraped.Title
			out[i].Content = scraped.Content
			out[i].PublishedAt = scraped.PublishedAt
			out[i].ScrapedOK = true
		}(i)
	}

	wg.Wait()
	return out
}

func (c *Collector) scrapeWithCache(ctx context.Context, url string) (fetch.ScrapedArticle, error) {
	if c.cache != nil {
		if cached, found, err := c.cache.GetScrape(url, scrapeCacheTTL); err == nil && found {
			return cached, nil
		}
	}

	scraped, err := c.scraper.Scrape(ctx, url)
	if err != nil {
		return fetch.ScrapedArticle{}, err
	}

	if c.cache != nil {
		if err := c.cache.SaveScrape(scraped); err != nil {
			logger.Warn("failed to cache scrape", "url", url, "error", err.Error())
		}
	}

	return scraped, nil
}
