package store

import (
	"testing"
	"time"

	"newsbrief/internal/fetch"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGetScrape(t *testing.T) {
	s := newTestStore(t)

	saved := fetch.ScrapedArticle{
		Title:       "Cached Article",
		Content:     "Cached body text.",
		URL:         "https://example.com/cached",
		PublishedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		ScrapedOK:   true,
	}
	if err := s.SaveScrape(saved); err != nil {
		t.Fatalf("SaveScrape failed: %v", err)
	}

	got, found, err := s.GetScrape(saved.URL, time.Hour)
	if err != nil {
		t.Fatalf("GetScrape failed: %v", err)
	}
	if !found {
		t.Fatal("Expected cached entry to be found")
	}
	if got.Title != saved.Title || got.Content != saved.Content {
		t.Errorf("Cached entry mismatch: got %+v", got)
	}
	if !got.ScrapedOK {
		t.Error("Expected cached entry to report ScrapedOK")
	}
}

func TestGetScrapeMiss(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.GetScrape("https://example.com/never-seen", time.Hour)
	if err != nil {
		t.Fatalf("GetScrape failed: %v", err)
	}
	if found {
		t.Error("Expected cache miss for unknown URL")
	}
}

func TestGetScrapeExpired(t *testing.T) {
	s := newTestStore(t)

	saved := fetch.ScrapedArticle{
		Title:     "Stale Article",
		Content:   "Old body.",
		URL:       "https://example.com/stale",
		ScrapedOK: true,
	}
	if err := s.SaveScrape(saved); err != nil {
		t.Fatalf("SaveScrape failed: %v", err)
	}

	_, found, err := s.GetScrape(saved.URL, 0)
	if err != nil {
		t.Fatalf("GetScrape failed: %v", err)
	}
	if found {
		t.Error("Expected expired entry to be treated as a miss")
	}
}

func TestSaveScrapeRejectsFailedScrape(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveScrape(fetch.ScrapedArticle{URL: "https://example.com/failed"})
	if err == nil {
		t.Error("Expected error caching an unsuccessful scrape")
	}
}
