package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"newsbrief/internal/fetch"
)

// Store is a SQLite-backed cache of scraped articles, keyed by URL. It keeps
// the enhancement step from refetching the same pages across newsletter runs.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new store instance with a SQLite database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "newsbrief.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	scrapesTable := `
	CREATE TABLE IF NOT EXISTS scrapes (
		url TEXT PRIMARY KEY,
		title TEXT,
		content TEXT,
		published_at DATETIME,
		scraped_at DATETIME
	);`

	if _, err := s.db.Exec(scrapesTable); err != nil {
		return fmt.Errorf("failed to create scrapes table: %w", err)
	}
	return nil
}

// SaveScrape caches a successful scrape result, replacing any previous entry
// for the same URL.
func (s *Store) SaveScrape(article fetch.ScrapedArticle) error {
	if !article.ScrapedOK {
		return errors.New("refusing to cache an unsuccessful scrape")
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO scrapes (url, title, content, published_at, scraped_at)
		 VALUES (?, ?, ?, ?, ?)`,
		article.URL, article.Title, article.Content, article.PublishedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save scrape for %s: %w", article.URL, err)
	}
	return nil
}

// GetScrape returns the cached scrape for a URL if one exists and is younger
// than maxAge. The boolean reports whether a fresh entry was found.
func (s *Store) GetScrape(url string, maxAge time.Duration) (fetch.ScrapedArticle, bool, error) {
	row := s.db.QueryRow(
		`SELECT title, content, published_at, scraped_at FROM scrapes WHERE url = ?`, url,
	)

	var article fetch.ScrapedArticle
	var scrapedAt time.Time
	err := row.Scan(&article.Title, &article.Content, &article.PublishedAt, &scrapedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fetch.ScrapedArticle{}, false, nil
	}
	if err != nil {
		return fetch.ScrapedArticle{}, false, fmt.Errorf("failed to read scrape for %s: %w", url, err)
	}

	if time.Since(scrapedAt) > maxAge {
		return fetch.ScrapedArticle{}, false, nil
	}

	article.URL = url
	article.ScrapedOK = true
	return article, true, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
