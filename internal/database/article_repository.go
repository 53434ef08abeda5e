package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jansonh/detiknews-crawler/internal/content/article"
	"github.com/jansonh/detiknews-crawler/internal/storage"
)

// articleSelectColumns lists columns for SELECT queries on articles.
const articleSelectColumns = `id, title, author, published_at, source_url, full_text, pages, crawled_at`

const createArticlesTable = `
	CREATE TABLE IF NOT EXISTS articles (
		id           UUID PRIMARY KEY,
		title        TEXT NOT NULL,
		author       TEXT NOT NULL,
		published_at TEXT NOT NULL,
		source_url   TEXT NOT NULL UNIQUE,
		full_text    TEXT NOT NULL,
		pages        INTEGER NOT NULL,
		crawled_at   TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_crawled_at ON articles (crawled_at DESC);
`

// ArticleRepository persists article records. It satisfies storage.Sink
// and storage.Reader.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// EnsureSchema creates the articles table when missing.
func (r *ArticleRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createArticlesTable); err != nil {
		return fmt.Errorf("failed to create articles table: %w", err)
	}
	return nil
}

// Save upserts rec by ID so re-crawled articles replace their previous row.
func (r *ArticleRepository) Save(ctx context.Context, rec *article.Record) error {
	query := `
		INSERT INTO articles (` + articleSelectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, author = EXCLUDED.author,
			published_at = EXCLUDED.published_at, full_text = EXCLUDED.full_text,
			pages = EXCLUDED.pages, crawled_at = EXCLUDED.crawled_at
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.Author, rec.PublishedAt,
		rec.SourceURL, rec.FullText, rec.Pages, rec.CrawledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save article %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the article with the given ID.
func (r *ArticleRepository) Get(ctx context.Context, id string) (*article.Record, error) {
	query := `SELECT ` + articleSelectColumns + ` FROM articles WHERE id = $1`

	var rec article.Record
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &rec, nil
}

// List returns articles ordered by crawl time, newest first.
func (r *ArticleRepository) List(ctx context.Context, limit, offset int) ([]*article.Record, error) {
	query := `
		SELECT ` + articleSelectColumns + `
		FROM articles
		ORDER BY crawled_at DESC
		LIMIT $1 OFFSET $2
	`

	var records []*article.Record
	if err := r.db.SelectContext(ctx, &records, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	if records == nil {
		records = []*article.Record{}
	}
	return records, nil
}

// Count returns the number of stored articles.
func (r *ArticleRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM articles`); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

// Close implements storage.Sink. The pool is owned by the caller.
func (r *ArticleRepository) Close() error {
	return nil
}
