// Package storage persists finished articles.
package storage

//go:generate mockgen -source=sink.go -destination=mocks/mock_sink.go -package=mocks

import (
	"context"
	"errors"

	"github.com/jansonh/detiknews-crawler/internal/content/article"
)

// ErrNotFound is returned when an article does not exist in a store.
var ErrNotFound = errors.New("article not found")

// Sink receives every emitted article. Implementations must accept
// concurrent Save calls.
type Sink interface {
	Save(ctx context.Context, rec *article.Record) error
	Close() error
}

// Reader browses stored articles, newest crawl first.
type Reader interface {
	List(ctx context.Context, limit, offset int) ([]*article.Record, error)
	Get(ctx context.Context, id string) (*article.Record, error)
}
