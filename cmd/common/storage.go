package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jansonh/detiknews-crawler/internal/config"
	"github.com/jansonh/detiknews-crawler/internal/database"
	"github.com/jansonh/detiknews-crawler/internal/storage"
)

// StorageResult holds the sinks built from the output configuration.
type StorageResult struct {
	// Sink fans out to every enabled sink.
	Sink *storage.MultiSink
	// Reader lists stored articles; nil when only the JSON lines sink is enabled.
	Reader storage.Reader

	db *sqlx.DB
}

// Close closes every sink and the database pool.
func (r *StorageResult) Close() error {
	var errs []error
	if r.Sink != nil {
		errs = append(errs, r.Sink.Close())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}

// NewStorage builds every sink enabled in cfg.Output. Postgres takes
// precedence over Elasticsearch as the Reader.
func NewStorage(ctx context.Context, deps CommandDeps) (*StorageResult, error) {
	cfg := deps.Config
	result := &StorageResult{Sink: storage.NewMultiSink()}

	if cfg.Output.Enabled(config.SinkJSONLines) {
		sink, err := storage.NewJSONLinesFile(cfg.Output.JSONLPath)
		if err != nil {
			return nil, err
		}
		result.Sink.Add(config.SinkJSONLines, sink)
		deps.Logger.Info("JSON lines sink enabled", "path", cfg.Output.JSONLPath)
	}

	if cfg.Output.Enabled(config.SinkElasticsearch) {
		sink, err := NewElasticsearchSink(ctx, deps)
		if err != nil {
			_ = result.Close()
			return nil, err
		}
		result.Sink.Add(config.SinkElasticsearch, sink)
		result.Reader = sink
	}

	if cfg.Output.Enabled(config.SinkPostgres) {
		repo, db, err := NewArticleRepository(ctx, deps)
		if err != nil {
			_ = result.Close()
			return nil, err
		}
		result.db = db
		result.Sink.Add(config.SinkPostgres, repo)
		result.Reader = repo
	}

	return result, nil
}

// NewElasticsearchSink connects to Elasticsearch and ensures the article index exists.
func NewElasticsearchSink(ctx context.Context, deps CommandDeps) (*storage.ElasticsearchSink, error) {
	esCfg := &deps.Config.Elasticsearch
	deps.Logger.Debug("Connecting to Elasticsearch", "addresses", esCfg.Addresses)

	client, err := storage.NewElasticsearchClient(esCfg)
	if err != nil {
		return nil, err
	}
	sink := storage.NewElasticsearchSink(client, esCfg.IndexName, esCfg.Timeout, deps.Logger)
	if err := sink.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare index %s: %w", esCfg.IndexName, err)
	}
	deps.Logger.Info("Elasticsearch sink enabled", "index", esCfg.IndexName)
	return sink, nil
}

// NewArticleRepository connects to PostgreSQL and ensures the schema exists.
// The caller closes the returned pool.
func NewArticleRepository(ctx context.Context, deps CommandDeps) (*database.ArticleRepository, *sqlx.DB, error) {
	db, err := database.NewPostgresConnection(&deps.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	repo := database.NewArticleRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	deps.Logger.Info("PostgreSQL sink enabled", "host", deps.Config.Database.Host, "dbname", deps.Config.Database.DBName)
	return repo, db, nil
}
