//go:build integration

package storage_test

import (
	"context"
	"testing"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/elasticsearch"

	"github.com/jansonh/detiknews-crawler/internal/logger"
	"github.com/jansonh/detiknews-crawler/internal/storage"
)

func TestElasticsearchSink_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := elasticsearch.Run(ctx,
		"docker.elastic.co/elasticsearch/elasticsearch:8.11.0",
		elasticsearch.WithPassword("changeme"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	client, err := es.NewClient(es.Config{
		Addresses: []string{container.Settings.Address},
		Username:  "elastic",
		Password:  container.Settings.Password,
		CACert:    container.Settings.CACert,
	})
	require.NoError(t, err)

	sink := storage.NewElasticsearchSink(client, "detik_articles_it", 30*time.Second, logger.NewNoOp())
	require.NoError(t, sink.EnsureIndex(ctx))
	require.NoError(t, sink.EnsureIndex(ctx))

	rec := sampleRecord()
	require.NoError(t, sink.Save(ctx, rec))
	require.NoError(t, sink.Save(ctx, rec))

	got, err := sink.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.FullText, got.FullText)
	assert.True(t, rec.CrawledAt.Equal(got.CrawledAt))

	_, err = sink.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
