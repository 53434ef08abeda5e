package storage

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/mitchellh/mapstructure"

	"github.com/jansonh/detiknews-crawler/internal/config"
	"github.com/jansonh/detiknews-crawler/internal/content/article"
	"github.com/jansonh/detiknews-crawler/internal/logger"
)

// ErrClientNotInitialized is returned when the sink has no client.
var ErrClientNotInitialized = errors.New("elasticsearch client is not initialized")

// articleMapping is the index mapping used by EnsureIndex.
var articleMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":           map[string]any{"type": "keyword"},
			"title":        map[string]any{"type": "text"},
			"author":       map[string]any{"type": "keyword"},
			"published_at": map[string]any{"type": "keyword"},
			"source_url":   map[string]any{"type": "keyword"},
			"full_text":    map[string]any{"type": "text"},
			"pages":        map[string]any{"type": "integer"},
			"crawled_at":   map[string]any{"type": "date"},
		},
	},
}

// NewElasticsearchClient creates a client from cfg and pings the cluster.
func NewElasticsearchClient(cfg *config.ElasticsearchConfig) (*es.Client, error) {
	transport := &http.Transport{}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{
			//nolint:gosec // opt-in for self-signed development clusters
			InsecureSkipVerify: true,
		}
	}

	clientConfig := es.Config{
		Addresses: cfg.Addresses,
		Transport: transport,
	}
	if cfg.APIKey != "" {
		clientConfig.APIKey = cfg.APIKey
	} else if cfg.Username != "" && cfg.Password != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := client.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error pinging Elasticsearch: %s", res.String())
	}
	return client, nil
}

// ElasticsearchSink stores records as documents keyed by record ID.
type ElasticsearchSink struct {
	client  *es.Client
	index   string
	timeout time.Duration
	logger  logger.Interface
}

// NewElasticsearchSink creates a sink writing to index.
func NewElasticsearchSink(client *es.Client, index string, timeout time.Duration, log logger.Interface) *ElasticsearchSink {
	return &ElasticsearchSink{
		client:  client,
		index:   index,
		timeout: timeout,
		logger:  log.WithComponent("elasticsearch"),
	}
}

func (s *ElasticsearchSink) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}

// EnsureIndex creates the article index unless it already exists.
func (s *ElasticsearchSink) EnsureIndex(ctx context.Context) error {
	if s.client == nil {
		return ErrClientNotInitialized
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	closeBody(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status checking index %s: %d", s.index, res.StatusCode)
	}

	body, err := json.Marshal(articleMapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}
	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return fmt.Errorf("error creating index %s: %s", s.index, res.String())
	}
	s.logger.Info("Created index", "index", s.index)
	return nil
}

// Save implements Sink. Saving the same record twice overwrites the document.
func (s *ElasticsearchSink) Save(ctx context.Context, rec *article.Record) error {
	if s.client == nil {
		return ErrClientNotInitialized
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record for indexing: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(rec.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index record: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		s.logger.Error("Elasticsearch returned error response",
			"error", res.String(),
			"index", s.index,
			"id", rec.ID,
		)
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}

	s.logger.Debug("Record indexed", "index", s.index, "id", rec.ID, "url", rec.SourceURL)
	return nil
}

// Get implements Reader.
func (s *ElasticsearchSink) Get(ctx context.Context, id string) (*article.Record, error) {
	if s.client == nil {
		return nil, ErrClientNotInitialized
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.client.Get(s.index, id, s.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("error getting record: %w", err)
	}
	defer closeBody(res)

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("error getting record: %s", res.String())
	}

	var doc struct {
		Source map[string]any `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	rec := &article.Record{}
	if err := decodeSource(doc.Source, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List implements Reader, ordering by crawl time descending.
func (s *ElasticsearchSink) List(ctx context.Context, limit, offset int) ([]*article.Record, error) {
	if s.client == nil {
		return nil, ErrClientNotInitialized
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"sort":  []any{map[string]any{"crawled_at": map[string]any{"order": "desc"}}},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(strings.NewReader(string(body))),
		s.client.Search.WithSize(limit),
		s.client.Search.WithFrom(offset),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error decoding search response: %w", err)
	}

	records := make([]*article.Record, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		rec := &article.Record{}
		if err := decodeSource(hit.Source, rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close implements Sink. The client holds no resources that need releasing.
func (s *ElasticsearchSink) Close() error {
	return nil
}

func decodeSource(source map[string]any, rec *article.Record) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		Result:     rec,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(source); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
