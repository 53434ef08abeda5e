package common

import (
	"github.com/jansonh/detiknews-crawler/internal/crawler"
	"github.com/jansonh/detiknews-crawler/internal/metrics"
	"github.com/jansonh/detiknews-crawler/internal/storage"
)

// NewCrawler creates a crawler writing to sink.
func NewCrawler(deps CommandDeps, sink storage.Sink, m *metrics.Metrics) (*crawler.Crawler, error) {
	cfg := deps.Config
	return crawler.New(crawler.Params{
		Config:    &cfg.Crawler,
		Selectors: cfg.Selectors,
		Cleaner:   cfg.Cleaner,
		Logger:    deps.Logger,
		Sink:      sink,
		Metrics:   m,
	})
}
