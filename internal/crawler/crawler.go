// Package crawler drives the daily index crawl: it walks dates backwards,
// fetches index and article pages through colly and hands finished
// articles to a sink.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jansonh/detiknews-crawler/internal/config"
	"github.com/jansonh/detiknews-crawler/internal/content/article"
	"github.com/jansonh/detiknews-crawler/internal/content/cleaner"
	"github.com/jansonh/detiknews-crawler/internal/content/indexpage"
	"github.com/jansonh/detiknews-crawler/internal/dateindex"
	"github.com/jansonh/detiknews-crawler/internal/logger"
	"github.com/jansonh/detiknews-crawler/internal/metrics"
	"github.com/jansonh/detiknews-crawler/internal/storage"
)

// Params contains the dependencies for creating a Crawler.
type Params struct {
	Config    *config.CrawlerConfig
	Selectors config.SelectorsConfig
	Cleaner   cleaner.Config
	Logger    logger.Interface
	Sink      storage.Sink
	Metrics   *metrics.Metrics
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Crawler runs crawls. One Crawler runs at most one crawl at a time.
type Crawler struct {
	cfg       *config.CrawlerConfig
	logger    logger.Interface
	sink      storage.Sink
	metrics   *metrics.Metrics
	parser    *indexpage.Parser
	extractor *article.Extractor
	clock     func() time.Time
	running   atomic.Bool
}

// Summary describes a finished crawl.
type Summary struct {
	RunID     string
	FirstDate dateindex.Date
	LastDate  dateindex.Date
	Dates     int
	Duration  time.Duration
	Metrics   metrics.Snapshot
}

// New creates a crawler from p.
func New(p Params) (*Crawler, error) {
	if p.Config == nil {
		return nil, errors.New("crawler config is required")
	}
	if p.Sink == nil {
		return nil, errors.New("sink is required")
	}
	if p.Logger == nil {
		p.Logger = logger.NewNoOp()
	}
	if p.Metrics == nil {
		p.Metrics = metrics.New()
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}

	textCleaner, err := cleaner.New(p.Cleaner)
	if err != nil {
		return nil, fmt.Errorf("failed to create cleaner: %w", err)
	}
	extractor, err := article.NewExtractor(textCleaner, p.Selectors.Article)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	parser, err := indexpage.NewParser(p.Selectors.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to create index parser: %w", err)
	}
	if err := dateindex.ValidateTemplate(p.Config.IndexURLTemplate); err != nil {
		return nil, err
	}

	return &Crawler{
		cfg:       p.Config,
		logger:    p.Logger.WithComponent("crawler"),
		sink:      p.Sink,
		metrics:   p.Metrics,
		parser:    parser,
		extractor: extractor.WithClock(p.Clock),
		clock:     p.Clock,
	}, nil
}

// Metrics returns the crawler's counters.
func (c *Crawler) Metrics() *metrics.Metrics {
	return c.metrics
}

// Running reports whether a crawl is in progress.
func (c *Crawler) Running() bool {
	return c.running.Load()
}

// Run crawls dates from the policy's start backwards until the policy or ctx
// stops it. Cancellation is not an error: the summary of the partial crawl
// is returned together with ctx.Err().
func (c *Crawler) Run(ctx context.Context, policy Policy) (Summary, error) {
	if !c.running.CompareAndSwap(false, true) {
		return Summary{}, ErrAlreadyRunning
	}
	defer c.running.Store(false)

	clock := c.clock
	if !policy.Start.IsZero() {
		start := policy.Start
		clock = func() time.Time {
			return time.Date(start.Year, start.Month, start.Day, 12, 0, 0, 0, time.UTC)
		}
	}
	seq, err := dateindex.NewSequencer(c.cfg.IndexURLTemplate, clock)
	if err != nil {
		return Summary{}, err
	}

	run, err := c.newRun(ctx)
	if err != nil {
		return Summary{}, err
	}

	if !policy.Bounded() {
		run.logger.Warn("Crawl has no stop condition; it runs until cancelled")
	}
	run.logger.Info("Starting crawl",
		"start", seq.Today().String(),
		"days", policy.Days,
		"max_empty_days", policy.MaxEmptyDays,
	)

	started := c.clock()
	before := c.metrics.Snapshot()
	summary := Summary{RunID: run.id, FirstDate: seq.Today()}
	consecutiveEmpty := 0

	for d := range seq.Dates() {
		if ctx.Err() != nil {
			break
		}
		if policy.stopBefore(d, summary.Dates) {
			break
		}

		links := run.crawlDate(d, seq.URL(d))
		summary.Dates++
		summary.LastDate = d
		c.metrics.DateCrawled(d.String())

		if links == 0 {
			consecutiveEmpty++
		} else {
			consecutiveEmpty = 0
		}
		if policy.stopAfterEmpty(consecutiveEmpty) {
			run.logger.Info("Stopping after consecutive empty dates", "empty_dates", consecutiveEmpty)
			break
		}
	}

	summary.Duration = c.clock().Sub(started)
	summary.Metrics = c.metrics.Snapshot().Since(before)
	run.logSummary(summary)

	return summary, ctx.Err()
}
