// Package metrics tracks crawl progress counters.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "detiknews_crawler"

// Metrics holds crawl counters. It is safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	startTime       time.Time
	lastArticleTime time.Time
	lastDateCrawled string
	datesCrawled    int64
	indexPages      int64
	articlePages    int64
	articlesEmitted int64
	articlesFailed  int64
	pagesSkipped    int64
	requestsFailed  int64
	sinkErrors      int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	StartTime       time.Time `json:"start_time"`
	LastArticleTime time.Time `json:"last_article_time"`
	LastDateCrawled string    `json:"last_date_crawled"`
	DatesCrawled    int64     `json:"dates_crawled"`
	IndexPages      int64     `json:"index_pages"`
	ArticlePages    int64     `json:"article_pages"`
	ArticlesEmitted int64     `json:"articles_emitted"`
	ArticlesFailed  int64     `json:"articles_failed"`
	PagesSkipped    int64     `json:"pages_skipped"`
	RequestsFailed  int64     `json:"requests_failed"`
	SinkErrors      int64     `json:"sink_errors"`
}

// New creates a new Metrics instance.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// Reset zeroes every counter and restarts the clock.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTime = time.Now()
	m.lastArticleTime = time.Time{}
	m.lastDateCrawled = ""
	m.datesCrawled = 0
	m.indexPages = 0
	m.articlePages = 0
	m.articlesEmitted = 0
	m.articlesFailed = 0
	m.pagesSkipped = 0
	m.requestsFailed = 0
	m.sinkErrors = 0
}

// DateCrawled records that every index page of date has been processed.
func (m *Metrics) DateCrawled(date string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datesCrawled++
	m.lastDateCrawled = date
}

// IndexPage records a parsed index page.
func (m *Metrics) IndexPage() { m.add(&m.indexPages) }

// ArticlePage records a fetched article page.
func (m *Metrics) ArticlePage() { m.add(&m.articlePages) }

// ArticleFailed records an article that could not be assembled.
func (m *Metrics) ArticleFailed() { m.add(&m.articlesFailed) }

// PageSkipped records a page without a body.
func (m *Metrics) PageSkipped() { m.add(&m.pagesSkipped) }

// RequestFailed records a transport failure.
func (m *Metrics) RequestFailed() { m.add(&m.requestsFailed) }

// SinkError records a failed save.
func (m *Metrics) SinkError() { m.add(&m.sinkErrors) }

// ArticleEmitted records a finished article.
func (m *Metrics) ArticleEmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articlesEmitted++
	m.lastArticleTime = time.Now()
}

func (m *Metrics) add(counter *int64) {
	m.mu.Lock()
	*counter++
	m.mu.Unlock()
}

// Snapshot returns a copy of the counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		StartTime:       m.startTime,
		LastArticleTime: m.lastArticleTime,
		LastDateCrawled: m.lastDateCrawled,
		DatesCrawled:    m.datesCrawled,
		IndexPages:      m.indexPages,
		ArticlePages:    m.articlePages,
		ArticlesEmitted: m.articlesEmitted,
		ArticlesFailed:  m.articlesFailed,
		PagesSkipped:    m.pagesSkipped,
		RequestsFailed:  m.requestsFailed,
		SinkErrors:      m.sinkErrors,
	}
}

// Since returns the counter increase from prev to s. Times and the last date
// are taken from s.
func (s Snapshot) Since(prev Snapshot) Snapshot {
	d := s
	d.DatesCrawled -= prev.DatesCrawled
	d.IndexPages -= prev.IndexPages
	d.ArticlePages -= prev.ArticlePages
	d.ArticlesEmitted -= prev.ArticlesEmitted
	d.ArticlesFailed -= prev.ArticlesFailed
	d.PagesSkipped -= prev.PagesSkipped
	d.RequestsFailed -= prev.RequestsFailed
	d.SinkErrors -= prev.SinkErrors
	return d
}

var descs = struct {
	dates, indexPages, articlePages, emitted, failed, skipped, requests, sink *prometheus.Desc
}{
	dates:        prometheus.NewDesc(namespace+"_dates_crawled_total", "Index dates fully processed.", nil, nil),
	indexPages:   prometheus.NewDesc(namespace+"_index_pages_total", "Index pages parsed.", nil, nil),
	articlePages: prometheus.NewDesc(namespace+"_article_pages_total", "Article pages fetched.", nil, nil),
	emitted:      prometheus.NewDesc(namespace+"_articles_emitted_total", "Articles assembled.", nil, nil),
	failed:       prometheus.NewDesc(namespace+"_articles_failed_total", "Articles dropped on extraction errors.", nil, nil),
	skipped:      prometheus.NewDesc(namespace+"_pages_skipped_total", "Article pages without a body.", nil, nil),
	requests:     prometheus.NewDesc(namespace+"_requests_failed_total", "Failed HTTP requests.", nil, nil),
	sink:         prometheus.NewDesc(namespace+"_sink_errors_total", "Failed article saves.", nil, nil),
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- descs.dates
	ch <- descs.indexPages
	ch <- descs.articlePages
	ch <- descs.emitted
	ch <- descs.failed
	ch <- descs.skipped
	ch <- descs.requests
	ch <- descs.sink
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	s := m.Snapshot()
	counter := func(d *prometheus.Desc, v int64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(descs.dates, s.DatesCrawled)
	counter(descs.indexPages, s.IndexPages)
	counter(descs.articlePages, s.ArticlePages)
	counter(descs.emitted, s.ArticlesEmitted)
	counter(descs.failed, s.ArticlesFailed)
	counter(descs.skipped, s.PagesSkipped)
	counter(descs.requests, s.RequestsFailed)
	counter(descs.sink, s.SinkErrors)
}
