package metrics_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jansonh/detiknews-crawler/internal/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()
	m.IndexPage()
	m.ArticlePage()
	m.ArticlePage()
	m.ArticleEmitted()
	m.ArticleFailed()
	m.PageSkipped()
	m.RequestFailed()
	m.SinkError()
	m.DateCrawled("2024-11-05")

	s := m.Snapshot()
	assert.Equal(t, int64(1), s.IndexPages)
	assert.Equal(t, int64(2), s.ArticlePages)
	assert.Equal(t, int64(1), s.ArticlesEmitted)
	assert.Equal(t, int64(1), s.ArticlesFailed)
	assert.Equal(t, int64(1), s.PagesSkipped)
	assert.Equal(t, int64(1), s.RequestsFailed)
	assert.Equal(t, int64(1), s.SinkErrors)
	assert.Equal(t, int64(1), s.DatesCrawled)
	assert.Equal(t, "2024-11-05", s.LastDateCrawled)
	assert.False(t, s.LastArticleTime.IsZero())

	m.Reset()
	assert.Equal(t, int64(0), m.Snapshot().ArticlesEmitted)
}

func TestMetrics_Concurrent(t *testing.T) {
	m := metrics.New()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.ArticleEmitted()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), m.Snapshot().ArticlesEmitted)
}

func TestMetrics_PrometheusCollector(t *testing.T) {
	m := metrics.New()
	m.ArticleEmitted()
	m.ArticleEmitted()

	expected := `
# HELP detiknews_crawler_articles_emitted_total Articles assembled.
# TYPE detiknews_crawler_articles_emitted_total counter
detiknews_crawler_articles_emitted_total 2
`
	require.NoError(t, testutil.CollectAndCompare(m, strings.NewReader(expected), "detiknews_crawler_articles_emitted_total"))
	assert.Equal(t, 8, testutil.CollectAndCount(m))
}

func TestSnapshot_Since(t *testing.T) {
	m := metrics.New()
	m.ArticleEmitted()
	m.IndexPage()
	before := m.Snapshot()

	m.ArticleEmitted()
	m.ArticleEmitted()
	m.DateCrawled("2026-10-18")

	d := m.Snapshot().Since(before)
	assert.Equal(t, int64(2), d.ArticlesEmitted)
	assert.Equal(t, int64(0), d.IndexPages)
	assert.Equal(t, int64(1), d.DatesCrawled)
	assert.Equal(t, "2026-10-18", d.LastDateCrawled)
}
