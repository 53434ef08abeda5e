package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"

	"github.com/jansonh/detiknews-crawler/internal/content/article"
	"github.com/jansonh/detiknews-crawler/internal/dateindex"
	"github.com/jansonh/detiknews-crawler/internal/logger"
)

// Request context keys.
const (
	kindCtxKey        = "kind"
	dateCtxKey        = "date"
	accumulatorCtxKey = "accumulator"
	retryCountKey     = "retry_count"
)

// Request kinds stored under kindCtxKey.
const (
	kindIndex   = "index"
	kindArticle = "article"
)

// run is the state of one Crawler.Run call. Its collector and visited set
// are private to the run so a later run re-fetches recent dates.
type run struct {
	*Crawler

	id        string
	ctx       context.Context
	collector *colly.Collector
	logger    logger.Interface
	// links counts article links found on the date being crawled.
	links atomic.Int64
}

func (c *Crawler) newRun(ctx context.Context) (*run, error) {
	id := uuid.NewString()
	r := &run{
		Crawler: c,
		id:      id,
		ctx:     ctx,
		logger:  c.logger.With("run_id", id),
	}

	r.collector = colly.NewCollector(c.collectorOptions(ctx)...)
	// colly ignores robots.txt unless told otherwise.
	r.collector.IgnoreRobotsTxt = !c.cfg.RespectRobotsTxt
	if c.cfg.RequestTimeout > 0 {
		r.collector.SetRequestTimeout(c.cfg.RequestTimeout)
	}

	err := r.collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       c.cfg.Delay,
		RandomDelay: c.cfg.RandomDelay,
		Parallelism: c.cfg.Parallelism,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set rate limit: %w", err)
	}

	r.collector.OnRequest(r.handleRequest)
	r.collector.OnResponse(r.handleResponse)
	r.collector.OnError(r.handleError)
	return r, nil
}

func (c *Crawler) collectorOptions(ctx context.Context) []colly.CollectorOption {
	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.Async(true),
	}
	if c.cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(c.cfg.UserAgent))
	}
	if c.cfg.DetectCharset {
		opts = append(opts, colly.DetectCharset())
	}
	if len(c.cfg.AllowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(c.cfg.AllowedDomains...))
	}
	return opts
}

// crawlDate fetches every index page of d and every article they link to,
// and returns how many article links were found.
func (r *run) crawlDate(d dateindex.Date, indexURL string) int64 {
	r.links.Store(0)
	log := r.logger.With("date", d.String())
	log.Info("Crawling date", "url", indexURL)

	if err := r.enqueue(indexURL, r.indexContext(d.String())); err != nil {
		log.Error("Failed to visit index", "url", indexURL, "error", err)
		r.metrics.RequestFailed()
	}
	r.collector.Wait()

	links := r.links.Load()
	log.Info("Finished date", "article_links", links)
	return links
}

func (r *run) indexContext(date string) *colly.Context {
	ctx := colly.NewContext()
	ctx.Put(kindCtxKey, kindIndex)
	ctx.Put(dateCtxKey, date)
	return ctx
}

func (r *run) articleContext(date string) *colly.Context {
	ctx := colly.NewContext()
	ctx.Put(kindCtxKey, kindArticle)
	ctx.Put(dateCtxKey, date)
	ctx.Put(accumulatorCtxKey, r.extractor.NewAccumulator())
	return ctx
}

func (r *run) enqueue(target string, ctx *colly.Context) error {
	return r.collector.Request(http.MethodGet, target, nil, ctx, nil)
}

func (r *run) handleRequest(req *colly.Request) {
	r.logger.Debug("Visiting", "url", req.URL.String(), "kind", req.Ctx.Get(kindCtxKey))
}

// handleResponse routes a fetched page by the kind stored in its context.
func (r *run) handleResponse(res *colly.Response) {
	res.Ctx.Put(retryCountKey, 0)

	switch res.Ctx.Get(kindCtxKey) {
	case kindIndex:
		r.handleIndex(res)
	case kindArticle:
		r.handleArticle(res)
	default:
		r.logger.Warn("Dropping response", "url", res.Request.URL.String(), "error", ErrUnexpectedContext)
	}
}

func (r *run) handleIndex(res *colly.Response) {
	pageURL := res.Request.URL.String()
	date := res.Ctx.Get(dateCtxKey)
	r.metrics.IndexPage()

	result, err := r.parser.Parse(res.Body)
	if err != nil {
		r.logger.Error("Failed to parse index page", "url", pageURL, "error", err)
		return
	}
	r.links.Add(int64(len(result.ArticleURLs)))
	r.logger.Debug("Parsed index page",
		"url", pageURL,
		"articles", len(result.ArticleURLs),
		"has_next", result.HasNext(),
	)

	for _, href := range result.ArticleURLs {
		target := res.Request.AbsoluteURL(href)
		if target == "" {
			r.logger.Debug("Failed to make absolute URL", "url", href)
			continue
		}
		if err := r.enqueue(target, r.articleContext(date)); err != nil {
			r.logVisitError(target, err)
		}
	}

	if result.HasNext() {
		target := res.Request.AbsoluteURL(result.NextPageURL)
		if target == "" {
			return
		}
		if err := r.enqueue(target, r.indexContext(date)); err != nil {
			r.logVisitError(target, err)
		}
	}
}

func (r *run) handleArticle(res *colly.Response) {
	pageURL := res.Request.URL.String()
	acc, ok := res.Ctx.GetAny(accumulatorCtxKey).(*article.Accumulator)
	if !ok {
		r.logger.Error("Dropping article page", "url", pageURL, "error", ErrUnexpectedContext)
		return
	}
	r.metrics.ArticlePage()

	step, err := acc.Fetch(pageURL, res.Body)
	switch {
	case err != nil:
		r.metrics.ArticleFailed()
		r.logger.Warn("Failed to extract article", "url", pageURL, "error", err)
	case step.Skipped:
		r.metrics.PageSkipped()
		if draft := acc.Draft(); draft != nil {
			// A continuation page without a body ends the chain.
			r.metrics.ArticleFailed()
			r.logger.Warn("Abandoning article at page without body",
				"url", draft.SourceURL(),
				"page_url", pageURL,
				"pages", draft.Pages(),
			)
			return
		}
		r.logger.Debug("Skipped page without body", "url", pageURL)
	case step.Next != "":
		r.followContinuation(res, acc, step.Next)
	case step.Record != nil:
		r.emit(step.Record)
	}
}

func (r *run) followContinuation(res *colly.Response, acc *article.Accumulator, href string) {
	target := res.Request.AbsoluteURL(href)
	var err error
	if target == "" {
		err = fmt.Errorf("unresolvable continuation %q", href)
	} else {
		err = res.Request.Visit(target)
	}
	if err != nil {
		r.metrics.ArticleFailed()
		r.logger.Warn("Abandoning article",
			"url", acc.Draft().SourceURL(),
			"pages", acc.Draft().Pages(),
			"error", &WrapperError{Err: err, Context: target},
		)
	}
}

func (r *run) emit(rec *article.Record) {
	if err := r.sink.Save(r.ctx, rec); err != nil {
		r.metrics.SinkError()
		r.logger.Error("Failed to save article", "url", rec.SourceURL, "id", rec.ID, "error", err)
		return
	}
	r.metrics.ArticleEmitted()
	r.logger.Info("Article saved",
		"url", rec.SourceURL,
		"id", rec.ID,
		"pages", rec.Pages,
	)
}

func (r *run) handleError(res *colly.Response, err error) {
	if r.ctx.Err() != nil {
		return
	}
	if r.tryRetry(res, err) {
		return
	}
	r.metrics.RequestFailed()
	if res.Ctx.Get(kindCtxKey) == kindArticle {
		r.metrics.ArticleFailed()
	}
	r.logger.Error("Request failed",
		"url", res.Request.URL.String(),
		"status", res.StatusCode,
		"error", err,
	)
}

// tryRetry retries transient failures up to HTTPRetryMax times. It returns
// true when the failure was handed to a retry.
func (r *run) tryRetry(res *colly.Response, err error) bool {
	if r.cfg.HTTPRetryMax <= 0 || !isTransient(res, err) {
		return false
	}
	count, _ := res.Ctx.GetAny(retryCountKey).(int)
	if count >= r.cfg.HTTPRetryMax {
		return false
	}
	res.Ctx.Put(retryCountKey, count+1)

	r.logger.Warn("Retrying request",
		"url", res.Request.URL.String(),
		"attempt", count+1,
		"error", err,
	)
	select {
	case <-time.After(r.cfg.HTTPRetryDelay):
	case <-r.ctx.Done():
		return true
	}
	if retryErr := res.Request.Retry(); retryErr != nil {
		r.logger.Warn("Retry failed", "url", res.Request.URL.String(), "error", retryErr)
		return false
	}
	return true
}

// isTransient reports whether a failure looks retryable: 5xx, 429 or a
// connection-level error.
func isTransient(res *colly.Response, err error) bool {
	if res != nil && (res.StatusCode >= http.StatusInternalServerError || res.StatusCode == http.StatusTooManyRequests) {
		return true
	}
	if res != nil && res.StatusCode != 0 {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection refused", "connection reset", "eof", "broken pipe",
		"i/o timeout", "timeout", "temporary failure",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// logVisitError logs a refused enqueue. Duplicates and off-site links are expected.
func (r *run) logVisitError(target string, err error) {
	if isExpectedVisitError(err) {
		r.logger.Debug("Not visiting", "url", target, "reason", err)
		return
	}
	r.metrics.RequestFailed()
	r.logger.Warn("Failed to visit", "url", target, "error", err)
}

func isExpectedVisitError(err error) bool {
	if errors.Is(err, colly.ErrForbiddenDomain) || errors.Is(err, colly.ErrRobotsTxtBlocked) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already visited")
}

func (r *run) logSummary(s Summary) {
	r.logger.Info("Crawl finished",
		"first_date", s.FirstDate.String(),
		"last_date", s.LastDate.String(),
		"dates", s.Dates,
		"duration", s.Duration.String(),
		"index_pages", s.Metrics.IndexPages,
		"article_pages", s.Metrics.ArticlePages,
		"articles_emitted", s.Metrics.ArticlesEmitted,
		"articles_failed", s.Metrics.ArticlesFailed,
		"pages_skipped", s.Metrics.PagesSkipped,
		"requests_failed", s.Metrics.RequestsFailed,
		"sink_errors", s.Metrics.SinkErrors,
	)
}
