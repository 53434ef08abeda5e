// Package api exposes crawl status, stored articles and crawl triggers over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jansonh/detiknews-crawler/internal/config"
	"github.com/jansonh/detiknews-crawler/internal/content/article"
	"github.com/jansonh/detiknews-crawler/internal/crawler"
	"github.com/jansonh/detiknews-crawler/internal/job"
	"github.com/jansonh/detiknews-crawler/internal/logger"
	"github.com/jansonh/detiknews-crawler/internal/metrics"
	"github.com/jansonh/detiknews-crawler/internal/storage"
)

const (
	readHeaderTimeout  = 10 * time.Second
	defaultTriggerDays = 1
)

// CrawlTrigger starts background crawls and reports on them.
type CrawlTrigger interface {
	Trigger(days int) error
	Status() job.Status
}

// Params holds the dependencies of the router. Reader and Trigger are
// optional; their routes answer 503 when absent.
type Params struct {
	Logger  logger.Interface
	Reader  storage.Reader
	Trigger CrawlTrigger
	Metrics *metrics.Metrics
}

type handler struct {
	log     logger.Interface
	reader  storage.Reader
	trigger CrawlTrigger
	metrics *metrics.Metrics
}

// SetupRouter creates the gin engine with all routes.
func SetupRouter(p Params) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	log := p.Logger
	if log == nil {
		log = logger.NewNoOp()
	}
	log = log.WithComponent("api")

	if p.Metrics == nil {
		p.Metrics = metrics.New()
	}
	registry := prometheus.NewRegistry()
	if err := registry.Register(p.Metrics); err != nil {
		return nil, err
	}
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}

	h := &handler{log: log, reader: p.Reader, trigger: p.Trigger, metrics: p.Metrics}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	v1.GET("/stats", h.stats)
	v1.GET("/articles", h.listArticles)
	v1.GET("/articles/:id", h.getArticle)
	v1.GET("/crawls", h.crawlStatus)
	v1.POST("/crawls", h.triggerCrawl)

	return router, nil
}

// NewServer wraps handler in an http.Server configured from cfg.
func NewServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

func (h *handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func (h *handler) listArticles(c *gin.Context) {
	if h.reader == nil {
		respondUnavailable(c, "article storage")
		return
	}
	p := pageFromQuery(c)

	records, err := h.reader.List(c.Request.Context(), p.Limit, p.Offset)
	if err != nil {
		h.log.Error("Failed to list articles", "error", err)
		respondInternalError(c, "failed to list articles")
		return
	}
	c.JSON(http.StatusOK, struct {
		Articles []*article.Record `json:"articles"`
		page
	}{records, p})
}

func (h *handler) getArticle(c *gin.Context) {
	if h.reader == nil {
		respondUnavailable(c, "article storage")
		return
	}
	rec, err := h.reader.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		respondNotFound(c, "article")
		return
	}
	if err != nil {
		h.log.Error("Failed to get article", "id", c.Param("id"), "error", err)
		respondInternalError(c, "failed to get article")
		return
	}
	c.JSON(http.StatusOK, rec)
}

type triggerRequest struct {
	Days int `json:"days"`
}

func (h *handler) triggerCrawl(c *gin.Context) {
	if h.trigger == nil {
		respondUnavailable(c, "crawl scheduling")
		return
	}
	req := triggerRequest{Days: defaultTriggerDays}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	err := h.trigger.Trigger(req.Days)
	switch {
	case errors.Is(err, job.ErrBusy):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, job.ErrStopped):
		respondError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, crawler.ErrInvalidPolicy):
		respondBadRequest(c, err.Error())
	case err != nil:
		h.log.Error("Failed to trigger crawl", "error", err)
		respondInternalError(c, "failed to trigger crawl")
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "started", "days": req.Days})
	}
}

func (h *handler) crawlStatus(c *gin.Context) {
	if h.trigger == nil {
		respondUnavailable(c, "crawl scheduling")
		return
	}
	c.JSON(http.StatusOK, h.trigger.Status())
}

func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Debug("HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
