package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jansonh/detiknews-crawler/internal/dateindex"
)

// Crawler defaults.
const (
	DefaultParallelism    = 4
	DefaultUserAgent      = "detiknews-crawler/1.0 (+https://github.com/jansonh/detiknews-crawler)"
	DefaultRequestTimeout = 30 * time.Second
	DefaultDelay          = 1 * time.Second
	DefaultRandomDelay    = 500 * time.Millisecond
	DefaultHTTPRetryMax   = 2
	DefaultHTTPRetryDelay = 2 * time.Second
	DefaultMaxEmptyDays   = 7
)

// CrawlerConfig holds the fetch driver settings and the termination policy of a run.
type CrawlerConfig struct {
	// IndexURLTemplate holds {month}, {day} and {year} placeholders.
	IndexURLTemplate string `mapstructure:"index_url_template" yaml:"index_url_template"`
	// AllowedDomains restricts every request to these hosts.
	AllowedDomains []string `mapstructure:"allowed_domains" yaml:"allowed_domains"`
	UserAgent      string   `mapstructure:"user_agent" yaml:"user_agent"`
	// Parallelism is the number of concurrent requests per domain.
	Parallelism      int           `mapstructure:"parallelism" yaml:"parallelism"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	Delay            time.Duration `mapstructure:"delay" yaml:"delay"`
	RandomDelay      time.Duration `mapstructure:"random_delay" yaml:"random_delay"`
	RespectRobotsTxt bool          `mapstructure:"respect_robots_txt" yaml:"respect_robots_txt"`
	DetectCharset    bool          `mapstructure:"detect_charset" yaml:"detect_charset"`
	// HTTPRetryMax is the number of retries for transient transport failures.
	HTTPRetryMax   int           `mapstructure:"http_retry_max" yaml:"http_retry_max"`
	HTTPRetryDelay time.Duration `mapstructure:"http_retry_delay" yaml:"http_retry_delay"`

	// Start overrides today as the first date (YYYY-MM-DD).
	Start string `mapstructure:"start" yaml:"start"`
	// Days stops after this many dates; 0 means no limit.
	Days int `mapstructure:"days" yaml:"days"`
	// Until stops once dates go before this one (YYYY-MM-DD, inclusive).
	Until string `mapstructure:"until" yaml:"until"`
	// MaxEmptyDays stops after this many consecutive dates without articles; 0 disables.
	MaxEmptyDays int `mapstructure:"max_empty_days" yaml:"max_empty_days"`
}

// NewCrawlerConfig returns the crawler defaults.
func NewCrawlerConfig() CrawlerConfig {
	return CrawlerConfig{
		IndexURLTemplate: dateindex.DefaultURLTemplate,
		AllowedDomains:   []string{"news.detik.com"},
		UserAgent:        DefaultUserAgent,
		Parallelism:      DefaultParallelism,
		RequestTimeout:   DefaultRequestTimeout,
		Delay:            DefaultDelay,
		RandomDelay:      DefaultRandomDelay,
		RespectRobotsTxt: true,
		DetectCharset:    true,
		HTTPRetryMax:     DefaultHTTPRetryMax,
		HTTPRetryDelay:   DefaultHTTPRetryDelay,
		MaxEmptyDays:     DefaultMaxEmptyDays,
	}
}

// Validate validates the crawler configuration.
func (c *CrawlerConfig) Validate() error {
	if err := dateindex.ValidateTemplate(c.IndexURLTemplate); err != nil {
		return err
	}
	if c.Parallelism < 1 {
		return errors.New("parallelism must be positive")
	}
	if c.RequestTimeout < 0 || c.Delay < 0 || c.RandomDelay < 0 || c.HTTPRetryDelay < 0 {
		return errors.New("durations must be non-negative")
	}
	if c.HTTPRetryMax < 0 {
		return errors.New("http_retry_max must be non-negative")
	}
	if c.Days < 0 {
		return errors.New("days must be non-negative")
	}
	if c.MaxEmptyDays < 0 {
		return errors.New("max_empty_days must be non-negative")
	}
	if c.Start != "" {
		if _, err := dateindex.ParseDate(c.Start); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	if c.Until != "" {
		if _, err := dateindex.ParseDate(c.Until); err != nil {
			return fmt.Errorf("until: %w", err)
		}
	}
	return nil
}
