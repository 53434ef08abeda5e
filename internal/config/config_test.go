package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jansonh/detiknews-crawler/internal/config"
	"github.com/jansonh/detiknews-crawler/internal/logger"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	require.NoError(t, config.SetDefaults(v))
	return v
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, "https://news.detik.com/indeks/?date={month}/{day}/{year}", cfg.Crawler.IndexURLTemplate)
	assert.Equal(t, config.DefaultParallelism, cfg.Crawler.Parallelism)
	assert.Equal(t, time.Second, cfg.Crawler.Delay)
	assert.Equal(t, "h3.media__title > a", cfg.Selectors.Index.ArticleLinks)
	assert.Equal(t, "div.detail__body-text", cfg.Selectors.Article.Body)
	assert.Equal(t, []string{"Selanjutnya Halaman 1", "Halaman 1"}, cfg.Cleaner.ContinuationMarkers)
	assert.Equal(t, []string{config.SinkJSONLines}, cfg.Output.Sinks)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
crawler:
  parallelism: 8
  delay: 3s
  days: 30
selectors:
  article:
    title: h1.title
cleaner:
  continuation_markers: ["Next"]
output:
  sinks: [jsonl, postgres]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Crawler.Parallelism)
	assert.Equal(t, 3*time.Second, cfg.Crawler.Delay)
	assert.Equal(t, 30, cfg.Crawler.Days)
	assert.Equal(t, "h1.title", cfg.Selectors.Article.Title)
	assert.Equal(t, "div.detail__author", cfg.Selectors.Article.Author)
	assert.Equal(t, []string{"Next"}, cfg.Cleaner.ContinuationMarkers)
	assert.True(t, cfg.Output.Enabled(config.SinkPostgres))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CRAWLER_PARALLELISM", "2")
	t.Setenv("ELASTICSEARCH_INDEX_NAME", "news_test")

	cfg, err := config.Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Crawler.Parallelism)
	assert.Equal(t, "news_test", cfg.Elasticsearch.IndexName)
}

func TestLoad_DevelopmentLogging(t *testing.T) {
	v := newViper(t)
	v.Set("app.environment", config.EnvDevelopment)
	v.Set("app.debug", true)

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.True(t, cfg.Logger.Development)
	assert.Equal(t, logger.EncodingConsole, cfg.Logger.Encoding)
	assert.Equal(t, logger.DebugLevel, cfg.Logger.Level)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"parallelism", func(c *config.Config) { c.Crawler.Parallelism = 0 }},
		{"template", func(c *config.Config) { c.Crawler.IndexURLTemplate = "https://x/{year}" }},
		{"until", func(c *config.Config) { c.Crawler.Until = "yesterday" }},
		{"start", func(c *config.Config) { c.Crawler.Start = "2024/01/01" }},
		{"negative days", func(c *config.Config) { c.Crawler.Days = -1 }},
		{"index selector", func(c *config.Config) { c.Selectors.Index.ArticleLinks = "" }},
		{"article selector", func(c *config.Config) { c.Selectors.Article.Body = "div[" }},
		{"cleaner pattern", func(c *config.Config) { c.Cleaner.SignaturePattern = "(" }},
		{"unknown sink", func(c *config.Config) { c.Output.Sinks = []string{"s3"} }},
		{"no sinks", func(c *config.Config) { c.Output.Sinks = nil }},
		{"elasticsearch index", func(c *config.Config) {
			c.Output.Sinks = []string{config.SinkElasticsearch}
			c.Elasticsearch.IndexName = ""
		}},
		{"database host", func(c *config.Config) {
			c.Output.Sinks = []string{config.SinkPostgres}
			c.Database.Host = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestScheduleConfig_Validate(t *testing.T) {
	sc := config.NewScheduleConfig()
	require.NoError(t, sc.Validate())

	sc.Cron = "every now and then"
	require.Error(t, sc.Validate())

	sc = config.NewScheduleConfig()
	sc.Days = 0
	require.Error(t, sc.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := config.NewDatabaseConfig()
	db.Password = "secret"
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=detiknews sslmode=disable", db.DSN())
}
