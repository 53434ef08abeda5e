// Package config loads and validates the crawler configuration.
//
// Values come from, in increasing precedence: the defaults in this package,
// config.yaml, a .env file and the process environment, and command-line flags.
package config

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/jansonh/detiknews-crawler/internal/content/article"
	"github.com/jansonh/detiknews-crawler/internal/content/cleaner"
	"github.com/jansonh/detiknews-crawler/internal/content/indexpage"
	"github.com/jansonh/detiknews-crawler/internal/logger"
)

// Environment names.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// AppConfig holds application metadata.
type AppConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Environment string `mapstructure:"environment" yaml:"environment"`
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
}

// SelectorsConfig groups the site markup selectors.
type SelectorsConfig struct {
	Index   indexpage.Selectors `mapstructure:"index" yaml:"index"`
	Article article.Selectors   `mapstructure:"article" yaml:"article"`
}

// Config represents the application configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app" yaml:"app"`
	Logger        logger.Config       `mapstructure:"logger" yaml:"logger"`
	Crawler       CrawlerConfig       `mapstructure:"crawler" yaml:"crawler"`
	Selectors     SelectorsConfig     `mapstructure:"selectors" yaml:"selectors"`
	Cleaner       cleaner.Config      `mapstructure:"cleaner" yaml:"cleaner"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch" yaml:"elasticsearch"`
	Database      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	Output        OutputConfig        `mapstructure:"output" yaml:"output"`
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Schedule      ScheduleConfig      `mapstructure:"schedule" yaml:"schedule"`
}

// Default returns a fully populated configuration.
func Default() Config {
	return Config{
		App: AppConfig{
			Name:        "detiknews-crawler",
			Environment: EnvProduction,
		},
		Logger: logger.Config{
			Level:    logger.InfoLevel,
			Encoding: logger.EncodingJSON,
		},
		Crawler: NewCrawlerConfig(),
		Selectors: SelectorsConfig{
			Index:   indexpage.DefaultSelectors(),
			Article: article.DefaultSelectors(),
		},
		Cleaner:       cleaner.DefaultConfig(),
		Elasticsearch: NewElasticsearchConfig(),
		Database:      NewDatabaseConfig(),
		Output:        NewOutputConfig(),
		Server:        NewServerConfig(),
		Schedule:      NewScheduleConfig(),
	}
}

// SetDefaults registers every default with v so that environment variables
// can override nested keys.
func SetDefaults(v *viper.Viper) error {
	var settings map[string]any
	if err := mapstructure.Decode(Default(), &settings); err != nil {
		return fmt.Errorf("failed to flatten defaults: %w", err)
	}
	for key, value := range settings {
		v.SetDefault(key, value)
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.applyEnvironment()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvironment switches logging to developer-friendly output in development.
// The level only drops to debug when debug is requested explicitly.
func (c *Config) applyEnvironment() {
	if c.App.Debug {
		c.Logger.Level = logger.DebugLevel
	}
	if c.App.Environment == EnvDevelopment {
		c.Logger.Development = true
		c.Logger.Encoding = logger.EncodingConsole
	}
}

type sectionCheck struct {
	name string
	fn   func() error
}

// Validate validates every section that is always in use. Sink sections are
// validated only when the sink is enabled.
func (c *Config) Validate() error {
	checks := []sectionCheck{
		{"crawler", c.Crawler.Validate},
		{"selectors.index", c.Selectors.Index.Validate},
		{"selectors.article", c.Selectors.Article.Validate},
		{"cleaner", c.Cleaner.Validate},
		{"output", c.Output.Validate},
	}
	if c.Output.Enabled(SinkElasticsearch) {
		checks = append(checks, sectionCheck{"elasticsearch", c.Elasticsearch.Validate})
	}
	if c.Output.Enabled(SinkPostgres) {
		checks = append(checks, sectionCheck{"database", c.Database.Validate})
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, check.name, err)
		}
	}
	return nil
}
