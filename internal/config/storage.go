package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Sink names accepted in OutputConfig.Sinks.
const (
	SinkJSONLines     = "jsonl"
	SinkElasticsearch = "elasticsearch"
	SinkPostgres      = "postgres"
)

// ElasticsearchConfig configures the Elasticsearch sink.
type ElasticsearchConfig struct {
	Addresses          []string      `mapstructure:"addresses" yaml:"addresses"`
	Username           string        `mapstructure:"username" yaml:"username"`
	Password           string        `mapstructure:"password" yaml:"password"`
	APIKey             string        `mapstructure:"api_key" yaml:"api_key"`
	IndexName          string        `mapstructure:"index_name" yaml:"index_name"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// NewElasticsearchConfig returns the Elasticsearch defaults.
func NewElasticsearchConfig() ElasticsearchConfig {
	return ElasticsearchConfig{
		// 127.0.0.1 rather than localhost avoids IPv6 resolution surprises.
		Addresses: []string{"http://127.0.0.1:9200"},
		IndexName: "detik_articles",
		Timeout:   10 * time.Second,
	}
}

// Validate validates the Elasticsearch configuration.
func (c *ElasticsearchConfig) Validate() error {
	if len(c.Addresses) == 0 {
		return errors.New("at least one address is required")
	}
	if c.IndexName == "" {
		return errors.New("index_name is required")
	}
	return nil
}

// DatabaseConfig configures the PostgreSQL sink.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// NewDatabaseConfig returns the PostgreSQL defaults.
func NewDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:    "localhost",
		Port:    "5432",
		User:    "postgres",
		DBName:  "detiknews",
		SSLMode: "disable",
	}
}

// DSN renders the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" || c.Port == "" || c.DBName == "" {
		return errors.New("host, port and dbname are required")
	}
	return nil
}

// OutputConfig selects where finished articles go.
type OutputConfig struct {
	Sinks []string `mapstructure:"sinks" yaml:"sinks"`
	// JSONLPath is the JSON lines file; "-" writes to stdout.
	JSONLPath string `mapstructure:"jsonl_path" yaml:"jsonl_path"`
}

// NewOutputConfig returns the output defaults.
func NewOutputConfig() OutputConfig {
	return OutputConfig{
		Sinks:     []string{SinkJSONLines},
		JSONLPath: "articles.jsonl",
	}
}

// Enabled reports whether the named sink is selected.
func (c *OutputConfig) Enabled(name string) bool {
	return slices.Contains(c.Sinks, name)
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	if len(c.Sinks) == 0 {
		return errors.New("at least one sink is required")
	}
	for _, s := range c.Sinks {
		switch s {
		case SinkJSONLines, SinkElasticsearch, SinkPostgres:
		default:
			return fmt.Errorf("unknown sink %q", s)
		}
	}
	if c.Enabled(SinkJSONLines) && c.JSONLPath == "" {
		return errors.New("jsonl_path is required for the jsonl sink")
	}
	return nil
}
