package config

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address      string        `mapstructure:"address" yaml:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// NewServerConfig returns the server defaults.
func NewServerConfig() ServerConfig {
	return ServerConfig{
		Address:      ":8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return errors.New("address is required")
	}
	return nil
}

// ScheduleConfig configures recurring crawls.
type ScheduleConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Cron is a standard five-field cron expression.
	Cron string `mapstructure:"cron" yaml:"cron"`
	// Days is how many recent dates each scheduled run re-crawls.
	Days int `mapstructure:"days" yaml:"days"`
}

// NewScheduleConfig returns the schedule defaults.
func NewScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		Cron: "0 */6 * * *",
		Days: 2,
	}
}

// Validate validates the schedule configuration.
func (c *ScheduleConfig) Validate() error {
	if _, err := cron.ParseStandard(c.Cron); err != nil {
		return err
	}
	if c.Days < 1 {
		return errors.New("days must be positive")
	}
	return nil
}
