// Package common provides shared utilities for command implementations.
package common

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"github.com/jansonh/detiknews-crawler/internal/config"
	"github.com/jansonh/detiknews-crawler/internal/logger"
	"github.com/jansonh/detiknews-crawler/internal/storage"
)

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// NewCommandDeps loads the configuration from viper and creates the logger.
func NewCommandDeps() (CommandDeps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewWithWriter(&cfg.Logger, logWriter(cfg))
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	deps := CommandDeps{
		Logger: log,
		Config: cfg,
	}
	if validateErr := deps.Validate(); validateErr != nil {
		return CommandDeps{}, fmt.Errorf("validate deps: %w", validateErr)
	}
	return deps, nil
}

// logWriter keeps stdout free for records when the JSON lines sink writes there.
func logWriter(cfg *config.Config) io.Writer {
	if cfg.Output.Enabled(config.SinkJSONLines) && cfg.Output.JSONLPath == storage.StdoutPath {
		return os.Stderr
	}
	return os.Stdout
}
