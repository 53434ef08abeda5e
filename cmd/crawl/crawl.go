// Package crawl implements the crawl command: a one-off crawl of the daily
// index, walking backwards from today.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdcommon "github.com/jansonh/detiknews-crawler/cmd/common"
	"github.com/jansonh/detiknews-crawler/internal/crawler"
	"github.com/jansonh/detiknews-crawler/internal/metrics"
)

// flagKeys maps crawl flags to configuration keys.
var flagKeys = map[string]string{
	"days":           "crawler.days",
	"until":          "crawler.until",
	"start":          "crawler.start",
	"max-empty-days": "crawler.max_empty_days",
	"parallelism":    "crawler.parallelism",
	"sink":           "output.sinks",
	"output":         "output.jsonl_path",
}

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the daily news index backwards from today",
		Long: `Crawl walks the daily index pages from today (or --start) backwards, one date
at a time, and writes every reassembled article to the enabled sinks.

By default the crawl stops after crawler.max_empty_days (7) consecutive dates
without article links. Pass --max-empty-days 0 without --days or --until to
crawl until interrupted.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			for name, key := range flagKeys {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return fmt.Errorf("failed to bind %s flag: %w", name, err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx)
		},
	}

	cmd.Flags().Int("days", 0, "number of dates to crawl (0 means no limit)")
	cmd.Flags().String("until", "", "oldest date to crawl, inclusive (YYYY-MM-DD)")
	cmd.Flags().String("start", "", "first date to crawl instead of today (YYYY-MM-DD)")
	cmd.Flags().Int("max-empty-days", 0, "stop after this many consecutive dates without articles")
	cmd.Flags().Int("parallelism", 0, "concurrent requests per domain")
	cmd.Flags().StringSlice("sink", nil, "sinks to write to: jsonl, elasticsearch, postgres")
	cmd.Flags().StringP("output", "o", "", `JSON lines output file ("-" for stdout)`)

	return cmd
}

func run(ctx context.Context) error {
	deps, err := cmdcommon.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()

	policy, err := crawler.PolicyFromConfig(&deps.Config.Crawler)
	if err != nil {
		return err
	}

	stor, err := cmdcommon.NewStorage(ctx, deps)
	if err != nil {
		return fmt.Errorf("failed to set up storage: %w", err)
	}
	defer func() {
		if closeErr := stor.Close(); closeErr != nil {
			deps.Logger.Error("Failed to close storage", "error", closeErr)
		}
	}()

	c, err := cmdcommon.NewCrawler(deps, stor.Sink, metrics.New())
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	summary, err := c.Run(ctx, policy)
	if errors.Is(err, context.Canceled) {
		deps.Logger.Info("Crawl interrupted", "dates", summary.Dates, "articles", summary.Metrics.ArticlesEmitted)
		return nil
	}
	return err
}
