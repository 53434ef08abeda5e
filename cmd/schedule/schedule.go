// Package schedule implements the schedule command, which re-crawls the most
// recent dates on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdcommon "github.com/jansonh/detiknews-crawler/cmd/common"
	"github.com/jansonh/detiknews-crawler/internal/job"
	"github.com/jansonh/detiknews-crawler/internal/metrics"
)

// Command returns the schedule command.
func Command() *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Re-crawl recent dates on a cron schedule",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := viper.BindPFlag("schedule.cron", cmd.Flags().Lookup("cron")); err != nil {
				return fmt.Errorf("failed to bind cron flag: %w", err)
			}
			if err := viper.BindPFlag("schedule.days", cmd.Flags().Lookup("days")); err != nil {
				return fmt.Errorf("failed to bind days flag: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, runNow)
		},
	}

	cmd.Flags().String("cron", "", "cron expression (default from schedule.cron)")
	cmd.Flags().Int("days", 0, "number of recent dates each run crawls")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "start a crawl immediately as well")

	return cmd
}

func run(ctx context.Context, runNow bool) error {
	deps, err := cmdcommon.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()

	stor, err := cmdcommon.NewStorage(ctx, deps)
	if err != nil {
		return fmt.Errorf("failed to set up storage: %w", err)
	}
	defer func() { _ = stor.Close() }()

	c, err := cmdcommon.NewCrawler(deps, stor.Sink, metrics.New())
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	scheduler, err := job.NewScheduler(deps.Logger, c, &deps.Config.Schedule)
	if err != nil {
		return err
	}
	if err := scheduler.Start(); err != nil {
		return err
	}
	if runNow {
		if err := scheduler.Trigger(deps.Config.Schedule.Days); err != nil {
			deps.Logger.Warn("Failed to start initial crawl", "error", err)
		}
	}

	<-ctx.Done()
	deps.Logger.Info("Shutdown signal received")
	return scheduler.Stop()
}
