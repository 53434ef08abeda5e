// Package serve implements the serve command: the HTTP API, optionally
// together with the crawl scheduler.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	cmdcommon "github.com/jansonh/detiknews-crawler/cmd/common"
	"github.com/jansonh/detiknews-crawler/internal/api"
	"github.com/jansonh/detiknews-crawler/internal/job"
	"github.com/jansonh/detiknews-crawler/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

// Command returns the serve command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run scheduled crawls",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := viper.BindPFlag("server.address", cmd.Flags().Lookup("addr")); err != nil {
				return fmt.Errorf("failed to bind addr flag: %w", err)
			}
			if err := viper.BindPFlag("schedule.enabled", cmd.Flags().Lookup("schedule")); err != nil {
				return fmt.Errorf("failed to bind schedule flag: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from server.address)")
	cmd.Flags().Bool("schedule", false, "also run the cron schedule")

	return cmd
}

func run(ctx context.Context) error {
	deps, err := cmdcommon.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()
	cfg := deps.Config

	stor, err := cmdcommon.NewStorage(ctx, deps)
	if err != nil {
		return fmt.Errorf("failed to set up storage: %w", err)
	}
	defer func() { _ = stor.Close() }()
	if stor.Reader == nil {
		deps.Logger.Warn("Article endpoints disabled", "reason", cmdcommon.ErrNoReader)
	}

	m := metrics.New()
	c, err := cmdcommon.NewCrawler(deps, stor.Sink, m)
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}
	scheduler, err := job.NewScheduler(deps.Logger, c, &cfg.Schedule)
	if err != nil {
		return err
	}

	router, err := api.SetupRouter(api.Params{
		Logger:  deps.Logger,
		Reader:  stor.Reader,
		Trigger: scheduler,
		Metrics: m,
	})
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}
	srv := api.NewServer(&cfg.Server, router)

	if cfg.Schedule.Enabled {
		if startErr := scheduler.Start(); startErr != nil {
			return startErr
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Logger.Info("HTTP server listening", "address", cfg.Server.Address)
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", serveErr)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		stopErr := scheduler.Stop()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("http shutdown: %w", shutdownErr)
		}
		return stopErr
	})

	return g.Wait()
}
