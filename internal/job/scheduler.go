// Package job runs crawls on a cron schedule and on demand.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jansonh/detiknews-crawler/internal/config"
	"github.com/jansonh/detiknews-crawler/internal/crawler"
	"github.com/jansonh/detiknews-crawler/internal/logger"
)

var (
	// ErrBusy is returned by Trigger while another crawl is running.
	ErrBusy = errors.New("a crawl is already running")

	// ErrStopped is returned by Trigger once Stop has been called.
	ErrStopped = errors.New("scheduler stopped")
)

// Runner runs one crawl.
type Runner interface {
	Run(ctx context.Context, policy crawler.Policy) (crawler.Summary, error)
}

// Status describes the scheduler's recent activity.
type Status struct {
	Running     bool             `json:"running"`
	Scheduled   bool             `json:"scheduled"`
	NextRun     time.Time        `json:"next_run,omitzero"`
	LastStart   time.Time        `json:"last_start,omitzero"`
	LastFinish  time.Time        `json:"last_finish,omitzero"`
	LastError   string           `json:"last_error,omitempty"`
	LastSummary *crawler.Summary `json:"last_summary,omitempty"`
}

// Scheduler triggers crawls of the most recent dates.
type Scheduler struct {
	logger  logger.Interface
	runner  Runner
	spec    string
	days    int
	cron    *cron.Cron
	entryID cron.EntryID

	busy atomic.Bool
	wg   sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	// mu guards status and stopped. Trigger adds to wg while holding it.
	mu      sync.RWMutex
	status  Status
	stopped bool
}

// NewScheduler creates a scheduler from cfg. It does not start it.
func NewScheduler(log logger.Interface, runner Runner, cfg *config.ScheduleConfig) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	log = log.WithComponent("scheduler")

	// Standard five-field expressions plus descriptors such as @hourly.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cronLog := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger: log,
		runner: runner,
		spec:   cfg.Cron,
		days:   cfg.Days,
		cron:   c,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start registers the recurring crawl and starts the cron loop.
func (s *Scheduler) Start() error {
	entryID, err := s.cron.AddFunc(s.spec, func() {
		if err := s.Trigger(s.days); err != nil {
			s.logger.Warn("Skipping scheduled crawl", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule crawl: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()

	s.mu.Lock()
	s.status.Scheduled = true
	s.mu.Unlock()

	s.logger.Info("Scheduler started",
		"schedule", s.spec,
		"days", s.days,
		"next_run", s.cron.Entry(entryID).Next.Format(time.RFC3339),
	)
	return nil
}

// Stop stops the cron loop, cancels a running crawl and waits for it.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()

	cronCtx := s.cron.Stop()
	<-cronCtx.Done()
	s.wg.Wait()

	s.mu.Lock()
	s.status.Scheduled = false
	s.mu.Unlock()

	s.logger.Info("Scheduler stopped")
	return nil
}

// Trigger starts a crawl of the last days dates in the background.
func (s *Scheduler) Trigger(days int) error {
	if days < 1 {
		return fmt.Errorf("%w: days must be positive", crawler.ErrInvalidPolicy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	s.status.Running = true
	s.status.LastStart = time.Now()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.busy.Store(false)
		s.run(days)
	}()
	return nil
}

func (s *Scheduler) run(days int) {
	s.logger.Info("Crawl triggered", "days", days)
	summary, err := s.runner.Run(s.ctx, crawler.LastDays(days))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Running = false
	s.status.LastFinish = time.Now()
	s.status.LastSummary = &summary
	s.status.LastError = ""
	if err != nil && !errors.Is(err, context.Canceled) {
		s.status.LastError = err.Error()
		s.logger.Error("Crawl failed", "error", err)
	}
}

// Status returns a copy of the scheduler status.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()

	if st.Scheduled {
		st.NextRun = s.cron.Entry(s.entryID).Next
	}
	return st
}

// cronLogger adapts logger.Interface to cron.Logger.
type cronLogger struct {
	log logger.Interface
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
