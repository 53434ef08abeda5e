package job_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jansonh/detiknews-crawler/internal/config"
	"github.com/jansonh/detiknews-crawler/internal/crawler"
	"github.com/jansonh/detiknews-crawler/internal/job"
	"github.com/jansonh/detiknews-crawler/internal/logger"
)

type fakeRunner struct {
	mu       sync.Mutex
	policies []crawler.Policy
	block    chan struct{}
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, policy crawler.Policy) (crawler.Summary, error) {
	f.mu.Lock()
	f.policies = append(f.policies, policy)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return crawler.Summary{}, ctx.Err()
		}
	}
	return crawler.Summary{RunID: "run-1", Dates: policy.Days}, f.err
}

func (f *fakeRunner) calls() []crawler.Policy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]crawler.Policy(nil), f.policies...)
}

func newScheduler(t *testing.T, runner job.Runner, spec string) *job.Scheduler {
	t.Helper()
	cfg := config.NewScheduleConfig()
	cfg.Cron = spec
	s, err := job.NewScheduler(logger.NewNoOp(), runner, &cfg)
	require.NoError(t, err)
	return s
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	cfg := config.ScheduleConfig{Cron: "every morning", Days: 1}
	_, err := job.NewScheduler(logger.NewNoOp(), &fakeRunner{}, &cfg)
	require.Error(t, err)
}

func TestScheduler_Trigger(t *testing.T) {
	runner := &fakeRunner{}
	s := newScheduler(t, runner, "0 */6 * * *")

	require.NoError(t, s.Trigger(3))
	require.Eventually(t, func() bool {
		st := s.Status()
		return !st.Running && st.LastSummary != nil
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, []crawler.Policy{crawler.LastDays(3)}, runner.calls())
	st := s.Status()
	assert.Equal(t, "run-1", st.LastSummary.RunID)
	assert.Empty(t, st.LastError)
	assert.False(t, st.LastStart.IsZero())
	require.NoError(t, s.Stop())
}

func TestScheduler_TriggerWhileBusy(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	s := newScheduler(t, runner, "0 */6 * * *")

	require.NoError(t, s.Trigger(1))
	require.ErrorIs(t, s.Trigger(1), job.ErrBusy)
	assert.True(t, s.Status().Running)

	close(runner.block)
	require.Eventually(t, func() bool { return !s.Status().Running }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Trigger(1))
	require.NoError(t, s.Stop())
}

func TestScheduler_TriggerInvalidDays(t *testing.T) {
	s := newScheduler(t, &fakeRunner{}, "0 */6 * * *")
	require.ErrorIs(t, s.Trigger(0), crawler.ErrInvalidPolicy)
}

func TestScheduler_RecordsErrors(t *testing.T) {
	runner := &fakeRunner{err: errors.New("sink down")}
	s := newScheduler(t, runner, "0 */6 * * *")

	require.NoError(t, s.Trigger(2))
	require.Eventually(t, func() bool { return s.Status().LastError == "sink down" }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestScheduler_StopCancelsRunningCrawl(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	s := newScheduler(t, runner, "0 */6 * * *")

	require.NoError(t, s.Trigger(1))
	require.NoError(t, s.Stop())

	st := s.Status()
	assert.False(t, st.Running)
	assert.Empty(t, st.LastError)
	require.ErrorIs(t, s.Trigger(1), job.ErrStopped)
}

func TestScheduler_TriggerDuringStop(t *testing.T) {
	runner := &fakeRunner{}
	s := newScheduler(t, runner, "0 */6 * * *")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				err := s.Trigger(1)
				if errors.Is(err, job.ErrStopped) {
					return
				}
				if err != nil {
					assert.ErrorIs(t, err, job.ErrBusy)
				}
			}
		}()
	}
	require.NoError(t, s.Stop())
	wg.Wait()

	require.ErrorIs(t, s.Trigger(1), job.ErrStopped)
	assert.False(t, s.Status().Running)
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	runner := &fakeRunner{}
	s := newScheduler(t, runner, "@every 1s")

	require.NoError(t, s.Start())
	assert.True(t, s.Status().Scheduled)
	assert.False(t, s.Status().NextRun.IsZero())

	require.Eventually(t, func() bool { return len(runner.calls()) > 0 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Equal(t, config.NewScheduleConfig().Days, runner.calls()[0].Days)
	assert.False(t, s.Status().Scheduled)
}
