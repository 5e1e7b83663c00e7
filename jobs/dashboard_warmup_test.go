package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/scout-analytics/scout/internal/aggregate"
	"github.com/scout-analytics/scout/internal/dashboard"
	"github.com/scout-analytics/scout/internal/filter"
	"github.com/scout-analytics/scout/internal/shared"
)

type stubSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubSource) FetchPage(ctx context.Context, sel filter.Selection, offset, limit int) ([]aggregate.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, false, s.err
	}
	return []aggregate.Transaction{}, false, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newWarmupFixture(t *testing.T) (*DashboardWarmupJob, *stubSource, *dashboard.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	source := &stubSource{}
	cache := dashboard.NewCache(client, time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := dashboard.NewService(source, nil, cache, logger)
	return NewDashboardWarmupJob(svc, logger, nil), source, cache
}

func TestWarmupHandleCoversDefaultWindows(t *testing.T) {
	job, source, _ := newWarmupFixture(t)

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	// One unrestricted selection plus each default lookback window.
	require.Equal(t, 1+len(defaultWarmupWindows), source.callCount())
}

func TestWarmupHandleCustomWindows(t *testing.T) {
	job, source, _ := newWarmupFixture(t)

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{WindowsDays: []int{14}})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 2, source.callCount())
}

func TestWarmupHandlePropagatesSourceFailure(t *testing.T) {
	job, source, _ := newWarmupFixture(t)
	source.err = errors.New("source down")

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{WindowsDays: []int{7}})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.ErrorIs(t, err, shared.ErrSourceUnavailable)
}

func TestWarmupBoundsStableWithinDay(t *testing.T) {
	job, source, _ := newWarmupFixture(t)
	job.clock = func() time.Time { return time.Date(2025, 6, 1, 2, 15, 0, 0, time.UTC) }

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	warmed := source.callCount()

	// A later run on the same business day warms identical day-aligned
	// selections and lands entirely on the cache.
	job.clock = func() time.Time { return time.Date(2025, 6, 1, 9, 45, 0, 0, time.UTC) }
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, warmed, source.callCount())
}

func TestWarmupHandleSkipsRetryOnBadPayload(t *testing.T) {
	job, _, _ := newWarmupFixture(t)

	err := job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRefreshBumpsCacheVersion(t *testing.T) {
	job, _, cache := newWarmupFixture(t)
	ctx := context.Background()

	before, err := cache.Version(ctx)
	require.NoError(t, err)

	require.NoError(t, job.HandleRefresh(ctx, NewDashboardRefreshTask()))

	after, err := cache.Version(ctx)
	require.NoError(t, err)
	require.Greater(t, after, before)
}
