package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/scout-analytics/scout/internal/aggregate"
	"github.com/scout-analytics/scout/internal/dashboard"
	"github.com/scout-analytics/scout/internal/filter"
	jobmetrics "github.com/scout-analytics/scout/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// defaultWarmupWindows are the lookback windows warmed when the payload
// names none. They match the date presets the dashboard offers.
var defaultWarmupWindows = []int{7, 30, 90}

// DashboardWarmupJob pre-populates snapshot caches for common selections.
type DashboardWarmupJob struct {
	Dashboard *dashboard.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(svc *dashboard.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Dashboard: svc,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks. Each lookback window plus the
// unrestricted selection is warmed concurrently.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	windows := payload.WindowsDays
	if len(windows) == 0 {
		windows = defaultWarmupWindows
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger()
	logger.Info("starting dashboard warmup", slog.Int("windows", len(windows)))

	now := j.now().In(aggregate.BusinessZone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, aggregate.BusinessZone)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return j.warmSelection(gctx, filter.Selection{})
	})
	for _, days := range windows {
		if days <= 0 {
			continue
		}
		// Day-aligned bounds, matching how the HTTP layer builds the same
		// preset, so the warmed cache key is the one a request will hit.
		from := today.AddDate(0, 0, -days)
		to := today.AddDate(0, 0, 1).Add(-time.Nanosecond)
		var sel filter.Selection
		sel.SetDateRange(&from, &to)
		g.Go(func() error {
			return j.warmSelection(gctx, sel)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("dashboard warmup", slog.Any("error", err))
		return err
	}

	logger.Info("completed dashboard warmup", slog.Duration("duration", time.Since(now)))
	return nil
}

// HandleRefresh processes cache invalidation tasks.
func (j *DashboardWarmupJob) HandleRefresh(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard refresh: handler not configured")
	}
	tracker := j.metrics().Track(TaskDashboardRefresh)
	err := j.Dashboard.Refresh(ctx)
	if err != nil {
		j.logger().Error("dashboard refresh", slog.Any("error", err))
	}
	return tracker.End(err)
}

func (j *DashboardWarmupJob) warmSelection(ctx context.Context, sel filter.Selection) error {
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return j.Dashboard.Warm(warmCtx, sel)
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
