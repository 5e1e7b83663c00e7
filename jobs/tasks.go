package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup pre-computes snapshots for common filter selections.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskDashboardRefresh invalidates cached snapshots after a data load.
	TaskDashboardRefresh = "dashboard:refresh"
)

// DashboardWarmupPayload names the lookback windows, in days, to warm.
type DashboardWarmupPayload struct {
	WindowsDays []int `json:"windows_days"`
}

// NewDashboardWarmupTask constructs an Asynq task for snapshot warmup.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// NewDashboardRefreshTask constructs an Asynq task for cache invalidation.
func NewDashboardRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardRefresh, nil)
}
