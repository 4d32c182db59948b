package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSnapshotRefresh warms the cached stock snapshot.
	TaskSnapshotRefresh = "stock:snapshot:refresh"
)

// SnapshotRefreshPayload describes a snapshot refresh request.
type SnapshotRefreshPayload struct {
	Reason string `json:"reason"`
}

// NewSnapshotRefreshTask constructs the refresh task. reason ends up in the
// job log only.
func NewSnapshotRefreshTask(reason string) (*asynq.Task, error) {
	if reason == "" {
		reason = "cron"
	}
	data, err := json.Marshal(SnapshotRefreshPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotRefresh, data), nil
}
