package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/isv-promotor/stockreview/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SnapshotWarmer fills the snapshot cache for the current data stamp. It
// reports how many rows the snapshot holds and whether they were already
// cached.
type SnapshotWarmer interface {
	Warm(ctx context.Context) (rows int, cached bool, err error)
}

// SnapshotRefreshJob keeps the redis stock snapshot warm between data loads.
type SnapshotRefreshJob struct {
	Warmer  SnapshotWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewSnapshotRefreshJob wires the refresh handler.
func NewSnapshotRefreshJob(warmer SnapshotWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{Warmer: warmer, Logger: logger, Metrics: metrics, Timeout: 2 * time.Minute}
}

// Handle processes TaskSnapshotRefresh tasks.
func (j *SnapshotRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Warmer == nil {
		return errors.New("snapshot refresh: handler not configured")
	}
	var payload SnapshotRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("snapshot refresh: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskSnapshotRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := time.Now()
	rows, cached, err := j.Warmer.Warm(ctx)
	if err != nil {
		resultErr = fmt.Errorf("snapshot refresh: %w", err)
		logger.Error("warm snapshot", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddRows(TaskSnapshotRefresh, cached, rows)
	logger.Info("snapshot warm",
		slog.Int("rows", rows),
		slog.Bool("cached", cached),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *SnapshotRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSnapshotRefresh))
	}
	return slog.Default().With(slog.String("job", TaskSnapshotRefresh))
}

func (j *SnapshotRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
