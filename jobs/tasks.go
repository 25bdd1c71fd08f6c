package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/institute-erp/institute/internal/auth"
	jobmetrics "github.com/institute-erp/institute/internal/jobs"
	"github.com/institute-erp/institute/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLoginRecorded persists one successful login into the login log.
	TaskLoginRecorded = "auth:login_recorded"
	// TaskLoginsPrune removes login log entries past the retention window.
	TaskLoginsPrune = "logins:prune"
)

// LoginRecordedPayload describes a successful login.
type LoginRecordedPayload struct {
	UserID     int64     `json:"user_id"`
	LoginAt    time.Time `json:"login_at"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}

// NewLoginRecordedTask constructs an Asynq task for a login event.
func NewLoginRecordedTask(event auth.LoginEvent) (*asynq.Task, error) {
	data, err := json.Marshal(LoginRecordedPayload(event))
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLoginRecorded, data, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// HandleLoginRecorded processes TaskLoginRecorded tasks using recorder.
func HandleLoginRecorded(recorder auth.LoginRecorder, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("login_recorded")
		var payload LoginRecordedPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(fmt.Errorf("decode login payload: %v: %w", err, asynq.SkipRetry))
		}
		err := recorder.RecordLogin(ctx, auth.LoginEvent(payload))
		if errors.Is(err, shared.ErrValidation) {
			return tracker.End(fmt.Errorf("%v: %w", err, asynq.SkipRetry))
		}
		return tracker.End(err)
	}
}

// LoginsPrunePayload configures a prune run.
type LoginsPrunePayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewLoginsPruneTask constructs a prune task for the given retention.
func NewLoginsPruneTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(LoginsPrunePayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLoginsPrune, data), nil
}

// Pruner removes login log entries older than a retention window.
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// HandleLoginsPrune processes TaskLoginsPrune tasks.
func HandleLoginsPrune(pruner Pruner, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("logins_prune")
		var payload LoginsPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(fmt.Errorf("decode prune payload: %v: %w", err, asynq.SkipRetry))
		}
		retention := time.Duration(payload.RetentionHours) * time.Hour
		removed, err := pruner.Prune(ctx, retention)
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("login log pruned", slog.Int64("removed", removed), slog.Duration("retention", retention))
		return tracker.End(nil)
	}
}
