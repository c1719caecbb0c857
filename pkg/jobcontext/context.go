package jobcontext

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keyJobID        KeyContext = "job_id"
	keyJobType      KeyContext = "job_type"
	keyWorkerID     KeyContext = "worker_id"
	keyJobStartTime KeyContext = "job_start_time"
)

// DefaultTimeout bounds a job when the caller passes none
const DefaultTimeout = 30 * time.Second

// JobMetadata holds metadata for a job execution
type JobMetadata struct {
	JobID     uuid.UUID
	JobType   string
	WorkerID  int
	StartTime time.Time
}

// JobBegin derives a job context carrying metadata and a timeout.
// Cancellation of parent is not inherited, so a job that has started
// runs to completion (or timeout) even during shutdown.
func JobBegin(parent context.Context, jobID uuid.UUID, jobType string, workerID int, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)

	ctx = context.WithValue(ctx, keyJobID, jobID)
	ctx = context.WithValue(ctx, keyJobType, jobType)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyJobStartTime, time.Now())

	return ctx, cancel
}

// JobRun executes jobFunc, converting a panic into an error
func JobRun(ctx context.Context, jobFunc func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()

	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before job execution: %w", ctx.Err())
	}
	return jobFunc(ctx)
}

// GetJobID extracts job ID from context
func GetJobID(ctx context.Context) (uuid.UUID, bool) {
	jobID, ok := ctx.Value(keyJobID).(uuid.UUID)
	return jobID, ok
}

// GetJobType extracts job type from context
func GetJobType(ctx context.Context) (string, bool) {
	jobType, ok := ctx.Value(keyJobType).(string)
	return jobType, ok
}

// GetWorkerID extracts worker ID from context
func GetWorkerID(ctx context.Context) int {
	workerID, ok := ctx.Value(keyWorkerID).(int)
	if !ok {
		return -1
	}
	return workerID
}

// GetJobStartTime extracts job start time from context
func GetJobStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyJobStartTime).(time.Time)
	return startTime, ok
}

// GetJobMetadata extracts all job metadata from context
func GetJobMetadata(ctx context.Context) *JobMetadata {
	jobID, _ := GetJobID(ctx)
	jobType, _ := GetJobType(ctx)
	startTime, _ := GetJobStartTime(ctx)

	return &JobMetadata{
		JobID:     jobID,
		JobType:   jobType,
		WorkerID:  GetWorkerID(ctx),
		StartTime: startTime,
	}
}
