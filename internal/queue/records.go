package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soundpool/engine/internal/model"
)

// ErrJobNotFound is returned when a job record has expired or never
// existed.
var ErrJobNotFound = errors.New("job not found")

// Records persists job records as JSON under job:<id> keys with a TTL.
// Only the queue runtime writes state transitions; processors touch
// nothing here but progress, through their job handle.
type Records struct {
	redis     *redis.Client
	retention time.Duration
}

// NewRecords creates a job record store with the given retention.
func NewRecords(redisClient *redis.Client, retention time.Duration) *Records {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Records{redis: redisClient, retention: retention}
}

func jobKey(id string) string {
	return fmt.Sprintf("job:%s", id)
}

// Save writes a job record.
func (r *Records) Save(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, jobKey(job.ID), data, r.retention).Err()
}

// Get reads a job record.
func (r *Records) Get(ctx context.Context, id string) (*model.Job, error) {
	data, err := r.redis.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *Records) update(ctx context.Context, id string, mutate func(*model.Job)) error {
	job, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	mutate(job)
	return r.Save(ctx, job)
}

// MarkActive records dispatch of the given attempt.
func (r *Records) MarkActive(ctx context.Context, id string, attempt int) error {
	return r.update(ctx, id, func(job *model.Job) {
		job.State = model.JobStateActive
		job.AttemptCount = attempt
		if job.StartedAt == nil {
			now := time.Now()
			job.StartedAt = &now
		}
	})
}

// SetProgress records monotonic progress in [0,100]. Observational only,
// never gates behavior.
func (r *Records) SetProgress(ctx context.Context, id string, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return r.update(ctx, id, func(job *model.Job) {
		if percent > job.Progress {
			job.Progress = percent
		}
	})
}

// Complete stores the processor result and moves the job to completed.
func (r *Records) Complete(ctx context.Context, id string, result interface{}) error {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		resultBytes = nil
	}
	return r.update(ctx, id, func(job *model.Job) {
		job.State = model.JobStateCompleted
		job.Progress = 100
		job.Result = resultBytes
		job.LastError = nil
		now := time.Now()
		job.CompletedAt = &now
	})
}

// Requeue moves a failed attempt back to queued, keeping the error text.
func (r *Records) Requeue(ctx context.Context, id, errMsg string) error {
	return r.update(ctx, id, func(job *model.Job) {
		job.State = model.JobStateQueued
		job.LastError = &errMsg
	})
}

// Fail marks a job terminally failed.
func (r *Records) Fail(ctx context.Context, id, errMsg string) error {
	return r.update(ctx, id, func(job *model.Job) {
		job.State = model.JobStateFailed
		job.LastError = &errMsg
		now := time.Now()
		job.CompletedAt = &now
	})
}
