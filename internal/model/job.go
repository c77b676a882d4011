package model

import (
	"encoding/json"
	"time"
)

// Job represents a background job tracked in Redis alongside the queue.
// The record is observational: the queue runtime owns every state
// transition, processors only report progress through the job handle.
type Job struct {
	ID           string          `json:"id"`
	Queue        string          `json:"queue"`
	Kind         string          `json:"kind"`
	State        JobState        `json:"state"`
	Progress     int             `json:"progress"`
	AttemptCount int             `json:"attemptCount"`
	MaxAttempts  int             `json:"maxAttempts"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	LastError    *string         `json:"lastError,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	StartedAt    *time.Time      `json:"startedAt,omitempty"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
}

// JobState is the lifecycle state of a queued job.
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateActive    JobState = "active"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// Terminal reports whether no further dispatch can occur for the job.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}
