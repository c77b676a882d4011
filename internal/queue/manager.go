package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/soundpool/engine/internal/model"
)

// Defaults are the queue-wide enqueue settings, overridable per job.
type Defaults struct {
	MaxAttempts int
	Backoff     BackoffSpec
	Timeout     time.Duration
	Retention   time.Duration
}

// Manager is the enqueue surface consumed by the API layer. One typed
// operation per job kind; payloads are validated before anything is
// admitted.
type Manager struct {
	client   *asynq.Client
	records  *Records
	validate *validator.Validate
	defaults Defaults
}

// NewManager creates the enqueue surface.
func NewManager(client *asynq.Client, records *Records, defaults Defaults) *Manager {
	if defaults.MaxAttempts < 1 {
		defaults.MaxAttempts = 3
	}
	if defaults.Timeout <= 0 {
		defaults.Timeout = 30 * time.Minute
	}
	if defaults.Retention <= 0 {
		defaults.Retention = 24 * time.Hour
	}
	return &Manager{
		client:   client,
		records:  records,
		validate: validator.New(),
		defaults: defaults,
	}
}

type enqueueOptions struct {
	attempts int
	backoff  BackoffSpec
	timeout  time.Duration
}

// Option customizes one enqueue call.
type Option func(*enqueueOptions)

// WithAttempts sets the total attempt budget for the job.
func WithAttempts(n int) Option {
	return func(o *enqueueOptions) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithBackoff sets the backoff policy applied between attempts.
func WithBackoff(spec BackoffSpec) Option {
	return func(o *enqueueOptions) { o.backoff = spec }
}

// WithTimeout sets the wall-clock deadline for one attempt.
func WithTimeout(d time.Duration) Option {
	return func(o *enqueueOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func (m *Manager) EnqueueStreamTranscode(ctx context.Context, p StreamTranscodePayload, opts ...Option) (*model.Job, error) {
	return m.enqueue(ctx, KindStreamTranscode, p, opts)
}

func (m *Manager) EnqueueDownloadTranscode(ctx context.Context, p DownloadTranscodePayload, opts ...Option) (*model.Job, error) {
	return m.enqueue(ctx, KindDownloadTranscode, p, opts)
}

func (m *Manager) EnqueueWaveform(ctx context.Context, p WaveformPayload, opts ...Option) (*model.Job, error) {
	return m.enqueue(ctx, KindWaveform, p, opts)
}

func (m *Manager) EnqueueLoudness(ctx context.Context, p LoudnessPayload, opts ...Option) (*model.Job, error) {
	return m.enqueue(ctx, KindLoudness, p, opts)
}

func (m *Manager) EnqueueArtwork(ctx context.Context, p ArtworkPayload, opts ...Option) (*model.Job, error) {
	return m.enqueue(ctx, KindArtwork, p, opts)
}

func (m *Manager) EnqueueFingerprint(ctx context.Context, p FingerprintPayload, opts ...Option) (*model.Job, error) {
	return m.enqueue(ctx, KindFingerprint, p, opts)
}

func (m *Manager) EnqueueDistribution(ctx context.Context, p DistributionPayload, opts ...Option) (*model.Job, error) {
	return m.enqueue(ctx, KindDistribution, p, opts)
}

// GetJob exposes a job record to the API layer.
func (m *Manager) GetJob(ctx context.Context, id string) (*model.Job, error) {
	return m.records.Get(ctx, id)
}

func (m *Manager) enqueue(ctx context.Context, kind string, payload interface{}, opts []Option) (*model.Job, error) {
	if err := m.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", kind, err)
	}
	queueName, ok := QueueForKind(kind)
	if !ok {
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}

	options := enqueueOptions{
		attempts: m.defaults.MaxAttempts,
		backoff:  m.defaults.Backoff,
		timeout:  m.defaults.Timeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &model.Job{
		ID:          uuid.New().String(),
		Queue:       queueName,
		Kind:        kind,
		State:       model.JobStateQueued,
		MaxAttempts: options.attempts,
		Payload:     payloadBytes,
		CreatedAt:   time.Now(),
	}
	if err := m.records.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	envBytes, err := json.Marshal(envelope{
		JobID:   job.ID,
		Backoff: options.backoff,
		Payload: payloadBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	task := asynq.NewTask(kind, envBytes)
	_, err = m.client.EnqueueContext(ctx, task,
		asynq.Queue(queueName),
		asynq.TaskID(job.ID),
		asynq.MaxRetry(options.attempts-1),
		asynq.Timeout(options.timeout),
		asynq.Retention(m.defaults.Retention),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return job, nil
}
