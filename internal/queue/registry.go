package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// Processor is one stage implementation. Processors never let errors
// escape uncontrolled: they return a structured result on success or an
// error (terminal or retryable) and leave the retry decision to the
// registry.
type Processor interface {
	Kind() string
	Process(ctx context.Context, job *JobHandle, payload json.RawMessage) (interface{}, error)
}

// FailureHook is implemented by processors that surface terminal job
// failure on their owning entity (e.g. marking a track version failed).
type FailureHook interface {
	OnTerminalFailure(ctx context.Context, payload json.RawMessage, errText string)
}

// JobHandle is the processor's view of its job: identity plus progress
// reporting.
type JobHandle struct {
	ID      string
	records *Records
}

// ReportProgress records monotonic progress in [0,100].
func (h *JobHandle) ReportProgress(ctx context.Context, percent int) {
	if h.records == nil {
		return
	}
	if err := h.records.SetProgress(ctx, h.ID, percent); err != nil {
		log.Printf("Failed to report progress for job %s: %v", h.ID, err)
	}
}

type pool struct {
	queue       string
	concurrency int
	processor   Processor
}

// Registry binds one processor per queue with an independent concurrency
// limit and manages the lifecycle of all worker pools together. Each
// queue gets its own asynq server so its concurrency bound holds
// regardless of what the other queues are doing.
type Registry struct {
	redisOpt asynq.RedisClientOpt
	records  *Records
	pools    []pool
	servers  []*asynq.Server
}

// NewRegistry creates an empty worker pool registry.
func NewRegistry(redisOpt asynq.RedisClientOpt, records *Records) *Registry {
	return &Registry{redisOpt: redisOpt, records: records}
}

// Register binds a processor to a queue with the given concurrency.
func (r *Registry) Register(queueName string, concurrency int, p Processor) error {
	if concurrency < 1 {
		return fmt.Errorf("queue %s: concurrency must be at least 1", queueName)
	}
	if expected, ok := QueueForKind(p.Kind()); !ok || expected != queueName {
		return fmt.Errorf("queue %s: kind %s is not dispatched on it", queueName, p.Kind())
	}
	for _, existing := range r.pools {
		if existing.queue == queueName {
			return fmt.Errorf("queue %s already has a processor", queueName)
		}
	}
	r.pools = append(r.pools, pool{queue: queueName, concurrency: concurrency, processor: p})
	return nil
}

// Queues lists the registered queue names.
func (r *Registry) Queues() []string {
	names := make([]string, 0, len(r.pools))
	for _, p := range r.pools {
		names = append(names, p.queue)
	}
	return names
}

// Start launches every worker pool. On any failure the pools already
// started are shut down again, so startup is all-or-nothing.
func (r *Registry) Start() error {
	for _, p := range r.pools {
		srv := asynq.NewServer(r.redisOpt, asynq.Config{
			Concurrency: p.concurrency,
			Queues:      map[string]int{p.queue: 1},
			RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
				return retryDelay(n, t)
			},
		})
		mux := asynq.NewServeMux()
		mux.Handle(p.processor.Kind(), r.wrap(p.processor))
		if err := srv.Start(mux); err != nil {
			r.Shutdown()
			return fmt.Errorf("failed to start %s pool: %w", p.queue, err)
		}
		r.servers = append(r.servers, srv)
		log.Printf("Started %s pool (concurrency=%d)", p.queue, p.concurrency)
	}
	return nil
}

// Shutdown stops every pool and waits for in-flight jobs to reach a
// terminal state.
func (r *Registry) Shutdown() {
	for _, srv := range r.servers {
		srv.Shutdown()
	}
	r.servers = nil
}

// retryDelay applies the backoff policy carried in the task envelope.
// n is the number of times the task has already been retried.
func retryDelay(n int, t *asynq.Task) time.Duration {
	var env envelope
	if err := json.Unmarshal(t.Payload(), &env); err != nil {
		return Delay(BackoffSpec{}, n+1)
	}
	return Delay(env.Backoff, n+1)
}

// wrap owns the job-record state machine around one processor call. The
// processor sees only its payload and job handle; retry-vs-terminal is
// decided here.
func (r *Registry) wrap(p Processor) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var env envelope
		if err := json.Unmarshal(t.Payload(), &env); err != nil {
			return fmt.Errorf("failed to unmarshal task envelope: %v: %w", err, asynq.SkipRetry)
		}

		// Record writes must survive a per-job timeout firing.
		rctx := context.WithoutCancel(ctx)

		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		attempt := retried + 1
		if err := r.records.MarkActive(rctx, env.JobID, attempt); err != nil {
			log.Printf("Failed to mark job %s active: %v", env.JobID, err)
		}

		result, err := p.Process(ctx, &JobHandle{ID: env.JobID, records: r.records}, env.Payload)
		if err == nil {
			if err := r.records.Complete(rctx, env.JobID, result); err != nil {
				log.Printf("Failed to complete job %s: %v", env.JobID, err)
			}
			return nil
		}

		decision := Next(attempt, maxRetry+1, err, env.Backoff)
		if decision.Requeue {
			log.Printf("Job %s attempt %d/%d failed, requeueing in %s: %v",
				env.JobID, attempt, maxRetry+1, decision.After, err)
			if rerr := r.records.Requeue(rctx, env.JobID, err.Error()); rerr != nil {
				log.Printf("Failed to requeue job %s: %v", env.JobID, rerr)
			}
			return err
		}

		log.Printf("Job %s failed terminally after attempt %d: %v", env.JobID, attempt, err)
		if rerr := r.records.Fail(rctx, env.JobID, err.Error()); rerr != nil {
			log.Printf("Failed to fail job %s: %v", env.JobID, rerr)
		}
		if hook, ok := p.(FailureHook); ok {
			hook.OnTerminalFailure(rctx, env.Payload, err.Error())
		}
		if errors.Is(err, ErrTerminal) && !errors.Is(err, asynq.SkipRetry) {
			// Stop asynq from burning the remaining retry budget.
			err = fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
}
