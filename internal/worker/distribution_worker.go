package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soundpool/engine/internal/distribution"
	"github.com/soundpool/engine/internal/queue"
)

// distributionLockKey serializes distribution runs across periods. The
// queue's concurrency of 1 only bounds that queue's own jobs; the lock
// covers any other path that might start a batch.
const distributionLockKey = "revenue:distribution:lock"

const distributionLockTTL = 2 * time.Hour

// DistributionWorker runs the revenue distribution engine for one
// calendar period.
type DistributionWorker struct {
	engine *distribution.Engine
	redis  *redis.Client
}

func NewDistributionWorker(engine *distribution.Engine, redisClient *redis.Client) *DistributionWorker {
	return &DistributionWorker{engine: engine, redis: redisClient}
}

func (w *DistributionWorker) Kind() string { return queue.KindDistribution }

func (w *DistributionWorker) Process(ctx context.Context, job *queue.JobHandle, payload json.RawMessage) (interface{}, error) {
	var p queue.DistributionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, queue.Terminal(fmt.Errorf("invalid distribution payload: %w", err))
	}
	if _, _, err := distribution.PeriodBounds(p.Period); err != nil {
		return nil, queue.Terminal(err)
	}

	acquired, err := w.redis.SetNX(ctx, distributionLockKey, p.Period, distributionLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire distribution lock: %w", err)
	}
	if !acquired {
		// Another batch is running; retryable so the queue tries again
		// after backoff.
		return nil, fmt.Errorf("distribution already running")
	}
	defer func() {
		if err := w.redis.Del(context.WithoutCancel(ctx), distributionLockKey).Err(); err != nil {
			log.Printf("Failed to release distribution lock: %v", err)
		}
	}()
	job.ReportProgress(ctx, 10)

	summary, err := w.engine.Run(ctx, p.Period)
	if err != nil {
		return nil, err
	}
	job.ReportProgress(ctx, 100)
	return summary, nil
}
