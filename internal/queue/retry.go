package queue

import (
	"errors"
	"time"
)

// BackoffType selects how requeue delays grow between attempts.
type BackoffType string

const (
	BackoffExponential BackoffType = "exponential"
	BackoffFixed       BackoffType = "fixed"
)

// Backoff delays are capped so a misconfigured job cannot park a queue
// slot for hours.
const (
	defaultBackoffDelay = 5 * time.Second
	maxBackoffDelay     = 15 * time.Minute
)

// BackoffSpec is the per-job backoff policy, carried in the task envelope
// so the retry delay function can read it back.
type BackoffSpec struct {
	Type    BackoffType `json:"type"`
	DelayMS int64       `json:"delayMs"`
}

func (s BackoffSpec) base() time.Duration {
	if s.DelayMS <= 0 {
		return defaultBackoffDelay
	}
	return time.Duration(s.DelayMS) * time.Millisecond
}

// Delay computes the requeue delay after the given 1-based failed attempt:
// fixed keeps the base delay, exponential doubles it per attempt.
func Delay(spec BackoffSpec, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := spec.base()
	if spec.Type == BackoffFixed {
		return base
	}
	// base << (attempt-1), guarding the shift against overflow.
	shift := attempt - 1
	if shift > 30 {
		return maxBackoffDelay
	}
	delay := base << shift
	if delay > maxBackoffDelay || delay < base {
		return maxBackoffDelay
	}
	return delay
}

// Decision is the outcome of the retry state machine for one failure.
type Decision struct {
	Requeue bool
	After   time.Duration
}

// Next decides between requeue-after-delay and terminal failure. Terminal
// errors never requeue; otherwise the attempt budget governs.
func Next(attemptCount, maxAttempts int, err error, spec BackoffSpec) Decision {
	if errors.Is(err, ErrTerminal) {
		return Decision{}
	}
	if attemptCount >= maxAttempts {
		return Decision{}
	}
	return Decision{Requeue: true, After: Delay(spec, attemptCount)}
}
