package queue

import (
	"errors"
	"fmt"
)

// ErrQueueUnavailable is returned by enqueue when the durable store is
// unreachable. No job was admitted, so nothing retries.
var ErrQueueUnavailable = errors.New("queue unavailable")

// ErrTerminal classifies a processor failure that retrying cannot fix,
// such as a missing upstream entity. The registry fails the job without
// consuming the remaining retry budget.
var ErrTerminal = errors.New("terminal job failure")

// Terminal wraps an error as a terminal failure.
func Terminal(err error) error {
	return fmt.Errorf("%w: %w", ErrTerminal, err)
}
