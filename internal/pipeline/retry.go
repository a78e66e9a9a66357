package pipeline

import (
	"errors"
	"math/rand"
	"time"

	"github.com/revyard/quizgest/internal/fetch"
)

// MaxRetries bounds how many times a transient fetch failure is retried.
const MaxRetries = 3

const (
	retryBase = time.Second
	retryCap  = 30 * time.Second
)

// IsRetryable reports whether err is a transient fetch failure worth
// another attempt.
func IsRetryable(err error) bool {
	var rerr *fetch.RetryableError
	return errors.As(err, &rerr)
}

// Backoff returns the wait before retry attempt n (0-indexed):
// exponential growth capped at retryCap, plus up to 50% jitter.
func Backoff(attempt int) time.Duration {
	d := retryBase << uint(attempt)
	if d > retryCap {
		d = retryCap
	}
	return d + time.Duration(rand.Int63n(int64(d/2)))
}
