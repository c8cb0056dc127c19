package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrRetryExhausted is returned when a retryable operation still fails
// after the configured number of attempts. The last underlying error is
// wrapped alongside it.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// RetryableError marks a failure worth retrying: rate limiting, server
// side errors and network timeouts.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// PermanentError marks a failure that will not go away on retry, such
// as a malformed request or a permission problem.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Retryable wraps err as a retryable failure.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Permanent wraps err as a permanent failure.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// ClassifyStatus maps an HTTP status code onto the retry taxonomy.
// 429 and 5xx are retryable, every other non-2xx status is permanent.
func ClassifyStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	if status == 429 || status >= 500 {
		return Retryable(err)
	}
	return Permanent(err)
}

// Classify maps a transport level error onto the retry taxonomy.
// Network timeouts are retryable, everything else is permanent.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return Retryable(err)
	}
	return Permanent(err)
}

// Caller runs side-effecting service requests under a shared token
// bucket and retries retryable failures with exponential backoff plus
// jitter. One Caller is shared by every component that talks to the
// cloud so the quota budget is global to the run.
type Caller struct {
	limiter     *rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCaller builds a caller. maxAttempts must be at least 1; baseDelay
// is the first backoff step and doubles per attempt, capped at one
// minute.
func NewCaller(limiter *rate.Limiter, maxAttempts int, baseDelay time.Duration) *Caller {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &Caller{
		limiter:     limiter,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    time.Minute,
		sleep:       sleepContext,
	}
}

// Do invokes fn, waiting on the token bucket before every attempt.
// Retryable failures are retried up to the attempt budget and then
// reported as ErrRetryExhausted wrapping the last cause. Permanent and
// unclassified failures are returned immediately.
func (c *Caller) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	logger := logutil.GetLogger(ctx)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			logger.Debug("call ok",
				zap.String("op", op),
				zap.Int("attempt", attempt),
			)
			return nil
		}

		var rerr *RetryableError
		if !errors.As(err, &rerr) {
			logger.Error("call failed permanently",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}

		lastErr = err
		if attempt == c.maxAttempts {
			logger.Error("call failed, attempts exhausted",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			break
		}

		delay := c.backoff(attempt)
		logger.Warn("call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s: %w: %w", op, ErrRetryExhausted, lastErr)
}

func (c *Caller) backoff(attempt int) time.Duration {
	delay := c.baseDelay << (attempt - 1)
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	// jitter up to one base delay
	return delay + time.Duration(rand.Int63n(int64(c.baseDelay)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
