package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"summa/internal/fetcher"
)

// ErrExhausted is returned when every attempt of a policy failed. Callers
// record a placeholder for the unit and keep going; this error never aborts
// a run.
var ErrExhausted = errors.New("all fetch attempts failed")

// Fetcher is the single-attempt boundary the policy wraps.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) fetcher.Result
}

// Backoff is a half-open wait interval; a wait is drawn uniformly from
// [Min, Max).
type Backoff struct {
	Min time.Duration
	Max time.Duration
}

func (b Backoff) pick(intn func(int64) int64) time.Duration {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + time.Duration(intn(int64(b.Max-b.Min)))
}

// Policy retries a single URL up to MaxAttempts times, waiting a jittered
// backoff between attempts. Rate limiting gets a longer wait than other
// failures so the server has time to cool down.
type Policy struct {
	MaxAttempts int
	RateLimited Backoff // wait after HTTP 429
	Failure     Backoff // wait after any other failure

	// Sleep and Intn exist so tests can observe waits and pin jitter.
	// Nil values use time.Sleep and math/rand.
	Sleep func(time.Duration)
	Intn  func(int64) int64
}

// Default returns the policy used for article fetches: up to 7 attempts,
// 5-10s waits after rate limiting, 2-5s after other failures.
func Default() Policy {
	return Policy{
		MaxAttempts: 7,
		RateLimited: Backoff{Min: 5 * time.Second, Max: 10 * time.Second},
		Failure:     Backoff{Min: 2 * time.Second, Max: 5 * time.Second},
	}
}

// Fetch runs the policy against one URL and returns the body of the first
// successful attempt. After the attempts are exhausted it returns
// ErrExhausted; no wait follows the final failed attempt.
func (p Policy) Fetch(ctx context.Context, f Fetcher, url string, timeout time.Duration) (string, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	intn := p.Intn
	if intn == nil {
		intn = rand.Int63n
	}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		res := f.Fetch(ctx, url, timeout)
		if res.Outcome == fetcher.OutcomeOK {
			return res.Body, nil
		}

		slog.Debug("fetch attempt failed",
			"url", url,
			"attempt", attempt,
			"outcome", res.Outcome.String(),
			"status", res.StatusCode,
			"err", res.Err)

		if attempt == p.MaxAttempts {
			break
		}

		wait := p.Failure.pick(intn)
		if res.Outcome == fetcher.OutcomeRateLimited {
			wait = p.RateLimited.pick(intn)
		}
		sleep(wait)
	}

	return "", ErrExhausted
}
