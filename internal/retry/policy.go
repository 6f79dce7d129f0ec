// Package retry provides backoff policies for transient failures outside the
// build itself, such as publishing a build notification.
package retry

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BackoffMode selects how the delay grows between attempts.
type BackoffMode string

const (
	BackoffFixed       BackoffMode = "fixed"
	BackoffLinear      BackoffMode = "linear"
	BackoffExponential BackoffMode = "exponential"
)

// NormalizeBackoff maps free-form input to a BackoffMode. Unknown input
// yields "".
func NormalizeBackoff(raw string) BackoffMode {
	switch m := BackoffMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case BackoffFixed, BackoffLinear, BackoffExponential:
		return m
	default:
		return ""
	}
}

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       BackoffMode   // fixed|linear|exponential
	Initial    time.Duration // base delay
	Max        time.Duration // cap for growth
	MaxRetries int           // maximum retry attempts after the first failure
}

// DefaultPolicy returns linear backoff from 200ms capped at 5s, no retries.
func DefaultPolicy() Policy {
	return Policy{Mode: BackoffLinear, Initial: 200 * time.Millisecond, Max: 5 * time.Second}
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(mode BackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	if m := NormalizeBackoff(string(mode)); m != "" {
		p.Mode = m
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case BackoffFixed:
		return p.Initial
	case BackoffExponential:
		d := p.Initial << (retryCount - 1)
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}

// Do calls fn until it succeeds, the retries are exhausted or ctx is done.
// It returns the last error from fn, or ctx.Err() if ctx ended first.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(p.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries {
			return err
		}
	}
}
