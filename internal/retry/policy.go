// Package retry computes backoff delays and retries operations that fail
// with retryable classified errors.
package retry

import (
	"context"
	"fmt"
	"time"

	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

// Mode selects how the delay grows between attempts.
type Mode string

const (
	Fixed       Mode = "fixed"
	Linear      Mode = "linear"
	Exponential Mode = "exponential"
)

// Policy describes retry timing.
type Policy struct {
	Mode       Mode          // fixed|linear|exponential
	Initial    time.Duration // base delay
	Max        time.Duration // cap for growth
	MaxRetries int           // maximum retry attempts after the first failure
}

func DefaultPolicy() Policy {
	return Policy{Mode: Linear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// NewPolicy builds a policy on top of DefaultPolicy; zero or unknown values
// keep the default. Initial is clamped to Max.
func NewPolicy(mode Mode, initial, maxDuration time.Duration, maxRetries int) Policy {
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
	switch mode {
	case Fixed, Linear, Exponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the wait before retry number retryCount (1-based).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case Fixed:
		return p.Initial
	case Exponential:
		d := p.Initial * (1 << (retryCount - 1))
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

// Do runs fn until it succeeds, returns an error that is not retryable, the
// retries are used up or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !retryable(err) {
			return err
		}
		t := time.NewTimer(p.Delay(attempt + 1))
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}

func retryable(err error) bool {
	classified, ok := ferrors.AsClassified(err)
	return ok && classified.CanRetry()
}
