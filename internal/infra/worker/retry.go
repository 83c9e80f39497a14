package worker

import (
	"time"

	"plant-advisor/internal/config"
)

// RetryPolicy decides what happens to a request whose generation failed.
// The zero value retries on every cycle forever.
type RetryPolicy struct {
	// MaxAttempts > 0 dead-letters a request after that many failures.
	MaxAttempts int
	// BaseBackoff > 0 delays the next attempt by BaseBackoff * 2^(failures-1),
	// capped at MaxBackoff.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func RetryPolicyFromConfig(c config.RetryConfig) RetryPolicy {
	return RetryPolicy{MaxAttempts: c.MaxAttempts, BaseBackoff: c.BaseBackoff, MaxBackoff: c.MaxBackoff}
}

func (p RetryPolicy) Exhausted(failures int) bool {
	return p.MaxAttempts > 0 && failures >= p.MaxAttempts
}

func (p RetryPolicy) Backoff(failures int) time.Duration {
	if p.BaseBackoff <= 0 || failures <= 0 {
		return 0
	}
	d := p.BaseBackoff
	for i := 1; i < failures; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}
