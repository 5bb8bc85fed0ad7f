package jobs

import "time"

// Policy controls poll timing and when a tracker gives up on a job.
type Policy struct {
	// Interval between polls while the job is not terminal. Default: 2s.
	Interval time.Duration
	// MaxErrors is the number of consecutive poll failures tolerated before
	// tracking is abandoned. 0 disables the count limit.
	MaxErrors int
	// MaxBackoff caps the delay after consecutive failures. Default: 30s.
	MaxBackoff time.Duration
	// MaxElapsed bounds the total tracking time. 0 disables the limit.
	MaxElapsed time.Duration
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		Interval:   2 * time.Second,
		MaxErrors:  5,
		MaxBackoff: 30 * time.Second,
		MaxElapsed: 30 * time.Minute,
	}
}

func (p *Policy) defaults() {
	if p.Interval <= 0 {
		p.Interval = 2 * time.Second
	}
	if p.MaxErrors < 0 {
		p.MaxErrors = 0
	}
	if p.MaxBackoff < p.Interval {
		p.MaxBackoff = p.Interval
	}
	if p.MaxElapsed < 0 {
		p.MaxElapsed = 0
	}
}

// backoff returns the delay after the n-th consecutive failure: the interval
// doubled per failure, capped at MaxBackoff.
func (p Policy) backoff(failures int) time.Duration {
	if failures <= 1 {
		return p.Interval
	}
	wait := p.Interval
	for i := 1; i < failures; i++ {
		wait *= 2
		if wait >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return wait
}
