package worker

import "time"

// RetryPolicy controls how often a failing sync task is retried and how long
// the worker waits in between. Zero fields take the defaults below.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

const (
	defaultMaxRetries    = 5
	defaultInitialDelay  = 2 * time.Second
	defaultMaxDelay      = time.Minute
	defaultBackoffFactor = 2
)

func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries <= 0 {
		r.MaxRetries = defaultMaxRetries
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = defaultInitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = defaultMaxDelay
	}
	if r.BackoffFactor < 1 {
		r.BackoffFactor = defaultBackoffFactor
	}
	return r
}

// Exhausted reports whether the attempt-th failure (1-based) is the last one
// allowed.
func (r RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= r.withDefaults().MaxRetries
}

// NextDelay is the wait after the attempt-th failure (1-based): InitialDelay
// grown by BackoffFactor per attempt and capped at MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	p := r.withDefaults()
	d := p.InitialDelay
	for i := 1; i < attempt && d < p.MaxDelay; i++ {
		d = time.Duration(float64(d) * p.BackoffFactor)
	}
	return min(d, p.MaxDelay)
}
