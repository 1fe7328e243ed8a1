package util

import (
	"time"

	"github.com/cenkalti/backoff"
)

// Sleeper pauses the calling goroutine.  time.Sleep satisfies it;
// tests substitute a no-op or a recorder.
type Sleeper func(time.Duration)

// Poll calls ready at most tries times, sleeping delay between calls.
// It returns true as soon as ready does and false once the budget is spent.
// A nil sleep uses time.Sleep.
func Poll(tries int, delay time.Duration, sleep Sleeper, ready func() bool) bool {
	if tries <= 0 {
		return false
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	var b backoff.BackOff = &backoff.StopBackOff{}
	if tries > 1 {
		b = backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(tries-1))
	}
	b.Reset()
	for {
		if ready() {
			return true
		}
		next := b.NextBackOff()
		if next == backoff.Stop {
			return false
		}
		sleep(next)
	}
}

// Retry calls op with an exponential backoff until it succeeds
// or maxElapsed has passed, returning the last error.
// Device nodes which appear a moment after a driver is bound
// are opened this way.
func Retry(op func() error, maxElapsed time.Duration) error {
	return backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      maxElapsed,
		Clock:               backoff.SystemClock})
}
