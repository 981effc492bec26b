package downloader

import (
	"context"
	"math/rand/v2"
	"time"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the context-aware default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer sleeps for a random duration in [Min, Max] to slow down requests.
type Pacer struct {
	Min   time.Duration
	Max   time.Duration
	sleep SleepFunc
}

// NewPacer returns a pacer using sleep, or Sleep when nil.
func NewPacer(min, max time.Duration, sleep SleepFunc) *Pacer {
	if max < min {
		max = min
	}
	if sleep == nil {
		sleep = Sleep
	}
	return &Pacer{Min: min, Max: max, sleep: sleep}
}

// Next draws the next delay. Whole seconds are used when both bounds are whole seconds.
func (p *Pacer) Next() time.Duration {
	span := p.Max - p.Min
	if span <= 0 {
		return p.Min
	}
	if p.Min%time.Second == 0 && p.Max%time.Second == 0 {
		return p.Min + time.Duration(rand.Int64N(int64(span/time.Second)+1))*time.Second
	}
	return p.Min + time.Duration(rand.Int64N(int64(span)+1))
}

// Wait sleeps for the next delay.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.sleep(ctx, p.Next())
}
