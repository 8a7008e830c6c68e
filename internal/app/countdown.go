package app

import (
	"context"
	"sync"
	"time"
)

// DefaultTickInterval is how often a countdown consumes one second.
const DefaultTickInterval = time.Second

// Countdown feeds Tick events to a session until it completes.
type Countdown struct {
	interval time.Duration
	onTick   func() (done bool)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewCountdown builds a stopped countdown. onTick reports whether the
// countdown should end.
func NewCountdown(interval time.Duration, onTick func() bool) *Countdown {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Countdown{
		interval: interval,
		onTick:   onTick,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks until the session completes, ctx is cancelled or Stop is called.
func (c *Countdown) Run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			if c.onTick() {
				return
			}
		}
	}
}

// Stop ends the countdown. Safe to call more than once.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Done is closed once Run has returned.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
