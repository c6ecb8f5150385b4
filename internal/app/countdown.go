package app

import "time"

// Countdown is a deadline advanced explicitly by Tick. It owns no goroutine
// or runtime timer, so stopping it is all the cancellation it needs.
type Countdown struct {
	total    time.Duration
	deadline time.Time
	running  bool
	expired  bool
}

func NewCountdown(total time.Duration) *Countdown {
	return &Countdown{total: total}
}

// Start (re)arms the countdown from now.
func (c *Countdown) Start(now time.Time) {
	c.deadline = now.Add(c.total)
	c.running = true
	c.expired = false
}

// Stop disarms the countdown; later ticks are no-ops.
func (c *Countdown) Stop() {
	c.running = false
}

func (c *Countdown) Running() bool {
	return c.running
}

func (c *Countdown) Expired() bool {
	return c.expired
}

// Tick reports true exactly once, on the first tick at or past the deadline.
func (c *Countdown) Tick(now time.Time) bool {
	if !c.running || now.Before(c.deadline) {
		return false
	}
	c.running = false
	c.expired = true
	return true
}

// Remaining returns whole seconds left, rounded up.
func (c *Countdown) Remaining(now time.Time) int {
	if c.expired {
		return 0
	}
	if !c.running {
		return int((c.total + time.Second - 1) / time.Second)
	}
	left := c.deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}
