package tracking

import "time"

// Cooldown suppresses repeated detections during a refractory period.
// Times are capture times on the session's frame clock.
type Cooldown struct {
	period time.Duration
	last   time.Duration
	fired  bool
}

// NewCooldown creates a gate with the given refractory period.
func NewCooldown(period time.Duration) *Cooldown {
	return &Cooldown{period: period}
}

// Allow reports whether a detection at now may fire, and records it if so.
// A detection fires only when strictly more than the period has elapsed
// since the last one that fired. A time before the last detection means
// the frame clock was reset, so the gate resyncs to now and fires.
func (c *Cooldown) Allow(now time.Duration) bool {
	if c.fired && now >= c.last && now-c.last <= c.period {
		return false
	}
	c.last = now
	c.fired = true
	return true
}

// Remaining returns how long until the gate opens again.
func (c *Cooldown) Remaining(now time.Duration) time.Duration {
	if !c.fired || now < c.last {
		return 0
	}
	if left := c.period - (now - c.last); left > 0 {
		return left
	}
	return 0
}

// Reset forgets the last detection.
func (c *Cooldown) Reset() {
	c.last = 0
	c.fired = false
}
