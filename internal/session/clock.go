package session

import (
	"fmt"
	"sync"
	"time"
)

// Clock measures elapsed play time from an anchor and reports it once per interval while running.
type Clock struct {
	mu       sync.Mutex
	now      func() time.Time
	interval time.Duration
	onTick   func(time.Duration)
	start    time.Time
	end      time.Time
	running  bool
	started  bool
	done     chan struct{}
}

func NewClock(now func() time.Time, interval time.Duration, onTick func(time.Duration)) *Clock {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Clock{now: now, interval: interval, onTick: onTick}
}

// Start anchors the clock and begins ticking. Restarting replaces the previous anchor.
func (c *Clock) Start(anchor time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.start = anchor
	c.end = time.Time{}
	c.started = true
	c.running = true
	c.done = make(chan struct{})
	go c.run(c.done)
}

// Stop freezes the clock at the current time.
func (c *Clock) Stop() {
	c.StopAt(c.now())
}

// StopAt freezes the clock at end.
func (c *Clock) StopAt(end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		c.start = end
		c.started = true
	}
	c.end = end
	c.running = false
	c.stopLocked()
}

// Freeze sets a fixed window without ticking.
func (c *Clock) Freeze(start, end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.start = start
	c.end = end
	c.started = true
	c.running = false
}

func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsedLocked()
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Clock) elapsedLocked() time.Duration {
	if !c.started {
		return 0
	}
	end := c.end
	if c.running || end.IsZero() {
		end = c.now()
	}
	if elapsed := end.Sub(c.start); elapsed > 0 {
		return elapsed
	}
	return 0
}

func (c *Clock) stopLocked() {
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}

func (c *Clock) run(done chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.running {
				c.mu.Unlock()
				return
			}
			elapsed := c.elapsedLocked()
			hook := c.onTick
			c.mu.Unlock()
			if hook != nil {
				hook(elapsed)
			}
		}
	}
}

// FormatElapsed renders a duration as MM:SS. Minutes keep growing past 99.
func FormatElapsed(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	total := int64(elapsed / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
