package core

import "time"

/**
 * @brief Frame clock. Tick is called once per frame and returns the seconds
 * since the previous tick; the first tick after Start returns 0.
 */
type Clock struct {
	now      func() time.Time
	start    time.Time
	last     time.Time
	elapsed  time.Duration
	frames   uint64
	running  bool
	maxDelta float64
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// SetMaxDelta clamps the deltas Tick returns, so a debugger pause does not
// turn into one huge simulation step. 0 disables the clamp.
func (c *Clock) SetMaxDelta(seconds float64) {
	c.maxDelta = seconds
}

// Start resets the elapsed time and the frame count.
func (c *Clock) Start() {
	c.start = c.now()
	c.last = c.start
	c.elapsed = 0
	c.frames = 0
	c.running = true
}

// Stop freezes Elapsed. Tick returns 0 until the next Start.
func (c *Clock) Stop() {
	c.running = false
}

func (c *Clock) Tick() float64 {
	if !c.running {
		return 0
	}
	t := c.now()
	delta := t.Sub(c.last).Seconds()
	c.last = t
	c.elapsed = t.Sub(c.start)
	c.frames++
	if c.maxDelta > 0 && delta > c.maxDelta {
		delta = c.maxDelta
	}
	return delta
}

// Elapsed returns the seconds between Start and the last Tick.
func (c *Clock) Elapsed() float64 {
	return c.elapsed.Seconds()
}

// Frames counts the ticks since Start.
func (c *Clock) Frames() uint64 {
	return c.frames
}
