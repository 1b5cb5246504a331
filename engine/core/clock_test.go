package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTime struct {
	t time.Time
}

func (f *fakeTime) now() time.Time { return f.t }

func (f *fakeTime) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestClock_Tick(t *testing.T) {
	ft := &fakeTime{t: time.Unix(100, 0)}
	c := NewClock()
	c.now = ft.now

	assert.Zero(t, c.Tick(), "a clock that was never started does not tick")

	c.Start()
	assert.Zero(t, c.Tick())

	ft.advance(16 * time.Millisecond)
	assert.InDelta(t, 0.016, c.Tick(), 1e-9)
	ft.advance(20 * time.Millisecond)
	assert.InDelta(t, 0.020, c.Tick(), 1e-9)
	assert.InDelta(t, 0.036, c.Elapsed(), 1e-9)
	assert.Equal(t, uint64(3), c.Frames())

	c.Stop()
	ft.advance(time.Second)
	assert.Zero(t, c.Tick())
	assert.InDelta(t, 0.036, c.Elapsed(), 1e-9)

	c.Start()
	assert.Zero(t, c.Elapsed())
	assert.Zero(t, c.Frames())
}

func TestClock_MaxDelta(t *testing.T) {
	ft := &fakeTime{t: time.Unix(0, 0)}
	c := NewClock()
	c.now = ft.now
	c.SetMaxDelta(0.1)
	c.Start()

	ft.advance(3 * time.Second)
	assert.InDelta(t, 0.1, c.Tick(), 1e-9)
	assert.InDelta(t, 3.0, c.Elapsed(), 1e-9, "elapsed time is not clamped")
}
