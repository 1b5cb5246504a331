package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_AverageWindow(t *testing.T) {
	m := NewMetrics()
	m.Update(0.010)
	m.Update(0.020)
	_, avg := m.Frame()
	assert.InDelta(t, 15.0, avg, 1e-9)

	// the two slow frames fall out of the window
	for i := 0; i < frameWindow; i++ {
		m.Update(0.004)
	}
	_, avg = m.Frame()
	assert.InDelta(t, 4.0, avg, 1e-9)
}

func TestMetrics_FPS(t *testing.T) {
	m := NewMetrics()
	fps, _ := m.Frame()
	assert.Zero(t, fps)

	for i := 0; i < 100; i++ {
		m.Update(0.010)
	}
	fps, _ = m.Frame()
	assert.Equal(t, 100.0, fps)
}
