package core

// frameWindow is how many frames the average frame time covers.
const frameWindow = 30

/**
 * @brief Rolling frame statistics. The frame time is averaged over the last
 * frameWindow frames, FPS is recounted once per accumulated second.
 */
type Metrics struct {
	times    [frameWindow]float64
	next     int
	filled   int
	sum      float64
	avgMS    float64
	counted  int
	secondMS float64
	fps      float64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Update records one frame that took frameElapsedTime seconds.
func (m *Metrics) Update(frameElapsedTime float64) {
	frameMS := frameElapsedTime * 1000
	m.sum += frameMS - m.times[m.next]
	m.times[m.next] = frameMS
	m.next = (m.next + 1) % frameWindow
	if m.filled < frameWindow {
		m.filled++
	}
	m.avgMS = m.sum / float64(m.filled)

	m.counted++
	m.secondMS += frameMS
	if m.secondMS >= 1000 {
		m.fps = float64(m.counted)
		m.counted = 0
		m.secondMS -= 1000
	}
}

// Frame returns the frames per second and the average frame time in ms.
func (m *Metrics) Frame() (float64, float64) {
	return m.fps, m.avgMS
}
