package platform

// Headless stands in for a window when no display is available.
type Headless struct {
	width, height uint32
	closed        bool
	Swaps         uint64
}

func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Startup(applicationName string, x, y, width, height uint32) error {
	h.width, h.height = width, height
	return nil
}

func (h *Headless) PumpMessages() bool {
	return !h.closed
}

func (h *Headless) SwapBuffers() {
	h.Swaps++
}

func (h *Headless) FramebufferSize() (uint32, uint32) {
	return h.width, h.height
}

// Close makes the next PumpMessages report that the window should close.
func (h *Headless) Close() {
	h.closed = true
}

func (h *Headless) Shutdown() error {
	h.closed = true
	return nil
}

var (
	_ Window = (*Headless)(nil)
	_ Window = (*Platform)(nil)
)
