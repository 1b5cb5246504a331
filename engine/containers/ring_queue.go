package containers

/**
 * @brief Bounded FIFO over a power-of-two backing array. head and tail only
 * ever grow; the slot is taken modulo the capacity with a mask. The asset
 * load queue and the transfer pool use it as their free index list.
 */
type RingQueue[T any] struct {
	data  []T
	limit int
	mask  uint64
	head  uint64
	tail  uint64
}

// NewRingQueue holds at most capacity elements.
func NewRingQueue[T any](capacity int) *RingQueue[T] {
	if capacity <= 0 {
		panic("containers: ring queue capacity must be positive")
	}
	size := nextPowerOfTwo(capacity)
	return &RingQueue[T]{
		data:  make([]T, size),
		limit: capacity,
		mask:  uint64(size - 1),
	}
}

// NewIndexRing returns a full queue of the indices 0..n-1 in order.
func NewIndexRing(n int) *RingQueue[int] {
	rq := NewRingQueue[int](n)
	for i := 0; i < n; i++ {
		rq.Push(i)
	}
	return rq
}

// Push appends value and reports false when the queue is full.
func (rq *RingQueue[T]) Push(value T) bool {
	if rq.IsFull() {
		return false
	}
	rq.data[rq.tail&rq.mask] = value
	rq.tail++
	return true
}

// Pop removes the oldest element.
func (rq *RingQueue[T]) Pop() (T, bool) {
	var zero T
	if rq.IsEmpty() {
		return zero, false
	}
	slot := rq.head & rq.mask
	value := rq.data[slot]
	rq.data[slot] = zero
	rq.head++
	return value, true
}

func (rq *RingQueue[T]) Peek() (T, bool) {
	if rq.IsEmpty() {
		var zero T
		return zero, false
	}
	return rq.data[rq.head&rq.mask], true
}

func (rq *RingQueue[T]) IsEmpty() bool {
	return rq.head == rq.tail
}

func (rq *RingQueue[T]) IsFull() bool {
	return rq.Len() == rq.limit
}

func (rq *RingQueue[T]) Len() int {
	return int(rq.tail - rq.head)
}

func (rq *RingQueue[T]) Cap() int {
	return rq.limit
}
