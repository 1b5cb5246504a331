package containers

import "fmt"

// DefaultGrowFactor is the capacity multiplier used when a push overflows.
const DefaultGrowFactor = 2

/**
 * @brief A contiguous growable array. Pointers returned by Push and PushArray
 * stay valid until the next push that grows the backing store.
 */
type FlatBuffer[T any] struct {
	data  []T
	count int
}

// Create a new FlatBuffer with room for capacity elements
func NewFlatBuffer[T any](capacity int) *FlatBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &FlatBuffer[T]{
		data: make([]T, capacity),
	}
}

// Push appends value and returns a pointer to the stored copy
func (fb *FlatBuffer[T]) Push(value T) *T {
	if fb.count == len(fb.data) {
		fb.Grow(DefaultGrowFactor)
	}
	fb.data[fb.count] = value
	fb.count++
	return &fb.data[fb.count-1]
}

/**
 * @brief Reserves n contiguous zeroed elements at the end of the buffer.
 * @param n The number of elements to reserve.
 * @return The reserved region.
 */
func (fb *FlatBuffer[T]) PushArray(n int) []T {
	if n < 0 {
		panic(fmt.Sprintf("containers: PushArray with negative count %d", n))
	}
	for fb.count+n > len(fb.data) {
		fb.Grow(DefaultGrowFactor)
	}
	region := fb.data[fb.count : fb.count+n : fb.count+n]
	clear(region)
	fb.count += n
	return region
}

// Clear drops every element without releasing the backing store
func (fb *FlatBuffer[T]) Clear() {
	fb.count = 0
}

/**
 * @brief Reallocates the backing store to exactly n elements. Only legal while
 * the buffer is empty.
 */
func (fb *FlatBuffer[T]) Resize(n int) {
	if fb.count != 0 {
		panic(fmt.Sprintf("containers: Resize on a flat buffer holding %d elements", fb.count))
	}
	if n < 1 {
		n = 1
	}
	fb.data = make([]T, n)
}

// Grow reallocates to capacity*factor and copies the live elements forward
func (fb *FlatBuffer[T]) Grow(factor int) {
	if factor < 2 {
		factor = DefaultGrowFactor
	}
	grown := make([]T, len(fb.data)*factor)
	copy(grown, fb.data[:fb.count])
	fb.data = grown
}

// At returns a pointer to element i
func (fb *FlatBuffer[T]) At(i int) *T {
	if i < 0 || i >= fb.count {
		panic(fmt.Sprintf("containers: flat buffer index %d out of range [0,%d)", i, fb.count))
	}
	return &fb.data[i]
}

// Slice returns the live elements. The slice aliases the backing store.
func (fb *FlatBuffer[T]) Slice() []T {
	return fb.data[:fb.count]
}

func (fb *FlatBuffer[T]) Len() int {
	return fb.count
}

func (fb *FlatBuffer[T]) Cap() int {
	return len(fb.data)
}
