package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueue_FIFO(t *testing.T) {
	rq := NewRingQueue[int](3)
	assert.True(t, rq.IsEmpty())
	assert.Equal(t, 3, rq.Cap(), "capacity is exact even though the backing array is rounded up")

	for i := 1; i <= 3; i++ {
		require.True(t, rq.Push(i))
	}
	assert.True(t, rq.IsFull())
	assert.False(t, rq.Push(4))

	front, ok := rq.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, front)

	v, ok := rq.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// wraps around the backing array
	require.True(t, rq.Push(4))
	for _, want := range []int{2, 3, 4} {
		v, ok := rq.Pop()
		require.True(t, ok)
		assert.Equal(t, want, v)
	}

	_, ok = rq.Pop()
	assert.False(t, ok)
	_, ok = rq.Peek()
	assert.False(t, ok)
	assert.Equal(t, 0, rq.Len())
}

func TestRingQueue_ManyWraps(t *testing.T) {
	rq := NewRingQueue[int](5)
	for i := 0; i < 1000; i++ {
		require.True(t, rq.Push(i))
		if rq.Len() == 4 {
			v, ok := rq.Pop()
			require.True(t, ok)
			assert.Equal(t, i-3, v)
		}
	}
	assert.Equal(t, 3, rq.Len())
}

func TestNewIndexRing(t *testing.T) {
	rq := NewIndexRing(4)
	assert.True(t, rq.IsFull())
	for want := 0; want < 4; want++ {
		v, ok := rq.Pop()
		require.True(t, ok)
		assert.Equal(t, want, v)
	}

	assert.Panics(t, func() { NewRingQueue[int](0) })
}
