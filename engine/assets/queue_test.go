package assets

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadQueue_AcquireRelease(t *testing.T) {
	lq := NewLoadQueue(2)
	assert.Equal(t, 2, lq.Cap())

	a, ok := lq.Acquire(1, &meshJob{})
	require.True(t, ok)
	assert.Equal(t, AssetStateQueued, a.State())
	_, ok = lq.Acquire(2, &meshJob{})
	require.True(t, ok)
	_, ok = lq.Acquire(3, &meshJob{})
	assert.False(t, ok)
	assert.Equal(t, 2, lq.InFlight())

	lq.Release(a)
	assert.Equal(t, 1, lq.InFlight())
	assert.Panics(t, func() { lq.Release(a) })

	_, ok = lq.Acquire(3, &textureJob{})
	assert.True(t, ok)
}

func TestLoadQueue_FinishPublishesOnce(t *testing.T) {
	lq := NewLoadQueue(8)
	entries := make([]*loadEntry, 8)
	for i := range entries {
		e, ok := lq.Acquire(1, &meshJob{})
		require.True(t, ok)
		entries[i] = e
	}

	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		go func(e *loadEntry, ok bool) {
			defer wg.Done()
			e.finish(ok)
		}(e, i%2 == 0)
	}
	wg.Wait()

	finished := 0
	for {
		e, ok := lq.next()
		if !ok {
			break
		}
		if e.index%2 == 0 {
			assert.Equal(t, AssetStateJustLoaded, e.State())
		} else {
			assert.Equal(t, AssetStateError, e.State())
		}
		finished++
	}
	assert.Equal(t, 8, finished)

	// a second flip means two workers handled one load
	assert.Panics(t, func() { entries[0].finish(true) })
}
