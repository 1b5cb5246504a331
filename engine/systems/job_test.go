package systems

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spaghettifunk/flux/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystem_Validation(t *testing.T) {
	_, err := NewJobSystem(core.NewDiscardLogger(), 0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(core.NewDiscardLogger(), 1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystem_RunsCallbacks(t *testing.T) {
	js, err := NewJobSystem(core.NewDiscardLogger(), 4, 16)
	require.NoError(t, err)

	var completed, failed atomic.Int32
	boom := errors.New("boom")
	for i := 0; i < 10; i++ {
		fail := i%2 == 0
		require.NoError(t, js.Submit(JobTask{
			Name: "test",
			OnStart: func() error {
				if fail {
					return boom
				}
				return nil
			},
			OnComplete: func() { completed.Add(1) },
			OnFailure: func(err error) {
				assert.ErrorIs(t, err, boom)
				failed.Add(1)
			},
		}))
	}
	require.NoError(t, js.Shutdown())
	assert.Equal(t, int32(5), completed.Load())
	assert.Equal(t, int32(5), failed.Load())

	assert.ErrorIs(t, js.Shutdown(), core.ErrShutdown)
	assert.False(t, js.PushWork(func() {}))
	assert.ErrorIs(t, js.Submit(JobTask{}), core.ErrShutdown)
}

func TestJobSystem_PushWorkReportsFullQueue(t *testing.T) {
	js, err := NewJobSystem(core.NewDiscardLogger(), 1, 1)
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, js.PushWork(func() {
		close(started)
		<-release
	}))
	<-started

	// the single worker is busy, one slot of buffer remains
	require.True(t, js.PushWork(func() {}))
	assert.False(t, js.PushWork(func() {}))
	assert.Equal(t, 1, js.Pending())

	close(release)
	require.NoError(t, js.Shutdown())
}

func TestJobSystem_ConcurrentPushAndShutdown(t *testing.T) {
	js, err := NewJobSystem(core.NewDiscardLogger(), 2, 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				js.PushWork(func() {})
			}
		}()
	}
	wg.Wait()
	assert.NoError(t, js.Shutdown())
}
