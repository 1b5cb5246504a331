package assets

import (
	"testing"

	"github.com/spaghettifunk/flux/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferPool_Lifecycle(t *testing.T) {
	gpu := newFakeGPU()
	tp, err := NewTransferPool(gpu, 2, 64)
	require.NoError(t, err)
	assert.Equal(t, 2, tp.Count())
	assert.Equal(t, 64, tp.Size())

	a, err := tp.Acquire()
	require.NoError(t, err)
	assert.Len(t, a.Mapped, 64)
	b, err := tp.Acquire()
	require.NoError(t, err)
	assert.False(t, tp.Available())
	_, err = tp.Acquire()
	assert.ErrorIs(t, err, ErrNoTransferBuffer)
	assert.Equal(t, 2, tp.InUse())

	tex := &metadata.Texture{ID: 5, Width: 2, Height: 2, Format: metadata.TextureFormatRGBA8}
	require.NoError(t, tp.Complete(a, tex))
	assert.Nil(t, a.Mapped)
	tp.Abort(b)
	assert.Zero(t, tp.InUse())
	assert.Zero(t, gpu.mapped)
	assert.Equal(t, 1, gpu.transfers)

	tp.Destroy()
	assert.Equal(t, 2, gpu.destroyed)
}

func TestTransferPool_InvalidSize(t *testing.T) {
	_, err := NewTransferPool(newFakeGPU(), 0, 64)
	assert.Error(t, err)
	_, err = NewTransferPool(newFakeGPU(), 1, 0)
	assert.Error(t, err)
}
