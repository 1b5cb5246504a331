package assets

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/flux/engine/containers"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

var ErrNoTransferBuffer = errors.New("no free transfer buffer")

const (
	DefaultTransferBufferCount = 8
	DefaultTransferBufferSize  = 16 * 1024 * 1024
)

/**
 * @brief Fixed set of staging buffers for texture uploads. A buffer belongs
 * to exactly one texture load from Acquire until Complete or Abort, so the
 * number of textures in flight never exceeds Count.
 */
type TransferPool struct {
	gpu     GPU
	buffers []*metadata.TransferBuffer
	free    *containers.RingQueue[int]
	size    int
}

func NewTransferPool(gpu GPU, count int, size int) (*TransferPool, error) {
	if count <= 0 || size <= 0 {
		return nil, fmt.Errorf("transfer pool needs a positive count and size, got %d x %d", count, size)
	}
	tp := &TransferPool{
		gpu:     gpu,
		buffers: make([]*metadata.TransferBuffer, count),
		free:    containers.NewRingQueue[int](count),
		size:    size,
	}
	for i := range tp.buffers {
		buf, err := gpu.CreateTransferBuffer(i, size)
		if err != nil {
			tp.Destroy()
			return nil, fmt.Errorf("transfer buffer %d: %w", i, err)
		}
		buf.Index = i
		tp.buffers[i] = buf
		tp.free.Push(i)
	}
	return tp, nil
}

// Available reports whether Acquire can succeed.
func (tp *TransferPool) Available() bool {
	return !tp.free.IsEmpty()
}

/**
 * @brief Maps a free buffer for writing.
 * @return ErrNoTransferBuffer when none is free, or the mapping error.
 */
func (tp *TransferPool) Acquire() (*metadata.TransferBuffer, error) {
	index, ok := tp.free.Pop()
	if !ok {
		return nil, ErrNoTransferBuffer
	}
	buf := tp.buffers[index]
	if err := tp.gpu.MapTransferBuffer(buf); err != nil {
		tp.free.Push(index)
		return nil, fmt.Errorf("map transfer buffer %d: %w", index, err)
	}
	return buf, nil
}

// Complete uploads the buffer contents into texture and frees the buffer.
func (tp *TransferPool) Complete(buf *metadata.TransferBuffer, texture *metadata.Texture) error {
	defer tp.release(buf)
	return tp.gpu.CompleteTextureTransfer(buf, texture)
}

// Abort unmaps buf without uploading and frees it.
func (tp *TransferPool) Abort(buf *metadata.TransferBuffer) {
	tp.gpu.UnmapTransferBuffer(buf)
	tp.release(buf)
}

func (tp *TransferPool) release(buf *metadata.TransferBuffer) {
	buf.Mapped = nil
	if !tp.free.Push(buf.Index) {
		panic(fmt.Sprintf("assets: transfer pool free list overflow on buffer %d", buf.Index))
	}
}

func (tp *TransferPool) InUse() int {
	return len(tp.buffers) - tp.free.Len()
}

func (tp *TransferPool) Count() int {
	return len(tp.buffers)
}

func (tp *TransferPool) Size() int {
	return tp.size
}

// Destroy releases every buffer. None may be in flight.
func (tp *TransferPool) Destroy() {
	for i, buf := range tp.buffers {
		if buf != nil {
			tp.gpu.DestroyTransferBuffer(buf)
			tp.buffers[i] = nil
		}
	}
}
