package assets

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/flux/engine/containers"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

/** @brief Default number of loads that can be in flight at once. */
const DefaultLoadQueueCapacity = 512

// loadPayload is the closed set of job snapshots a queue entry can carry.
type loadPayload interface {
	kind() metadata.AssetKind
}

type meshJob struct {
	slot MeshSlot
	path string
	// written by the worker before the state flip
	mesh *metadata.Mesh
	err  error
}

func (*meshJob) kind() metadata.AssetKind { return metadata.AssetKindMesh }

type textureJob struct {
	slot     TextureSlot
	path     string
	flipY    bool
	transfer *metadata.TransferBuffer
	// written by the worker before the state flip
	texture *metadata.Texture
	// set when the pixels did not fit in the transfer buffer
	pixels []byte
	err    error
}

func (*textureJob) kind() metadata.AssetKind { return metadata.AssetKindTexture }

/**
 * @brief One in-flight load. The worker owns payload until it flips state,
 * after which only the main thread reads it.
 */
type loadEntry struct {
	index   int
	used    bool
	id      metadata.AssetID
	state   atomic.Int32
	payload loadPayload
	queue   *LoadQueue
}

func (e *loadEntry) State() AssetState {
	return AssetState(e.state.Load())
}

/**
 * @brief Publishes the result of a worker. The entry must still be Queued:
 * observing anything else means two workers raced on one load, which is a
 * programming error.
 */
func (e *loadEntry) finish(ok bool) {
	to := AssetStateError
	if ok {
		to = AssetStateJustLoaded
	}
	if !e.state.CompareAndSwap(int32(AssetStateQueued), int32(to)) {
		panic(fmt.Sprintf("assets: load entry %d for asset %d finished in state %s, expected %s",
			e.index, e.id, e.State(), AssetStateQueued))
	}
	// buffered to capacity, never blocks
	e.queue.completions <- e.index
}

/**
 * @brief Fixed pool of load entries plus the completion channel workers post
 * to. Acquire and Release are main thread only.
 */
type LoadQueue struct {
	entries     []loadEntry
	free        *containers.RingQueue[int]
	completions chan int
	inFlight    int
}

func NewLoadQueue(capacity int) *LoadQueue {
	if capacity <= 0 {
		capacity = DefaultLoadQueueCapacity
	}
	lq := &LoadQueue{
		entries:     make([]loadEntry, capacity),
		free:        containers.NewIndexRing(capacity),
		completions: make(chan int, capacity),
	}
	for i := range lq.entries {
		lq.entries[i].index = i
		lq.entries[i].queue = lq
	}
	return lq
}

/**
 * @brief Takes a free entry for a new load of id, already in the Queued state.
 * @return false when every entry is in flight. That is back-pressure, the
 * caller simply tries again later.
 */
func (lq *LoadQueue) Acquire(id metadata.AssetID, payload loadPayload) (*loadEntry, bool) {
	index, ok := lq.free.Pop()
	if !ok {
		return nil, false
	}
	e := &lq.entries[index]
	e.used = true
	e.id = id
	e.payload = payload
	e.state.Store(int32(AssetStateQueued))
	lq.inFlight++
	return e, true
}

// Release returns e to the pool after the main thread finalized it.
func (lq *LoadQueue) Release(e *loadEntry) {
	if !e.used {
		panic(fmt.Sprintf("assets: releasing load entry %d that is not in use", e.index))
	}
	e.used = false
	e.id = metadata.InvalidAssetID
	e.payload = nil
	e.state.Store(int32(AssetStateUnloaded))
	lq.inFlight--
	if !lq.free.Push(e.index) {
		panic(fmt.Sprintf("assets: load queue free list overflow on entry %d", e.index))
	}
}

// next returns a finished entry if one is waiting, without blocking.
func (lq *LoadQueue) next() (*loadEntry, bool) {
	select {
	case index := <-lq.completions:
		return &lq.entries[index], true
	default:
		return nil, false
	}
}

func (lq *LoadQueue) InFlight() int {
	return lq.inFlight
}

func (lq *LoadQueue) Cap() int {
	return len(lq.entries)
}
