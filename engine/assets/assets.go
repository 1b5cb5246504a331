package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spaghettifunk/flux/engine/assets/loaders"
	"github.com/spaghettifunk/flux/engine/containers"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/platform/filesystem"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
	"golang.org/x/exp/slices"
)

var (
	ErrUnknownAsset = errors.New("unknown asset")
	ErrAssetBusy    = errors.New("asset has a load in flight")
)

// probeSize covers the largest fixed header of the mesh formats.
const probeSize = 512

/** @brief Outcome of AddMesh and AddTexture. */
type AddStatus int

const (
	AddOk AddStatus = iota
	/** @brief The name was already interned; the existing ID is returned. Not an error. */
	AddAlreadyExists
	AddUnknownFormat
	AddOpenFailed
	/** @brief The file opened but its header is malformed or incompatible. */
	AddInvalidFile
	/** @brief The derived name is empty or its hash collides with another name. */
	AddNameRejected
)

func (s AddStatus) String() string {
	switch s {
	case AddOk:
		return "ok"
	case AddAlreadyExists:
		return "already exists"
	case AddUnknownFormat:
		return "unknown format"
	case AddOpenFailed:
		return "open failed"
	case AddInvalidFile:
		return "invalid file"
	case AddNameRejected:
		return "name rejected"
	default:
		return fmt.Sprintf("AddStatus(%d)", int(s))
	}
}

type AddResult struct {
	ID     metadata.AssetID
	Status AddStatus
	// Err carries the underlying cause for failure statuses.
	Err error
}

// OK is true when ID refers to a usable asset.
func (r AddResult) OK() bool {
	return r.Status == AddOk || r.Status == AddAlreadyExists
}

type AssetsConfig struct {
	// Dir is prepended to relative asset paths.
	Dir                string
	Watch              bool
	QueueCapacity      int
	TransferBuffers    int
	TransferBufferSize int
	NameTableCapacity  int
	FlipTexturesY      bool
}

func DefaultAssetsConfig() AssetsConfig {
	return AssetsConfig{
		Dir:                "assets",
		QueueCapacity:      DefaultLoadQueueCapacity,
		TransferBuffers:    DefaultTransferBufferCount,
		TransferBufferSize: DefaultTransferBufferSize,
		NameTableCapacity:  128,
		FlipTexturesY:      true,
	}
}

type Stats struct {
	Meshes         int
	Textures       int
	InFlight       int
	TransfersInUse int
	// Deferred counts loads postponed by queue or transfer back-pressure.
	Deferred  uint64
	Completed uint64
	Failed    uint64
}

type Option func(*AssetManager)

// WithEventBus fires EVENT_CODE_ASSET_LOADED on bus for every finalized load.
func WithEventBus(bus *core.EventBus) Option {
	return func(am *AssetManager) {
		am.events = bus
	}
}

/**
 * @brief Single authority over mesh and texture identity, load state and GPU
 * residency. Every exported method must be called from the main thread;
 * decode runs on the work queue and results are picked up by
 * CompletePendingLoads.
 */
type AssetManager struct {
	config AssetsConfig
	gpu    GPU
	jobs   WorkQueue
	files  filesystem.FileIO
	logger *core.Logger
	events *core.EventBus

	serial       *core.SerialCounter
	meshNames    *NameTable
	textureNames *NameTable
	meshes       *containers.HashMap[metadata.AssetID, MeshSlot]
	textures     *containers.HashMap[metadata.AssetID, TextureSlot]

	queue     *LoadQueue
	transfers *TransferPool
	watcher   *Watcher
	// changed files of assets that were still loading
	pendingReloads map[string]struct{}

	stats Stats
}

func NewAssetManager(config AssetsConfig, gpu GPU, jobs WorkQueue, files filesystem.FileIO, logger *core.Logger, opts ...Option) (*AssetManager, error) {
	if config.QueueCapacity <= 0 {
		config.QueueCapacity = DefaultLoadQueueCapacity
	}
	if config.TransferBuffers > config.QueueCapacity {
		err := fmt.Errorf("%d transfer buffers exceed the load queue capacity %d", config.TransferBuffers, config.QueueCapacity)
		logger.Error(err.Error())
		return nil, err
	}
	if config.NameTableCapacity <= 0 {
		config.NameTableCapacity = 128
	}

	transfers, err := NewTransferPool(gpu, config.TransferBuffers, config.TransferBufferSize)
	if err != nil {
		logger.Error(err.Error())
		return nil, err
	}

	serial := core.NewSerialCounter(1)
	am := &AssetManager{
		config:       config,
		gpu:          gpu,
		jobs:         jobs,
		files:        files,
		logger:       logger,
		serial:       serial,
		meshNames:    NewNameTable(config.NameTableCapacity, serial),
		textureNames: NewNameTable(config.NameTableCapacity, serial),
		meshes:       containers.NewHashMap[metadata.AssetID, MeshSlot](config.NameTableCapacity, true),
		textures:     containers.NewHashMap[metadata.AssetID, TextureSlot](config.NameTableCapacity, true),
		queue:        NewLoadQueue(config.QueueCapacity),
		transfers:    transfers,

		pendingReloads: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(am)
	}

	if config.Watch {
		w, err := NewWatcher(logger, config.QueueCapacity)
		if err != nil {
			transfers.Destroy()
			logger.Error(err.Error())
			return nil, err
		}
		am.watcher = w
	}
	return am, nil
}

// resolve maps a registered filename to the path used for I/O.
func (am *AssetManager) resolve(filename string) string {
	if filepath.IsAbs(filename) || am.config.Dir == "" {
		return filename
	}
	return filepath.Join(am.config.Dir, filename)
}

func (am *AssetManager) watch(filename string) {
	if am.watcher == nil {
		return
	}
	if err := am.watcher.Watch(am.resolve(filename)); err != nil {
		am.logger.Warnf("cannot watch %s: %s", filename, err)
	}
}

func (am *AssetManager) unwatch(filename string) {
	if am.watcher != nil {
		am.watcher.Unwatch(am.resolve(filename))
	}
}

/**
 * @brief Registers a mesh file. The header is validated but nothing is
 * decoded; the mesh streams in on first use.
 * @param path File path, relative paths are resolved against the asset directory.
 * @param format MeshFormatUnknown picks the format from the extension.
 */
func (am *AssetManager) AddMesh(path string, format metadata.MeshFormat) AddResult {
	if format == metadata.MeshFormatUnknown {
		format = metadata.MeshFormatFromPath(path)
	}
	if format == metadata.MeshFormatUnknown {
		return am.rejected(path, AddUnknownFormat, loaders.ErrUnknownFormat)
	}

	name := metadata.AssetNameFromPath(path)
	if id := am.meshNames.GetID(name); id != metadata.InvalidAssetID {
		return AddResult{ID: id, Status: AddAlreadyExists}
	}

	prefix, err := am.files.ReadPrefix(am.resolve(path), probeSize)
	if err != nil {
		return am.rejected(path, AddOpenFailed, err)
	}
	switch format {
	case metadata.MeshFormatFlux:
		_, err = loaders.ProbeFlux(prefix)
	case metadata.MeshFormatAAB:
		_, err = loaders.ProbeAAB(prefix)
	case metadata.MeshFormatGLTF:
		err = loaders.ProbeGLTF(prefix)
	default:
		return am.rejected(path, AddUnknownFormat, loaders.ErrUnknownFormat)
	}
	if err != nil {
		return am.rejected(path, AddInvalidFile, err)
	}

	id := am.meshNames.AddName(name)
	if id == metadata.InvalidAssetID {
		return am.rejected(path, AddNameRejected, fmt.Errorf("mesh name %q", name))
	}
	slot, _ := am.meshes.Add(id)
	*slot = MeshSlot{
		State:    AssetStateUnloaded,
		ID:       id,
		Name:     name,
		Filename: path,
		Format:   format,
	}
	am.watch(path)
	am.logger.Debugf("mesh %q registered as %d (%s)", name, id, format)
	return AddResult{ID: id, Status: AddOk}
}

/**
 * @brief Registers a texture file after probing its header. The image must
 * provide at least as many channels as format needs.
 */
func (am *AssetManager) AddTexture(path string, format metadata.TextureFormat, wrap metadata.TextureWrap, filter metadata.TextureFilter, textureRange metadata.TextureRange) AddResult {
	if format.Channels() == 0 {
		return am.rejected(path, AddUnknownFormat, loaders.ErrUnknownFormat)
	}

	name := metadata.AssetNameFromPath(path)
	if id := am.textureNames.GetID(name); id != metadata.InvalidAssetID {
		return AddResult{ID: id, Status: AddAlreadyExists}
	}

	r, err := am.files.Open(am.resolve(path))
	if err != nil {
		return am.rejected(path, AddOpenFailed, err)
	}
	info, err := loaders.ProbeImage(r)
	r.Close()
	if err != nil {
		return am.rejected(path, AddInvalidFile, err)
	}
	if err := loaders.CheckChannels(info, format); err != nil {
		return am.rejected(path, AddInvalidFile, err)
	}

	id := am.textureNames.AddName(name)
	if id == metadata.InvalidAssetID {
		return am.rejected(path, AddNameRejected, fmt.Errorf("texture name %q", name))
	}
	slot, _ := am.textures.Add(id)
	*slot = TextureSlot{
		State:    AssetStateUnloaded,
		ID:       id,
		Name:     name,
		Filename: path,
		Format:   format,
		Wrap:     wrap,
		Filter:   filter,
		Range:    textureRange,
		Width:    uint32(info.Width),
		Height:   uint32(info.Height),
	}
	am.watch(path)
	am.logger.Debugf("texture %q registered as %d (%dx%d %s)", name, id, info.Width, info.Height, format)
	return AddResult{ID: id, Status: AddOk}
}

func (am *AssetManager) rejected(path string, status AddStatus, err error) AddResult {
	am.logger.Warnf("cannot add %s: %s: %s", path, status, err)
	return AddResult{Status: status, Err: err}
}

/**
 * @brief Resolves a mesh for drawing.
 *
 * This read has a side effect: an Unloaded mesh is queued for loading and nil
 * is returned. The mesh becomes available on a later frame once the decode
 * finished and CompletePendingLoads ran. Queued, JustLoaded and Error meshes
 * also return nil, so callers must always handle nil by skipping the draw.
 * Repeated calls while Queued never submit a second job. Never blocks.
 */
func (am *AssetManager) GetMesh(id metadata.AssetID) *metadata.Mesh {
	if id == metadata.InvalidAssetID {
		return nil
	}
	slot, ok := am.meshes.Get(id)
	if !ok {
		return nil
	}
	switch slot.State {
	case AssetStateLoaded:
		return slot.Mesh
	case AssetStateUnloaded:
		am.LoadMesh(id)
	}
	return nil
}

// GetTexture follows the same pull based contract as GetMesh.
func (am *AssetManager) GetTexture(id metadata.AssetID) *metadata.Texture {
	if id == metadata.InvalidAssetID {
		return nil
	}
	slot, ok := am.textures.Get(id)
	if !ok {
		return nil
	}
	switch slot.State {
	case AssetStateLoaded:
		return slot.Texture
	case AssetStateUnloaded:
		am.LoadTexture(id)
	}
	return nil
}

/**
 * @brief Queues an Unloaded mesh for decoding.
 * @return false when the mesh is not Unloaded or the load queue is full; a
 * full queue is back-pressure and the next GetMesh retries.
 */
func (am *AssetManager) LoadMesh(id metadata.AssetID) bool {
	slot, ok := am.meshes.Get(id)
	if !ok || slot.State != AssetStateUnloaded {
		return false
	}
	job := &meshJob{slot: *slot, path: am.resolve(slot.Filename)}
	entry, ok := am.queue.Acquire(id, job)
	if !ok {
		am.stats.Deferred++
		return false
	}
	slot.transition(AssetStateQueued)
	am.submit(func() { am.loadMeshWork(entry, job) })
	return true
}

/**
 * @brief Queues an Unloaded texture for decoding. Besides a queue entry the
 * load needs a free transfer buffer, otherwise it is deferred.
 */
func (am *AssetManager) LoadTexture(id metadata.AssetID) bool {
	slot, ok := am.textures.Get(id)
	if !ok || slot.State != AssetStateUnloaded {
		return false
	}
	if !am.transfers.Available() {
		am.stats.Deferred++
		return false
	}
	job := &textureJob{slot: *slot, path: am.resolve(slot.Filename), flipY: am.config.FlipTexturesY}
	entry, ok := am.queue.Acquire(id, job)
	if !ok {
		am.stats.Deferred++
		return false
	}
	buf, err := am.transfers.Acquire()
	if err != nil {
		am.logger.Warnf("texture %q deferred: %s", slot.Name, err)
		am.queue.Release(entry)
		am.stats.Deferred++
		return false
	}
	job.transfer = buf
	slot.transition(AssetStateQueued)
	am.submit(func() { am.loadTextureWork(entry, job) })
	return true
}

// submit spins until the work queue accepts fn. This is the one place the
// main thread may wait on workers.
func (am *AssetManager) submit(fn func()) {
	for !am.jobs.PushWork(fn) {
		runtime.Gosched()
	}
}

/**
 * @brief Finalizes every load whose worker finished: GPU upload for
 * successes, Error state for failures. Also applies pending hot reloads.
 * Must run once per frame on the main thread.
 * @return The number of loads finalized.
 */
func (am *AssetManager) CompletePendingLoads() int {
	am.applyReloads()

	finalized := 0
	for {
		entry, ok := am.queue.next()
		if !ok {
			am.retryReloads()
			return finalized
		}
		switch job := entry.payload.(type) {
		case *meshJob:
			am.finalizeMesh(entry, job)
		case *textureJob:
			am.finalizeTexture(entry, job)
		default:
			panic(fmt.Sprintf("assets: load entry %d carries no job", entry.index))
		}
		am.queue.Release(entry)
		finalized++
	}
}

func (am *AssetManager) finalizeMesh(entry *loadEntry, job *meshJob) {
	slot, ok := am.meshes.Get(entry.id)
	if !ok {
		panic(fmt.Sprintf("assets: mesh %d finished loading but its slot is gone", entry.id))
	}
	if entry.State() == AssetStateError {
		slot.transition(AssetStateError)
		am.stats.Failed++
		am.logger.Errorf("mesh %q failed to load: %s", slot.Name, job.err)
		am.fireLoaded(metadata.AssetKindMesh, slot.ID, true)
		return
	}

	slot.transition(AssetStateJustLoaded)
	mesh := job.mesh
	mesh.ID = slot.ID
	mesh.Name = slot.Name
	if err := am.gpu.CreateMesh(mesh); err != nil {
		slot.transition(AssetStateError)
		am.stats.Failed++
		am.logger.Errorf("mesh %q upload failed: %s", slot.Name, err)
		am.fireLoaded(metadata.AssetKindMesh, slot.ID, true)
		return
	}
	slot.Mesh = mesh
	slot.transition(AssetStateLoaded)
	am.stats.Completed++
	am.logger.Debugf("mesh %q loaded: %d sub-meshes, %d vertices", slot.Name, len(mesh.SubMeshes), mesh.VertexCount())
	am.fireLoaded(metadata.AssetKindMesh, slot.ID, false)
}

func (am *AssetManager) finalizeTexture(entry *loadEntry, job *textureJob) {
	slot, ok := am.textures.Get(entry.id)
	if !ok {
		panic(fmt.Sprintf("assets: texture %d finished loading but its slot is gone", entry.id))
	}
	if entry.State() == AssetStateError {
		am.transfers.Abort(job.transfer)
		slot.transition(AssetStateError)
		am.stats.Failed++
		am.logger.Errorf("texture %q failed to load: %s", slot.Name, job.err)
		am.fireLoaded(metadata.AssetKindTexture, slot.ID, true)
		return
	}

	slot.transition(AssetStateJustLoaded)
	texture := job.texture
	texture.ID = slot.ID
	texture.Name = slot.Name

	var err error
	if job.pixels == nil {
		err = am.transfers.Complete(job.transfer, texture)
	} else {
		// too large for the staging buffer, upload straight from CPU memory
		am.transfers.Abort(job.transfer)
		err = am.gpu.CreateTexture(texture, job.pixels)
	}
	if err != nil {
		slot.transition(AssetStateError)
		am.stats.Failed++
		am.logger.Errorf("texture %q upload failed: %s", slot.Name, err)
		am.fireLoaded(metadata.AssetKindTexture, slot.ID, true)
		return
	}
	slot.Texture = texture
	slot.Width, slot.Height = texture.Width, texture.Height
	slot.transition(AssetStateLoaded)
	am.stats.Completed++
	am.logger.Debugf("texture %q loaded: %dx%d", slot.Name, texture.Width, texture.Height)
	am.fireLoaded(metadata.AssetKindTexture, slot.ID, false)
}

func (am *AssetManager) fireLoaded(kind metadata.AssetKind, id metadata.AssetID, failed bool) {
	if am.events == nil {
		return
	}
	ctx := core.EventContext{}
	ctx.Data.U32[0] = uint32(id)
	ctx.Data.U32[1] = uint32(kind)
	if failed {
		ctx.Data.U32[2] = 1
	}
	am.events.Fire(core.EVENT_CODE_ASSET_LOADED, am, ctx)
}

/**
 * @brief Releases the GPU and CPU memory of a Loaded mesh and makes it
 * Unloaded again. Calling it in any other state is a programming error.
 */
func (am *AssetManager) UnloadMesh(id metadata.AssetID) {
	slot, ok := am.meshes.Get(id)
	if !ok {
		panic(fmt.Sprintf("assets: unloading unknown mesh %d", id))
	}
	slot.transition(AssetStateUnloaded)
	am.gpu.DestroyMesh(slot.Mesh)
	slot.Mesh.Release()
	slot.Mesh = nil
}

// UnloadTexture mirrors UnloadMesh for textures.
func (am *AssetManager) UnloadTexture(id metadata.AssetID) {
	slot, ok := am.textures.Get(id)
	if !ok {
		panic(fmt.Sprintf("assets: unloading unknown texture %d", id))
	}
	slot.transition(AssetStateUnloaded)
	am.gpu.DestroyTexture(slot.Texture)
	slot.Texture.Pixels = nil
	slot.Texture = nil
}

/**
 * @brief Forgets a mesh: unloads it if needed, releases its name and deletes
 * the slot. The ID is never reused.
 * @return ErrAssetBusy while a load is in flight.
 */
func (am *AssetManager) RemoveMesh(id metadata.AssetID) error {
	slot, ok := am.meshes.Get(id)
	if !ok {
		return fmt.Errorf("mesh %d: %w", id, ErrUnknownAsset)
	}
	switch slot.State {
	case AssetStateLoaded:
		am.UnloadMesh(id)
	case AssetStateUnloaded, AssetStateError:
	default:
		return fmt.Errorf("mesh %q is %s: %w", slot.Name, slot.State, ErrAssetBusy)
	}
	am.unwatch(slot.Filename)
	am.meshNames.RemoveName(slot.Name)
	am.logger.Debugf("mesh %q (%d) removed", slot.Name, id)
	am.meshes.Delete(id)
	return nil
}

// RemoveTexture mirrors RemoveMesh for textures.
func (am *AssetManager) RemoveTexture(id metadata.AssetID) error {
	slot, ok := am.textures.Get(id)
	if !ok {
		return fmt.Errorf("texture %d: %w", id, ErrUnknownAsset)
	}
	switch slot.State {
	case AssetStateLoaded:
		am.UnloadTexture(id)
	case AssetStateUnloaded, AssetStateError:
	default:
		return fmt.Errorf("texture %q is %s: %w", slot.Name, slot.State, ErrAssetBusy)
	}
	am.unwatch(slot.Filename)
	am.textureNames.RemoveName(slot.Name)
	am.logger.Debugf("texture %q (%d) removed", slot.Name, id)
	am.textures.Delete(id)
	return nil
}

// applyReloads unloads every Loaded asset whose file changed on disk so the
// next Get streams the new contents.
func (am *AssetManager) applyReloads() {
	if am.watcher == nil {
		return
	}
	for {
		select {
		case path := <-am.watcher.Changed():
			am.reload(path)
		default:
			return
		}
	}
}

// retryReloads applies changes that arrived while their asset was loading.
func (am *AssetManager) retryReloads() {
	if len(am.pendingReloads) == 0 {
		return
	}
	paths := make([]string, 0, len(am.pendingReloads))
	for path := range am.pendingReloads {
		paths = append(paths, path)
	}
	clear(am.pendingReloads)
	for _, path := range paths {
		am.reload(path)
	}
}

func inFlight(state AssetState) bool {
	return state == AssetStateQueued || state == AssetStateJustLoaded
}

/**
 * @brief Unloads the Loaded assets backed by path. Assets still loading are
 * remembered and unloaded once they reach Loaded, so the stale contents never
 * stay resident.
 */
func (am *AssetManager) reload(path string) {
	var meshIDs, textureIDs []metadata.AssetID
	pending := false
	am.meshes.Each(func(id metadata.AssetID, slot *MeshSlot) bool {
		if canonical(am.resolve(slot.Filename)) != path {
			return true
		}
		if slot.State == AssetStateLoaded {
			meshIDs = append(meshIDs, id)
		} else if inFlight(slot.State) {
			pending = true
		}
		return true
	})
	am.textures.Each(func(id metadata.AssetID, slot *TextureSlot) bool {
		if canonical(am.resolve(slot.Filename)) != path {
			return true
		}
		if slot.State == AssetStateLoaded {
			textureIDs = append(textureIDs, id)
		} else if inFlight(slot.State) {
			pending = true
		}
		return true
	})
	if pending {
		am.pendingReloads[path] = struct{}{}
	}
	for _, id := range meshIDs {
		am.logger.Infof("mesh file %s changed, reloading", path)
		am.UnloadMesh(id)
	}
	for _, id := range textureIDs {
		am.logger.Infof("texture file %s changed, reloading", path)
		am.UnloadTexture(id)
	}
}

func (am *AssetManager) MeshState(id metadata.AssetID) (AssetState, bool) {
	slot, ok := am.meshes.Get(id)
	if !ok {
		return AssetStateUnloaded, false
	}
	return slot.State, true
}

func (am *AssetManager) TextureState(id metadata.AssetID) (AssetState, bool) {
	slot, ok := am.textures.Get(id)
	if !ok {
		return AssetStateUnloaded, false
	}
	return slot.State, true
}

// MeshInfo returns a copy of the mesh slot.
func (am *AssetManager) MeshInfo(id metadata.AssetID) (MeshSlot, bool) {
	slot, ok := am.meshes.Get(id)
	if !ok {
		return MeshSlot{}, false
	}
	return *slot, true
}

// TextureInfo returns a copy of the texture slot.
func (am *AssetManager) TextureInfo(id metadata.AssetID) (TextureSlot, bool) {
	slot, ok := am.textures.Get(id)
	if !ok {
		return TextureSlot{}, false
	}
	return *slot, true
}

func (am *AssetManager) FindMesh(name string) metadata.AssetID {
	return am.meshNames.GetID(name)
}

func (am *AssetManager) FindTexture(name string) metadata.AssetID {
	return am.textureNames.GetID(name)
}

// MeshIDs lists every registered mesh in ascending ID order.
func (am *AssetManager) MeshIDs() []metadata.AssetID {
	ids := make([]metadata.AssetID, 0, am.meshes.Len())
	am.meshes.Each(func(id metadata.AssetID, _ *MeshSlot) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids
}

// TextureIDs lists every registered texture in ascending ID order.
func (am *AssetManager) TextureIDs() []metadata.AssetID {
	ids := make([]metadata.AssetID, 0, am.textures.Len())
	am.textures.Each(func(id metadata.AssetID, _ *TextureSlot) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids
}

func (am *AssetManager) Stats() Stats {
	s := am.stats
	s.Meshes = am.meshes.Len()
	s.Textures = am.textures.Len()
	s.InFlight = am.queue.InFlight()
	s.TransfersInUse = am.transfers.InUse()
	return s
}

/**
 * @brief Waits for in-flight loads, unloads every resident asset and frees
 * the transfer buffers. Workers must still be running.
 */
func (am *AssetManager) Shutdown() error {
	for am.queue.InFlight() > 0 {
		if am.CompletePendingLoads() == 0 {
			runtime.Gosched()
		}
	}

	for _, id := range am.MeshIDs() {
		if slot, _ := am.meshes.Get(id); slot.State == AssetStateLoaded {
			am.UnloadMesh(id)
		}
	}
	for _, id := range am.TextureIDs() {
		if slot, _ := am.textures.Get(id); slot.State == AssetStateLoaded {
			am.UnloadTexture(id)
		}
	}
	am.transfers.Destroy()

	if am.watcher != nil {
		if err := am.watcher.Close(); err != nil {
			am.logger.Error(err.Error())
			return err
		}
	}
	return nil
}
