package assets

import "github.com/spaghettifunk/flux/engine/renderer/metadata"

/**
 * @brief The slice of the renderer backend the asset manager drives. Every
 * method is called on the main thread only.
 */
type GPU interface {
	CreateMesh(mesh *metadata.Mesh) error
	DestroyMesh(mesh *metadata.Mesh)
	// CreateTexture uploads tightly packed pixels directly.
	CreateTexture(texture *metadata.Texture, pixels []byte) error
	DestroyTexture(texture *metadata.Texture)

	CreateTransferBuffer(index int, size int) (*metadata.TransferBuffer, error)
	// MapTransferBuffer makes buffer.Mapped writable from any goroutine.
	MapTransferBuffer(buffer *metadata.TransferBuffer) error
	// UnmapTransferBuffer drops the mapping without uploading anything.
	UnmapTransferBuffer(buffer *metadata.TransferBuffer)
	// CompleteTextureTransfer unmaps buffer and creates texture from its contents.
	CompleteTextureTransfer(buffer *metadata.TransferBuffer, texture *metadata.Texture) error
	DestroyTransferBuffer(buffer *metadata.TransferBuffer)
}

/**
 * @brief Background work queue. PushWork must not block and returns false
 * when the queue is momentarily full.
 */
type WorkQueue interface {
	PushWork(fn func()) bool
}
