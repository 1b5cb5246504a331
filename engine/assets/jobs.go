package assets

import (
	"fmt"

	"github.com/spaghettifunk/flux/engine/assets/loaders"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

// Worker side of the loads. These run on the work queue and only touch the
// job snapshot and the mapped transfer buffer, never the slots.

func (am *AssetManager) loadMeshWork(entry *loadEntry, job *meshJob) {
	mesh, err := am.decodeMesh(job)
	if err != nil {
		job.err = err
		entry.finish(false)
		return
	}
	mesh.Format = job.slot.Format
	job.mesh = mesh
	entry.finish(true)
}

func (am *AssetManager) decodeMesh(job *meshJob) (*metadata.Mesh, error) {
	if job.slot.Format == metadata.MeshFormatGLTF {
		// external buffers are resolved relative to the document
		return loaders.DecodeGLTF(job.path, job.slot.Name)
	}

	data, err := am.files.ReadFile(job.path)
	if err != nil {
		return nil, err
	}
	switch job.slot.Format {
	case metadata.MeshFormatFlux:
		return loaders.DecodeFlux(data)
	case metadata.MeshFormatAAB:
		return loaders.DecodeAAB(data, job.slot.Name)
	default:
		return nil, fmt.Errorf("%s: %w", job.slot.Format, loaders.ErrUnknownFormat)
	}
}

func (am *AssetManager) loadTextureWork(entry *loadEntry, job *textureJob) {
	data, err := am.files.ReadFile(job.path)
	if err != nil {
		job.err = err
		entry.finish(false)
		return
	}

	format := job.slot.Format
	pixels, w, h, err := loaders.DecodeImage(data, format, job.flipY, job.transfer.Mapped)
	if err != nil {
		job.err = err
		entry.finish(false)
		return
	}

	job.texture = &metadata.Texture{
		Width:  uint32(w),
		Height: uint32(h),
		Format: format,
		Wrap:   job.slot.Wrap,
		Filter: job.slot.Filter,
		Range:  job.slot.Range,
	}
	// DecodeImage writes in place whenever the mapping is large enough
	if len(pixels) > len(job.transfer.Mapped) {
		job.pixels = pixels
	}
	entry.finish(true)
}
