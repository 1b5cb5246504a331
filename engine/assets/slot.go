package assets

import (
	"fmt"

	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

/** @brief Lifecycle state of an asset slot. */
type AssetState int32

const (
	AssetStateUnloaded AssetState = iota
	/** @brief A decode job was submitted and has not finished yet. */
	AssetStateQueued
	/** @brief Decoded on a worker, waiting for the main thread GPU finalize. */
	AssetStateJustLoaded
	AssetStateLoaded
	/** @brief Decode or upload failed. Terminal until the asset is removed. */
	AssetStateError
)

func (s AssetState) String() string {
	switch s {
	case AssetStateUnloaded:
		return "unloaded"
	case AssetStateQueued:
		return "queued"
	case AssetStateJustLoaded:
		return "just-loaded"
	case AssetStateLoaded:
		return "loaded"
	case AssetStateError:
		return "error"
	default:
		return fmt.Sprintf("AssetState(%d)", int32(s))
	}
}

var legalTransitions = map[AssetState][]AssetState{
	AssetStateUnloaded:   {AssetStateQueued},
	AssetStateQueued:     {AssetStateJustLoaded, AssetStateError},
	AssetStateJustLoaded: {AssetStateLoaded, AssetStateError},
	AssetStateLoaded:     {AssetStateUnloaded},
}

// transition panics when from -> to is not an edge of the slot state machine.
func transition(kind metadata.AssetKind, id metadata.AssetID, state *AssetState, to AssetState) {
	for _, next := range legalTransitions[*state] {
		if next == to {
			*state = to
			return
		}
	}
	panic(fmt.Sprintf("assets: illegal %s %d transition %s -> %s", kind, id, *state, to))
}

/**
 * @brief Authoritative record of a mesh. Only the main thread touches it.
 */
type MeshSlot struct {
	State    AssetState
	ID       metadata.AssetID
	Name     string
	Filename string
	Format   metadata.MeshFormat
	Mesh     *metadata.Mesh
}

func (s *MeshSlot) transition(to AssetState) {
	transition(metadata.AssetKindMesh, s.ID, &s.State, to)
}

/**
 * @brief Authoritative record of a texture. Width and Height come from the
 * header probe until the texture is loaded.
 */
type TextureSlot struct {
	State    AssetState
	ID       metadata.AssetID
	Name     string
	Filename string
	Format   metadata.TextureFormat
	Wrap     metadata.TextureWrap
	Filter   metadata.TextureFilter
	Range    metadata.TextureRange
	Width    uint32
	Height   uint32
	Texture  *metadata.Texture
}

func (s *TextureSlot) transition(to AssetState) {
	transition(metadata.AssetKindTexture, s.ID, &s.State, to)
}
