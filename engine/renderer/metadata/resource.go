package metadata

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

/**
 * @brief Process-unique identifier of a mesh or texture. IDs are handed out
 * once per distinct asset name and never reused, 0 means "no asset".
 */
type AssetID uint32

const InvalidAssetID AssetID = 0

/** @brief Maximum length in bytes of an asset name. */
const MaxAssetNameLength = 128

type AssetKind uint8

const (
	AssetKindMesh AssetKind = iota + 1
	AssetKindTexture
)

func (k AssetKind) String() string {
	switch k {
	case AssetKindMesh:
		return "mesh"
	case AssetKindTexture:
		return "texture"
	default:
		return "unknown"
	}
}

/** @brief On-disk mesh encodings understood by the asset loaders. */
type MeshFormat uint32

const (
	MeshFormatUnknown MeshFormat = iota
	/** @brief Engine native multi sub-mesh container. */
	MeshFormatFlux
	/** @brief Single mesh binary asset, version 2. */
	MeshFormatAAB
	/** @brief glTF 2.0, either .gltf with external buffers or .glb. */
	MeshFormatGLTF
)

func (f MeshFormat) String() string {
	switch f {
	case MeshFormatFlux:
		return "flux"
	case MeshFormatAAB:
		return "aab"
	case MeshFormatGLTF:
		return "gltf"
	default:
		return "unknown"
	}
}

// MeshFormatFromPath guesses the mesh format from the file extension.
func MeshFormatFromPath(path string) MeshFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flux":
		return MeshFormatFlux
	case ".aab":
		return MeshFormatAAB
	case ".gltf", ".glb":
		return MeshFormatGLTF
	default:
		return MeshFormatUnknown
	}
}

// AssetNameFromPath strips directory and extension from path, truncated to
// MaxAssetNameLength bytes.
func AssetNameFromPath(path string) string {
	base := strings.ReplaceAll(path, "\\", "/")
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if len(name) > MaxAssetNameLength {
		// cut on a rune boundary
		end := MaxAssetNameLength
		for end > 0 && !utf8.RuneStart(name[end]) {
			end--
		}
		name = name[:end]
	}
	return name
}
