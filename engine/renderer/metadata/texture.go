package metadata

import "fmt"

/** @brief Pixel layout requested for a texture. Always 8 bits per channel. */
type TextureFormat uint32

const (
	TextureFormatUnknown TextureFormat = iota
	TextureFormatR8
	TextureFormatRG8
	TextureFormatRGB8
	TextureFormatRGBA8
)

// Channels returns the number of 8-bit channels per pixel, 0 for unknown formats.
func (f TextureFormat) Channels() int {
	switch f {
	case TextureFormatR8:
		return 1
	case TextureFormatRG8:
		return 2
	case TextureFormatRGB8:
		return 3
	case TextureFormatRGBA8:
		return 4
	default:
		return 0
	}
}

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatR8:
		return "r8"
	case TextureFormatRG8:
		return "rg8"
	case TextureFormatRGB8:
		return "rgb8"
	case TextureFormatRGBA8:
		return "rgba8"
	default:
		return fmt.Sprintf("TextureFormat(%d)", uint32(f))
	}
}

/** @brief Represents supported texture filtering modes. */
type TextureFilter uint32

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterNearest TextureFilter = iota
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterLinear
	/** @brief Trilinear filtering across generated mip levels. */
	TextureFilterLinearMipmap
)

type TextureWrap uint32

const (
	TextureWrapRepeat TextureWrap = iota
	TextureWrapMirroredRepeat
	TextureWrapClampToEdge
	TextureWrapClampToBorder
)

/** @brief How sampled values are interpreted: raw linear data or sRGB encoded color. */
type TextureRange uint32

const (
	TextureRangeLinear TextureRange = iota
	TextureRangeSRGB
)

/**
 * @brief Represents a texture asset.
 */
type Texture struct {
	ID   AssetID
	Name string
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	Format TextureFormat
	Wrap   TextureWrap
	Filter TextureFilter
	Range  TextureRange
	/**
	 * @brief Tightly packed pixels, rows bottom to top. Only set while the
	 * texture has not been uploaded through a transfer buffer.
	 */
	Pixels []byte
	/** @brief Backend specific GPU state. */
	GPUHandle interface{}
}

// ByteSize is the size of the tightly packed pixel data.
func (t *Texture) ByteSize() int {
	return int(t.Width) * int(t.Height) * t.Format.Channels()
}

/**
 * @brief A GPU visible staging buffer used to stream pixels into a texture
 * without blocking the main thread. Mapped is only valid between a map call
 * and the matching transfer completion.
 */
type TransferBuffer struct {
	Index  int
	Size   int
	Mapped []byte
	/** @brief A pointer to internal, render API-specific data. */
	InternalData interface{}
}
