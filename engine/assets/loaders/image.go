package loaders

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/h2non/filetype"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageSniffSize is enough of a file for filetype to recognise every image kind.
const ImageSniffSize = 262

type ImageInfo struct {
	Width    int
	Height   int
	Channels int
	Kind     string
}

/**
 * @brief Reads only the image header: file kind, dimensions and channel count.
 * @param r A reader positioned at the start of the file.
 */
func ProbeImage(r io.Reader) (*ImageInfo, error) {
	head := make([]byte, ImageSniffSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("image probe: %w", err)
	}
	head = head[:n]
	if !filetype.IsImage(head) {
		return nil, ErrNotAnImage
	}
	kind, _ := filetype.Match(head)

	cfg, format, err := image.DecodeConfig(io.MultiReader(bytes.NewReader(head), r))
	if err != nil {
		return nil, fmt.Errorf("image probe %s: %w", kind.Extension, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, ErrEmptyImage
	}
	return &ImageInfo{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Channels: channelsOf(cfg.ColorModel),
		Kind:     format,
	}, nil
}

func channelsOf(model color.Model) int {
	switch model {
	case color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model:
		return 1
	case color.YCbCrModel, color.CMYKModel:
		return 3
	}
	if palette, ok := model.(color.Palette); ok {
		for _, c := range palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	}
	return 4
}

// CheckChannels reports ErrChannelCount when an image cannot supply the
// channels format needs.
func CheckChannels(info *ImageInfo, format metadata.TextureFormat) error {
	want := format.Channels()
	if want == 0 {
		return fmt.Errorf("texture format %s: %w", format, ErrUnknownFormat)
	}
	if info.Channels < want {
		return fmt.Errorf("%w: %s has %d, %s needs %d", ErrChannelCount, info.Kind, info.Channels, format, want)
	}
	return nil
}

/**
 * @brief Decodes an image into tightly packed 8-bit pixels of format, rows
 * bottom to top when flipY is set.
 * @param dst Written in place when large enough, typically a mapped transfer buffer.
 * @return The pixel slice, which aliases dst when it fit.
 */
func DecodeImage(data []byte, format metadata.TextureFormat, flipY bool, dst []byte) ([]byte, int, int, error) {
	channels := format.Channels()
	if channels == 0 {
		return nil, 0, 0, fmt.Errorf("texture format %s: %w", format, ErrUnknownFormat)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("image decode: %w", err)
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, 0, 0, ErrEmptyImage
	}

	nrgba, ok := src.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Bounds(), src, bounds.Min, draw.Src)
	}

	size := w * h * channels
	var out []byte
	if len(dst) >= size {
		out = dst[:size]
	} else {
		out = make([]byte, size)
	}

	for y := 0; y < h; y++ {
		row := y
		if flipY {
			row = h - 1 - y
		}
		srcRow := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		dstRow := out[row*w*channels : (row+1)*w*channels]
		if channels == 4 {
			copy(dstRow, srcRow)
			continue
		}
		for x := 0; x < w; x++ {
			copy(dstRow[x*channels:(x+1)*channels], srcRow[x*4:x*4+channels])
		}
	}
	return out, w, h, nil
}
