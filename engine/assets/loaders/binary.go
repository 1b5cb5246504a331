package loaders

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrBadMagic      = errors.New("bad magic number")
	ErrBadVersion    = errors.New("unsupported version")
	ErrBadAssetType  = errors.New("unexpected asset type")
	ErrTruncated     = errors.New("truncated file")
	ErrMissingVertex = errors.New("mesh has no vertex positions")
	ErrBadIndex      = errors.New("index out of vertex range")
	ErrUnsupported   = errors.New("unsupported encoding")
	ErrChannelCount  = errors.New("image has fewer channels than the requested format")
	ErrNotAnImage    = errors.New("not a recognised image")
	ErrEmptyImage    = errors.New("image has no pixels")
	ErrUnknownFormat = errors.New("unknown format")
	ErrEntryCycle    = errors.New("entry chain loops")
)

// blob is a little-endian view over a whole file. Every accessor bounds
// checks so a corrupt offset turns into ErrTruncated instead of a panic.
type blob []byte

func (b blob) span(offset, size uint64) ([]byte, error) {
	end := offset + size
	if end < offset || end > uint64(len(b)) {
		return nil, fmt.Errorf("%w: range [%d,%d) past %d bytes", ErrTruncated, offset, end, len(b))
	}
	return b[offset:end], nil
}

func (b blob) u32(offset uint64) (uint32, error) {
	s, err := b.span(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s), nil
}

func (b blob) u64(offset uint64) (uint64, error) {
	s, err := b.span(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s), nil
}

func (b blob) f32s(offset uint64, n int) ([]float32, error) {
	s, err := b.span(offset, uint64(n)*4)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(s[i*4:]))
	}
	return out, nil
}

func (b blob) vec2s(offset uint64, count uint32) ([]mgl32.Vec2, error) {
	f, err := b.f32s(offset, int(count)*2)
	if err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec2, count)
	for i := range out {
		out[i] = mgl32.Vec2{f[i*2], f[i*2+1]}
	}
	return out, nil
}

func (b blob) vec3s(offset uint64, count uint32) ([]mgl32.Vec3, error) {
	f, err := b.f32s(offset, int(count)*3)
	if err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec3, count)
	for i := range out {
		out[i] = mgl32.Vec3{f[i*3], f[i*3+1], f[i*3+2]}
	}
	return out, nil
}

func (b blob) vec4s(offset uint64, count uint32) ([]mgl32.Vec4, error) {
	f, err := b.f32s(offset, int(count)*4)
	if err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec4, count)
	for i := range out {
		out[i] = mgl32.Vec4{f[i*4], f[i*4+1], f[i*4+2], f[i*4+3]}
	}
	return out, nil
}

func (b blob) u32s(offset uint64, count uint32) ([]uint32, error) {
	s, err := b.span(offset, uint64(count)*4)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(s[i*4:])
	}
	return out, nil
}

// fixedString reads a NUL padded string field.
func fixedString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// appendFixedString writes s NUL padded to exactly size bytes, truncating if needed.
func appendFixedString(dst []byte, s string, size int) []byte {
	field := make([]byte, size)
	copy(field[:size-1], s)
	return append(dst, field...)
}

func appendVec3(dst []byte, v mgl32.Vec3) []byte {
	for _, f := range v {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

func appendFloats(dst []byte, f ...float32) []byte {
	for _, v := range f {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

func checkIndices(indices []uint32, vertexCount uint32) error {
	for _, i := range indices {
		if i >= vertexCount {
			return fmt.Errorf("%w: %d >= %d", ErrBadIndex, i, vertexCount)
		}
	}
	return nil
}
